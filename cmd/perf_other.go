//go:build !linux

package cmd

import "errors"

func threadCycles(fn func()) (cycles uint64, err error) {
	fn()
	return 0, errors.New("cycle counting needs linux perf events")
}
