//go:build linux

package cmd

import (
	perf "github.com/hodgesds/perf-utils"
)

// threadCycles runs fn on a locked OS thread under a hardware cycle counter.
// fn runs whether or not the counter could be opened.
func threadCycles(fn func()) (cycles uint64, err error) {
	var (
		ran bool
		pv  *perf.ProfileValue
	)
	pv, err = perf.CPUCycles(func() error {
		ran = true
		fn()
		return nil
	})
	if !ran {
		fn()
	}
	if err != nil {
		return
	}
	return pv.Value, nil
}
