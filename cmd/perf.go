package cmd

import "fmt"

// cycleCounter sums the CPU cycles of the workers of one solve. Each worker
// runs on its own OS thread, so each gets its own counter.
type cycleCounter struct {
	cycles []uint64
	errs   []error
}

func newCycleCounter(NP int) *cycleCounter {
	return &cycleCounter{
		cycles: make([]uint64, NP),
		errs:   make([]error, NP),
	}
}

// wrap runs worker k under its counter. A counter failure never stops the
// worker; it is reported by total.
func (cc *cycleCounter) wrap(k int, run func() error) (err error) {
	cc.cycles[k], cc.errs[k] = threadCycles(func() { err = run() })
	return
}

func (cc *cycleCounter) total() (cycles uint64, err error) {
	for k, c := range cc.cycles {
		if cc.errs[k] != nil {
			return 0, fmt.Errorf("worker %d: %w", k, cc.errs[k])
		}
		cycles += c
	}
	return
}
