package utils

import (
	"fmt"
	"math"
	"sync"

	"github.com/notargets/msrapprox/types"
)

// ReduceContext is the collective used by the NP workers of one solve. Every
// worker must make the same sequence of calls; a worker that skips one
// leaves the others blocked at the barrier.
type ReduceContext struct {
	NP         int
	mu         sync.Mutex
	cond       *sync.Cond
	arrived    int
	generation uint64
	slots      []float64
}

func NewReduceContext(NP int) (rc *ReduceContext, err error) {
	if NP < 1 {
		err = fmt.Errorf("%w: thread count must be at least 1, have %d",
			types.ErrInvalidConfiguration, NP)
		return
	}
	rc = &ReduceContext{NP: NP}
	rc.cond = sync.NewCond(&rc.mu)
	if err = rc.Init(NP); err != nil {
		rc = nil
	}
	return
}

// Init sizes the slot buffer for NP workers, reusing it when it is already
// large enough. It must not be called while a collective is in flight.
func (rc *ReduceContext) Init(NP int) (err error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if NP < 1 {
		return fmt.Errorf("%w: thread count must be at least 1, have %d",
			types.ErrInvalidConfiguration, NP)
	}
	rc.NP = NP
	if cap(rc.slots) < NP {
		rc.slots = make([]float64, NP)
	}
	rc.slots = rc.slots[:NP]
	return
}

// Release drops the slot buffer at the end of a solve.
func (rc *ReduceContext) Release() {
	rc.mu.Lock()
	rc.slots = nil
	rc.mu.Unlock()
}

// Barrier returns once all NP workers have called it.
func (rc *ReduceContext) Barrier() {
	if rc.NP == 1 {
		return
	}
	rc.mu.Lock()
	gen := rc.generation
	rc.arrived++
	if rc.arrived == rc.NP {
		rc.arrived = 0
		rc.generation++
		rc.cond.Broadcast()
	} else {
		for gen == rc.generation {
			rc.cond.Wait()
		}
	}
	rc.mu.Unlock()
}

func (rc *ReduceContext) reduce(myThread int, s float64, op func(acc, val float64) float64) (result float64) {
	if myThread < 0 || myThread >= rc.NP {
		panic(fmt.Errorf("thread %d out of range [0,%d)", myThread, rc.NP))
	}
	rc.mu.Lock()
	rc.slots[myThread] = s
	rc.mu.Unlock()

	// All slots are written past this point
	rc.Barrier()

	rc.mu.Lock()
	result = rc.slots[0]
	for k := 1; k < rc.NP; k++ {
		result = op(result, rc.slots[k])
	}
	rc.mu.Unlock()

	// All slots are read past this point, so the next call may overwrite them
	rc.Barrier()
	return
}

// ReduceSum is an all-reduce: every worker receives the same sum of all NP
// contributions, added in worker order so the result does not depend on
// scheduling.
func (rc *ReduceContext) ReduceSum(myThread int, s float64) (sum float64) {
	return rc.reduce(myThread, s, func(acc, val float64) float64 { return acc + val })
}

func (rc *ReduceContext) ReduceMax(myThread int, s float64) (max float64) {
	return rc.reduce(myThread, s, math.Max)
}
