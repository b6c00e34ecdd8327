package Approx2D

import (
	"fmt"
	"sync/atomic"

	"github.com/notargets/msrapprox/geometry2D"
	"github.com/notargets/msrapprox/utils"
)

// Problem is the state shared by all workers of one solve. The matrix and B
// are read only while iterating; X, R, U and V are written by each worker
// only inside its own row range.
type Problem struct {
	Grid          *geometry2D.Grid
	Matrix        *utils.MSR
	B, X, R, U, V []float64
	Func          TestFunction
	Epsilon       float64
	MaxIterations int
	RestartStep   int
	Rows, Cells   *utils.PartitionMap // Row and cell ownership, one bucket per worker
	Reduce        *utils.ReduceContext
}

// NewProblemStorage allocates the matrix pattern and the five vectors of a
// grid. X starts at zero.
func NewProblemStorage(g *geometry2D.Grid) (pr *Problem, err error) {
	var vs [][]float64
	pr = &Problem{Grid: g}
	if pr.Matrix, err = NewGridMatrix(g); err != nil {
		return nil, err
	}
	if vs, err = utils.AllocVectors(g.N(), 5); err != nil {
		return nil, err
	}
	pr.B, pr.X, pr.R, pr.U, pr.V = vs[0], vs[1], vs[2], vs[3], vs[4]
	return
}

type State uint8

const (
	StateInit State = iota
	StateAssemble
	StateIterate
	StateConverged
	StateMaxIterations
	StateFailed
	StateReport
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateAssemble:
		return "ASSEMBLE"
	case StateIterate:
		return "ITERATE"
	case StateConverged:
		return "CONVERGED"
	case StateMaxIterations:
		return "MAX_ITERATIONS"
	case StateFailed:
		return "FAILED"
	case StateReport:
		return "REPORT"
	case StateDone:
		return "DONE"
	}
	return "UNKNOWN"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(text []byte) error {
	for st := StateInit; st <= StateDone; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Args is the view one worker has of a solve. The output fields are written
// only by the owning worker; Completed is set last.
type Args struct {
	Problem *Problem
	K, NP   int // This worker and the number of workers

	Its            int
	R1, R2, R3, R4 float64
	Residual       float64
	T1, T2         float64 // Assembly and solve time, seconds
	State, Outcome State   // Current state and the terminal iteration state
	Err            error
	Completed      atomic.Bool
}

func NewArgs(pr *Problem, NP int) (args []*Args) {
	args = make([]*Args, NP)
	for k := 0; k < NP; k++ {
		args[k] = &Args{
			Problem: pr,
			K:       k,
			NP:      NP,
		}
	}
	return
}
