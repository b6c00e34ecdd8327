package Approx2D

import (
	"fmt"

	"github.com/notargets/msrapprox/geometry2D"
	"github.com/notargets/msrapprox/types"
)

const DefaultRestartStep = 50

type Parameters struct {
	A, B, C, D    float64 // Domain [A,B]x[C,D]
	Nx, Ny        int     // Computational grid
	Function      int     // Test function number, 0-7
	Epsilon       float64 // Relative residual tolerance
	MaxIterations int
	Threads       int
	RestartStep   int // Iterations between true residual refreshes, 0 means DefaultRestartStep
}

// Validate rejects parameters before anything is allocated.
func (p *Parameters) Validate() (err error) {
	if err = geometry2D.CheckDomain(p.A, p.B, p.C, p.D); err != nil {
		return
	}
	if err = geometry2D.CheckResolution(p.Nx, p.Ny); err != nil {
		return
	}
	if _, err = SelectFunction(p.Function); err != nil {
		return
	}
	if !(p.Epsilon > 0) {
		return fmt.Errorf("%w: epsilon must be positive, have %g", types.ErrInvalidConfiguration, p.Epsilon)
	}
	if p.MaxIterations < 1 {
		return fmt.Errorf("%w: maximum iterations must be positive, have %d",
			types.ErrInvalidConfiguration, p.MaxIterations)
	}
	if p.Threads < 1 {
		return fmt.Errorf("%w: number of threads must be at least 1, have %d",
			types.ErrInvalidConfiguration, p.Threads)
	}
	if p.RestartStep < 0 {
		return fmt.Errorf("%w: restart step must not be negative, have %d",
			types.ErrInvalidConfiguration, p.RestartStep)
	}
	return
}

func (p *Parameters) restartStep() int {
	if p.RestartStep == 0 {
		return DefaultRestartStep
	}
	return p.RestartStep
}
