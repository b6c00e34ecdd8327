package Approx2D

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/exascience/pargo/parallel"

	"github.com/notargets/msrapprox/geometry2D"
	"github.com/notargets/msrapprox/types"
	"github.com/notargets/msrapprox/utils"
)

var ErrSessionClosed = errors.New("session closed")

// Session owns the grid, matrix and vectors across a series of solves. A
// solve runs Threads workers in a task group; parameters can only change
// while no solve is running, and storage is never touched until every
// worker of the previous solve has returned.
type Session struct {
	Verbose bool
	// Wrap, if set, runs worker k of a solve in place of calling run
	// directly. It must call run exactly once on the calling goroutine, even
	// when its own work fails, since the other workers wait on this one.
	Wrap func(k int, run func() error) error

	mu          sync.Mutex
	cond        *sync.Cond // Signalled when a solve finishes or the session closes
	params      Parameters
	problem     *Problem
	args        []*Args
	running     bool
	terminating bool
	result      *Result
	err         error
}

func NewSession(p Parameters) (s *Session, err error) {
	var (
		g  *geometry2D.Grid
		pr *Problem
	)
	if err = p.Validate(); err != nil {
		return
	}
	if g, err = geometry2D.NewGrid(p.A, p.B, p.C, p.D, p.Nx, p.Ny); err != nil {
		return
	}
	if pr, err = NewProblemStorage(g); err != nil {
		return
	}
	s = &Session{
		params:  p,
		problem: pr,
	}
	s.cond = sync.NewCond(&s.mu)
	return
}

// Start launches a solve with the current parameters and returns at once.
// Use Completed to poll or Wait to block for the result.
func (s *Session) Start() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminating {
		return ErrSessionClosed
	}
	if s.running {
		return types.ErrSolveInProgress
	}
	var (
		p  = s.params
		pr = s.problem
		NP = p.Threads
		rc *utils.ReduceContext
	)
	if pr.Func, err = SelectFunction(p.Function); err != nil {
		return
	}
	if rc, err = utils.NewReduceContext(NP); err != nil {
		return
	}
	pr.Epsilon = p.Epsilon
	pr.MaxIterations = p.MaxIterations
	pr.RestartStep = p.restartStep()
	pr.Rows = utils.NewPartitionMap(NP, pr.Grid.N())
	pr.Cells = utils.NewPartitionMap(NP, pr.Grid.NumCells())
	pr.Reduce = rc

	args := NewArgs(pr, NP)
	thunks := make([]func(), NP)
	for k := range args {
		a, wrap := args[k], s.Wrap
		thunks[k] = func() {
			if wrap == nil {
				a.Run()
				return
			}
			if werr := wrap(a.K, a.Run); werr != nil && a.Err == nil {
				a.Err = werr
			}
		}
	}
	s.args = args
	s.running = true
	s.result, s.err = nil, nil
	if s.Verbose {
		log.Printf("starting solve: %s, grid %dx%d, eps = %g, %d threads",
			pr.Func, p.Nx, p.Ny, p.Epsilon, NP)
	}

	go func() {
		// Do returns only after every worker has returned
		parallel.Do(thunks...)
		rc.Release()
		res := newResult(args[0], p)
		var err error
		for _, a := range args {
			if a.Err != nil {
				err = a.Err
				break
			}
		}
		if err != nil {
			err = fmt.Errorf("solve of %s on %dx%d grid: %w", pr.Func, p.Nx, p.Ny, err)
		}
		s.mu.Lock()
		s.running = false
		s.result, s.err = res, err
		s.cond.Broadcast()
		s.mu.Unlock()
	}()
	return
}

// Completed reports whether every worker of the current solve has set its
// completion flag.
func (s *Session) Completed() bool {
	s.mu.Lock()
	args := s.args
	s.mu.Unlock()
	if args == nil {
		return false
	}
	for _, a := range args {
		if !a.Completed.Load() {
			return false
		}
	}
	return true
}

// Running is true from Start until all workers have been joined.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until the running solve has been joined and returns its
// result. The result is returned with the error of a failed solve as well.
func (s *Session) Wait() (res *Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.running {
		s.cond.Wait()
	}
	return s.result, s.err
}

func (s *Session) Solve() (res *Result, err error) {
	if err = s.Start(); err != nil {
		return
	}
	return s.Wait()
}

// Close refuses further solves and waits for a running one to finish. There
// is no cancellation of a solve in flight.
func (s *Session) Close() {
	s.mu.Lock()
	s.terminating = true
	s.cond.Broadcast()
	for s.running {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

// idle runs fn with the lock held if no solve is running.
func (s *Session) idle(fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminating {
		return ErrSessionClosed
	}
	if s.running {
		return types.ErrSolveInProgress
	}
	return fn()
}

func (s *Session) Parameters() (p Parameters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *Session) Grid() *geometry2D.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.problem.Grid
}

// Matrix exposes the assembled matrix of the last solve.
func (s *Session) Matrix() (m *utils.MSR, err error) {
	err = s.idle(func() error {
		m = s.problem.Matrix
		return nil
	})
	return
}

// Solution returns a copy of the current iterate.
func (s *Session) Solution() (x []float64, err error) {
	err = s.idle(func() error {
		x = make([]float64, len(s.problem.X))
		copy(x, s.problem.X)
		return nil
	})
	return
}

// LastResult is the result of the most recent finished solve, or nil.
func (s *Session) LastResult() (res *Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

// SetFunction selects the test function of the next solve. Grid, pattern
// and iterate are kept.
func (s *Session) SetFunction(k int) (err error) {
	if _, err = SelectFunction(k); err != nil {
		return
	}
	return s.idle(func() error {
		s.params.Function = k
		return nil
	})
}

func (s *Session) NextFunction() (err error) {
	return s.idle(func() error {
		s.params.Function = (s.params.Function + 1) % NumFunctions
		return nil
	})
}

func (s *Session) SetEpsilon(eps float64) (err error) {
	return s.idle(func() error {
		p := s.params
		p.Epsilon = eps
		if err := p.Validate(); err != nil {
			return err
		}
		s.params = p
		return nil
	})
}

func (s *Session) ScaleEpsilon(factor float64) (err error) {
	return s.SetEpsilon(s.Parameters().Epsilon * factor)
}

func (s *Session) SetMaxIterations(maxIts int) (err error) {
	return s.idle(func() error {
		p := s.params
		p.MaxIterations = maxIts
		if err := p.Validate(); err != nil {
			return err
		}
		s.params = p
		return nil
	})
}

// Resize replaces grid, matrix and vectors; the iterate restarts from zero.
// Invalid dimensions and failed allocations leave the session unchanged.
func (s *Session) Resize(nx, ny int) (err error) {
	return s.idle(func() (err error) {
		var (
			g  *geometry2D.Grid
			pr *Problem
		)
		if g, err = s.problem.Grid.Resize(nx, ny); err != nil {
			return
		}
		if pr, err = NewProblemStorage(g); err != nil {
			return
		}
		s.problem = pr
		s.params.Nx, s.params.Ny = nx, ny
		if s.Verbose {
			log.Printf("grid resized to %dx%d, %s", nx, ny, utils.GetMemUsage())
		}
		return
	})
}

func (s *Session) DoubleGrid() (err error) {
	p := s.Parameters()
	return s.Resize(2*p.Nx, 2*p.Ny)
}

func (s *Session) HalveGrid() (err error) {
	p := s.Parameters()
	return s.Resize(p.Nx/2, p.Ny/2)
}

// Info is the one line status of the session.
func (s *Session) Info() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		p     = s.params
		tf, _ = SelectFunction(p.Function)
		state = "Idle"
	)
	if s.running {
		state = "Computing..."
	}
	return fmt.Sprintf("%s | %s | Grid: %dx%d | Domain: [%g,%g]x[%g,%g] | eps: %g | P: %d",
		state, tf, p.Nx, p.Ny, p.A, p.B, p.C, p.D, p.Epsilon, p.Threads)
}
