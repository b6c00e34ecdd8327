package Approx2D

import "fmt"

// Task identifies this problem in the report line.
const Task = 6

// Result is what a finished solve publishes.
type Result struct {
	Task           int
	Its            int
	R1, R2, R3, R4 float64
	Residual       float64
	T1, T2         float64
	Outcome        State
	Epsilon        float64
	K, Nx, Ny, P   int
	X              []float64 `json:",omitempty"`
}

func newResult(a *Args, p Parameters) (res *Result) {
	return &Result{
		Task:     Task,
		Its:      a.Its,
		R1:       a.R1,
		R2:       a.R2,
		R3:       a.R3,
		R4:       a.R4,
		Residual: a.Residual,
		T1:       a.T1,
		T2:       a.T2,
		Outcome:  a.Outcome,
		Epsilon:  p.Epsilon,
		K:        p.Function,
		Nx:       p.Nx,
		Ny:       p.Ny,
		P:        p.Threads,
	}
}

func (res *Result) Converged() bool { return res.Outcome == StateConverged }

// ReportLines returns the two lines of the canonical report.
func (res *Result) ReportLines() (line1, line2 string) {
	line1 = fmt.Sprintf("Task = %d R1 = %e R2 = %e R3 = %e R4 = %e T1 = %.2f T2 = %.2f",
		res.Task, res.R1, res.R2, res.R3, res.R4, res.T1, res.T2)
	line2 = fmt.Sprintf("It = %d E = %e K = %d Nx = %d Ny = %d P = %d",
		res.Its, res.Epsilon, res.K, res.Nx, res.Ny, res.P)
	return
}

func (res *Result) Report() string {
	line1, line2 := res.ReportLines()
	return line1 + "\n" + line2 + "\n"
}
