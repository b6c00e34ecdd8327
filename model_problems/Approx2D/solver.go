package Approx2D

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/msrapprox/types"
	"github.com/notargets/msrapprox/utils"
)

// Run is the routine executed by every worker of a solve. All workers make
// the same sequence of collective calls, and every branch that ends the
// solve depends only on reduced values, so the workers leave together.
func (a *Args) Run() (err error) {
	var (
		pr         = a.Problem
		rc         = pr.Reduce
		kMin, kMax = pr.Rows.GetBucketRange(a.K)
	)
	defer func() {
		a.Err = err
		a.Completed.Store(true)
	}()

	a.State = StateAssemble
	start := time.Now()
	bad, aerr := AssembleRows(pr.Grid, pr.Matrix, pr.B, pr.Func.F, kMin, kMax)
	var failed float64
	if aerr != nil {
		failed = 1
	}
	nFailed := rc.ReduceSum(a.K, failed)
	nBad := rc.ReduceSum(a.K, float64(bad))
	a.T1 = time.Since(start).Seconds()
	if nFailed != 0 {
		a.State, a.Outcome = StateFailed, StateFailed
		if aerr == nil {
			aerr = fmt.Errorf("assembly failed on %d of %d workers", int(nFailed), rc.NP)
		}
		return aerr
	}
	if nBad != 0 {
		a.State, a.Outcome = StateFailed, StateFailed
		return fmt.Errorf("%w: %d samples of %s are not finite", types.ErrNumericTrap, int(nBad), pr.Func)
	}

	a.State = StateIterate
	start = time.Now()
	a.Its, a.Outcome, err = a.iterate(kMin, kMax)
	a.T2 = time.Since(start).Seconds()
	if err != nil {
		a.State = StateFailed
		return
	}

	a.State = StateReport
	if err = a.report(kMin, kMax); err != nil {
		a.State = StateFailed
		return
	}
	a.State = StateDone
	return
}

func trap(name string, its int, val float64) error {
	return fmt.Errorf("%w: %s = %g at iteration %d", types.ErrNumericTrap, name, val, its)
}

/*
	Jacobi preconditioned conjugate gradients, restarted every RestartStep
	iterations from the true residual r = B - A*x. Work vectors:
		U: preconditioned residual z = D^-1 r, then A*p
		V: search direction p
	Each iteration takes three reductions, (r,z), (p,Ap) and (r,r), and one
	barrier so that every part of p is written before A*p reads it.
*/
func (a *Args) iterate(kMin, kMax int) (its int, outcome State, err error) {
	var (
		pr            = a.Problem
		m, rc, k      = pr.Matrix, pr.Reduce, a.K
		b, x, r, u, v = pr.B, pr.X, pr.R, pr.U, pr.V
		step          = pr.RestartStep
		bb, rr, prec  float64
	)
	if step < 1 {
		step = DefaultRestartStep
	}
	bb = rc.ReduceSum(k, floats.Dot(b[kMin:kMax], b[kMin:kMax]))
	if !utils.IsFinite(bb) {
		return 0, StateFailed, trap("(B,B)", 0, bb)
	}
	prec = pr.Epsilon * pr.Epsilon * bb

	for its < pr.MaxIterations {
		m.MulVecRange(r, x, kMin, kMax)
		for l := kMin; l < kMax; l++ {
			r[l] = b[l] - r[l]
		}
		rr = rc.ReduceSum(k, floats.Dot(r[kMin:kMax], r[kMin:kMax]))
		if !utils.IsFinite(rr) {
			return its, StateFailed, trap("(r,r)", its, rr)
		}
		if rr < prec {
			return its, StateConverged, nil
		}
		var rhoPrev float64
		for s := 0; s < step && its < pr.MaxIterations; s++ {
			for l := kMin; l < kMax; l++ {
				u[l] = r[l] / m.Diag[l]
			}
			rho := rc.ReduceSum(k, floats.Dot(r[kMin:kMax], u[kMin:kMax]))
			if !utils.IsFinite(rho) {
				return its, StateFailed, trap("(r,z)", its, rho)
			}
			if rho == 0 {
				return its, StateConverged, nil
			}
			if s == 0 {
				copy(v[kMin:kMax], u[kMin:kMax])
			} else {
				beta := rho / rhoPrev
				for l := kMin; l < kMax; l++ {
					v[l] = u[l] + beta*v[l]
				}
			}
			rc.Barrier()
			m.MulVecRange(u, v, kMin, kMax)
			sigma := rc.ReduceSum(k, floats.Dot(v[kMin:kMax], u[kMin:kMax]))
			if !utils.IsFinite(sigma) || sigma <= 0 {
				return its, StateFailed, trap("(p,Ap)", its, sigma)
			}
			alpha := rho / sigma
			floats.AddScaled(x[kMin:kMax], alpha, v[kMin:kMax])
			floats.AddScaled(r[kMin:kMax], -alpha, u[kMin:kMax])
			its++
			rr = rc.ReduceSum(k, floats.Dot(r[kMin:kMax], r[kMin:kMax]))
			if !utils.IsFinite(rr) {
				return its, StateFailed, trap("(r,r)", its, rr)
			}
			if rr < prec {
				return its, StateConverged, nil
			}
			rhoPrev = rho
		}
	}
	return its, StateMaxIterations, nil
}

// report computes the statistics of the final iterate. R1 and R2 compare
// the approximation with f at the triangle centroids, R3 and R4 at the
// nodes; Residual is |B - A*x| / |B|.
func (a *Args) report(kMin, kMax int) (err error) {
	var (
		pr             = a.Problem
		g, rc, k       = pr.Grid, pr.Reduce, a.K
		f              = pr.Func.F
		x, r, b        = pr.X, pr.R, pr.B
		cMin, cMax     = pr.Cells.GetBucketRange(k)
		nodeMax, nodeL float64
		triMax, triL   float64
		rr, bb         float64
	)
	for c := cMin; c < cMax; c++ {
		var (
			i, j           = g.CellIJ(c)
			u00            = x[g.Index(i, j)]
			u10            = x[g.Index(i+1, j)]
			u11            = x[g.Index(i+1, j+1)]
			u01            = x[g.Index(i, j+1)]
			lower, upper   = g.Centroids(i, j)
			errLow, errUpp = math.Abs(f(lower[0], lower[1]) - (u00+u10+u11)/3.),
				math.Abs(f(upper[0], upper[1]) - (u00+u11+u01)/3.)
		)
		triMax = math.Max(triMax, math.Max(errLow, errUpp))
		triL += errLow + errUpp
	}
	m := pr.Matrix
	m.MulVecRange(r, x, kMin, kMax)
	for l := kMin; l < kMax; l++ {
		xn, yn := g.Node(l)
		e := math.Abs(f(xn, yn) - x[l])
		nodeMax = math.Max(nodeMax, e)
		nodeL += e
		r[l] = b[l] - r[l]
	}
	rr = floats.Dot(r[kMin:kMax], r[kMin:kMax])
	bb = floats.Dot(b[kMin:kMax], b[kMin:kMax])

	a.R1 = rc.ReduceMax(k, triMax)
	a.R2 = rc.ReduceSum(k, triL) * g.TriangleArea()
	a.R3 = rc.ReduceMax(k, nodeMax)
	a.R4 = rc.ReduceSum(k, nodeL) * g.Hx * g.Hy
	rr = rc.ReduceSum(k, rr)
	bb = rc.ReduceSum(k, bb)
	a.Residual = math.Sqrt(rr)
	if bb > 0 {
		a.Residual /= math.Sqrt(bb)
	}
	for _, val := range []float64{a.R1, a.R2, a.R3, a.R4, a.Residual} {
		if !utils.IsFinite(val) {
			return trap("residual", a.Its, val)
		}
	}
	return
}
