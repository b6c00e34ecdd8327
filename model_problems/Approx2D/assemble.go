package Approx2D

import (
	"github.com/notargets/msrapprox/geometry2D"
	"github.com/notargets/msrapprox/utils"
)

/*
	The approximation is the L2 projection of f onto the continuous piecewise
	linear functions of the triangulated grid. With hat functions phi_l the
	system is
		sum_m (phi_l, phi_m) x_m = (f, phi_l)
	On a triangle T the local mass matrix is |T|/12 * (1 + delta_ab).
	The load integral uses the edge midpoint rule, exact for quadratics:
		int_T f phi_a = |T|/6 * (f(m_ab) + f(m_ac))
	so any linear f is projected onto itself.
*/

// AssembleRows fills rows [rMin,rMax) of the matrix and of b. Rows are
// assembled from the triangles around each node, so a worker touches only
// the rows it owns. It returns the number of function samples that were not
// finite, and an error if the matrix pattern is missing an entry of the
// stencil.
func AssembleRows(g *geometry2D.Grid, m *utils.MSR, b []float64, f func(x, y float64) float64,
	rMin, rMax int) (bad int, err error) {
	var (
		area   = g.TriangleArea()
		diagT  = area / 6.
		offT   = area / 12.
		sample = func(x, y float64) (val float64) {
			val = f(x, y)
			if !utils.IsFinite(val) {
				bad++
			}
			return
		}
	)
	m.ZeroRows(rMin, rMax)
	for l := rMin; l < rMax; l++ {
		var (
			i, j = g.IJ(l)
			rhs  float64
		)
		for ci := i - 1; ci <= i; ci++ {
			for cj := j - 1; cj <= j; cj++ {
				if ci < 0 || cj < 0 || ci >= g.Nx || cj >= g.Ny {
					continue
				}
				for _, tri := range g.Triangles(ci, cj) {
					me := -1
					for v := 0; v < 3; v++ {
						if tri[v][0] == i && tri[v][1] == j {
							me = v
						}
					}
					if me == -1 {
						continue
					}
					m.Diag[l] += diagT
					for v := 0; v < 3; v++ {
						if v == me {
							continue
						}
						vi, vj := tri[v][0], tri[v][1]
						if aerr := m.Add(l, g.Index(vi, vj), offT); aerr != nil && err == nil {
							err = aerr
						}
						xm := g.X(0.5 * float64(i+vi))
						ym := g.Y(0.5 * float64(j+vj))
						rhs += diagT * sample(xm, ym)
					}
				}
			}
		}
		b[l] = rhs
	}
	return
}
