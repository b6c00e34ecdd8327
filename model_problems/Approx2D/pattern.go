package Approx2D

import (
	"fmt"

	"github.com/notargets/msrapprox/geometry2D"
	"github.com/notargets/msrapprox/utils"
)

// AllocateMSRMatrix reserves exactly the storage the triangulated stencil of
// g needs.
func AllocateMSRMatrix(g *geometry2D.Grid) (m *utils.MSR, err error) {
	if m, err = utils.AllocateMSR(g.N(), g.NumOffDiagonal()); err != nil {
		err = fmt.Errorf("allocating %dx%d grid matrix: %w", g.Nx, g.Ny, err)
	}
	return
}

// FillPattern writes the row offsets and column indices. It depends only on
// the grid dimensions and is reused for every function and tolerance.
func FillPattern(g *geometry2D.Grid, m *utils.MSR) (err error) {
	if m.N != g.N() || len(m.Cols) != g.NumOffDiagonal() {
		return fmt.Errorf("matrix storage %d/%d does not match %dx%d grid",
			m.N, len(m.Cols), g.Nx, g.Ny)
	}
	for l := 0; l < g.N(); l++ {
		i, j := g.IJ(l)
		if err = m.SetRowPattern(l, g.Neighbors(i, j)); err != nil {
			return
		}
	}
	return
}

// NewGridMatrix allocates and patterns the matrix of g.
func NewGridMatrix(g *geometry2D.Grid) (m *utils.MSR, err error) {
	if m, err = AllocateMSRMatrix(g); err != nil {
		return
	}
	if err = FillPattern(g, m); err != nil {
		m = nil
	}
	return
}
