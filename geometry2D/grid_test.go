package geometry2D

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/msrapprox/types"
)

func TestGrid(t *testing.T) {
	{ // Validation
		_, err := NewGrid(1, 0, 0, 1, 5, 5)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
		_, err = NewGrid(0, 1, 1, 1, 5, 5)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
		_, err = NewGrid(0, 1, 0, 1, 4, 5)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
		_, err = NewGrid(0, 1, 0, 1, 5, 2)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
		_, err = NewGrid(math.NaN(), 1, 0, 1, 5, 5)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
	}
	{ // Index mapping
		g, err := NewGrid(-1, 1, 0, 3, 7, 5)
		require.NoError(t, err)
		assert.Equal(t, 48, g.N())
		assert.Equal(t, 35, g.NumCells())
		for l := 0; l < g.N(); l++ {
			i, j := g.IJ(l)
			assert.True(t, g.Contains(i, j))
			assert.Equal(t, l, g.Index(i, j))
		}
		x, y := g.Node(g.Index(7, 5))
		assert.InDelta(t, 1., x, 1.e-15)
		assert.InDelta(t, 3., y, 1.e-15)
		x, y = g.Node(0)
		assert.Equal(t, -1., x)
		assert.Equal(t, 0., y)
		for cell := 0; cell < g.NumCells(); cell++ {
			i, j := g.CellIJ(cell)
			assert.True(t, i < g.Nx && j < g.Ny)
		}
	}
	{ // Neighbours are ascending and mutual
		g, _ := NewGrid(0, 1, 0, 1, 5, 6)
		var count int
		for l := 0; l < g.N(); l++ {
			i, j := g.IJ(l)
			nbrs := g.Neighbors(i, j)
			count += len(nbrs)
			for n := 1; n < len(nbrs); n++ {
				assert.Less(t, nbrs[n-1], nbrs[n])
			}
			for _, nb := range nbrs {
				ni, nj := g.IJ(nb)
				assert.Contains(t, g.Neighbors(ni, nj), l)
			}
		}
		assert.Equal(t, g.NumOffDiagonal(), count)
		assert.Len(t, g.Neighbors(2, 2), 6)
		assert.Len(t, g.Neighbors(0, 0), 3)
		assert.Len(t, g.Neighbors(g.Nx, 0), 2)
	}
	{ // Centroids lie inside their triangles
		g, _ := NewGrid(0, 5, 0, 5, 5, 5)
		lower, upper := g.Centroids(1, 2)
		assert.InDelta(t, 1.+2./3., lower[0], 1.e-14)
		assert.InDelta(t, 2.+1./3., lower[1], 1.e-14)
		assert.InDelta(t, 1.+1./3., upper[0], 1.e-14)
		assert.InDelta(t, 2.+2./3., upper[1], 1.e-14)
		tris := g.Triangles(1, 2)
		assert.Equal(t, [2]int{2, 2}, tris[0][1])
		assert.Equal(t, [2]int{1, 3}, tris[1][2])
	}
	{ // Resize keeps the domain
		g, _ := NewGrid(0, 2, -1, 1, 5, 5)
		gn, err := g.Resize(10, 10)
		require.NoError(t, err)
		assert.Equal(t, 121, gn.N())
		assert.Equal(t, 0.2, gn.Hx)
		_, err = g.Resize(2, 2)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
	}
}
