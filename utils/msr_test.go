package utils

import (
	"errors"
	"testing"

	"github.com/james-bowman/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/msrapprox/types"
)

// tridiag builds the 1D Laplacian in MSR form.
func tridiag(t *testing.T, n int) (m *MSR) {
	var err error
	m, err = AllocateMSR(n, 2*(n-1))
	require.NoError(t, err)
	for r := 0; r < n; r++ {
		var cols []int
		if r > 0 {
			cols = append(cols, r-1)
		}
		if r < n-1 {
			cols = append(cols, r+1)
		}
		require.NoError(t, m.SetRowPattern(r, cols))
		require.NoError(t, m.Set(r, r, 2))
		for _, c := range cols {
			require.NoError(t, m.Set(r, c, -1))
		}
	}
	return
}

func TestMSR(t *testing.T) {
	{ // Allocation failures
		_, err := AllocateMSR(0, 0)
		assert.True(t, errors.Is(err, types.ErrAllocationFailure))
		_, err = AllocateMSR(int(MaxBytes/8), 1)
		assert.True(t, errors.Is(err, types.ErrAllocationFailure))
		// A 12000 x 12000 grid needs about 16 GB
		n := 12001 * 12001
		assert.Greater(t, MSRBytes(n, 6*n), float64(MaxBytes))
		_, err = AllocateMSR(n, 6*n)
		assert.True(t, errors.Is(err, types.ErrAllocationFailure))
		_, err = AllocateMSR(10, -1)
		assert.True(t, errors.Is(err, types.ErrAllocationFailure))
		_, err = AllocVectors(int(MaxBytes/8), 5)
		assert.True(t, errors.Is(err, types.ErrAllocationFailure))
		vs, err := AllocVectors(7, 5)
		require.NoError(t, err)
		assert.Len(t, vs, 5)
		assert.Equal(t, make([]float64, 7), vs[4])
	}
	{ // Pattern, row views and bounds
		m := tridiag(t, 5)
		assert.Equal(t, []int{0, 1, 3, 5, 7, 8}, m.Offsets)
		cols, vals := m.Row(2)
		assert.Equal(t, []int{1, 3}, cols)
		assert.Equal(t, []float64{-1, -1}, vals)
		assert.Equal(t, 1, m.RowLen(0))
		assert.Equal(t, 2., m.At(3, 3))
		assert.Equal(t, -1., m.At(3, 4))
		assert.Equal(t, 0., m.At(0, 4))
		assert.Error(t, m.Add(0, 4, 1))
		assert.Error(t, m.Set(0, 3, 1))
		assert.Panics(t, func() { m.Row(5) })
		assert.Panics(t, func() { m.Row(-1) })
		assert.True(t, m.IsPatternSymmetric())
		assert.True(t, m.IsSymmetric(1.e-15))
		require.NoError(t, m.Add(0, 1, 0.5))
		assert.True(t, m.IsPatternSymmetric())
		assert.False(t, m.IsSymmetric(1.e-15))
		// Views are capped, appending cannot spill into the next row
		cols, _ = m.Row(1)
		cols = append(cols, 4)
		assert.Equal(t, 3, len(cols))
		assert.Equal(t, 1, m.Cols[m.Offsets[2]])
	}
	{ // Pattern writes are validated
		m, err := AllocateMSR(3, 2)
		require.NoError(t, err)
		assert.Error(t, m.SetRowPattern(0, []int{0}))
		assert.Error(t, m.SetRowPattern(0, []int{3}))
		assert.Error(t, m.SetRowPattern(0, []int{1, 2, 1}))
		assert.Error(t, m.SetRowPattern(3, nil))
	}
	{ // Matrix-vector product agrees with gonum and the sparse CSR
		n := 9
		m := tridiag(t, n)
		x := make([]float64, n)
		for i := range x {
			x[i] = float64(i*i) - 3
		}
		y := make([]float64, n)
		m.MulVec(y, x)

		var yd mat.VecDense
		yd.MulVec(m, mat.NewVecDense(n, x))
		assert.InDeltaSlice(t, yd.RawVector().Data, y, 1.e-12)

		csr := m.ToCSR()
		yc := make([]float64, n)
		csr.MulVecTo(yc, false, x)
		assert.InDeltaSlice(t, y, yc, 1.e-12)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				assert.Equal(t, m.At(i, j), csr.At(i, j))
			}
		}

		// Partial products only touch their rows
		yp := make([]float64, n)
		m.MulVecRange(yp, x, 3, 6)
		assert.Equal(t, 0., yp[2])
		assert.Equal(t, y[3:6], yp[3:6])
		assert.Equal(t, 0., yp[6])

		m.ZeroRows(0, n)
		m.MulVec(y, x)
		assert.Equal(t, make([]float64, n), y)
	}
	{ // Round trip from a DOK built matrix
		dok := sparse.NewDOK(4, 4)
		dok.Set(0, 0, 4)
		dok.Set(0, 2, 1)
		dok.Set(2, 0, 1)
		dok.Set(1, 1, 3)
		dok.Set(3, 3, 2)
		dok.Set(2, 2, 5)
		dok.Set(3, 1, -1)
		dok.Set(1, 3, -1)
		m, err := NewMSRFromCSR(dok.ToCSR())
		require.NoError(t, err)
		assert.Equal(t, []float64{4, 3, 5, 2}, m.Diag)
		assert.Equal(t, 4, len(m.Cols))
		assert.Equal(t, -1., m.At(1, 3))
		assert.True(t, m.IsSymmetric(0))
		assert.True(t, mat.Equal(m, m.ToCSR()))

		_, err = NewMSRFromCSR(sparse.NewDOK(2, 3).ToCSR())
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
	}
}
