package utils

import (
	"fmt"
	"math"
	"sort"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/msrapprox/types"
)

// MaxBytes bounds any single storage request made through AllocateMSR and
// AllocVectors. Requests above it fail with ErrAllocationFailure instead of
// reaching the runtime, where running out of memory is fatal.
var MaxBytes int64 = 4 << 30

// MSRBytes is the storage taken by an n x n matrix with nOff off diagonal
// entries: diagonal and offsets, plus a column and a value per entry.
func MSRBytes(n, nOff int) float64 {
	return 8*(2*float64(n)+1) + 16*float64(nOff)
}

func checkBytes(what string, need float64) (err error) {
	if need > float64(MaxBytes) {
		err = fmt.Errorf("%w: %s needs %.3g bytes, limit is %d",
			types.ErrAllocationFailure, what, need, MaxBytes)
	}
	return
}

// MSR is a modified sparse row matrix: the diagonal is stored apart from the
// off diagonal entries. Row r owns Cols[Offsets[r]:Offsets[r+1]] and the
// matching Vals. The pattern is fixed once filled, only values change.
type MSR struct {
	N       int
	Diag    []float64
	Offsets []int
	Cols    []int
	Vals    []float64
}

// AllocateMSR reserves storage for an n x n matrix with nOff off diagonal
// entries. Offsets is zero; the pattern is filled by the caller.
func AllocateMSR(n, nOff int) (m *MSR, err error) {
	if n <= 0 || nOff < 0 {
		err = fmt.Errorf("%w: matrix dimensions n = %d, off diagonal = %d",
			types.ErrAllocationFailure, n, nOff)
		return
	}
	if err = checkBytes(fmt.Sprintf("matrix of %d rows with %d off diagonal entries", n, nOff),
		MSRBytes(n, nOff)); err != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = fmt.Errorf("%w: %v", types.ErrAllocationFailure, r)
		}
	}()
	m = &MSR{
		N:       n,
		Diag:    make([]float64, n),
		Offsets: make([]int, n+1),
		Cols:    make([]int, nOff),
		Vals:    make([]float64, nOff),
	}
	return
}

// AllocVectors returns count zeroed vectors of length n.
func AllocVectors(n, count int) (vs [][]float64, err error) {
	if n <= 0 || count <= 0 {
		err = fmt.Errorf("%w: %d vectors of length %d", types.ErrAllocationFailure, count, n)
		return
	}
	if err = checkBytes(fmt.Sprintf("%d vectors of length %d", count, n),
		8*float64(n)*float64(count)); err != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			vs = nil
			err = fmt.Errorf("%w: %v", types.ErrAllocationFailure, r)
		}
	}()
	vs = make([][]float64, count)
	for i := range vs {
		vs[i] = make([]float64, n)
	}
	return
}

// SetRowPattern writes the columns of row r. Rows must be written in order,
// starting with row 0, since each row starts where the previous one ended.
func (m *MSR) SetRowPattern(r int, cols []int) (err error) {
	if r < 0 || r >= m.N {
		return fmt.Errorf("row %d out of range [0,%d)", r, m.N)
	}
	var (
		start = m.Offsets[r]
		end   = start + len(cols)
	)
	if end > len(m.Cols) {
		return fmt.Errorf("row %d needs %d off diagonal slots, only %d allocated",
			r, end, len(m.Cols))
	}
	for _, c := range cols {
		if c < 0 || c >= m.N || c == r {
			return fmt.Errorf("column %d invalid for row %d", c, r)
		}
	}
	copy(m.Cols[start:end], cols)
	m.Offsets[r+1] = end
	return
}

func (m *MSR) checkRow(r int) {
	if r < 0 || r >= m.N {
		panic(fmt.Errorf("row %d out of range [0,%d)", r, m.N))
	}
}

// Row returns views of the off diagonal columns and values of row r.
func (m *MSR) Row(r int) (cols []int, vals []float64) {
	m.checkRow(r)
	var (
		start, end = m.Offsets[r], m.Offsets[r+1]
	)
	return m.Cols[start:end:end], m.Vals[start:end:end]
}

func (m *MSR) RowLen(r int) int {
	m.checkRow(r)
	return m.Offsets[r+1] - m.Offsets[r]
}

func (m *MSR) slot(r, c int) (ind int, ok bool) {
	m.checkRow(r)
	for ind = m.Offsets[r]; ind < m.Offsets[r+1]; ind++ {
		if m.Cols[ind] == c {
			return ind, true
		}
	}
	return -1, false
}

// Add accumulates val into entry (r,c), which must be on the diagonal or in
// the pattern.
func (m *MSR) Add(r, c int, val float64) (err error) {
	if r == c {
		m.checkRow(r)
		m.Diag[r] += val
		return
	}
	ind, ok := m.slot(r, c)
	if !ok {
		return fmt.Errorf("entry (%d,%d) is not in the sparsity pattern", r, c)
	}
	m.Vals[ind] += val
	return
}

func (m *MSR) Set(r, c int, val float64) (err error) {
	if r == c {
		m.checkRow(r)
		m.Diag[r] = val
		return
	}
	ind, ok := m.slot(r, c)
	if !ok {
		return fmt.Errorf("entry (%d,%d) is not in the sparsity pattern", r, c)
	}
	m.Vals[ind] = val
	return
}

// ZeroRows clears the values of rows [rMin,rMax), leaving the pattern alone.
func (m *MSR) ZeroRows(rMin, rMax int) {
	for r := rMin; r < rMax; r++ {
		m.Diag[r] = 0
		_, vals := m.Row(r)
		for i := range vals {
			vals[i] = 0
		}
	}
}

// MulVecRange computes rows [rMin,rMax) of dst = M*x.
func (m *MSR) MulVecRange(dst, x []float64, rMin, rMax int) {
	if len(x) != m.N || len(dst) != m.N {
		panic(fmt.Errorf("dimension mismatch: matrix %d, x %d, dst %d", m.N, len(x), len(dst)))
	}
	for r := rMin; r < rMax; r++ {
		var (
			sum        = m.Diag[r] * x[r]
			start, end = m.Offsets[r], m.Offsets[r+1]
		)
		for ind := start; ind < end; ind++ {
			sum += m.Vals[ind] * x[m.Cols[ind]]
		}
		dst[r] = sum
	}
}

func (m *MSR) MulVec(dst, x []float64) { m.MulVecRange(dst, x, 0, m.N) }

// IsPatternSymmetric reports whether column c appears in row r exactly when
// column r appears in row c.
func (m *MSR) IsPatternSymmetric() bool {
	for r := 0; r < m.N; r++ {
		cols, _ := m.Row(r)
		for _, c := range cols {
			if _, ok := m.slot(c, r); !ok {
				return false
			}
		}
	}
	return true
}

// IsSymmetric checks values as well as pattern, to within tol relative to
// the largest diagonal entry.
func (m *MSR) IsSymmetric(tol float64) bool {
	var scale float64
	for _, d := range m.Diag {
		scale = math.Max(scale, math.Abs(d))
	}
	for r := 0; r < m.N; r++ {
		cols, vals := m.Row(r)
		for i, c := range cols {
			ind, ok := m.slot(c, r)
			if !ok || math.Abs(m.Vals[ind]-vals[i]) > tol*scale {
				return false
			}
		}
	}
	return true
}

// Dims, At and T satisfy the mat.Matrix interface.
func (m *MSR) Dims() (r, c int) { return m.N, m.N }
func (m *MSR) At(i, j int) float64 {
	if i == j {
		m.checkRow(i)
		return m.Diag[i]
	}
	if j < 0 || j >= m.N {
		panic(mat.ErrColAccess)
	}
	ind, ok := m.slot(i, j)
	if !ok {
		return 0
	}
	return m.Vals[ind]
}
func (m *MSR) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// ToCSR converts to the compressed sparse row format of the sparse package,
// merging the diagonal back into each row in column order.
func (m *MSR) ToCSR() *sparse.CSR {
	var (
		nnz  = m.N + len(m.Cols)
		ia   = make([]int, m.N+1)
		ja   = make([]int, 0, nnz)
		data = make([]float64, 0, nnz)
	)
	for r := 0; r < m.N; r++ {
		var (
			cols, vals = m.Row(r)
			placed     bool
		)
		for i, c := range cols {
			if !placed && c > r {
				ja = append(ja, r)
				data = append(data, m.Diag[r])
				placed = true
			}
			ja = append(ja, c)
			data = append(data, vals[i])
		}
		if !placed {
			ja = append(ja, r)
			data = append(data, m.Diag[r])
		}
		ia[r+1] = len(ja)
	}
	return sparse.NewCSR(m.N, m.N, ia, ja, data)
}

// NewMSRFromCSR splits a square CSR matrix into diagonal and off diagonal
// storage. Explicit zeros off the diagonal are kept in the pattern.
func NewMSRFromCSR(csr *sparse.CSR) (m *MSR, err error) {
	var (
		nr, nc = csr.Dims()
		raw    = csr.RawMatrix()
	)
	if nr != nc {
		err = fmt.Errorf("%w: matrix must be square, have %dx%d",
			types.ErrInvalidConfiguration, nr, nc)
		return
	}
	var nOff int
	for r := 0; r < nr; r++ {
		for ind := raw.Indptr[r]; ind < raw.Indptr[r+1]; ind++ {
			if raw.Ind[ind] != r {
				nOff++
			}
		}
	}
	if m, err = AllocateMSR(nr, nOff); err != nil {
		return
	}
	var cols []int
	for r := 0; r < nr; r++ {
		cols = cols[:0]
		for ind := raw.Indptr[r]; ind < raw.Indptr[r+1]; ind++ {
			if raw.Ind[ind] != r {
				cols = append(cols, raw.Ind[ind])
			}
		}
		sort.Ints(cols)
		if err = m.SetRowPattern(r, cols); err != nil {
			return
		}
		for ind := raw.Indptr[r]; ind < raw.Indptr[r+1]; ind++ {
			if err = m.Set(r, raw.Ind[ind], raw.Data[ind]); err != nil {
				return
			}
		}
	}
	return
}
