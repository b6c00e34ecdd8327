package display

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/msrapprox/geometry2D"
	"github.com/notargets/msrapprox/types"
)

func nodal(g *geometry2D.Grid, f func(x, y float64) float64) (x []float64) {
	x = make([]float64, g.N())
	for l := range x {
		x[l] = f(g.Node(l))
	}
	return
}

func TestMode(t *testing.T) {
	assert.Equal(t, Approximation, Function.Next())
	assert.Equal(t, Residual, Approximation.Next())
	assert.Equal(t, Function, Residual.Next())
	for _, m := range []Mode{Function, Approximation, Residual} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	m, err := ParseMode("residual")
	require.NoError(t, err)
	assert.Equal(t, Residual, m)
	_, err = ParseMode("contour")
	assert.ErrorIs(t, err, types.ErrInvalidConfiguration)
}

func TestView(t *testing.T) {
	v, err := NewView(-1, 3, 0, 2, 10, 10)
	require.NoError(t, err)
	{ // Zoom halves the visible rectangle about the centre
		x0, x1, y0, y1 := v.Visible()
		assert.Equal(t, [4]float64{-1, 3, 0, 2}, [4]float64{x0, x1, y0, y1})
		require.NoError(t, v.ZoomIn())
		x0, x1, y0, y1 = v.Visible()
		assert.Equal(t, [4]float64{0, 2, 0.5, 1.5}, [4]float64{x0, x1, y0, y1})
		v.ResetZoom()
		x0, x1, _, _ = v.Visible()
		assert.Equal(t, -1., x0)
		assert.Equal(t, 3., x1)
		v.Zoom = MaxZoom
		assert.ErrorIs(t, v.ZoomIn(), types.ErrInvalidConfiguration)
		v.ResetZoom()
	}
	{ // Visualization detail keeps the minimum resolution
		require.NoError(t, v.DoubleDetail())
		assert.Equal(t, 20, v.Mx)
		require.NoError(t, v.HalveDetail())
		require.NoError(t, v.HalveDetail())
		assert.Equal(t, 5, v.My)
		assert.ErrorIs(t, v.HalveDetail(), types.ErrInvalidConfiguration)
		assert.Equal(t, 5, v.Mx)
	}
	_, err = NewView(0, 1, 0, 1, 4, 10)
	assert.ErrorIs(t, err, types.ErrInvalidConfiguration)
	assert.Equal(t, "Mode: Function | Visualization: 5x5 | Zoom: 1", v.Info())
}

func TestInterpolate(t *testing.T) {
	g, err := geometry2D.NewGrid(0, 2, -1, 1, 8, 6)
	require.NoError(t, err)
	{ // Linear data is reproduced everywhere
		lin := func(x, y float64) float64 { return 2*x - 3*y + 1 }
		x := nodal(g, lin)
		for _, p := range [][2]float64{{0, -1}, {2, 1}, {0.3, 0.7}, {1.1, -0.2}, {1.999, 0.001}} {
			assert.InDelta(t, lin(p[0], p[1]), Interpolate(g, x, p[0], p[1]), 1.e-12)
		}
		// Outside points clamp to the boundary
		assert.InDelta(t, lin(2, 1), Interpolate(g, x, 5, 5), 1.e-12)
	}
	{ // Nodes are hit exactly and the cell diagonal splits the triangles
		q := func(x, y float64) float64 { return x * y }
		x := nodal(g, q)
		for l := 0; l < g.N(); l++ {
			xn, yn := g.Node(l)
			assert.InDelta(t, x[l], Interpolate(g, x, xn, yn), 1.e-12)
		}
		// Centroids take the mean of their triangle vertices
		var (
			i, j      = 2, 3
			xc, yc    = g.X(float64(i) + 2./3.), g.Y(float64(j) + 1./3.)
			u00, u10  = x[g.Index(i, j)], x[g.Index(i+1, j)]
			u11, u01  = x[g.Index(i+1, j+1)], x[g.Index(i, j+1)]
			xu, yu    = g.X(float64(i) + 1./3.), g.Y(float64(j) + 2./3.)
			low, high = (u00 + u10 + u11) / 3., (u00 + u11 + u01) / 3.
		)
		assert.InDelta(t, low, Interpolate(g, x, xc, yc), 1.e-12)
		assert.InDelta(t, high, Interpolate(g, x, xu, yu), 1.e-12)
	}
}

func TestField(t *testing.T) {
	var (
		g, _ = geometry2D.NewGrid(0, 1, 0, 1, 10, 10)
		f    = func(x, y float64) float64 { return x*x + y*y }
		x    = nodal(g, f)
	)
	v, err := NewView(0, 1, 0, 1, 20, 16)
	require.NoError(t, err)
	{ // Function
		fd, err := v.Field(g, nil, f)
		require.NoError(t, err)
		assert.Len(t, fd.Values, 21*17)
		assert.Equal(t, 0., fd.Lo)
		assert.InDelta(t, 2., fd.Hi, 1.e-14)
		assert.InDelta(t, f(0.5, 0.25), fd.At(10, 4), 1.e-14)
		max, err := MaxValue(Function, g, nil, f)
		require.NoError(t, err)
		assert.InDelta(t, 2., max, 1.e-14)
	}
	{ // Approximation
		v.Mode = Approximation
		_, err := v.Field(g, nil, f)
		assert.ErrorIs(t, err, types.ErrInvalidConfiguration)
		fd, err := v.Field(g, x, f)
		require.NoError(t, err)
		assert.InDelta(t, 2., fd.Hi, 1.e-14)
		max, err := MaxValue(Approximation, g, x, f)
		require.NoError(t, err)
		assert.InDelta(t, 2., max, 1.e-14)
	}
	{ // Residual of the nodal interpolant is positive inside cells
		v.Mode = Residual
		fd, err := v.Field(g, x, f)
		require.NoError(t, err)
		assert.Equal(t, 0., fd.Lo)
		assert.Greater(t, fd.Hi, 0.)
		for _, val := range fd.Values {
			assert.GreaterOrEqual(t, val, 0.)
		}
		max, err := MaxValue(Residual, g, x, f)
		require.NoError(t, err)
		assert.Greater(t, max, 0.)
		assert.Less(t, max, 0.01)
		_, err = MaxValue(Residual, g, x[:3], f)
		assert.ErrorIs(t, err, types.ErrInvalidConfiguration)
	}
	{ // An exact linear approximation has no residual
		lin := func(x, y float64) float64 { return x - y }
		max, err := MaxValue(Residual, g, nodal(g, lin), lin)
		require.NoError(t, err)
		assert.Less(t, max, 1.e-14)
	}
}

func TestPNG(t *testing.T) {
	{ // Gradient ends and midpoints
		assert.Equal(t, color.RGBA{B: 0xFF, A: 0xFF}, StandardGradient.Color(0, 0, 1))
		assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, StandardGradient.Color(1, 0, 1))
		assert.Equal(t, color.RGBA{G: 0xFF, A: 0xFF}, StandardGradient.Color(0.5, 0, 1))
		assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, StandardGradient.Color(7, 0, 1))
		assert.Equal(t, color.RGBA{G: 0xAA, A: 0xFF}, ResidualGradient.Color(-1, 0, 1))
		assert.Equal(t, color.RGBA{A: 0xFF}, StandardGradient.Color(math.NaN(), 0, 1))
		// Degenerate scales do not divide by zero
		assert.Equal(t, color.RGBA{B: 0xFF, A: 0xFF}, StandardGradient.Color(1, 1, 1))
	}
	var (
		g, _ = geometry2D.NewGrid(0, 1, 0, 1, 5, 5)
		f    = func(x, y float64) float64 { return x }
	)
	v, _ := NewView(0, 1, 0, 1, 8, 8)
	fd, err := v.Field(g, nil, f)
	require.NoError(t, err)
	_, err = fd.Image(0, 10)
	assert.Error(t, err)
	var buf bytes.Buffer
	require.NoError(t, fd.WritePNG(&buf, 64, 32))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())
	// f = x is blue on the left edge and close to red on the right
	r, _, b, _ := img.At(0, 16).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0xFFFF), b)
	r, _, b, _ = img.At(63, 16).RGBA()
	assert.Greater(t, r, uint32(0x8000))
	assert.Equal(t, uint32(0), b)
}
