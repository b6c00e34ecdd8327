package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/exascience/pargo/parallel"

	"github.com/notargets/msrapprox/geometry2D"
	"github.com/notargets/msrapprox/types"
)

type Mode uint8

const (
	Function Mode = iota
	Approximation
	Residual
	numModes
)

func (m Mode) String() string {
	switch m {
	case Function:
		return "Function"
	case Approximation:
		return "Approximation"
	case Residual:
		return "Residual"
	}
	return "Unknown"
}

// Next cycles function -> approximation -> residual -> function.
func (m Mode) Next() Mode { return (m + 1) % numModes }

func ParseMode(label string) (m Mode, err error) {
	for m = Function; m < numModes; m++ {
		if strings.EqualFold(label, m.String()) {
			return
		}
	}
	return Function, fmt.Errorf("%w: unknown display mode %q, use function, approximation or residual",
		types.ErrInvalidConfiguration, label)
}

const MaxZoom = 30

// View is what gets drawn: the domain, a power of two zoom about the domain
// centre, the visualization lattice Mx by My and the quantity shown.
type View struct {
	A, B, C, D float64
	Zoom       int
	Mx, My     int
	Mode       Mode
}

func NewView(a, b, c, d float64, mx, my int) (v *View, err error) {
	if err = geometry2D.CheckDomain(a, b, c, d); err != nil {
		return
	}
	if err = checkDetail(mx, my); err != nil {
		return
	}
	v = &View{A: a, B: b, C: c, D: d, Mx: mx, My: my}
	return
}

func checkDetail(mx, my int) (err error) {
	if mx < geometry2D.MinResolution || my < geometry2D.MinResolution {
		err = fmt.Errorf("%w: visualization grid must be at least %d, have %dx%d",
			types.ErrInvalidConfiguration, geometry2D.MinResolution, mx, my)
	}
	return
}

// Visible returns the rectangle shown at the current zoom.
func (v *View) Visible() (x0, x1, y0, y1 float64) {
	var (
		scale  = math.Ldexp(1, -v.Zoom)
		cx, cy = 0.5 * (v.A + v.B), 0.5 * (v.C + v.D)
		hw, hh = 0.5 * (v.B - v.A) * scale, 0.5 * (v.D - v.C) * scale
	)
	return cx - hw, cx + hw, cy - hh, cy + hh
}

func (v *View) ZoomIn() (err error) {
	if v.Zoom >= MaxZoom {
		return fmt.Errorf("%w: zoom limit of 2^%d reached", types.ErrInvalidConfiguration, MaxZoom)
	}
	v.Zoom++
	return
}

func (v *View) ResetZoom() { v.Zoom = 0 }

func (v *View) DoubleDetail() (err error) { return v.SetDetail(2*v.Mx, 2*v.My) }

func (v *View) HalveDetail() (err error) { return v.SetDetail(v.Mx/2, v.My/2) }

func (v *View) SetDetail(mx, my int) (err error) {
	if err = checkDetail(mx, my); err != nil {
		return
	}
	v.Mx, v.My = mx, my
	return
}

func (v *View) Info() string {
	return fmt.Sprintf("Mode: %s | Visualization: %dx%d | Zoom: %d", v.Mode, v.Mx, v.My, 1<<v.Zoom)
}

// Interpolate evaluates the piecewise linear function with nodal values x
// at (px,py). Points outside the domain take the value of the nearest
// boundary point.
func Interpolate(g *geometry2D.Grid, x []float64, px, py float64) float64 {
	var (
		s = (px - g.A) / g.Hx
		t = (py - g.C) / g.Hy
	)
	s = math.Min(math.Max(s, 0), float64(g.Nx))
	t = math.Min(math.Max(t, 0), float64(g.Ny))
	i := int(math.Min(math.Floor(s), float64(g.Nx-1)))
	j := int(math.Min(math.Floor(t), float64(g.Ny-1)))
	s -= float64(i)
	t -= float64(j)
	var (
		u00 = x[g.Index(i, j)]
		u10 = x[g.Index(i+1, j)]
		u11 = x[g.Index(i+1, j+1)]
		u01 = x[g.Index(i, j+1)]
	)
	if s >= t {
		return u00 + s*(u10-u00) + t*(u11-u10)
	}
	return u00 + t*(u01-u00) + s*(u11-u01)
}

// Field is a quantity sampled on the (Mx+1) by (My+1) lattice over the
// visible rectangle. Lo and Hi are the ends of the colour scale.
type Field struct {
	Mode           Mode
	Mx, My         int
	X0, X1, Y0, Y1 float64
	Values         []float64 // Index i + j*(Mx+1)
	Lo, Hi         float64
}

func (fd *Field) At(i, j int) float64 { return fd.Values[i+j*(fd.Mx+1)] }

// Field samples the current mode. x may be nil in function mode only.
func (v *View) Field(g *geometry2D.Grid, x []float64, f func(x, y float64) float64) (fd *Field, err error) {
	if v.Mode != Function && len(x) != g.N() {
		return nil, fmt.Errorf("%w: %s view needs %d nodal values, have %d",
			types.ErrInvalidConfiguration, v.Mode, g.N(), len(x))
	}
	x0, x1, y0, y1 := v.Visible()
	fd = &Field{
		Mode:   v.Mode,
		Mx:     v.Mx,
		My:     v.My,
		X0:     x0,
		X1:     x1,
		Y0:     y0,
		Y1:     y1,
		Values: make([]float64, (v.Mx+1)*(v.My+1)),
	}
	var (
		dx, dy = (x1 - x0) / float64(v.Mx), (y1 - y0) / float64(v.My)
		sample func(px, py float64) float64
	)
	switch v.Mode {
	case Function:
		sample = f
	case Approximation:
		sample = func(px, py float64) float64 { return Interpolate(g, x, px, py) }
	case Residual:
		sample = func(px, py float64) float64 { return math.Abs(f(px, py) - Interpolate(g, x, px, py)) }
	}
	// Rows of the lattice are independent
	parallel.Range(0, v.My+1, 0, func(jMin, jMax int) {
		for j := jMin; j < jMax; j++ {
			py := y0 + float64(j)*dy
			for i := 0; i <= v.Mx; i++ {
				fd.Values[i+j*(v.Mx+1)] = sample(x0+float64(i)*dx, py)
			}
		}
	})
	fd.Lo = reduceValues(fd.Values, math.Inf(1), math.Min)
	fd.Hi = reduceValues(fd.Values, math.Inf(-1), math.Max)
	if v.Mode == Residual {
		fd.Lo = 0
	}
	return
}

func reduceValues(vals []float64, identity float64, op func(a, b float64) float64) float64 {
	return parallel.RangeReduceFloat64(0, len(vals), 0,
		func(low, high int) (res float64) {
			res = identity
			for _, val := range vals[low:high] {
				res = op(res, val)
			}
			return
		}, op)
}

// MaxValue is the number shown with the view: the largest sample of f in
// function mode, the largest nodal value in approximation mode and the
// largest error at the triangle centroids in residual mode.
func MaxValue(mode Mode, g *geometry2D.Grid, x []float64, f func(x, y float64) float64) (max float64, err error) {
	switch mode {
	case Function:
		return parallel.RangeReduceFloat64(0, g.N(), 0,
			func(low, high int) (res float64) {
				res = math.Inf(-1)
				for l := low; l < high; l++ {
					res = math.Max(res, f(g.Node(l)))
				}
				return
			}, math.Max), nil
	case Approximation:
		if len(x) != g.N() {
			break
		}
		return reduceValues(x, math.Inf(-1), math.Max), nil
	case Residual:
		if len(x) != g.N() {
			break
		}
		return parallel.RangeReduceFloat64(0, g.NumCells(), 0,
			func(low, high int) (res float64) {
				for c := low; c < high; c++ {
					i, j := g.CellIJ(c)
					lower, upper := g.Centroids(i, j)
					var (
						u00 = x[g.Index(i, j)]
						u10 = x[g.Index(i+1, j)]
						u11 = x[g.Index(i+1, j+1)]
						u01 = x[g.Index(i, j+1)]
					)
					res = math.Max(res, math.Abs(f(lower[0], lower[1])-(u00+u10+u11)/3.))
					res = math.Max(res, math.Abs(f(upper[0], upper[1])-(u00+u11+u01)/3.))
				}
				return
			}, math.Max), nil
	}
	return 0, fmt.Errorf("%w: %s needs %d nodal values, have %d",
		types.ErrInvalidConfiguration, mode, g.N(), len(x))
}
