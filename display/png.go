package display

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
)

type Stop struct {
	Pos   float64
	Color color.RGBA
}

// Gradient is a piecewise linear colour scale over [0,1].
type Gradient []Stop

var (
	// StandardGradient runs blue, light blue, green, yellow, red.
	StandardGradient = Gradient{
		{0.00, color.RGBA{R: 0x00, G: 0x00, B: 0xFF, A: 0xFF}},
		{0.25, color.RGBA{R: 0x00, G: 0xAA, B: 0xFF, A: 0xFF}},
		{0.50, color.RGBA{R: 0x00, G: 0xFF, B: 0x00, A: 0xFF}},
		{0.75, color.RGBA{R: 0xFF, G: 0xFF, B: 0x00, A: 0xFF}},
		{1.00, color.RGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF}},
	}
	// ResidualGradient runs green, light green, orange, red.
	ResidualGradient = Gradient{
		{0.0, color.RGBA{R: 0x00, G: 0xAA, B: 0x00, A: 0xFF}},
		{0.3, color.RGBA{R: 0xAA, G: 0xFF, B: 0x00, A: 0xFF}},
		{0.6, color.RGBA{R: 0xFF, G: 0xAA, B: 0x00, A: 0xFF}},
		{1.0, color.RGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF}},
	}
)

func (m Mode) Gradient() Gradient {
	if m == Residual {
		return ResidualGradient
	}
	return StandardGradient
}

// Color maps val in [lo,hi] onto the gradient. Values outside are clamped
// and NaN is drawn black.
func (gr Gradient) Color(val, lo, hi float64) (c color.RGBA) {
	if math.IsNaN(val) || len(gr) < 2 {
		return color.RGBA{A: 0xFF}
	}
	d := hi - lo
	if math.Abs(d) < 1.e-16 {
		d = 1.e-16
	}
	t := math.Min(math.Max((val-lo)/d, 0), 1)
	for n := 0; n < len(gr)-1; n++ {
		p1, p2 := gr[n].Pos, gr[n+1].Pos
		if t < p1 || t > p2 {
			continue
		}
		var (
			s      = (t - p1) / (p2 - p1)
			c1, c2 = gr[n].Color, gr[n+1].Color
			mix    = func(a, b uint8) uint8 { return uint8(float64(a) + s*(float64(b)-float64(a))) }
		)
		return color.RGBA{R: mix(c1.R, c2.R), G: mix(c1.G, c2.G), B: mix(c1.B, c2.B), A: 0xFF}
	}
	return color.RGBA{A: 0xFF}
}

// Image paints the field on a width by height canvas, one flat colour per
// lattice cell taken from its lower left sample. Row zero of the image is
// the top of the visible rectangle.
func (fd *Field) Image(width, height int) (img *image.RGBA, err error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("image size must be positive, have %dx%d", width, height)
	}
	gr := fd.Mode.Gradient()
	img = image.NewRGBA(image.Rect(0, 0, width, height))
	for py := 0; py < height; py++ {
		j := (height - 1 - py) * fd.My / height
		for px := 0; px < width; px++ {
			i := px * fd.Mx / width
			img.SetRGBA(px, py, gr.Color(fd.At(i, j), fd.Lo, fd.Hi))
		}
	}
	return
}

func (fd *Field) WritePNG(w io.Writer, width, height int) (err error) {
	var img *image.RGBA
	if img, err = fd.Image(width, height); err != nil {
		return
	}
	if err = png.Encode(w, img); err != nil {
		err = fmt.Errorf("encoding %s plot: %w", fd.Mode, err)
	}
	return
}
