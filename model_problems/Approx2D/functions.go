package Approx2D

import (
	"fmt"
	"math"

	"github.com/notargets/msrapprox/types"
)

const NumFunctions = 8

type TestFunction struct {
	K       int
	Formula string
	F       func(x, y float64) float64
}

var testFunctions = [NumFunctions]TestFunction{
	{0, "1", func(x, y float64) float64 { return 1 }},
	{1, "x", func(x, y float64) float64 { return x }},
	{2, "y", func(x, y float64) float64 { return y }},
	{3, "x+y", func(x, y float64) float64 { return x + y }},
	{4, "sqrt(x^2+y^2)", func(x, y float64) float64 { return math.Sqrt(x*x + y*y) }},
	{5, "x^2+y^2", func(x, y float64) float64 { return x*x + y*y }},
	{6, "exp(x^2-y^2)", func(x, y float64) float64 { return math.Exp(x*x - y*y) }},
	{7, "1/(25(x^2+y^2)+1)", func(x, y float64) float64 { return 1. / (25.*(x*x+y*y) + 1.) }},
}

func SelectFunction(k int) (tf TestFunction, err error) {
	if k < 0 || k >= NumFunctions {
		err = fmt.Errorf("%w: function number k must be between 0 and %d, have %d",
			types.ErrInvalidConfiguration, NumFunctions-1, k)
		return
	}
	tf = testFunctions[k]
	return
}

// IsLinear is true for the functions reproduced exactly by the piecewise
// linear approximation.
func (tf TestFunction) IsLinear() bool { return tf.K <= 3 }

func (tf TestFunction) String() string { return fmt.Sprintf("f%d: %s", tf.K, tf.Formula) }
