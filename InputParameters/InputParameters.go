package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/notargets/msrapprox/geometry2D"
	"github.com/notargets/msrapprox/model_problems/Approx2D"
	"github.com/notargets/msrapprox/types"
)

// Parameters obtained from the YAML input file. ghodss/yaml reads YAML
// through encoding/json, so the keys come from the json tags.
type ApproxParameters struct {
	Title         string  `json:"Title,omitempty"`
	A             float64 `json:"A"` // Domain [A,B]x[C,D]
	B             float64 `json:"B"`
	C             float64 `json:"C"`
	D             float64 `json:"D"`
	Nx            int     `json:"Nx"` // Computational grid
	Ny            int     `json:"Ny"`
	Mx            int     `json:"Mx"` // Visualization grid
	My            int     `json:"My"`
	Function      int     `json:"Function"`
	Epsilon       float64 `json:"Epsilon"`
	MaxIterations int     `json:"MaxIterations"`
	Threads       int     `json:"Threads"`
	RestartStep   int     `json:"RestartStep,omitempty"`
}

func (ip *ApproxParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		err = fmt.Errorf("%w: %v", types.ErrInvalidConfiguration, err)
	}
	return
}

func (ip *ApproxParameters) Print() {
	if ip.Title != "" {
		fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	}
	fmt.Printf("[%g,%g]x[%g,%g]\t= Domain\n", ip.A, ip.B, ip.C, ip.D)
	fmt.Printf("[%d x %d]\t\t= Grid\n", ip.Nx, ip.Ny)
	fmt.Printf("[%d x %d]\t\t= Visualization Grid\n", ip.Mx, ip.My)
	fmt.Printf("[%d]\t\t\t= Function\n", ip.Function)
	fmt.Printf("%8.2e\t\t= Epsilon\n", ip.Epsilon)
	fmt.Printf("[%d]\t\t\t= Max Iterations\n", ip.MaxIterations)
	fmt.Printf("[%d]\t\t\t= Threads\n", ip.Threads)
}

// ToParameters converts to the solver parameters and validates them.
func (ip *ApproxParameters) ToParameters() (p Approx2D.Parameters, err error) {
	p = Approx2D.Parameters{
		A: ip.A, B: ip.B, C: ip.C, D: ip.D,
		Nx: ip.Nx, Ny: ip.Ny,
		Function:      ip.Function,
		Epsilon:       ip.Epsilon,
		MaxIterations: ip.MaxIterations,
		Threads:       ip.Threads,
		RestartStep:   ip.RestartStep,
	}
	err = p.Validate()
	return
}

// Validate checks everything ToParameters does plus the visualization grid.
func (ip *ApproxParameters) Validate() (err error) {
	if _, err = ip.ToParameters(); err != nil {
		return
	}
	if ip.Mx < geometry2D.MinResolution || ip.My < geometry2D.MinResolution {
		err = fmt.Errorf("%w: visualization grid must be at least %d, have %dx%d",
			types.ErrInvalidConfiguration, geometry2D.MinResolution, ip.Mx, ip.My)
	}
	return
}
