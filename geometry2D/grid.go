package geometry2D

import (
	"fmt"

	"github.com/notargets/msrapprox/types"
)

const MinResolution = 5

// Grid is the rectangular domain [A,B]x[C,D] split into Nx by Ny cells.
// Node (i,j) has the global index i + j*(Nx+1). Every cell is cut by the
// diagonal running from (i,j) to (i+1,j+1) into a lower and an upper triangle.
type Grid struct {
	A, B, C, D float64
	Nx, Ny     int
	Hx, Hy     float64
}

func NewGrid(a, b, c, d float64, nx, ny int) (g *Grid, err error) {
	if err = CheckDomain(a, b, c, d); err != nil {
		return
	}
	if err = CheckResolution(nx, ny); err != nil {
		return
	}
	g = &Grid{
		A: a, B: b, C: c, D: d,
		Nx: nx, Ny: ny,
		Hx: (b - a) / float64(nx),
		Hy: (d - c) / float64(ny),
	}
	return
}

func CheckDomain(a, b, c, d float64) (err error) {
	if !(a < b) || !(c < d) {
		err = fmt.Errorf("%w: bounds must satisfy a < b and c < d, have [%g,%g]x[%g,%g]",
			types.ErrInvalidConfiguration, a, b, c, d)
	}
	return
}

func CheckResolution(nx, ny int) (err error) {
	if nx < MinResolution || ny < MinResolution {
		err = fmt.Errorf("%w: grid dimensions must be at least %d, have %dx%d",
			types.ErrInvalidConfiguration, MinResolution, nx, ny)
	}
	return
}

// N is the number of nodes.
func (g *Grid) N() int { return (g.Nx + 1) * (g.Ny + 1) }

// NumCells is the number of rectangular cells, each holding two triangles.
func (g *Grid) NumCells() int { return g.Nx * g.Ny }

func (g *Grid) Index(i, j int) int { return i + j*(g.Nx+1) }

func (g *Grid) IJ(l int) (i, j int) {
	j = l / (g.Nx + 1)
	i = l - j*(g.Nx+1)
	return
}

func (g *Grid) CellIJ(cell int) (i, j int) {
	j = cell / g.Nx
	i = cell - j*g.Nx
	return
}

func (g *Grid) X(i float64) float64 { return g.A + i*g.Hx }
func (g *Grid) Y(j float64) float64 { return g.C + j*g.Hy }

func (g *Grid) Node(l int) (x, y float64) {
	i, j := g.IJ(l)
	return g.X(float64(i)), g.Y(float64(j))
}

func (g *Grid) Contains(i, j int) bool {
	return i >= 0 && i <= g.Nx && j >= 0 && j <= g.Ny
}

// TriangleArea is the same for every triangle of the grid.
func (g *Grid) TriangleArea() float64 { return 0.5 * g.Hx * g.Hy }

// Triangles returns the vertex indices (i,j pairs) of the two triangles of
// cell (i,j), lower first. Vertices are listed counter-clockwise.
func (g *Grid) Triangles(i, j int) (tris [2][3][2]int) {
	tris[0] = [3][2]int{{i, j}, {i + 1, j}, {i + 1, j + 1}}
	tris[1] = [3][2]int{{i, j}, {i + 1, j + 1}, {i, j + 1}}
	return
}

// Centroids returns the sample points of the lower and upper triangle of
// cell (i,j), at (i+2/3, j+1/3) and (i+1/3, j+2/3).
func (g *Grid) Centroids(i, j int) (lower, upper [2]float64) {
	fi, fj := float64(i), float64(j)
	lower = [2]float64{g.X(fi + 2./3.), g.Y(fj + 1./3.)}
	upper = [2]float64{g.X(fi + 1./3.), g.Y(fj + 2./3.)}
	return
}

// Neighbors returns the global indices of the nodes sharing a triangle edge
// with node (i,j), in ascending order.
func (g *Grid) Neighbors(i, j int) (nbrs []int) {
	offsets := [6][2]int{
		{-1, -1}, {0, -1}, {-1, 0}, {1, 0}, {0, 1}, {1, 1},
	}
	nbrs = make([]int, 0, 6)
	for _, o := range offsets {
		ii, jj := i+o[0], j+o[1]
		if g.Contains(ii, jj) {
			nbrs = append(nbrs, g.Index(ii, jj))
		}
	}
	return
}

// NumOffDiagonal is the number of off diagonal entries in the mass matrix of
// the grid: two per triangle edge.
func (g *Grid) NumOffDiagonal() int {
	var (
		horizontal = g.Nx * (g.Ny + 1)
		vertical   = (g.Nx + 1) * g.Ny
		diagonal   = g.Nx * g.Ny
	)
	return 2 * (horizontal + vertical + diagonal)
}

// Resize returns a new grid over the same domain.
func (g *Grid) Resize(nx, ny int) (gn *Grid, err error) {
	return NewGrid(g.A, g.B, g.C, g.D, nx, ny)
}
