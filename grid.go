/*
Copyright © 2019 the InMAP authors.
This file is part of rastermask.

rastermask is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rastermask is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rastermask.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package rastermask aligns rasters onto a common grid and combines them
// into composite eligibility masks for habitat suitability and siting maps.
package rastermask

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

var (
	// ErrMisaligned is returned when rasters that are required to share a
	// grid do not.
	ErrMisaligned = errors.New("rastermask: grids are not aligned")

	// ErrCoverage is returned when a set of tiles does not cover a
	// requested extent.
	ErrCoverage = errors.New("rastermask: tiles do not cover the requested extent")

	// ErrNoSR is returned when a layer has no spatial reference.
	ErrNoSR = errors.New("rastermask: missing spatial reference")
)

// srULP is the number of units in the last place used when comparing
// spatial references.
const srULP = 3

// gridTol is the tolerance, relative to the cell size, within which grid
// origins and cell sizes are considered equal.
const gridTol = 1.e-6

// Grid is a regular rectangular array of cells. Row 0 is the southernmost
// row and column 0 is the westernmost column.
type Grid struct {
	// SR is the spatial reference of the grid and Proj is the
	// projection definition it was parsed from.
	SR   *proj.SR
	Proj string

	X0, Y0 float64 // lower-left corner
	Dx, Dy float64 // cell width and height
	Nx, Ny int     // number of columns and rows

	treeOnce sync.Once
	tree     *rtree.Rtree
}

// Cell is an individual cell in a grid.
type Cell struct {
	geom.Polygon
	Row, Col int
}

// NewGrid creates a new grid with the projection specified by proj,
// which may be in proj4 or WKT format or one of the EPSG codes
// recognized by ParseSR.
func NewGrid(proj string, x0, y0, dx, dy float64, nx, ny int) (*Grid, error) {
	if dx <= 0 || dy <= 0 {
		return nil, fmt.Errorf("rastermask: cell size must be positive; got %g×%g", dx, dy)
	}
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("rastermask: grid must have at least one row and column; got %d×%d", nx, ny)
	}
	sr, expanded, err := ParseSR(proj)
	if err != nil {
		return nil, err
	}
	return &Grid{
		SR:   sr,
		Proj: expanded,
		X0:   x0,
		Y0:   y0,
		Dx:   dx,
		Dy:   dy,
		Nx:   nx,
		Ny:   ny,
	}, nil
}

// Bounds returns the extent of the grid.
func (g *Grid) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.X0, Y: g.Y0},
		Max: geom.Point{X: g.X0 + g.Dx*float64(g.Nx), Y: g.Y0 + g.Dy*float64(g.Ny)},
	}
}

// Len returns the number of cells in the grid.
func (g *Grid) Len() int { return g.Nx * g.Ny }

// CellCenter returns the center of the cell at the given row and column.
func (g *Grid) CellCenter(row, col int) geom.Point {
	return geom.Point{
		X: g.X0 + (float64(col)+0.5)*g.Dx,
		Y: g.Y0 + (float64(row)+0.5)*g.Dy,
	}
}

// Cell returns the geometry of the cell at the given row and column.
func (g *Grid) Cell(row, col int) *Cell {
	x := g.X0 + float64(col)*g.Dx
	y := g.Y0 + float64(row)*g.Dy
	return &Cell{
		Row: row,
		Col: col,
		Polygon: geom.Polygon{{
			{X: x, Y: y}, {X: x + g.Dx, Y: y},
			{X: x + g.Dx, Y: y + g.Dy}, {X: x, Y: y + g.Dy}, {X: x, Y: y},
		}},
	}
}

// Index returns the row and column of the cell containing p. Points on the
// shared edge of two cells belong to the cell to the north or east, except
// along the northern and eastern grid boundaries. ok is false if p is
// outside of the grid.
func (g *Grid) Index(p geom.Point) (row, col int, ok bool) {
	fx := (p.X - g.X0) / g.Dx
	fy := (p.Y - g.Y0) / g.Dy
	if fx < 0 || fy < 0 || fx > float64(g.Nx) || fy > float64(g.Ny) ||
		math.IsNaN(fx) || math.IsNaN(fy) {
		return -1, -1, false
	}
	col, row = int(fx), int(fy)
	if col == g.Nx {
		col--
	}
	if row == g.Ny {
		row--
	}
	return row, col, true
}

// SearchIntersect returns the cells whose bounds intersect b.
func (g *Grid) SearchIntersect(b *geom.Bounds) []*Cell {
	g.treeOnce.Do(func() {
		g.tree = rtree.NewTree(25, 50)
		for row := 0; row < g.Ny; row++ {
			for col := 0; col < g.Nx; col++ {
				g.tree.Insert(g.Cell(row, col))
			}
		}
	})
	found := g.tree.SearchIntersect(b)
	cells := make([]*Cell, len(found))
	for i, c := range found {
		cells[i] = c.(*Cell)
	}
	return cells
}

// Equal returns whether g and g2 have the same spatial reference,
// extent, resolution, and number of rows and columns.
func (g *Grid) Equal(g2 *Grid) bool {
	if g == g2 {
		return true
	}
	if g == nil || g2 == nil {
		return false
	}
	if g.Nx != g2.Nx || g.Ny != g2.Ny {
		return false
	}
	tol := gridTol * math.Min(g.Dx, g.Dy)
	if different(g.Dx, g2.Dx, tol) || different(g.Dy, g2.Dy, tol) ||
		different(g.X0, g2.X0, tol) || different(g.Y0, g2.Y0, tol) {
		return false
	}
	return sameSR(g.SR, g2.SR)
}

// String returns a description of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("%d×%d cells of %g×%g from (%g, %g)", g.Nx, g.Ny, g.Dx, g.Dy, g.X0, g.Y0)
}

// copyGrid returns a grid with the same definition as g.
func (g *Grid) copyGrid() *Grid {
	return &Grid{SR: g.SR, Proj: g.Proj, X0: g.X0, Y0: g.Y0, Dx: g.Dx, Dy: g.Dy, Nx: g.Nx, Ny: g.Ny}
}

// CheckAligned returns an error wrapping ErrMisaligned if the rasters
// do not all share the same grid.
func CheckAligned(rasters ...*Raster) error {
	for i, r := range rasters {
		if r == nil {
			return fmt.Errorf("rastermask: raster %d is nil", i)
		}
		if i == 0 {
			continue
		}
		if !rasters[0].Grid.Equal(r.Grid) {
			return fmt.Errorf("%w: raster %d (%v) does not match raster 0 (%v)",
				ErrMisaligned, i, r.Grid, rasters[0].Grid)
		}
	}
	return nil
}

func sameSR(a, b *proj.SR) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b, srULP)
}

func different(a, b, tol float64) bool {
	return math.Abs(a-b) > tol
}
