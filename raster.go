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

package rastermask

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// Raster is a grid with one value per cell. Cells without data hold NaN.
type Raster struct {
	*Grid

	// Data holds the cell values in an array with shape [Ny, Nx].
	Data *sparse.DenseArray
}

// NewRaster returns a raster on grid g with every cell set to fill.
func NewRaster(g *Grid, fill float64) *Raster {
	r := &Raster{
		Grid: g,
		Data: sparse.ZerosDense(g.Ny, g.Nx),
	}
	if fill != 0 {
		for i := range r.Data.Elements {
			r.Data.Elements[i] = fill
		}
	}
	return r
}

// newRasterData wraps data, which must have length g.Nx*g.Ny, as a raster.
func newRasterData(g *Grid, data []float64) (*Raster, error) {
	if len(data) != g.Len() {
		return nil, fmt.Errorf("rastermask: grid has %d cells but data has %d values", g.Len(), len(data))
	}
	a := sparse.ZerosDense(g.Ny, g.Nx)
	copy(a.Elements, data)
	return &Raster{Grid: g, Data: a}, nil
}

// Get returns the value at the given row and column.
func (r *Raster) Get(row, col int) float64 { return r.Data.Elements[row*r.Nx+col] }

// Set sets the value at the given row and column.
func (r *Raster) Set(v float64, row, col int) { r.Data.Elements[row*r.Nx+col] = v }

// Copy returns a copy of r that shares its grid.
func (r *Raster) Copy() *Raster {
	return &Raster{Grid: r.Grid, Data: r.Data.Copy()}
}

// like returns a raster on the same grid as r with every cell set to NaN.
func (r *Raster) like() *Raster {
	return NewRaster(r.Grid, math.NaN())
}

// CellIndex is the location of a cell in a raster.
type CellIndex struct {
	Row, Col int
}

// NoDataCells returns the locations of the cells that do not hold data,
// in row-major order.
func (r *Raster) NoDataCells() []CellIndex {
	var o []CellIndex
	for i, v := range r.Data.Elements {
		if math.IsNaN(v) {
			o = append(o, CellIndex{Row: i / r.Nx, Col: i % r.Nx})
		}
	}
	return o
}

// Valid returns the number of cells that hold data.
func (r *Raster) Valid() int {
	n := 0
	for _, v := range r.Data.Elements {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Map returns a new raster on the same grid where each value is the
// result of f applied to the corresponding value in r.
func (r *Raster) Map(f func(v float64) float64) *Raster {
	o := r.like()
	for i, v := range r.Data.Elements {
		o.Data.Elements[i] = f(v)
	}
	return o
}
