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
)

// TemplateConfig holds the information needed to create a template raster.
type TemplateConfig struct {
	// Proj is the projection of the template grid, in proj4 or WKT format
	// or as an EPSG code recognized by ParseSR.
	Proj string

	// West, East, South, and North are the edges of the bounding box,
	// in the units of Proj.
	West, East, South, North float64

	// Dx and Dy are the cell width and height.
	Dx, Dy float64

	// Fill is the value every cell is initialized to.
	Fill float64
}

// NewTemplate creates a reference raster from c. The number of columns and
// rows are the extent divided by the cell size, rounded to the nearest
// integer. If the cell size does not evenly divide the extent, the eastern
// and northern edges are moved to West + Nx*Dx and South + Ny*Dy.
func NewTemplate(c TemplateConfig) (*Raster, error) {
	if c.Dx <= 0 || c.Dy <= 0 {
		return nil, fmt.Errorf("rastermask: template cell size must be positive; got %g×%g", c.Dx, c.Dy)
	}
	if c.East <= c.West || c.North <= c.South {
		return nil, fmt.Errorf("rastermask: invalid template bounding box (west=%g, east=%g, south=%g, north=%g)",
			c.West, c.East, c.South, c.North)
	}
	nx := int(math.Round((c.East - c.West) / c.Dx))
	ny := int(math.Round((c.North - c.South) / c.Dy))
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("rastermask: template bounding box is smaller than one %g×%g cell", c.Dx, c.Dy)
	}
	g, err := NewGrid(c.Proj, c.West, c.South, c.Dx, c.Dy, nx, ny)
	if err != nil {
		return nil, err
	}
	return NewRaster(g, c.Fill), nil
}
