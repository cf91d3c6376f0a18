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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// Resampling specifies how values are interpolated when a raster is
// aligned to a new grid.
type Resampling int

const (
	// Bilinear interpolates between the four nearest source cell centers.
	// It should be used for continuous quantities such as depth or
	// probability.
	Bilinear Resampling = iota

	// Nearest takes the value of the source cell containing the target
	// cell center. It should be used for categorical data.
	Nearest
)

func (m Resampling) String() string {
	switch m {
	case Bilinear:
		return "bilinear"
	case Nearest:
		return "nearest"
	default:
		return fmt.Sprintf("Resampling(%d)", int(m))
	}
}

// ParseResampling returns the resampling method named by s, which must be
// "bilinear" or "nearest".
func ParseResampling(s string) (Resampling, error) {
	switch s {
	case "bilinear":
		return Bilinear, nil
	case "nearest", "ngb":
		return Nearest, nil
	default:
		return Bilinear, fmt.Errorf("rastermask: invalid resampling method %q", s)
	}
}

// Align resamples src onto the target grid. Each target cell center is
// transformed into the spatial reference of src and sampled with the given
// method. Target cells whose centers fall outside of src hold NaN.
// The returned raster shares the target grid.
func Align(src *Raster, target *Grid, method Resampling) (*Raster, error) {
	if src.SR == nil || target.SR == nil {
		return nil, ErrNoSR
	}
	ct, err := target.SR.NewTransform(src.SR)
	if err != nil {
		return nil, fmt.Errorf("rastermask: creating alignment transform: %v", err)
	}
	var sample func(x, y float64) float64
	switch method {
	case Bilinear:
		sample = src.bilinear
	case Nearest:
		sample = src.nearest
	default:
		return nil, fmt.Errorf("rastermask: invalid resampling method %v", method)
	}
	o := NewRaster(target, math.NaN())
	for row := 0; row < target.Ny; row++ {
		for col := 0; col < target.Nx; col++ {
			c := target.CellCenter(row, col)
			x, y, err := ct(c.X, c.Y)
			if err != nil {
				return nil, fmt.Errorf("rastermask: transforming cell (%d, %d): %v", row, col, err)
			}
			o.Set(sample(x, y), row, col)
		}
	}
	return o, nil
}

// snap rounds f to the nearest integer if it is within rounding error of it.
func snap(f float64) float64 {
	if r := math.Round(f); math.Abs(f-r) < 1.e-9 {
		return r
	}
	return f
}

// inside returns whether (x, y) lies within the extent of r.
func (r *Raster) inside(x, y float64) bool {
	b := r.Bounds()
	return x >= b.Min.X && x <= b.Max.X && y >= b.Min.Y && y <= b.Max.Y
}

func (r *Raster) nearest(x, y float64) float64 {
	row, col, ok := r.Index(geom.Point{X: x, Y: y})
	if !ok {
		return math.NaN()
	}
	return r.Get(row, col)
}

// bilinear interpolates between the four cell centers nearest to (x, y).
// Points beyond the outermost cell centers are clamped to the edge rows
// and columns. Neighbors without data are dropped and the remaining
// weights renormalized.
func (r *Raster) bilinear(x, y float64) float64 {
	if !r.inside(x, y) {
		return math.NaN()
	}
	fx := snap((x-r.X0)/r.Dx - 0.5)
	fy := snap((y-r.Y0)/r.Dy - 0.5)
	fx = math.Max(0, math.Min(fx, float64(r.Nx-1)))
	fy = math.Max(0, math.Min(fy, float64(r.Ny-1)))
	c0, r0 := int(math.Floor(fx)), int(math.Floor(fy))
	c1, r1 := c0+1, r0+1
	if c1 > r.Nx-1 {
		c1 = r.Nx - 1
	}
	if r1 > r.Ny-1 {
		r1 = r.Ny - 1
	}
	tx, ty := fx-float64(c0), fy-float64(r0)

	var sum, wsum float64
	for _, n := range [4]struct {
		row, col int
		w        float64
	}{
		{r0, c0, (1 - tx) * (1 - ty)},
		{r0, c1, tx * (1 - ty)},
		{r1, c0, (1 - tx) * ty},
		{r1, c1, tx * ty},
	} {
		if n.w <= 0 {
			continue
		}
		v := r.Get(n.row, n.col)
		if math.IsNaN(v) {
			continue
		}
		sum += n.w * v
		wsum += n.w
	}
	if wsum == 0 {
		return math.NaN()
	}
	return sum / wsum
}

// Crop returns the part of r made up of the whole cells that intersect b.
// b must be in the spatial reference of r.
func Crop(r *Raster, b *geom.Bounds) (*Raster, error) {
	c0 := int(math.Floor(snap((b.Min.X - r.X0) / r.Dx)))
	c1 := int(math.Ceil(snap((b.Max.X - r.X0) / r.Dx)))
	r0 := int(math.Floor(snap((b.Min.Y - r.Y0) / r.Dy)))
	r1 := int(math.Ceil(snap((b.Max.Y - r.Y0) / r.Dy)))
	c0, r0 = maxInt(c0, 0), maxInt(r0, 0)
	c1, r1 = minInt(c1, r.Nx), minInt(r1, r.Ny)
	if c1 <= c0 || r1 <= r0 {
		return nil, fmt.Errorf("rastermask: crop bounds %v do not intersect raster %v", *b, r.Grid)
	}
	g := r.copyGrid()
	g.X0 = r.X0 + float64(c0)*r.Dx
	g.Y0 = r.Y0 + float64(r0)*r.Dy
	g.Nx, g.Ny = c1-c0, r1-r0
	o := NewRaster(g, 0)
	for row := r0; row < r1; row++ {
		copy(o.Data.Elements[(row-r0)*g.Nx:(row-r0+1)*g.Nx], r.Data.Elements[row*r.Nx+c0:row*r.Nx+c1])
	}
	return o, nil
}

// transformBounds returns the extent of b after transformation by ct,
// sampling points along each edge.
func transformBounds(b *geom.Bounds, ct proj.Transformer) (*geom.Bounds, error) {
	const n = 20
	o := geom.NewBounds()
	for i := 0; i <= n; i++ {
		f := float64(i) / n
		x := b.Min.X + f*(b.Max.X-b.Min.X)
		y := b.Min.Y + f*(b.Max.Y-b.Min.Y)
		for _, p := range []geom.Point{
			{X: x, Y: b.Min.Y}, {X: x, Y: b.Max.Y},
			{X: b.Min.X, Y: y}, {X: b.Max.X, Y: y},
		} {
			tx, ty, err := ct(p.X, p.Y)
			if err != nil {
				return nil, err
			}
			o.Extend(geom.NewBoundsPoint(geom.Point{X: tx, Y: ty}))
		}
	}
	return o, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
