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
	"sort"

	"github.com/ctessum/geom"
)

// MosaicPolicy specifies how overlapping tile values are resolved.
type MosaicPolicy int

const (
	// First keeps the value from the first tile holding data in a cell.
	First MosaicPolicy = iota

	// Last keeps the value from the last tile holding data in a cell.
	Last

	// Mean averages the values of all tiles holding data in a cell.
	Mean
)

func (p MosaicPolicy) String() string {
	switch p {
	case First:
		return "first"
	case Last:
		return "last"
	case Mean:
		return "mean"
	default:
		return fmt.Sprintf("MosaicPolicy(%d)", int(p))
	}
}

// ParseMosaicPolicy returns the policy named by s, which must be one of
// "first", "last", or "mean".
func ParseMosaicPolicy(s string) (MosaicPolicy, error) {
	for _, p := range []MosaicPolicy{First, Last, Mean} {
		if p.String() == s {
			return p, nil
		}
	}
	return First, fmt.Errorf("rastermask: invalid mosaic policy %q", s)
}

// Mosaic combines tiles into a single raster covering the union of their
// extents. The tiles must share a spatial reference and cell size, and their
// origins must be offset by whole numbers of cells. Cells not covered by
// any tile hold NaN.
func Mosaic(policy MosaicPolicy, tiles ...*Raster) (*Raster, error) {
	if len(tiles) == 0 {
		return nil, fmt.Errorf("rastermask: no tiles to mosaic")
	}
	if policy < First || policy > Mean {
		return nil, fmt.Errorf("rastermask: invalid mosaic policy %v", policy)
	}
	t0 := tiles[0]
	tol := gridTol * math.Min(t0.Dx, t0.Dy)
	b := geom.NewBounds()
	for i, t := range tiles {
		if !sameSR(t0.SR, t.SR) {
			return nil, fmt.Errorf("%w: tile %d has a different spatial reference than tile 0", ErrMisaligned, i)
		}
		if different(t.Dx, t0.Dx, tol) || different(t.Dy, t0.Dy, tol) {
			return nil, fmt.Errorf("%w: tile %d has cell size %g×%g but tile 0 has %g×%g",
				ErrMisaligned, i, t.Dx, t.Dy, t0.Dx, t0.Dy)
		}
		ox, oy := (t.X0-t0.X0)/t0.Dx, (t.Y0-t0.Y0)/t0.Dy
		if different(ox, math.Round(ox), gridTol) || different(oy, math.Round(oy), gridTol) {
			return nil, fmt.Errorf("%w: tile %d origin is not offset from tile 0 by whole cells", ErrMisaligned, i)
		}
		b.Extend(t.Bounds())
	}
	g := t0.copyGrid()
	g.X0, g.Y0 = b.Min.X, b.Min.Y
	g.Nx = int(math.Round((b.Max.X - b.Min.X) / t0.Dx))
	g.Ny = int(math.Round((b.Max.Y - b.Min.Y) / t0.Dy))
	o := NewRaster(g, math.NaN())
	var count []float64
	if policy == Mean {
		count = make([]float64, g.Len())
	}
	for _, t := range tiles {
		c0 := int(math.Round((t.X0 - g.X0) / g.Dx))
		r0 := int(math.Round((t.Y0 - g.Y0) / g.Dy))
		for row := 0; row < t.Ny; row++ {
			for col := 0; col < t.Nx; col++ {
				v := t.Get(row, col)
				if math.IsNaN(v) {
					continue
				}
				i := (row+r0)*g.Nx + col + c0
				switch policy {
				case First:
					if math.IsNaN(o.Data.Elements[i]) {
						o.Data.Elements[i] = v
					}
				case Last:
					o.Data.Elements[i] = v
				case Mean:
					if math.IsNaN(o.Data.Elements[i]) {
						o.Data.Elements[i] = 0
					}
					o.Data.Elements[i] += v
					count[i]++
				}
			}
		}
	}
	for i, n := range count {
		if n > 0 {
			o.Data.Elements[i] /= n
		}
	}
	return o, nil
}

// overlapsInterior returns whether a and b share a region of positive area.
func overlapsInterior(a, b *geom.Bounds) bool {
	return a.Min.X < b.Max.X && a.Max.X > b.Min.X && a.Min.Y < b.Max.Y && a.Max.Y > b.Min.Y
}

// SelectTiles returns the tiles that overlap b, in their original order.
// It returns an error wrapping ErrCoverage if together the selected
// tiles do not cover all of b.
func SelectTiles(b *geom.Bounds, tiles []*Raster) ([]*Raster, error) {
	var selected []*Raster
	for _, t := range tiles {
		if overlapsInterior(t.Bounds(), b) {
			selected = append(selected, t)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no tiles overlap %v", ErrCoverage, *b)
	}

	// Split b along every tile edge inside it and check that each
	// resulting piece is covered by at least one tile.
	xs := []float64{b.Min.X, b.Max.X}
	ys := []float64{b.Min.Y, b.Max.Y}
	for _, t := range selected {
		tb := t.Bounds()
		for _, x := range []float64{tb.Min.X, tb.Max.X} {
			if x > b.Min.X && x < b.Max.X {
				xs = append(xs, x)
			}
		}
		for _, y := range []float64{tb.Min.Y, tb.Max.Y} {
			if y > b.Min.Y && y < b.Max.Y {
				ys = append(ys, y)
			}
		}
	}
	sort.Float64s(xs)
	sort.Float64s(ys)
	for i := 0; i < len(xs)-1; i++ {
		for j := 0; j < len(ys)-1; j++ {
			if xs[i+1] <= xs[i] || ys[j+1] <= ys[j] {
				continue
			}
			p := geom.Point{X: (xs[i] + xs[i+1]) / 2, Y: (ys[j] + ys[j+1]) / 2}
			covered := false
			for _, t := range selected {
				tb := t.Bounds()
				if p.X >= tb.Min.X && p.X <= tb.Max.X && p.Y >= tb.Min.Y && p.Y <= tb.Max.Y {
					covered = true
					break
				}
			}
			if !covered {
				return nil, fmt.Errorf("%w: point (%g, %g) is not within any tile", ErrCoverage, p.X, p.Y)
			}
		}
	}
	return selected, nil
}

// CorrectDatum changes the vertical reference of elev by adding a
// correction surface (e.g., geoid heights) assembled from tiles. All tiles
// intersecting the extent of elev are mosaicked, cropped, and resampled
// onto the grid of elev with the given method before being added, so the
// result always has exactly the grid of elev.
func CorrectDatum(elev *Raster, method Resampling, tiles ...*Raster) (*Raster, error) {
	return CorrectDatumPolicy(elev, method, First, tiles...)
}

// CorrectDatumPolicy is like CorrectDatum, but resolves overlapping tiles
// with the given mosaic policy.
func CorrectDatumPolicy(elev *Raster, method Resampling, policy MosaicPolicy, tiles ...*Raster) (*Raster, error) {
	if len(tiles) == 0 {
		return nil, fmt.Errorf("rastermask: no correction tiles")
	}
	if elev.SR == nil || tiles[0].SR == nil {
		return nil, ErrNoSR
	}
	for i, t := range tiles[1:] {
		if !sameSR(tiles[0].SR, t.SR) {
			return nil, fmt.Errorf("%w: tile %d has a different spatial reference than tile 0", ErrMisaligned, i+1)
		}
	}
	ct, err := elev.SR.NewTransform(tiles[0].SR)
	if err != nil {
		return nil, fmt.Errorf("rastermask: creating datum transform: %v", err)
	}
	b, err := transformBounds(elev.Bounds(), ct)
	if err != nil {
		return nil, fmt.Errorf("rastermask: transforming elevation extent: %v", err)
	}
	selected, err := SelectTiles(b, tiles)
	if err != nil {
		return nil, err
	}
	m, err := Mosaic(policy, selected...)
	if err != nil {
		return nil, err
	}
	// Keep one extra cell on each side for interpolation.
	pad := &geom.Bounds{
		Min: geom.Point{X: b.Min.X - m.Dx, Y: b.Min.Y - m.Dy},
		Max: geom.Point{X: b.Max.X + m.Dx, Y: b.Max.Y + m.Dy},
	}
	m, err = Crop(m, pad)
	if err != nil {
		return nil, err
	}
	surface, err := Align(m, elev.Grid, method)
	if err != nil {
		return nil, err
	}
	o := elev.Copy()
	for i, v := range surface.Data.Elements {
		o.Data.Elements[i] += v
	}
	return o, nil
}
