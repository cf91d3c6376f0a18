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
	"strconv"

	"github.com/ctessum/geom"
)

// RasterizeMode specifies which cells a geometry is considered to cover.
type RasterizeMode int

const (
	// CellCenter marks cells whose centers are inside or on the edge of a
	// polygon. Polygons smaller than a cell may not cover any cell centers
	// and can therefore be lost.
	CellCenter RasterizeMode = iota

	// Touches marks every cell that has a positive overlap area with a polygon.
	Touches

	// CoverFraction sets each cell to the fraction of its area covered by
	// polygons.
	CoverFraction
)

func (m RasterizeMode) String() string {
	switch m {
	case CellCenter:
		return "center"
	case Touches:
		return "touches"
	case CoverFraction:
		return "fraction"
	default:
		return fmt.Sprintf("RasterizeMode(%d)", int(m))
	}
}

// ParseRasterizeMode returns the mode named by s, which must be one of
// "center", "touches", or "fraction".
func ParseRasterizeMode(s string) (RasterizeMode, error) {
	for _, m := range []RasterizeMode{CellCenter, Touches, CoverFraction} {
		if m.String() == s {
			return m, nil
		}
	}
	return CellCenter, fmt.Errorf("rastermask: invalid rasterization mode %q", s)
}

// RasterizeOptions control how vector features are converted to a raster.
type RasterizeOptions struct {
	Mode RasterizeMode

	// Value is the value given to covered cells. If zero, covered
	// cells are set to 1.
	Value float64

	// Field, if set, is the name of a numeric attribute whose value
	// is given to the cells covered by each feature. Where features
	// overlap the last one wins.
	Field string
}

// Rasterize converts the features in v to a raster on grid g. Cells covered
// by a feature are set to the value specified in opts and the remaining
// cells hold NaN. Points mark the cell that contains them, and lines mark
// the cells whose interiors they cross. v is reprojected to the spatial
// reference of g if necessary.
func Rasterize(v *VectorLayer, g *Grid, opts RasterizeOptions) (*Raster, error) {
	if v.SR == nil || g.SR == nil {
		return nil, ErrNoSR
	}
	if !sameSR(v.SR, g.SR) {
		var err error
		v, err = v.Transform(g.SR)
		if err != nil {
			return nil, err
		}
	}
	value := opts.Value
	if value == 0 {
		value = 1
	}
	o := NewRaster(g, math.NaN())
	cellArea := g.Dx * g.Dy
	// covered holds, for CoverFraction, the union of the polygon parts
	// inside each cell so that overlapping features are counted once.
	covered := make(map[int]geom.Polygon)
	for i, f := range v.Features {
		val := value
		if opts.Field != "" {
			s, ok := f.Attributes[opts.Field]
			if !ok {
				return nil, fmt.Errorf("rastermask: feature %d does not have attribute %q", i, opts.Field)
			}
			var err error
			val, err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("rastermask: feature %d attribute %q: %v", i, opts.Field, err)
			}
		}
		set := func(row, col int) {
			if opts.Mode == CoverFraction {
				o.Set(1, row, col)
			} else {
				o.Set(val, row, col)
			}
		}
		rasterizeGeom(f.Geom, g, func(c *Cell, poly geom.Polygonal) {
			switch opts.Mode {
			case CellCenter:
				if g.CellCenter(c.Row, c.Col).Within(poly) != geom.Outside {
					set(c.Row, c.Col)
				}
			case Touches:
				if c.Intersection(poly).Area() > 0 {
					set(c.Row, c.Col)
				}
			case CoverFraction:
				part := c.Intersection(poly)
				if part.Area() <= 0 {
					return
				}
				k := c.Row*g.Nx + c.Col
				if prev, ok := covered[k]; ok {
					part = prev.Union(part)
				}
				covered[k] = part
			}
		}, set)
	}
	for k, part := range covered {
		if o.Data.Elements[k] == 1 {
			continue // already marked by a point or line
		}
		o.Data.Elements[k] = math.Min(part.Area()/cellArea, 1)
	}
	return o, nil
}

// rasterizeGeom calls polyFunc for each cell whose bounds intersect a
// polygonal geometry and setFunc for each cell covered by a point or line.
func rasterizeGeom(gg geom.Geom, g *Grid, polyFunc func(*Cell, geom.Polygonal), setFunc func(row, col int)) {
	switch t := gg.(type) {
	case geom.Polygonal:
		for _, c := range g.SearchIntersect(t.Bounds()) {
			polyFunc(c, t)
		}
	case geom.Point:
		if row, col, ok := g.Index(t); ok {
			setFunc(row, col)
		}
	case geom.MultiPoint:
		for _, p := range t {
			rasterizeGeom(p, g, polyFunc, setFunc)
		}
	case geom.LineString:
		rasterizeLine(t, g, setFunc)
	case geom.MultiLineString:
		for _, l := range t {
			rasterizeLine(l, g, setFunc)
		}
	case geom.GeometryCollection:
		for _, sub := range t {
			rasterizeGeom(sub, g, polyFunc, setFunc)
		}
	}
}

// rasterizeLine marks the cells whose interiors are crossed by l.
func rasterizeLine(l geom.LineString, g *Grid, setFunc func(row, col int)) {
	for i := 0; i < len(l)-1; i++ {
		a, b := l[i], l[i+1]
		bounds := geom.NewBoundsPoint(a)
		bounds.Extend(geom.NewBoundsPoint(b))
		for _, c := range g.SearchIntersect(bounds) {
			if segmentCrossesInterior(a, b, c.Bounds()) {
				setFunc(c.Row, c.Col)
			}
		}
	}
}

// segmentCrossesInterior returns whether the segment from a to b passes
// through the interior of box, using Liang-Barsky clipping.
func segmentCrossesInterior(a, b geom.Point, box *geom.Bounds) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	t0, t1 := 0., 1.
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return false
			}
			if r < t1 {
				t1 = r
			}
		}
		return true
	}
	if !clip(-dx, a.X-box.Min.X) || !clip(dx, box.Max.X-a.X) ||
		!clip(-dy, a.Y-box.Min.Y) || !clip(dy, box.Max.Y-a.Y) {
		return false
	}
	if t0 > t1 {
		return false
	}
	tm := (t0 + t1) / 2
	x, y := a.X+tm*dx, a.Y+tm*dy
	return x > box.Min.X && x < box.Max.X && y > box.Min.Y && y < box.Max.Y
}

// MaskMode specifies whether feature presence includes or excludes cells.
type MaskMode int

const (
	// MaskExclude marks cells covered by features as no-data and the
	// remaining cells as 1 (e.g., land or protected areas).
	MaskExclude MaskMode = iota

	// MaskInclude marks cells covered by features as 1 and the remaining
	// cells as no-data (e.g., suitable substrate).
	MaskInclude
)

// VectorMask rasterizes v onto g using cell centers and reclassifies the
// result into a mask according to mode.
func VectorMask(v *VectorLayer, g *Grid, mode MaskMode) (*Raster, error) {
	r, err := Rasterize(v, g, RasterizeOptions{Mode: CellCenter})
	if err != nil {
		return nil, err
	}
	present, absent := math.NaN(), 1.
	if mode == MaskInclude {
		present, absent = 1., math.NaN()
	}
	return r.Map(func(v float64) float64 {
		if math.IsNaN(v) {
			return absent
		}
		return present
	}), nil
}
