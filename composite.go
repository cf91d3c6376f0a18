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

// SuitabilityFloor is the seasonal suitability score that a cell must
// exceed to remain eligible. Cells with a score of exactly
// SuitabilityFloor are excluded.
const SuitabilityFloor = 0.4

// A Criterion converts a raster into a mask where cells that pass hold 1
// and cells that fail hold NaN.
type Criterion interface {
	Mask(r *Raster) (*Raster, error)
}

func pass(ok bool) float64 {
	if ok {
		return 1
	}
	return math.NaN()
}

// Range passes values in the right-open interval [Min, Max).
type Range struct {
	Min, Max float64
}

// Mask implements Criterion.
func (c Range) Mask(r *Raster) (*Raster, error) {
	if !(c.Min < c.Max) {
		return nil, fmt.Errorf("rastermask: empty range [%g, %g)", c.Min, c.Max)
	}
	return r.Map(func(v float64) float64 { return pass(v >= c.Min && v < c.Max) }), nil
}

// Above passes values strictly greater than Floor.
type Above struct {
	Floor float64
}

// Mask implements Criterion.
func (c Above) Mask(r *Raster) (*Raster, error) {
	return r.Map(func(v float64) float64 { return pass(v > c.Floor) }), nil
}

// Equals passes values that equal one of Values, for categorical layers.
type Equals struct {
	Values []float64
}

// Mask implements Criterion.
func (c Equals) Mask(r *Raster) (*Raster, error) {
	if len(c.Values) == 0 {
		return nil, fmt.Errorf("rastermask: no categories specified for inclusion")
	}
	return r.Map(func(v float64) float64 {
		for _, cv := range c.Values {
			if v == cv {
				return 1
			}
		}
		return math.NaN()
	}), nil
}

// NotPresent passes cells that hold no data or zero, for excluding areas
// where something was previously observed.
type NotPresent struct{}

// Mask implements Criterion.
func (NotPresent) Mask(r *Raster) (*Raster, error) {
	return r.Map(func(v float64) float64 { return pass(math.IsNaN(v) || v == 0) }), nil
}

// Combine multiplies masks together so that a cell holds data only if it
// holds data in every mask.
func Combine(masks ...*Raster) (*Raster, error) {
	if len(masks) == 0 {
		return nil, fmt.Errorf("rastermask: no masks to combine")
	}
	if err := CheckAligned(masks...); err != nil {
		return nil, err
	}
	o := masks[0].Copy()
	for _, m := range masks[1:] {
		for i, v := range m.Data.Elements {
			o.Data.Elements[i] *= v
		}
	}
	return o, nil
}

// Apply returns a copy of r where cells that do not hold data in mask are
// set to NaN.
func Apply(mask, r *Raster) (*Raster, error) {
	if err := CheckAligned(mask, r); err != nil {
		return nil, err
	}
	o := r.Copy()
	for i, v := range mask.Data.Elements {
		if math.IsNaN(v) {
			o.Data.Elements[i] = math.NaN()
		}
	}
	return o, nil
}

// MeanWhere returns the mean of layers in each cell that holds data in
// mask. Cells outside of the mask, or where any layer lacks data, are NaN.
func MeanWhere(mask *Raster, layers ...*Raster) (*Raster, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("rastermask: no layers to average")
	}
	if err := CheckAligned(append([]*Raster{mask}, layers...)...); err != nil {
		return nil, err
	}
	o := mask.like()
	n := float64(len(layers))
	for i, m := range mask.Data.Elements {
		if math.IsNaN(m) {
			continue
		}
		sum := 0.
		for _, l := range layers {
			sum += l.Data.Elements[i]
		}
		o.Data.Elements[i] = sum / n
	}
	return o, nil
}

// Composite applies each criterion to the corresponding layer and
// combines the resulting masks.
func Composite(layers []*Raster, criteria []Criterion) (*Raster, error) {
	if len(layers) != len(criteria) {
		return nil, fmt.Errorf("rastermask: %d layers but %d criteria", len(layers), len(criteria))
	}
	masks := make([]*Raster, len(layers))
	for i, l := range layers {
		m, err := criteria[i].Mask(l)
		if err != nil {
			return nil, fmt.Errorf("rastermask: criterion %d: %w", i, err)
		}
		masks[i] = m
	}
	return Combine(masks...)
}
