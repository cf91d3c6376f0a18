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
	"io"
	"math"
	"strings"

	"github.com/BurntSushi/toml"
)

// CriterionConfig specifies a criterion and the layer it applies to.
type CriterionConfig struct {
	// Layer is the name of the layer the criterion applies to.
	Layer string

	// Type is one of "range", "above", "equals", "notpresent",
	// or "expression".
	Type string

	Min, Max *float64  // for "range"; missing ends are unbounded
	Floor    *float64  // for "above"; defaults to SuitabilityFloor
	Values   []float64 // for "equals"
	Expr     string    // for "expression"
}

// Criterion returns the criterion specified by c.
func (c CriterionConfig) Criterion() (Criterion, error) {
	switch strings.ToLower(c.Type) {
	case "range":
		r := Range{Min: math.Inf(-1), Max: math.Inf(1)}
		if c.Min != nil {
			r.Min = *c.Min
		}
		if c.Max != nil {
			r.Max = *c.Max
		}
		if !(r.Min < r.Max) {
			return nil, fmt.Errorf("rastermask: range criterion for layer %s has Min %g >= Max %g", c.Layer, r.Min, r.Max)
		}
		return r, nil
	case "above":
		a := Above{Floor: SuitabilityFloor}
		if c.Floor != nil {
			a.Floor = *c.Floor
		}
		return a, nil
	case "equals":
		if len(c.Values) == 0 {
			return nil, fmt.Errorf("rastermask: equals criterion for layer %s has no Values", c.Layer)
		}
		return Equals{Values: c.Values}, nil
	case "notpresent":
		return NotPresent{}, nil
	case "expression":
		if c.Expr == "" {
			return nil, fmt.Errorf("rastermask: expression criterion for layer %s has no Expr", c.Layer)
		}
		return Expression{Expr: c.Expr}, nil
	default:
		return nil, fmt.Errorf("rastermask: invalid criterion type %q for layer %s", c.Type, c.Layer)
	}
}

// Criteria is a set of criteria that must all pass for a cell to be
// eligible.
type Criteria struct {
	Criterion []CriterionConfig

	// Mean lists layers whose values are averaged over the eligible cells.
	Mean []string
}

// ReadCriteria reads a set of criteria in TOML format, for example:
//
//	Mean = ["suit_q1", "suit_q2"]
//
//	[[Criterion]]
//	Layer = "suit_q1"
//	Type = "above"
//
//	[[Criterion]]
//	Layer = "depth"
//	Type = "range"
//	Min = -60.0
//	Max = -5.0
func ReadCriteria(r io.Reader) (*Criteria, error) {
	c := new(Criteria)
	md, err := toml.DecodeReader(r, c)
	if err != nil {
		return nil, fmt.Errorf("rastermask: reading criteria: %v", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("rastermask: unknown criteria keys %v", undec)
	}
	if len(c.Criterion) == 0 {
		return nil, fmt.Errorf("rastermask: no criteria specified")
	}
	for _, cc := range c.Criterion {
		if _, err := cc.Criterion(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Layers returns the names of the layers referenced by c.
func (c *Criteria) Layers() []string {
	seen := make(map[string]bool)
	var o []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			o = append(o, n)
		}
	}
	for _, cc := range c.Criterion {
		add(cc.Layer)
	}
	for _, n := range c.Mean {
		add(n)
	}
	return o
}

// Evaluate applies the criteria to the named layers, returning the combined
// eligibility mask and, if any Mean layers are specified, the mean of those
// layers over the eligible cells.
func (c *Criteria) Evaluate(layers map[string]*Raster) (eligible, mean *Raster, err error) {
	rs := make([]*Raster, len(c.Criterion))
	cs := make([]Criterion, len(c.Criterion))
	for i, cc := range c.Criterion {
		r, ok := layers[cc.Layer]
		if !ok {
			return nil, nil, fmt.Errorf("rastermask: criterion %d references undefined layer %q", i, cc.Layer)
		}
		rs[i] = r
		if cs[i], err = cc.Criterion(); err != nil {
			return nil, nil, err
		}
	}
	eligible, err = Composite(rs, cs)
	if err != nil {
		return nil, nil, err
	}
	if len(c.Mean) == 0 {
		return eligible, nil, nil
	}
	ms := make([]*Raster, len(c.Mean))
	for i, n := range c.Mean {
		r, ok := layers[n]
		if !ok {
			return nil, nil, fmt.Errorf("rastermask: mean references undefined layer %q", n)
		}
		ms[i] = r
	}
	mean, err = MeanWhere(eligible, ms...)
	if err != nil {
		return nil, nil, err
	}
	return eligible, mean, nil
}
