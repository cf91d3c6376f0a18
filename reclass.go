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

// Rule reclassifies values in the right-open interval [From, To) to Value.
// Use math.Inf to leave either end unbounded.
type Rule struct {
	From, To, Value float64
}

func (r Rule) matches(v float64) bool { return v >= r.From && v < r.To }

// Reclassify returns a raster where each value of r is replaced by the
// Value of the first rule that matches it, or by otherwise if no rule
// matches. Cells without data stay without data.
func Reclassify(r *Raster, rules []Rule, otherwise float64) (*Raster, error) {
	for i, rule := range rules {
		if !(rule.From < rule.To) {
			return nil, fmt.Errorf("rastermask: reclassification rule %d has empty interval [%g, %g)",
				i, rule.From, rule.To)
		}
	}
	return r.Map(func(v float64) float64 {
		if math.IsNaN(v) {
			return v
		}
		for _, rule := range rules {
			if rule.matches(v) {
				return rule.Value
			}
		}
		return otherwise
	}), nil
}
