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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the values in a raster.
type Stats struct {
	Cells, NoData        int
	Min, Max, Sum        float64
	Mean, Median, StdDev float64
}

// Stats calculates summary statistics for the cells in r that hold data.
// If no cells hold data, the value statistics are NaN.
func (r *Raster) Stats() Stats {
	vals := make([]float64, 0, len(r.Data.Elements))
	for _, v := range r.Data.Elements {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	s := Stats{
		Cells:  len(r.Data.Elements),
		NoData: len(r.Data.Elements) - len(vals),
	}
	if len(vals) == 0 {
		nan := math.NaN()
		s.Min, s.Max, s.Sum, s.Mean, s.Median, s.StdDev = nan, nan, nan, nan, nan, nan
		return s
	}
	sort.Float64s(vals)
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	s.Sum = floats.Sum(vals)
	s.Mean, s.StdDev = stat.MeanStdDev(vals, nil)
	if len(vals) == 1 {
		s.StdDev = 0
	}
	s.Median = stat.Quantile(0.5, stat.Empirical, vals, nil)
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("cells=%d nodata=%d min=%g max=%g mean=%g median=%g sd=%g",
		s.Cells, s.NoData, s.Min, s.Max, s.Mean, s.Median, s.StdDev)
}
