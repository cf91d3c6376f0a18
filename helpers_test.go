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
	"math"
	"testing"
)

const testProj = "+proj=longlat"

const tolerance = 1.e-9

// testGrid returns a grid with square cells of size d.
func testGrid(t *testing.T, x0, y0, d float64, nx, ny int) *Grid {
	t.Helper()
	g, err := NewGrid(testProj, x0, y0, d, d, nx, ny)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// testRaster returns a raster on g holding vals in row-major order,
// starting with the southernmost row.
func testRaster(t *testing.T, g *Grid, vals ...float64) *Raster {
	t.Helper()
	r, err := newRasterData(g, vals)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// sameValues returns whether a and b hold the same values, treating NaNs
// as equal.
func sameValues(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			if math.IsNaN(a[i]) != math.IsNaN(b[i]) {
				return false
			}
			continue
		}
		if different(a[i], b[i], tol) {
			return false
		}
	}
	return true
}

var nan = math.NaN()
