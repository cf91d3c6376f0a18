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

func TestReclassify(t *testing.T) {
	g := testGrid(t, 0, 0, 1, 7, 1)
	depth := testRaster(t, g, -80, -50, -49.9, -5, -4, 3, nan)
	rules := []Rule{
		{From: math.Inf(-1), To: -50, Value: 0},
		{From: -50, To: -5, Value: 1},
		{From: -10, To: 0, Value: 2}, // overlaps the previous rule
	}
	o, err := Reclassify(depth, rules, 9)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1, 1, 2, 2, 9, nan}
	if !sameValues(o.Data.Elements, want, 0) {
		t.Errorf("got %v; want %v", o.Data.Elements, want)
	}

	o, err = Reclassify(depth, rules[:1], math.NaN())
	if err != nil {
		t.Fatal(err)
	}
	if o.Valid() != 1 {
		t.Errorf("got %d valid cells; want 1", o.Valid())
	}
}

func TestReclassifyEmptyRule(t *testing.T) {
	g := testGrid(t, 0, 0, 1, 1, 1)
	if _, err := Reclassify(NewRaster(g, 0), []Rule{{From: 1, To: 1, Value: 1}}, 0); err == nil {
		t.Error("expected an error")
	}
}
