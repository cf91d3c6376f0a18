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

	"github.com/ctessum/geom"
)

// linearRaster returns a 2×2 raster on a unit grid where each cell holds
// col + 2*row.
func linearRaster(t *testing.T) *Raster {
	return testRaster(t, testGrid(t, 0, 0, 1, 2, 2), 0, 1, 2, 3)
}

func TestAlignIdentity(t *testing.T) {
	src := testRaster(t, testGrid(t, 0, 0, 1, 3, 2), 1, nan, 3, 4, 5, 6)
	for _, m := range []Resampling{Bilinear, Nearest} {
		o, err := Align(src, src.Grid, m)
		if err != nil {
			t.Fatal(err)
		}
		if !sameValues(o.Data.Elements, src.Data.Elements, 0) {
			t.Errorf("%v: got %v; want %v", m, o.Data.Elements, src.Data.Elements)
		}
	}
}

func TestAlignValues(t *testing.T) {
	src := linearRaster(t)
	tests := []struct {
		name   string
		x, y   float64
		method Resampling
		want   float64
	}{
		{name: "bilinear middle", x: 1, y: 1, method: Bilinear, want: 1.5},
		{name: "bilinear interior", x: 1.25, y: 0.75, method: Bilinear, want: 1.25},
		{name: "bilinear clamped", x: 0.25, y: 0.25, method: Bilinear, want: 0},
		{name: "bilinear edge", x: 1.9, y: 0.5, method: Bilinear, want: 1},
		{name: "bilinear outside", x: 2.5, y: 0.5, method: Bilinear, want: nan},
		{name: "nearest", x: 1.25, y: 0.75, method: Nearest, want: 1},
		{name: "nearest upper", x: 0.4, y: 1.6, method: Nearest, want: 2},
		{name: "nearest outside", x: -0.1, y: 0.5, method: Nearest, want: nan},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			target := testGrid(t, test.x-0.05, test.y-0.05, 0.1, 1, 1)
			o, err := Align(src, target, test.method)
			if err != nil {
				t.Fatal(err)
			}
			if !sameValues(o.Data.Elements, []float64{test.want}, 1.e-9) {
				t.Errorf("got %g; want %g", o.Data.Elements[0], test.want)
			}
		})
	}
}

func TestAlignBilinearLinear(t *testing.T) {
	src := linearRaster(t)
	target := testGrid(t, 0.5, 0.5, 0.25, 4, 4)
	o, err := Align(src, target, Bilinear)
	if err != nil {
		t.Fatal(err)
	}
	if !o.Grid.Equal(target) {
		t.Errorf("output grid %v != target %v", o.Grid, target)
	}
	for row := 0; row < target.Ny; row++ {
		for col := 0; col < target.Nx; col++ {
			c := target.CellCenter(row, col)
			want := (c.X - 0.5) + 2*(c.Y-0.5)
			if different(o.Get(row, col), want, 1.e-9) {
				t.Errorf("(%d, %d): got %g; want %g", row, col, o.Get(row, col), want)
			}
		}
	}
}

func TestAlignBilinearNaN(t *testing.T) {
	src := testRaster(t, testGrid(t, 0, 0, 1, 2, 2), 0, 1, 2, nan)
	target := testGrid(t, 0.95, 0.95, 0.1, 1, 1)
	o, err := Align(src, target, Bilinear)
	if err != nil {
		t.Fatal(err)
	}
	if different(o.Data.Elements[0], 1, 1.e-9) {
		t.Errorf("got %g; want 1", o.Data.Elements[0])
	}

	src = testRaster(t, testGrid(t, 0, 0, 1, 2, 2), nan, nan, nan, nan)
	o, err = Align(src, target, Bilinear)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(o.Data.Elements[0]) {
		t.Errorf("got %g; want NaN", o.Data.Elements[0])
	}
}

func TestAlignReprojected(t *testing.T) {
	g, err := NewGrid("EPSG:4326", -121, 33, 0.5, 0.5, 6, 4)
	if err != nil {
		t.Fatal(err)
	}
	src := NewRaster(g, 7)
	target, err := NewGrid("EPSG:3857", -13400000, 3950000, 10000, 10000, 20, 10)
	if err != nil {
		t.Fatal(err)
	}
	o, err := Align(src, target, Bilinear)
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckAligned(o, NewRaster(target, 0)); err != nil {
		t.Fatal(err)
	}
	if n := o.Valid(); n != target.Len() {
		t.Errorf("%d of %d cells have data", n, target.Len())
	}
	for i, v := range o.Data.Elements {
		if different(v, 7, 1.e-12) {
			t.Fatalf("cell %d = %g; want 7", i, v)
		}
	}
}

func TestParseResampling(t *testing.T) {
	for s, want := range map[string]Resampling{"bilinear": Bilinear, "nearest": Nearest, "ngb": Nearest} {
		m, err := ParseResampling(s)
		if err != nil {
			t.Fatal(err)
		}
		if m != want {
			t.Errorf("%s: got %v; want %v", s, m, want)
		}
	}
	if _, err := ParseResampling("cubic"); err == nil {
		t.Error("expected an error")
	}
}

func TestCrop(t *testing.T) {
	r := testRaster(t, testGrid(t, 0, 0, 1, 4, 3),
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	)
	o, err := Crop(r, &geom.Bounds{Min: geom.Point{X: 0.5, Y: 1}, Max: geom.Point{X: 2.2, Y: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if o.X0 != 0 || o.Y0 != 1 || o.Nx != 3 || o.Ny != 2 {
		t.Errorf("cropped grid = %v", o.Grid)
	}
	want := []float64{4, 5, 6, 8, 9, 10}
	if !sameValues(o.Data.Elements, want, 0) {
		t.Errorf("got %v; want %v", o.Data.Elements, want)
	}
	if _, err := Crop(r, &geom.Bounds{Min: geom.Point{X: 5, Y: 5}, Max: geom.Point{X: 6, Y: 6}}); err == nil {
		t.Error("expected an error for bounds outside the raster")
	}
}
