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
	"errors"
	"math"
	"testing"

	"github.com/ctessum/geom"
)

func TestMosaicAdjacentCropped(t *testing.T) {
	a := testRaster(t, testGrid(t, 0, 0, 1, 2, 2), 1, 2, 3, 4)
	b := testRaster(t, testGrid(t, 2, 0, 1, 2, 2), 5, 6, 7, 8)
	m, err := Mosaic(First, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Grid.Equal(testGrid(t, 0, 0, 1, 4, 2)) {
		t.Errorf("mosaic grid = %v", m.Grid)
	}
	want := []float64{1, 2, 5, 6, 3, 4, 7, 8}
	if !sameValues(m.Data.Elements, want, 0) {
		t.Errorf("got %v; want %v", m.Data.Elements, want)
	}

	source := testGrid(t, 1, 0, 1, 2, 2)
	c, err := Crop(m, source.Bounds())
	if err != nil {
		t.Fatal(err)
	}
	if !c.Grid.Equal(source) {
		t.Errorf("cropped grid %v != source grid %v", c.Grid, source)
	}
	want = []float64{2, 5, 4, 7}
	if !sameValues(c.Data.Elements, want, 0) {
		t.Errorf("cropped: got %v; want %v", c.Data.Elements, want)
	}
}

func TestMosaicPolicies(t *testing.T) {
	a := testRaster(t, testGrid(t, 0, 0, 1, 2, 1), 1, 2)
	b := testRaster(t, testGrid(t, 1, 0, 1, 2, 1), 10, 20)
	aGap := testRaster(t, testGrid(t, 0, 0, 1, 2, 1), 1, nan)
	tests := []struct {
		policy MosaicPolicy
		tiles  []*Raster
		want   []float64
	}{
		{policy: First, tiles: []*Raster{a, b}, want: []float64{1, 2, 20}},
		{policy: Last, tiles: []*Raster{a, b}, want: []float64{1, 10, 20}},
		{policy: Mean, tiles: []*Raster{a, b}, want: []float64{1, 6, 20}},
		{policy: First, tiles: []*Raster{aGap, b}, want: []float64{1, 10, 20}},
		{policy: Mean, tiles: []*Raster{aGap, b}, want: []float64{1, 10, 20}},
	}
	for _, test := range tests {
		t.Run(test.policy.String(), func(t *testing.T) {
			m, err := Mosaic(test.policy, test.tiles...)
			if err != nil {
				t.Fatal(err)
			}
			if !sameValues(m.Data.Elements, test.want, tolerance) {
				t.Errorf("got %v; want %v", m.Data.Elements, test.want)
			}
		})
	}
}

func TestMosaicGap(t *testing.T) {
	a := testRaster(t, testGrid(t, 0, 0, 1, 1, 1), 1)
	b := testRaster(t, testGrid(t, 2, 1, 1, 1, 1), 2)
	m, err := Mosaic(First, a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, nan, nan, nan, nan, 2}
	if m.Nx != 3 || m.Ny != 2 || !sameValues(m.Data.Elements, want, 0) {
		t.Errorf("got %v %v; want %v", m.Grid, m.Data.Elements, want)
	}
}

func TestMosaicMisaligned(t *testing.T) {
	a := NewRaster(testGrid(t, 0, 0, 1, 2, 2), 1)
	utm, err := NewGrid("EPSG:32611", 0, 0, 1, 1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	for name, b := range map[string]*Raster{
		"offset":     NewRaster(testGrid(t, 2.5, 0, 1, 2, 2), 1),
		"resolution": NewRaster(testGrid(t, 2, 0, 0.5, 2, 2), 1),
		"projection": NewRaster(utm, 1),
	} {
		if _, err := Mosaic(First, a, b); !errors.Is(err, ErrMisaligned) {
			t.Errorf("%s: got %v; want ErrMisaligned", name, err)
		}
	}
	if _, err := Mosaic(MosaicPolicy(7), a); err == nil {
		t.Error("expected an error for an invalid policy")
	}
}

func TestSelectTiles(t *testing.T) {
	a := NewRaster(testGrid(t, 0, 0, 1, 2, 2), 1)
	b := NewRaster(testGrid(t, 2, 0, 1, 2, 2), 2)
	c := NewRaster(testGrid(t, 10, 10, 1, 2, 2), 3)
	tiles := []*Raster{a, b, c}

	sel, err := SelectTiles(&geom.Bounds{Min: geom.Point{X: 0.5, Y: 0.5}, Max: geom.Point{X: 3.5, Y: 1.5}}, tiles)
	if err != nil {
		t.Fatal(err)
	}
	if len(sel) != 2 || sel[0] != a || sel[1] != b {
		t.Errorf("selected %d tiles; want a and b", len(sel))
	}

	// Touching only along an edge does not count as overlap.
	sel, err = SelectTiles(&geom.Bounds{Min: geom.Point{X: 0.5, Y: 0.5}, Max: geom.Point{X: 2, Y: 1.5}}, tiles)
	if err != nil {
		t.Fatal(err)
	}
	if len(sel) != 1 {
		t.Errorf("selected %d tiles; want 1", len(sel))
	}

	for _, b := range []*geom.Bounds{
		{Min: geom.Point{X: 0.5, Y: 0.5}, Max: geom.Point{X: 5, Y: 1.5}},
		{Min: geom.Point{X: 0.5, Y: 0.5}, Max: geom.Point{X: 3, Y: 2.5}},
		{Min: geom.Point{X: 20, Y: 20}, Max: geom.Point{X: 21, Y: 21}},
	} {
		if _, err := SelectTiles(b, tiles); !errors.Is(err, ErrCoverage) {
			t.Errorf("%v: got %v; want ErrCoverage", *b, err)
		}
	}
}

// xTile returns a tile where each cell holds the x coordinate of its center.
func xTile(t *testing.T, x0, y0 float64, nx, ny int) *Raster {
	r := NewRaster(testGrid(t, x0, y0, 1, nx, ny), 0)
	for row := 0; row < ny; row++ {
		for col := 0; col < nx; col++ {
			r.Set(r.CellCenter(row, col).X, row, col)
		}
	}
	return r
}

func TestCorrectDatum(t *testing.T) {
	elevGrid, err := NewGrid(testProj, 0.5, 0.25, 0.5, 0.5, 6, 5)
	if err != nil {
		t.Fatal(err)
	}
	elev := NewRaster(elevGrid, 100)
	elev.Set(nan, 2, 2)
	tiles := []*Raster{
		xTile(t, 0, 0, 2, 2),
		xTile(t, 2, 0, 2, 2),
		xTile(t, 0, 2, 4, 1),
		xTile(t, 30, 30, 2, 2),
	}
	for _, method := range []Resampling{Bilinear, Nearest} {
		o, err := CorrectDatum(elev, method, tiles...)
		if err != nil {
			t.Fatal(err)
		}
		if !o.Grid.Equal(elev.Grid) {
			t.Fatalf("%v: output grid %v != elevation grid %v", method, o.Grid, elev.Grid)
		}
		for row := 0; row < elev.Ny; row++ {
			for col := 0; col < elev.Nx; col++ {
				v := o.Get(row, col)
				if row == 2 && col == 2 {
					if !math.IsNaN(v) {
						t.Errorf("%v: no-data cell became %g", method, v)
					}
					continue
				}
				x := elev.CellCenter(row, col).X
				want := 100 + x
				if method == Nearest {
					want = 100 + float64(int(x)) + 0.5
				}
				if different(v, want, 1.e-9) {
					t.Errorf("%v (%d, %d): got %g; want %g", method, row, col, v, want)
				}
			}
		}
	}
	if elev.Get(0, 0) != 100 {
		t.Error("input should not be modified")
	}
}

func TestCorrectDatumCoverage(t *testing.T) {
	elev := NewRaster(testGrid(t, 0, 0, 1, 4, 2), 100)
	_, err := CorrectDatum(elev, Bilinear, xTile(t, 0, 0, 2, 2))
	if !errors.Is(err, ErrCoverage) {
		t.Errorf("got %v; want ErrCoverage", err)
	}
}

func TestCorrectDatumPolicy(t *testing.T) {
	elev := NewRaster(testGrid(t, 0.5, 0.5, 1, 2, 1), 100)
	tiles := []*Raster{
		NewRaster(testGrid(t, 0, 0, 1, 3, 2), 10),
		NewRaster(testGrid(t, 0, 0, 1, 3, 2), 20),
	}
	for policy, want := range map[MosaicPolicy]float64{First: 110, Last: 120, Mean: 115} {
		o, err := CorrectDatumPolicy(elev, Bilinear, policy, tiles...)
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range o.Data.Elements {
			if different(v, want, 1.e-9) {
				t.Errorf("%v: cell %d = %g; want %g", policy, i, v, want)
			}
		}
	}
	if _, err := CorrectDatumPolicy(elev, Bilinear, MosaicPolicy(7), tiles...); err == nil {
		t.Error("expected an error for an invalid policy")
	}
}

func TestCorrectDatumMixedSR(t *testing.T) {
	elev := NewRaster(testGrid(t, 0, 0, 1, 2, 2), 100)
	g, err := NewGrid("EPSG:3857", 0, 0, 1000, 1000, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	tiles := []*Raster{NewRaster(g, 1), xTile(t, 0, 0, 2, 2)}
	if _, err := CorrectDatum(elev, Bilinear, tiles...); !errors.Is(err, ErrMisaligned) {
		t.Errorf("got %v; want ErrMisaligned", err)
	}
}
