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

func TestNewTemplate(t *testing.T) {
	r, err := NewTemplate(TemplateConfig{
		Proj:  "EPSG:4326",
		West:  -120.65,
		East:  -118.80,
		South: 33.85,
		North: 34.59,
		Dx:    0.008,
		Dy:    0.008,
		Fill:  1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.Nx != 231 || r.Ny != 93 {
		t.Errorf("dimensions = %d×%d; want 231×93", r.Nx, r.Ny)
	}
	if r.X0 != -120.65 || r.Y0 != 33.85 {
		t.Errorf("origin = (%g, %g)", r.X0, r.Y0)
	}
	if len(r.Data.Elements) != 231*93 {
		t.Errorf("data length = %d", len(r.Data.Elements))
	}
	for i, v := range r.Data.Elements {
		if v != 1 {
			t.Fatalf("cell %d = %g; want 1", i, v)
		}
	}
}

func TestNewTemplateRounding(t *testing.T) {
	// The cell size does not evenly divide the extent, so the eastern and
	// northern edges move.
	r, err := NewTemplate(TemplateConfig{
		Proj: testProj, West: 0, East: 10.4, South: 0, North: 5.6, Dx: 1, Dy: 1,
		Fill: math.NaN(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.Nx != 10 || r.Ny != 6 {
		t.Errorf("dimensions = %d×%d; want 10×6", r.Nx, r.Ny)
	}
	b := r.Bounds()
	if b.Max.X != 10 || b.Max.Y != 6 {
		t.Errorf("upper corner = %v", b.Max)
	}
	if r.Valid() != 0 {
		t.Errorf("all cells should be no-data")
	}
}

func TestNewTemplateErrors(t *testing.T) {
	for _, c := range []TemplateConfig{
		{Proj: testProj, West: 0, East: 1, South: 0, North: 1, Dx: 0, Dy: 1},
		{Proj: testProj, West: 1, East: 0, South: 0, North: 1, Dx: 1, Dy: 1},
		{Proj: testProj, West: 0, East: 0.2, South: 0, North: 1, Dx: 1, Dy: 1},
		{Proj: "", West: 0, East: 1, South: 0, North: 1, Dx: 1, Dy: 1},
	} {
		if _, err := NewTemplate(c); err == nil {
			t.Errorf("%+v: expected an error", c)
		}
	}
}
