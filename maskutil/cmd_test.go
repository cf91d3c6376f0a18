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

package maskutil

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/rastermask"
	"github.com/spatialmodel/rastermask/occurrence"
)

const testLand = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "island"},
      "geometry": {"type": "Polygon", "coordinates": [[[-0.5, -0.5], [1, -0.5], [1, 3.5], [-0.5, 3.5], [-0.5, -0.5]]]}
    }
  ]
}`

const testCriteria = `
Mean = ["q1", "q2"]

[[Criterion]]
Layer = "land"
Type = "equals"
Values = [1.0]

[[Criterion]]
Layer = "depth"
Type = "range"
Min = -60.0
Max = -5.0

[[Criterion]]
Layer = "q1"
Type = "above"

[[Criterion]]
Layer = "q2"
Type = "above"
`

const testPresenceCriterion = `
[[Criterion]]
Layer = "presence"
Type = "notpresent"
`

const testOccurrences = `{"offset":0,"limit":300,"endOfRecords":true,"results":[
	{"id":1,"species":"Haliotis rufescens","category":"NT","group":"Gastropoda","decimalLongitude":2.5,"decimalLatitude":1.5},
	{"id":2,"species":"Sebastes sp.","category":"DD","group":"Actinopterygii","decimalLongitude":3.5,"decimalLatitude":2.5}]}`

// testInputs holds the paths of the files written by writeTestInputs.
type testInputs struct {
	dir, layers, land, criteria, presenceCriteria, traits string
	tiles                                             []string
}

// writeTestInputs writes the inputs for a 4×3 siting scenario with
// one-degree cells. Depth is -10, q1 is 0.6, and q2 is 0.8 everywhere,
// land covers the first column, and the datum offset is 30.
func writeTestInputs(t *testing.T) *testInputs {
	dir, err := ioutil.TempDir("", "maskutil")
	if err != nil {
		t.Fatal(err)
	}
	in := &testInputs{
		dir:              dir,
		layers:           filepath.Join(dir, "layers.nc"),
		land:             filepath.Join(dir, "land.geojson"),
		criteria:         filepath.Join(dir, "criteria.toml"),
		presenceCriteria: filepath.Join(dir, "presence.toml"),
		traits:           filepath.Join(dir, "traits.csv"),
	}
	g, err := rastermask.NewGrid("EPSG:4326", 0, 0, 1, 1, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	err = rastermask.SaveNCF(in.layers, map[string]*rastermask.Raster{
		"depth": rastermask.NewRaster(g, -10),
		"q1":    rastermask.NewRaster(g, 0.6),
		"q2":    rastermask.NewRaster(g, 0.8),
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, x0 := range []float64{0, 2} {
		tg, err := rastermask.NewGrid("EPSG:4326", x0, 0, 1, 1, 2, 3)
		if err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, fmt.Sprintf("geoid%d.asc", i))
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := rastermask.WriteASCIIGrid(f, rastermask.NewRaster(tg, 30)); err != nil {
			t.Fatal(err)
		}
		f.Close()
		in.tiles = append(in.tiles, path)
	}
	files := map[string]string{
		in.land:             testLand,
		in.criteria:         testCriteria,
		in.presenceCriteria: testCriteria + testPresenceCriterion,
		in.traits:           "species,habitat\nHaliotis rufescens,rocky reef\n",
	}
	for path, content := range files {
		if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return in
}

// setTemplate configures the template grid of the test scenario.
func setTemplate() {
	Cfg.Set("Template.Proj", "EPSG:4326")
	Cfg.Set("Template.West", 0.0)
	Cfg.Set("Template.East", 4.0)
	Cfg.Set("Template.South", 0.0)
	Cfg.Set("Template.North", 3.0)
	Cfg.Set("Template.Dx", 1.0)
	Cfg.Set("Template.Dy", 1.0)
}

// execute runs the command given by args with a fresh configuration
// set up by set, and returns its output.
func execute(t *testing.T, set func(), args ...string) string {
	Cfg = newConfig()
	set()
	buf := new(bytes.Buffer)
	Root.SetOutput(buf)
	defer Root.SetOutput(nil)
	Root.SetArgs(args)
	if err := Root.Execute(); err != nil {
		t.Fatalf("%v\n%s", err, buf.String())
	}
	return buf.String()
}

func loadLayer(t *testing.T, path, name string) *rastermask.Raster {
	layers, err := rastermask.LoadNCF(path)
	if err != nil {
		t.Fatal(err)
	}
	r, ok := layers[name]
	if !ok {
		t.Fatalf("%s has no layer %s", path, name)
	}
	return r
}

func occurrenceServer(t *testing.T) *httptest.Server {
	t.Setenv(occurrence.KeyEnv, "secret")
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, testOccurrences)
	}))
}

func TestVersion(t *testing.T) {
	out := execute(t, func() {}, "version")
	if !strings.Contains(out, "rastermask v"+rastermask.Version) {
		t.Errorf("output: %q", out)
	}
}

func TestTemplate(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	out := filepath.Join(in.dir, "template.nc")
	execute(t, func() {
		setTemplate()
		Cfg.Set("Template.Fill", 2.0)
		Cfg.Set("OutputFile", out)
	}, "template")
	r := loadLayer(t, out, "template")
	if r.Nx != 4 || r.Ny != 3 {
		t.Errorf("have %d×%d, want 4×3", r.Nx, r.Ny)
	}
	if r.Get(2, 3) != 2 {
		t.Errorf("fill: have %g, want 2", r.Get(2, 3))
	}
}

func TestTemplateMissingOutput(t *testing.T) {
	Cfg = newConfig()
	setTemplate()
	Root.SetOutput(ioutil.Discard)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"template"})
	if err := Root.Execute(); err == nil {
		t.Error("expected an error")
	}
}

func TestVectorMask(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	out := filepath.Join(in.dir, "masks.nc")
	execute(t, func() {
		setTemplate()
		Cfg.Set("VectorMasks", map[string]string{"land": in.land, "island": in.land})
		Cfg.Set("VectorMaskModes", map[string]string{"island": "include"})
		Cfg.Set("OutputFile", out)
	}, "vectormask")
	if v := loadLayer(t, out, "land").Valid(); v != 9 {
		t.Errorf("land: have %d valid cells, want 9", v)
	}
	if v := loadLayer(t, out, "island").Valid(); v != 3 {
		t.Errorf("island: have %d valid cells, want 3", v)
	}
}

func TestVectorMaskFraction(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	out := filepath.Join(in.dir, "fraction.nc")
	execute(t, func() {
		setTemplate()
		Cfg.Set("VectorMasks", map[string]string{"land": in.land})
		Cfg.Set("VectorMaskModes", map[string]string{"land": "fraction"})
		Cfg.Set("OutputFile", out)
	}, "vectormask")
	r := loadLayer(t, out, "land")
	if v := r.Get(0, 0); math.Abs(v-1) > 1e-9 {
		t.Errorf("covered cell: have %g, want 1", v)
	}
	if v := r.Get(0, 1); !math.IsNaN(v) {
		t.Errorf("uncovered cell: have %g, want NaN", v)
	}
}

func TestAlign(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	out := filepath.Join(in.dir, "aligned.nc")
	execute(t, func() {
		setTemplate()
		Cfg.Set("Template.Dx", 0.5)
		Cfg.Set("Template.Dy", 0.5)
		Cfg.Set("Layers", map[string]string{"depth": in.layers, "q1": in.layers})
		Cfg.Set("Resampling", map[string]string{"depth": "nearest"})
		Cfg.Set("OutputFile", out)
	}, "align")
	for name, want := range map[string]float64{"depth": -10, "q1": 0.6} {
		r := loadLayer(t, out, name)
		if r.Nx != 8 || r.Ny != 6 {
			t.Errorf("%s: have %d×%d, want 8×6", name, r.Nx, r.Ny)
		}
		if v := r.Get(5, 7); math.Abs(v-want) > 1e-12 {
			t.Errorf("%s: have %g, want %g", name, v, want)
		}
	}
}

func TestAlignBadResampling(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	Cfg = newConfig()
	setTemplate()
	Cfg.Set("Layers", map[string]string{"depth": in.layers})
	Cfg.Set("Resampling", map[string]string{"depth": "cubic"})
	Cfg.Set("OutputFile", filepath.Join(in.dir, "aligned.nc"))
	Root.SetOutput(ioutil.Discard)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"align"})
	if err := Root.Execute(); err == nil {
		t.Error("expected an error")
	}
}

func TestGeoid(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	out := filepath.Join(in.dir, "geoid.nc")
	execute(t, func() {
		Cfg.Set("Elevation", in.layers)
		Cfg.Set("ElevationLayer", "depth")
		Cfg.Set("GeoidTiles", in.tiles)
		Cfg.Set("OutputFile", out)
	}, "geoid")
	r := loadLayer(t, out, "elevation")
	if r.Valid() != 12 {
		t.Errorf("have %d valid cells, want 12", r.Valid())
	}
	for _, v := range r.Data.Elements {
		if math.Abs(v-20) > 1e-12 {
			t.Fatalf("have %g, want 20", v)
		}
	}
}

func TestGeoidMosaic(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	for _, policy := range []string{"first", "last", "mean"} {
		out := filepath.Join(in.dir, "geoid_"+policy+".nc")
		execute(t, func() {
			Cfg.Set("Elevation", in.layers)
			Cfg.Set("ElevationLayer", "depth")
			Cfg.Set("GeoidTiles", in.tiles)
			Cfg.Set("GeoidMosaic", policy)
			Cfg.Set("OutputFile", out)
		}, "geoid")
		r := loadLayer(t, out, "elevation")
		if r.Valid() != 12 {
			t.Errorf("%s: have %d valid cells, want 12", policy, r.Valid())
		}
	}
}

func TestComposite(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	layers, err := rastermask.LoadNCF(in.layers)
	if err != nil {
		t.Fatal(err)
	}
	land := rastermask.NewRaster(layers["depth"].Grid, 1)
	land.Set(math.NaN(), 1, 2)
	layers["land"] = land
	input := filepath.Join(in.dir, "input.nc")
	if err := rastermask.SaveNCF(input, layers); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(in.dir, "composite.nc")
	execute(t, func() {
		Cfg.Set("InputFile", input)
		Cfg.Set("CriteriaFile", in.criteria)
		Cfg.Set("OutputFile", out)
	}, "composite")
	eligible := loadLayer(t, out, "eligible")
	if eligible.Valid() != 11 || !math.IsNaN(eligible.Get(1, 2)) {
		t.Errorf("have %d eligible cells, want 11", eligible.Valid())
	}
	suit := loadLayer(t, out, "suitability")
	if v := suit.Get(0, 0); math.Abs(v-0.7) > 1e-12 {
		t.Errorf("suitability: have %g, want 0.7", v)
	}
}

func TestStats(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	out := execute(t, func() {
		Cfg.Set("InputFile", in.layers)
	}, "stats")
	for _, name := range []string{"depth: ", "q1: ", "q2: "} {
		if !strings.Contains(out, name) {
			t.Errorf("output is missing %q:\n%s", name, out)
		}
	}
	if strings.Index(out, "depth: ") > strings.Index(out, "q1: ") {
		t.Error("layers should be printed in order")
	}
}

func TestRender(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	g, err := rastermask.NewGrid("EPSG:4326", 0, 0, 1, 1, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	q1 := rastermask.NewRaster(g, math.NaN())
	for row := 0; row < 3; row++ {
		for col := 1; col < 4; col++ {
			q1.Set(float64(row*4+col)/12, row, col)
		}
	}
	input := filepath.Join(in.dir, "render.nc")
	if err := rastermask.SaveNCF(input, map[string]*rastermask.Raster{"q1": q1}); err != nil {
		t.Fatal(err)
	}
	for _, hist := range []bool{false, true} {
		out := filepath.Join(in.dir, fmt.Sprintf("render_%v.png", hist))
		execute(t, func() {
			Cfg.Set("InputFile", input)
			Cfg.Set("Layer", "q1")
			Cfg.Set("Histogram", hist)
			Cfg.Set("OutputFile", out)
		}, "render")
		b, err := ioutil.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(b, []byte("\x89PNG")) {
			t.Errorf("histogram=%v: output is not a PNG image", hist)
		}
	}
}

func TestOccurrences(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	srv := occurrenceServer(t)
	defer srv.Close()
	out := filepath.Join(in.dir, "occurrences.xlsx")
	execute(t, func() {
		Cfg.Set("Occurrence.URL", srv.URL)
		Cfg.Set("Occurrence.TraitFile", in.traits)
		Cfg.Set("Occurrence.CSVDir", in.dir)
		Cfg.Set("OutputFile", out)
	}, "occurrences")
	if _, err := os.Stat(out); err != nil {
		t.Error(err)
	}
	b, err := ioutil.ReadFile(filepath.Join(in.dir, "Gastropoda.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "rocky reef") {
		t.Errorf("traits were not joined:\n%s", b)
	}
	if _, err := os.Stat(filepath.Join(in.dir, "Actinopterygii.csv")); !os.IsNotExist(err) {
		t.Error("data deficient records should be removed")
	}
}

func TestRun(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	srv := occurrenceServer(t)
	defer srv.Close()
	out := filepath.Join(in.dir, "sites.nc")
	execute(t, func() {
		setTemplate()
		Cfg.Set("VectorMasks", map[string]string{"land": in.land})
		Cfg.Set("Layers", map[string]string{"depth": in.layers, "q1": in.layers, "q2": in.layers})
		Cfg.Set("Elevation", in.layers)
		Cfg.Set("ElevationLayer", "depth")
		Cfg.Set("ElevationName", "depth_navd")
		Cfg.Set("GeoidTiles", in.tiles)
		Cfg.Set("Calc", []string{"depth_m = 0 - depth", "depth_ft = depth_m * 3.28084"})
		Cfg.Set("Occurrence.URL", srv.URL)
		Cfg.Set("Occurrence.PresenceLayer", "presence")
		Cfg.Set("CriteriaFile", in.presenceCriteria)
		Cfg.Set("OutputFiles", []string{out})
	}, "run")

	layers, err := rastermask.LoadNCF(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"land", "presence", "depth", "q1", "q2", "depth_navd", "depth_m", "depth_ft", "eligible", "suitability"} {
		if _, ok := layers[name]; !ok {
			t.Errorf("missing layer %s", name)
		}
	}
	// The first column is land and the cell at row 1, column 2
	// holds an occurrence record.
	eligible := layers["eligible"]
	if eligible.Valid() != 8 {
		t.Errorf("have %d eligible cells, want 8", eligible.Valid())
	}
	if !math.IsNaN(eligible.Get(1, 2)) || !math.IsNaN(eligible.Get(2, 0)) {
		t.Error("ineligible cells are marked as eligible")
	}
	if v := layers["suitability"].Get(2, 3); math.Abs(v-0.7) > 1e-12 {
		t.Errorf("suitability: have %g, want 0.7", v)
	}
	if v := layers["depth_navd"].Get(0, 0); math.Abs(v-20) > 1e-12 {
		t.Errorf("corrected depth: have %g, want 20", v)
	}
	if v := layers["depth_ft"].Get(0, 0); math.Abs(v-32.8084) > 1e-9 {
		t.Errorf("depth_ft: have %g, want 32.8084", v)
	}
}

func TestRunConfigFile(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	out := filepath.Join(in.dir, "sites.nc")
	config := fmt.Sprintf(`
OutputFiles = ["%s"]
OutputLayers = ["eligible"]
CriteriaFile = "%s"
Calc = ["land = land + 0"]

[Template]
Proj = "EPSG:4326"
West = 0.0
East = 4.0
South = 0.0
North = 3.0
Dx = 1.0
Dy = 1.0

[VectorMasks]
land = "%s"

[Layers]
depth = "%s"
q1 = "%s"
q2 = "%s"
`, out, in.criteria, in.land, in.layers, in.layers, in.layers)
	configFile := filepath.Join(in.dir, "config.toml")
	if err := ioutil.WriteFile(configFile, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	execute(t, func() {
		Cfg.Set("config", configFile)
	}, "run")
	layers, err := rastermask.LoadNCF(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(layers) != 1 {
		t.Errorf("have %d layers, want 1", len(layers))
	}
	if v := layers["eligible"].Valid(); v != 9 {
		t.Errorf("have %d eligible cells, want 9", v)
	}
}

func TestRunErrors(t *testing.T) {
	in := writeTestInputs(t)
	defer os.RemoveAll(in.dir)
	for name, set := range map[string]func(){
		"no outputs": func() {
			setTemplate()
		},
		"bad calc": func() {
			setTemplate()
			Cfg.Set("Calc", []string{"depth"})
			Cfg.Set("OutputFiles", []string{filepath.Join(in.dir, "x.nc")})
		},
		"missing layer file": func() {
			setTemplate()
			Cfg.Set("Layers", map[string]string{"depth": filepath.Join(in.dir, "missing.nc")})
			Cfg.Set("OutputFiles", []string{filepath.Join(in.dir, "x.nc")})
		},
		"bad mask mode": func() {
			setTemplate()
			Cfg.Set("VectorMasks", map[string]string{"land": in.land})
			Cfg.Set("VectorMaskModes", map[string]string{"land": "sometimes"})
			Cfg.Set("OutputFiles", []string{filepath.Join(in.dir, "x.nc")})
		},
		"bad mosaic policy": func() {
			setTemplate()
			Cfg.Set("Elevation", in.layers)
			Cfg.Set("ElevationLayer", "depth")
			Cfg.Set("GeoidTiles", in.tiles)
			Cfg.Set("GeoidMosaic", "median")
			Cfg.Set("OutputFiles", []string{filepath.Join(in.dir, "x.nc")})
		},
		"missing output directory": func() {
			setTemplate()
			Cfg.Set("OutputFiles", []string{filepath.Join(in.dir, "nowhere", "x.nc")})
		},
	} {
		t.Run(name, func(t *testing.T) {
			Cfg = newConfig()
			set()
			Root.SetOutput(ioutil.Discard)
			defer Root.SetOutput(nil)
			Root.SetArgs([]string{"run"})
			if err := Root.Execute(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
