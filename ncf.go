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
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// ncfDims are the dimensions of each raster variable in a NetCDF file.
var ncfDims = []string{"y", "x"}

// WriteNCF writes layers, which must share a grid, to w in NetCDF format.
// Each layer is stored as a double-precision variable with dimensions
// [y, x], and the grid definition is stored in global attributes.
func WriteNCF(w *os.File, layers map[string]*Raster) error {
	if len(layers) == 0 {
		return fmt.Errorf("rastermask: no layers to write")
	}
	// Sort the names so they write in the same order every time.
	names := make([]string, 0, len(layers))
	for n := range layers {
		names = append(names, n)
	}
	sort.Strings(names)
	rs := make([]*Raster, len(names))
	for i, n := range names {
		rs[i] = layers[n]
	}
	if err := CheckAligned(rs...); err != nil {
		return err
	}
	g := rs[0].Grid

	h := cdf.NewHeader(ncfDims, []int{g.Ny, g.Nx})
	h.AddAttribute("", "comment", "rastermask raster layers")
	h.AddAttribute("", "x0", []float64{g.X0})
	h.AddAttribute("", "y0", []float64{g.Y0})
	h.AddAttribute("", "dx", []float64{g.Dx})
	h.AddAttribute("", "dy", []float64{g.Dy})
	h.AddAttribute("", "nx", []int32{int32(g.Nx)})
	h.AddAttribute("", "ny", []int32{int32(g.Ny)})
	h.AddAttribute("", "proj4", g.Proj)
	h.AddAttribute("", "data_version", Version)
	for _, name := range names {
		h.AddVariable(name, ncfDims, []float64{0})
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return fmt.Errorf("rastermask: creating netcdf file: %v", err)
	}
	for i, name := range names {
		if err := writeNCF(f, name, rs[i].Data); err != nil {
			return fmt.Errorf("rastermask: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeNCF(f *cdf.File, name string, data *sparse.DenseArray) error {
	end := f.Header.Lengths(name)
	n := 1
	for _, v := range end {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	_, err := w.Write(data.Elements)
	return err
}

// ReadNCF reads the raster layers in a NetCDF file created by WriteNCF.
func ReadNCF(rw cdf.ReaderWriterAt) (map[string]*Raster, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("rastermask: opening netcdf file: %v", err)
	}
	getFloat := func(name string) (float64, error) {
		v, ok := f.Header.GetAttribute("", name).([]float64)
		if !ok || len(v) != 1 {
			return 0, fmt.Errorf("rastermask: netcdf file is missing attribute %s", name)
		}
		return v[0], nil
	}
	getInt := func(name string) (int, error) {
		v, ok := f.Header.GetAttribute("", name).([]int32)
		if !ok || len(v) != 1 {
			return 0, fmt.Errorf("rastermask: netcdf file is missing attribute %s", name)
		}
		return int(v[0]), nil
	}
	var x0, y0, dx, dy float64
	for _, a := range []struct {
		name string
		v    *float64
	}{{"x0", &x0}, {"y0", &y0}, {"dx", &dx}, {"dy", &dy}} {
		if *a.v, err = getFloat(a.name); err != nil {
			return nil, err
		}
	}
	nx, err := getInt("nx")
	if err != nil {
		return nil, err
	}
	ny, err := getInt("ny")
	if err != nil {
		return nil, err
	}
	p, ok := f.Header.GetAttribute("", "proj4").(string)
	if !ok {
		return nil, fmt.Errorf("rastermask: netcdf file is missing attribute proj4")
	}
	g, err := NewGrid(p, x0, y0, dx, dy, nx, ny)
	if err != nil {
		return nil, err
	}

	o := make(map[string]*Raster)
	for _, v := range f.Header.Variables() {
		dims := f.Header.Lengths(v)
		if len(dims) != 2 || dims[0] != ny || dims[1] != nx {
			return nil, fmt.Errorf("rastermask: netcdf variable %s has dimensions %v; expected [%d %d]",
				v, dims, ny, nx)
		}
		r := f.Reader(v, nil, nil)
		data := make([]float64, nx*ny)
		if _, err := r.Read(data); err != nil {
			return nil, fmt.Errorf("rastermask: reading netcdf variable %s: %v", v, err)
		}
		o[v], err = newRasterData(g, data)
		if err != nil {
			return nil, err
		}
	}
	return o, nil
}

// SaveNCF writes layers to a new NetCDF file at path.
func SaveNCF(path string, layers map[string]*Raster) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("rastermask: creating output file: %v", err)
	}
	if err := WriteNCF(w, layers); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// LoadNCF reads the raster layers in the NetCDF file at path.
func LoadNCF(path string) (map[string]*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rastermask: opening input file: %v", err)
	}
	defer f.Close()
	return ReadNCF(f)
}
