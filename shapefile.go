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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
)

// WriteShapefile writes the cells of layers, which must share a grid, to a
// polygon shapefile at path with row and column fields and one field per
// layer. Cells without data in every layer are skipped. The grid projection
// is written to the accompanying .prj file.
// Field names longer than 10 characters are truncated.
func WriteShapefile(path string, layers map[string]*Raster) error {
	if len(layers) == 0 {
		return fmt.Errorf("rastermask: no layers to write")
	}
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

	fileBase := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(fileBase + ext)
	}
	fields := make([]goshp.Field, len(names)+2)
	fields[0] = goshp.NumberField("row", 10)
	fields[1] = goshp.NumberField("col", 10)
	for i, n := range names {
		if len(n) > 10 {
			n = n[:10]
		}
		fields[i+2] = goshp.FloatField(n, 14, 8)
	}
	e, err := shp.NewEncoderFromFields(fileBase+".shp", goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("rastermask: creating output shapefile: %v", err)
	}
	vals := make([]interface{}, len(fields))
	for row := 0; row < g.Ny; row++ {
		for col := 0; col < g.Nx; col++ {
			allNaN := true
			vals[0], vals[1] = row, col
			for i, r := range rs {
				v := r.Get(row, col)
				if !math.IsNaN(v) {
					allNaN = false
				}
				vals[i+2] = v
			}
			if allNaN {
				continue
			}
			if err := e.EncodeFields(g.Cell(row, col).Polygon, vals...); err != nil {
				e.Close()
				return fmt.Errorf("rastermask: writing output shapefile: %v", err)
			}
		}
	}
	e.Close()

	f, err := os.Create(fileBase + ".prj")
	if err != nil {
		return fmt.Errorf("rastermask: creating output prj file: %v", err)
	}
	fmt.Fprint(f, g.Proj)
	return f.Close()
}
