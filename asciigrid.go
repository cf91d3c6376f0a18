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
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// asciiNoData is the no-data value written to Esri ASCII grids.
const asciiNoData = -9999.

// WriteASCIIGrid writes r to w in Esri ASCII grid format. Rows are written
// from north to south. Cells without data are written as -9999.
func WriteASCIIGrid(w io.Writer, r *Raster) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\nnrows %d\nxllcorner %s\nyllcorner %s\n",
		r.Nx, r.Ny, formatFloat(r.X0), formatFloat(r.Y0))
	if r.Dx == r.Dy {
		fmt.Fprintf(bw, "cellsize %s\n", formatFloat(r.Dx))
	} else {
		fmt.Fprintf(bw, "dx %s\ndy %s\n", formatFloat(r.Dx), formatFloat(r.Dy))
	}
	fmt.Fprintf(bw, "NODATA_value %s\n", formatFloat(asciiNoData))
	for row := r.Ny - 1; row >= 0; row-- {
		for col := 0; col < r.Nx; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			v := r.Get(row, col)
			if math.IsNaN(v) {
				v = asciiNoData
			}
			bw.WriteString(formatFloat(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// ReadASCIIGrid reads an Esri ASCII grid from rd. Esri ASCII grids do not
// carry projection information, so it must be provided as proj.
func ReadASCIIGrid(rd io.Reader, proj string) (*Raster, error) {
	s := bufio.NewScanner(rd)
	s.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	s.Split(bufio.ScanWords)

	header := map[string]float64{"nodata_value": math.NaN()}
	var first string
	for s.Scan() {
		key := strings.ToLower(s.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			first = key // start of the data
			break
		}
		if !s.Scan() {
			return nil, fmt.Errorf("rastermask: ASCII grid header %s has no value", key)
		}
		v, err := strconv.ParseFloat(s.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("rastermask: ASCII grid header %s: %v", key, err)
		}
		header[key] = v
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("rastermask: reading ASCII grid: %v", err)
	}
	nx, okx := header["ncols"]
	ny, oky := header["nrows"]
	if !okx || !oky {
		return nil, fmt.Errorf("rastermask: ASCII grid is missing ncols or nrows")
	}
	dx, dy := header["cellsize"], header["cellsize"]
	if v, ok := header["dx"]; ok {
		dx = v
	}
	if v, ok := header["dy"]; ok {
		dy = v
	}
	x0, y0 := header["xllcorner"], header["yllcorner"]
	if v, ok := header["xllcenter"]; ok {
		x0 = v - dx/2
	}
	if v, ok := header["yllcenter"]; ok {
		y0 = v - dy/2
	}
	g, err := NewGrid(proj, x0, y0, dx, dy, int(nx), int(ny))
	if err != nil {
		return nil, err
	}
	o := NewRaster(g, math.NaN())
	nodata := header["nodata_value"]
	i := 0
	parse := func(tok string) error {
		if i >= g.Len() {
			return fmt.Errorf("rastermask: ASCII grid has more than %d values", g.Len())
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("rastermask: ASCII grid value %d: %v", i, err)
		}
		if v == nodata {
			v = math.NaN()
		}
		row := g.Ny - 1 - i/g.Nx
		o.Set(v, row, i%g.Nx)
		i++
		return nil
	}
	if first != "" {
		if err := parse(first); err != nil {
			return nil, err
		}
	}
	for s.Scan() {
		if err := parse(s.Text()); err != nil {
			return nil, err
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("rastermask: reading ASCII grid: %v", err)
	}
	if i != g.Len() {
		return nil, fmt.Errorf("rastermask: ASCII grid has %d values; expected %d", i, g.Len())
	}
	return o, nil
}
