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
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// gridXYZ adapts a raster to the plotter.GridXYZ interface.
type gridXYZ struct {
	r        *Raster
	min, max float64
}

func newGridXYZ(r *Raster) gridXYZ {
	g := gridXYZ{r: r, min: math.Inf(1), max: math.Inf(-1)}
	for _, v := range r.Data.Elements {
		if math.IsNaN(v) {
			continue
		}
		g.min = math.Min(g.min, v)
		g.max = math.Max(g.max, v)
	}
	if math.IsInf(g.min, 1) { // no data
		g.min, g.max = 0, 1
	}
	if g.max == g.min {
		g.max = g.min + 1
	}
	return g
}

func (g gridXYZ) Dims() (c, r int)   { return g.r.Nx, g.r.Ny }
func (g gridXYZ) Z(c, r int) float64 { return g.r.Get(r, c) }
func (g gridXYZ) X(c int) float64    { return g.r.X0 + (float64(c)+0.5)*g.r.Dx }
func (g gridXYZ) Y(r int) float64    { return g.r.Y0 + (float64(r)+0.5)*g.r.Dy }
func (g gridXYZ) Min() float64       { return g.min }
func (g gridXYZ) Max() float64       { return g.max }

// MapPlot returns a plot of r as a heat map. Cells without data are
// transparent.
func MapPlot(r *Raster, title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	h := plotter.NewHeatMap(newGridXYZ(r), palette.Heat(12, 1))
	h.NaN = color.Transparent
	p.Add(h)
	p.X.Min, p.X.Max = r.X0, r.X0+float64(r.Nx)*r.Dx
	p.Y.Min, p.Y.Max = r.Y0, r.Y0+float64(r.Ny)*r.Dy
	return p
}

// HistogramPlot returns a histogram of the values in r with the given number
// of bins. Cells without data are ignored.
func HistogramPlot(r *Raster, title string, bins int) (*plot.Plot, error) {
	var vals plotter.Values
	for _, v := range r.Data.Elements {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("rastermask: raster has no data to plot")
	}
	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return nil, fmt.Errorf("rastermask: creating histogram: %v", err)
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "cells"
	p.Add(h)
	return p, nil
}

// WritePNG renders p as a PNG image with the given dimensions to w.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("rastermask: rendering plot: %v", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
