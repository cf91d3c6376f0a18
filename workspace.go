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
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot/vg"
)

// Workspace holds the layers of a siting analysis, all of which share the
// grid of the template raster.
type Workspace struct {
	Template *Raster
	Layers   map[string]*Raster

	// Steps are run in order by Run.
	Steps []Step

	// Log receives progress information. If nil, the logrus standard
	// logger is used.
	Log logrus.FieldLogger
}

// Step is a function that adds to or modifies a workspace.
type Step func(w *Workspace) error

// Run runs the workspace steps in order, stopping at the first error.
func (w *Workspace) Run() error {
	if w.Layers == nil {
		w.Layers = make(map[string]*Raster)
	}
	for i, s := range w.Steps {
		if err := s(w); err != nil {
			return fmt.Errorf("rastermask: step %d: %w", i, err)
		}
	}
	return nil
}

func (w *Workspace) log() logrus.FieldLogger {
	if w.Log == nil {
		return logrus.StandardLogger()
	}
	return w.Log
}

// Layer returns the named layer.
func (w *Workspace) Layer(name string) (*Raster, error) {
	r, ok := w.Layers[name]
	if !ok {
		return nil, fmt.Errorf("rastermask: no layer named %q", name)
	}
	return r, nil
}

// add checks that r is aligned with the template and stores it as name.
func (w *Workspace) add(name string, r *Raster) error {
	if w.Template == nil {
		return fmt.Errorf("rastermask: the template must be set before adding layer %q", name)
	}
	if err := CheckAligned(w.Template, r); err != nil {
		return fmt.Errorf("rastermask: layer %q: %w", name, err)
	}
	if w.Layers == nil {
		w.Layers = make(map[string]*Raster)
	}
	w.Layers[name] = r
	w.log().WithFields(logrus.Fields{
		"layer": name,
		"valid": r.Valid(),
		"cells": r.Len(),
	}).Info("added layer")
	return nil
}

// SetTemplate creates the template raster that all other layers are
// aligned to.
func SetTemplate(c TemplateConfig) Step {
	return func(w *Workspace) error {
		t, err := NewTemplate(c)
		if err != nil {
			return err
		}
		w.Template = t
		w.log().WithFields(logrus.Fields{
			"nx":   t.Nx,
			"ny":   t.Ny,
			"proj": t.Proj,
		}).Info("created template")
		return nil
	}
}

// AddVectorMask rasterizes v onto the template as an inclusion or
// exclusion mask.
func AddVectorMask(name string, v *VectorLayer, mode MaskMode) Step {
	return func(w *Workspace) error {
		if w.Template == nil {
			return fmt.Errorf("rastermask: the template must be set before adding layer %q", name)
		}
		m, err := VectorMask(v, w.Template.Grid, mode)
		if err != nil {
			return fmt.Errorf("rastermask: masking %q: %w", name, err)
		}
		return w.add(name, m)
	}
}

// AddRasterized rasterizes v onto the template with the given options.
func AddRasterized(name string, v *VectorLayer, opts RasterizeOptions) Step {
	return func(w *Workspace) error {
		if w.Template == nil {
			return fmt.Errorf("rastermask: the template must be set before adding layer %q", name)
		}
		r, err := Rasterize(v, w.Template.Grid, opts)
		if err != nil {
			return fmt.Errorf("rastermask: rasterizing %q: %w", name, err)
		}
		return w.add(name, r)
	}
}

// AddAligned resamples src onto the template.
func AddAligned(name string, src *Raster, method Resampling) Step {
	return func(w *Workspace) error {
		if w.Template == nil {
			return fmt.Errorf("rastermask: the template must be set before adding layer %q", name)
		}
		r, err := Align(src, w.Template.Grid, method)
		if err != nil {
			return fmt.Errorf("rastermask: aligning %q: %w", name, err)
		}
		return w.add(name, r)
	}
}

// AddDatumCorrected adds the correction surface assembled from tiles to
// elev and resamples the result onto the template. Overlapping tiles are
// resolved with policy.
func AddDatumCorrected(name string, elev *Raster, method Resampling, policy MosaicPolicy, tiles ...*Raster) Step {
	return func(w *Workspace) error {
		if w.Template == nil {
			return fmt.Errorf("rastermask: the template must be set before adding layer %q", name)
		}
		c, err := CorrectDatumPolicy(elev, method, policy, tiles...)
		if err != nil {
			return fmt.Errorf("rastermask: correcting datum for %q: %w", name, err)
		}
		r, err := Align(c, w.Template.Grid, method)
		if err != nil {
			return fmt.Errorf("rastermask: aligning %q: %w", name, err)
		}
		return w.add(name, r)
	}
}

// AddCalc evaluates a raster calculator expression of existing layers.
func AddCalc(name, expr string) Step {
	return func(w *Workspace) error {
		r, err := Calc(expr, w.Layers)
		if err != nil {
			return err
		}
		return w.add(name, r)
	}
}

// ApplyCriteria evaluates c against the workspace layers and stores the
// eligibility mask as eligibleName and, if c has Mean layers, the mean
// over eligible cells as meanName.
func ApplyCriteria(c *Criteria, eligibleName, meanName string) Step {
	return func(w *Workspace) error {
		eligible, mean, err := c.Evaluate(w.Layers)
		if err != nil {
			return err
		}
		if err := w.add(eligibleName, eligible); err != nil {
			return err
		}
		if mean != nil {
			return w.add(meanName, mean)
		}
		return nil
	}
}

// Save writes the named layers, or all layers if none are named, to path.
// The format is chosen by the file extension: ".nc" for NetCDF, ".shp" for
// a shapefile, ".asc" for an Esri ASCII grid (one layer only), or ".png"
// for a map image (one layer only).
func Save(path string, names ...string) Step {
	return func(w *Workspace) error {
		use := names
		if len(use) == 0 {
			for n := range w.Layers {
				use = append(use, n)
			}
		}
		layers := make(map[string]*Raster, len(use))
		for _, n := range use {
			r, err := w.Layer(n)
			if err != nil {
				return err
			}
			layers[n] = r
		}
		if err := SaveLayers(path, layers); err != nil {
			return err
		}
		w.log().WithFields(logrus.Fields{
			"file":   path,
			"layers": len(layers),
		}).Info("saved layers")
		return nil
	}
}

// SaveLayers writes layers to path in the format implied by its extension.
// See Save for the supported formats.
func SaveLayers(path string, layers map[string]*Raster) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".nc", ".ncf":
		return SaveNCF(path, layers)
	case ".shp":
		return WriteShapefile(path, layers)
	case ".asc", ".png":
		if len(layers) != 1 {
			return fmt.Errorf("rastermask: %s files hold one layer but %d were given", ext, len(layers))
		}
		var name string
		var r *Raster
		for n, l := range layers {
			name, r = n, l
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("rastermask: creating output file: %v", err)
		}
		if ext == ".asc" {
			err = WriteASCIIGrid(f, r)
		} else {
			err = WritePNG(f, MapPlot(r, name), 6*vg.Inch, 6*vg.Inch)
		}
		if err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("rastermask: unsupported output format %q", ext)
	}
}
