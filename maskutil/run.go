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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rastermask"
	"github.com/spatialmodel/rastermask/occurrence"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// inputLayers reads the layers in InputFile.
func (b *builder) inputLayers() (map[string]*rastermask.Raster, error) {
	path := b.cfg.GetString("InputFile")
	if path == "" {
		return nil, fmt.Errorf("maskutil: InputFile is not specified")
	}
	local, err := maybeDownload(b.ctx, os.ExpandEnv(path), b.c)
	if err != nil {
		return nil, err
	}
	return rastermask.LoadNCF(local)
}

// saveLayers writes layers to path, uploading them to blob storage if
// necessary.
func saveLayers(b *builder, path string, layers map[string]*rastermask.Raster) error {
	path, err := checkOutputFile(path)
	if err != nil {
		return err
	}
	u := new(uploader)
	local, err := u.localPath(path)
	if err != nil {
		return err
	}
	if err := rastermask.SaveLayers(local, layers); err != nil {
		return err
	}
	b.log.WithFields(logrus.Fields{"file": path, "layers": len(layers)}).Info("saved layers")
	return u.upload(b.ctx)
}

// savePlot writes p to path as a PNG image.
func savePlot(b *builder, path string, p *plot.Plot) error {
	path, err := checkOutputFile(path)
	if err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".png" {
		return fmt.Errorf("maskutil: plots can only be saved as .png files, not %s", ext)
	}
	u := new(uploader)
	local, err := u.localPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("maskutil: %v", err)
	}
	if err := rastermask.WritePNG(f, p, 6*vg.Inch, 4*vg.Inch); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("maskutil: %v", err)
	}
	return u.upload(b.ctx)
}

// occurrenceTables retrieves occurrence records, joins them to the trait
// table if there is one, and saves them.
func occurrenceTables(b *builder) error {
	out := os.ExpandEnv(b.cfg.GetString("OutputFile"))
	dir := os.ExpandEnv(b.cfg.GetString("Occurrence.CSVDir"))
	if out == "" && dir == "" {
		return fmt.Errorf("maskutil: at least one of OutputFile and Occurrence.CSVDir must be specified")
	}
	records, err := b.fetchOccurrences()
	if err != nil {
		return err
	}
	joined, err := joinTraits(b, records)
	if err != nil {
		return err
	}
	traits := occurrence.TraitColumns(joined)
	if out != "" {
		if ext := strings.ToLower(filepath.Ext(out)); ext != ".xlsx" {
			return fmt.Errorf("maskutil: occurrence tables can only be saved as .xlsx files, not %s", ext)
		}
		out, err = checkOutputFile(out)
		if err != nil {
			return err
		}
		u := new(uploader)
		local, err := u.localPath(out)
		if err != nil {
			return err
		}
		if err := occurrence.WriteXLSX(local, joined, traits); err != nil {
			return err
		}
		if err := u.upload(b.ctx); err != nil {
			return err
		}
		b.log.WithFields(logrus.Fields{"file": out, "records": len(joined)}).Info("saved occurrence workbook")
	}
	if dir != "" {
		files, err := occurrence.WriteSplitCSV(dir, joined, traits)
		if err != nil {
			return err
		}
		b.log.WithFields(logrus.Fields{"dir": dir, "files": len(files)}).Info("saved occurrence tables")
	}
	return nil
}

func joinTraits(b *builder, records []occurrence.Record) ([]occurrence.Joined, error) {
	path := b.cfg.GetString("Occurrence.TraitFile")
	if path == "" {
		joined := make([]occurrence.Joined, len(records))
		for i, r := range records {
			joined[i] = occurrence.Joined{Record: r}
		}
		return joined, nil
	}
	local, err := maybeDownload(b.ctx, os.ExpandEnv(path), b.c)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("maskutil: %v", err)
	}
	defer f.Close()
	t, err := occurrence.ReadTable(f)
	if err != nil {
		return nil, err
	}
	return occurrence.Join(records, t, b.cfg.GetString("Occurrence.TraitKey"))
}

// pipeline runs the full siting pipeline.
func pipeline(b *builder) error {
	steps := [][]rastermask.Step{b.template()}
	for _, f := range []func() ([]rastermask.Step, error){
		b.vectorMasks, b.presence, b.alignedLayers, b.datum, b.calc,
	} {
		s, err := f()
		if err != nil {
			return err
		}
		steps = append(steps, s)
	}
	if b.cfg.GetString("CriteriaFile") != "" {
		s, err := b.criteria()
		if err != nil {
			return err
		}
		steps = append(steps, s)
	}
	files := expandStringSlice(b.cfg.GetStringSlice("OutputFiles"))
	if len(files) == 0 {
		return fmt.Errorf("maskutil: OutputFiles is not specified")
	}
	u := new(uploader)
	out, err := b.outputs(u, files)
	if err != nil {
		return err
	}
	steps = append(steps, out)
	w, err := b.run(u, steps...)
	if err != nil {
		return err
	}
	if r, ok := w.Layers[b.cfg.GetString("EligibleLayer")]; ok {
		b.log.WithField("stats", r.Stats().String()).Info("eligible cells")
	}
	if r, ok := w.Layers[b.cfg.GetString("SuitabilityLayer")]; ok {
		b.log.WithField("stats", r.Stats().String()).Info("mean suitability")
	}
	return nil
}
