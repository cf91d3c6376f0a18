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
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rastermask"
	"github.com/spatialmodel/rastermask/occurrence"
)

// builder creates workspace steps from a configuration.
type builder struct {
	ctx    context.Context
	cfg    *viper.Viper
	c      chan string
	log    logrus.FieldLogger
	loader *rasterLoader
}

func newBuilder(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger, c chan string) *builder {
	return &builder{ctx: ctx, cfg: cfg, c: c, log: log, loader: newRasterLoader(c)}
}

func (b *builder) template() []rastermask.Step {
	return []rastermask.Step{rastermask.SetTemplate(templateConfig(b.cfg))}
}

// vectorMasks reads the files listed in VectorMasks.
func (b *builder) vectorMasks() ([]rastermask.Step, error) {
	paths, err := GetStringMapString("VectorMasks", b.cfg)
	if err != nil {
		return nil, err
	}
	proj := os.ExpandEnv(b.cfg.GetString("VectorProj"))
	layers := make(map[string]*rastermask.VectorLayer, len(paths))
	for _, name := range sortedKeys(paths) {
		v, err := loadVector(b.ctx, paths[name], proj, b.c)
		if err != nil {
			return nil, fmt.Errorf("maskutil: vector mask %s: %v", name, err)
		}
		b.log.WithFields(logrus.Fields{"layer": name, "features": len(v.Features)}).Info("read vector layer")
		layers[name] = v
	}
	return vectorSteps(layers, b.cfg)
}

// alignedLayers loads the rasters listed in Layers.
func (b *builder) alignedLayers() ([]rastermask.Step, error) {
	paths, err := GetStringMapString("Layers", b.cfg)
	if err != nil {
		return nil, err
	}
	names := sortedKeys(paths)
	methods, err := resampling(names, b.cfg)
	if err != nil {
		return nil, err
	}
	proj := os.ExpandEnv(b.cfg.GetString("RasterProj"))
	reqs := make([]rasterRequest, len(names))
	for i, n := range names {
		reqs[i] = rasterRequest{Path: paths[n], Layer: n, Proj: proj}
	}
	rasters, err := b.loader.load(b.ctx, reqs...)
	if err != nil {
		return nil, err
	}
	steps := make([]rastermask.Step, len(names))
	for i, n := range names {
		steps[i] = rastermask.AddAligned(n, rasters[i], methods[n])
	}
	return steps, nil
}

// elevation loads the elevation raster.
func (b *builder) elevation() (*rastermask.Raster, error) {
	rs, err := b.loader.load(b.ctx, rasterRequest{
		Path:  b.cfg.GetString("Elevation"),
		Layer: b.cfg.GetString("ElevationLayer"),
		Proj:  os.ExpandEnv(b.cfg.GetString("ElevationProj")),
	})
	if err != nil {
		return nil, err
	}
	return rs[0], nil
}

// geoidSet holds the vertical datum correction tiles and how to combine
// them.
type geoidSet struct {
	tiles  []*rastermask.Raster
	method rastermask.Resampling
	policy rastermask.MosaicPolicy
}

func (g geoidSet) correct(elev *rastermask.Raster) (*rastermask.Raster, error) {
	return rastermask.CorrectDatumPolicy(elev, g.method, g.policy, g.tiles...)
}

// geoidTiles loads the vertical datum correction tiles.
func (b *builder) geoidTiles() (geoidSet, error) {
	var g geoidSet
	var err error
	g.method, err = rastermask.ParseResampling(b.cfg.GetString("GeoidResampling"))
	if err != nil {
		return g, err
	}
	g.policy, err = rastermask.ParseMosaicPolicy(b.cfg.GetString("GeoidMosaic"))
	if err != nil {
		return g, err
	}
	paths := expandStringSlice(b.cfg.GetStringSlice("GeoidTiles"))
	if len(paths) == 0 {
		return g, fmt.Errorf("maskutil: GeoidTiles is not specified")
	}
	g.tiles, err = b.loader.loadTiles(b.ctx, paths, os.ExpandEnv(b.cfg.GetString("GeoidProj")))
	return g, err
}

// datum returns a step adding the datum-corrected elevation, if an
// elevation file is configured.
func (b *builder) datum() ([]rastermask.Step, error) {
	if b.cfg.GetString("Elevation") == "" {
		return nil, nil
	}
	elev, err := b.elevation()
	if err != nil {
		return nil, err
	}
	g, err := b.geoidTiles()
	if err != nil {
		return nil, err
	}
	name := b.cfg.GetString("ElevationName")
	return []rastermask.Step{rastermask.AddDatumCorrected(name, elev, g.method, g.policy, g.tiles...)}, nil
}

// calc parses the Calc expressions, each in the form "name = expression".
// They are evaluated in order, so later expressions may use earlier results.
func (b *builder) calc() ([]rastermask.Step, error) {
	var steps []rastermask.Step
	for _, c := range b.cfg.GetStringSlice("Calc") {
		i := strings.Index(c, "=")
		if i < 0 || strings.TrimSpace(c[:i]) == "" {
			return nil, fmt.Errorf("maskutil: invalid Calc %q; should be in the form name = expression", c)
		}
		steps = append(steps, rastermask.AddCalc(strings.TrimSpace(c[:i]), strings.TrimSpace(c[i+1:])))
	}
	return steps, nil
}

// fetchOccurrences retrieves and cleans occurrence records.
func (b *builder) fetchOccurrences() ([]occurrence.Record, error) {
	u := os.ExpandEnv(b.cfg.GetString("Occurrence.URL"))
	if u == "" {
		return nil, fmt.Errorf("maskutil: Occurrence.URL is not specified")
	}
	query, err := GetStringMapString("Occurrence.Query", b.cfg)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	for k, v := range query {
		q.Set(k, v)
	}
	client := occurrence.NewClient(u)
	client.MaxPages = b.cfg.GetInt("Occurrence.MaxPages")
	client.Log = b.log
	records, err := client.Fetch(b.ctx, q)
	if err != nil {
		return nil, err
	}
	cleaned := occurrence.Unique(occurrence.Clean(records), occurrence.ByID)
	b.log.WithFields(logrus.Fields{
		"retrieved": len(records),
		"kept":      len(cleaned),
	}).Info("retrieved occurrence records")
	return cleaned, nil
}

// presence returns a step adding a layer marking cells with occurrence
// records, if Occurrence.PresenceLayer is set.
func (b *builder) presence() ([]rastermask.Step, error) {
	name := b.cfg.GetString("Occurrence.PresenceLayer")
	if name == "" {
		return nil, nil
	}
	records, err := b.fetchOccurrences()
	if err != nil {
		return nil, err
	}
	v, err := occurrence.Layer(records)
	if err != nil {
		return nil, err
	}
	return []rastermask.Step{rastermask.AddVectorMask(name, v, rastermask.MaskInclude)}, nil
}

// criteria returns a step that evaluates the criteria file.
func (b *builder) criteria() ([]rastermask.Step, error) {
	c, err := loadCriteria(b.ctx, b.cfg.GetString("CriteriaFile"), b.c)
	if err != nil {
		return nil, err
	}
	return []rastermask.Step{rastermask.ApplyCriteria(c,
		b.cfg.GetString("EligibleLayer"), b.cfg.GetString("SuitabilityLayer"))}, nil
}

// outputs returns steps that save OutputLayers (or all layers) to each
// of the given files. Files in blob storage are written locally and
// recorded in u for upload.
func (b *builder) outputs(u *uploader, files []string) ([]rastermask.Step, error) {
	names := b.cfg.GetStringSlice("OutputLayers")
	var steps []rastermask.Step
	for _, f := range files {
		f, err := checkOutputFile(f)
		if err != nil {
			return nil, err
		}
		local, err := u.localPath(f)
		if err != nil {
			return nil, err
		}
		steps = append(steps, rastermask.Save(local, names...))
	}
	return steps, nil
}

// run runs the steps in a new workspace and uploads any outputs
// destined for blob storage.
func (b *builder) run(u *uploader, steps ...[]rastermask.Step) (*rastermask.Workspace, error) {
	w := &rastermask.Workspace{Log: b.log}
	for _, s := range steps {
		w.Steps = append(w.Steps, s...)
	}
	if err := w.Run(); err != nil {
		return nil, err
	}
	if err := u.upload(b.ctx); err != nil {
		return nil, err
	}
	return w, nil
}
