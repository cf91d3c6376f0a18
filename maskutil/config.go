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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/rastermask"
	"github.com/spf13/cast"
)

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument. Environment variables in keys and values
// are expanded.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	var m map[string]string
	switch i := cfg.Get(varName).(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		m = i
	case map[string]interface{}:
		var err error
		if m, err = cast.ToStringMapStringE(i); err != nil {
			return nil, fmt.Errorf("maskutil: %s: %v", varName, err)
		}
	case string:
		m = make(map[string]string)
		if strings.TrimSpace(i) == "" {
			return m, nil
		}
		if err := json.Unmarshal([]byte(i), &m); err != nil {
			return nil, fmt.Errorf("maskutil: %s: %v", varName, err)
		}
	default:
		return nil, fmt.Errorf("maskutil: invalid type for %s: %#v", varName, i)
	}
	o := make(map[string]string, len(m))
	for k, v := range m {
		o[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return o, nil
}

// sortedKeys returns the keys of m in order, so that layers are
// processed deterministically.
func sortedKeys(m map[string]string) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`maskutil: you need to specify an output file configuration variable (for example: OutputFile="output.nc")`)
	}
	f = os.ExpandEnv(f)
	if IsBlob(f) {
		return f, nil
	}
	if _, err := os.Stat(filepath.Dir(f)); err != nil {
		return f, fmt.Errorf("maskutil: the output file directory doesn't exist: %v", err)
	}
	return f, nil
}

// templateConfig reads the template grid configuration.
func templateConfig(cfg *viper.Viper) rastermask.TemplateConfig {
	return rastermask.TemplateConfig{
		Proj:  os.ExpandEnv(cfg.GetString("Template.Proj")),
		West:  cfg.GetFloat64("Template.West"),
		East:  cfg.GetFloat64("Template.East"),
		South: cfg.GetFloat64("Template.South"),
		North: cfg.GetFloat64("Template.North"),
		Dx:    cfg.GetFloat64("Template.Dx"),
		Dy:    cfg.GetFloat64("Template.Dy"),
		Fill:  cfg.GetFloat64("Template.Fill"),
	}
}

// loadRaster downloads if necessary and reads a raster layer. NetCDF
// files (".nc" or ".ncf") may hold several layers; see pickLayer for
// how one is chosen. Esri ASCII grids
// (".asc") are interpreted in the projection proj.
func loadRaster(ctx context.Context, path, layer, proj string, c chan string) (*rastermask.Raster, error) {
	local, err := maybeDownload(ctx, os.ExpandEnv(path), c)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(local)) {
	case ".nc", ".ncf":
		layers, err := rastermask.LoadNCF(local)
		if err != nil {
			return nil, err
		}
		return pickLayer(layers, layer, local)
	case ".asc":
		f, err := os.Open(local)
		if err != nil {
			return nil, fmt.Errorf("maskutil: %v", err)
		}
		defer f.Close()
		return rastermask.ReadASCIIGrid(f, proj)
	default:
		return nil, fmt.Errorf("maskutil: unsupported raster format for %s", path)
	}
}

// pickLayer returns the layer called name, or the only layer if there
// is just one.
func pickLayer(layers map[string]*rastermask.Raster, name, path string) (*rastermask.Raster, error) {
	if r, ok := layers[name]; ok {
		return r, nil
	}
	if len(layers) == 1 {
		for _, r := range layers {
			return r, nil
		}
	}
	return nil, fmt.Errorf("maskutil: %s holds %d layers and none is named %q", path, len(layers), name)
}

// loadVector downloads if necessary and reads a shapefile or GeoJSON
// file. GeoJSON coordinates are interpreted in the projection proj.
func loadVector(ctx context.Context, path, proj string, c chan string) (*rastermask.VectorLayer, error) {
	local, err := maybeDownload(ctx, os.ExpandEnv(path), c)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(local)) {
	case ".shp":
		return rastermask.ReadShapefile(local)
	case ".json", ".geojson":
		f, err := os.Open(local)
		if err != nil {
			return nil, fmt.Errorf("maskutil: %v", err)
		}
		defer f.Close()
		return rastermask.ReadGeoJSON(f, proj)
	default:
		return nil, fmt.Errorf("maskutil: unsupported vector format for %s", path)
	}
}

// loadCriteria reads a criteria file.
func loadCriteria(ctx context.Context, path string, c chan string) (*rastermask.Criteria, error) {
	if path == "" {
		return nil, fmt.Errorf("maskutil: CriteriaFile is not specified")
	}
	local, err := maybeDownload(ctx, os.ExpandEnv(path), c)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("maskutil: %v", err)
	}
	defer f.Close()
	return rastermask.ReadCriteria(f)
}

// vectorSteps returns a workspace step for each named vector layer. The
// mode of each layer is read from VectorMaskModes: "exclude" (the default)
// and "include" create masks, while "center", "touches" and "fraction"
// rasterize the layer with the corresponding RasterizeMode.
func vectorSteps(layers map[string]*rastermask.VectorLayer, cfg *viper.Viper) ([]rastermask.Step, error) {
	modes, err := GetStringMapString("VectorMaskModes", cfg)
	if err != nil {
		return nil, err
	}
	var o []rastermask.Step
	for _, n := range sortedLayerNames(layers) {
		switch mode := strings.ToLower(modes[n]); mode {
		case "", "exclude":
			o = append(o, rastermask.AddVectorMask(n, layers[n], rastermask.MaskExclude))
		case "include":
			o = append(o, rastermask.AddVectorMask(n, layers[n], rastermask.MaskInclude))
		default:
			m, err := rastermask.ParseRasterizeMode(mode)
			if err != nil {
				return nil, fmt.Errorf("maskutil: vector layer %s: %v", n, err)
			}
			o = append(o, rastermask.AddRasterized(n, layers[n], rastermask.RasterizeOptions{Mode: m}))
		}
	}
	return o, nil
}

func sortedLayerNames(layers map[string]*rastermask.VectorLayer) []string {
	o := make([]string, 0, len(layers))
	for k := range layers {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// resampling reads the resampling method for each named layer. Layers
// without a method use bilinear interpolation.
func resampling(names []string, cfg *viper.Viper) (map[string]rastermask.Resampling, error) {
	methods, err := GetStringMapString("Resampling", cfg)
	if err != nil {
		return nil, err
	}
	o := make(map[string]rastermask.Resampling, len(names))
	for _, n := range names {
		m := methods[n]
		if m == "" {
			m = "bilinear"
		}
		r, err := rastermask.ParseResampling(m)
		if err != nil {
			return nil, fmt.Errorf("maskutil: layer %s: %v", n, err)
		}
		o[n] = r
	}
	return o, nil
}
