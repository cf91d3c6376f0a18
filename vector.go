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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
)

// Feature is a geometry with string attributes.
type Feature struct {
	geom.Geom
	Attributes map[string]string
}

// VectorLayer is a set of features that share a spatial reference.
type VectorLayer struct {
	SR       *proj.SR
	Features []*Feature
}

// ReadShapefile reads the shapefile at path, along with its attribute
// table and the spatial reference in the accompanying .prj file.
func ReadShapefile(path string) (*VectorLayer, error) {
	fname := strings.TrimSuffix(path, ".shp")
	f, err := shp.NewDecoder(fname + ".shp")
	if err != nil {
		return nil, fmt.Errorf("rastermask: opening shapefile %s: %v", fname, err)
	}
	defer f.Close()
	sr, err := f.SR()
	if err != nil {
		return nil, fmt.Errorf("rastermask: reading projection for shapefile %s: %v", fname, err)
	}
	var names []string
	for _, field := range f.Fields() {
		names = append(names, field.String())
	}
	v := &VectorLayer{SR: sr}
	for {
		g, fields, more := f.DecodeRowFields(names...)
		if !more {
			break
		}
		if g == nil {
			continue
		}
		attrs := make(map[string]string, len(fields))
		for k, val := range fields {
			attrs[k] = strings.TrimSpace(val)
		}
		v.Features = append(v.Features, &Feature{Geom: g, Attributes: attrs})
	}
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("rastermask: reading shapefile %s: %v", fname, err)
	}
	return v, nil
}

// ReadGeoJSON reads a GeoJSON FeatureCollection from r. Coordinates are
// assumed to be in the spatial reference specified by srDef, which is
// EPSG:4326 when empty.
func ReadGeoJSON(r io.Reader, srDef string) (*VectorLayer, error) {
	if srDef == "" {
		srDef = "EPSG:4326"
	}
	sr, _, err := ParseSR(srDef)
	if err != nil {
		return nil, err
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry   *geojson.Geometry      `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("rastermask: decoding GeoJSON: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("rastermask: GeoJSON type must be FeatureCollection; got %q", fc.Type)
	}
	v := &VectorLayer{SR: sr}
	for i, jf := range fc.Features {
		if jf.Geometry == nil {
			continue
		}
		g, err := geojson.FromGeoJSON(jf.Geometry)
		if err != nil {
			return nil, fmt.Errorf("rastermask: GeoJSON feature %d: %v", i, err)
		}
		attrs := make(map[string]string, len(jf.Properties))
		for k, p := range jf.Properties {
			if p != nil {
				attrs[k] = fmt.Sprint(p)
			}
		}
		v.Features = append(v.Features, &Feature{Geom: g, Attributes: attrs})
	}
	return v, nil
}

// Transform returns a copy of v reprojected to sr.
func (v *VectorLayer) Transform(sr *proj.SR) (*VectorLayer, error) {
	if v.SR == nil || sr == nil {
		return nil, ErrNoSR
	}
	ct, err := v.SR.NewTransform(sr)
	if err != nil {
		return nil, fmt.Errorf("rastermask: creating vector transform: %v", err)
	}
	o := &VectorLayer{SR: sr, Features: make([]*Feature, len(v.Features))}
	for i, f := range v.Features {
		g, err := f.Geom.Transform(ct)
		if err != nil {
			return nil, fmt.Errorf("rastermask: reprojecting feature %d: %v", i, err)
		}
		o.Features[i] = &Feature{Geom: g, Attributes: f.Attributes}
	}
	return o, nil
}

// Filter returns a layer holding the features of v for which keep
// returns true.
func (v *VectorLayer) Filter(keep func(*Feature) bool) *VectorLayer {
	o := &VectorLayer{SR: v.SR}
	for _, f := range v.Features {
		if keep(f) {
			o.Features = append(o.Features, f)
		}
	}
	return o
}

// Crop returns the features of v whose bounds overlap b.
func (v *VectorLayer) Crop(b *geom.Bounds) *VectorLayer {
	return v.Filter(func(f *Feature) bool {
		return f.Bounds().Overlaps(b)
	})
}

// Bounds returns the combined extent of the features in v.
func (v *VectorLayer) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for _, f := range v.Features {
		b.Extend(f.Bounds())
	}
	return b
}
