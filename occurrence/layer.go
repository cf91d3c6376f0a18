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

package occurrence

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/rastermask"
)

// Layer converts records into a layer of points in geographic
// coordinates, with the record fields as attributes. Records with
// missing coordinates are skipped.
func Layer(records []Record) (*rastermask.VectorLayer, error) {
	sr, _, err := rastermask.ParseSR("EPSG:4326")
	if err != nil {
		return nil, fmt.Errorf("occurrence: %v", err)
	}
	v := &rastermask.VectorLayer{SR: sr}
	for _, r := range records {
		if math.IsNaN(r.Lon) || math.IsNaN(r.Lat) {
			continue
		}
		v.Features = append(v.Features, &rastermask.Feature{
			Geom: geom.Point{X: r.Lon, Y: r.Lat},
			Attributes: map[string]string{
				"id":       r.ID,
				"species":  r.Species,
				"category": r.Category,
				"group":    r.Group,
			},
		})
	}
	return v, nil
}
