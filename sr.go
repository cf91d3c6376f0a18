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
	"strings"

	"github.com/ctessum/geom/proj"
)

// epsgDefs holds proj4 definitions for the EPSG codes that are commonly
// used for the inputs to siting maps.
var epsgDefs = map[string]string{
	"EPSG:4326":  "+proj=longlat +datum=WGS84 +no_defs",
	"EPSG:4269":  "+proj=longlat +datum=NAD83 +no_defs",
	"EPSG:3857":  "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs",
	"EPSG:3310":  "+proj=aea +lat_1=34 +lat_2=40.5 +lat_0=0 +lon_0=-120 +x_0=0 +y_0=-4000000 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs",
	"EPSG:26911": "+proj=utm +zone=11 +datum=NAD83 +units=m +no_defs",
	"EPSG:32610": "+proj=utm +zone=10 +datum=WGS84 +units=m +no_defs",
	"EPSG:32611": "+proj=utm +zone=11 +datum=WGS84 +units=m +no_defs",
}

// ParseSR parses a spatial reference in proj4 or WKT format, or as one
// of a small number of EPSG codes (e.g., "EPSG:4326"). It returns the
// parsed spatial reference and the proj4 or WKT definition it was parsed from.
func ParseSR(def string) (*proj.SR, string, error) {
	def = strings.TrimSpace(os.ExpandEnv(def))
	if def == "" {
		return nil, "", ErrNoSR
	}
	if d, ok := epsgDefs[strings.ToUpper(def)]; ok {
		def = d
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, "", fmt.Errorf("rastermask: parsing spatial reference %q: %v", def, err)
	}
	return sr, def, nil
}
