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
	"math"
	"strings"
)

// DataDeficient is the category label of taxa without enough
// information for an assessment.
const DataDeficient = "DD"

// Clean returns the records that have a category label other than
// DataDeficient and finite coordinates. Species names and category labels
// are trimmed of surrounding space.
func Clean(records []Record) []Record {
	var o []Record
	for _, r := range records {
		r.Species = strings.TrimSpace(r.Species)
		r.Category = strings.TrimSpace(r.Category)
		r.Group = strings.TrimSpace(r.Group)
		if r.Category == "" || strings.EqualFold(r.Category, DataDeficient) {
			continue
		}
		if math.IsNaN(r.Lon) || math.IsNaN(r.Lat) || math.IsInf(r.Lon, 0) || math.IsInf(r.Lat, 0) {
			continue
		}
		o = append(o, r)
	}
	return o
}

// Unique returns records with duplicate keys removed, keeping the
// first record for each key.
func Unique(records []Record, key func(Record) string) []Record {
	seen := make(map[string]struct{})
	var o []Record
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		o = append(o, r)
	}
	return o
}

// ByID is a key function for Unique that identifies records by ID.
func ByID(r Record) string { return r.ID }

// joinKey normalizes species names for matching against trait tables.
func joinKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
