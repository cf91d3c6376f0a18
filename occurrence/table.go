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
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Table is a table of string values with a header row, such as a
// table of species traits.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable reads a CSV table whose first row is the header.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("occurrence: reading table: %v", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("occurrence: reading table: missing header")
	}
	return &Table{Header: recs[0], Rows: recs[1:]}, nil
}

// Column returns the index of the named column, or -1 if there is none.
// Names are matched without regard to case.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Dedupe returns a copy of t in which each value of the key column
// occurs only once, keeping the first row for each value. Rows with
// an empty key are dropped.
func (t *Table) Dedupe(key string) (*Table, error) {
	col := t.Column(key)
	if col < 0 {
		return nil, fmt.Errorf("occurrence: table has no column %q", key)
	}
	o := &Table{Header: t.Header}
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		k := joinKey(row[col])
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		o.Rows = append(o.Rows, row)
	}
	return o, nil
}

// Joined is an occurrence record with the traits of its species.
type Joined struct {
	Record
	Traits map[string]string
}

// Join attaches to each record the row of traits whose key column
// matches the record's species. The trait table is de-duplicated on the
// key column first so that every record matches at most one row. Records
// without a matching row are kept with empty traits.
func Join(records []Record, traits *Table, key string) ([]Joined, error) {
	t, err := traits.Dedupe(key)
	if err != nil {
		return nil, err
	}
	col := t.Column(key)
	index := make(map[string][]string, len(t.Rows))
	for _, row := range t.Rows {
		index[joinKey(row[col])] = row
	}
	o := make([]Joined, len(records))
	for i, r := range records {
		o[i] = Joined{Record: r, Traits: make(map[string]string)}
		row, ok := index[joinKey(r.Species)]
		if !ok {
			continue
		}
		for j, h := range t.Header {
			if j == col || j >= len(row) {
				continue
			}
			o[i].Traits[strings.TrimSpace(h)] = row[j]
		}
	}
	return o, nil
}

// TraitColumns returns the sorted names of all traits in rows.
func TraitColumns(rows []Joined) []string {
	names := make(map[string]struct{})
	for _, r := range rows {
		for k := range r.Traits {
			names[k] = struct{}{}
		}
	}
	o := make([]string, 0, len(names))
	for k := range names {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// Split groups rows by their Group label.
func Split(rows []Joined) map[string][]Joined {
	o := make(map[string][]Joined)
	for _, r := range rows {
		o[r.Group] = append(o[r.Group], r)
	}
	return o
}

// groups returns the sorted group labels of a split table.
func groups(split map[string][]Joined) []string {
	o := make([]string, 0, len(split))
	for g := range split {
		o = append(o, g)
	}
	sort.Strings(o)
	return o
}
