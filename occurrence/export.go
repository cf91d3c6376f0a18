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
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"
)

var recordColumns = []string{"id", "species", "category", "group", "longitude", "latitude"}

func header(traitCols []string) []string {
	return append(append([]string{}, recordColumns...), traitCols...)
}

func (r Joined) fields(traitCols []string) []string {
	o := []string{
		r.ID, r.Species, r.Category, r.Group,
		strconv.FormatFloat(r.Lon, 'g', -1, 64),
		strconv.FormatFloat(r.Lat, 'g', -1, 64),
	}
	for _, c := range traitCols {
		o = append(o, r.Traits[c])
	}
	return o
}

// WriteCSV writes rows to w as CSV with a header row, followed by the
// given trait columns.
func WriteCSV(w io.Writer, rows []Joined, traitCols []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(traitCols)); err != nil {
		return fmt.Errorf("occurrence: writing CSV: %v", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.fields(traitCols)); err != nil {
			return fmt.Errorf("occurrence: writing CSV: %v", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("occurrence: writing CSV: %v", err)
	}
	return nil
}

// WriteSplitCSV writes one CSV file per group into dir and returns the
// paths of the files that were written.
func WriteSplitCSV(dir string, rows []Joined, traitCols []string) ([]string, error) {
	split := Split(rows)
	var paths []string
	for _, g := range groups(split) {
		path := filepath.Join(dir, tableName(g, 0)+".csv")
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("occurrence: %v", err)
		}
		if err := WriteCSV(f, split[g], traitCols); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("occurrence: %v", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteXLSX writes rows to a Microsoft Excel workbook at path with one
// sheet per group.
func WriteXLSX(path string, rows []Joined, traitCols []string) error {
	f := xlsx.NewFile()
	split := Split(rows)
	for _, g := range groups(split) {
		// Sheet names are limited to 31 characters.
		sheet, err := f.AddSheet(tableName(g, 31))
		if err != nil {
			return fmt.Errorf("occurrence: adding sheet for group %q: %v", g, err)
		}
		hr := sheet.AddRow()
		for _, h := range header(traitCols) {
			hr.AddCell().SetString(h)
		}
		for _, r := range split[g] {
			row := sheet.AddRow()
			for _, v := range []string{r.ID, r.Species, r.Category, r.Group} {
				row.AddCell().SetString(v)
			}
			row.AddCell().SetFloat(r.Lon)
			row.AddCell().SetFloat(r.Lat)
			for _, c := range traitCols {
				row.AddCell().SetString(r.Traits[c])
			}
		}
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("occurrence: saving %s: %v", path, err)
	}
	return nil
}

// tableName converts a group label into a name that is safe for use as
// a file or sheet name, truncated to max characters if max > 0.
func tableName(group string, max int) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '[', ']', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(group))
	if name == "" {
		name = "ungrouped"
	}
	if max > 0 && len(name) > max {
		name = name[:max]
	}
	return name
}
