// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorse-io/featurize/base"
	"github.com/gorse-io/featurize/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"modernc.org/strutil"
)

const maxRecordSize = 16 * 1024 * 1024

// ReadCSV reads a table from a CSV stream. The first record names the columns. Blank
// lines are skipped.
func ReadCSV(r io.Reader, sep string) (*dataset.Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	var (
		names   []string
		columns [][]string
		// categorical cells repeat a lot
		pool = strutil.NewPool()
	)
	err := base.ReadLines(sc, sep, func(i int, fields []string) (bool, error) {
		if i == 0 {
			for _, name := range fields {
				if err := base.ValidateColumnName(name, sep); err != nil {
					return false, errors.Trace(err)
				}
			}
			names = lo.Map(fields, func(name string, _ int) string {
				return strings.TrimSpace(name)
			})
			columns = make([][]string, len(names))
			return true, nil
		}
		if len(fields) == 1 && fields[0] == "" {
			return true, nil
		}
		if len(fields) != len(names) {
			return false, errors.NotValidf("%d fields for %d columns", len(fields), len(names))
		}
		for j, field := range fields {
			columns[j] = append(columns[j], pool.Align(field))
		}
		return true, nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if names == nil {
		return nil, errors.New("csv without header")
	}
	return dataset.NewTableFromColumns(names, columns)
}

// LoadCSV reads a table from a CSV file and reports progress on stderr.
func LoadCSV(path, sep string) (*dataset.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		return nil, errors.Trace(err)
	}
	pbReader := progressbar.NewReader(file, progressbar.DefaultBytes(
		stat.Size(),
		"Loading "+filepath.Base(path),
	))
	defer pbReader.Close()
	table, err := ReadCSV(&pbReader, sep)
	return table, errors.Annotatef(err, "load %s", path)
}

// WriteCSV writes a table with a header row.
func WriteCSV(w io.Writer, table *dataset.Table, sep string) error {
	bw := bufio.NewWriter(w)
	names := table.Columns()
	if _, err := bw.WriteString(strings.Join(names, sep) + "\n"); err != nil {
		return errors.Trace(err)
	}
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		fields := lo.Map(names, func(name string, _ int) string {
			return base.Escape(row[name])
		})
		if _, err := bw.WriteString(strings.Join(fields, sep) + "\n"); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(bw.Flush())
}
