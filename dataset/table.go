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

package dataset

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Reserved column names every training table must carry.
const (
	UserColumn  = "user"
	ItemColumn  = "item"
	LabelColumn = "label"
)

var requiredColumns = []string{UserColumn, ItemColumn, LabelColumn}

// Table is an in-memory record set with named columns of raw cells. Every column
// holds exactly Len() cells.
type Table struct {
	names   []string
	columns map[string][]string
	rows    int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{columns: make(map[string][]string)}
}

// NewTableFromColumns creates a table from columns added in the given order.
func NewTableFromColumns(names []string, columns [][]string) (*Table, error) {
	if len(names) != len(columns) {
		return nil, errors.Errorf("got %d column names but %d columns", len(names), len(columns))
	}
	table := NewTable()
	for i, name := range names {
		if err := table.AddColumn(name, columns[i]); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return table, nil
}

// AddColumn appends a column. The first column fixes the number of rows.
func (t *Table) AddColumn(name string, values []string) error {
	if _, exist := t.columns[name]; exist {
		return errors.AlreadyExistsf("column %q", name)
	}
	if len(t.names) > 0 && len(values) != t.rows {
		return errors.NotValidf("column %q has %d rows but table has %d", name, len(values), t.rows)
	}
	t.names = append(t.names, name)
	t.columns[name] = values
	t.rows = len(values)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Columns returns column names in insertion order.
func (t *Table) Columns() []string {
	return t.names
}

func (t *Table) HasColumn(name string) bool {
	_, exist := t.columns[name]
	return exist
}

// Column returns the raw cells of a column.
func (t *Table) Column(name string) ([]string, bool) {
	values, exist := t.columns[name]
	return values, exist
}

// Floats parses a numeric column.
func (t *Table) Floats(name string) ([]float32, error) {
	values, exist := t.columns[name]
	if !exist {
		return nil, errors.Trace(&SchemaError{Missing: []string{name}})
	}
	floats := make([]float32, len(values))
	for i, value := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
		if err != nil {
			return nil, errors.Annotatef(err, "column %q row %d", name, i)
		}
		floats[i] = float32(f)
	}
	return floats, nil
}

// Row returns the cells of one row keyed by column name.
func (t *Table) Row(i int) map[string]string {
	row := make(map[string]string, len(t.names))
	for _, name := range t.names {
		row[name] = t.columns[name][i]
	}
	return row
}

// Select returns a new table holding the given rows in the given order.
func (t *Table) Select(rows []int) *Table {
	selected := NewTable()
	for _, name := range t.names {
		column := t.columns[name]
		// columns of equal length never fail
		_ = selected.AddColumn(name, lo.Map(rows, func(row int, _ int) string {
			return column[row]
		}))
	}
	return selected
}

// missingColumns returns the names absent from the table, keeping their order.
func (t *Table) missingColumns(names ...string) []string {
	return lo.Filter(names, func(name string, _ int) bool {
		return !t.HasColumn(name)
	})
}

// checkRequired fails with SchemaError unless user, item, label and all extra
// columns are present.
func (t *Table) checkRequired(extra ...string) error {
	missing := t.missingColumns(append(append([]string{}, requiredColumns...), extra...)...)
	if len(missing) > 0 {
		return &SchemaError{Missing: lo.Uniq(missing)}
	}
	return nil
}
