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
	"strconv"
	"strings"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/gorse-io/featurize/base/log"
	"github.com/gorse-io/featurize/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Filter keeps rows matching a boolean expression over their cells. Numeric cells
// are float64 in the expression, timestamps are time.Time and the others are
// strings, e.g. "timestamp >= date('2021-01-01')".
type Filter struct {
	program *vm.Program
}

// NewFilter compiles an expression over the given columns, e.g. "label > 0 && genre != 'x'".
func NewFilter(code string, columns []string) (*Filter, error) {
	env := make(map[string]any, len(columns))
	for _, name := range columns {
		env[name] = nil
	}
	program, err := expr.Compile(code, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, errors.Annotatef(err, "compile filter %q", code)
	}
	return &Filter{program: program}, nil
}

// Match evaluates the expression on a row.
func (f *Filter) Match(row map[string]string) (bool, error) {
	env := make(map[string]any, len(row))
	for name, cell := range row {
		env[name] = parseCell(cell)
	}
	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, errors.Trace(err)
	}
	return result.(bool), nil
}

// Apply returns the rows of a table matching the expression.
func (f *Filter) Apply(table *dataset.Table) (*dataset.Table, error) {
	var rows []int
	for i := 0; i < table.Len(); i++ {
		ok, err := f.Match(table.Row(i))
		if err != nil {
			return nil, errors.Annotatef(err, "row %d", i)
		}
		if ok {
			rows = append(rows, i)
		}
	}
	log.Logger().Debug("filter rows",
		zap.Int("n_rows", table.Len()),
		zap.Int("n_matched", len(rows)))
	return table.Select(rows), nil
}

func parseCell(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	// timestamps start with a digit, words never parse as dates
	if trimmed != "" && unicode.IsDigit(rune(trimmed[0])) {
		if t, err := dateparse.ParseStrict(trimmed); err == nil {
			return t
		}
	}
	return cell
}
