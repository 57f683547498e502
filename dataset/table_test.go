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
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTrainTable returns interactions of 3 users and 3 items:
//
//	user gender age | item genre price | ctx label
func newTrainTable(t *testing.T) *Table {
	table, err := NewTableFromColumns(
		[]string{"user", "item", "label", "gender", "age", "genre", "price", "ctx"},
		[][]string{
			{"1", "2", "3", "1", "2"},
			{"10", "20", "10", "30", "20"},
			{"1", "0", "1", "1", "0"},
			{"m", "f", "m", "m", "f"},
			{"20", "30", "40", "20", "30"},
			{"x", "y", "x", "z", "y"},
			{"1.5", "2.5", "1.5", "3.5", "2.5"},
			{"p", "q", "p", "q", "p"},
		})
	require.NoError(t, err)
	return table
}

// newTestTable returns a known pair and a pair of a new user and a new item.
func newTestTable(t *testing.T) *Table {
	table, err := NewTableFromColumns(
		[]string{"user", "item", "label", "gender", "age", "genre", "price", "ctx"},
		[][]string{
			{"2", "5"},
			{"30", "40"},
			{"1", "0"},
			{"f", "u"},
			{"30", "50"},
			{"z", "w"},
			{"3.5", "9"},
			{"p", "r"},
		})
	require.NoError(t, err)
	return table
}

func TestTable(t *testing.T) {
	table := newTrainTable(t)
	assert.Equal(t, 5, table.Len())
	assert.Equal(t, []string{"user", "item", "label", "gender", "age", "genre", "price", "ctx"}, table.Columns())
	assert.True(t, table.HasColumn("genre"))
	assert.False(t, table.HasColumn("city"))
	values, ok := table.Column("item")
	assert.True(t, ok)
	assert.Equal(t, []string{"10", "20", "10", "30", "20"}, values)
	assert.Equal(t, map[string]string{
		"user": "2", "item": "20", "label": "0", "gender": "f",
		"age": "30", "genre": "y", "price": "2.5", "ctx": "q",
	}, table.Row(1))

	labels, err := table.Floats("label")
	assert.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 1, 1, 0}, labels)
	_, err = table.Floats("genre")
	assert.Error(t, err)
	_, err = table.Floats("city")
	assert.True(t, IsSchemaError(err))

	selected := table.Select([]int{3, 0})
	assert.Equal(t, 2, selected.Len())
	values, _ = selected.Column("user")
	assert.Equal(t, []string{"1", "1"}, values)
	values, _ = selected.Column("item")
	assert.Equal(t, []string{"30", "10"}, values)
}

func TestTableAddColumn(t *testing.T) {
	table := NewTable()
	assert.NoError(t, table.AddColumn("user", []string{"1", "2"}))
	assert.True(t, errors.Is(table.AddColumn("user", []string{"1", "2"}), errors.AlreadyExists))
	assert.True(t, errors.Is(table.AddColumn("item", []string{"1"}), errors.NotValid))
	_, err := NewTableFromColumns([]string{"user"}, nil)
	assert.Error(t, err)
}

func TestCheckRequired(t *testing.T) {
	table, err := NewTableFromColumns([]string{"user", "genre"}, [][]string{{"1"}, {"x"}})
	require.NoError(t, err)
	err = table.checkRequired("genre", "city", "item")
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"item", "label", "city"}, schemaErr.Missing)
	assert.NoError(t, newTrainTable(t).checkRequired("gender", "ctx"))
}
