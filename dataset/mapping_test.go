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

	"github.com/stretchr/testify/assert"
)

func TestBuildColumnMapping(t *testing.T) {
	m := BuildColumnMapping(
		[]string{"user", "item", "gender", "genre", "ctx"},
		[]string{"age", "price"},
		[]string{"gender", "age"},
		[]string{"genre", "price"})
	assert.Equal(t, []ColumnPosition{{"user", 0}, {"gender", 2}}, m.UserSparseColumns)
	assert.Equal(t, []ColumnPosition{{"item", 1}, {"genre", 3}}, m.ItemSparseColumns)
	assert.Equal(t, []ColumnPosition{{"age", 0}}, m.UserDenseColumns)
	assert.Equal(t, []ColumnPosition{{"price", 1}}, m.ItemDenseColumns)
	assert.Equal(t, []ColumnPosition{{"ctx", 4}}, m.OtherSparseColumns())
	assert.Empty(t, m.OtherDenseColumns())
	assert.Equal(t, []int{0, 2}, Positions(m.UserSparseColumns))

	position, ok := m.SparsePosition("genre")
	assert.True(t, ok)
	assert.Equal(t, 3, position)
	position, ok = m.DensePosition("price")
	assert.True(t, ok)
	assert.Equal(t, 1, position)
	_, ok = m.DensePosition("genre")
	assert.False(t, ok)
}
