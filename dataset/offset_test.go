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
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("Pure")
	assert.NoError(t, err)
	assert.Equal(t, Pure, v)
	v, err = ParseVariant(" feat ")
	assert.NoError(t, err)
	assert.Equal(t, Feat, v)
	assert.Equal(t, "feat", v.String())
	_, err = ParseVariant("deep")
	assert.Error(t, err)
}

func TestComputeOffsets(t *testing.T) {
	registry, err := BuildRegistry(newTrainTable(t), []string{"user", "item", "gender", "genre", "ctx"})
	require.NoError(t, err)

	pure, err := ComputeOffsets(registry, []string{"user", "item"}, false)
	assert.NoError(t, err)
	assert.Equal(t, []int32{0, 3, 6}, pure.Offsets)
	assert.Equal(t, 6, pure.Total())
	_, ok := pure.UnknownIndex(0)
	assert.False(t, ok)

	feat, err := ComputeOffsets(registry, []string{"user", "item", "gender", "genre", "ctx"}, true)
	assert.NoError(t, err)
	assert.Equal(t, []int32{0, 4, 8, 11, 15, 18}, feat.Offsets)
	assert.Equal(t, 5, feat.Len())
	assert.Equal(t, 18, feat.Total())
	begin, end := feat.Range(3)
	assert.Equal(t, int32(11), begin)
	assert.Equal(t, int32(15), end)
	unknown, ok := feat.UnknownIndex(3)
	assert.True(t, ok)
	assert.Equal(t, int32(14), unknown)
	i, ok := feat.IndexOf("genre")
	assert.True(t, ok)
	assert.Equal(t, 3, i)
	_, ok = feat.IndexOf("city")
	assert.False(t, ok)

	// offsets are non-decreasing and each column owns its vocabulary plus one slot
	for i, name := range feat.Columns {
		assert.LessOrEqual(t, feat.Offsets[i], feat.Offsets[i+1])
		assert.Equal(t, int32(registry.Size(name)+1), feat.Offsets[i+1]-feat.Offsets[i])
	}

	_, err = ComputeOffsets(registry, []string{"user", "city"}, true)
	assert.True(t, IsSchemaError(err))
}

func TestLocate(t *testing.T) {
	registry, err := BuildRegistry(newTrainTable(t), []string{"user", "item", "gender", "genre", "ctx"})
	require.NoError(t, err)
	offsets, err := ComputeOffsets(registry, []string{"user", "item", "gender", "genre", "ctx"}, true)
	require.NoError(t, err)
	// every global index maps back to exactly one column and local rank
	for global := int32(0); global < int32(offsets.Total()); global++ {
		column, local, ok := offsets.Locate(global)
		assert.True(t, ok)
		assert.Equal(t, global, offsets.Base(column)+local)
		assert.Less(t, local, offsets.Offsets[column+1]-offsets.Offsets[column])
	}
	column, local, ok := offsets.Locate(9)
	assert.True(t, ok)
	assert.Equal(t, 2, column)
	assert.Equal(t, int32(1), local)
	_, _, ok = offsets.Locate(18)
	assert.False(t, ok)
	_, _, ok = offsets.Locate(-1)
	assert.False(t, ok)
}

func TestOffsetsOfUsers(t *testing.T) {
	table, err := NewTableFromColumns([]string{"user", "item", "label"},
		[][]string{{"1", "2", "3"}, {"1", "1", "1"}, {"1", "1", "1"}})
	require.NoError(t, err)
	registry, err := BuildRegistry(table, []string{"user"})
	require.NoError(t, err)

	offsets, err := ComputeOffsets(registry, []string{"user"}, false)
	assert.NoError(t, err)
	assert.Equal(t, []int32{0, 3}, offsets.Offsets)
	encoded, err := EncodeMatrix(table, []string{"user"}, registry, offsets, ModeTrain)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), encoded.Sparse.At(1, 0))

	// an unseen user takes the reserved slot
	reserved, err := ComputeOffsets(registry, []string{"user"}, true)
	assert.NoError(t, err)
	assert.Equal(t, []int32{0, 4}, reserved.Offsets)
	test, err := NewTableFromColumns([]string{"user"}, [][]string{{"5"}})
	require.NoError(t, err)
	encoded, err = EncodeMatrix(test, []string{"user"}, registry, reserved, ModeTest)
	assert.NoError(t, err)
	assert.Equal(t, []int32{3}, encoded.UserIndices)
	assert.Equal(t, int32(3), encoded.Sparse.At(0, 0))
	assert.Equal(t, 1, encoded.CountUnknown(0))
}
