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

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("test")
	assert.NoError(t, err)
	assert.Equal(t, ModeTest, mode)
	_, err = ParseMode("predict")
	assert.True(t, IsInvalidModeError(err))
}

func TestEncodeColumn(t *testing.T) {
	vocab := NewVocabulary([]string{"1", "2", "3"})

	indices, unknown, err := EncodeColumn([]string{"3", "1", "2", "1"}, vocab, ModeTrain)
	assert.NoError(t, err)
	assert.Equal(t, []int32{2, 0, 1, 0}, indices)
	assert.False(t, unknown.Any())

	_, _, err = EncodeColumn([]string{"1", "9"}, vocab, ModeTrain)
	var unknownErr *UnknownValueError
	assert.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "9", unknownErr.Value)

	// unseen values take rank vocab.Len() and are flagged
	indices, unknown, err = EncodeColumn([]string{"1", "9", "2", "9", "x"}, vocab, ModeTest)
	assert.NoError(t, err)
	assert.Equal(t, []int32{0, 3, 1, 3, 3}, indices)
	assert.Equal(t, uint(3), unknown.Count())
	assert.True(t, unknown.Test(1))
	assert.True(t, unknown.Test(3))
	assert.True(t, unknown.Test(4))

	_, _, err = EncodeColumn([]string{"1"}, vocab, Mode("predict"))
	assert.True(t, IsInvalidModeError(err))
}

func TestEncodeMatrix(t *testing.T) {
	columns := []string{"user", "item", "gender", "genre", "ctx"}
	registry, err := BuildRegistry(newTrainTable(t), columns)
	require.NoError(t, err)
	offsets, err := ComputeOffsets(registry, columns, true)
	require.NoError(t, err)

	encoded, err := EncodeMatrix(newTrainTable(t), columns, registry, offsets, ModeTrain)
	assert.NoError(t, err)
	assert.Equal(t, []int32{0, 4, 9, 11, 15}, encoded.Sparse.Row(0))
	assert.Equal(t, []int32{1, 5, 8, 12, 16}, encoded.Sparse.Row(1))
	assert.Equal(t, []int32{0, 1, 2, 0, 1}, encoded.UserIndices)
	assert.Equal(t, []int32{0, 1, 0, 2, 1}, encoded.ItemIndices)
	// global-index invariant: every cell lies in the range of its column
	for j := range columns {
		begin, end := offsets.Range(j)
		for _, global := range encoded.Sparse.Column(j) {
			assert.GreaterOrEqual(t, global, begin)
			assert.Less(t, global, end)
		}
	}

	encoded, err = EncodeMatrix(newTestTable(t), columns, registry, offsets, ModeTest)
	assert.NoError(t, err)
	assert.Equal(t, []int32{1, 6, 8, 13, 15}, encoded.Sparse.Row(0))
	assert.Equal(t, []int32{3, 7, 10, 14, 17}, encoded.Sparse.Row(1))
	assert.Equal(t, []int32{1, 3}, encoded.UserIndices)
	assert.Equal(t, []int32{2, 3}, encoded.ItemIndices)
	for j := range columns {
		assert.Equal(t, 1, encoded.CountUnknown(j))
	}

	// unseen values in train mode
	_, err = EncodeMatrix(newTestTable(t), columns, registry, offsets, ModeTrain)
	var unknownErr *UnknownValueError
	assert.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "user", unknownErr.Column)
	assert.Equal(t, "5", unknownErr.Value)

	// unseen values without reserved slots
	pure, err := ComputeOffsets(registry, columns, false)
	require.NoError(t, err)
	_, err = EncodeMatrix(newTestTable(t), columns, registry, pure, ModeTest)
	assert.True(t, IsUnknownValueError(err))

	_, err = EncodeMatrix(newTestTable(t), columns, registry, offsets, Mode("eval"))
	assert.True(t, IsInvalidModeError(err))
	_, err = EncodeMatrix(newTestTable(t), columns[:2], registry, offsets, ModeTest)
	assert.Error(t, err)
	table, err := NewTableFromColumns([]string{"user", "item"}, [][]string{{"1"}, {"10"}})
	require.NoError(t, err)
	_, err = EncodeMatrix(table, columns, registry, offsets, ModeTest)
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"gender", "genre", "ctx"}, schemaErr.Missing)
}

func TestEncodeUnseenColumn(t *testing.T) {
	columns := []string{"user", "item", "genre"}
	registry, err := BuildRegistry(newTrainTable(t), columns)
	require.NoError(t, err)
	offsets, err := ComputeOffsets(registry, columns, true)
	require.NoError(t, err)
	// every item feature of the test set is unseen
	table, err := NewTableFromColumns(columns,
		[][]string{{"1", "2", "3"}, {"10", "20", "30"}, {"u", "v", "w"}})
	require.NoError(t, err)
	encoded, err := EncodeMatrix(table, columns, registry, offsets, ModeTest)
	assert.NoError(t, err)
	unknown, _ := offsets.UnknownIndex(2)
	assert.Equal(t, []int32{unknown, unknown, unknown}, encoded.Sparse.Column(2))
	assert.Equal(t, 3, encoded.CountUnknown(2))
}
