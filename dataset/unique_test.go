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

func TestExtractUniqueFeatures(t *testing.T) {
	sparse := &IndexMatrix{Rows: 4, Cols: 2, Data: []int32{
		0, 5,
		1, 6,
		0, 7, // conflicting row of key 0
		1, 6,
	}}
	dense := &DenseMatrix{Rows: 4, Cols: 2, Data: []float32{
		1, 0.1,
		2, 0.2,
		3, 0.3,
		2, 0.2,
	}}
	keys := []int32{0, 1, 0, 1}
	uniqueSparse, uniqueDense, err := ExtractUniqueFeatures(keys, 3, sparse, dense, []int{1}, []int{0, 1})
	assert.NoError(t, err)
	// first occurrence wins, missing keys keep zero rows
	assert.Equal(t, &IndexMatrix{Rows: 3, Cols: 1, Data: []int32{5, 6, 0}}, uniqueSparse)
	assert.Equal(t, &DenseMatrix{Rows: 3, Cols: 2, Data: []float32{1, 0.1, 2, 0.2, 0, 0}}, uniqueDense)

	uniqueSparse, uniqueDense, err = ExtractUniqueFeatures(keys, 3, sparse, nil, []int{1}, []int{0})
	assert.NoError(t, err)
	assert.NotNil(t, uniqueSparse)
	assert.Nil(t, uniqueDense)
	uniqueSparse, _, err = ExtractUniqueFeatures(keys, 3, sparse, dense, nil, []int{0})
	assert.NoError(t, err)
	assert.Nil(t, uniqueSparse)

	_, _, err = ExtractUniqueFeatures([]int32{0, 1, 3, 1}, 3, sparse, dense, []int{1}, nil)
	assert.Error(t, err)
	_, _, err = ExtractUniqueFeatures([]int32{0, 1}, 3, sparse, dense, []int{1}, nil)
	assert.Error(t, err)
}
