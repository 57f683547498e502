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
	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
)

// ExtractUniqueFeatures keeps one canonical row per key: row k of the result holds the
// sparse cells at sparsePositions and the dense cells at densePositions of the first
// training row whose key is k. Keys must lie in [0, count). Keys that never occur keep
// zero rows. A nil input matrix or empty position list yields a nil output matrix.
func ExtractUniqueFeatures(
	keys []int32,
	count int,
	sparse *IndexMatrix,
	dense *DenseMatrix,
	sparsePositions []int,
	densePositions []int,
) (*IndexMatrix, *DenseMatrix, error) {
	if sparse != nil && sparse.Rows != len(keys) {
		return nil, nil, errors.NotValidf("%d keys for sparse matrix of %d rows", len(keys), sparse.Rows)
	}
	if dense != nil && dense.Rows != len(keys) {
		return nil, nil, errors.NotValidf("%d keys for dense matrix of %d rows", len(keys), dense.Rows)
	}
	var (
		uniqueSparse *IndexMatrix
		uniqueDense  *DenseMatrix
	)
	if sparse != nil && len(sparsePositions) > 0 {
		uniqueSparse = NewIndexMatrix(count, len(sparsePositions))
	}
	if dense != nil && len(densePositions) > 0 {
		uniqueDense = NewDenseMatrix(count, len(densePositions))
	}
	seen := bitset.New(uint(count))
	for i, key := range keys {
		if key < 0 || int(key) >= count {
			return nil, nil, errors.NotValidf("key %d out of [0, %d)", key, count)
		}
		// first occurrence wins
		if seen.Test(uint(key)) {
			continue
		}
		seen.Set(uint(key))
		if uniqueSparse != nil {
			for j, position := range sparsePositions {
				uniqueSparse.Set(int(key), j, sparse.At(i, position))
			}
		}
		if uniqueDense != nil {
			for j, position := range densePositions {
				uniqueDense.Set(int(key), j, dense.At(i, position))
			}
		}
	}
	return uniqueSparse, uniqueDense, nil
}

// ExtractUniqueItemFeatures derives the canonical feature row of every item.
func ExtractUniqueItemFeatures(set *TransformedSet, mapping *ColumnMapping, numItems int) (*IndexMatrix, *DenseMatrix, error) {
	return ExtractUniqueFeatures(set.ItemIndices, numItems, set.SparseIndices, set.DenseValues,
		Positions(mapping.ItemSparseColumns), Positions(mapping.ItemDenseColumns))
}

// ExtractUniqueUserFeatures derives the canonical feature row of every user.
func ExtractUniqueUserFeatures(set *TransformedSet, mapping *ColumnMapping, numUsers int) (*IndexMatrix, *DenseMatrix, error) {
	return ExtractUniqueFeatures(set.UserIndices, numUsers, set.SparseIndices, set.DenseValues,
		Positions(mapping.UserSparseColumns), Positions(mapping.UserDenseColumns))
}
