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
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
)

// ColumnPosition is the position of a named column in the sparse or dense matrix.
type ColumnPosition struct {
	Name     string
	Position int
}

// ColumnMapping records where each logical column lives in the sparse and dense
// matrices, and whether it describes a user, an item or neither.
type ColumnMapping struct {
	Sparse []ColumnPosition
	Dense  []ColumnPosition

	UserSparseColumns []ColumnPosition
	ItemSparseColumns []ColumnPosition
	UserDenseColumns  []ColumnPosition
	ItemDenseColumns  []ColumnPosition
}

// BuildColumnMapping builds the mapping of sparse and dense columns. The user column
// counts as user-describing and the item column as item-describing even when not
// listed in userColumns or itemColumns.
func BuildColumnMapping(sparseColumns, denseColumns, userColumns, itemColumns []string) *ColumnMapping {
	userSet := mapset.NewThreadUnsafeSet[string](userColumns...)
	userSet.Add(UserColumn)
	itemSet := mapset.NewThreadUnsafeSet[string](itemColumns...)
	itemSet.Add(ItemColumn)
	positions := func(names []string) []ColumnPosition {
		return lo.Map(names, func(name string, i int) ColumnPosition {
			return ColumnPosition{Name: name, Position: i}
		})
	}
	belongsTo := func(set mapset.Set[string]) func(ColumnPosition, int) bool {
		return func(c ColumnPosition, _ int) bool {
			return set.Contains(c.Name)
		}
	}
	m := &ColumnMapping{
		Sparse: positions(sparseColumns),
		Dense:  positions(denseColumns),
	}
	m.UserSparseColumns = lo.Filter(m.Sparse, belongsTo(userSet))
	m.ItemSparseColumns = lo.Filter(m.Sparse, belongsTo(itemSet))
	m.UserDenseColumns = lo.Filter(m.Dense, belongsTo(userSet))
	m.ItemDenseColumns = lo.Filter(m.Dense, belongsTo(itemSet))
	return m
}

// SparsePosition returns the position of a sparse column.
func (m *ColumnMapping) SparsePosition(name string) (int, bool) {
	return findPosition(m.Sparse, name)
}

// DensePosition returns the position of a dense column.
func (m *ColumnMapping) DensePosition(name string) (int, bool) {
	return findPosition(m.Dense, name)
}

// OtherSparseColumns returns sparse columns describing neither users nor items.
func (m *ColumnMapping) OtherSparseColumns() []ColumnPosition {
	return lo.Filter(m.Sparse, func(c ColumnPosition, _ int) bool {
		return !containsColumn(m.UserSparseColumns, c.Name) && !containsColumn(m.ItemSparseColumns, c.Name)
	})
}

// OtherDenseColumns returns dense columns describing neither users nor items.
func (m *ColumnMapping) OtherDenseColumns() []ColumnPosition {
	return lo.Filter(m.Dense, func(c ColumnPosition, _ int) bool {
		return !containsColumn(m.UserDenseColumns, c.Name) && !containsColumn(m.ItemDenseColumns, c.Name)
	})
}

// Positions extracts the matrix positions of columns.
func Positions(columns []ColumnPosition) []int {
	return lo.Map(columns, func(c ColumnPosition, _ int) int {
		return c.Position
	})
}

func findPosition(columns []ColumnPosition, name string) (int, bool) {
	c, ok := lo.Find(columns, func(c ColumnPosition) bool {
		return c.Name == name
	})
	return c.Position, ok
}

func containsColumn(columns []ColumnPosition, name string) bool {
	_, ok := findPosition(columns, name)
	return ok
}
