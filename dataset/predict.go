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
	"github.com/samber/lo"
)

// PredictBatch holds model inputs for arbitrary (user, item) pairs.
type PredictBatch struct {
	UserIndices []int32
	ItemIndices []int32
	Sparse      *IndexMatrix // nil for pure datasets
	Dense       *DenseMatrix // nil without dense columns
	// Unknown marks pairs with an unseen user or item. Their score should be the
	// default prediction.
	Unknown *bitset.BitSet
}

// Len returns the number of pairs.
func (b *PredictBatch) Len() int {
	return len(b.UserIndices)
}

type cellSource int

const (
	fromUser cellSource = iota
	fromItem
	fromUserFeature
	fromItemFeature
	fromNothing
)

// cellRule tells where a sparse or dense cell of a pair comes from.
type cellRule struct {
	source cellSource
	index  int // column position in the unique feature table
}

// PredictIndices rebuilds sparse and dense rows of (user, item) pairs from the
// canonical user and item features. Cells of unseen users or items, and columns
// describing neither, take the reserved slot in sparse rows and zero in dense rows.
func (d *DataInfo) PredictIndices(users, items []string) (*PredictBatch, error) {
	if len(users) != len(items) {
		return nil, errors.NotValidf("%d users for %d items", len(users), len(items))
	}
	batch := &PredictBatch{
		UserIndices: make([]int32, len(users)),
		ItemIndices: make([]int32, len(items)),
		Unknown:     bitset.New(uint(len(users))),
	}
	userKnown := bitset.New(uint(len(users)))
	itemKnown := bitset.New(uint(len(items)))
	for i := range users {
		var userOk, itemOk bool
		batch.UserIndices[i], userOk = d.UserIndex(users[i])
		batch.ItemIndices[i], itemOk = d.ItemIndex(items[i])
		userKnown.SetTo(uint(i), userOk)
		itemKnown.SetTo(uint(i), itemOk)
		if !userOk || !itemOk {
			batch.Unknown.Set(uint(i))
		}
	}
	if d.Variant == Pure {
		return batch, nil
	}

	sparseRules, err := d.sparseRules()
	if err != nil {
		return nil, errors.Trace(err)
	}
	batch.Sparse = NewIndexMatrix(len(users), len(d.SparseColumns))
	for j, rule := range sparseRules {
		unknown, _ := d.Offsets.UnknownIndex(j)
		base := d.Offsets.Base(j)
		for i := range users {
			u, v := batch.UserIndices[i], batch.ItemIndices[i]
			value := unknown
			switch {
			case rule.source == fromUser && userKnown.Test(uint(i)):
				value = base + u
			case rule.source == fromItem && itemKnown.Test(uint(i)):
				value = base + v
			case rule.source == fromUserFeature && userKnown.Test(uint(i)):
				value = d.UserSparseUnique.At(int(u), rule.index)
			case rule.source == fromItemFeature && itemKnown.Test(uint(i)):
				value = d.ItemSparseUnique.At(int(v), rule.index)
			}
			batch.Sparse.Set(i, j, value)
		}
	}

	if len(d.DenseColumns) == 0 {
		return batch, nil
	}
	denseRules, err := d.denseRules()
	if err != nil {
		return nil, errors.Trace(err)
	}
	batch.Dense = NewDenseMatrix(len(users), len(d.DenseColumns))
	for j, rule := range denseRules {
		for i := range users {
			switch {
			case rule.source == fromUserFeature && userKnown.Test(uint(i)):
				batch.Dense.Set(i, j, d.UserDenseUnique.At(int(batch.UserIndices[i]), rule.index))
			case rule.source == fromItemFeature && itemKnown.Test(uint(i)):
				batch.Dense.Set(i, j, d.ItemDenseUnique.At(int(batch.ItemIndices[i]), rule.index))
			}
		}
	}
	return batch, nil
}

// RecommendIndices builds rows pairing one user with every item in rank order.
func (d *DataInfo) RecommendIndices(user string) (*PredictBatch, error) {
	vocab, _ := d.Registry.Get(ItemColumn)
	items := vocab.Values()
	return d.PredictIndices(lo.Times(len(items), func(int) string { return user }), items)
}

func (d *DataInfo) sparseRules() ([]cellRule, error) {
	rules := make([]cellRule, len(d.SparseColumns))
	for j, name := range d.SparseColumns {
		switch {
		case name == UserColumn:
			rules[j] = cellRule{source: fromUser}
		case name == ItemColumn:
			rules[j] = cellRule{source: fromItem}
		default:
			rule, err := featureRule(name, d.Mapping.UserSparseColumns, d.Mapping.ItemSparseColumns,
				d.UserSparseUnique != nil, d.ItemSparseUnique != nil)
			if err != nil {
				return nil, errors.Trace(err)
			}
			rules[j] = rule
		}
	}
	return rules, nil
}

func (d *DataInfo) denseRules() ([]cellRule, error) {
	rules := make([]cellRule, len(d.DenseColumns))
	for j, name := range d.DenseColumns {
		rule, err := featureRule(name, d.Mapping.UserDenseColumns, d.Mapping.ItemDenseColumns,
			d.UserDenseUnique != nil, d.ItemDenseUnique != nil)
		if err != nil {
			return nil, errors.Trace(err)
		}
		rules[j] = rule
	}
	return rules, nil
}

func featureRule(name string, userColumns, itemColumns []ColumnPosition, hasUser, hasItem bool) (cellRule, error) {
	if k := lo.IndexOf(lo.Map(userColumns, columnName), name); k >= 0 {
		if !hasUser {
			return cellRule{}, errors.NotFoundf("unique user features for column %q", name)
		}
		return cellRule{source: fromUserFeature, index: k}, nil
	}
	if k := lo.IndexOf(lo.Map(itemColumns, columnName), name); k >= 0 {
		if !hasItem {
			return cellRule{}, errors.NotFoundf("unique item features for column %q", name)
		}
		return cellRule{source: fromItemFeature, index: k}, nil
	}
	return cellRule{source: fromNothing}, nil
}

func columnName(c ColumnPosition, _ int) string {
	return c.Name
}
