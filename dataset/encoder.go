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
	"slices"

	"github.com/bits-and-blooms/bitset"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
)

// Mode decides how values missing from a vocabulary are treated.
type Mode string

const (
	// ModeTrain expects every value to be in the vocabulary.
	ModeTrain Mode = "train"
	// ModeTest maps unseen values to the reserved slot of their column.
	ModeTest Mode = "test"
)

// ParseMode fails with InvalidModeError for anything but "train" or "test".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTrain, ModeTest:
		return Mode(s), nil
	default:
		return "", errors.Trace(&InvalidModeError{Mode: s})
	}
}

// EncodeColumn converts raw values to local ranks in vocab. In test mode, values
// absent from vocab get rank vocab.Len() and their bit set in the returned mask.
// The mask is empty in train mode.
func EncodeColumn(values []string, vocab *Vocabulary, mode Mode) ([]int32, *bitset.BitSet, error) {
	indices := make([]int32, len(values))
	unknown := bitset.New(uint(len(values)))
	switch mode {
	case ModeTrain:
		for i, value := range values {
			rank, ok := vocab.Rank(value)
			if !ok {
				return nil, nil, errors.Trace(&UnknownValueError{Value: value})
			}
			indices[i] = int32(rank)
		}
	case ModeTest:
		unseen := unseenValues(values, vocab)
		for i, value := range values {
			if unseen.Contains(value) {
				indices[i] = int32(vocab.Len())
				unknown.Set(uint(i))
				continue
			}
			rank, _ := vocab.Rank(value)
			indices[i] = int32(rank)
		}
	default:
		return nil, nil, errors.Trace(&InvalidModeError{Mode: string(mode)})
	}
	return indices, unknown, nil
}

// unseenValues returns the set difference between values and the vocabulary.
func unseenValues(values []string, vocab *Vocabulary) mapset.Set[string] {
	distinct := mapset.NewThreadUnsafeSet[string](values...)
	unseen := mapset.NewThreadUnsafeSet[string]()
	distinct.Each(func(value string) bool {
		if !vocab.Contains(value) {
			unseen.Add(value)
		}
		return false
	})
	return unseen
}

// EncodedColumns is the result of EncodeMatrix.
type EncodedColumns struct {
	// Sparse holds global indices, one column per sparse column.
	Sparse *IndexMatrix
	// UserIndices and ItemIndices hold local ranks of the user and item columns,
	// nil when the column was not encoded.
	UserIndices []int32
	ItemIndices []int32
	// Unknown marks unseen values per sparse column. Always empty in train mode.
	Unknown []*bitset.BitSet
}

// CountUnknown returns the number of unseen values of column j.
func (e *EncodedColumns) CountUnknown(j int) int {
	return int(e.Unknown[j].Count())
}

// EncodeMatrix encodes every sparse column of table and shifts its local ranks by the
// column offset. Without a reserved slot in offsets, an unseen test value cannot be
// placed and fails with UnknownValueError.
func EncodeMatrix(table *Table, sparseColumns []string, registry *Registry, offsets *OffsetTable, mode Mode) (*EncodedColumns, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, errors.Trace(err)
	}
	if !slices.Equal(offsets.Columns, sparseColumns) {
		return nil, errors.NotValidf("sparse columns %v for offset table of %v", sparseColumns, offsets.Columns)
	}
	if missing := table.missingColumns(sparseColumns...); len(missing) > 0 {
		return nil, errors.Trace(&SchemaError{Missing: missing})
	}
	result := &EncodedColumns{
		Sparse:  NewIndexMatrix(table.Len(), len(sparseColumns)),
		Unknown: make([]*bitset.BitSet, len(sparseColumns)),
	}
	for j, name := range sparseColumns {
		vocab, exist := registry.Get(name)
		if !exist {
			return nil, errors.Trace(&SchemaError{Missing: []string{name}})
		}
		values, _ := table.Column(name)
		local, unknown, err := EncodeColumn(values, vocab, mode)
		if err != nil {
			if e, ok := errors.Cause(err).(*UnknownValueError); ok {
				return nil, errors.Trace(&UnknownValueError{Column: name, Value: e.Value})
			}
			return nil, errors.Trace(err)
		}
		if unknown.Any() && !offsets.Reserved {
			i, _ := unknown.NextSet(0)
			return nil, errors.Trace(&UnknownValueError{Column: name, Value: values[i]})
		}
		base := offsets.Base(j)
		for i, rank := range local {
			result.Sparse.Set(i, j, base+rank)
		}
		result.Unknown[j] = unknown
		switch name {
		case UserColumn:
			result.UserIndices = local
		case ItemColumn:
			result.ItemIndices = local
		}
	}
	return result, nil
}
