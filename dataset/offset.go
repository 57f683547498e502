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
	"math"
	"sort"
	"strings"

	"github.com/juju/errors"
)

// Variant selects how a dataset is assembled.
type Variant int

const (
	// Pure datasets only index users and items. Cold-start users and items are
	// left to the default prediction of the model.
	Pure Variant = iota
	// Feat datasets index auxiliary features too and reserve one unknown slot per
	// sparse column.
	Feat
)

func (v Variant) String() string {
	switch v {
	case Pure:
		return "pure"
	case Feat:
		return "feat"
	default:
		return "unknown"
	}
}

// ReserveUnknown returns true if sparse columns get an extra slot for unseen values.
func (v Variant) ReserveUnknown() bool {
	return v == Feat
}

// ParseVariant parses "pure" or "feat".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pure":
		return Pure, nil
	case "feat":
		return Feat, nil
	default:
		return Pure, errors.NotValidf("dataset variant %q", s)
	}
}

// OffsetTable places the local ranks of each sparse column into a disjoint range of
// a single global index space. Column i owns [Offsets[i], Offsets[i+1]).
//
//	| user | item | feature 1 | ... | feature n |
type OffsetTable struct {
	Columns  []string
	Offsets  []int32
	Reserved bool
}

// ComputeOffsets computes the cumulative offsets of columns in the given order. Each
// column takes its vocabulary size, plus one when reserveUnknownSlot is set.
func ComputeOffsets(registry *Registry, columns []string, reserveUnknownSlot bool) (*OffsetTable, error) {
	var missing []string
	for _, name := range columns {
		if _, exist := registry.Get(name); !exist {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Trace(&SchemaError{Missing: missing})
	}
	offsets := make([]int32, len(columns)+1)
	total := int64(0)
	for i, name := range columns {
		size := int64(registry.Size(name))
		if reserveUnknownSlot {
			size++
		}
		total += size
		if total > math.MaxInt32 {
			return nil, errors.Errorf("sparse feature size exceeds %d", math.MaxInt32)
		}
		offsets[i+1] = int32(total)
	}
	return &OffsetTable{
		Columns:  append([]string{}, columns...),
		Offsets:  offsets,
		Reserved: reserveUnknownSlot,
	}, nil
}

// Total returns the number of rows of the sparse embedding table.
func (t *OffsetTable) Total() int {
	return int(t.Offsets[len(t.Offsets)-1])
}

// Len returns the number of columns.
func (t *OffsetTable) Len() int {
	return len(t.Columns)
}

// Base returns the offset added to local ranks of column i.
func (t *OffsetTable) Base(i int) int32 {
	return t.Offsets[i]
}

// Range returns the global index range [begin, end) of column i.
func (t *OffsetTable) Range(i int) (begin, end int32) {
	return t.Offsets[i], t.Offsets[i+1]
}

// UnknownIndex returns the global index of the reserved slot of column i.
func (t *OffsetTable) UnknownIndex(i int) (int32, bool) {
	if !t.Reserved {
		return 0, false
	}
	return t.Offsets[i+1] - 1, true
}

// IndexOf returns the position of a column.
func (t *OffsetTable) IndexOf(name string) (int, bool) {
	for i, column := range t.Columns {
		if column == name {
			return i, true
		}
	}
	return 0, false
}

// Locate maps a global index back to its column position and local rank.
func (t *OffsetTable) Locate(global int32) (column int, local int32, ok bool) {
	if global < 0 || int(global) >= t.Total() {
		return 0, 0, false
	}
	// first offset strictly greater than global closes the owning range
	column = sort.Search(len(t.Offsets), func(i int) bool {
		return t.Offsets[i] > global
	}) - 1
	return column, global - t.Offsets[column], true
}
