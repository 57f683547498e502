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
	"io"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	"github.com/gorse-io/featurize/base/encoding"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Tasks served by the downstream model.
const (
	TaskRating  = "rating"
	TaskRanking = "ranking"
)

// DataInfo is the metadata of a training build: everything needed to size embedding
// tables and to encode unseen data consistently with training. It is read-only once
// built.
type DataInfo struct {
	Variant       Variant
	SparseColumns []string
	DenseColumns  []string
	UserColumns   []string
	ItemColumns   []string

	Mapping  *ColumnMapping
	Registry *Registry
	Offsets  *OffsetTable

	// canonical feature rows, indexed by local user/item rank
	UserSparseUnique *IndexMatrix
	UserDenseUnique  *DenseMatrix
	ItemSparseUnique *IndexMatrix
	ItemDenseUnique  *DenseMatrix

	GlobalMean float32
	MinLabel   float32
	MaxLabel   float32
	NumUsers   int
	NumItems   int
}

// SparseFeatureSize returns the number of rows of the sparse embedding table.
func (d *DataInfo) SparseFeatureSize() int {
	return d.Offsets.Total()
}

// SparseFieldSize returns the number of sparse columns.
func (d *DataInfo) SparseFieldSize() int {
	return len(d.SparseColumns)
}

// DenseFieldSize returns the number of dense columns.
func (d *DataInfo) DenseFieldSize() int {
	return len(d.DenseColumns)
}

// SparseRange returns the global index range [begin, end) of a sparse column.
func (d *DataInfo) SparseRange(name string) (begin, end int32, ok bool) {
	i, ok := d.Offsets.IndexOf(name)
	if !ok {
		return 0, 0, false
	}
	begin, end = d.Offsets.Range(i)
	return begin, end, true
}

// DefaultPrediction is the fallback score of unknown users or items.
func (d *DataInfo) DefaultPrediction(task string) float32 {
	if task == TaskRating {
		return d.GlobalMean
	}
	return 0
}

// EncodeColumn encodes values of a sparse column in test mode and returns global
// indices. Unseen values map to the reserved slot of the column. Pure datasets have
// no reserved slot, so unseen values fail with UnknownValueError there. Encode
// cold-start users and items of a pure dataset with BuildTestset, UserIndex or
// ItemIndex instead, which flag them with the local index NumUsers or NumItems.
func (d *DataInfo) EncodeColumn(name string, values []string) ([]int32, *bitset.BitSet, error) {
	i, ok := d.Offsets.IndexOf(name)
	if !ok {
		return nil, nil, errors.Trace(&SchemaError{Missing: []string{name}})
	}
	vocab, _ := d.Registry.Get(name)
	local, unknown, err := EncodeColumn(values, vocab, ModeTest)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if unknown.Any() && !d.Offsets.Reserved {
		j, _ := unknown.NextSet(0)
		return nil, nil, errors.Trace(&UnknownValueError{Column: name, Value: values[j]})
	}
	base := d.Offsets.Base(i)
	return lo.Map(local, func(rank int32, _ int) int32 {
		return base + rank
	}), unknown, nil
}

// UserIndex returns the local rank of a user, or NumUsers if the user is unknown.
func (d *DataInfo) UserIndex(user string) (int32, bool) {
	return localIndex(d.Registry, UserColumn, user)
}

// ItemIndex returns the local rank of an item, or NumItems if the item is unknown.
func (d *DataInfo) ItemIndex(item string) (int32, bool) {
	return localIndex(d.Registry, ItemColumn, item)
}

func localIndex(registry *Registry, column, value string) (int32, bool) {
	vocab, _ := registry.Get(column)
	if rank, ok := vocab.Rank(value); ok {
		return int32(rank), true
	}
	return int32(vocab.Len()), false
}

// UnknownReport records unseen values found by test mode encoding.
type UnknownReport struct {
	Columns []string
	Masks   []*bitset.BitSet
}

// Count returns the number of unseen values of a column.
func (r *UnknownReport) Count(name string) int {
	if i := lo.IndexOf(r.Columns, name); i >= 0 {
		return int(r.Masks[i].Count())
	}
	return 0
}

// Rows returns rows holding at least one unseen value.
func (r *UnknownReport) Rows() *bitset.BitSet {
	rows := bitset.New(0)
	for _, mask := range r.Masks {
		rows.InPlaceUnion(mask)
	}
	return rows
}

// ColdStart returns rows with an unseen user or item.
func (r *UnknownReport) ColdStart() *bitset.BitSet {
	rows := bitset.New(0)
	for i, name := range r.Columns {
		if name == UserColumn || name == ItemColumn {
			rows.InPlaceUnion(r.Masks[i])
		}
	}
	return rows
}

// BuildTestset encodes a test table with the vocabularies and offsets of training.
// Unseen users and items get local index NumUsers and NumItems. Pure test sets carry
// user and item vectors only. The label column is optional.
func (d *DataInfo) BuildTestset(table *Table) (*TransformedSet, *UnknownReport, error) {
	required := append([]string{UserColumn, ItemColumn}, d.SparseColumns...)
	required = append(required, d.DenseColumns...)
	if missing := table.missingColumns(lo.Uniq(required)...); len(missing) > 0 {
		return nil, nil, errors.Trace(&SchemaError{Missing: missing})
	}
	set := &TransformedSet{}
	report := &UnknownReport{}
	if table.HasColumn(LabelColumn) {
		labels, err := table.Floats(LabelColumn)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		set.Labels = labels
	}
	switch d.Variant {
	case Pure:
		for _, name := range []string{UserColumn, ItemColumn} {
			vocab, _ := d.Registry.Get(name)
			values, _ := table.Column(name)
			local, unknown, err := EncodeColumn(values, vocab, ModeTest)
			if err != nil {
				return nil, nil, errors.Trace(err)
			}
			if name == UserColumn {
				set.UserIndices = local
			} else {
				set.ItemIndices = local
			}
			report.Columns = append(report.Columns, name)
			report.Masks = append(report.Masks, unknown)
		}
	default:
		encoded, err := EncodeMatrix(table, d.SparseColumns, d.Registry, d.Offsets, ModeTest)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		set.UserIndices, set.ItemIndices = encoded.UserIndices, encoded.ItemIndices
		set.SparseIndices = encoded.Sparse
		report.Columns = append(report.Columns, d.SparseColumns...)
		report.Masks = append(report.Masks, encoded.Unknown...)
		if set.DenseValues, err = denseMatrix(table, d.DenseColumns); err != nil {
			return nil, nil, errors.Trace(err)
		}
	}
	return set, report, nil
}

// labelStats returns the mean, min and max of labels.
func labelStats(labels []float32) (mean, minLabel, maxLabel float32) {
	if len(labels) == 0 {
		return 0, 0, 0
	}
	minLabel, maxLabel = math32.Inf(1), math32.Inf(-1)
	sum := 0.0
	for _, label := range labels {
		sum += float64(label)
		minLabel = math32.Min(minLabel, label)
		maxLabel = math32.Max(maxLabel, label)
	}
	return float32(sum / float64(len(labels))), minLabel, maxLabel
}

type dataInfoHeader struct {
	Variant       Variant
	SparseColumns []string
	DenseColumns  []string
	UserColumns   []string
	ItemColumns   []string
	Offsets       []int32
	Reserved      bool
	GlobalMean    float32
	MinLabel      float32
	MaxLabel      float32
	NumUsers      int
	NumItems      int
}

// Marshal writes the data info to a byte stream.
func (d *DataInfo) Marshal(w io.Writer) error {
	header := dataInfoHeader{
		Variant:       d.Variant,
		SparseColumns: d.SparseColumns,
		DenseColumns:  d.DenseColumns,
		UserColumns:   d.UserColumns,
		ItemColumns:   d.ItemColumns,
		Offsets:       d.Offsets.Offsets,
		Reserved:      d.Offsets.Reserved,
		GlobalMean:    d.GlobalMean,
		MinLabel:      d.MinLabel,
		MaxLabel:      d.MaxLabel,
		NumUsers:      d.NumUsers,
		NumItems:      d.NumItems,
	}
	if err := encoding.WriteGob(w, header); err != nil {
		return errors.Trace(err)
	}
	if err := d.Registry.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	for _, m := range []*IndexMatrix{d.UserSparseUnique, d.ItemSparseUnique} {
		if err := marshalIndexMatrix(w, m); err != nil {
			return errors.Trace(err)
		}
	}
	for _, m := range []*DenseMatrix{d.UserDenseUnique, d.ItemDenseUnique} {
		if err := marshalDenseMatrix(w, m); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// UnmarshalDataInfo reads data info written by DataInfo.Marshal.
func UnmarshalDataInfo(r io.Reader) (*DataInfo, error) {
	var header dataInfoHeader
	if err := encoding.ReadGob(r, &header); err != nil {
		return nil, errors.Trace(err)
	}
	if len(header.Offsets) != len(header.SparseColumns)+1 {
		return nil, errors.NotValidf("%d offsets for %d sparse columns", len(header.Offsets), len(header.SparseColumns))
	}
	d := &DataInfo{
		Variant:       header.Variant,
		SparseColumns: header.SparseColumns,
		DenseColumns:  header.DenseColumns,
		UserColumns:   header.UserColumns,
		ItemColumns:   header.ItemColumns,
		Mapping:       BuildColumnMapping(header.SparseColumns, header.DenseColumns, header.UserColumns, header.ItemColumns),
		Offsets: &OffsetTable{
			Columns:  header.SparseColumns,
			Offsets:  header.Offsets,
			Reserved: header.Reserved,
		},
		GlobalMean: header.GlobalMean,
		MinLabel:   header.MinLabel,
		MaxLabel:   header.MaxLabel,
		NumUsers:   header.NumUsers,
		NumItems:   header.NumItems,
	}
	var err error
	if d.Registry, err = UnmarshalRegistry(r); err != nil {
		return nil, errors.Trace(err)
	}
	if d.UserSparseUnique, err = unmarshalIndexMatrix(r); err != nil {
		return nil, errors.Trace(err)
	}
	if d.ItemSparseUnique, err = unmarshalIndexMatrix(r); err != nil {
		return nil, errors.Trace(err)
	}
	if d.UserDenseUnique, err = unmarshalDenseMatrix(r); err != nil {
		return nil, errors.Trace(err)
	}
	if d.ItemDenseUnique, err = unmarshalDenseMatrix(r); err != nil {
		return nil, errors.Trace(err)
	}
	return d, nil
}
