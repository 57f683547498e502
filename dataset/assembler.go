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
	"strconv"
	"strings"
	"time"

	"github.com/gorse-io/featurize/base/log"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// BuildOptions configures BuildTrainset.
type BuildOptions struct {
	Variant       Variant
	SparseColumns []string
	DenseColumns  []string
	// UserColumns and ItemColumns name the feature columns describing users and
	// items. They are ignored by pure datasets.
	UserColumns []string
	ItemColumns []string
	// UniqueFeatures extracts the canonical feature row of every user and item.
	UniqueFeatures bool
}

// normalize returns the columns actually used by a build.
func (opts BuildOptions) normalize() BuildOptions {
	if opts.Variant == Pure {
		return BuildOptions{
			Variant:       Pure,
			SparseColumns: []string{UserColumn, ItemColumn},
		}
	}
	sparse := lo.Uniq(opts.SparseColumns)
	var prefix []string
	for _, name := range []string{UserColumn, ItemColumn} {
		if !lo.Contains(sparse, name) {
			prefix = append(prefix, name)
		}
	}
	opts.SparseColumns = append(prefix, sparse...)
	opts.DenseColumns = lo.Uniq(opts.DenseColumns)
	// the data info must not share slices with the caller
	opts.UserColumns = slices.Clone(opts.UserColumns)
	opts.ItemColumns = slices.Clone(opts.ItemColumns)
	return opts
}

// builder holds the intermediate state of one BuildTrainset call.
type builder struct {
	table   *Table
	options BuildOptions

	labels   []float32
	registry *Registry
	offsets  *OffsetTable
	encoded  *EncodedColumns
	dense    *DenseMatrix
	mapping  *ColumnMapping
	set      *TransformedSet
	info     *DataInfo
}

// BuildTrainset converts a training table into a transformed set and the metadata
// needed to encode further data the same way.
func BuildTrainset(table *Table, options BuildOptions) (*TransformedSet, *DataInfo, error) {
	start := time.Now()
	b := &builder{table: table, options: options.normalize()}
	for _, step := range []func() error{
		b.validate,
		b.buildRegistry,
		b.encodeSparse,
		b.encodeDense,
		b.assemble,
		b.extractUnique,
	} {
		if err := step(); err != nil {
			return nil, nil, errors.Trace(err)
		}
	}
	log.Logger().Info("build trainset",
		zap.String("variant", b.info.Variant.String()),
		zap.Int("n_samples", b.set.Len()),
		zap.Int("n_users", b.info.NumUsers),
		zap.Int("n_items", b.info.NumItems),
		zap.Int("sparse_feature_size", b.info.SparseFeatureSize()),
		zap.Int("dense_field_size", b.info.DenseFieldSize()),
		zap.Duration("used_time", time.Since(start)))
	return b.set, b.info, nil
}

func (b *builder) validate() error {
	if err := b.table.checkRequired(slices.Concat(b.options.SparseColumns, b.options.DenseColumns)...); err != nil {
		return errors.Trace(err)
	}
	both := lo.Filter(b.options.DenseColumns, func(name string, _ int) bool {
		return lo.Contains(b.options.SparseColumns, name)
	})
	if len(both) > 0 {
		return errors.NotValidf("columns %v both sparse and dense", both)
	}
	var err error
	b.labels, err = b.table.Floats(LabelColumn)
	return errors.Trace(err)
}

func (b *builder) buildRegistry() error {
	var err error
	if b.registry, err = BuildRegistry(b.table, b.options.SparseColumns); err != nil {
		return errors.Trace(err)
	}
	b.offsets, err = ComputeOffsets(b.registry, b.options.SparseColumns, b.options.Variant.ReserveUnknown())
	return errors.Trace(err)
}

func (b *builder) encodeSparse() error {
	var err error
	b.encoded, err = EncodeMatrix(b.table, b.options.SparseColumns, b.registry, b.offsets, ModeTrain)
	return errors.Trace(err)
}

func (b *builder) encodeDense() error {
	var err error
	b.dense, err = denseMatrix(b.table, b.options.DenseColumns)
	return errors.Trace(err)
}

func (b *builder) assemble() error {
	b.set = &TransformedSet{
		UserIndices: b.encoded.UserIndices,
		ItemIndices: b.encoded.ItemIndices,
		Labels:      b.labels,
		DenseValues: b.dense,
	}
	if b.options.Variant != Pure {
		b.set.SparseIndices = b.encoded.Sparse
	}
	b.mapping = BuildColumnMapping(b.options.SparseColumns, b.options.DenseColumns,
		b.options.UserColumns, b.options.ItemColumns)
	mean, minLabel, maxLabel := labelStats(b.labels)
	b.info = &DataInfo{
		Variant:       b.options.Variant,
		SparseColumns: b.options.SparseColumns,
		DenseColumns:  b.options.DenseColumns,
		UserColumns:   b.options.UserColumns,
		ItemColumns:   b.options.ItemColumns,
		Mapping:       b.mapping,
		Registry:      b.registry,
		Offsets:       b.offsets,
		GlobalMean:    mean,
		MinLabel:      minLabel,
		MaxLabel:      maxLabel,
		NumUsers:      b.registry.Size(UserColumn),
		NumItems:      b.registry.Size(ItemColumn),
	}
	return nil
}

func (b *builder) extractUnique() error {
	if !b.options.UniqueFeatures || b.options.Variant == Pure {
		return nil
	}
	var err error
	b.info.UserSparseUnique, b.info.UserDenseUnique, err = ExtractUniqueUserFeatures(b.set, b.mapping, b.info.NumUsers)
	if err != nil {
		return errors.Trace(err)
	}
	b.info.ItemSparseUnique, b.info.ItemDenseUnique, err = ExtractUniqueItemFeatures(b.set, b.mapping, b.info.NumItems)
	if err != nil {
		return errors.Trace(err)
	}
	log.Logger().Debug("extract unique features",
		zap.Int("n_user_sparse", len(b.mapping.UserSparseColumns)),
		zap.Int("n_user_dense", len(b.mapping.UserDenseColumns)),
		zap.Int("n_item_sparse", len(b.mapping.ItemSparseColumns)),
		zap.Int("n_item_dense", len(b.mapping.ItemDenseColumns)))
	return nil
}

// denseMatrix parses numeric columns into a matrix, nil without columns.
func denseMatrix(table *Table, columns []string) (*DenseMatrix, error) {
	if len(columns) == 0 {
		return nil, nil
	}
	m := NewDenseMatrix(table.Len(), len(columns))
	for j, name := range columns {
		values, exist := table.Column(name)
		if !exist {
			return nil, errors.Trace(&SchemaError{Missing: []string{name}})
		}
		for i, value := range values {
			f, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
			if err != nil {
				return nil, errors.Annotatef(err, "dense column %q row %d", name, i)
			}
			m.Set(i, j, float32(f))
		}
	}
	return m, nil
}

// BuildPure builds a dataset indexing only users and items.
func BuildPure(table *Table) (*TransformedSet, *DataInfo, error) {
	return BuildTrainset(table, BuildOptions{Variant: Pure})
}

// BuildFeat builds a dataset indexing auxiliary features too.
func BuildFeat(table *Table, sparseColumns, denseColumns, userColumns, itemColumns []string, uniqueFeatures bool) (*TransformedSet, *DataInfo, error) {
	return BuildTrainset(table, BuildOptions{
		Variant:        Feat,
		SparseColumns:  sparseColumns,
		DenseColumns:   denseColumns,
		UserColumns:    userColumns,
		ItemColumns:    itemColumns,
		UniqueFeatures: uniqueFeatures,
	})
}

// BuildTrainTest builds a training set and encodes a test table with its metadata.
func BuildTrainTest(train, test *Table, options BuildOptions) (*TransformedSet, *TransformedSet, *DataInfo, *UnknownReport, error) {
	trainSet, info, err := BuildTrainset(train, options)
	if err != nil {
		return nil, nil, nil, nil, errors.Trace(err)
	}
	testSet, report, err := info.BuildTestset(test)
	if err != nil {
		return nil, nil, nil, nil, errors.Trace(err)
	}
	if n := report.ColdStart().Count(); n > 0 {
		log.Logger().Info("cold start samples in testset",
			zap.Uint("n_samples", n),
			zap.Int("n_unknown_users", report.Count(UserColumn)),
			zap.Int("n_unknown_items", report.Count(ItemColumn)))
	}
	return trainSet, testSet, info, report, nil
}
