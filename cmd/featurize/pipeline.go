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

package main

import (
	"context"
	"io"
	"time"

	"github.com/gorse-io/featurize/base/log"
	"github.com/gorse-io/featurize/config"
	"github.com/gorse-io/featurize/dataset"
	"github.com/gorse-io/featurize/storage/blob"
	"github.com/gorse-io/featurize/storage/source"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Names of artifacts in the blob store.
const (
	DataInfoBlob = "data_info"
	TrainsetBlob = "trainset"
	TestsetBlob  = "testset"
)

func buildOptions(cfg config.FeaturesConfig) (dataset.BuildOptions, error) {
	variant, err := dataset.ParseVariant(cfg.Variant)
	if err != nil {
		return dataset.BuildOptions{}, errors.Trace(err)
	}
	return dataset.BuildOptions{
		Variant:        variant,
		SparseColumns:  cfg.SparseColumns,
		DenseColumns:   cfg.DenseColumns,
		UserColumns:    cfg.UserColumns,
		ItemColumns:    cfg.ItemColumns,
		UniqueFeatures: cfg.UniqueFeatures,
	}, nil
}

// loadTable reads a table and keeps rows matching the filter, if any.
func loadTable(ctx context.Context, path, query, sep, filter string) (*dataset.Table, error) {
	table, err := source.Load(ctx, path, query, sep)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if filter == "" {
		return table, nil
	}
	f, err := source.NewFilter(filter, table.Columns())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return f.Apply(table)
}

// BuildResult is the outcome of a build run.
type BuildResult struct {
	Info     *dataset.DataInfo
	Trainset *dataset.TransformedSet
	Testset  *dataset.TransformedSet
	Report   *dataset.UnknownReport
}

// runBuild loads records, builds the training set, encodes the optional test set
// and saves every artifact to the blob store.
func runBuild(ctx context.Context, cfg *config.Config, metrics *Metrics) (*BuildResult, error) {
	options, err := buildOptions(cfg.Features)
	if err != nil {
		return nil, errors.Trace(err)
	}
	store, err := blob.Open(cfg.Storage)
	if err != nil {
		return nil, errors.Trace(err)
	}

	start := time.Now()
	train, err := loadTable(ctx, cfg.Data.Source, cfg.Data.Query, cfg.Data.Separator, cfg.Data.Filter)
	if err != nil {
		return nil, errors.Annotate(err, "load training records")
	}
	metrics.StepSeconds.WithLabelValues(StepLoad).Set(time.Since(start).Seconds())

	start = time.Now()
	result := &BuildResult{}
	if result.Trainset, result.Info, err = dataset.BuildTrainset(train, options); err != nil {
		return nil, errors.Trace(err)
	}
	metrics.StepSeconds.WithLabelValues(StepBuild).Set(time.Since(start).Seconds())

	if cfg.Data.Test != "" {
		start = time.Now()
		test, err := loadTable(ctx, cfg.Data.Test, cfg.Data.TestQuery, cfg.Data.Separator, cfg.Data.Filter)
		if err != nil {
			return nil, errors.Annotate(err, "load test records")
		}
		if result.Testset, result.Report, err = result.Info.BuildTestset(test); err != nil {
			return nil, errors.Trace(err)
		}
		metrics.StepSeconds.WithLabelValues(StepEncode).Set(time.Since(start).Seconds())
		metrics.ObserveReport(result.Report)
	}

	start = time.Now()
	if err = blob.Save(store, DataInfoBlob, result.Info.Marshal); err != nil {
		return nil, errors.Trace(err)
	}
	if err = blob.Save(store, TrainsetBlob, result.Trainset.Marshal); err != nil {
		return nil, errors.Trace(err)
	}
	if result.Testset != nil {
		if err = blob.Save(store, TestsetBlob, result.Testset.Marshal); err != nil {
			return nil, errors.Trace(err)
		}
	} else if err = removeStale(store, TestsetBlob); err != nil {
		return nil, errors.Trace(err)
	}
	metrics.StepSeconds.WithLabelValues(StepSave).Set(time.Since(start).Seconds())
	metrics.ObserveInfo(result.Info, result.Trainset)
	log.Logger().Info("save artifacts",
		zap.String("storage", cfg.Storage.Type),
		zap.Bool("testset", result.Testset != nil))
	return result, nil
}

// removeStale removes a blob left by a previous build, so it is not mistaken for an
// artifact of this one.
func removeStale(store blob.Store, name string) error {
	names, err := store.List()
	if err != nil {
		return errors.Trace(err)
	}
	if !lo.Contains(names, name) {
		return nil
	}
	log.Logger().Info("remove stale artifact", zap.String("name", name))
	return errors.Trace(store.Remove(name))
}

// loadDataInfo reads the data info of a previous build.
func loadDataInfo(store blob.Store) (*dataset.DataInfo, error) {
	var info *dataset.DataInfo
	err := blob.Load(store, DataInfoBlob, func(r io.Reader) (err error) {
		info, err = dataset.UnmarshalDataInfo(r)
		return
	})
	return info, errors.Trace(err)
}

// runEncode encodes records with the data info of a previous build and saves the
// result as a blob.
func runEncode(ctx context.Context, cfg *config.Config, input, query, output string, metrics *Metrics) (*dataset.TransformedSet, *dataset.UnknownReport, error) {
	store, err := blob.Open(cfg.Storage)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	info, err := loadDataInfo(store)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	start := time.Now()
	table, err := loadTable(ctx, input, query, cfg.Data.Separator, cfg.Data.Filter)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	set, report, err := info.BuildTestset(table)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	metrics.StepSeconds.WithLabelValues(StepEncode).Set(time.Since(start).Seconds())
	metrics.ObserveReport(report)
	if err = blob.Save(store, output, set.Marshal); err != nil {
		return nil, nil, errors.Trace(err)
	}
	return set, report, nil
}
