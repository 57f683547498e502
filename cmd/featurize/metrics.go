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
	"github.com/gorse-io/featurize/dataset"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelStep   = "step"
	LabelColumn = "column"
	LabelSet    = "set"

	StepLoad   = "load"
	StepBuild  = "build"
	StepEncode = "encode"
	StepSave   = "save"
)

// Metrics of one batch run, written to a Prometheus text file for node exporters.
type Metrics struct {
	registry *prometheus.Registry

	StepSeconds       *prometheus.GaugeVec
	Samples           *prometheus.GaugeVec
	Users             prometheus.Gauge
	Items             prometheus.Gauge
	SparseFeatureSize prometheus.Gauge
	UnknownValues     *prometheus.GaugeVec
	ColdStartSamples  prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		StepSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "featurize",
			Name:      "step_seconds",
		}, []string{LabelStep}),
		Samples: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "featurize",
			Name:      "samples",
		}, []string{LabelSet}),
		Users: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "featurize",
			Name:      "users",
		}),
		Items: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "featurize",
			Name:      "items",
		}),
		SparseFeatureSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "featurize",
			Name:      "sparse_feature_size",
		}),
		UnknownValues: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "featurize",
			Name:      "unknown_values",
		}, []string{LabelColumn}),
		ColdStartSamples: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "featurize",
			Name:      "cold_start_samples",
		}),
	}
}

func (m *Metrics) ObserveInfo(info *dataset.DataInfo, trainset *dataset.TransformedSet) {
	m.Samples.WithLabelValues(string(dataset.ModeTrain)).Set(float64(trainset.Len()))
	m.Users.Set(float64(info.NumUsers))
	m.Items.Set(float64(info.NumItems))
	m.SparseFeatureSize.Set(float64(info.SparseFeatureSize()))
}

func (m *Metrics) ObserveReport(report *dataset.UnknownReport) {
	for _, name := range report.Columns {
		m.UnknownValues.WithLabelValues(name).Set(float64(report.Count(name)))
	}
	m.ColdStartSamples.Set(float64(report.ColdStart().Count()))
}

// WriteToTextfile writes metrics in the text exposition format. An empty path is a no-op.
func (m *Metrics) WriteToTextfile(path string) error {
	if path == "" {
		return nil
	}
	return errors.Trace(prometheus.WriteToTextfile(path, m.registry))
}
