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
	"fmt"
	"io"
	"strconv"

	"github.com/gorse-io/featurize/base/log"
	"github.com/gorse-io/featurize/config"
	"github.com/gorse-io/featurize/dataset"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build vocabularies and encode training records",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		metrics := NewMetrics()
		result, err := runBuild(cmd.Context(), cfg, metrics)
		if err != nil {
			return errors.Trace(err)
		}
		if err = renderBuild(cmd.OutOrStdout(), result); err != nil {
			return errors.Trace(err)
		}
		metricsPath, _ := cmd.Flags().GetString("metrics")
		return metrics.WriteToTextfile(metricsPath)
	},
}

func init() {
	buildCmd.Flags().String("metrics", "", "Path of the Prometheus text file to write")
	rootCmd.AddCommand(buildCmd)
}

// loadConfig reads the configuration file named by the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, errors.Annotatef(err, "load config %q", path)
	}
	log.Logger().Debug("load config", zap.String("path", path))
	return cfg, nil
}

func renderBuild(w io.Writer, result *BuildResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")
	rows := [][]string{
		{"variant", result.Info.Variant.String()},
		{"samples", strconv.Itoa(result.Trainset.Len())},
		{"users", strconv.Itoa(result.Info.NumUsers)},
		{"items", strconv.Itoa(result.Info.NumItems)},
		{"sparse fields", strconv.Itoa(result.Info.SparseFieldSize())},
		{"dense fields", strconv.Itoa(result.Info.DenseFieldSize())},
		{"sparse features", strconv.Itoa(result.Info.SparseFeatureSize())},
		{"global mean", fmt.Sprintf("%.4f", result.Info.GlobalMean)},
	}
	if result.Testset != nil {
		rows = append(rows,
			[]string{"test samples", strconv.Itoa(result.Testset.Len())},
			[]string{"cold start", strconv.FormatUint(uint64(result.Report.ColdStart().Count()), 10)})
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

// renderReport prints unseen value counts of every encoded column.
func renderReport(w io.Writer, report *dataset.UnknownReport) error {
	table := tablewriter.NewWriter(w)
	table.Header("Column", "Unknown")
	for _, name := range report.Columns {
		if err := table.Append([]string{name, strconv.Itoa(report.Count(name))}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
