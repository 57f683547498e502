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
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode records with the vocabularies of a previous build",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		input, _ := cmd.Flags().GetString("input")
		query, _ := cmd.Flags().GetString("query")
		output, _ := cmd.Flags().GetString("output")
		metrics := NewMetrics()
		_, report, err := runEncode(cmd.Context(), cfg, input, query, output, metrics)
		if err != nil {
			return errors.Trace(err)
		}
		if err = renderReport(cmd.OutOrStdout(), report); err != nil {
			return errors.Trace(err)
		}
		metricsPath, _ := cmd.Flags().GetString("metrics")
		return metrics.WriteToTextfile(metricsPath)
	},
}

func init() {
	encodeCmd.Flags().StringP("input", "i", "", "CSV file or database URL of records")
	encodeCmd.Flags().StringP("query", "q", "", "SQL query selecting records")
	encodeCmd.Flags().StringP("output", "o", TestsetBlob, "Name of the encoded blob")
	encodeCmd.Flags().String("metrics", "", "Path of the Prometheus text file to write")
	_ = encodeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(encodeCmd)
}
