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

	"github.com/gorse-io/featurize/dataset"
	"github.com/gorse-io/featurize/storage/blob"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show columns and index ranges of a previous build",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		store, err := blob.Open(cfg.Storage)
		if err != nil {
			return errors.Trace(err)
		}
		info, err := loadDataInfo(store)
		if err != nil {
			return errors.Trace(err)
		}
		column, _ := cmd.Flags().GetString("column")
		if column != "" {
			return renderVocabulary(cmd.OutOrStdout(), info, column)
		}
		if err = renderColumns(cmd.OutOrStdout(), info); err != nil {
			return errors.Trace(err)
		}
		names, err := store.List()
		if err != nil {
			return errors.Trace(err)
		}
		return renderArtifacts(cmd.OutOrStdout(), names)
	},
}

func init() {
	inspectCmd.Flags().String("column", "", "Dump the vocabulary of a sparse column")
	rootCmd.AddCommand(inspectCmd)
}

func columnRole(info *dataset.DataInfo, name string) string {
	switch {
	case name == dataset.UserColumn || name == dataset.ItemColumn:
		return "key"
	case lo.Contains(info.UserColumns, name):
		return "user"
	case lo.Contains(info.ItemColumns, name):
		return "item"
	default:
		return "context"
	}
}

func renderColumns(w io.Writer, info *dataset.DataInfo) error {
	table := tablewriter.NewWriter(w)
	table.Header("Column", "Kind", "Role", "Vocabulary", "Range")
	for _, name := range info.SparseColumns {
		begin, end, _ := info.SparseRange(name)
		row := []string{name, "sparse", columnRole(info, name),
			strconv.Itoa(info.Registry.Size(name)), fmt.Sprintf("[%d, %d)", begin, end)}
		if err := table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	for _, name := range info.DenseColumns {
		if err := table.Append([]string{name, "dense", columnRole(info, name), "-", "-"}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

func renderVocabulary(w io.Writer, info *dataset.DataInfo, column string) error {
	vocab, exist := info.Registry.Get(column)
	if !exist {
		return errors.NotFoundf("sparse column %q", column)
	}
	begin, _, _ := info.SparseRange(column)
	table := tablewriter.NewWriter(w)
	table.Header("Rank", "Value", "Index")
	for rank, value := range vocab.Values() {
		row := []string{strconv.Itoa(rank), value, strconv.Itoa(int(begin) + rank)}
		if err := table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

// renderArtifacts prints the stored blobs, marking the ones written by build.
func renderArtifacts(w io.Writer, names []string) error {
	table := tablewriter.NewWriter(w)
	table.Header("Artifact", "Kind")
	for _, name := range names {
		kind := "encoded"
		if lo.Contains([]string{DataInfoBlob, TrainsetBlob, TestsetBlob}, name) {
			kind = "build"
		}
		if err := table.Append([]string{name, kind}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
