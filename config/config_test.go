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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig("config.toml.template")
	assert.NoError(t, err)
	// [data]
	assert.Equal(t, "train.csv", config.Data.Source)
	assert.Equal(t, "test.csv", config.Data.Test)
	assert.Equal(t, ",", config.Data.Separator)
	assert.Empty(t, config.Data.Filter)
	// [features]
	assert.Equal(t, "feat", config.Features.Variant)
	assert.Equal(t, []string{"gender", "genre"}, config.Features.SparseColumns)
	assert.Equal(t, []string{"age", "price"}, config.Features.DenseColumns)
	assert.Equal(t, []string{"gender", "age"}, config.Features.UserColumns)
	assert.Equal(t, []string{"genre", "price"}, config.Features.ItemColumns)
	assert.True(t, config.Features.UniqueFeatures)
	// [storage]
	assert.Equal(t, "posix", config.Storage.Type)
	assert.Equal(t, "featurize", config.Storage.Dir)
}

func TestSetDefault(t *testing.T) {
	t.Setenv("FEATURIZE_DATA_SOURCE", "ratings.csv")
	config, err := LoadConfig("")
	assert.NoError(t, err)
	expected := GetDefaultConfig()
	assert.Equal(t, "ratings.csv", config.Data.Source)
	assert.Equal(t, expected.Data.Separator, config.Data.Separator)
	assert.Equal(t, expected.Features.Variant, config.Features.Variant)
	assert.Equal(t, expected.Features.UniqueFeatures, config.Features.UniqueFeatures)
	assert.Empty(t, config.Features.SparseColumns)
	assert.Equal(t, expected.Storage, config.Storage)
}

type environmentVariable struct {
	key   string
	value string
}

func TestBindEnv(t *testing.T) {
	variables := []environmentVariable{
		{"FEATURIZE_DATA_SOURCE", "sqlite:///tmp/featurize.db"},
		{"FEATURIZE_DATA_QUERY", "SELECT * FROM ratings"},
		{"FEATURIZE_DATA_FILTER", "label > 0"},
		{"FEATURIZE_FEATURES_VARIANT", "pure"},
		{"FEATURIZE_FEATURES_SPARSE_COLUMNS", "gender, city"},
		{"FEATURIZE_STORAGE_TYPE", "s3"},
		{"FEATURIZE_STORAGE_S3_ENDPOINT", "localhost:9000"},
		{"FEATURIZE_STORAGE_S3_BUCKET", "featurize"},
	}
	for _, variable := range variables {
		t.Setenv(variable.key, variable.value)
	}

	config, err := LoadConfig("config.toml.template")
	assert.NoError(t, err)
	assert.Equal(t, "sqlite:///tmp/featurize.db", config.Data.Source)
	assert.Equal(t, "SELECT * FROM ratings", config.Data.Query)
	assert.Equal(t, "label > 0", config.Data.Filter)
	assert.Equal(t, "pure", config.Features.Variant)
	assert.Equal(t, []string{"gender", "city"}, config.Features.SparseColumns)
	assert.Equal(t, "s3", config.Storage.Type)
	assert.Equal(t, "localhost:9000", config.Storage.S3.Endpoint)
	assert.Equal(t, "featurize", config.Storage.S3.Bucket)

	// check values kept from file
	assert.Equal(t, []string{"age", "price"}, config.Features.DenseColumns)
}

func TestValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	write := func(text string) {
		assert.NoError(t, os.WriteFile(path, []byte(text), 0644))
	}

	write("[data]\nsource = \"a.csv\"\n[features]\nvariant = \"deep\"\n")
	_, err := LoadConfig(path)
	assert.Error(t, err)

	write("[data]\nsource = \"a.csv\"\n[storage]\ntype = \"posix\"\ndir = \"\"\n")
	_, err = LoadConfig(path)
	assert.Error(t, err)

	write("[data]\nsource = \"a.csv\"\n[storage]\ntype = \"gcs\"\n")
	_, err = LoadConfig(path)
	assert.Error(t, err)

	write("[data]\nsource = \"a.csv\"\n[storage]\ntype = \"azure\"\n[storage.azure]\ncontainer = \"c\"\naccount_name = \"a\"\n")
	_, err = LoadConfig(path)
	assert.Error(t, err)

	write("[data]\nsource = \"a.csv\"\n[storage]\ntype = \"azure\"\n[storage.azure]\ncontainer = \"c\"\nconnection_string = \"UseDevelopmentStorage=true\"\n")
	_, err = LoadConfig(path)
	assert.NoError(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
