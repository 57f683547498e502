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
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of a featurize run.
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Features FeaturesConfig `mapstructure:"features"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// DataConfig locates the training (and optional test) records.
type DataConfig struct {
	// Source is a CSV file path or a database URL.
	Source    string `mapstructure:"source" validate:"required"`
	Query     string `mapstructure:"query"`
	Test      string `mapstructure:"test"`
	TestQuery string `mapstructure:"test_query"`
	Separator string `mapstructure:"separator" validate:"required"`
	// Filter is a boolean expression evaluated on every row.
	Filter string `mapstructure:"filter"`
}

type FeaturesConfig struct {
	Variant        string   `mapstructure:"variant" validate:"oneof=pure feat"`
	SparseColumns  []string `mapstructure:"sparse_columns"`
	DenseColumns   []string `mapstructure:"dense_columns"`
	UserColumns    []string `mapstructure:"user_columns"`
	ItemColumns    []string `mapstructure:"item_columns"`
	UniqueFeatures bool     `mapstructure:"unique_features"`
}

// StorageConfig decides where encoded artifacts are written.
type StorageConfig struct {
	Type  string          `mapstructure:"type" validate:"oneof=posix s3 gcs azure"`
	Dir   string          `mapstructure:"dir" validate:"required_if=Type posix"`
	S3    S3Config        `mapstructure:"s3"`
	GCS   GCSConfig       `mapstructure:"gcs"`
	Azure AzureBlobConfig `mapstructure:"azure"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AzureBlobConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
	Container        string `mapstructure:"container"`
	Prefix           string `mapstructure:"prefix"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Separator: ",",
		},
		Features: FeaturesConfig{
			Variant:        "feat",
			UniqueFeatures: true,
		},
		Storage: StorageConfig{
			Type: "posix",
			Dir:  "featurize",
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [data]
	v.SetDefault("data.source", defaultConfig.Data.Source)
	v.SetDefault("data.query", defaultConfig.Data.Query)
	v.SetDefault("data.test", defaultConfig.Data.Test)
	v.SetDefault("data.test_query", defaultConfig.Data.TestQuery)
	v.SetDefault("data.separator", defaultConfig.Data.Separator)
	v.SetDefault("data.filter", defaultConfig.Data.Filter)
	// [features]
	v.SetDefault("features.variant", defaultConfig.Features.Variant)
	v.SetDefault("features.sparse_columns", []string{})
	v.SetDefault("features.dense_columns", []string{})
	v.SetDefault("features.user_columns", []string{})
	v.SetDefault("features.item_columns", []string{})
	v.SetDefault("features.unique_features", defaultConfig.Features.UniqueFeatures)
	// [storage]
	v.SetDefault("storage.type", defaultConfig.Storage.Type)
	v.SetDefault("storage.dir", defaultConfig.Storage.Dir)
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.gcs.bucket", "")
	v.SetDefault("storage.gcs.prefix", "")
	v.SetDefault("storage.gcs.credentials_file", "")
	v.SetDefault("storage.azure.connection_string", "")
	v.SetDefault("storage.azure.account_name", "")
	v.SetDefault("storage.azure.account_key", "")
	v.SetDefault("storage.azure.endpoint", "")
	v.SetDefault("storage.azure.container", "")
	v.SetDefault("storage.azure.prefix", "")
}

// LoadConfig loads configuration from a TOML file. Every key can be overridden by an
// environment variable, e.g. FEATURIZE_DATA_SOURCE for data.source. An empty path
// loads defaults and environment variables only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix("FEATURIZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigType("toml")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	conf.trimColumns()
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

func (config *Config) trimColumns() {
	for _, columns := range []*[]string{
		&config.Features.SparseColumns,
		&config.Features.DenseColumns,
		&config.Features.UserColumns,
		&config.Features.ItemColumns,
	} {
		trimmed := make([]string, 0, len(*columns))
		for _, column := range *columns {
			if column = strings.TrimSpace(column); column != "" {
				trimmed = append(trimmed, column)
			}
		}
		*columns = trimmed
	}
}

// Validate checks struct tags and the settings of the selected blob store.
func (config *Config) Validate() error {
	if err := validator.New().Struct(config); err != nil {
		return errors.Trace(err)
	}
	switch config.Storage.Type {
	case "s3":
		if config.Storage.S3.Endpoint == "" || config.Storage.S3.Bucket == "" {
			return errors.NotValidf("s3 storage without endpoint or bucket")
		}
	case "gcs":
		if config.Storage.GCS.Bucket == "" {
			return errors.NotValidf("gcs storage without bucket")
		}
	case "azure":
		if config.Storage.Azure.Container == "" {
			return errors.NotValidf("azure storage without container")
		}
		if config.Storage.Azure.ConnectionString == "" &&
			(config.Storage.Azure.AccountName == "" || config.Storage.Azure.AccountKey == "") {
			return errors.NotValidf("azure storage without connection_string or account_name and account_key")
		}
	}
	return nil
}
