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

package source

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/cenkalti/backoff/v5"
	"github.com/go-sql-driver/mysql"
	"github.com/gorse-io/featurize/base/log"
	"github.com/gorse-io/featurize/dataset"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	_ "github.com/mailru/go-clickhouse/v2"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	MySQLPrefix      = "mysql://"
	PostgresPrefix   = "postgres://"
	PostgreSQLPrefix = "postgresql://"
	ClickhousePrefix = "clickhouse://"
	CHHTTPPrefix     = "chhttp://"
	CHHTTPSPrefix    = "chhttps://"
	SQLitePrefix     = "sqlite://"
)

// IsSQL returns true if the source is a database URL.
func IsSQL(source string) bool {
	return lo.ContainsBy([]string{
		MySQLPrefix, PostgresPrefix, PostgreSQLPrefix,
		ClickhousePrefix, CHHTTPPrefix, CHHTTPSPrefix, SQLitePrefix,
	}, func(prefix string) bool {
		return strings.HasPrefix(source, prefix)
	})
}

// OpenSQL connects to a database by URL.
func OpenSQL(path string) (*sql.DB, error) {
	var (
		driver string
		name   string
		system string
	)
	switch {
	case strings.HasPrefix(path, MySQLPrefix):
		cfg, err := mysql.ParseDSN(path[len(MySQLPrefix):])
		if err != nil {
			return nil, errors.Trace(err)
		}
		cfg.ParseTime = true
		driver, name, system = "mysql", cfg.FormatDSN(), "mysql"
	case strings.HasPrefix(path, PostgresPrefix), strings.HasPrefix(path, PostgreSQLPrefix):
		driver, name, system = "postgres", path, "postgresql"
	case strings.HasPrefix(path, ClickhousePrefix), strings.HasPrefix(path, CHHTTPPrefix), strings.HasPrefix(path, CHHTTPSPrefix):
		// replace schema
		parsed, err := url.Parse(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if strings.HasPrefix(path, CHHTTPSPrefix) {
			parsed.Scheme = "https"
		} else {
			parsed.Scheme = "http"
		}
		driver, name, system = "chhttp", parsed.String(), "clickhouse"
	case strings.HasPrefix(path, SQLitePrefix):
		driver, name, system = "sqlite", path[len(SQLitePrefix):], "sqlite"
	default:
		return nil, errors.NotSupportedf("database %s", log.RedactURL(path))
	}
	db, err := otelsql.Open(driver, name,
		otelsql.WithAttributes(attribute.String("db.system", system)),
		otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
	)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return db, nil
}

// QueryTable runs a query and collects its result set as a table of raw cells.
// NULL becomes an empty cell.
func QueryTable(ctx context.Context, db *sql.DB, query string) (*dataset.Table, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rows.Close()
	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Trace(err)
	}
	columns := make([][]string, len(names))
	values := make([]any, len(names))
	pointers := lo.Map(values, func(_ any, i int) any {
		return &values[i]
	})
	for rows.Next() {
		if err = rows.Scan(pointers...); err != nil {
			return nil, errors.Trace(err)
		}
		for j, value := range values {
			columns[j] = append(columns[j], formatCell(value))
		}
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return dataset.NewTableFromColumns(names, columns)
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// connectTries bounds the attempts to reach a database.
var connectTries uint = 5

// connect waits for a database to accept connections, with exponential backoff.
func connect(ctx context.Context, db *sql.DB) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, db.PingContext(ctx)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(connectTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Logger().Warn("failed to connect database, retrying",
				zap.Duration("wait", wait), zap.Error(err))
		}))
	return errors.Trace(err)
}

// Load reads a table from a database or a CSV file.
func Load(ctx context.Context, path, query, sep string) (*dataset.Table, error) {
	if !IsSQL(path) {
		return LoadCSV(path, sep)
	}
	if query == "" {
		return nil, errors.NotValidf("database source without query")
	}
	db, err := OpenSQL(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Logger().Warn("failed to close database", zap.Error(err))
		}
	}()
	if err = connect(ctx, db); err != nil {
		return nil, errors.Annotatef(err, "connect %s", log.RedactURL(path))
	}
	start := time.Now()
	table, err := QueryTable(ctx, db, query)
	if err != nil {
		return nil, errors.Annotatef(err, "query %s", log.RedactURL(path))
	}
	log.Logger().Info("load table from database",
		zap.String("database", log.RedactURL(path)),
		zap.Int("n_rows", table.Len()),
		zap.Strings("columns", table.Columns()),
		zap.Duration("used_time", time.Since(start)))
	return table, nil
}
