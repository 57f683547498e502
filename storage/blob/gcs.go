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

package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gorse-io/featurize/config"
	"github.com/juju/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCS stores blobs in a Google Cloud Storage bucket. The endpoint can be pointed at an
// emulator with the GCS_EMULATOR_ENDPOINT environment variable.
type GCS struct {
	bucket *storage.BucketHandle
	client *storage.Client
	prefix string
}

func NewGCS(cfg config.GCSConfig) (*GCS, error) {
	var opts []option.ClientOption
	if endpoint := os.Getenv("GCS_EMULATOR_ENDPOINT"); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &GCS{
		bucket: client.Bucket(cfg.Bucket),
		client: client,
		prefix: cfg.Prefix,
	}, nil
}

func (g *GCS) Open(name string) (io.ReadCloser, error) {
	r, err := g.bucket.Object(filepath.Join(g.prefix, name)).NewReader(context.Background())
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, errors.NotFoundf("blob %s", name)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return r, nil
}

// Create returns the object writer itself. The object is committed by Close, so
// the done channel closes right after.
func (g *GCS) Create(name string) (io.WriteCloser, chan struct{}, error) {
	ctx, cancel := context.WithCancel(context.Background())
	w := g.bucket.Object(filepath.Join(g.prefix, name)).NewWriter(ctx)
	done := make(chan struct{})
	return &gcsWriter{Writer: w, cancel: cancel, done: done}, done, nil
}

type gcsWriter struct {
	*storage.Writer
	cancel context.CancelFunc
	done   chan struct{}
}

func (w *gcsWriter) Close() error {
	defer close(w.done)
	defer w.cancel()
	return w.Writer.Close()
}

// CloseWithError aborts the upload.
func (w *gcsWriter) CloseWithError(error) error {
	w.cancel()
	return w.Close()
}

func (g *GCS) List() ([]string, error) {
	var names []string
	it := g.bucket.Objects(context.Background(), &storage.Query{Prefix: g.prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return names, nil
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		names = append(names, strings.TrimPrefix(strings.TrimPrefix(attrs.Name, g.prefix), "/"))
	}
}

func (g *GCS) Remove(name string) error {
	return g.bucket.Object(filepath.Join(g.prefix, name)).Delete(context.Background())
}
