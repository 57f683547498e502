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
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorse-io/featurize/base/log"
	"github.com/gorse-io/featurize/config"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Store keeps named artifacts.
type Store interface {
	// Open a blob for reading.
	Open(name string) (io.ReadCloser, error)
	// Create a blob for writing. The done channel is closed once the content has
	// been persisted after the writer is closed.
	Create(name string) (io.WriteCloser, chan struct{}, error)
	List() ([]string, error)
	Remove(name string) error
}

// Open creates the store selected by the configuration.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "", "posix":
		return NewPOSIX(cfg.Dir), nil
	case "s3":
		return NewS3(cfg.S3)
	case "gcs":
		return NewGCS(cfg.GCS)
	case "azure":
		return NewAzureBlob(cfg.Azure, cfg.Azure.Container, cfg.Azure.Prefix)
	default:
		return nil, errors.NotSupportedf("blob store %q", cfg.Type)
	}
}

// saveTries bounds the attempts of Save.
var saveTries uint = 3

// Save writes a blob with marshal and waits until it is persisted. Failed uploads
// are retried with exponential backoff, marshal runs once per attempt.
func Save(store Store, name string, marshal func(w io.Writer) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	_, err := backoff.Retry(context.Background(), func() (struct{}, error) {
		return struct{}{}, save(store, name, marshal)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(saveTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Logger().Warn("failed to save blob, retrying",
				zap.String("name", name), zap.Duration("wait", wait), zap.Error(err))
		}))
	if err != nil {
		return errors.Trace(err)
	}
	log.Logger().Debug("save blob", zap.String("name", name))
	return nil
}

func save(store Store, name string, marshal func(w io.Writer) error) error {
	w, done, err := store.Create(name)
	if err != nil {
		return errors.Annotatef(err, "create blob %s", name)
	}
	if err = marshal(w); err != nil {
		// abort the upload, a broken artifact must not replace the previous one
		if a, ok := w.(abortWriter); ok {
			_ = a.CloseWithError(err)
		} else {
			_ = w.Close()
		}
		<-done
		return backoff.Permanent(errors.Annotatef(err, "marshal blob %s", name))
	}
	err = w.Close()
	<-done
	return errors.Annotatef(err, "write blob %s", name)
}

type abortWriter interface {
	CloseWithError(err error) error
}

// uploadWriter streams writes to an upload running in the background. Close
// returns the error of the upload, so a blob is never reported saved when the
// upload failed after the last write.
type uploadWriter struct {
	*io.PipeWriter
	done chan struct{}
	err  error
}

func newUploadWriter(upload func(r io.Reader) error) *uploadWriter {
	pr, pw := io.Pipe()
	w := &uploadWriter{PipeWriter: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		w.err = upload(pr)
		if w.err != nil {
			_ = pr.CloseWithError(w.err)
		} else {
			_ = pr.Close()
		}
	}()
	return w
}

func (w *uploadWriter) Close() error {
	if err := w.PipeWriter.Close(); err != nil {
		return errors.Trace(err)
	}
	<-w.done
	return errors.Trace(w.err)
}

// Load reads a blob with unmarshal.
func Load(store Store, name string, unmarshal func(r io.Reader) error) error {
	r, err := store.Open(name)
	if err != nil {
		return errors.Annotatef(err, "open blob %s", name)
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Logger().Warn("failed to close blob", zap.String("name", name), zap.Error(err))
		}
	}()
	return errors.Annotatef(unmarshal(r), "read blob %s", name)
}
