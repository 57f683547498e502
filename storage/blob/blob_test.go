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
	"bytes"
	"io"
	"testing"

	"github.com/gorse-io/featurize/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore accepts every write but fails the first failures uploads after reading
// the whole content.
type flakyStore struct {
	*POSIX
	failures int
	attempts int
}

func (s *flakyStore) Create(name string) (io.WriteCloser, chan struct{}, error) {
	s.attempts++
	if s.attempts <= s.failures {
		w := newUploadWriter(func(r io.Reader) error {
			if _, err := io.Copy(io.Discard, r); err != nil {
				return err
			}
			return errors.New("quota exceeded")
		})
		return w, w.done, nil
	}
	return s.POSIX.Create(name)
}

func TestSaveUploadError(t *testing.T) {
	store := &flakyStore{POSIX: NewPOSIX(t.TempDir()), failures: 100}
	err := Save(store, "data_info", func(w io.Writer) error {
		_, err := w.Write([]byte("hello world"))
		return err
	})
	assert.ErrorContains(t, err, "quota exceeded")
	assert.EqualValues(t, saveTries, store.attempts)
	_, err = store.Open("data_info")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestSaveRetry(t *testing.T) {
	store := &flakyStore{POSIX: NewPOSIX(t.TempDir()), failures: 1}
	err := Save(store, "data_info", func(w io.Writer) error {
		_, err := w.Write([]byte("hello world"))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, store.attempts)

	var buf bytes.Buffer
	err = Load(store, "data_info", func(r io.Reader) error {
		_, err := io.Copy(&buf, r)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", buf.String())
}

func TestSaveMarshalError(t *testing.T) {
	store := NewPOSIX(t.TempDir())
	err := Save(store, "trainset", func(w io.Writer) error {
		return errors.NotValidf("trainset")
	})
	assert.True(t, errors.Is(err, errors.NotValid))
	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

// testDataInfoRoundTrip saves the artifacts of a small build to a store, reads
// them back and removes them.
func testDataInfoRoundTrip(t *testing.T, store Store) {
	table, err := dataset.NewTableFromColumns(
		[]string{"user", "item", "label", "genre", "price"},
		[][]string{
			{"1", "2", "1"},
			{"10", "20", "30"},
			{"1", "0", "1"},
			{"x", "y", "x"},
			{"1.5", "2.5", "3.5"},
		})
	require.NoError(t, err)
	set, info, err := dataset.BuildFeat(table, []string{"genre"}, []string{"price"}, nil, []string{"genre", "price"}, true)
	require.NoError(t, err)
	require.NoError(t, Save(store, "data_info", info.Marshal))
	require.NoError(t, Save(store, "trainset", set.Marshal))

	var loadedInfo *dataset.DataInfo
	err = Load(store, "data_info", func(r io.Reader) (err error) {
		loadedInfo, err = dataset.UnmarshalDataInfo(r)
		return
	})
	require.NoError(t, err)
	assert.Equal(t, info.SparseColumns, loadedInfo.SparseColumns)
	assert.Equal(t, info.Offsets, loadedInfo.Offsets)
	assert.Equal(t, info.Registry.Columns(), loadedInfo.Registry.Columns())
	assert.True(t, info.ItemSparseUnique.Equal(loadedInfo.ItemSparseUnique))
	var loadedSet *dataset.TransformedSet
	err = Load(store, "trainset", func(r io.Reader) (err error) {
		loadedSet, err = dataset.UnmarshalTransformedSet(r)
		return
	})
	require.NoError(t, err)
	assert.True(t, set.Equal(loadedSet))

	names, err := store.List()
	require.NoError(t, err)
	assert.Subset(t, names, []string{"data_info", "trainset"})
	for _, name := range []string{"data_info", "trainset"} {
		require.NoError(t, store.Remove(name))
	}
	err = Load(store, "data_info", func(r io.Reader) error { return nil })
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestPOSIXDataInfo(t *testing.T) {
	testDataInfoRoundTrip(t, NewPOSIX(t.TempDir()))
}
