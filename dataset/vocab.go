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

package dataset

import (
	"context"
	"io"
	"math"
	"runtime"
	"sort"
	"strconv"

	"github.com/gorse-io/featurize/base/encoding"
	"github.com/gorse-io/featurize/base/log"
	"github.com/gorse-io/featurize/base/parallel"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"modernc.org/sortutil"
)

// key is the sort key of a raw value. Numbers (integers and finite decimals) sort
// numerically before every other value, the rest sort lexicographically. Distinct
// raw values of the same number, such as "7", "007" and "7.0", sort by their text.
type key struct {
	isNum bool
	isInt bool
	i     int64
	f     float64
	s     string
}

func newKey(value string) key {
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return key{isNum: true, isInt: true, i: i, f: float64(i), s: value}
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return key{isNum: true, f: f, s: value}
	}
	return key{s: value}
}

func (k key) less(o key) bool {
	switch {
	case k.isNum && o.isNum:
		if k.isInt && o.isInt {
			if k.i != o.i {
				return k.i < o.i
			}
		} else if k.f != o.f {
			return k.f < o.f
		}
		return k.s < o.s
	case k.isNum != o.isNum:
		return k.isNum
	default:
		return k.s < o.s
	}
}

type keys []key

func (k keys) Len() int           { return len(k) }
func (k keys) Less(i, j int) bool { return k[i].less(k[j]) }
func (k keys) Swap(i, j int)      { k[i], k[j] = k[j], k[i] }

// Vocabulary is the sorted set of distinct raw values of one categorical column.
// The rank of a value is its position in the sorted set.
type Vocabulary struct {
	keys keys
}

// NewVocabulary sorts and deduplicates values.
func NewVocabulary(values []string) *Vocabulary {
	k := make(keys, len(values))
	for i, value := range values {
		k[i] = newKey(value)
	}
	sort.Sort(k)
	n := sortutil.Dedupe(k)
	return &Vocabulary{keys: k[:n:n]}
}

// Len returns the number of distinct values.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Rank returns the position of value in the vocabulary.
func (v *Vocabulary) Rank(value string) (int, bool) {
	if v == nil {
		return 0, false
	}
	k := newKey(value)
	i := sort.Search(len(v.keys), func(i int) bool {
		return !v.keys[i].less(k)
	})
	if i < len(v.keys) && v.keys[i].s == value {
		return i, true
	}
	return i, false
}

// Value returns the raw value of a rank.
func (v *Vocabulary) Value(rank int) (string, bool) {
	if rank < 0 || rank >= len(v.keys) {
		return "", false
	}
	return v.keys[rank].s, true
}

// Values returns the raw values in rank order.
func (v *Vocabulary) Values() []string {
	values := make([]string, len(v.keys))
	for i, k := range v.keys {
		values[i] = k.s
	}
	return values
}

// Contains returns true if value has a rank.
func (v *Vocabulary) Contains(value string) bool {
	_, ok := v.Rank(value)
	return ok
}

// Registry holds the vocabulary of every sparse column of a training table.
// It is built once and read-only afterwards.
type Registry struct {
	columns []string
	vocabs  map[string]*Vocabulary
}

// BuildRegistry computes the vocabulary of each sparse column from training data.
// It fails with SchemaError if user, item, label or any sparse column is absent.
// Vocabularies are sorted concurrently, one job per column.
func BuildRegistry(table *Table, sparseColumns []string) (*Registry, error) {
	if err := table.checkRequired(sparseColumns...); err != nil {
		return nil, errors.Trace(err)
	}
	columns := lo.Uniq(sparseColumns)
	vocabs := make([]*Vocabulary, len(columns))
	err := parallel.Parallel(context.Background(), len(columns), runtime.GOMAXPROCS(0), func(_, jobId int) error {
		values, _ := table.Column(columns[jobId])
		vocabs[jobId] = NewVocabulary(values)
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	registry := &Registry{
		columns: columns,
		vocabs:  make(map[string]*Vocabulary, len(columns)),
	}
	for i, name := range columns {
		registry.vocabs[name] = vocabs[i]
		log.Logger().Debug("build vocabulary",
			zap.String("column", name),
			zap.Int("size", vocabs[i].Len()))
	}
	return registry, nil
}

// Columns returns the columns of the registry in build order.
func (r *Registry) Columns() []string {
	return r.columns
}

// Get returns the vocabulary of a column.
func (r *Registry) Get(name string) (*Vocabulary, bool) {
	vocab, exist := r.vocabs[name]
	return vocab, exist
}

// Size returns the vocabulary size of a column, 0 for unknown columns.
func (r *Registry) Size(name string) int {
	return r.vocabs[name].Len()
}

// Marshal writes the registry to a byte stream.
func (r *Registry) Marshal(w io.Writer) error {
	if err := encoding.WriteStrings(w, r.columns); err != nil {
		return errors.Trace(err)
	}
	for _, name := range r.columns {
		if err := encoding.WriteStrings(w, r.vocabs[name].Values()); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// UnmarshalRegistry reads a registry written by Registry.Marshal.
func UnmarshalRegistry(r io.Reader) (*Registry, error) {
	columns, err := encoding.ReadStrings(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	registry := &Registry{columns: columns, vocabs: make(map[string]*Vocabulary, len(columns))}
	for _, name := range columns {
		values, err := encoding.ReadStrings(r)
		if err != nil {
			return nil, errors.Trace(err)
		}
		registry.vocabs[name] = NewVocabulary(values)
	}
	return registry, nil
}
