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
	"io"
	"slices"

	"github.com/gorse-io/featurize/base/encoding"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// TransformedSet is the numeric form of a table, ready for training or prediction.
// It is read-only once built.
type TransformedSet struct {
	UserIndices   []int32
	ItemIndices   []int32
	Labels        []float32
	SparseIndices *IndexMatrix // nil for pure datasets
	DenseValues   *DenseMatrix // nil without dense columns
}

// Len returns the number of samples.
func (s *TransformedSet) Len() int {
	return len(s.UserIndices)
}

// Get returns the i-th sample.
func (s *TransformedSet) Get(i int) (user, item int32, sparse []int32, dense []float32, label float32) {
	user, item = s.UserIndices[i], s.ItemIndices[i]
	if s.SparseIndices != nil {
		sparse = s.SparseIndices.Row(i)
	}
	if s.DenseValues != nil {
		dense = s.DenseValues.Row(i)
	}
	if s.Labels != nil {
		label = s.Labels[i]
	}
	return
}

// UserConsumed returns the distinct items of each user in first interaction order.
func (s *TransformedSet) UserConsumed() map[int32][]int32 {
	consumed := make(map[int32][]int32)
	for i, user := range s.UserIndices {
		consumed[user] = append(consumed[user], s.ItemIndices[i])
	}
	for user, items := range consumed {
		consumed[user] = lo.Uniq(items)
	}
	return consumed
}

// Equal returns true if both sets hold identical vectors and matrices.
func (s *TransformedSet) Equal(o *TransformedSet) bool {
	return slices.Equal(s.UserIndices, o.UserIndices) &&
		slices.Equal(s.ItemIndices, o.ItemIndices) &&
		slices.Equal(s.Labels, o.Labels) &&
		s.SparseIndices.Equal(o.SparseIndices) &&
		s.DenseValues.Equal(o.DenseValues)
}

// Marshal writes the set to a byte stream.
func (s *TransformedSet) Marshal(w io.Writer) error {
	if err := encoding.WriteInt32s(w, s.UserIndices); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteInt32s(w, s.ItemIndices); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteFloat32s(w, s.Labels); err != nil {
		return errors.Trace(err)
	}
	if err := marshalIndexMatrix(w, s.SparseIndices); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(marshalDenseMatrix(w, s.DenseValues))
}

// UnmarshalTransformedSet reads a set written by TransformedSet.Marshal.
func UnmarshalTransformedSet(r io.Reader) (*TransformedSet, error) {
	var (
		s   TransformedSet
		err error
	)
	if s.UserIndices, err = encoding.ReadInt32s(r); err != nil {
		return nil, errors.Trace(err)
	}
	if s.ItemIndices, err = encoding.ReadInt32s(r); err != nil {
		return nil, errors.Trace(err)
	}
	if s.Labels, err = encoding.ReadFloat32s(r); err != nil {
		return nil, errors.Trace(err)
	}
	if s.SparseIndices, err = unmarshalIndexMatrix(r); err != nil {
		return nil, errors.Trace(err)
	}
	if s.DenseValues, err = unmarshalDenseMatrix(r); err != nil {
		return nil, errors.Trace(err)
	}
	return &s, nil
}
