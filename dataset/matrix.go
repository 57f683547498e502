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
)

// IndexMatrix is a row-major matrix of global sparse indices.
type IndexMatrix struct {
	Rows int
	Cols int
	Data []int32
}

func NewIndexMatrix(rows, cols int) *IndexMatrix {
	return &IndexMatrix{Rows: rows, Cols: cols, Data: make([]int32, rows*cols)}
}

func (m *IndexMatrix) At(i, j int) int32 {
	return m.Data[i*m.Cols+j]
}

func (m *IndexMatrix) Set(i, j int, v int32) {
	m.Data[i*m.Cols+j] = v
}

// Row returns a view of row i.
func (m *IndexMatrix) Row(i int) []int32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Column returns a copy of column j.
func (m *IndexMatrix) Column(j int) []int32 {
	column := make([]int32, m.Rows)
	for i := range column {
		column[i] = m.At(i, j)
	}
	return column
}

// Equal returns true if both matrices have the same shape and cells.
func (m *IndexMatrix) Equal(o *IndexMatrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Rows == o.Rows && m.Cols == o.Cols && slices.Equal(m.Data, o.Data)
}

// DenseMatrix is a row-major matrix of raw numeric feature values.
type DenseMatrix struct {
	Rows int
	Cols int
	Data []float32
}

func NewDenseMatrix(rows, cols int) *DenseMatrix {
	return &DenseMatrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

func (m *DenseMatrix) At(i, j int) float32 {
	return m.Data[i*m.Cols+j]
}

func (m *DenseMatrix) Set(i, j int, v float32) {
	m.Data[i*m.Cols+j] = v
}

// Row returns a view of row i.
func (m *DenseMatrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Column returns a copy of column j.
func (m *DenseMatrix) Column(j int) []float32 {
	column := make([]float32, m.Rows)
	for i := range column {
		column[i] = m.At(i, j)
	}
	return column
}

// Equal returns true if both matrices have the same shape and cells.
func (m *DenseMatrix) Equal(o *DenseMatrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Rows == o.Rows && m.Cols == o.Cols && slices.Equal(m.Data, o.Data)
}

// marshalIndexMatrix writes an optional matrix; a nil matrix is written as -1 rows.
func marshalIndexMatrix(w io.Writer, m *IndexMatrix) error {
	if m == nil {
		return encoding.WriteInt32s(w, []int32{-1, 0})
	}
	if err := encoding.WriteInt32s(w, []int32{int32(m.Rows), int32(m.Cols)}); err != nil {
		return errors.Trace(err)
	}
	return encoding.WriteInt32s(w, m.Data)
}

func unmarshalIndexMatrix(r io.Reader) (*IndexMatrix, error) {
	shape, err := encoding.ReadInt32s(r)
	if err != nil {
		return nil, errors.Trace(err)
	} else if len(shape) != 2 {
		return nil, errors.NotValidf("matrix shape %v", shape)
	} else if shape[0] < 0 {
		return nil, nil
	}
	m := &IndexMatrix{Rows: int(shape[0]), Cols: int(shape[1])}
	if m.Data, err = encoding.ReadInt32s(r); err != nil {
		return nil, errors.Trace(err)
	} else if len(m.Data) != m.Rows*m.Cols {
		return nil, errors.NotValidf("matrix of shape %v with %d cells", shape, len(m.Data))
	}
	return m, nil
}

func marshalDenseMatrix(w io.Writer, m *DenseMatrix) error {
	if m == nil {
		return encoding.WriteInt32s(w, []int32{-1, 0})
	}
	if err := encoding.WriteInt32s(w, []int32{int32(m.Rows), int32(m.Cols)}); err != nil {
		return errors.Trace(err)
	}
	return encoding.WriteFloat32s(w, m.Data)
}

func unmarshalDenseMatrix(r io.Reader) (*DenseMatrix, error) {
	shape, err := encoding.ReadInt32s(r)
	if err != nil {
		return nil, errors.Trace(err)
	} else if len(shape) != 2 {
		return nil, errors.NotValidf("matrix shape %v", shape)
	} else if shape[0] < 0 {
		return nil, nil
	}
	m := &DenseMatrix{Rows: int(shape[0]), Cols: int(shape[1])}
	if m.Data, err = encoding.ReadFloat32s(r); err != nil {
		return nil, errors.Trace(err)
	} else if len(m.Data) != m.Rows*m.Cols {
		return nil, errors.NotValidf("matrix of shape %v with %d cells", shape, len(m.Data))
	}
	return m, nil
}
