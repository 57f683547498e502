// Copyright 2022 gorse Project Authors
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

package encoding

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteString(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteString(buf, "abc"))
	assert.NoError(t, WriteString(buf, ""))
	s, err := ReadString(buf)
	assert.NoError(t, err)
	assert.Equal(t, "abc", s)
	s, err = ReadString(buf)
	assert.NoError(t, err)
	assert.Empty(t, s)
	_, err = ReadString(buf)
	assert.Error(t, err)
}

func TestWriteStrings(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteStrings(buf, []string{"user", "item", "genre"}))
	s, err := ReadStrings(buf)
	assert.NoError(t, err)
	assert.Equal(t, []string{"user", "item", "genre"}, s)
}

func TestWriteInt32s(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteInt32s(buf, []int32{0, 3, 5}))
	v, err := ReadInt32s(buf)
	assert.NoError(t, err)
	assert.Equal(t, []int32{0, 3, 5}, v)
}

func TestWriteFloat32s(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteFloat32s(buf, []float32{1.5, -2}))
	v, err := ReadFloat32s(buf)
	assert.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2}, v)
}

func TestReadNegativeLength(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, binary.Write(buf, binary.LittleEndian, int32(-1)))
	_, err := ReadBytes(buf)
	assert.Error(t, err)
}

func TestWriteGob(t *testing.T) {
	type offsets struct {
		Columns []string
		Values  []int32
	}
	a := offsets{Columns: []string{"user", "item"}, Values: []int32{0, 3, 5}}
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteGob(buf, a))
	var b offsets
	assert.NoError(t, ReadGob(buf, &b))
	assert.Equal(t, a, b)
}
