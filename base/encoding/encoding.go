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
	"encoding/gob"
	"io"

	"github.com/juju/errors"
)

// maxLength guards against allocating garbage lengths from a corrupted stream.
const maxLength = 1<<31 - 1

// WriteString writes string to byte stream.
func WriteString(w io.Writer, s string) error {
	return WriteBytes(w, []byte(s))
}

// ReadString reads string from byte stream.
func ReadString(r io.Reader) (string, error) {
	data, err := ReadBytes(r)
	return string(data), err
}

// WriteStrings writes a length-prefixed list of strings.
func WriteStrings(w io.Writer, s []string) error {
	if err := writeLength(w, len(s)); err != nil {
		return err
	}
	for _, v := range s {
		if err := WriteString(w, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadStrings reads a list written by WriteStrings.
func ReadStrings(r io.Reader) ([]string, error) {
	n, err := readLength(r)
	if err != nil {
		return nil, err
	}
	s := make([]string, n)
	for i := range s {
		if s[i], err = ReadString(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// WriteBytes writes bytes to byte stream.
func WriteBytes(w io.Writer, s []byte) error {
	if err := writeLength(w, len(s)); err != nil {
		return err
	}
	n, err := w.Write(s)
	if err != nil {
		return errors.Trace(err)
	} else if n != len(s) {
		return errors.New("fail to write bytes")
	}
	return nil
}

// ReadBytes reads bytes from byte stream.
func ReadBytes(r io.Reader) ([]byte, error) {
	n, err := readLength(r)
	if err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err = io.ReadFull(r, data); err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}

// WriteInt32s writes a length-prefixed int32 vector.
func WriteInt32s(w io.Writer, v []int32) error {
	if err := writeLength(w, len(v)); err != nil {
		return err
	}
	return errors.Trace(binary.Write(w, binary.LittleEndian, v))
}

// ReadInt32s reads a vector written by WriteInt32s.
func ReadInt32s(r io.Reader) ([]int32, error) {
	n, err := readLength(r)
	if err != nil {
		return nil, err
	}
	v := make([]int32, n)
	if err = binary.Read(r, binary.LittleEndian, v); err != nil {
		return nil, errors.Trace(err)
	}
	return v, nil
}

// WriteFloat32s writes a length-prefixed float32 vector.
func WriteFloat32s(w io.Writer, v []float32) error {
	if err := writeLength(w, len(v)); err != nil {
		return err
	}
	return errors.Trace(binary.Write(w, binary.LittleEndian, v))
}

// ReadFloat32s reads a vector written by WriteFloat32s.
func ReadFloat32s(r io.Reader) ([]float32, error) {
	n, err := readLength(r)
	if err != nil {
		return nil, err
	}
	v := make([]float32, n)
	if err = binary.Read(r, binary.LittleEndian, v); err != nil {
		return nil, errors.Trace(err)
	}
	return v, nil
}

// WriteGob writes object to byte stream.
func WriteGob(w io.Writer, v interface{}) error {
	buffer := bytes.NewBuffer(nil)
	encoder := gob.NewEncoder(buffer)
	if err := encoder.Encode(v); err != nil {
		return errors.Trace(err)
	}
	return WriteBytes(w, buffer.Bytes())
}

// ReadGob read object from byte stream.
func ReadGob(r io.Reader, v interface{}) error {
	data, err := ReadBytes(r)
	if err != nil {
		return err
	}
	decoder := gob.NewDecoder(bytes.NewReader(data))
	return errors.Trace(decoder.Decode(v))
}

func writeLength(w io.Writer, n int) error {
	if n > maxLength {
		return errors.Errorf("length %d exceeds limit", n)
	}
	return errors.Trace(binary.Write(w, binary.LittleEndian, int32(n)))
}

func readLength(r io.Reader) (int, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, errors.Trace(err)
	}
	if n < 0 {
		return 0, errors.Errorf("negative length %d", n)
	}
	return int(n), nil
}
