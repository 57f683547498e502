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
	"fmt"
	"strings"

	"github.com/juju/errors"
)

// SchemaError reports columns required by a build or an encode that are absent
// from the input table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("data must contain column(s) %s", strings.Join(e.Missing, ", "))
}

// UnknownValueError reports a value that has no place in the index space: a train
// mode value missing from its vocabulary, or a test mode value of a column without
// a reserved unknown slot.
type UnknownValueError struct {
	Column string
	Value  string
}

func (e *UnknownValueError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("value %q is not in vocabulary", e.Value)
	}
	return fmt.Sprintf("value %q of column %q is not in vocabulary", e.Value, e.Column)
}

// InvalidModeError reports an encode mode other than "train" or "test".
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("mode must either be \"train\" or \"test\", but got %q", e.Mode)
}

// IsSchemaError returns true if the cause of err is a SchemaError.
func IsSchemaError(err error) bool {
	_, ok := errors.Cause(err).(*SchemaError)
	return ok
}

// IsUnknownValueError returns true if the cause of err is an UnknownValueError.
func IsUnknownValueError(err error) bool {
	_, ok := errors.Cause(err).(*UnknownValueError)
	return ok
}

// IsInvalidModeError returns true if the cause of err is an InvalidModeError.
func IsInvalidModeError(err error) bool {
	_, ok := errors.Cause(err).(*InvalidModeError)
	return ok
}
