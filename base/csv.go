// Copyright 2021 gorse Project Authors
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

package base

import (
	"bufio"
	"strings"

	"github.com/juju/errors"
)

// ValidateColumnName validates a column name. Names cannot be empty or contain the separator.
func ValidateColumnName(name, sep string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("column name cannot be empty")
	} else if sep != "" && strings.Contains(name, sep) {
		return errors.Errorf("column name cannot contain `%s`", sep)
	}
	return nil
}

// Escape text for csv.
func Escape(text string) string {
	// check if need escape
	if !strings.Contains(text, ",") &&
		!strings.Contains(text, "\"") &&
		!strings.Contains(text, "\n") &&
		!strings.Contains(text, "\r") {
		return text
	}
	// start to encode
	builder := strings.Builder{}
	builder.WriteRune('"')
	for _, c := range text {
		if c == '"' {
			builder.WriteString("\"\"")
		} else {
			builder.WriteRune(c)
		}
	}
	builder.WriteRune('"')
	return builder.String()
}

// ReadLines parses the fields of each record of a csv stream. Quoted fields may span
// lines. The handler receives the record number and its fields; returning false stops
// reading, returning an error aborts it.
func ReadLines(sc *bufio.Scanner, sep string, handler func(int, []string) (bool, error)) error {
	if sep == "" {
		return errors.New("separator cannot be empty")
	}
	separator := []rune(sep)[0]
	lineCount := 0               // record number of current position
	fields := make([]string, 0)  // fields for current record
	builder := strings.Builder{} // string builder for current field
	quoted := false              // whether current position in quote
	for sc.Scan() {
		line := []rune(sc.Text())
		// quoted field continues on this line
		if quoted {
			builder.WriteString("\r\n")
		}
		for i := 0; i < len(line); i++ {
			switch {
			case line[i] == separator && !quoted:
				fields = append(fields, builder.String())
				builder.Reset()
			case line[i] == '"':
				if !quoted {
					quoted = true
				} else if i+1 < len(line) && line[i+1] == '"' {
					i++
					builder.WriteRune('"')
				} else {
					quoted = false
				}
			default:
				builder.WriteRune(line[i])
			}
		}
		if quoted {
			continue
		}
		fields = append(fields, builder.String())
		builder.Reset()
		next, err := handler(lineCount, fields)
		if err != nil {
			return errors.Annotatef(err, "record %d", lineCount)
		} else if !next {
			return nil
		}
		fields = make([]string, 0, len(fields))
		lineCount++
	}
	if quoted {
		return errors.Errorf("unterminated quoted field in record %d", lineCount)
	}
	return errors.Trace(sc.Err())
}
