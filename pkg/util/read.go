// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"bufio"
	"bytes"

	"github.com/pkg/errors"
)

// MaxLineSize is the max size of a single line of a document.
var MaxLineSize = 64 << 20

// ReadLines reads a document line by line ('\n' or '\r\n') and calls fn for every line without the line end.
// Line numbers start at 1. Reading stops at the first error of fn or of the scanner.
// The line is only valid until fn returns.
func ReadLines(document []byte, fn func(lineNo int, line []byte) error) error {
	scanner := bufio.NewScanner(bytes.NewReader(document))
	scanner.Buffer(make([]byte, 0, min(64*1024, MaxLineSize)), MaxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := fn(lineNo, bytes.TrimSuffix(scanner.Bytes(), []byte{'\r'})); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "unable to read line %d", lineNo+1)
	}
	return nil
}
