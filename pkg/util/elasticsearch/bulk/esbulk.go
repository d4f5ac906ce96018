// Copyright 2019 Copyright (c) 2019 SAP SE or an SAP affiliate company. All rights reserved. This file is licensed under the Apache Software License, v. 2 except as noted otherwise in the LICENSE file.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bulk

import (
	"bytes"
	"io"

	"github.com/go-logr/logr"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/gardener/os-release-indexer/pkg/util"
)

var newLine = []byte("\n")

// Encode creates the newline delimited bulk request body of the given actions.
func Encode(actions []Action) ([]byte, error) {
	buf := bytes.NewBuffer([]byte{})
	if err := EncodeTo(buf, actions); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes one compact header line per action to w, followed by a compact
// source line for operations that carry a body. Every line, including the last one,
// is terminated by a newline.
func EncodeTo(w io.Writer, actions []Action) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for i, a := range actions {
		if !a.Operation.Valid() {
			return errors.Errorf("action %d: unknown bulk operation %q", i, a.Operation)
		}
		if err := enc.Encode(map[Operation]Metadata{a.Operation: a.Metadata}); err != nil {
			return errors.Wrapf(err, "cannot marshal metadata of action %d", i)
		}
		if !a.Operation.HasBody() {
			continue
		}
		if raw, ok := a.Body.(json.RawMessage); ok {
			if err := writeRaw(w, raw); err != nil {
				return errors.Wrapf(err, "cannot write source of action %d", i)
			}
			continue
		}
		if err := enc.Encode(a.Body); err != nil {
			return errors.Wrapf(err, "cannot marshal source of action %d", i)
		}
	}
	return nil
}

func writeRaw(w io.Writer, raw json.RawMessage) error {
	buf := bytes.NewBuffer(make([]byte, 0, len(raw)+1))
	if err := json.Compact(buf, raw); err != nil {
		return err
	}
	buf.Write(newLine)
	_, err := w.Write(buf.Bytes())
	return err
}

// Parse reads a newline delimited bulk document as accepted by the bulk api.
// Actions without a target index get defaultIndex. Empty lines are ignored.
func Parse(log logr.Logger, defaultIndex string, docs []byte) ([]Action, error) {
	actions := make([]Action, 0)
	var pending *Action

	lines := 0
	err := util.ReadLines(docs, func(lineNo int, line []byte) error {
		lines = lineNo
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			return nil
		}

		if pending != nil {
			if !json.Valid(line) {
				return errors.Errorf("line %d: source of %s action is not valid json", lineNo, pending.Operation)
			}
			pending.Body = json.RawMessage(append([]byte{}, line...))
			actions = append(actions, *pending)
			pending = nil
			return nil
		}

		var header map[Operation]Metadata
		if err := json.Unmarshal(line, &header); err != nil {
			return errors.Wrapf(err, "line %d: cannot unmarshal action metadata", lineNo)
		}
		if len(header) != 1 {
			return errors.Errorf("line %d: expected exactly one operation but found %d", lineNo, len(header))
		}
		for op, meta := range header {
			if !op.Valid() {
				return errors.Errorf("line %d: unknown bulk operation %q", lineNo, op)
			}
			if meta.Index == "" {
				meta.Index = defaultIndex
			}
			a := Action{Operation: op, Metadata: meta}
			if !op.HasBody() {
				actions = append(actions, a)
				continue
			}
			pending = &a
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, errors.Errorf("%s action for %q has no source line", pending.Operation, pending.Metadata.ID)
	}

	log.V(5).Info("parsed bulk document", "actions", len(actions), "lines", lines)
	return actions, nil
}
