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
	json "github.com/goccy/go-json"
)

// Operation is the bulk API operation of an action line.
type Operation string

const (
	OpIndex  Operation = "index"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// HasBody reports whether the operation is followed by a source line in the bulk format.
func (o Operation) HasBody() bool {
	switch o {
	case OpIndex, OpCreate, OpUpdate:
		return true
	}
	return false
}

// Valid reports whether o is a known bulk operation.
func (o Operation) Valid() bool {
	return o.HasBody() || o == OpDelete
}

// Metadata is the target of a bulk action.
type Metadata struct {
	Index string `json:"_index,omitempty"`
	ID    string `json:"_id,omitempty"`
}

// Action is the internal representation of one elastic search bulk operation:
// the header line and, for operations that carry one, the source line.
type Action struct {
	Operation Operation
	Metadata  Metadata
	// Body is marshalled as-is. A json.RawMessage is written verbatim (compacted).
	Body interface{}
}

// UpdatePayload is the source line of an update action.
type UpdatePayload struct {
	Doc         map[string]interface{} `json:"doc"`
	DocAsUpsert bool                   `json:"doc_as_upsert"`
	DetectNoop  bool                   `json:"detect_noop"`
}

// NewUpsert creates an update action that inserts doc if the id does not exist yet
// and merges it into the stored document otherwise.
func NewUpsert(index, id string, doc map[string]interface{}) Action {
	return Action{
		Operation: OpUpdate,
		Metadata:  Metadata{Index: index, ID: id},
		Body: UpdatePayload{
			Doc:         doc,
			DocAsUpsert: true,
			DetectNoop:  true,
		},
	}
}

// Response is the response that is returned by elastic search when doing a bulk request.
type Response struct {
	Took   int                       `json:"took"`
	Errors bool                      `json:"errors"`
	Items  []map[string]ResponseItem `json:"items"`
}

// ResponseItem is the result of one action of a bulk request.
type ResponseItem struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Status int             `json:"status"`
	Result string          `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// HasError reports whether the store rejected the action.
// Empty error values like null, false, "", {} or [] do not count as rejection.
func (i ResponseItem) HasError() bool {
	if len(i.Error) == 0 {
		return false
	}
	var v interface{}
	if err := json.Unmarshal(i.Error, &v); err != nil {
		return true
	}
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case map[string]interface{}:
		return len(val) != 0
	case []interface{}:
		return len(val) != 0
	}
	return true
}

// ItemFailure describes one action that was rejected by the store.
type ItemFailure struct {
	Position  int
	Operation Operation
	Status    int
	ID        string
	Error     string
}

// Result is the outcome of one shipped batch.
type Result struct {
	// Attempted is the number of actions sent.
	Attempted int
	// Failed is the number of actions the store rejected.
	Failed int
	// Took is the server side processing time in milliseconds.
	Took int
	// Failures holds details of at most MaxReportedFailures rejected actions.
	Failures []ItemFailure
}
