// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package bulk

import (
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// MaxReportedFailures is the number of rejected actions per batch that are reported in detail.
// The failed counter is not limited.
const MaxReportedFailures = 10

// Aggregate inspects the bulk response body of a batch and counts the actions that
// were rejected by the store. Response items are matched to the batch by position.
func Aggregate(batch []Action, body []byte) (Result, error) {
	res := Result{Attempted: len(batch)}

	resp := &Response{}
	if err := json.Unmarshal(body, resp); err != nil {
		return res, errors.Wrap(err, "unable to unmarshal bulk response")
	}
	res.Took = resp.Took

	if !resp.Errors {
		return res, nil
	}

	if len(resp.Items) == 0 {
		// the store reported errors but nothing can be attributed
		res.Failed = len(batch)
		for i := 0; i < len(batch) && i < MaxReportedFailures; i++ {
			res.Failures = append(res.Failures, ItemFailure{
				Position:  i,
				Operation: batch[i].Operation,
				ID:        batch[i].Metadata.ID,
				Error:     "bulk response reported errors without items",
			})
		}
		return res, nil
	}

	for i, item := range resp.Items {
		op, entry := itemEntry(item)
		if !entry.HasError() {
			continue
		}
		res.Failed++
		if len(res.Failures) >= MaxReportedFailures {
			continue
		}

		id := entry.ID
		if id == "" && i < len(batch) {
			id = batch[i].Metadata.ID
		}
		res.Failures = append(res.Failures, ItemFailure{
			Position:  i,
			Operation: op,
			Status:    entry.Status,
			ID:        id,
			Error:     string(entry.Error),
		})
	}
	return res, nil
}

// itemEntry returns the single operation entry of a response item
// which looks like {"update": {"_index":"...","_id":"...","status":200}}.
func itemEntry(item map[string]ResponseItem) (Operation, ResponseItem) {
	for op, entry := range item {
		return Operation(op), entry
	}
	return "", ResponseItem{}
}
