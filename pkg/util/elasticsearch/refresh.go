// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package elasticsearch

import (
	"strings"

	"github.com/pkg/errors"
)

// RefreshMode controls when the changes of a bulk request become visible to search.
type RefreshMode string

const (
	// RefreshDisabled does not send the refresh parameter at all.
	RefreshDisabled RefreshMode = ""
	RefreshTrue     RefreshMode = "true"
	RefreshFalse    RefreshMode = "false"
	// RefreshWaitFor blocks the request until the changes are visible.
	RefreshWaitFor RefreshMode = "wait_for"
)

// ParseRefreshMode parses a refresh mode. "none" and "disabled" are accepted as aliases of RefreshDisabled.
func ParseRefreshMode(s string) (RefreshMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "disabled":
		return RefreshDisabled, nil
	case "true":
		return RefreshTrue, nil
	case "false":
		return RefreshFalse, nil
	case "wait_for":
		return RefreshWaitFor, nil
	}
	return RefreshDisabled, errors.Errorf("unknown refresh mode %q", s)
}
