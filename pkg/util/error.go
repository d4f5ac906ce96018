// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ReturnMultiError returns nil for an empty multierror and formats all contained errors in one line.
// Other errors are returned as is.
func ReturnMultiError(err error) error {
	if err == nil {
		return nil
	}
	errs, ok := err.(*multierror.Error)
	if !ok {
		return err
	}
	if errs == nil {
		return nil
	}
	errs.ErrorFormat = formatErrors
	return errs.ErrorOrNil()
}

func formatErrors(errs []error) string {
	if len(errs) == 1 {
		return fmt.Sprintf("1 error occurred: %s", errs[0].Error())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred", len(errs))
	for _, err := range errs {
		b.WriteString(" - ")
		b.WriteString(err.Error())
	}
	return b.String()
}
