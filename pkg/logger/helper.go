// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// StepSummary writes markdown to a github actions step summary file ($GITHUB_STEP_SUMMARY).
// A summary without file discards all messages.
type StepSummary struct {
	mux  sync.Mutex
	file string
}

// NewStepSummary creates a step summary that writes to the given file.
func NewStepSummary(file string) *StepSummary {
	if file != "" {
		file = filepath.Clean(file)
	}
	return &StepSummary{file: file}
}

// Enabled reports whether messages are written.
func (s *StepSummary) Enabled() bool {
	return s != nil && s.file != ""
}

// Post appends the message to the summary.
func (s *StepSummary) Post(message string) error {
	return s.write(message, os.O_CREATE|os.O_WRONLY|os.O_APPEND)
}

// Replace overwrites the summary with the message.
func (s *StepSummary) Replace(message string) error {
	return s.write(message, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
}

func (s *StepSummary) write(message string, flags int) error {
	if !s.Enabled() {
		return nil
	}
	s.mux.Lock()
	defer s.mux.Unlock()

	file, err := os.OpenFile(s.file, flags, 0600) // #nosec G304 -- input is derived form a user's input
	if err != nil {
		return errors.Wrapf(err, "unable to open step summary %s", s.file)
	}
	if _, err := file.WriteString(message + "\n"); err != nil {
		_ = file.Close()
		return errors.Wrapf(err, "unable to write step summary %s", s.file)
	}
	return file.Close()
}
