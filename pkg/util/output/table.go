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

package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/gardener/os-release-indexer/pkg/shipper"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch/bulk"
)

// Failure is a rejected action of a run.
type Failure struct {
	Batch int
	bulk.ItemFailure
}

// Report collects the outcome of a shipping run so that it can be rendered afterwards.
type Report struct {
	Source   string
	Summary  shipper.Summary
	Failures []Failure
	Retries  int

	mux sync.Mutex
}

var _ shipper.Observer = &Report{}

// NewReport creates a new report for the given source.
func NewReport(source string) *Report {
	return &Report{Source: source}
}

func (r *Report) BatchShipped(shipper.BatchEvent) {}

func (r *Report) ItemFailed(batch int, f bulk.ItemFailure) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.Failures = append(r.Failures, Failure{Batch: batch, ItemFailure: f})
}

func (r *Report) Retrying(elasticsearch.RetryEvent) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.Retries++
}

func (r *Report) Finished(s shipper.Summary) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.Summary = s
}

// RenderSummaryTable creates a human readable table of the run and its rejected actions.
func (r *Report) RenderSummaryTable(writer io.Writer) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Source", "Index", "Attempted", "Failed", "Skipped", "Batches", "Retries", "Duration"})
	table.Append(r.summaryRow())
	table.Render()

	if len(r.Failures) == 0 {
		return
	}
	_, _ = fmt.Fprintln(writer)
	table = tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Batch", "Position", "Operation", "ID", "Status", "Error"})
	table.SetAutoWrapText(true)
	table.SetRowLine(true)
	for _, f := range r.Failures {
		table.Append(failureRow(f))
	}
	table.Render()
}

// Markdown renders the report as markdown as it is used for github step summaries.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", r.Source)
	b.WriteString("| Source | Index | Attempted | Failed | Skipped | Batches | Retries | Duration |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	writeMarkdownRow(&b, r.summaryRow())
	if len(r.Failures) != 0 {
		b.WriteString("\n| Batch | Position | Operation | ID | Status | Error |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, f := range r.Failures {
			writeMarkdownRow(&b, failureRow(f))
		}
	}
	return b.String()
}

func (r *Report) summaryRow() []string {
	return []string{
		r.Source,
		r.Summary.Index,
		strconv.Itoa(r.Summary.Tally.Attempted),
		strconv.Itoa(r.Summary.Tally.Failed),
		strconv.Itoa(r.Summary.Tally.Skipped),
		strconv.Itoa(r.Summary.Tally.Batches),
		strconv.Itoa(r.Retries),
		r.Summary.Duration.Round(time.Millisecond).String(),
	}
}

func failureRow(f Failure) []string {
	return []string{
		strconv.Itoa(f.Batch),
		strconv.Itoa(f.Position),
		string(f.Operation),
		f.ID,
		strconv.Itoa(f.Status),
		f.Error,
	}
}

func writeMarkdownRow(b *strings.Builder, row []string) {
	b.WriteString("|")
	for _, cell := range row {
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(cell, "|", "\\|"))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}
