// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package cmdutil

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/gardener/os-release-indexer/pkg/util/cmdutil/viper"
)

// PrintTable prints left aligned rows without borders or separators.
func PrintTable(output io.Writer, headers []string, content [][]string) {
	table := tablewriter.NewWriter(output)
	table.SetHeader(headers)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	for _, sep := range []func(string){table.SetColumnSeparator, table.SetCenterSeparator, table.SetRowSeparator} {
		sep("")
	}
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(content)
	table.Render()
}

// PrintKeys prints all configuration keys with their flag and environment variables.
func PrintKeys(output io.Writer, keys []viper.Key) {
	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k.Key, k.Flag, strings.Join(k.Envs, ","), k.Usage}
	}
	PrintTable(output, []string{"Key", "Flag", "Env", "Description"}, rows)
}
