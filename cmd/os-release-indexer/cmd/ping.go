// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func addPingCommand(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Verifies that elasticsearch is reachable with the configured credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ix, err := newIndexer(cmd, configuration())
			if err != nil {
				return err
			}
			body, err := ix.Client().Request(cmd.Context(), http.MethodGet, "/", nil)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return err
		},
	}
	root.AddCommand(cmd)
}
