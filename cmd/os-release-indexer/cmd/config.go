// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gardener/os-release-indexer/pkg/apis/config"
	"github.com/gardener/os-release-indexer/pkg/util/cmdutil"
	"github.com/gardener/os-release-indexer/pkg/util/cmdutil/viper"
)

func addConfigCommand(root *cobra.Command) {
	var keys bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Prints the effective configuration without credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if keys {
				cmdutil.PrintKeys(cmd.OutOrStdout(), viper.ViperHelper.Keys())
				return nil
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(config.Redacted(configuration())); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().BoolVar(&keys, "keys", false, "List all configuration keys with their flags and environment variables")
	root.AddCommand(cmd)
}
