// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gardener/os-release-indexer/pkg/apis/config"
	"github.com/gardener/os-release-indexer/pkg/indexer"
	"github.com/gardener/os-release-indexer/pkg/shipper"
	"github.com/gardener/os-release-indexer/pkg/sources/macos"
	"github.com/gardener/os-release-indexer/pkg/sources/windows"
	"github.com/gardener/os-release-indexer/pkg/util/cmdutil/viper"
)

func addLinuxCommand(root *cobra.Command) {
	var payload string
	cmd := &cobra.Command{
		Use:   "linux",
		Short: "Upserts the latest version of every series of a linux distribution",
		Long: `Reads a series payload like {"source": ".../distribution/ubuntu", "series": {"24": {"version": "24.04.3"}}}
from a file or url and upserts one document per series.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSource(cmd, indexer.SourceLinux, func(ctx context.Context, c config.Configuration, ix *indexer.Indexer) (shipper.Tally, error) {
				in := input(c, "")
				if payload != "" {
					in.Location = payload
				}
				if in.Location == "" && in.ArchiveKey == "" {
					return shipper.Tally{}, errors.New("a series payload has to be defined with --payload or --release-info-url")
				}
				return ix.Linux(ctx, in, c.Source.Distro)
			})
		},
	}
	cmd.Flags().StringVar(&payload, "payload", "", "File or url of the series payload")
	cmd.Flags().StringVar(&cfg.Source.Distro, "distro", "", "Name of the distribution. Inferred from the source of the payload if empty")
	viper.ViperHelper.BindPFlagFromFlagSet(cmd.Flags(), "distro", "source.distro")
	viper.ViperHelper.BindEnv("source.distro", "DISTRO")
	root.AddCommand(cmd)
}

func addWindowsCommand(root *cobra.Command) {
	var minBuild int
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "Upserts the latest update revision of every Windows 11 build",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSource(cmd, indexer.SourceWindows, func(ctx context.Context, c config.Configuration, ix *indexer.Indexer) (shipper.Tally, error) {
				return ix.Windows(ctx, input(c, windows.DefaultReleaseInfoURL), minBuild)
			})
		},
	}
	cmd.Flags().IntVar(&minBuild, "min-build", windows.MinBuildPrefix, "Builds lower than the given build are ignored")
	root.AddCommand(cmd)
}

func addMacOSCommand(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "macos",
		Short: "Upserts the latest version of every maintained macOS release",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSource(cmd, indexer.SourceMacOS, func(ctx context.Context, c config.Configuration, ix *indexer.Indexer) (shipper.Tally, error) {
				return ix.MacOS(ctx, input(c, macos.DefaultReleaseInfoURL))
			})
		},
	}
	root.AddCommand(cmd)
}

func addIngestCommand(root *cobra.Command) {
	var file string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ships the actions of a newline delimited bulk file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSource(cmd, indexer.SourceIngest, func(ctx context.Context, _ config.Configuration, ix *indexer.Indexer) (shipper.Tally, error) {
				if file == "" && fromArchive == "" {
					return shipper.Tally{}, errors.New("a bulk file has to be defined with --file")
				}
				return ix.Ingest(ctx, indexer.Input{Location: file, ArchiveKey: fromArchive})
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path or url of a bulk ingestion file")
	root.AddCommand(cmd)
}
