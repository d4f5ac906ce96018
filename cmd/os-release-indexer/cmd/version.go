// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"runtime"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// set by ldflags
var (
	gitVersion = "v0.0.0-dev"
	gitCommit  = ""
	buildDate  = "1970-01-01T00:00:00Z"
)

type versionInfo struct {
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	Platform   string `json:"platform"`
}

func addVersionCommand(root *cobra.Command) {
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Prints the version of the indexer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := json.Marshal(versionInfo{
				GitVersion: gitVersion,
				GitCommit:  gitCommit,
				BuildDate:  buildDate,
				GoVersion:  runtime.Version(),
				Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(v))
			return err
		},
	})
}
