// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package indexer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/gardener/os-release-indexer/pkg/shipper"
	"github.com/gardener/os-release-indexer/pkg/sources"
	"github.com/gardener/os-release-indexer/pkg/sources/linux"
	"github.com/gardener/os-release-indexer/pkg/sources/macos"
	"github.com/gardener/os-release-indexer/pkg/sources/windows"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch/bulk"
)

const (
	SourceLinux   = "linux"
	SourceWindows = "windows"
	SourceMacOS   = "macos"
	SourceIngest  = "ingest"
)

// Input is the location of the upstream data of a run.
type Input struct {
	// Location is a url or a local file.
	Location string
	// ArchiveKey replays an archived snapshot instead of reading Location.
	ArchiveKey string
}

func (ix *Indexer) snapshot(ctx context.Context, source string, in Input, accept, ext string) (*sources.Snapshot, error) {
	if in.ArchiveKey != "" {
		return ix.Replay(in.ArchiveKey)
	}
	if in.Location == "" {
		return nil, errors.Errorf("no upstream location of %s defined", source)
	}
	return ix.Fetch(ctx, source, in.Location, accept, ext)
}

// Linux upserts the latest version of every series of a linux distribution.
// The distro is inferred from the payload if empty.
func (ix *Indexer) Linux(ctx context.Context, in Input, distro string) (shipper.Tally, error) {
	snap, err := ix.snapshot(ctx, SourceLinux, in, "application/json", ".json")
	if err != nil {
		return shipper.Tally{}, err
	}
	payload, err := linux.Decode(snap.Data)
	if err != nil {
		return shipper.Tally{}, err
	}
	records := linux.Records(ix.log, payload, distro)
	return Run(ctx, ix, SourceLinux, records, linux.Mapping(ix.now()))
}

// Windows upserts the latest update revision of every Windows 11 build.
// Malformed builds of the release information page are logged and skipped.
func (ix *Indexer) Windows(ctx context.Context, in Input, minBuild int) (shipper.Tally, error) {
	snap, err := ix.snapshot(ctx, SourceWindows, in, "text/html", ".html")
	if err != nil {
		return shipper.Tally{}, err
	}
	builds, err := windows.ParseBuilds(snap.Data, minBuild)
	if err != nil {
		if len(builds) == 0 {
			return shipper.Tally{}, errors.Wrap(err, "unable to parse windows release information")
		}
		ix.log.Error(err, "skipping malformed builds", "valid", len(builds))
	}
	return Run(ctx, ix, SourceWindows, builds, windows.Mapping(ix.now(), in.Location))
}

// MacOS upserts the latest version of every maintained macOS release.
func (ix *Indexer) MacOS(ctx context.Context, in Input) (shipper.Tally, error) {
	snap, err := ix.snapshot(ctx, SourceMacOS, in, "application/json", ".json")
	if err != nil {
		return shipper.Tally{}, err
	}
	releases, err := macos.ParseReleases(snap.Data)
	if err != nil {
		return shipper.Tally{}, err
	}
	return Run(ctx, ix, SourceMacOS, releases, macos.Mapping(ix.now(), in.Location))
}

// Ingest ships the actions of a newline delimited bulk file.
// Actions without an index are written to the configured index.
func (ix *Indexer) Ingest(ctx context.Context, in Input) (shipper.Tally, error) {
	snap, err := ix.snapshot(ctx, SourceIngest, in, "application/x-ndjson", ".ndjson")
	if err != nil {
		return shipper.Tally{}, err
	}
	actions, err := bulk.Parse(ix.log, ix.cfg.ElasticSearch.Index, snap.Data)
	if err != nil {
		return shipper.Tally{}, errors.Wrapf(err, "unable to parse bulk file %s", snap.Location)
	}
	return ix.RunActions(ctx, SourceIngest, actions)
}
