// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:generate go tool mockgen -destination=./mocks/client.go github.com/gardener/os-release-indexer/pkg/util/elasticsearch Client

// Package elasticsearch contains a client for the elastic search bulk api.
package elasticsearch
