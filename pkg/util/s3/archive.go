// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/minio/minio-go"
	"github.com/pkg/errors"
)

// Archive stores the upstream snapshots a run was based on.
type Archive struct {
	log    logr.Logger
	client Client
	bucket string
	prefix string
}

// NewArchive creates an archive that writes to the given bucket.
// The default bucket of the client is used if bucket is empty.
func NewArchive(log logr.Logger, client Client, bucket string) *Archive {
	return &Archive{
		log:    log,
		client: client,
		bucket: bucket,
	}
}

// WithPrefix stores all snapshots below the given key prefix.
func (a *Archive) WithPrefix(prefix string) *Archive {
	a.prefix = strings.Trim(prefix, "/")
	return a
}

func (a *Archive) object(key string) string {
	if a.prefix == "" {
		return key
	}
	return path.Join(a.prefix, key)
}

// Location returns the s3 url of the snapshot with the given key.
func (a *Archive) Location(key string) string {
	return fmt.Sprintf("s3://%s/%s", a.bucket, a.object(key))
}

// ObjectKey returns the key of a snapshot like "linux/2025-09-01/<run id>.json".
func ObjectKey(source, runID string, fetchedAt time.Time, ext string) string {
	return fmt.Sprintf("%s/%s/%s%s", source, fetchedAt.UTC().Format("2006-01-02"), runID, ext)
}

// Store uploads a snapshot with the given key.
func (a *Archive) Store(ctx context.Context, key string, data []byte, contentType string) error {
	if err := a.client.PutObject(ctx, a.bucket, a.object(key), bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return errors.Wrapf(err, "unable to archive snapshot %s", key)
	}
	a.log.V(3).Info("archived snapshot", "key", key, "size", len(data))
	return nil
}

// Load reads a previously archived snapshot.
func (a *Archive) Load(key string) ([]byte, error) {
	obj, err := a.client.GetObject(a.bucket, a.object(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to get snapshot %s", key)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to get snapshot %s", key)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read snapshot %s", key)
	}
	a.log.V(3).Info("loaded archived snapshot", "key", key, "size", info.Size)
	return data, nil
}
