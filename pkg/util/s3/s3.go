// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"context"
	"io"

	"github.com/minio/minio-go"
	"github.com/pkg/errors"

	"github.com/gardener/os-release-indexer/pkg/apis/config"
)

// Client reads and writes objects of a s3 compatible store.
// An empty bucket name selects the bucket the client was created for.
type Client interface {
	GetObject(bucketName, objectName string, opts minio.GetObjectOptions) (Object, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, size int64, contentType string) error
}

// Object is a readable s3 object.
type Object interface {
	io.Reader
	Stat() (minio.ObjectInfo, error)
	Close() error
}

type minioClient struct {
	mc     *minio.Client
	bucket string
}

// New connects to the configured s3 server and checks that the bucket exists.
func New(cfg *config.S3) (Client, error) {
	if cfg == nil {
		return nil, errors.New("no s3 configuration defined")
	}
	endpoint := cfg.Server.Endpoint
	mc, err := minio.New(endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Server.SSL)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create s3 client for %s", endpoint)
	}
	c := &minioClient{mc: mc, bucket: cfg.BucketName}

	exists, err := mc.BucketExists(c.bucket)
	switch {
	case err != nil:
		return nil, errors.Wrapf(err, "unable to check bucket %s on %s", c.bucket, endpoint)
	case !exists:
		return nil, errors.Errorf("bucket %s does not exist on %s", c.bucket, endpoint)
	}
	return c, nil
}

func (c *minioClient) bucketOrDefault(name string) string {
	if name != "" {
		return name
	}
	return c.bucket
}

func (c *minioClient) GetObject(bucketName, objectName string, opts minio.GetObjectOptions) (Object, error) {
	return c.mc.GetObject(c.bucketOrDefault(bucketName), objectName, opts)
}

func (c *minioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := c.mc.PutObjectWithContext(ctx, c.bucketOrDefault(bucketName), objectName, reader, size, opts); err != nil {
		return errors.Wrapf(err, "unable to put %s", objectName)
	}
	return nil
}
