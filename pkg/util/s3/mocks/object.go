// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package mock_s3

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/minio/minio-go"
	"github.com/pkg/errors"

	"github.com/gardener/os-release-indexer/pkg/util/s3"
)

type mockObject struct {
	io.Reader
	size int64
}

func (o *mockObject) Stat() (minio.ObjectInfo, error) {
	return minio.ObjectInfo{
		Size: o.size,
	}, nil
}

func (o *mockObject) Close() error { return nil }

// CreateS3ObjectFromBytes creates a mock S3 Object from data
func CreateS3ObjectFromBytes(data []byte) s3.Object {
	return &mockObject{
		Reader: bytes.NewReader(data),
		size:   int64(len(data)),
	}
}

// StoredObject is an object that was written to the in-memory client.
type StoredObject struct {
	Data        []byte
	ContentType string
}

// MemoryClient is a s3 client that keeps all objects in memory.
type MemoryClient struct {
	mux     sync.Mutex
	Objects map[string]StoredObject
}

var _ s3.Client = &MemoryClient{}

// NewMemoryClient creates an empty in-memory s3 client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{Objects: map[string]StoredObject{}}
}

func (c *MemoryClient) GetObject(bucketName, objectName string, _ minio.GetObjectOptions) (s3.Object, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	obj, ok := c.Objects[bucketName+"/"+objectName]
	if !ok {
		return nil, errors.Errorf("object %s/%s not found", bucketName, objectName)
	}
	return CreateS3ObjectFromBytes(obj.Data), nil
}

func (c *MemoryClient) PutObject(_ context.Context, bucketName, objectName string, reader io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	c.Objects[bucketName+"/"+objectName] = StoredObject{Data: data, ContentType: contentType}
	return nil
}
