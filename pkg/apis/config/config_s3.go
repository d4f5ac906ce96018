// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

// S3 configures the archive of fetched upstream snapshots.
type S3 struct {
	Server     S3Server `json:"server" yaml:"server"`
	BucketName string   `json:"bucketName,omitempty" yaml:"bucketName,omitempty"`
	// Prefix is prepended to all snapshot keys.
	Prefix     string   `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	AccessKey  string   `json:"accessKey,omitempty" yaml:"accessKey,omitempty"`
	SecretKey  string   `json:"secretKey,omitempty" yaml:"secretKey,omitempty"`
}

// S3Server is the endpoint of a s3 compatible store.
type S3Server struct {
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	SSL      bool   `json:"ssl,omitempty" yaml:"ssl,omitempty"`
}
