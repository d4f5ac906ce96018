// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package elasticsearch

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// dryRunBulkResponse is the response of every dry run bulk request.
var dryRunBulkResponse = []byte(`{"took":0,"errors":false,"items":[]}`)

type dryRunClient struct {
	mux sync.Mutex
	out io.Writer
}

// NewDryRunClient creates a client that writes all bulk documents to out instead of sending them.
func NewDryRunClient(out io.Writer) Client {
	return &dryRunClient{out: out}
}

func (c *dryRunClient) Request(_ context.Context, httpMethod, path string, _ io.Reader) ([]byte, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if _, err := fmt.Fprintf(c.out, "%s %s\n", httpMethod, path); err != nil {
		return nil, err
	}
	return []byte("{}"), nil
}

func (c *dryRunClient) Bulk(_ context.Context, data []byte) ([]byte, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if _, err := c.out.Write(data); err != nil {
		return nil, err
	}
	return dryRunBulkResponse, nil
}
