// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package rpcwire

import (
	"fmt"
	"net/rpc"
	"sync"

	"github.com/google/fuzvisor/fuzzerengine"
)

// Client wraps a single net/rpc connection to a Collector Service. Calls
// are serialized behind one mutex, matching the single blocking connection
// the fuzzer client's native shim keeps per process.
type Client struct {
	mu   sync.Mutex
	conn *rpc.Client
}

// Dial opens a TCP connection to addr and registers it as a Collector
// Service client.
func Dial(addr string) (*Client, error) {
	c, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rpcwire: dial %s: %w", addr, err)
	}
	return &Client{conn: c}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// CreateFuzzer registers a normalized CFG payload and returns the new
// fuzzer id.
func (c *Client) CreateFuzzer(payload []byte) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var reply CreateFuzzerReply
	if err := c.conn.Call("Collector.CreateFuzzer", &CreateFuzzerArgs{Payload: payload}, &reply); err != nil {
		return 0, fmt.Errorf("rpcwire: create fuzzer: %w", err)
	}
	return reply.FuzzerID, nil
}

// UpdateFeatures reports one execution's sancov hits and returns the
// resulting corpus-priority diff.
func (c *Client) UpdateFeatures(fuzzerID, corpusID uint64, hits []fuzzerengine.FeatureHit) (added, dropped []uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	args := &UpdateFeaturesArgs{FuzzerID: fuzzerID, CorpusID: corpusID, Hits: hits}
	var reply UpdateFeaturesReply
	if err := c.conn.Call("Collector.UpdateFeatures", args, &reply); err != nil {
		return nil, nil, fmt.Errorf("rpcwire: update features: %w", err)
	}
	return reply.Added, reply.Dropped, nil
}
