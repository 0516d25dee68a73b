// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import (
	"context"
	"time"

	"github.com/ava-labs/counterflood/utils/rpc"
)

type Client struct {
	Requester rpc.EndpointRequester
}

func NewClient(uri string) *Client {
	return &Client{Requester: rpc.NewEndpointRequester(
		uri+"/ext/"+ServiceName,
		ServiceName,
	)}
}

// Readiness returns if the node has finished initialization
func (c *Client) Readiness(ctx context.Context, options ...rpc.Option) (*APIReply, error) {
	res := &APIReply{}
	err := c.Requester.SendRequest(ctx, "readiness", struct{}{}, res, options...)
	return res, err
}

// Health returns a summation of the health of the node
func (c *Client) Health(ctx context.Context, options ...rpc.Option) (*APIReply, error) {
	res := &APIReply{}
	err := c.Requester.SendRequest(ctx, "health", struct{}{}, res, options...)
	return res, err
}

// Liveness returns if the node is in need of a restart
func (c *Client) Liveness(ctx context.Context, options ...rpc.Option) (*APIReply, error) {
	res := &APIReply{}
	err := c.Requester.SendRequest(ctx, "liveness", struct{}{}, res, options...)
	return res, err
}

// AwaitReady polls the node every [freq] until the node reports ready.
// Only returns an error if [ctx] returns an error.
func AwaitReady(ctx context.Context, c *Client, freq time.Duration, options ...rpc.Option) (bool, error) {
	return await(ctx, freq, c.Readiness, options...)
}

// AwaitHealthy polls the node every [freq] until the node reports healthy.
// Only returns an error if [ctx] returns an error.
func AwaitHealthy(ctx context.Context, c *Client, freq time.Duration, options ...rpc.Option) (bool, error) {
	return await(ctx, freq, c.Health, options...)
}

func await(
	ctx context.Context,
	freq time.Duration,
	check func(ctx context.Context, options ...rpc.Option) (*APIReply, error),
	options ...rpc.Option,
) (bool, error) {
	ticker := time.NewTicker(freq)
	defer ticker.Stop()

	for {
		res, err := check(ctx, options...)
		if err == nil && res.Healthy {
			return true, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
