// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package control

import (
	"context"

	"github.com/ava-labs/counterflood/api"
	"github.com/ava-labs/counterflood/flood"
	"github.com/ava-labs/counterflood/utils/rpc"

	cjson "github.com/ava-labs/counterflood/utils/json"
)

var _ Client = (*client)(nil)

// Client for the flood API endpoint
type Client interface {
	GetDebug(context.Context, ...rpc.Option) (bool, error)
	SetDebug(ctx context.Context, debug bool, options ...rpc.Option) error
	GetCount(context.Context, ...rpc.Option) (uint32, error)
	SetCount(ctx context.Context, count uint32, options ...rpc.Option) error
	GetStats(context.Context, ...rpc.Option) (flood.Stats, error)
	GetPackets(context.Context, ...rpc.Option) ([]flood.RecordSnapshot, error)
	ReadHandler(ctx context.Context, name string, options ...rpc.Option) (string, error)
	WriteHandler(ctx context.Context, name, value string, options ...rpc.Option) error
	Originate(ctx context.Context, payload []byte, options ...rpc.Option) error
	GetNodeVersion(context.Context, ...rpc.Option) (*NodeVersionReply, error)
}

type client struct {
	requester rpc.EndpointRequester
}

// NewClient returns a client for the node whose API is served at [uri], e.g.
// "http://127.0.0.1:9650".
func NewClient(uri string) Client {
	return &client{requester: rpc.NewEndpointRequester(
		uri+"/ext/"+ServiceName,
		ServiceName,
	)}
}

func (c *client) GetDebug(ctx context.Context, options ...rpc.Option) (bool, error) {
	res := &DebugReply{}
	err := c.requester.SendRequest(ctx, "getDebug", struct{}{}, res, options...)
	return res.Debug, err
}

func (c *client) SetDebug(ctx context.Context, debug bool, options ...rpc.Option) error {
	return c.requester.SendRequest(ctx, "setDebug", &SetDebugArgs{
		Debug: debug,
	}, &api.EmptyReply{}, options...)
}

func (c *client) GetCount(ctx context.Context, options ...rpc.Option) (uint32, error) {
	res := &CountReply{}
	err := c.requester.SendRequest(ctx, "getCount", struct{}{}, res, options...)
	return uint32(res.Count), err
}

func (c *client) SetCount(ctx context.Context, count uint32, options ...rpc.Option) error {
	return c.requester.SendRequest(ctx, "setCount", &SetCountArgs{
		Count: cjson.Uint32(count),
	}, &api.EmptyReply{}, options...)
}

func (c *client) GetStats(ctx context.Context, options ...rpc.Option) (flood.Stats, error) {
	res := &StatsReply{}
	err := c.requester.SendRequest(ctx, "getStats", struct{}{}, res, options...)
	return flood.Stats{
		Originated:  uint64(res.Originated),
		Transmitted: uint64(res.Transmitted),
		Received:    uint64(res.Received),
	}, err
}

func (c *client) GetPackets(ctx context.Context, options ...rpc.Option) ([]flood.RecordSnapshot, error) {
	res := &PacketsReply{}
	err := c.requester.SendRequest(ctx, "getPackets", struct{}{}, res, options...)
	return res.Packets, err
}

func (c *client) ReadHandler(ctx context.Context, name string, options ...rpc.Option) (string, error) {
	res := &HandlerReply{}
	err := c.requester.SendRequest(ctx, "readHandler", &HandlerArgs{
		Name: name,
	}, res, options...)
	return res.Value, err
}

func (c *client) WriteHandler(ctx context.Context, name, value string, options ...rpc.Option) error {
	return c.requester.SendRequest(ctx, "writeHandler", &HandlerArgs{
		Name:  name,
		Value: value,
	}, &api.EmptyReply{}, options...)
}

func (c *client) Originate(ctx context.Context, payload []byte, options ...rpc.Option) error {
	return c.requester.SendRequest(ctx, "originate", &OriginateArgs{
		Payload: payload,
	}, &api.EmptyReply{}, options...)
}

func (c *client) GetNodeVersion(ctx context.Context, options ...rpc.Option) (*NodeVersionReply, error) {
	res := &NodeVersionReply{}
	err := c.requester.SendRequest(ctx, "getNodeVersion", struct{}{}, res, options...)
	return res, err
}
