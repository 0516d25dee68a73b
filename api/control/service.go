// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package control

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/rpc/v2"
	"go.uber.org/zap"

	"github.com/ava-labs/counterflood/api"
	"github.com/ava-labs/counterflood/flood"
	"github.com/ava-labs/counterflood/message"
	"github.com/ava-labs/counterflood/utils/logging"
	"github.com/ava-labs/counterflood/version"

	cjson "github.com/ava-labs/counterflood/utils/json"
)

const ServiceName = "flood"

var (
	errEmptyPayload = errors.New("payload is empty")
	errPayloadSize  = errors.New("payload is too large")
)

// Controller is the part of flood.Controller served over the API.
type Controller interface {
	Debug() bool
	SetDebug(bool)
	Threshold() uint32
	SetThreshold(uint32)
	Stats() flood.Stats
	Packets() []flood.RecordSnapshot
	ReadHandler(name string) (string, error)
	WriteHandler(name, value string) error
	Push(port flood.Port, packet []byte)
}

// Service is the API service for inspecting and adjusting a flood
// controller at runtime.
type Service struct {
	log        logging.Logger
	lock       sync.Locker
	controller Controller
}

// NewService returns an http handler serving the flood API. Every call holds
// [lock] while it touches [controller].
func NewService(log logging.Logger, lock sync.Locker, controller Controller) (http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(&Service{
		log:        log,
		lock:       lock,
		controller: controller,
	}, ServiceName)
}

type DebugReply struct {
	Debug bool `json:"debug"`
}

// GetDebug returns whether per-packet logging is enabled.
func (s *Service) GetDebug(_ *http.Request, _ *struct{}, reply *DebugReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "getDebug"),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	reply.Debug = s.controller.Debug()
	return nil
}

type SetDebugArgs struct {
	Debug bool `json:"debug"`
}

func (s *Service) SetDebug(_ *http.Request, args *SetDebugArgs, _ *api.EmptyReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "setDebug"),
		zap.Bool("debug", args.Debug),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.controller.SetDebug(args.Debug)
	return nil
}

type CountReply struct {
	Count cjson.Uint32 `json:"count"`
}

// GetCount returns the suppression threshold given to new broadcasts.
func (s *Service) GetCount(_ *http.Request, _ *struct{}, reply *CountReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "getCount"),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	reply.Count = cjson.Uint32(s.controller.Threshold())
	return nil
}

type SetCountArgs struct {
	Count cjson.Uint32 `json:"count"`
}

// SetCount changes the suppression threshold of broadcasts heard from now on.
func (s *Service) SetCount(_ *http.Request, args *SetCountArgs, _ *api.EmptyReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "setCount"),
		zap.Uint32("count", uint32(args.Count)),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.controller.SetThreshold(uint32(args.Count))
	return nil
}

type StatsReply struct {
	Originated  cjson.Uint64 `json:"originated"`
	Transmitted cjson.Uint64 `json:"transmitted"`
	Received    cjson.Uint64 `json:"received"`
}

func (s *Service) GetStats(_ *http.Request, _ *struct{}, reply *StatsReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "getStats"),
	)

	s.lock.Lock()
	stats := s.controller.Stats()
	s.lock.Unlock()

	reply.Originated = cjson.Uint64(stats.Originated)
	reply.Transmitted = cjson.Uint64(stats.Transmitted)
	reply.Received = cjson.Uint64(stats.Received)
	return nil
}

type PacketsReply struct {
	Packets []flood.RecordSnapshot `json:"packets"`
}

// GetPackets returns the remembered broadcasts, oldest first.
func (s *Service) GetPackets(_ *http.Request, _ *struct{}, reply *PacketsReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "getPackets"),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	reply.Packets = s.controller.Packets()
	return nil
}

type HandlerArgs struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

type HandlerReply struct {
	Value string `json:"value"`
}

// ReadHandler returns the text rendering of a named handler.
func (s *Service) ReadHandler(_ *http.Request, args *HandlerArgs, reply *HandlerReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "readHandler"),
		zap.String("name", args.Name),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	value, err := s.controller.ReadHandler(args.Name)
	reply.Value = value
	return err
}

// WriteHandler sets a named handler from its text rendering.
func (s *Service) WriteHandler(_ *http.Request, args *HandlerArgs, _ *api.EmptyReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "writeHandler"),
		zap.String("name", args.Name),
		zap.String("value", args.Value),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.controller.WriteHandler(args.Name, args.Value)
}

type OriginateArgs struct {
	// Payload is base64 encoded.
	Payload []byte `json:"payload"`
}

// Originate starts a new broadcast carrying [args.Payload], as if the local
// upper layer had sent it.
func (s *Service) Originate(_ *http.Request, args *OriginateArgs, _ *api.EmptyReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "originate"),
		zap.Int("length", len(args.Payload)),
	)

	switch {
	case len(args.Payload) == 0:
		return errEmptyPayload
	case len(args.Payload) > message.MaxPayloadLen:
		return fmt.Errorf("%w: %d > %d", errPayloadSize, len(args.Payload), message.MaxPayloadLen)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.controller.Push(flood.HostPort, args.Payload)
	return nil
}

type NodeVersionReply struct {
	Version   *version.Application `json:"version"`
	GitCommit string               `json:"gitCommit"`
}

// GetNodeVersion returns the version of the node serving the API.
func (s *Service) GetNodeVersion(_ *http.Request, _ *struct{}, reply *NodeVersionReply) error {
	s.log.Debug("API called",
		zap.String("service", ServiceName),
		zap.String("method", "getNodeVersion"),
	)

	reply.Version = version.Current
	reply.GitCommit = version.GitCommit
	return nil
}
