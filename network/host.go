// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ava-labs/counterflood/utils/logging"
)

// Subscriber is notified of every payload delivered to the upper layer.
// Deliver must not block.
type Subscriber interface {
	Deliver(payload []byte)
}

// HostSink hands the payloads of newly heard broadcasts to the local upper
// layer: an optional link and any number of subscribers.
type HostSink struct {
	log  logging.Logger
	link Link

	lock        sync.RWMutex
	subscribers []Subscriber
	delivered   uint64
}

// NewHostSink returns a sink that forwards payloads over [link]. A nil
// [link] only notifies subscribers.
func NewHostSink(log logging.Logger, link Link) *HostSink {
	return &HostSink{
		log:  log,
		link: link,
	}
}

func (s *HostSink) Subscribe(subscriber Subscriber) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.subscribers = append(s.subscribers, subscriber)
}

// Deliver is safe to call while holding the node's lock. The subscribers
// share [payload] and must not modify it.
func (s *HostSink) Deliver(payload []byte) {
	s.lock.Lock()
	s.delivered++
	subscribers := s.subscribers
	s.lock.Unlock()

	if s.link != nil {
		if err := s.link.Send(payload); err != nil {
			s.log.Warn("couldn't deliver payload to host",
				zap.Int("length", len(payload)),
				zap.Error(err),
			)
		}
	}
	for _, subscriber := range subscribers {
		subscriber.Deliver(payload)
	}
}

// Delivered returns the number of payloads handed to the upper layer.
func (s *HostSink) Delivered() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.delivered
}
