// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/counterflood/utils/logging"
)

type recordingSubscriber struct {
	payloads [][]byte
}

func (s *recordingSubscriber) Deliver(payload []byte) {
	s.payloads = append(s.payloads, payload)
}

func TestHostSinkDeliver(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	link := NewMockLink(ctrl)
	sink := NewHostSink(logging.NoLog{}, link)
	subscriber := &recordingSubscriber{}
	sink.Subscribe(subscriber)

	link.EXPECT().Send([]byte("one")).Return(nil)
	link.EXPECT().Send([]byte("two")).Return(errors.New("unreachable"))

	sink.Deliver([]byte("one"))
	sink.Deliver([]byte("two"))

	require.Equal([][]byte{[]byte("one"), []byte("two")}, subscriber.payloads)
	require.Equal(uint64(2), sink.Delivered())
}

func TestHostSinkWithoutLink(t *testing.T) {
	require := require.New(t)

	sink := NewHostSink(logging.NoLog{}, nil)
	sink.Deliver([]byte("dropped"))
	require.Equal(uint64(1), sink.Delivered())
}
