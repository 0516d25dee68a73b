// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplicationString(t *testing.T) {
	tests := []struct {
		app      *Application
		expected string
	}{
		{
			app: &Application{
				Name:  Client,
				Patch: 1,
			},
			expected: "counterflood/0.0.1",
		},
		{
			app: &Application{
				Name:  "relay",
				Major: 10,
				Minor: 20,
				Patch: 30,
			},
			expected: "relay/10.20.30",
		},
	}
	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			require.Equal(t, test.expected, test.app.String())
		})
	}
}

func TestString(t *testing.T) {
	require := require.New(t)

	require.Contains(String(""), Current.String())
	require.NotContains(String(""), "commit=")
	require.Contains(String("abc"), "commit=abc]")
}
