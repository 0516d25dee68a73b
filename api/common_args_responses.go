// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

// EmptyReply is the reply of API calls that only report success or an error.
type EmptyReply struct{}
