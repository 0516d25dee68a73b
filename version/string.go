// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package version

import (
	"fmt"
	"runtime"
	"strings"
)

// GitCommit is set at build time with
// -ldflags "-X github.com/ava-labs/counterflood/version.GitCommit=$(git rev-parse HEAD)"
var GitCommit string

// String describes this build for --version.
func String(commit string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [go=%s", Current, runtime.Version())
	if commit != "" {
		fmt.Fprintf(&sb, ", commit=%s", commit)
	}
	sb.WriteString("]\n")
	return sb.String()
}
