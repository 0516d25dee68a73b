// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/ava-labs/counterflood/api/server"
	"github.com/ava-labs/counterflood/flood"
)

const (
	defaultLinkListen      = "0.0.0.0:9651"
	defaultHTTPHost        = "127.0.0.1"
	defaultHTTPPort        = 9650
	defaultHostBurst       = 16
	defaultHealthCheckFreq = 30 * time.Second
)

// AddFlags adds every counterflood flag to [fs].
func AddFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFileKey, "", "Specifies a config file (json, yaml or toml)")

	// Flood
	fs.String(EtherTypeKey, "", "Ethertype of flooded frames, in decimal or 0x prefixed hex (required)")
	fs.String(IPKey, "", "IP address identifying this node (required)")
	fs.String(BroadcastIPKey, "", "Broadcast IP address flooded frames are sent to (required)")
	fs.String(EthKey, "", "MAC address of this node's link (required)")
	fs.Uint32(CountKey, 0, "Suppression threshold. 0 always forwards, 1 never forwards, k>1 suppresses after k copies are heard (required)")
	fs.Uint64(MaxDelayKey, uint64(flood.DefaultMaxDelay/time.Millisecond), "Upper bound, in milliseconds, of the random delay before a retransmission")
	fs.Int(HistoryKey, flood.DefaultHistory, "Number of broadcasts remembered")
	fs.Bool(DebugKey, false, "Log every packet")
	fs.Uint64(RandomSeedKey, 0, "Seed of the retransmission jitter. 0 seeds from the current time")

	// Links
	fs.String(LinkListenKey, defaultLinkListen, "UDP address frames are received on")
	fs.StringSlice(LinkNeighborsKey, nil, "UDP addresses frames are sent to")
	fs.String(HostListenKey, "", "UDP address the upper layer sends payloads to. Empty disables origination over UDP")
	fs.String(HostDeliverKey, "", "UDP address payloads of newly heard broadcasts are delivered to. Empty disables delivery over UDP")
	fs.Float64(HostRateKey, 0, "Maximum number of payloads originated per second. 0 disables the limit")
	fs.Int(HostBurstKey, defaultHostBurst, "Number of payloads that may be originated at once when the host rate is limited")

	// APIs
	fs.Bool(HTTPEnabledKey, true, "If true, serve the HTTP APIs")
	fs.String(HTTPHostKey, defaultHTTPHost, "Address of the HTTP server")
	fs.Uint16(HTTPPortKey, defaultHTTPPort, "Port of the HTTP server")
	fs.StringSlice(HTTPAllowedOriginsKey, []string{"*"}, "Origins to allow on the HTTP port")
	fs.Bool(HTTPProxyProtocolKey, false, "If true, read client addresses from PROXY protocol headers")
	fs.Duration(HTTPShutdownTimeoutKey, server.DefaultShutdownTimeout, "Maximum duration to wait for existing connections to complete during shutdown")
	fs.Duration(HealthCheckFreqKey, defaultHealthCheckFreq, "Time between health checks")

	// Logging
	fs.String(LogsDirKey, "", "Logging directory. Empty disables logging to a file")
	fs.String(LogLevelKey, "info", "The log level. Should be one of {verbo, debug, trace, info, warn, error, fatal, off}")
	fs.String(LogDisplayLevelKey, "", "The log display level. If left blank, will inherit the value of log-level")
	fs.String(LogFormatKey, "auto", "The structure of log format. Should be one of {auto, plain, colors, json}")
	fs.Bool(LogDisableDisplayKey, false, "If true, logs aren't displayed on stdout")
	fs.Uint(LogRotaterMaxSizeKey, 8, "The maximum file size in megabytes of the log file before it gets rotated")
	fs.Uint(LogRotaterMaxFilesKey, 7, "The maximum number of old log files to retain. 0 means all")
	fs.Uint(LogRotaterMaxAgeKey, 0, "The maximum number of days to retain old log files. 0 means all")
	fs.Bool(LogRotaterCompressEnabledKey, false, "If true, rotated log files are compressed with gzip")
}
