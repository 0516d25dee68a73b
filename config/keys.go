// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	ConfigFileKey = "config-file"
	VersionKey    = "version"

	// Flood
	EtherTypeKey   = "ethtype"
	IPKey          = "ip"
	BroadcastIPKey = "bcast-ip"
	EthKey         = "eth"
	CountKey       = "count"
	MaxDelayKey    = "max-delay"
	HistoryKey     = "history"
	DebugKey       = "debug"
	RandomSeedKey  = "random-seed"

	// Links
	LinkListenKey    = "link-listen"
	LinkNeighborsKey = "link-neighbors"
	HostListenKey    = "host-listen"
	HostDeliverKey   = "host-deliver"
	HostRateKey      = "host-rate"
	HostBurstKey     = "host-burst"

	// APIs
	HTTPEnabledKey         = "http-enabled"
	HTTPHostKey            = "http-host"
	HTTPPortKey            = "http-port"
	HTTPAllowedOriginsKey  = "http-allowed-origins"
	HTTPShutdownTimeoutKey = "http-shutdown-timeout"
	HTTPProxyProtocolKey   = "http-proxy-protocol"
	HealthCheckFreqKey     = "health-check-frequency"

	// Logging
	LogsDirKey                   = "log-dir"
	LogLevelKey                  = "log-level"
	LogDisplayLevelKey           = "log-display-level"
	LogFormatKey                 = "log-format"
	LogDisableDisplayKey         = "log-disable-display"
	LogRotaterMaxSizeKey         = "log-rotater-max-size"
	LogRotaterMaxFilesKey        = "log-rotater-max-files"
	LogRotaterMaxAgeKey          = "log-rotater-max-age"
	LogRotaterCompressEnabledKey = "log-rotater-compress-enabled"
)

// requiredKeys have no sensible default and must be provided.
var requiredKeys = []string{
	EtherTypeKey,
	IPKey,
	BroadcastIPKey,
	EthKey,
	CountKey,
}
