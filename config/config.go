// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/counterflood/api/server"
	"github.com/ava-labs/counterflood/flood"
	"github.com/ava-labs/counterflood/node"
	"github.com/ava-labs/counterflood/utils/logging"
	"github.com/ava-labs/counterflood/utils/wrappers"
)

const envPrefix = "counterflood"

var (
	errMissingKey       = errors.New("missing required key")
	errInvalidEtherType = errors.New("invalid ethertype")
	errInvalidIP        = errors.New("invalid ip")
	errInvalidMAC       = errors.New("invalid eth")
	errInvalidValue     = errors.New("invalid value")
)

// BuildViper binds the already parsed [fs] and the COUNTERFLOOD_* environment
// variables. If a config file is specified, it is read as well. Flags take
// precedence over the environment, which takes precedence over the file.
func BuildViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if v.IsSet(ConfigFileKey) {
		v.SetConfigFile(os.ExpandEnv(v.GetString(ConfigFileKey)))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config file: %w", err)
		}
	}
	return v, nil
}

// GetNodeConfig returns the verified node config described by [v].
func GetNodeConfig(v *viper.Viper) (node.Config, error) {
	floodConfig, err := getFloodConfig(v)
	if err != nil {
		return node.Config{}, err
	}

	loggingConfig, err := getLoggingConfig(v)
	if err != nil {
		return node.Config{}, err
	}

	config := node.Config{
		Flood: floodConfig,
		Link: node.LinkConfig{
			ListenAddress: v.GetString(LinkListenKey),
			Neighbors:     v.GetStringSlice(LinkNeighborsKey),
		},
		Host: node.HostConfig{
			ListenAddress:  v.GetString(HostListenKey),
			DeliverAddress: v.GetString(HostDeliverKey),
			Rate:           v.GetFloat64(HostRateKey),
			Burst:          v.GetInt(HostBurstKey),
		},
		HTTP: node.HTTPConfig{
			Config: server.Config{
				Host:            v.GetString(HTTPHostKey),
				Port:            uint16(v.GetUint(HTTPPortKey)),
				AllowedOrigins:  v.GetStringSlice(HTTPAllowedOriginsKey),
				ShutdownTimeout: v.GetDuration(HTTPShutdownTimeoutKey),
				ProxyProtocol:   v.GetBool(HTTPProxyProtocolKey),
			},
			Enabled: v.GetBool(HTTPEnabledKey),
		},
		Logging:         loggingConfig,
		HealthCheckFreq: v.GetDuration(HealthCheckFreqKey),
		RandomSeed:      v.GetUint64(RandomSeedKey),
	}
	return config, config.Verify()
}

func getFloodConfig(v *viper.Viper) (flood.Config, error) {
	errs := wrappers.AllErrs{}
	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			errs.Add(fmt.Errorf("%w: %s", errMissingKey, key))
		}
	}
	if err := errs.Err(); err != nil {
		return flood.Config{}, err
	}

	etherType, err := parseEtherType(v.GetString(EtherTypeKey))
	if err != nil {
		return flood.Config{}, err
	}
	ip, err := netip.ParseAddr(v.GetString(IPKey))
	if err != nil {
		return flood.Config{}, fmt.Errorf("%w %s: %w", errInvalidIP, IPKey, err)
	}
	broadcastIP, err := netip.ParseAddr(v.GetString(BroadcastIPKey))
	if err != nil {
		return flood.Config{}, fmt.Errorf("%w %s: %w", errInvalidIP, BroadcastIPKey, err)
	}
	mac, err := net.ParseMAC(v.GetString(EthKey))
	if err != nil {
		return flood.Config{}, fmt.Errorf("%w: %w", errInvalidMAC, err)
	}

	// Environment and config file values are not type checked by pflag, so the
	// numeric keys are cast explicitly rather than defaulting to 0.
	count, err := cast.ToUint32E(v.Get(CountKey))
	errs.Add(invalidValue(CountKey, err))
	maxDelay, err := cast.ToUint64E(v.Get(MaxDelayKey))
	errs.Add(invalidValue(MaxDelayKey, err))
	history, err := cast.ToIntE(v.Get(HistoryKey))
	errs.Add(invalidValue(HistoryKey, err))
	if err := errs.Err(); err != nil {
		return flood.Config{}, err
	}

	return flood.Config{
		EtherType:   etherType,
		IP:          ip,
		BroadcastIP: broadcastIP,
		MAC:         mac,
		Count:       count,
		MaxDelay:    time.Duration(maxDelay) * time.Millisecond,
		History:     history,
		Debug:       v.GetBool(DebugKey),
	}, nil
}

func invalidValue(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w %s: %w", errInvalidValue, key, err)
}

// parseEtherType accepts decimal, 0x prefixed hex and 0 prefixed octal.
func parseEtherType(s string) (uint16, error) {
	etherType, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", errInvalidEtherType, s, err)
	}
	return uint16(etherType), nil
}

func getLoggingConfig(v *viper.Viper) (logging.Config, error) {
	loggingConfig := logging.Config{}
	if v.IsSet(LogsDirKey) {
		loggingConfig.Directory = os.ExpandEnv(v.GetString(LogsDirKey))
	}

	var err error
	loggingConfig.LogLevel, err = logging.ToLevel(v.GetString(LogLevelKey))
	if err != nil {
		return loggingConfig, err
	}

	logDisplayLevel := v.GetString(LogLevelKey)
	if v.IsSet(LogDisplayLevelKey) {
		logDisplayLevel = v.GetString(LogDisplayLevelKey)
	}
	loggingConfig.DisplayLevel, err = logging.ToLevel(logDisplayLevel)
	if err != nil {
		return loggingConfig, err
	}

	loggingConfig.LogFormat, err = logging.ToFormat(v.GetString(LogFormatKey), os.Stdout.Fd())
	if err != nil {
		return loggingConfig, err
	}

	loggingConfig.DisableWriterDisplaying = v.GetBool(LogDisableDisplayKey)
	loggingConfig.MaxSize = int(v.GetUint(LogRotaterMaxSizeKey))
	loggingConfig.MaxFiles = int(v.GetUint(LogRotaterMaxFilesKey))
	loggingConfig.MaxAge = int(v.GetUint(LogRotaterMaxAgeKey))
	loggingConfig.Compress = v.GetBool(LogRotaterCompressEnabledKey)
	return loggingConfig, nil
}
