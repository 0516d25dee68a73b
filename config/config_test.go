// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/counterflood/flood"
	"github.com/ava-labs/counterflood/utils/logging"
)

var requiredArgs = []string{
	"--" + EtherTypeKey + "=0x0a0a",
	"--" + IPKey + "=10.0.0.1",
	"--" + BroadcastIPKey + "=10.255.255.255",
	"--" + EthKey + "=02:00:00:00:00:01",
	"--" + CountKey + "=3",
	"--" + LinkNeighborsKey + "=10.0.0.2:9651,10.0.0.3:9651",
}

func setupViper(t *testing.T, args ...string) *viper.Viper {
	require := require.New(t)

	fs := pflag.NewFlagSet("counterflood", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(fs.Parse(args))

	v, err := BuildViper(fs)
	require.NoError(err)
	return v
}

func TestGetNodeConfigDefaults(t *testing.T) {
	require := require.New(t)

	v := setupViper(t, requiredArgs...)
	config, err := GetNodeConfig(v)
	require.NoError(err)

	require.Equal(flood.Config{
		EtherType:   0x0a0a,
		IP:          netip.MustParseAddr("10.0.0.1"),
		BroadcastIP: netip.MustParseAddr("10.255.255.255"),
		MAC:         net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01},
		Count:       3,
		MaxDelay:    flood.DefaultMaxDelay,
		History:     flood.DefaultHistory,
	}, config.Flood)
	require.Equal(defaultLinkListen, config.Link.ListenAddress)
	require.Equal([]string{"10.0.0.2:9651", "10.0.0.3:9651"}, config.Link.Neighbors)
	require.False(config.Host.Enabled())
	require.True(config.HTTP.Enabled)
	require.Equal(uint16(defaultHTTPPort), config.HTTP.Port)
	require.Equal(defaultHealthCheckFreq, config.HealthCheckFreq)
	require.Equal(logging.Info, config.Logging.LogLevel)
	require.Equal(logging.Info, config.Logging.DisplayLevel)
	require.Empty(config.Logging.Directory)
}

func TestGetNodeConfigOverrides(t *testing.T) {
	require := require.New(t)

	args := append([]string{
		"--" + MaxDelayKey + "=0",
		"--" + HistoryKey + "=5",
		"--" + DebugKey,
		"--" + HostListenKey + "=127.0.0.1:7000",
		"--" + HostRateKey + "=2.5",
		"--" + LogLevelKey + "=debug",
		"--" + LogDisplayLevelKey + "=warn",
		"--" + LogFormatKey + "=json",
	}, requiredArgs...)
	v := setupViper(t, args...)
	config, err := GetNodeConfig(v)
	require.NoError(err)

	require.Zero(config.Flood.MaxDelay)
	require.Equal(5, config.Flood.History)
	require.True(config.Flood.Debug)
	require.True(config.Host.Enabled())
	require.Equal(2.5, config.Host.Rate)
	require.Equal(defaultHostBurst, config.Host.Burst)
	require.Equal(logging.Debug, config.Logging.LogLevel)
	require.Equal(logging.Warn, config.Logging.DisplayLevel)
	require.Equal(logging.JSON, config.Logging.LogFormat)
}

func TestGetNodeConfigMissingKeys(t *testing.T) {
	require := require.New(t)

	v := setupViper(t)
	_, err := GetNodeConfig(v)
	require.ErrorIs(err, errMissingKey)
	for _, key := range requiredKeys {
		require.ErrorContains(err, key)
	}
}

func TestGetNodeConfigInvalidValues(t *testing.T) {
	tests := []struct {
		name        string
		arg         string
		expectedErr error
	}{
		{
			name:        "ethertype too large",
			arg:         "--" + EtherTypeKey + "=0x10000",
			expectedErr: errInvalidEtherType,
		},
		{
			name:        "ethertype not a number",
			arg:         "--" + EtherTypeKey + "=ip",
			expectedErr: errInvalidEtherType,
		},
		{
			name:        "invalid ip",
			arg:         "--" + IPKey + "=10.0.0",
			expectedErr: errInvalidIP,
		},
		{
			name:        "invalid broadcast ip",
			arg:         "--" + BroadcastIPKey + "=broadcast",
			expectedErr: errInvalidIP,
		},
		{
			name:        "invalid mac",
			arg:         "--" + EthKey + "=02:00",
			expectedErr: errInvalidMAC,
		},
		{
			name:        "zero history",
			arg:         "--" + HistoryKey + "=0",
			expectedErr: flood.ErrInvalidConfig,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Later flags override the required ones.
			args := append(append([]string{}, requiredArgs...), test.arg)
			v := setupViper(t, args...)
			_, err := GetNodeConfig(v)
			require.ErrorIs(t, err, test.expectedErr)
		})
	}
}

func TestGetNodeConfigUnknownLogLevel(t *testing.T) {
	args := append([]string{"--" + LogLevelKey + "=loud"}, requiredArgs...)
	v := setupViper(t, args...)
	_, err := GetNodeConfig(v)
	require.ErrorContains(t, err, "unknown log level")
}

func TestParseEtherType(t *testing.T) {
	require := require.New(t)

	for input, expected := range map[string]uint16{
		"0x0a0a":   0x0a0a,
		"2570":     2570,
		" 0xFFFF ": 0xffff,
	} {
		etherType, err := parseEtherType(input)
		require.NoError(err)
		require.Equal(expected, etherType)
	}
}

func TestConfigFile(t *testing.T) {
	require := require.New(t)

	configFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(os.WriteFile(configFile, []byte(`{
		"ethtype": "2570",
		"ip": "fd00::1",
		"bcast-ip": "fd00::ff",
		"eth": "02:00:00:00:00:02",
		"count": 0,
		"max-delay": 100,
		"link-neighbors": ["[fd00::2]:9651"],
		"health-check-frequency": "5s"
	}`), 0o600))

	// Flags take precedence over the file.
	v := setupViper(t,
		"--"+ConfigFileKey+"="+configFile,
		"--"+CountKey+"=2",
	)
	config, err := GetNodeConfig(v)
	require.NoError(err)

	require.Equal(uint16(2570), config.Flood.EtherType)
	require.Equal(netip.MustParseAddr("fd00::1"), config.Flood.IP)
	require.Equal(uint32(2), config.Flood.Count)
	require.Equal(100*time.Millisecond, config.Flood.MaxDelay)
	require.Equal([]string{"[fd00::2]:9651"}, config.Link.Neighbors)
	require.Equal(5*time.Second, config.HealthCheckFreq)
}

func TestEnvironment(t *testing.T) {
	require := require.New(t)

	t.Setenv("COUNTERFLOOD_ETHTYPE", "0x0a0b")
	t.Setenv("COUNTERFLOOD_MAX_DELAY", "20")

	v := setupViper(t,
		"--"+IPKey+"=10.0.0.1",
		"--"+BroadcastIPKey+"=10.255.255.255",
		"--"+EthKey+"=02:00:00:00:00:01",
		"--"+CountKey+"=1",
		"--"+LinkNeighborsKey+"=10.0.0.2:9651",
	)
	config, err := GetNodeConfig(v)
	require.NoError(err)

	require.Equal(uint16(0x0a0b), config.Flood.EtherType)
	require.Equal(20*time.Millisecond, config.Flood.MaxDelay)
}

func TestMalformedNumericValues(t *testing.T) {
	withoutCount := []string{
		"--" + EtherTypeKey + "=0x0a0a",
		"--" + IPKey + "=10.0.0.1",
		"--" + BroadcastIPKey + "=10.255.255.255",
		"--" + EthKey + "=02:00:00:00:00:01",
		"--" + LinkNeighborsKey + "=10.0.0.2:9651",
	}

	t.Run("env count not a number", func(t *testing.T) {
		require := require.New(t)

		t.Setenv("COUNTERFLOOD_COUNT", "abc")

		_, err := GetNodeConfig(setupViper(t, withoutCount...))
		require.ErrorIs(err, errInvalidValue)
		require.ErrorContains(err, CountKey)
	})

	t.Run("env history not a number", func(t *testing.T) {
		require := require.New(t)

		t.Setenv("COUNTERFLOOD_HISTORY", "many")

		_, err := GetNodeConfig(setupViper(t, requiredArgs...))
		require.ErrorIs(err, errInvalidValue)
		require.ErrorContains(err, HistoryKey)
	})

	t.Run("file count negative and max delay not a number", func(t *testing.T) {
		require := require.New(t)

		configFile := filepath.Join(t.TempDir(), "config.json")
		require.NoError(os.WriteFile(configFile, []byte(`{
			"count": -3,
			"max-delay": "soon"
		}`), 0o600))

		args := append([]string{"--" + ConfigFileKey + "=" + configFile}, withoutCount...)
		_, err := GetNodeConfig(setupViper(t, args...))
		require.ErrorIs(err, errInvalidValue)
		require.ErrorContains(err, CountKey)
		require.ErrorContains(err, MaxDelayKey)
	})
}

func TestMissingConfigFile(t *testing.T) {
	require := require.New(t)

	fs := pflag.NewFlagSet("counterflood", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(fs.Parse([]string{
		"--" + ConfigFileKey + "=" + filepath.Join(t.TempDir(), "missing.json"),
	}))

	_, err := BuildViper(fs)
	require.Error(err)
}
