// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingWriterConfig configures the file a logger writes to.
type RotatingWriterConfig struct {
	// MaxSize in megabytes of a log file before it gets rotated.
	MaxSize int `json:"maxSize"`
	// MaxFiles is the number of rotated files to keep.
	MaxFiles int `json:"maxFiles"`
	// MaxAge in days to retain rotated files.
	MaxAge    int    `json:"maxAge"`
	Directory string `json:"directory"`
	Compress  bool   `json:"compress"`
}

// Config defines the configuration of a logger
type Config struct {
	RotatingWriterConfig
	DisableWriterDisplaying bool   `json:"disableWriterDisplaying"`
	LogLevel                Level  `json:"logLevel"`
	DisplayLevel            Level  `json:"displayLevel"`
	LogFormat               Format `json:"logFormat"`
}

// New builds a logger named [name] from [config]. Logs are displayed on
// stdout at [config.DisplayLevel]. If a directory is configured, logs are
// also written to [name].log inside it at [config.LogLevel].
func New(name string, config Config) (Logger, error) {
	consoleCore := NewWrappedCore(config.DisplayLevel, stdout{}, config.LogFormat.ConsoleEncoder())
	consoleCore.WriterDisabled = config.DisableWriterDisplaying

	cores := []WrappedCore{consoleCore}
	if config.Directory != "" {
		if err := os.MkdirAll(config.Directory, 0o750); err != nil {
			return nil, err
		}
		rw := &lumberjack.Logger{
			Filename:   filepath.Join(config.Directory, name+".log"),
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxFiles,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		}
		cores = append(cores, NewWrappedCore(config.LogLevel, rw, config.LogFormat.FileEncoder()))
	}
	return NewLogger(name, cores...), nil
}

// stdout is never closed by Logger.Stop.
type stdout struct{}

func (stdout) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdout) Close() error {
	return nil
}
