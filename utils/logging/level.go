// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

const (
	alignedStringLen = 5
	unknownStr       = "UNKNO"
)

var (
	_ pflag.Value = (*Level)(nil)

	errUnknownLevel = errors.New("unknown log level")
)

// Level is kept below every zap level so that zap never applies its own
// Fatal/Panic side effects to our entries.
type Level zapcore.Level

const (
	Verbo Level = iota - 9
	Debug
	Trace
	Info
	Warn
	Error
	Fatal
	Off
)

type levelInfo struct {
	name  string
	color Color
}

var levelInfos = map[Level]levelInfo{
	Verbo: {name: "VERBO", color: LightGreen},
	Debug: {name: "DEBUG", color: LightBlue},
	Trace: {name: "TRACE", color: LightPurple},
	// Reset rather than white keeps info readable on light terminals.
	Info:  {name: "INFO", color: Reset},
	Warn:  {name: "WARN", color: Yellow},
	Error: {name: "ERROR", color: Orange},
	Fatal: {name: "FATAL", color: Red},
	Off:   {name: "OFF", color: Reset},
}

// ToLevel is the case insensitive inverse of Level.String.
func ToLevel(l string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(l))
	for level, info := range levelInfos {
		if info.name == name {
			return level, nil
		}
	}
	return Off, fmt.Errorf("%w: %q", errUnknownLevel, l)
}

func (l Level) String() string {
	if info, ok := levelInfos[l]; ok {
		return info.name
	}
	return unknownStr
}

func (l Level) Color() Color {
	if info, ok := levelInfos[l]; ok {
		return info.color
	}
	return Reset
}

// AlignedString pads or truncates the level name to [alignedStringLen] so
// that log lines stay aligned.
func (l Level) AlignedString() string {
	s := l.String()
	if len(s) >= alignedStringLen {
		return s[:alignedStringLen]
	}
	return s + strings.Repeat(" ", alignedStringLen-len(s))
}

func (l *Level) Set(s string) error {
	level, err := ToLevel(s)
	if err != nil {
		return err
	}
	*l = level
	return nil
}

func (*Level) Type() string {
	return "level"
}

func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	return l.Set(str)
}
