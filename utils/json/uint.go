// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package json

import "strconv"

// Uint32 is encoded as a quoted decimal string.
type Uint32 uint32

func (u Uint32) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(u), 10) + `"`), nil
}

func (u *Uint32) UnmarshalJSON(b []byte) error {
	if string(b) == Null {
		return nil
	}
	val, err := parseUint(b, 32)
	*u = Uint32(val)
	return err
}

// Uint64 is encoded as a quoted decimal string so that it survives clients
// that parse numbers as doubles.
type Uint64 uint64

func (u Uint64) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(u), 10) + `"`), nil
}

func (u *Uint64) UnmarshalJSON(b []byte) error {
	if string(b) == Null {
		return nil
	}
	val, err := parseUint(b, 64)
	*u = Uint64(val)
	return err
}

func parseUint(b []byte, bitSize int) (uint64, error) {
	str := string(b)
	if len(str) >= 2 {
		if lastIndex := len(str) - 1; str[0] == '"' && str[lastIndex] == '"' {
			str = str[1:lastIndex]
		}
	}
	return strconv.ParseUint(str, 10, bitSize)
}
