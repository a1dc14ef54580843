// Package util provides common parsing helpers used across galaxygst.
package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAddress is returned for address strings that are not 32-bit integers.
var ErrInvalidAddress = errors.New("invalid address")

// ParseAddress parses a 32-bit address written as an integer literal with an
// optional base prefix: "0x80003FF8", "2147500024", "0o20000037770".
// Decimal values with leading zeros are rejected as ambiguous.
func ParseAddress(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return uint32(v), nil
}

// FormatAddress renders addr the way ParseAddress accepts it.
func FormatAddress(addr uint32) string {
	return fmt.Sprintf("0x%08X", addr)
}
