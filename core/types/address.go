package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidAddress is returned for addresses that fail validation.
var ErrInvalidAddress = errors.New("types: invalid address")

const (
	minAddressLen = 3
	maxAddressLen = 128
)

// ValidateAddress applies the host's address rules: 3 to 128 characters,
// lowercase, no whitespace.
func ValidateAddress(addr string) error {
	if len(addr) < minAddressLen || len(addr) > maxAddressLen {
		return fmt.Errorf("%w: %q has invalid length", ErrInvalidAddress, addr)
	}
	if strings.ToLower(addr) != addr {
		return fmt.Errorf("%w: %q is not normalized", ErrInvalidAddress, addr)
	}
	for _, r := range addr {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidAddress, addr)
		}
	}
	return nil
}
