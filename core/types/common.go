// Package types defines the value types shared by the preconfirmation
// protocol: digests, identities, bids, commitments and stake accounts.
package types

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	HashLength    = 32
	AddressLength = 20
)

// Hash represents a 32-byte Keccak256 digest.
type Hash [HashLength]byte

// Address represents the 20-byte identity derived from a secp256k1 public key.
type Address [AddressLength]byte

// BytesToHash converts bytes to Hash, left-padding if shorter than 32 bytes.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts a hex string to Hash. Malformed input yields the zero hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the 0x-prefixed hex string representation of the hash.
func (h Hash) Hex() string { return fmt.Sprintf("0x%x", h[:]) }

// HexNoPrefix returns the lowercase hex encoding without the 0x marker.
func (h Hash) HexNoPrefix() string { return hex.EncodeToString(h[:]) }

// SetBytes sets the hash from a byte slice, left-padding if necessary.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// IsZero returns whether the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return hexutil.Bytes(h[:]).MarshalText()
}

// UnmarshalText decodes a 32-byte hex string; the 0x prefix is optional.
func (h *Hash) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Hash", withPrefix(input), h[:])
}

// BytesToAddress converts bytes to Address, left-padding if shorter than 20 bytes.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress converts a hex string to Address. Malformed input yields the
// zero address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

// IsHexAddress reports whether s is a 20-byte hex string, with or without 0x.
func IsHexAddress(s string) bool {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s) != 2*AddressLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Bytes returns the byte representation of the address.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the lowercase 0x-prefixed hex string representation.
func (a Address) Hex() string { return fmt.Sprintf("0x%x", a[:]) }

// SetBytes sets the address from a byte slice.
func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// IsZero returns whether the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return hexutil.Bytes(a[:]).MarshalText()
}

// UnmarshalText decodes a 20-byte hex string; the 0x prefix is optional.
func (a *Address) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Address", withPrefix(input), a[:])
}

// StripHexPrefix removes a leading 0x or 0X marker, if present.
func StripHexPrefix(s string) string {
	if has0xPrefix(s) {
		return s[2:]
	}
	return s
}

// HexNoPrefix encodes b as lowercase hex without a 0x marker.
func HexNoPrefix(b []byte) string { return hex.EncodeToString(b) }

// ErrOddLength is returned by DecodeHex for hex strings with an odd number
// of digits.
var ErrOddLength = errors.New("hex string of odd length")

// DecodeHex decodes a hex string with an optional 0x prefix. Unlike the
// HexTo* helpers it reports malformed input, odd lengths included.
func DecodeHex(s string) ([]byte, error) {
	s = StripHexPrefix(s)
	if len(s)%2 == 1 {
		return nil, ErrOddLength
	}
	return hex.DecodeString(s)
}

// fromHex decodes a hex string, stripping optional "0x" prefix. Odd-length
// input is left-padded with a zero digit.
func fromHex(s string) []byte {
	s = StripHexPrefix(s)
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

func withPrefix(input []byte) []byte {
	if has0xPrefix(string(input)) {
		return input
	}
	return append([]byte("0x"), input...)
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
