// Package geth provides an adapter layer between the ledger's own type
// system and go-ethereum. Conversions here are zero-copy where the layouts
// match; everything else in the module uses core/types.
package geth

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/types"
)

// ErrInvalidAmount is returned by ParseWei for malformed or overflowing input.
var ErrInvalidAmount = errors.New("geth: invalid amount")

// --- Address and Hash conversion (zero-copy, layout-compatible) ---

// ToGethAddress converts an Address to a go-ethereum Address.
func ToGethAddress(a types.Address) gethcommon.Address {
	return gethcommon.Address(a)
}

// FromGethAddress converts a go-ethereum Address to an Address.
func FromGethAddress(a gethcommon.Address) types.Address {
	return types.Address(a)
}

// ToGethHash converts a Hash to a go-ethereum Hash.
func ToGethHash(h types.Hash) gethcommon.Hash {
	return gethcommon.Hash(h)
}

// FromGethHash converts a go-ethereum Hash to a Hash.
func FromGethHash(h gethcommon.Hash) types.Hash {
	return types.Hash(h)
}

// ChecksumAddress renders a in EIP-55 mixed-case form.
func ChecksumAddress(a types.Address) string {
	return ToGethAddress(a).Hex()
}

// --- Amount conversion ---

// ToUint256 converts *big.Int to *uint256.Int. Values that do not fit are
// truncated to their low 256 bits.
func ToUint256(b *big.Int) *uint256.Int {
	if b == nil {
		return new(uint256.Int)
	}
	u, _ := uint256.FromBig(b)
	return u
}

// FromUint256 converts *uint256.Int to *big.Int.
func FromUint256(u *uint256.Int) *big.Int {
	if u == nil {
		return new(big.Int)
	}
	return u.ToBig()
}

// ToHexU256 converts a stake amount to its JSON-RPC quantity form.
func ToHexU256(u *uint256.Int) *hexutil.U256 {
	if u == nil {
		u = new(uint256.Int)
	}
	return (*hexutil.U256)(new(uint256.Int).Set(u))
}

// ParseWei parses an amount of wei. Plain integers may be decimal or
// 0x-prefixed hex; a trailing "gwei" or "ether" unit scales the integer part
// accordingly ("2ether" == 2e18 wei).
func ParseWei(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	unit := big.NewInt(1)
	for _, u := range []struct {
		suffix string
		scale  int64
	}{{"ether", params.Ether}, {"gwei", params.GWei}, {"wei", 1}} {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			unit = big.NewInt(u.scale)
			break
		}
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	v.Mul(v, unit)
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: %q exceeds 256 bits", ErrInvalidAmount, s)
	}
	return out, nil
}
