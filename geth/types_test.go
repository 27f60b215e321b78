package geth

import (
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/crypto"
)

func TestAddressHashConversion(t *testing.T) {
	addr := types.HexToAddress("0x3533d88fC84531a6542C8c09b27e7D292f6537B5")
	if FromGethAddress(ToGethAddress(addr)) != addr {
		t.Fatal("address conversion not lossless")
	}
	if got := ChecksumAddress(addr); got != "0x3533d88fC84531a6542C8c09b27e7D292f6537B5" {
		t.Fatalf("ChecksumAddress = %s", got)
	}
	h := crypto.KeccakString("x")
	if FromGethHash(ToGethHash(h)) != h {
		t.Fatal("hash conversion not lossless")
	}
}

func TestUint256Conversion(t *testing.T) {
	if ToUint256(nil).Sign() != 0 || FromUint256(nil).Sign() != 0 {
		t.Fatal("nil should convert to zero")
	}
	b := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	if FromUint256(ToUint256(b)).Cmp(b) != 0 {
		t.Fatal("roundtrip mismatch")
	}
	u := uint256.NewInt(42)
	hu := ToHexU256(u)
	u.SetUint64(7)
	if (*uint256.Int)(hu).Uint64() != 42 {
		t.Fatal("ToHexU256 aliased its input")
	}
}

func TestParseWei(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1"},
		{"0x10", "16"},
		{"2ether", "2000000000000000000"},
		{"2 Ether", "2000000000000000000"},
		{"3gwei", "3000000000"},
		{"1000000000000000000", "1000000000000000000"},
		{"5wei", "5"},
	}
	for _, tt := range tests {
		got, err := ParseWei(tt.in)
		if err != nil {
			t.Fatalf("ParseWei(%q): %v", tt.in, err)
		}
		if got.Dec() != tt.want {
			t.Fatalf("ParseWei(%q) = %s, want %s", tt.in, got.Dec(), tt.want)
		}
	}
	for _, bad := range []string{"", "ether", "-1", "abc", "0x10000000000000000000000000000000000000000000000000000000000000000"} {
		if _, err := ParseWei(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseWei(%q): err = %v, want ErrInvalidAmount", bad, err)
		}
	}
}
