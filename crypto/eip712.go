// eip712.go implements the parts of EIP-712 typed structured data hashing
// the protocol relies on: the domain separator and the final 0x1901 digest.
//
// Struct hashes themselves are assembled by callers from 32-byte words
// produced by the Word* helpers, mirroring Solidity's abi.encode.
package crypto

import (
	"strings"

	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/types"
)

// typedDataPrefix is the EIP-191 version byte pair for structured data.
var typedDataPrefix = []byte{0x19, 0x01}

// Domain is an EIP-712 signing domain. ChainID and VerifyingContract take
// part in the separator only when set, as EIP-712 allows omitting unused
// domain fields.
type Domain struct {
	Name              string
	Version           string
	ChainID           *uint256.Int
	VerifyingContract *types.Address
}

// TypeString returns the EIP712Domain type signature for the populated fields.
func (d Domain) TypeString() string {
	fields := []string{"string name", "string version"}
	if d.ChainID != nil {
		fields = append(fields, "uint256 chainId")
	}
	if d.VerifyingContract != nil {
		fields = append(fields, "address verifyingContract")
	}
	return "EIP712Domain(" + strings.Join(fields, ",") + ")"
}

// Separator computes the domain separator hash.
func (d Domain) Separator() types.Hash {
	typeHash := KeccakString(d.TypeString())
	nameHash := KeccakString(d.Name)
	versionHash := KeccakString(d.Version)

	parts := [][]byte{typeHash[:], nameHash[:], versionHash[:]}
	if d.ChainID != nil {
		parts = append(parts, WordUint256(d.ChainID))
	}
	if d.VerifyingContract != nil {
		parts = append(parts, WordAddress(*d.VerifyingContract))
	}
	return Keccak256Hash(parts...)
}

// TypedDataHash returns keccak256(0x19 0x01 || separator || structHash),
// the digest that is actually signed.
func TypedDataHash(separator, structHash types.Hash) types.Hash {
	return Keccak256Hash(typedDataPrefix, separator[:], structHash[:])
}

// WordUint64 encodes v as a 32-byte big-endian word.
func WordUint64(v uint64) []byte {
	w := new(uint256.Int).SetUint64(v).Bytes32()
	return w[:]
}

// WordUint256 encodes v as a 32-byte big-endian word.
func WordUint256(v *uint256.Int) []byte {
	w := v.Bytes32()
	return w[:]
}

// WordAddress left-pads an address to a 32-byte word.
func WordAddress(a types.Address) []byte {
	w := make([]byte, 32)
	copy(w[32-types.AddressLength:], a[:])
	return w
}
