package rawdb

import (
	"encoding/binary"

	"github.com/eth2030/preconf/core/types"
)

// Key prefixes for the database schema. Registries and the store each live
// in their own Table namespace, so prefixes only need to be unique within
// one namespace.
var (
	// Stake registries
	stakeAccountPrefix = []byte("s")      // s + address -> StakeAccount RLP
	registryConfigKey  = []byte("Config") // -> RegistryConfigRecord RLP

	// Bids
	bidPrefix = []byte("b") // b + signer + seq (8 bytes BE) -> Bid RLP

	// Commitments
	commitmentPrefix       = []byte("c") // c + index (8 bytes BE) -> Commitment RLP
	commitmentLookupPrefix = []byte("l") // l + commitment hash -> index (8 bytes BE)
)

// encodeIndex encodes a sequence number as an 8-byte big-endian value so
// keys sort in insertion order.
func encodeIndex(n uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, n)
	return enc
}

// stakeAccountKey = stakeAccountPrefix + address
func stakeAccountKey(addr types.Address) []byte {
	return append(append([]byte{}, stakeAccountPrefix...), addr[:]...)
}

// bidSignerPrefix = bidPrefix + signer
func bidSignerPrefix(signer types.Address) []byte {
	return append(append([]byte{}, bidPrefix...), signer[:]...)
}

// bidKey = bidPrefix + signer + seq
func bidKey(signer types.Address, seq uint64) []byte {
	return append(bidSignerPrefix(signer), encodeIndex(seq)...)
}

// commitmentKey = commitmentPrefix + index
func commitmentKey(index uint64) []byte {
	return append(append([]byte{}, commitmentPrefix...), encodeIndex(index)...)
}

// commitmentLookupKey = commitmentLookupPrefix + commitment hash
func commitmentLookupKey(hash types.Hash) []byte {
	return append(append([]byte{}, commitmentLookupPrefix...), hash[:]...)
}
