// Package preconf implements the preconfirmation commitment protocol: typed
// hashing of bids and commitments, the stake-gated bid/commitment store and
// the Ledger that serializes every state transition across the two stake
// registries and the store.
package preconf

import (
	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/crypto"
)

// EIP-712 type signatures of the two signed messages.
const (
	BidTypeString        = "PreConfBid(string txnHash,uint64 bid,uint64 blockNumber)"
	CommitmentTypeString = "PreConfCommitment(string txnHash,uint64 bid,uint64 blockNumber,string bidHash,string signature)"
)

var (
	// BidTypeHash is keccak256(BidTypeString).
	BidTypeHash = crypto.KeccakString(BidTypeString)

	// CommitmentTypeHash is keccak256(CommitmentTypeString).
	CommitmentTypeHash = crypto.KeccakString(CommitmentTypeString)
)

// DefaultBidDomain is the signing domain of bids.
func DefaultBidDomain() crypto.Domain {
	return crypto.Domain{Name: "PreConfBid", Version: "1"}
}

// DefaultCommitmentDomain is the signing domain of commitments.
func DefaultCommitmentDomain() crypto.Domain {
	return crypto.Domain{Name: "PreConfCommitment", Version: "1"}
}

// BidStructHash returns the EIP-712 struct hash of a bid.
func BidStructHash(txnHash string, amount, blockNumber uint64) types.Hash {
	txn := crypto.KeccakString(txnHash)
	return crypto.Keccak256Hash(
		BidTypeHash[:],
		txn[:],
		crypto.WordUint64(amount),
		crypto.WordUint64(blockNumber),
	)
}

// CommitmentStructHash returns the EIP-712 struct hash of a commitment. The
// bid hash and bid signature are hashed as their lowercase, unprefixed hex
// strings.
func CommitmentStructHash(txnHash string, amount, blockNumber uint64, bidHash types.Hash, bidSignature []byte) types.Hash {
	txn := crypto.KeccakString(txnHash)
	bh := crypto.KeccakString(bidHash.HexNoPrefix())
	sig := crypto.KeccakString(types.HexNoPrefix(bidSignature))
	return crypto.Keccak256Hash(
		CommitmentTypeHash[:],
		txn[:],
		crypto.WordUint64(amount),
		crypto.WordUint64(blockNumber),
		bh[:],
		sig[:],
	)
}

// Hasher derives bid and commitment digests under a fixed pair of domains.
// Separators are computed once; a Hasher is immutable and safe for
// concurrent use.
type Hasher struct {
	bidDomain        crypto.Domain
	commitmentDomain crypto.Domain
	bidSeparator     types.Hash
	commitSeparator  types.Hash
}

// NewHasher returns a Hasher for the given domains.
func NewHasher(bidDomain, commitmentDomain crypto.Domain) *Hasher {
	return &Hasher{
		bidDomain:        bidDomain,
		commitmentDomain: commitmentDomain,
		bidSeparator:     bidDomain.Separator(),
		commitSeparator:  commitmentDomain.Separator(),
	}
}

// DefaultHasher returns a Hasher over the default domains.
func DefaultHasher() *Hasher {
	return NewHasher(DefaultBidDomain(), DefaultCommitmentDomain())
}

// BidDomain returns the bid signing domain.
func (h *Hasher) BidDomain() crypto.Domain { return h.bidDomain }

// CommitmentDomain returns the commitment signing domain.
func (h *Hasher) CommitmentDomain() crypto.Domain { return h.commitmentDomain }

// DomainSeparator returns the bid domain separator.
func (h *Hasher) DomainSeparator() types.Hash { return h.bidSeparator }

// CommitmentDomainSeparator returns the commitment domain separator.
func (h *Hasher) CommitmentDomainSeparator() types.Hash { return h.commitSeparator }

// MessageTypeHash returns the bid type hash.
func (h *Hasher) MessageTypeHash() types.Hash { return BidTypeHash }

// TypedDigest wraps structHash with the 0x1901 prefix under the bid domain.
func (h *Hasher) TypedDigest(structHash types.Hash) types.Hash {
	return crypto.TypedDataHash(h.bidSeparator, structHash)
}

// BidHash returns the digest a user signs to place a bid.
func (h *Hasher) BidHash(txnHash string, amount, blockNumber uint64) types.Hash {
	return h.TypedDigest(BidStructHash(txnHash, amount, blockNumber))
}

// PreConfHash returns the digest a provider signs to commit to a bid.
func (h *Hasher) PreConfHash(txnHash string, amount, blockNumber uint64, bidHash types.Hash, bidSignature []byte) types.Hash {
	return crypto.TypedDataHash(h.commitSeparator,
		CommitmentStructHash(txnHash, amount, blockNumber, bidHash, bidSignature))
}
