package preconf

import (
	"crypto/ecdsa"

	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/crypto"
)

// SignBid signs the bid digest of (txnHash, amount, blockNumber) with key and
// returns the digest together with the 65-byte signature.
func (h *Hasher) SignBid(key *ecdsa.PrivateKey, txnHash string, amount, blockNumber uint64) (types.Hash, []byte, error) {
	digest := h.BidHash(txnHash, amount, blockNumber)
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return types.Hash{}, nil, err
	}
	return digest, sig, nil
}

// SignCommitment signs the commitment digest over a bid with key.
func (h *Hasher) SignCommitment(key *ecdsa.PrivateKey, txnHash string, amount, blockNumber uint64,
	bidHash types.Hash, bidSignature []byte) (types.Hash, []byte, error) {
	digest := h.PreConfHash(txnHash, amount, blockNumber, bidHash, bidSignature)
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return types.Hash{}, nil, err
	}
	return digest, sig, nil
}
