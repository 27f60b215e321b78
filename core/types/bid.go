package types

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Bid is a user's signed declaration of intent to have TxnHash included at
// BlockNumber in exchange for Amount. Signer is recovered from Signature over
// BidHash and is never taken from the caller.
type Bid struct {
	TxnHash     string        `json:"txnHash"`
	Amount      uint64        `json:"bid"`
	BlockNumber uint64        `json:"blockNumber"`
	BidHash     Hash          `json:"bidHash"`
	Signature   hexutil.Bytes `json:"signature"`
	Signer      Address       `json:"signer"`
}

// Copy returns a deep copy of the bid.
func (b *Bid) Copy() Bid {
	cp := *b
	cp.Signature = append(hexutil.Bytes(nil), b.Signature...)
	return cp
}

// Commitment is a provider's signed acknowledgment of a specific bid. The
// bid fields are the ones the commitment hash was computed over.
type Commitment struct {
	// Index is the commitment's position in the global insertion order.
	Index uint64 `json:"index"`

	TxnHash      string        `json:"txnHash"`
	Amount       uint64        `json:"bid"`
	BlockNumber  uint64        `json:"blockNumber"`
	BidHash      Hash          `json:"bidHash"`
	BidSignature hexutil.Bytes `json:"bidSignature"`
	Bidder       Address       `json:"bidder"`

	CommitmentHash      Hash          `json:"commitmentHash"`
	CommitmentSignature hexutil.Bytes `json:"commitmentSignature"`
	Committer           Address       `json:"committer"`
}

// Copy returns a deep copy of the commitment.
func (c *Commitment) Copy() Commitment {
	cp := *c
	cp.BidSignature = append(hexutil.Bytes(nil), c.BidSignature...)
	cp.CommitmentSignature = append(hexutil.Bytes(nil), c.CommitmentSignature...)
	return cp
}

// StakeAccount is an identity's collateral in one stake registry.
type StakeAccount struct {
	Address    Address      `json:"address"`
	Stake      *uint256.Int `json:"stake"`
	Registered bool         `json:"registered"`
}

// Copy returns a deep copy of the account.
func (a *StakeAccount) Copy() StakeAccount {
	cp := *a
	if a.Stake != nil {
		cp.Stake = new(uint256.Int).Set(a.Stake)
	} else {
		cp.Stake = new(uint256.Int)
	}
	return cp
}
