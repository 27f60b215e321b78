// Package rpc exposes the preconfirmation ledger over JSON-RPC in the
// "preconf" namespace using go-ethereum's rpc server, and provides a typed
// client for it.
package rpc

import (
	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/preconf"
)

// Backend provides the ledger operations needed by the JSON-RPC API.
// *preconf.Ledger implements it.
type Backend interface {
	Hasher() *preconf.Hasher

	StoreBid(txnHash string, amount, blockNumber uint64, bidSignature []byte) (*types.Bid, error)
	StoreCommitment(txnHash string, amount, blockNumber uint64, bidHash types.Hash, bidSignature []byte,
		commitmentHash types.Hash, commitmentSignature []byte) (*types.Commitment, error)

	GetBidsFor(id types.Address) []types.Bid
	GetCommitmentsFor(committer types.Address) []types.Commitment
	GetCommitment(hash types.Hash) (types.Commitment, bool)
	CommitmentCount() uint64

	CheckUserStake(id types.Address) *uint256.Int
	CheckProviderStake(id types.Address) *uint256.Int
}

var _ Backend = (*preconf.Ledger)(nil)
