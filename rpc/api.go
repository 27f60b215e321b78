package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/crypto"
	"github.com/eth2030/preconf/geth"
	"github.com/eth2030/preconf/log"
)

// Namespace is the JSON-RPC namespace the API is registered under.
const Namespace = "preconf"

// Bytes is a hex byte string whose 0x prefix is optional on input.
type Bytes []byte

// MarshalText implements encoding.TextMarshaler.
func (b Bytes) MarshalText() ([]byte, error) {
	return hexutil.Bytes(b).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bytes) UnmarshalText(input []byte) error {
	dec, err := types.DecodeHex(string(input))
	if err != nil {
		return err
	}
	*b = dec
	return nil
}

// PreconfAPI implements the preconf_ namespace.
type PreconfAPI struct {
	b   Backend
	log *log.Logger
}

// NewPreconfAPI creates the API over b.
func NewPreconfAPI(b Backend) *PreconfAPI {
	return &PreconfAPI{b: b, log: log.Default().Module("rpc")}
}

// DomainSeparator returns the bid domain separator.
func (api *PreconfAPI) DomainSeparator() types.Hash {
	return api.b.Hasher().DomainSeparator()
}

// CommitmentDomainSeparator returns the commitment domain separator.
func (api *PreconfAPI) CommitmentDomainSeparator() types.Hash {
	return api.b.Hasher().CommitmentDomainSeparator()
}

// MessageTypeHash returns the bid type hash.
func (api *PreconfAPI) MessageTypeHash() types.Hash {
	return api.b.Hasher().MessageTypeHash()
}

// GetBidHash returns the digest a user signs for the given bid.
func (api *PreconfAPI) GetBidHash(txnHash string, bid, blockNumber math.HexOrDecimal64) types.Hash {
	return api.b.Hasher().BidHash(txnHash, uint64(bid), uint64(blockNumber))
}

// GetPreConfHash returns the digest a provider signs to commit to a bid.
func (api *PreconfAPI) GetPreConfHash(txnHash string, bid, blockNumber math.HexOrDecimal64, bidHash types.Hash, bidSignature Bytes) types.Hash {
	return api.b.Hasher().PreConfHash(txnHash, uint64(bid), uint64(blockNumber), bidHash, bidSignature)
}

// RecoverAddress returns the signer of signature over digest.
func (api *PreconfAPI) RecoverAddress(digest types.Hash, signature Bytes) (types.Address, error) {
	addr, err := crypto.RecoverAddress(digest, signature)
	return addr, toAPIError(err)
}

// StoreBid submits a signed bid.
func (api *PreconfAPI) StoreBid(ctx context.Context, txnHash string, bid, blockNumber math.HexOrDecimal64, signature Bytes) (*types.Bid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := api.b.StoreBid(txnHash, uint64(bid), uint64(blockNumber), signature)
	if err != nil {
		api.log.Debug("storeBid failed", "txn", txnHash, "err", err)
		return nil, toAPIError(err)
	}
	return out, nil
}

// StoreCommitment submits a provider's signed commitment to a bid.
func (api *PreconfAPI) StoreCommitment(ctx context.Context, txnHash string, bid, blockNumber math.HexOrDecimal64,
	bidHash types.Hash, bidSignature Bytes, commitmentHash types.Hash, commitmentSignature Bytes) (*types.Commitment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := api.b.StoreCommitment(txnHash, uint64(bid), uint64(blockNumber), bidHash, bidSignature, commitmentHash, commitmentSignature)
	if err != nil {
		api.log.Debug("storeCommitment failed", "txn", txnHash, "err", err)
		return nil, toAPIError(err)
	}
	return out, nil
}

// GetBidsFor returns the bids signed by addr in insertion order.
func (api *PreconfAPI) GetBidsFor(addr types.Address) []types.Bid {
	return api.b.GetBidsFor(addr)
}

// GetCommitmentsFor returns the commitments signed by addr in insertion order.
func (api *PreconfAPI) GetCommitmentsFor(addr types.Address) []types.Commitment {
	return api.b.GetCommitmentsFor(addr)
}

// GetCommitment looks a commitment up by hash.
func (api *PreconfAPI) GetCommitment(hash types.Hash) (*types.Commitment, error) {
	c, ok := api.b.GetCommitment(hash)
	if !ok {
		return nil, toAPIError(ErrNotFound)
	}
	return &c, nil
}

// CommitmentCount returns the number of stored commitments.
func (api *PreconfAPI) CommitmentCount() hexutil.Uint64 {
	return hexutil.Uint64(api.b.CommitmentCount())
}

// CheckUserStake returns addr's stake in the user registry.
func (api *PreconfAPI) CheckUserStake(addr types.Address) *hexutil.U256 {
	return geth.ToHexU256(api.b.CheckUserStake(addr))
}

// CheckProviderStake returns addr's stake in the provider registry.
func (api *PreconfAPI) CheckProviderStake(addr types.Address) *hexutil.U256 {
	return geth.ToHexU256(api.b.CheckProviderStake(addr))
}
