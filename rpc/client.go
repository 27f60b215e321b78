package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/types"
)

// Client is a typed client for the preconf namespace.
type Client struct {
	c *gethrpc.Client
}

// Dial connects to a preconf JSON-RPC endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	c, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewClient(c), nil
}

// NewClient wraps an existing rpc client.
func NewClient(c *gethrpc.Client) *Client {
	return &Client{c: c}
}

// Close closes the underlying connection.
func (c *Client) Close() { c.c.Close() }

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	return fromRPCError(c.c.CallContext(ctx, result, Namespace+"_"+method, args...))
}

func (c *Client) hash(ctx context.Context, method string, args ...any) (types.Hash, error) {
	var h types.Hash
	err := c.call(ctx, &h, method, args...)
	return h, err
}

// DomainSeparator returns the bid domain separator.
func (c *Client) DomainSeparator(ctx context.Context) (types.Hash, error) {
	return c.hash(ctx, "domainSeparator")
}

// CommitmentDomainSeparator returns the commitment domain separator.
func (c *Client) CommitmentDomainSeparator(ctx context.Context) (types.Hash, error) {
	return c.hash(ctx, "commitmentDomainSeparator")
}

// MessageTypeHash returns the bid type hash.
func (c *Client) MessageTypeHash(ctx context.Context) (types.Hash, error) {
	return c.hash(ctx, "messageTypeHash")
}

// GetBidHash returns the digest a user signs for the bid.
func (c *Client) GetBidHash(ctx context.Context, txnHash string, amount, blockNumber uint64) (types.Hash, error) {
	return c.hash(ctx, "getBidHash", txnHash, math.HexOrDecimal64(amount), math.HexOrDecimal64(blockNumber))
}

// GetPreConfHash returns the digest a provider signs for the commitment.
func (c *Client) GetPreConfHash(ctx context.Context, txnHash string, amount, blockNumber uint64, bidHash types.Hash, bidSig []byte) (types.Hash, error) {
	return c.hash(ctx, "getPreConfHash", txnHash, math.HexOrDecimal64(amount), math.HexOrDecimal64(blockNumber), bidHash, hexutil.Bytes(bidSig))
}

// RecoverAddress returns the signer of sig over digest.
func (c *Client) RecoverAddress(ctx context.Context, digest types.Hash, sig []byte) (types.Address, error) {
	var addr types.Address
	err := c.call(ctx, &addr, "recoverAddress", digest, hexutil.Bytes(sig))
	return addr, err
}

// StoreBid submits a signed bid.
func (c *Client) StoreBid(ctx context.Context, txnHash string, amount, blockNumber uint64, sig []byte) (*types.Bid, error) {
	var bid types.Bid
	if err := c.call(ctx, &bid, "storeBid", txnHash, math.HexOrDecimal64(amount), math.HexOrDecimal64(blockNumber), hexutil.Bytes(sig)); err != nil {
		return nil, err
	}
	return &bid, nil
}

// StoreCommitment submits a signed commitment.
func (c *Client) StoreCommitment(ctx context.Context, txnHash string, amount, blockNumber uint64, bidHash types.Hash, bidSig []byte,
	commitmentHash types.Hash, commitmentSig []byte) (*types.Commitment, error) {
	var cm types.Commitment
	err := c.call(ctx, &cm, "storeCommitment", txnHash, math.HexOrDecimal64(amount), math.HexOrDecimal64(blockNumber),
		bidHash, hexutil.Bytes(bidSig), commitmentHash, hexutil.Bytes(commitmentSig))
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

// GetBidsFor returns the bids signed by addr.
func (c *Client) GetBidsFor(ctx context.Context, addr types.Address) ([]types.Bid, error) {
	var bids []types.Bid
	err := c.call(ctx, &bids, "getBidsFor", addr)
	return bids, err
}

// GetCommitmentsFor returns the commitments signed by addr.
func (c *Client) GetCommitmentsFor(ctx context.Context, addr types.Address) ([]types.Commitment, error) {
	var out []types.Commitment
	err := c.call(ctx, &out, "getCommitmentsFor", addr)
	return out, err
}

// GetCommitment looks a commitment up by hash. A miss returns ErrNotFound.
func (c *Client) GetCommitment(ctx context.Context, hash types.Hash) (*types.Commitment, error) {
	var cm types.Commitment
	if err := c.call(ctx, &cm, "getCommitment", hash); err != nil {
		return nil, err
	}
	return &cm, nil
}

// CommitmentCount returns the number of stored commitments.
func (c *Client) CommitmentCount(ctx context.Context) (uint64, error) {
	var n hexutil.Uint64
	err := c.call(ctx, &n, "commitmentCount")
	return uint64(n), err
}

// CheckUserStake returns addr's user stake in wei.
func (c *Client) CheckUserStake(ctx context.Context, addr types.Address) (*uint256.Int, error) {
	return c.stake(ctx, "checkUserStake", addr)
}

// CheckProviderStake returns addr's provider stake in wei.
func (c *Client) CheckProviderStake(ctx context.Context, addr types.Address) (*uint256.Int, error) {
	return c.stake(ctx, "checkProviderStake", addr)
}

func (c *Client) stake(ctx context.Context, method string, addr types.Address) (*uint256.Int, error) {
	var v hexutil.U256
	if err := c.call(ctx, &v, method, addr); err != nil {
		return nil, err
	}
	return (*uint256.Int)(&v), nil
}
