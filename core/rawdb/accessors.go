package rawdb

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/types"
)

// --- Stake Account Accessors ---

// WriteStakeAccount stores the RLP encoding of a stake account.
func WriteStakeAccount(db KeyValueWriter, acct *types.StakeAccount) error {
	data, err := rlp.EncodeToBytes(acct)
	if err != nil {
		return fmt.Errorf("rawdb: encode stake account %s: %w", acct.Address, err)
	}
	return db.Put(stakeAccountKey(acct.Address), data)
}

// ReadStakeAccount retrieves a stake account. ErrNotFound is returned for
// addresses that never staked.
func ReadStakeAccount(db KeyValueReader, addr types.Address) (*types.StakeAccount, error) {
	data, err := db.Get(stakeAccountKey(addr))
	if err != nil {
		return nil, err
	}
	acct := new(types.StakeAccount)
	if err := rlp.DecodeBytes(data, acct); err != nil {
		return nil, fmt.Errorf("rawdb: decode stake account %s: %w", addr, err)
	}
	return acct, nil
}

// ReadAllStakeAccounts returns every stored stake account in address order.
func ReadAllStakeAccounts(db Iteratee) ([]types.StakeAccount, error) {
	it := db.NewIterator(stakeAccountPrefix)
	defer it.Release()

	var accts []types.StakeAccount
	for it.Next() {
		var acct types.StakeAccount
		if err := rlp.DecodeBytes(it.Value(), &acct); err != nil {
			return nil, fmt.Errorf("rawdb: decode stake account at %x: %w", it.Key(), err)
		}
		accts = append(accts, acct)
	}
	return accts, it.Error()
}

// --- Registry Config Accessors ---

// RegistryConfigRecord is the persisted form of a registry's immutable
// configuration.
type RegistryConfigRecord struct {
	MinStake     *uint256.Int
	FeeRecipient types.Address
	FeePercent   uint8
}

// WriteRegistryConfig stores the registry configuration.
func WriteRegistryConfig(db KeyValueWriter, cfg *RegistryConfigRecord) error {
	data, err := rlp.EncodeToBytes(cfg)
	if err != nil {
		return fmt.Errorf("rawdb: encode registry config: %w", err)
	}
	return db.Put(registryConfigKey, data)
}

// ReadRegistryConfig retrieves the registry configuration, or ErrNotFound
// for a fresh namespace.
func ReadRegistryConfig(db KeyValueReader) (*RegistryConfigRecord, error) {
	data, err := db.Get(registryConfigKey)
	if err != nil {
		return nil, err
	}
	cfg := new(RegistryConfigRecord)
	if err := rlp.DecodeBytes(data, cfg); err != nil {
		return nil, fmt.Errorf("rawdb: decode registry config: %w", err)
	}
	return cfg, nil
}

// --- Bid Accessors ---

// WriteBid stores a bid as the seq'th entry of its signer's list.
func WriteBid(db KeyValueWriter, seq uint64, bid *types.Bid) error {
	data, err := rlp.EncodeToBytes(bid)
	if err != nil {
		return fmt.Errorf("rawdb: encode bid %s: %w", bid.BidHash, err)
	}
	return db.Put(bidKey(bid.Signer, seq), data)
}

// ReadBids returns a signer's bids in insertion order.
func ReadBids(db Iteratee, signer types.Address) ([]types.Bid, error) {
	return readBids(db, bidSignerPrefix(signer))
}

// ReadAllBids returns every stored bid grouped by signer and ordered by
// insertion within each signer.
func ReadAllBids(db Iteratee) ([]types.Bid, error) {
	return readBids(db, bidPrefix)
}

func readBids(db Iteratee, prefix []byte) ([]types.Bid, error) {
	it := db.NewIterator(prefix)
	defer it.Release()

	var bids []types.Bid
	for it.Next() {
		var bid types.Bid
		if err := rlp.DecodeBytes(it.Value(), &bid); err != nil {
			return nil, fmt.Errorf("rawdb: decode bid at %x: %w", it.Key(), err)
		}
		bids = append(bids, bid)
	}
	return bids, it.Error()
}

// --- Commitment Accessors ---

// WriteCommitment stores a commitment under its index together with the
// hash -> index lookup entry.
func WriteCommitment(db KeyValueWriter, c *types.Commitment) error {
	data, err := rlp.EncodeToBytes(c)
	if err != nil {
		return fmt.Errorf("rawdb: encode commitment %s: %w", c.CommitmentHash, err)
	}
	if err := db.Put(commitmentKey(c.Index), data); err != nil {
		return err
	}
	return db.Put(commitmentLookupKey(c.CommitmentHash), encodeIndex(c.Index))
}

// ReadCommitment retrieves the commitment at the given global index.
func ReadCommitment(db KeyValueReader, index uint64) (*types.Commitment, error) {
	data, err := db.Get(commitmentKey(index))
	if err != nil {
		return nil, err
	}
	c := new(types.Commitment)
	if err := rlp.DecodeBytes(data, c); err != nil {
		return nil, fmt.Errorf("rawdb: decode commitment %d: %w", index, err)
	}
	return c, nil
}

// ReadCommitmentIndex resolves a commitment hash to its global index.
func ReadCommitmentIndex(db KeyValueReader, hash types.Hash) (uint64, error) {
	data, err := db.Get(commitmentLookupKey(hash))
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, ErrNotFound
	}
	return binary.BigEndian.Uint64(data), nil
}

// HasCommitment reports whether a commitment with the given hash exists.
func HasCommitment(db KeyValueReader, hash types.Hash) bool {
	ok, _ := db.Has(commitmentLookupKey(hash))
	return ok
}

// ReadAllCommitments returns every stored commitment in index order.
func ReadAllCommitments(db Iteratee) ([]types.Commitment, error) {
	it := db.NewIterator(commitmentPrefix)
	defer it.Release()

	var out []types.Commitment
	for it.Next() {
		var c types.Commitment
		if err := rlp.DecodeBytes(it.Value(), &c); err != nil {
			return nil, fmt.Errorf("rawdb: decode commitment at %x: %w", it.Key(), err)
		}
		out = append(out, c)
	}
	return out, it.Error()
}
