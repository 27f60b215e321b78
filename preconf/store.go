package preconf

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/rawdb"
	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/crypto"
	"github.com/eth2030/preconf/log"
	"github.com/eth2030/preconf/metrics"
)

// StakeChecker is the read side of a stake registry.
type StakeChecker interface {
	IsStaked(id types.Address) bool
	CheckStake(id types.Address) *uint256.Int
}

// Rejection reasons reported to metrics.
const (
	reasonSignature = "invalid_signature"
	reasonStake     = "unauthorized"
	reasonHash      = "hash_mismatch"
	reasonDuplicate = "duplicate"
	reasonStorage   = "storage"
)

// Option configures optional Store collaborators.
type Option func(*Store)

// WithMetrics reports accepted and rejected submissions to m.
func WithMetrics(m *metrics.Ledger) Option {
	return func(s *Store) { s.metrics = m }
}

// Store records stake-gated bids and commitments append-only. Records are
// never mutated or deleted.
type Store struct {
	cfg       Config
	hasher    *Hasher
	users     StakeChecker
	providers StakeChecker
	db        rawdb.Database
	cache     *crypto.RecoveryCache
	log       *log.Logger
	metrics   *metrics.Ledger

	mu          sync.RWMutex
	bids        map[types.Address][]types.Bid
	commitments []types.Commitment
	byCommitter map[types.Address][]uint64
	byHash      map[types.Hash]uint64
}

// NewStore creates a store gating bids on users and commitments on both
// users and providers. Records already present in db are loaded.
func NewStore(users, providers StakeChecker, db rawdb.Database, cfg Config, opts ...Option) (*Store, error) {
	if users == nil || providers == nil {
		return nil, errors.New("preconf: nil stake registry")
	}
	s := &Store{
		cfg:         cfg,
		hasher:      NewHasher(cfg.BidDomain, cfg.CommitmentDomain),
		users:       users,
		providers:   providers,
		db:          db,
		cache:       crypto.NewRecoveryCache(cfg.RecoveryCacheSize),
		log:         log.Default().Module("store"),
		bids:        make(map[types.Address][]types.Bid),
		byCommitter: make(map[types.Address][]uint64),
		byHash:      make(map[types.Hash]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		s.cache.OnLookup(s.metrics.CacheLookup)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.log.Info("Commitment store ready",
		"bidders", len(s.bids), "commitments", len(s.commitments),
		"bid_domain", s.hasher.DomainSeparator(), "commitment_domain", s.hasher.CommitmentDomainSeparator())
	return s, nil
}

func (s *Store) load() error {
	bids, err := rawdb.ReadAllBids(s.db)
	if err != nil {
		return fmt.Errorf("preconf: load bids: %w", err)
	}
	for _, bid := range bids {
		s.bids[bid.Signer] = append(s.bids[bid.Signer], bid)
	}
	commitments, err := rawdb.ReadAllCommitments(s.db)
	if err != nil {
		return fmt.Errorf("preconf: load commitments: %w", err)
	}
	for i, c := range commitments {
		if c.Index != uint64(i) {
			return fmt.Errorf("preconf: commitment index gap at %d (found %d)", i, c.Index)
		}
		s.index(c)
	}
	return nil
}

func (s *Store) index(c types.Commitment) {
	s.commitments = append(s.commitments, c)
	s.byCommitter[c.Committer] = append(s.byCommitter[c.Committer], c.Index)
	s.byHash[c.CommitmentHash] = c.Index
}

// Hasher returns the store's digest derivation.
func (s *Store) Hasher() *Hasher { return s.hasher }

// Oracle returns the configured oracle address.
func (s *Store) Oracle() types.Address { return s.cfg.Oracle }

// RecoveryStats returns the signer recovery cache counters.
func (s *Store) RecoveryStats() crypto.RecoveryCacheStats { return s.cache.Stats() }

// PreConfHash returns the commitment digest for the given bid fields.
func (s *Store) PreConfHash(txnHash string, amount, blockNumber uint64, bidHash types.Hash, bidSignature []byte) types.Hash {
	return s.hasher.PreConfHash(txnHash, amount, blockNumber, bidHash, bidSignature)
}

// StoreBid verifies a bid signature, requires the signer to be staked in the
// user registry and appends the bid to the signer's list.
func (s *Store) StoreBid(txnHash string, amount, blockNumber uint64, bidSignature []byte) (*types.Bid, error) {
	defer s.metrics.ObserveOp("storeBid", time.Now())

	bidHash := s.hasher.BidHash(txnHash, amount, blockNumber)
	signer, err := s.cache.Recover(bidHash, bidSignature)
	if err != nil {
		s.metrics.Bid(reasonSignature)
		return nil, fmt.Errorf("bid %s: %w", bidHash, err)
	}
	if !s.users.IsStaked(signer) {
		s.metrics.Bid(reasonStake)
		s.log.Debug("Bid rejected", "signer", signer, "reason", reasonStake)
		return nil, fmt.Errorf("%w: bidder %s", ErrUnauthorized, signer)
	}

	bid := types.Bid{
		TxnHash:     txnHash,
		Amount:      amount,
		BlockNumber: blockNumber,
		BidHash:     bidHash,
		Signature:   append([]byte(nil), bidSignature...),
		Signer:      signer,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := uint64(len(s.bids[signer]))
	batch := s.db.NewBatch()
	if err := rawdb.WriteBid(batch, seq, &bid); err != nil {
		s.metrics.Bid(reasonStorage)
		return nil, err
	}
	if err := batch.Write(); err != nil {
		s.metrics.Bid(reasonStorage)
		return nil, fmt.Errorf("preconf: write bid %s: %w", bidHash, err)
	}
	s.bids[signer] = append(s.bids[signer], bid)

	s.metrics.Bid("")
	s.log.Debug("Bid stored", "signer", signer, "bid_hash", bidHash, "block", blockNumber)
	out := bid.Copy()
	return &out, nil
}

// StoreCommitment re-derives both digests, verifies both signatures against
// the user and provider registries and appends the commitment.
func (s *Store) StoreCommitment(txnHash string, amount, blockNumber uint64, bidHash types.Hash, bidSignature []byte,
	commitmentHash types.Hash, commitmentSignature []byte) (*types.Commitment, error) {
	defer s.metrics.ObserveOp("storeCommitment", time.Now())

	if want := s.hasher.BidHash(txnHash, amount, blockNumber); want != bidHash {
		s.metrics.Commitment(reasonHash)
		return nil, fmt.Errorf("%w: bid hash %s, computed %s", ErrHashMismatch, bidHash, want)
	}
	if want := s.hasher.PreConfHash(txnHash, amount, blockNumber, bidHash, bidSignature); want != commitmentHash {
		s.metrics.Commitment(reasonHash)
		return nil, fmt.Errorf("%w: commitment hash %s, computed %s", ErrHashMismatch, commitmentHash, want)
	}
	bidder, err := s.cache.Recover(bidHash, bidSignature)
	if err != nil {
		s.metrics.Commitment(reasonSignature)
		return nil, fmt.Errorf("bid %s: %w", bidHash, err)
	}
	if !s.users.IsStaked(bidder) {
		s.metrics.Commitment(reasonStake)
		return nil, fmt.Errorf("%w: bidder %s", ErrUnauthorized, bidder)
	}
	committer, err := s.cache.Recover(commitmentHash, commitmentSignature)
	if err != nil {
		s.metrics.Commitment(reasonSignature)
		return nil, fmt.Errorf("commitment %s: %w", commitmentHash, err)
	}
	if !s.providers.IsStaked(committer) {
		s.metrics.Commitment(reasonStake)
		s.log.Debug("Commitment rejected", "committer", committer, "reason", reasonStake)
		return nil, fmt.Errorf("%w: committer %s", ErrUnauthorized, committer)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byHash[commitmentHash]; ok {
		s.metrics.Commitment(reasonDuplicate)
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCommitment, commitmentHash)
	}
	c := types.Commitment{
		Index:               uint64(len(s.commitments)),
		TxnHash:             txnHash,
		Amount:              amount,
		BlockNumber:         blockNumber,
		BidHash:             bidHash,
		BidSignature:        append([]byte(nil), bidSignature...),
		Bidder:              bidder,
		CommitmentHash:      commitmentHash,
		CommitmentSignature: append([]byte(nil), commitmentSignature...),
		Committer:           committer,
	}
	batch := s.db.NewBatch()
	if err := rawdb.WriteCommitment(batch, &c); err != nil {
		s.metrics.Commitment(reasonStorage)
		return nil, err
	}
	if err := batch.Write(); err != nil {
		s.metrics.Commitment(reasonStorage)
		return nil, fmt.Errorf("preconf: write commitment %s: %w", commitmentHash, err)
	}
	s.index(c)

	s.metrics.Commitment("")
	s.log.Debug("Commitment stored", "index", c.Index, "committer", committer, "bidder", bidder, "hash", commitmentHash)
	out := c.Copy()
	return &out, nil
}

// GetBidsFor returns id's bids in insertion order; empty for unknown ids.
func (s *Store) GetBidsFor(id types.Address) []types.Bid {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids := s.bids[id]
	out := make([]types.Bid, len(bids))
	for i := range bids {
		out[i] = bids[i].Copy()
	}
	return out
}

// GetCommitmentsFor returns committer's commitments in insertion order.
func (s *Store) GetCommitmentsFor(committer types.Address) []types.Commitment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.byCommitter[committer]
	out := make([]types.Commitment, len(idx))
	for i, n := range idx {
		out[i] = s.commitments[n].Copy()
	}
	return out
}

// GetCommitment looks a commitment up by its hash.
func (s *Store) GetCommitment(hash types.Hash) (types.Commitment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byHash[hash]
	if !ok {
		return types.Commitment{}, false
	}
	return s.commitments[n].Copy(), true
}

// GetCommitmentByIndex returns the commitment at a global index.
func (s *Store) GetCommitmentByIndex(index uint64) (types.Commitment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index >= uint64(len(s.commitments)) {
		return types.Commitment{}, false
	}
	return s.commitments[index].Copy(), true
}

// CommitmentCount returns the number of stored commitments.
func (s *Store) CommitmentCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.commitments))
}
