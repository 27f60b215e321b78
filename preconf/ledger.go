package preconf

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/rawdb"
	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/metrics"
	"github.com/eth2030/preconf/registry"
)

// Ledger is the combined protocol state: the user and provider registries
// and the store. A single RWMutex makes every mutation observe and leave a
// consistent authorization state; reads share the lock.
type Ledger struct {
	mu        sync.RWMutex
	users     *registry.StakeRegistry
	providers *registry.StakeRegistry
	store     *Store
}

// NewLedger combines already constructed components. store must have been
// created over users and providers.
func NewLedger(users, providers *registry.StakeRegistry, store *Store) *Ledger {
	return &Ledger{users: users, providers: providers, store: store}
}

// LedgerConfig configures OpenLedger.
type LedgerConfig struct {
	Users     registry.Config
	Providers registry.Config
	Store     Config
}

// OpenLedger builds both registries and the store on db, each in its own
// table namespace. m may be nil.
func OpenLedger(db rawdb.Database, cfg LedgerConfig, m *metrics.Ledger) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("preconf: nil database")
	}
	users, err := registry.New("user", cfg.Users,
		rawdb.NewTable(db, rawdb.UserRegistryNamespace), registry.WithMetrics(m))
	if err != nil {
		return nil, fmt.Errorf("user registry: %w", err)
	}
	providers, err := registry.New("provider", cfg.Providers,
		rawdb.NewTable(db, rawdb.ProviderRegistryNamespace), registry.WithMetrics(m))
	if err != nil {
		return nil, fmt.Errorf("provider registry: %w", err)
	}
	store, err := NewStore(users, providers,
		rawdb.NewTable(db, rawdb.StoreNamespace), cfg.Store, WithMetrics(m))
	if err != nil {
		return nil, err
	}
	return NewLedger(users, providers, store), nil
}

// Users returns the user registry.
func (l *Ledger) Users() *registry.StakeRegistry { return l.users }

// Providers returns the provider registry.
func (l *Ledger) Providers() *registry.StakeRegistry { return l.providers }

// Store returns the bid/commitment store.
func (l *Ledger) Store() *Store { return l.store }

// Hasher returns the digest derivation used by the store.
func (l *Ledger) Hasher() *Hasher { return l.store.Hasher() }

// --- Mutations ---

// RegisterUser registers caller in the user registry.
func (l *Ledger) RegisterUser(caller types.Address, value *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.users.RegisterAndStake(caller, value)
}

// RegisterProvider registers caller in the provider registry.
func (l *Ledger) RegisterProvider(caller types.Address, value *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.providers.RegisterAndStake(caller, value)
}

// DepositUser tops up a registered user's stake.
func (l *Ledger) DepositUser(caller types.Address, value *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.users.DepositStake(caller, value)
}

// DepositProvider tops up a registered provider's stake.
func (l *Ledger) DepositProvider(caller types.Address, value *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.providers.DepositStake(caller, value)
}

// StoreBid stores a stake-gated bid.
func (l *Ledger) StoreBid(txnHash string, amount, blockNumber uint64, bidSignature []byte) (*types.Bid, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.StoreBid(txnHash, amount, blockNumber, bidSignature)
}

// StoreCommitment stores a stake-gated commitment.
func (l *Ledger) StoreCommitment(txnHash string, amount, blockNumber uint64, bidHash types.Hash, bidSignature []byte,
	commitmentHash types.Hash, commitmentSignature []byte) (*types.Commitment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.StoreCommitment(txnHash, amount, blockNumber, bidHash, bidSignature, commitmentHash, commitmentSignature)
}

// --- Reads ---

// CheckUserStake returns id's stake in the user registry.
func (l *Ledger) CheckUserStake(id types.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.users.CheckStake(id)
}

// CheckProviderStake returns id's stake in the provider registry.
func (l *Ledger) CheckProviderStake(id types.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.providers.CheckStake(id)
}

// GetBidsFor returns id's bids in insertion order.
func (l *Ledger) GetBidsFor(id types.Address) []types.Bid {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.GetBidsFor(id)
}

// GetCommitmentsFor returns committer's commitments in insertion order.
func (l *Ledger) GetCommitmentsFor(committer types.Address) []types.Commitment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.GetCommitmentsFor(committer)
}

// GetCommitment looks a commitment up by hash.
func (l *Ledger) GetCommitment(hash types.Hash) (types.Commitment, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.GetCommitment(hash)
}

// CommitmentCount returns the number of stored commitments.
func (l *Ledger) CommitmentCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.CommitmentCount()
}
