// Package registry implements the stake registry that gates participation in
// the preconfirmation protocol. The same type is instantiated twice: once for
// users (bidders) and once for providers (committers).
//
// An identity moves from unregistered to staked by registering with at least
// MinStake; there is no reverse transition.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/rawdb"
	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/log"
	"github.com/eth2030/preconf/metrics"
)

// Registry errors.
var (
	ErrInvalidConfig     = errors.New("registry: invalid config")
	ErrInsufficientStake = errors.New("registry: insufficient stake")
	ErrAlreadyRegistered = errors.New("registry: already registered")
	ErrNotRegistered     = errors.New("registry: not registered")
	ErrZeroDeposit       = errors.New("registry: zero deposit")
	ErrStakeOverflow     = errors.New("registry: stake overflows 256 bits")
)

// Config holds a registry's immutable parameters. FeeRecipient and
// FeePercent are recorded and exposed but play no part in any state
// transition.
type Config struct {
	MinStake     *uint256.Int
	FeeRecipient types.Address
	FeePercent   uint8
}

// Validate checks the config invariants.
func (c *Config) Validate() error {
	if c.MinStake == nil {
		return fmt.Errorf("%w: min stake not set", ErrInvalidConfig)
	}
	if c.FeePercent > 100 {
		return fmt.Errorf("%w: fee percent %d exceeds 100", ErrInvalidConfig, c.FeePercent)
	}
	return nil
}

func (c *Config) copy() Config {
	return Config{
		MinStake:     new(uint256.Int).Set(c.MinStake),
		FeeRecipient: c.FeeRecipient,
		FeePercent:   c.FeePercent,
	}
}

func (c *Config) record() *rawdb.RegistryConfigRecord {
	return &rawdb.RegistryConfigRecord{
		MinStake:     c.MinStake,
		FeeRecipient: c.FeeRecipient,
		FeePercent:   c.FeePercent,
	}
}

// Option configures optional StakeRegistry collaborators.
type Option func(*StakeRegistry)

// WithMetrics reports registrations, deposits and total stake to m.
func WithMetrics(m *metrics.Ledger) Option {
	return func(r *StakeRegistry) { r.metrics = m }
}

// StakeRegistry tracks per-identity stake. All public methods are safe for
// concurrent use; reads return copies.
type StakeRegistry struct {
	name    string
	cfg     Config
	db      rawdb.Database
	log     *log.Logger
	metrics *metrics.Ledger

	mu       sync.RWMutex
	accounts map[types.Address]*types.StakeAccount
	total    *uint256.Int
}

// New creates a registry named name (used in logs and metrics) persisting
// to db. Accounts already present in db are loaded. A database initialised
// with a different configuration is rejected.
func New(name string, cfg Config, db rawdb.Database, opts ...Option) (*StakeRegistry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &StakeRegistry{
		name:     name,
		cfg:      cfg.copy(),
		db:       db,
		log:      log.Default().Module("registry").With("registry", name),
		accounts: make(map[types.Address]*types.StakeAccount),
		total:    new(uint256.Int),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.loadConfig(); err != nil {
		return nil, err
	}
	accts, err := rawdb.ReadAllStakeAccounts(db)
	if err != nil {
		return nil, fmt.Errorf("registry %s: load accounts: %w", name, err)
	}
	for i := range accts {
		acct := accts[i].Copy()
		r.accounts[acct.Address] = &acct
		if _, overflow := r.total.AddOverflow(r.total, acct.Stake); overflow {
			return nil, fmt.Errorf("%w: registry %s total", ErrStakeOverflow, name)
		}
	}
	r.metrics.SetStaked(name, r.total)
	r.log.Info("Stake registry ready", "accounts", len(r.accounts), "min_stake", r.cfg.MinStake.Dec())
	return r, nil
}

// loadConfig persists the config on first use and checks it on reopen.
func (r *StakeRegistry) loadConfig() error {
	stored, err := rawdb.ReadRegistryConfig(r.db)
	if errors.Is(err, rawdb.ErrNotFound) {
		return rawdb.WriteRegistryConfig(r.db, r.cfg.record())
	}
	if err != nil {
		return fmt.Errorf("registry %s: %w", r.name, err)
	}
	if stored.MinStake == nil || stored.MinStake.Cmp(r.cfg.MinStake) != 0 ||
		stored.FeeRecipient != r.cfg.FeeRecipient || stored.FeePercent != r.cfg.FeePercent {
		return fmt.Errorf("%w: %s registry was created with min stake %v, fee %d%% to %s",
			ErrInvalidConfig, r.name, stored.MinStake, stored.FeePercent, stored.FeeRecipient)
	}
	return nil
}

// Name returns the registry's name.
func (r *StakeRegistry) Name() string { return r.name }

// RegisterAndStake registers caller with an initial stake of value.
func (r *StakeRegistry) RegisterAndStake(caller types.Address, value *uint256.Int) error {
	if value == nil || value.Lt(r.cfg.MinStake) {
		r.metrics.Registration(r.name, false)
		return fmt.Errorf("%w: have %v, need %s", ErrInsufficientStake, value, r.cfg.MinStake.Dec())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if acct, ok := r.accounts[caller]; ok && acct.Registered {
		r.metrics.Registration(r.name, false)
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, caller)
	}
	total, overflow := new(uint256.Int).AddOverflow(r.total, value)
	if overflow {
		r.metrics.Registration(r.name, false)
		return fmt.Errorf("%w: registry %s total", ErrStakeOverflow, r.name)
	}
	acct := &types.StakeAccount{
		Address:    caller,
		Stake:      new(uint256.Int).Set(value),
		Registered: true,
	}
	if err := r.persist(acct); err != nil {
		r.metrics.Registration(r.name, false)
		return err
	}
	r.accounts[caller] = acct
	r.total = total

	r.metrics.Registration(r.name, true)
	r.metrics.SetStaked(r.name, r.total)
	r.log.Info("Registered", "address", caller, "stake", value.Dec())
	return nil
}

// DepositStake adds value to a registered caller's stake.
func (r *StakeRegistry) DepositStake(caller types.Address, value *uint256.Int) error {
	if value == nil || value.IsZero() {
		return ErrZeroDeposit
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.accounts[caller]
	if !ok || !cur.Registered {
		return fmt.Errorf("%w: %s", ErrNotRegistered, caller)
	}
	sum, overflow := new(uint256.Int).AddOverflow(cur.Stake, value)
	if overflow {
		return fmt.Errorf("%w: account %s", ErrStakeOverflow, caller)
	}
	total, overflow := new(uint256.Int).AddOverflow(r.total, value)
	if overflow {
		return fmt.Errorf("%w: registry %s total", ErrStakeOverflow, r.name)
	}
	next := &types.StakeAccount{Address: caller, Stake: sum, Registered: true}
	if err := r.persist(next); err != nil {
		return err
	}
	r.accounts[caller] = next
	r.total = total

	r.metrics.Deposit(r.name)
	r.metrics.SetStaked(r.name, r.total)
	r.log.Debug("Stake deposited", "address", caller, "amount", value.Dec(), "stake", sum.Dec())
	return nil
}

// persist writes acct through a single batch.
func (r *StakeRegistry) persist(acct *types.StakeAccount) error {
	batch := r.db.NewBatch()
	if err := rawdb.WriteStakeAccount(batch, acct); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("registry %s: write account %s: %w", r.name, acct.Address, err)
	}
	return nil
}

// CheckStake returns id's stake, zero for unknown identities.
func (r *StakeRegistry) CheckStake(id types.Address) *uint256.Int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if acct, ok := r.accounts[id]; ok {
		return new(uint256.Int).Set(acct.Stake)
	}
	return new(uint256.Int)
}

// IsStaked reports whether id holds at least MinStake.
func (r *StakeRegistry) IsStaked(id types.Address) bool {
	return !r.CheckStake(id).Lt(r.cfg.MinStake)
}

// Account returns a copy of id's account.
func (r *StakeRegistry) Account(id types.Address) (types.StakeAccount, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, ok := r.accounts[id]
	if !ok {
		return types.StakeAccount{}, false
	}
	return acct.Copy(), true
}

// Accounts returns copies of all accounts in unspecified order.
func (r *StakeRegistry) Accounts() []types.StakeAccount {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.StakeAccount, 0, len(r.accounts))
	for _, acct := range r.accounts {
		out = append(out, acct.Copy())
	}
	return out
}

// Len returns the number of known accounts.
func (r *StakeRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

// TotalStake returns the sum of all stakes.
func (r *StakeRegistry) TotalStake() *uint256.Int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return new(uint256.Int).Set(r.total)
}

// Config returns a copy of the registry configuration.
func (r *StakeRegistry) Config() Config { return r.cfg.copy() }

// MinStake returns the minimum stake required to participate.
func (r *StakeRegistry) MinStake() *uint256.Int { return new(uint256.Int).Set(r.cfg.MinStake) }

// FeeRecipient returns the configured fee recipient.
func (r *StakeRegistry) FeeRecipient() types.Address { return r.cfg.FeeRecipient }

// FeePercent returns the configured fee percentage.
func (r *StakeRegistry) FeePercent() uint8 { return r.cfg.FeePercent }
