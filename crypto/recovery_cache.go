// recovery_cache.go memoizes signer recovery keyed by keccak256(digest || sig),
// so a bid that is re-submitted or later referenced by a commitment does not
// repeat the ecrecover work.
package crypto

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/eth2030/preconf/core/types"
)

// DefaultRecoveryCacheSize is used when a non-positive capacity is requested.
const DefaultRecoveryCacheSize = 4096

// RecoveryCacheStats holds hit/miss statistics for a RecoveryCache.
type RecoveryCacheStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// RecoveryCache is a thread-safe LRU of successful recoveries. Failed
// recoveries are never cached.
type RecoveryCache struct {
	entries *lru.Cache[types.Hash, types.Address]

	hits   atomic.Uint64
	misses atomic.Uint64

	onLookup func(hit bool)
}

// NewRecoveryCache creates a cache holding up to capacity results.
func NewRecoveryCache(capacity int) *RecoveryCache {
	if capacity <= 0 {
		capacity = DefaultRecoveryCacheSize
	}
	entries, err := lru.New[types.Hash, types.Address](capacity)
	if err != nil {
		// Only reachable with a non-positive size, excluded above.
		panic(err)
	}
	return &RecoveryCache{entries: entries}
}

// OnLookup installs fn to be called with the result of every lookup. It must
// be set before the cache is shared.
func (c *RecoveryCache) OnLookup(fn func(hit bool)) {
	c.onLookup = fn
}

func (c *RecoveryCache) observe(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.onLookup != nil {
		c.onLookup(hit)
	}
}

func recoveryKey(digest types.Hash, sig []byte) types.Hash {
	return Keccak256Hash(digest[:], sig)
}

// Recover returns the signer of sig over digest, consulting the cache first.
func (c *RecoveryCache) Recover(digest types.Hash, sig []byte) (types.Address, error) {
	key := recoveryKey(digest, sig)
	if addr, ok := c.entries.Get(key); ok {
		c.observe(true)
		return addr, nil
	}
	c.observe(false)

	addr, err := RecoverAddress(digest, sig)
	if err != nil {
		return types.Address{}, err
	}
	c.entries.Add(key, addr)
	return addr, nil
}

// Stats returns a snapshot of the cache counters.
func (c *RecoveryCache) Stats() RecoveryCacheStats {
	return RecoveryCacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.entries.Len(),
	}
}

// Purge drops every cached entry. Counters are kept.
func (c *RecoveryCache) Purge() {
	c.entries.Purge()
}
