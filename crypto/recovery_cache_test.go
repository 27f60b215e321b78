package crypto

import (
	"errors"
	"testing"
)

func TestRecoveryCacheHitAfterMiss(t *testing.T) {
	c := NewRecoveryCache(8)
	sig := mustDecode(t, bidSigHex)

	for i := 0; i < 3; i++ {
		addr, err := c.Recover(bidDigest, sig)
		if err != nil {
			t.Fatalf("Recover #%d: %v", i, err)
		}
		if addr != bidSigner {
			t.Fatalf("Recover #%d = %s, want %s", i, addr, bidSigner)
		}
	}
	stats := c.Stats()
	if stats.Misses != 1 || stats.Hits != 2 || stats.Entries != 1 {
		t.Fatalf("stats = %+v, want 1 miss, 2 hits, 1 entry", stats)
	}
}

func TestRecoveryCacheDoesNotStoreFailures(t *testing.T) {
	c := NewRecoveryCache(8)
	bad := make([]byte, 65)

	for i := 0; i < 2; i++ {
		if _, err := c.Recover(bidDigest, bad); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("err = %v, want ErrInvalidSignature", err)
		}
	}
	if stats := c.Stats(); stats.Entries != 0 || stats.Misses != 2 {
		t.Fatalf("stats = %+v, want no entries and 2 misses", stats)
	}
}

func TestRecoveryCacheEvictsAndPurges(t *testing.T) {
	c := NewRecoveryCache(1)
	if _, err := c.Recover(bidDigest, mustDecode(t, bidSigHex)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Recover(commitDigest, mustDecode(t, commitSigHex)); err != nil {
		t.Fatal(err)
	}
	if n := c.Stats().Entries; n != 1 {
		t.Fatalf("entries = %d, want 1 after eviction", n)
	}
	c.Purge()
	if n := c.Stats().Entries; n != 0 {
		t.Fatalf("entries = %d after purge", n)
	}
}

func TestRecoveryCacheDefaultCapacity(t *testing.T) {
	c := NewRecoveryCache(0)
	if c == nil || c.entries == nil {
		t.Fatal("NewRecoveryCache(0) returned unusable cache")
	}
}

func TestRecoveryCacheOnLookup(t *testing.T) {
	c := NewRecoveryCache(4)
	var hits, misses int
	c.OnLookup(func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})
	sig := mustDecode(t, commitSigHex)
	c.Recover(commitDigest, sig)
	c.Recover(commitDigest, sig)
	if hits != 1 || misses != 1 {
		t.Fatalf("observer saw %d hits, %d misses; want 1 and 1", hits, misses)
	}
}
