package preconf

import (
	"errors"

	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/crypto"
)

// Store errors.
var (
	ErrUnauthorized        = errors.New("preconf: insufficient stake")
	ErrHashMismatch        = errors.New("preconf: hash mismatch")
	ErrDuplicateCommitment = errors.New("preconf: commitment already stored")
)

// Config holds the store's immutable parameters.
type Config struct {
	// Oracle is recorded and exposed; no operation consults it.
	Oracle types.Address

	BidDomain        crypto.Domain
	CommitmentDomain crypto.Domain

	// RecoveryCacheSize bounds the signer recovery cache.
	RecoveryCacheSize int
}

// DefaultConfig returns a config using the default signing domains.
func DefaultConfig() Config {
	return Config{
		BidDomain:         DefaultBidDomain(),
		CommitmentDomain:  DefaultCommitmentDomain(),
		RecoveryCacheSize: crypto.DefaultRecoveryCacheSize,
	}
}
