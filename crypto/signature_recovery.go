// ECDSA signature recovery for bid and commitment signatures.
//
// Signatures are 65 bytes: R (32) || S (32) || V (1). V is the raw recovery
// id, 0 or 1. The legacy 27/28 encoding is rejected, as is any other value.
//
// Signature malleability: a signature whose S lies in the upper half of the
// curve order is rejected outright rather than normalized, so every
// (digest, signer) pair has exactly one accepted encoding.
package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/types"
)

// SignatureLength is the size of a compact recoverable signature.
const SignatureLength = 65

var (
	secp256k1N     = uint256.MustFromHex("0xfffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")
	secp256k1halfN = new(uint256.Int).Rsh(secp256k1N, 1)
)

// ErrInvalidSignature is wrapped by every recovery failure.
var ErrInvalidSignature = errors.New("invalid signature")

// Errors for signature recovery operations.
var (
	ErrSigRecoverInvalidLength = errors.New("sig_recover: signature must be 65 bytes")
	ErrSigRecoverInvalidV      = errors.New("sig_recover: invalid V value")
	ErrSigRecoverInvalidR      = errors.New("sig_recover: R must be in [1, n-1]")
	ErrSigRecoverInvalidS      = errors.New("sig_recover: S must be in [1, n-1]")
	ErrSigRecoverMalleable     = errors.New("sig_recover: S is in upper half (malleable)")
	ErrSigRecoverFailed        = errors.New("sig_recover: public key recovery failed")
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
}

// CompactSignature is a parsed 65-byte signature.
type CompactSignature struct {
	R [32]byte
	S [32]byte
	V byte
}

// ParseCompactSignature parses a 65-byte signature. It does not check the
// scalar ranges; use Validate for that.
func ParseCompactSignature(sig []byte) (*CompactSignature, error) {
	if len(sig) != SignatureLength {
		return nil, invalid(ErrSigRecoverInvalidLength)
	}
	v, err := CheckRecoveryID(sig[64])
	if err != nil {
		return nil, err
	}
	cs := &CompactSignature{V: v}
	copy(cs.R[:], sig[:32])
	copy(cs.S[:], sig[32:64])
	return cs, nil
}

// CheckRecoveryID accepts only the raw recovery ids 0 and 1. A signature
// and its 27/28 re-encoding would otherwise both verify and hash differently.
func CheckRecoveryID(v byte) (byte, error) {
	if v > 1 {
		return 0, invalid(ErrSigRecoverInvalidV)
	}
	return v, nil
}

// Bytes encodes the signature as R || S || V with raw V.
func (cs *CompactSignature) Bytes() []byte {
	buf := make([]byte, SignatureLength)
	copy(buf[:32], cs.R[:])
	copy(buf[32:64], cs.S[:])
	buf[64] = cs.V
	return buf
}

// Validate checks that R and S are in [1, n-1], S is in the lower half of
// the curve order and V is 0 or 1.
func (cs *CompactSignature) Validate() error {
	r := new(uint256.Int).SetBytes32(cs.R[:])
	s := new(uint256.Int).SetBytes32(cs.S[:])
	return validateSigComponents(r, s, cs.V)
}

func validateSigComponents(r, s *uint256.Int, v byte) error {
	if v > 1 {
		return invalid(ErrSigRecoverInvalidV)
	}
	if r.IsZero() || !r.Lt(secp256k1N) {
		return invalid(ErrSigRecoverInvalidR)
	}
	if s.IsZero() || !s.Lt(secp256k1N) {
		return invalid(ErrSigRecoverInvalidS)
	}
	if s.Gt(secp256k1halfN) {
		return invalid(ErrSigRecoverMalleable)
	}
	return nil
}

// RecoverPublicKey recovers the signer's public key from a digest and a
// 65-byte signature.
func RecoverPublicKey(digest types.Hash, sig []byte) (*ecdsa.PublicKey, error) {
	cs, err := ParseCompactSignature(sig)
	if err != nil {
		return nil, err
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	pub, err := gethcrypto.SigToPub(digest[:], cs.Bytes())
	if err != nil {
		return nil, invalid(fmt.Errorf("%w: %v", ErrSigRecoverFailed, err))
	}
	return pub, nil
}

// RecoverAddress recovers the 20-byte identity that produced sig over digest:
// the last 20 bytes of keccak256 of the uncompressed public key.
func RecoverAddress(digest types.Hash, sig []byte) (types.Address, error) {
	pub, err := RecoverPublicKey(digest, sig)
	if err != nil {
		return types.Address{}, err
	}
	return PubkeyToAddress(*pub), nil
}

// IsValidSignature reports whether sig parses and has canonical components,
// without performing recovery.
func IsValidSignature(sig []byte) bool {
	cs, err := ParseCompactSignature(sig)
	if err != nil {
		return false
	}
	return cs.Validate() == nil
}

// PubkeyToAddress derives the identity of a public key.
func PubkeyToAddress(p ecdsa.PublicKey) types.Address {
	return types.Address(gethcrypto.PubkeyToAddress(p))
}

// Sign produces a deterministic (RFC 6979) low-S signature over digest with
// V in {0, 1}.
func Sign(digest types.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	return gethcrypto.Sign(digest[:], key)
}

// GenerateKey creates a fresh secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return gethcrypto.GenerateKey()
}

// HexToECDSA parses a hex-encoded secp256k1 private key, with or without 0x.
func HexToECDSA(s string) (*ecdsa.PrivateKey, error) {
	return gethcrypto.HexToECDSA(types.StripHexPrefix(s))
}
