package rpc

import (
	"errors"
	"fmt"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/eth2030/preconf/crypto"
	"github.com/eth2030/preconf/preconf"
)

// Application error codes, in the JSON-RPC server error range.
const (
	ErrCodeInvalidSignature = -32010
	ErrCodeUnauthorized     = -32011
	ErrCodeHashMismatch     = -32012
	ErrCodeDuplicate        = -32013
	ErrCodeNotFound         = -32014
	ErrCodeInternal         = -32000
)

// ErrNotFound is returned when a commitment lookup misses.
var ErrNotFound = errors.New("rpc: commitment not found")

var codes = []struct {
	err  error
	code int
}{
	{crypto.ErrInvalidSignature, ErrCodeInvalidSignature},
	{preconf.ErrUnauthorized, ErrCodeUnauthorized},
	{preconf.ErrHashMismatch, ErrCodeHashMismatch},
	{preconf.ErrDuplicateCommitment, ErrCodeDuplicate},
	{ErrNotFound, ErrCodeNotFound},
}

// apiError carries a ledger error together with its JSON-RPC code.
type apiError struct {
	code int
	err  error
}

func (e *apiError) Error() string  { return e.err.Error() }
func (e *apiError) ErrorCode() int { return e.code }
func (e *apiError) Unwrap() error  { return e.err }

// toAPIError tags err with the code of the sentinel it wraps.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return &apiError{code: c.code, err: err}
		}
	}
	return &apiError{code: ErrCodeInternal, err: err}
}

// fromRPCError restores the sentinel behind a JSON-RPC error so callers can
// use errors.Is on the client side.
func fromRPCError(err error) error {
	var rpcErr gethrpc.Error
	if !errors.As(err, &rpcErr) {
		return err
	}
	for _, c := range codes {
		if rpcErr.ErrorCode() == c.code {
			return fmt.Errorf("%w (remote: %s)", c.err, rpcErr.Error())
		}
	}
	return err
}
