package geth

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/crypto"
)

// Primary type names of the two signed messages.
const (
	BidPrimaryType        = "PreConfBid"
	CommitmentPrimaryType = "PreConfCommitment"
)

var (
	bidFields = []apitypes.Type{
		{Name: "txnHash", Type: "string"},
		{Name: "bid", Type: "uint64"},
		{Name: "blockNumber", Type: "uint64"},
	}
	commitmentFields = append(append([]apitypes.Type{}, bidFields...),
		apitypes.Type{Name: "bidHash", Type: "string"},
		apitypes.Type{Name: "signature", Type: "string"},
	)
)

// ToTypedDataDomain converts a signing domain to go-ethereum's representation.
func ToTypedDataDomain(d crypto.Domain) apitypes.TypedDataDomain {
	out := apitypes.TypedDataDomain{Name: d.Name, Version: d.Version}
	if d.ChainID != nil {
		out.ChainId = (*math.HexOrDecimal256)(FromUint256(d.ChainID))
	}
	if d.VerifyingContract != nil {
		out.VerifyingContract = ChecksumAddress(*d.VerifyingContract)
	}
	return out
}

// domainFields lists the EIP712Domain members that are populated in d.
func domainFields(d crypto.Domain) []apitypes.Type {
	fields := []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
	}
	if d.ChainID != nil {
		fields = append(fields, apitypes.Type{Name: "chainId", Type: "uint256"})
	}
	if d.VerifyingContract != nil {
		fields = append(fields, apitypes.Type{Name: "verifyingContract", Type: "address"})
	}
	return fields
}

// BidTypedData builds the eth_signTypedData_v4 payload of a bid, suitable
// for signing with an external wallet.
func BidTypedData(d crypto.Domain, txnHash string, amount, blockNumber uint64) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainFields(d),
			BidPrimaryType: bidFields,
		},
		PrimaryType: BidPrimaryType,
		Domain:      ToTypedDataDomain(d),
		Message: apitypes.TypedDataMessage{
			"txnHash":     txnHash,
			"bid":         new(big.Int).SetUint64(amount),
			"blockNumber": new(big.Int).SetUint64(blockNumber),
		},
	}
}

// CommitmentTypedData builds the eth_signTypedData_v4 payload of a
// commitment. The bid hash and bid signature are embedded as lowercase hex
// strings without a 0x prefix.
func CommitmentTypedData(d crypto.Domain, txnHash string, amount, blockNumber uint64, bidHash types.Hash, bidSig []byte) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain":        domainFields(d),
			CommitmentPrimaryType: commitmentFields,
		},
		PrimaryType: CommitmentPrimaryType,
		Domain:      ToTypedDataDomain(d),
		Message: apitypes.TypedDataMessage{
			"txnHash":     txnHash,
			"bid":         new(big.Int).SetUint64(amount),
			"blockNumber": new(big.Int).SetUint64(blockNumber),
			"bidHash":     bidHash.HexNoPrefix(),
			"signature":   types.HexNoPrefix(bidSig),
		},
	}
}

// TypedDataHash hashes a payload with go-ethereum's EIP-712 encoder.
func TypedDataHash(td apitypes.TypedData) (types.Hash, error) {
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return types.Hash{}, err
	}
	return types.BytesToHash(digest), nil
}
