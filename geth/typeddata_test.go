package geth

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/crypto"
)

var (
	bidDomain    = crypto.Domain{Name: "PreConfBid", Version: "1"}
	commitDomain = crypto.Domain{Name: "PreConfCommitment", Version: "1"}

	goldenBidHash    = types.HexToHash("0x86ac45fb1e987a6c8115494cd4fd82f6756d359022cdf5ea19fd2fac1df6e7f0")
	goldenCommitHash = types.HexToHash("0x31dca6c6fd15593559dabb9e25285f727fd33f07e17ec2e8da266706020034dc")
	goldenBidSig     = "0x33683da4605067c9491d665864b2e4e7ade8bc57921da9f192a1b8246a941eaa2fb90f72031a2bf6008fa590158591bb5218c9aace78ad8cf4d1f2f4d74bc3e901"
)

func TestBidTypedDataMatchesGolden(t *testing.T) {
	got, err := TypedDataHash(BidTypedData(bidDomain, "0xkartik", 2, 2))
	if err != nil {
		t.Fatalf("TypedDataHash: %v", err)
	}
	if got != goldenBidHash {
		t.Fatalf("bid hash = %s, want %s", got, goldenBidHash)
	}
}

func TestCommitmentTypedDataMatchesGolden(t *testing.T) {
	sig, err := types.DecodeHex(goldenBidSig)
	if err != nil {
		t.Fatal(err)
	}
	got, err := TypedDataHash(CommitmentTypedData(commitDomain, "0xkartik", 2, 2, goldenBidHash, sig))
	if err != nil {
		t.Fatalf("TypedDataHash: %v", err)
	}
	if got != goldenCommitHash {
		t.Fatalf("commitment hash = %s, want %s", got, goldenCommitHash)
	}
}

func TestTypedDataDomainWithChain(t *testing.T) {
	contract := types.HexToAddress("0x388C818CA8B9251b393131C08a736A67ccB19297")
	d := crypto.Domain{Name: "PreConfBid", Version: "1", ChainID: uint256.NewInt(17000), VerifyingContract: &contract}

	td := BidTypedData(d, "0xkartik", 2, 2)
	if n := len(td.Types["EIP712Domain"]); n != 4 {
		t.Fatalf("domain fields = %d, want 4", n)
	}
	if td.Domain.VerifyingContract != "0x388C818CA8B9251b393131C08a736A67ccB19297" {
		t.Fatalf("verifyingContract = %s", td.Domain.VerifyingContract)
	}

	sep, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		t.Fatalf("HashStruct: %v", err)
	}
	if types.BytesToHash(sep) != d.Separator() {
		t.Fatalf("separator = %x, want %s", []byte(sep), d.Separator())
	}
}
