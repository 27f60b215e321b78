package crypto

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/types"
)

func TestDomainTypeString(t *testing.T) {
	contract := types.HexToAddress("0x388C818CA8B9251b393131C08a736A67ccB19297")
	tests := []struct {
		domain Domain
		want   string
	}{
		{Domain{Name: "PreConfBid", Version: "1"}, "EIP712Domain(string name,string version)"},
		{Domain{Name: "x", Version: "1", ChainID: uint256.NewInt(1)}, "EIP712Domain(string name,string version,uint256 chainId)"},
		{Domain{Name: "x", Version: "1", VerifyingContract: &contract}, "EIP712Domain(string name,string version,address verifyingContract)"},
		{
			Domain{Name: "x", Version: "1", ChainID: uint256.NewInt(1), VerifyingContract: &contract},
			"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
		},
	}
	for _, tt := range tests {
		if got := tt.domain.TypeString(); got != tt.want {
			t.Errorf("TypeString() = %q, want %q", got, tt.want)
		}
	}
}

func TestDomainSeparatorNameVersion(t *testing.T) {
	bid := Domain{Name: "PreConfBid", Version: "1"}
	want := types.HexToHash("0x268ce6da362f25e9be2742be45c13d4fb6d87fe57d10e928dc107a02141b4d66")
	if got := bid.Separator(); got != want {
		t.Fatalf("bid separator = %s, want %s", got, want)
	}

	commitment := Domain{Name: "PreConfCommitment", Version: "1"}
	want = types.HexToHash("0x5377a4b32d650aef97051e1c0cdfcd5e60c524a6044491281198d882b89412a9")
	if got := commitment.Separator(); got != want {
		t.Fatalf("commitment separator = %s, want %s", got, want)
	}
}

func TestDomainSeparatorWithChainAndContract(t *testing.T) {
	contract := types.HexToAddress("0x388C818CA8B9251b393131C08a736A67ccB19297")
	d := Domain{
		Name:              "PreConfBid",
		Version:           "1",
		ChainID:           uint256.NewInt(17000),
		VerifyingContract: &contract,
	}
	want := types.HexToHash("0xb57412d6efe57e2bb1f462b837b97c358e2edd836c039b5994431f435b51379a")
	if got := d.Separator(); got != want {
		t.Fatalf("separator = %s, want %s", got, want)
	}
	if d.Separator() == (Domain{Name: "PreConfBid", Version: "1"}).Separator() {
		t.Fatal("chain/contract fields did not change the separator")
	}
}

func TestTypedDataHashGolden(t *testing.T) {
	separator := types.HexToHash("0x268ce6da362f25e9be2742be45c13d4fb6d87fe57d10e928dc107a02141b4d66")
	structHash := types.HexToHash("0x992b50e809a316d90b7eec954a5a5f25e61e12cb37d5e14b3ffd7ae37b8087bc")
	want := types.HexToHash("0x86ac45fb1e987a6c8115494cd4fd82f6756d359022cdf5ea19fd2fac1df6e7f0")
	if got := TypedDataHash(separator, structHash); got != want {
		t.Fatalf("TypedDataHash = %s, want %s", got, want)
	}
}

func TestWordEncoding(t *testing.T) {
	w := WordUint64(2)
	if len(w) != 32 || w[31] != 2 {
		t.Fatalf("WordUint64(2) = %x", w)
	}
	for i := 0; i < 31; i++ {
		if w[i] != 0 {
			t.Fatalf("WordUint64 not left-padded at %d", i)
		}
	}
	a := types.HexToAddress("0x388C818CA8B9251b393131C08a736A67ccB19297")
	wa := WordAddress(a)
	if len(wa) != 32 || types.BytesToAddress(wa[12:]) != a {
		t.Fatalf("WordAddress = %x", wa)
	}
	if got := WordUint256(uint256.NewInt(0x0102)); got[30] != 1 || got[31] != 2 {
		t.Fatalf("WordUint256 = %x", got)
	}
}
