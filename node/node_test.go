package node

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/crypto"
	"github.com/eth2030/preconf/rpc"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.RPC.Port = 0
	cfg.Metrics = HTTPConfig{Enabled: true, Host: "127.0.0.1", Port: 0}
	return &cfg
}

func TestNodeServesLedger(t *testing.T) {
	cfg := testConfig(t)
	n, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, n.Start())
	require.True(t, n.Running())
	require.Error(t, n.Start())
	require.Equal(t, map[string]bool{"rpc": true, "metrics": true}, n.Health())

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	user := crypto.PubkeyToAddress(key.PublicKey)
	require.NoError(t, n.Ledger().RegisterUser(user, uint256.NewInt(1e18)))

	ctx := context.Background()
	c, err := rpc.Dial(ctx, "http://"+n.RPCAddr())
	require.NoError(t, err)
	defer c.Close()

	stake, err := c.CheckUserStake(ctx, user)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1e18), stake)

	h, sig, err := n.Ledger().Hasher().SignBid(key, "0xabc", 1, 10)
	require.NoError(t, err)
	bid, err := c.StoreBid(ctx, "0xabc", 1, 10, sig)
	require.NoError(t, err)
	require.Equal(t, h, bid.BidHash)

	resp, err := http.Get("http://" + n.MetricsAddr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Contains(t, string(body), "preconf_registry_registrations_total")
	require.Contains(t, string(body), "preconf_store_bids_total")

	require.NoError(t, n.Stop())
	require.False(t, n.Running())
	require.NoError(t, n.Stop())
	n.Wait()
}

func TestNodeReopen(t *testing.T) {
	cfg := testConfig(t)
	cfg.RPC.Enabled = false
	cfg.Metrics.Enabled = false

	n, err := New(cfg)
	require.NoError(t, err)
	provider := types.HexToAddress("0x1b6D2283589d0c598202402011A73a6057837687")
	require.NoError(t, n.Ledger().RegisterProvider(provider, uint256.NewInt(3e18)))
	require.Empty(t, n.RPCAddr())
	require.NoError(t, n.Stop())

	n, err = New(cfg)
	require.NoError(t, err)
	defer n.Stop()
	require.Equal(t, uint256.NewInt(3e18), n.Ledger().CheckProviderStake(provider))
}

func TestNodeRejectsChangedRegistryConfig(t *testing.T) {
	cfg := testConfig(t)
	n, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, n.Stop())

	cfg.UserRegistry.MinStake = "2ether"
	_, err = New(cfg)
	require.Error(t, err)
}

func TestNodeInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Format = "xml"
	_, err := New(cfg)
	require.Error(t, err)
}
