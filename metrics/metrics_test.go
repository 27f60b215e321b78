package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNilLedgerIsNoop(t *testing.T) {
	var m *Ledger
	m.Registration("user", true)
	m.Deposit("user")
	m.SetStaked("user", uint256.NewInt(1))
	m.Bid("")
	m.Commitment("unauthorized")
	m.ObserveOp("storeBid", time.Now())
	m.CacheLookup(true)
}

func TestLedgerCounters(t *testing.T) {
	m := NewLedger()

	m.Registration("provider", true)
	m.Registration("provider", false)
	m.Registration("provider", false)
	m.Bid("")
	m.Bid("unauthorized")
	m.Commitment("")
	m.CacheLookup(false)
	m.CacheLookup(true)
	m.CacheLookup(true)

	require.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("provider", OutcomeAccepted)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.registrations.WithLabelValues("provider", OutcomeRejected)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.bids.WithLabelValues(OutcomeRejected, "unauthorized")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.commitments.WithLabelValues(OutcomeAccepted, "")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
}

func TestSetStakedInEther(t *testing.T) {
	m := NewLedger()
	two, _ := uint256.FromDecimal("2000000000000000000")
	m.SetStaked("user", two)
	require.InDelta(t, 2.0, testutil.ToFloat64(m.staked.WithLabelValues("user")), 1e-9)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewLedger()
	m.Deposit("user")
	m.ObserveOp("storeCommitment", time.Now())

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := string(body)
	require.True(t, strings.Contains(out, `preconf_registry_deposits_total{registry="user"} 1`), out)
	require.Contains(t, out, "preconf_operation_duration_seconds_bucket")
	require.Contains(t, out, "go_goroutines")
}
