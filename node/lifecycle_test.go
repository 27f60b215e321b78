package node

import (
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockService struct {
	name     string
	startErr error
	stopErr  error
	events   *[]string
}

func (m *mockService) Name() string { return m.name }

func (m *mockService) Start() error {
	if m.startErr != nil {
		return m.startErr
	}
	*m.events = append(*m.events, "start "+m.name)
	return nil
}

func (m *mockService) Stop() error {
	*m.events = append(*m.events, "stop "+m.name)
	return m.stopErr
}

func TestLifecycleOrdering(t *testing.T) {
	var events []string
	lm := NewLifecycleManager()
	require.NoError(t, lm.Register(&mockService{name: "b", events: &events}, 2))
	require.NoError(t, lm.Register(&mockService{name: "a", events: &events}, 1))
	require.Error(t, lm.Register(&mockService{name: "a", events: &events}, 3))

	require.NoError(t, lm.StartAll())
	require.Equal(t, StateRunning, lm.State("a"))
	require.Equal(t, map[string]bool{"a": true, "b": true}, lm.HealthCheck())

	require.NoError(t, lm.StopAll())
	require.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, events)
	require.Equal(t, StateStopped, lm.State("b"))
	require.Equal(t, StateFailed, lm.State("missing"))
}

func TestLifecycleStartFailureRollsBack(t *testing.T) {
	var events []string
	boom := errors.New("boom")
	lm := NewLifecycleManager()
	require.NoError(t, lm.Register(&mockService{name: "a", events: &events}, 1))
	require.NoError(t, lm.Register(&mockService{name: "b", startErr: boom, events: &events}, 2))

	err := lm.StartAll()
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"start a", "stop a"}, events)
	require.Equal(t, StateStopped, lm.State("a"))
	require.Equal(t, StateFailed, lm.State("b"))
}

func TestLifecycleStopError(t *testing.T) {
	var events []string
	boom := errors.New("boom")
	lm := NewLifecycleManager()
	require.NoError(t, lm.Register(&mockService{name: "a", stopErr: boom, events: &events}, 1))
	require.NoError(t, lm.StartAll())
	require.ErrorIs(t, lm.StopAll(), boom)
	require.Equal(t, StateFailed, lm.State("a"))
	require.Equal(t, "failed", lm.State("a").String())
}

func TestHTTPService(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
	svc := newHTTPService("test", "127.0.0.1:0", h)
	require.Empty(t, svc.Addr())
	require.NoError(t, svc.Start())

	resp, err := http.Get("http://" + svc.Addr())
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))

	require.NoError(t, svc.Stop())
	require.NoError(t, svc.Stop())
}
