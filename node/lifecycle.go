package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/eth2030/preconf/log"
)

// ServiceState represents the lifecycle state of a service.
type ServiceState int

const (
	StateCreated  ServiceState = iota // registered but not started
	StateRunning                      // running normally
	StateStopped                      // stopped cleanly
	StateFailed                       // failed to start or stop
)

// String returns a human-readable name for the service state.
func (s ServiceState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Service is a subsystem that can be started and stopped by the
// lifecycle manager.
type Service interface {
	Start() error
	Stop() error
	Name() string
}

type serviceEntry struct {
	svc      Service
	state    ServiceState
	err      error
	priority int // lower value = start first
}

// LifecycleManager starts services in priority order and stops them in
// reverse.
type LifecycleManager struct {
	mu       sync.Mutex
	services []*serviceEntry
	byName   map[string]*serviceEntry
}

// NewLifecycleManager creates an empty manager.
func NewLifecycleManager() *LifecycleManager {
	return &LifecycleManager{byName: make(map[string]*serviceEntry)}
}

// Register adds a service. Names must be unique.
func (lm *LifecycleManager) Register(svc Service, priority int) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if _, exists := lm.byName[svc.Name()]; exists {
		return fmt.Errorf("service %q already registered", svc.Name())
	}
	entry := &serviceEntry{svc: svc, state: StateCreated, priority: priority}
	lm.services = append(lm.services, entry)
	lm.byName[svc.Name()] = entry
	return nil
}

// StartAll starts services in ascending priority. On the first failure the
// services already started are stopped again and the error is returned.
func (lm *LifecycleManager) StartAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	ordered := lm.sortedServices()
	for i, entry := range ordered {
		if err := entry.svc.Start(); err != nil {
			entry.state = StateFailed
			entry.err = err
			for j := i - 1; j >= 0; j-- {
				lm.stop(ordered[j])
			}
			return fmt.Errorf("start %s: %w", entry.svc.Name(), err)
		}
		entry.state = StateRunning
	}
	return nil
}

// StopAll stops running services in descending priority.
func (lm *LifecycleManager) StopAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	ordered := lm.sortedServices()
	var errs []error
	for i := len(ordered) - 1; i >= 0; i-- {
		if err := lm.stop(ordered[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (lm *LifecycleManager) stop(entry *serviceEntry) error {
	if entry.state != StateRunning {
		return nil
	}
	if err := entry.svc.Stop(); err != nil {
		entry.state = StateFailed
		entry.err = err
		return fmt.Errorf("stop %s: %w", entry.svc.Name(), err)
	}
	entry.state = StateStopped
	return nil
}

// State returns the current state of a service by name. Unknown names
// report StateFailed.
func (lm *LifecycleManager) State(name string) ServiceState {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	entry, ok := lm.byName[name]
	if !ok {
		return StateFailed
	}
	return entry.state
}

// HealthCheck maps each service name to whether it is running.
func (lm *LifecycleManager) HealthCheck() map[string]bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	result := make(map[string]bool, len(lm.services))
	for _, entry := range lm.services {
		result[entry.svc.Name()] = entry.state == StateRunning
	}
	return result
}

// sortedServices returns the services sorted by priority. Caller must hold lm.mu.
func (lm *LifecycleManager) sortedServices() []*serviceEntry {
	sorted := make([]*serviceEntry, len(lm.services))
	copy(sorted, lm.services)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})
	return sorted
}

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// httpService serves a handler on a TCP address.
type httpService struct {
	name    string
	addr    string
	handler http.Handler
	log     *log.Logger

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

func newHTTPService(name, addr string, h http.Handler) *httpService {
	return &httpService{name: name, addr: addr, handler: h, log: log.Default().Module(name)}
}

func (s *httpService) Name() string { return s.name }

func (s *httpService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv = &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server failed", "err", err)
		}
	}()
	s.log.Info("http server listening", "addr", ln.Addr().String())
	return nil
}

func (s *httpService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	s.srv = nil
	return err
}

// Addr returns the bound address, or "" before Start.
func (s *httpService) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}
