package node

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/eth2030/preconf/core/rawdb"
	"github.com/eth2030/preconf/log"
	"github.com/eth2030/preconf/metrics"
	"github.com/eth2030/preconf/preconf"
	"github.com/eth2030/preconf/rpc"
)

// Database sizing for the ledger's LevelDB.
const (
	dbCache   = 64
	dbHandles = 64
)

// Node owns the ledger database and the HTTP services in front of it.
type Node struct {
	config *Config
	log    *log.Logger

	db        rawdb.Database
	ledger    *preconf.Ledger
	metrics   *metrics.Ledger
	rpcServer *rpc.Server

	lifecycle   *LifecycleManager
	rpcHTTP     *httpService
	metricsHTTP *httpService

	mu      sync.Mutex
	running bool
	closed  bool
	stop    chan struct{}
}

// New opens the ledger under config.DataDir and prepares, but does not
// start, the RPC and metrics servers.
func New(config *Config) (*Node, error) {
	if config == nil {
		c := DefaultConfig()
		config = &c
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	ledgerCfg, err := config.LedgerConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(config.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create datadir: %w", err)
	}
	db, err := rawdb.NewLevelDB(config.DBPath(), dbCache, dbHandles)
	if err != nil {
		return nil, err
	}

	n := &Node{
		config:    config,
		log:       log.Default().Module("node"),
		db:        db,
		metrics:   metrics.NewLedger(),
		lifecycle: NewLifecycleManager(),
		stop:      make(chan struct{}),
	}
	n.ledger, err = preconf.OpenLedger(db, ledgerCfg, n.metrics)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	n.rpcServer, err = rpc.NewServer(n.ledger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init rpc: %w", err)
	}

	if config.RPC.Enabled {
		n.rpcHTTP = newHTTPService("rpc", config.RPC.Addr(), n.rpcServer.Handler())
		if err := n.lifecycle.Register(n.rpcHTTP, 0); err != nil {
			db.Close()
			return nil, err
		}
	}
	if config.Metrics.Enabled {
		n.metricsHTTP = newHTTPService("metrics", config.Metrics.Addr(), n.metrics.Handler())
		if err := n.lifecycle.Register(n.metricsHTTP, 1); err != nil {
			db.Close()
			return nil, err
		}
	}
	return n, nil
}

// Start starts the enabled HTTP services.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return errors.New("node closed")
	}
	if n.running {
		return errors.New("node already running")
	}
	if err := n.lifecycle.StartAll(); err != nil {
		return err
	}
	n.running = true
	n.log.Info("Node started",
		"datadir", n.config.DataDir,
		"users", n.ledger.Users().Len(),
		"providers", n.ledger.Providers().Len(),
		"commitments", n.ledger.CommitmentCount())
	return nil
}

// Stop shuts the services down and closes the database. It is safe to call
// on a node that was never started.
func (n *Node) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	var errs []error
	if n.running {
		if err := n.lifecycle.StopAll(); err != nil {
			errs = append(errs, err)
		}
		n.running = false
	}
	n.rpcServer.Stop()
	if err := n.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	n.closed = true
	close(n.stop)
	n.log.Info("Node stopped")
	return errors.Join(errs...)
}

// Wait blocks until the node is stopped.
func (n *Node) Wait() {
	<-n.stop
}

// Ledger returns the protocol state.
func (n *Node) Ledger() *preconf.Ledger { return n.ledger }

// Metrics returns the node's collectors.
func (n *Node) Metrics() *metrics.Ledger { return n.metrics }

// Config returns the node configuration.
func (n *Node) Config() *Config { return n.config }

// RPCAddr returns the bound RPC address, or "" when the server is not running.
func (n *Node) RPCAddr() string {
	if n.rpcHTTP == nil {
		return ""
	}
	return n.rpcHTTP.Addr()
}

// MetricsAddr returns the bound metrics address, or "" when not running.
func (n *Node) MetricsAddr() string {
	if n.metricsHTTP == nil {
		return ""
	}
	return n.metricsHTTP.Addr()
}

// Health reports which services are running.
func (n *Node) Health() map[string]bool {
	return n.lifecycle.HealthCheck()
}

// Running reports whether the node is currently running.
func (n *Node) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}
