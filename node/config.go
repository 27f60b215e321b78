// Package node runs the preconfirmation ledger as a daemon: it opens the
// database, builds both stake registries and the store, and serves the
// JSON-RPC API and Prometheus metrics over HTTP.
package node

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/crypto"
	"github.com/eth2030/preconf/geth"
	"github.com/eth2030/preconf/log"
	"github.com/eth2030/preconf/preconf"
	"github.com/eth2030/preconf/registry"
)

// Config holds all configuration for a preconf node. Field tags give the
// TOML keys.
type Config struct {
	// DataDir is the root directory for all data storage.
	DataDir string `toml:"datadir"`

	RPC              HTTPConfig     `toml:"rpc"`
	Metrics          HTTPConfig     `toml:"metrics"`
	Log              LogConfig      `toml:"log"`
	UserRegistry     RegistryConfig `toml:"user_registry"`
	ProviderRegistry RegistryConfig `toml:"provider_registry"`
	Store            StoreConfig    `toml:"store"`
}

// HTTPConfig configures an HTTP listener.
type HTTPConfig struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// RegistryConfig holds one stake registry's parameters. MinStake is a wei
// amount in any form geth.ParseWei accepts.
type RegistryConfig struct {
	MinStake     string `toml:"min_stake"`
	FeeRecipient string `toml:"fee_recipient"`
	FeePercent   uint8  `toml:"fee_percent"`
}

// StoreConfig holds the store parameters. ChainID and VerifyingContract bind
// both signing domains when set.
type StoreConfig struct {
	Oracle            string `toml:"oracle"`
	ChainID           uint64 `toml:"chain_id"`
	VerifyingContract string `toml:"verifying_contract"`
	CacheSize         int    `toml:"cache_size"`
}

// DefaultConfig returns a Config with the deployment defaults: 1 ether
// minimum stake and a 15% fee in both registries.
func DefaultConfig() Config {
	reg := RegistryConfig{MinStake: "1ether", FeePercent: 15}
	return Config{
		DataDir:          "preconf-data",
		RPC:              HTTPConfig{Enabled: true, Host: "127.0.0.1", Port: 8545},
		Metrics:          HTTPConfig{Enabled: false, Host: "127.0.0.1", Port: 6060},
		Log:              LogConfig{Level: "info", Format: "json"},
		UserRegistry:     reg,
		ProviderRegistry: reg,
		Store:            StoreConfig{CacheSize: crypto.DefaultRecoveryCacheSize},
	}
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: datadir must not be empty")
	}
	if err := validateHTTP("rpc", c.RPC); err != nil {
		return err
	}
	if err := validateHTTP("metrics", c.Metrics); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Store.CacheSize < 0 {
		return fmt.Errorf("config: invalid cache_size: %d", c.Store.CacheSize)
	}
	_, err := c.LedgerConfig()
	return err
}

func validateHTTP(name string, c HTTPConfig) error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid %s port: %d", name, c.Port)
	}
	if c.Enabled && c.Host == "" {
		return fmt.Errorf("config: %s host must not be empty when enabled", name)
	}
	return nil
}

// ResolvePath resolves a path relative to the data directory.
func (c *Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// DBPath returns the LevelDB directory.
func (c *Config) DBPath() string {
	return c.ResolvePath("ledger")
}

// LedgerConfig converts the file-level settings into ledger parameters.
func (c *Config) LedgerConfig() (preconf.LedgerConfig, error) {
	users, err := c.UserRegistry.registryConfig()
	if err != nil {
		return preconf.LedgerConfig{}, fmt.Errorf("config: user_registry: %w", err)
	}
	providers, err := c.ProviderRegistry.registryConfig()
	if err != nil {
		return preconf.LedgerConfig{}, fmt.Errorf("config: provider_registry: %w", err)
	}
	store, err := c.Store.storeConfig()
	if err != nil {
		return preconf.LedgerConfig{}, fmt.Errorf("config: store: %w", err)
	}
	return preconf.LedgerConfig{Users: users, Providers: providers, Store: store}, nil
}

func (c RegistryConfig) registryConfig() (registry.Config, error) {
	minStake, err := geth.ParseWei(c.MinStake)
	if err != nil {
		return registry.Config{}, fmt.Errorf("min_stake: %w", err)
	}
	recipient, err := parseAddress("fee_recipient", c.FeeRecipient)
	if err != nil {
		return registry.Config{}, err
	}
	cfg := registry.Config{MinStake: minStake, FeeRecipient: recipient, FeePercent: c.FeePercent}
	return cfg, cfg.Validate()
}

func (c StoreConfig) storeConfig() (preconf.Config, error) {
	cfg := preconf.DefaultConfig()
	oracle, err := parseAddress("oracle", c.Oracle)
	if err != nil {
		return cfg, err
	}
	cfg.Oracle = oracle
	if c.ChainID != 0 {
		id := uint256.NewInt(c.ChainID)
		cfg.BidDomain.ChainID = id
		cfg.CommitmentDomain.ChainID = id
	}
	if c.VerifyingContract != "" {
		addr, err := parseAddress("verifying_contract", c.VerifyingContract)
		if err != nil {
			return cfg, err
		}
		cfg.BidDomain.VerifyingContract = &addr
		cfg.CommitmentDomain.VerifyingContract = &addr
	}
	if c.CacheSize > 0 {
		cfg.RecoveryCacheSize = c.CacheSize
	}
	return cfg, nil
}

// parseAddress accepts an empty string as the zero address.
func parseAddress(field, s string) (types.Address, error) {
	if s == "" {
		return types.Address{}, nil
	}
	if !types.IsHexAddress(s) {
		return types.Address{}, fmt.Errorf("%s: invalid address %q", field, s)
	}
	return types.HexToAddress(s), nil
}
