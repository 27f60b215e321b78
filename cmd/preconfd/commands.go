package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"

	"github.com/eth2030/preconf/core/rawdb"
	"github.com/eth2030/preconf/core/types"
	"github.com/eth2030/preconf/crypto"
	"github.com/eth2030/preconf/geth"
	"github.com/eth2030/preconf/log"
	"github.com/eth2030/preconf/node"
	"github.com/eth2030/preconf/preconf"
)

var (
	registryFlag = &cli.StringFlag{
		Name:  "registry",
		Usage: "registry to act on: user or provider",
		Value: "user",
	}
	addressFlag = &cli.StringFlag{
		Name:     "address",
		Usage:    "account address",
		Required: true,
	}
	amountFlag = &cli.StringFlag{
		Name:     "amount",
		Usage:    "stake amount in wei, or with a gwei/ether suffix",
		Required: true,
	}
	keyFlag = &cli.StringFlag{
		Name:     "key",
		Usage:    "hex secp256k1 private key",
		EnvVars:  []string{"PRECONF_KEY"},
		Required: true,
	}
	txnFlag = &cli.StringFlag{
		Name:     "txn",
		Usage:    "transaction hash string being bid on",
		Required: true,
	}
	bidFlag = &cli.Uint64Flag{
		Name:     "bid",
		Usage:    "bid amount",
		Required: true,
	}
	blockFlag = &cli.Uint64Flag{
		Name:     "block",
		Usage:    "target block number",
		Required: true,
	}
	bidHashFlag = &cli.StringFlag{
		Name:  "bid-hash",
		Usage: "bid digest being committed to",
	}
	bidSigFlag = &cli.StringFlag{
		Name:  "bid-signature",
		Usage: "bid signature being committed to",
	}
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "serve JSON-RPC and metrics over the ledger",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "http.host", Usage: "JSON-RPC listen host"},
		&cli.IntFlag{Name: "http.port", Usage: "JSON-RPC listen port"},
		&cli.BoolFlag{Name: "metrics", Usage: "serve Prometheus metrics"},
		&cli.IntFlag{Name: "metrics.port", Usage: "metrics listen port"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if c.IsSet("http.host") {
			cfg.RPC.Host = c.String("http.host")
		}
		if c.IsSet("http.port") {
			cfg.RPC.Port = c.Int("http.port")
		}
		if c.IsSet("metrics") {
			cfg.Metrics.Enabled = c.Bool("metrics")
		}
		if c.IsSet("metrics.port") {
			cfg.Metrics.Port = c.Int("metrics.port")
		}

		logger := log.Default().Module("preconfd")
		logger.Info("preconfd starting",
			"version", version,
			"datadir", cfg.DataDir,
			"rpc", cfg.RPC.Addr(),
			"metrics", cfg.Metrics.Enabled,
		)

		n, err := node.New(cfg)
		if err != nil {
			return err
		}
		if err := n.Start(); err != nil {
			n.Stop()
			return err
		}

		ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		logger.Info("Shutting down")
		return n.Stop()
	},
}

var stakeCommand = &cli.Command{
	Name:  "stake",
	Usage: "manage stakes in the local ledger",
	Subcommands: []*cli.Command{
		{
			Name:  "register",
			Usage: "register an address with an initial stake",
			Flags: []cli.Flag{registryFlag, addressFlag, amountFlag},
			Action: func(c *cli.Context) error {
				return stakeAction(c, true)
			},
		},
		{
			Name:  "deposit",
			Usage: "add stake to a registered address",
			Flags: []cli.Flag{registryFlag, addressFlag, amountFlag},
			Action: func(c *cli.Context) error {
				return stakeAction(c, false)
			},
		},
		{
			Name:  "show",
			Usage: "print an address's stake",
			Flags: []cli.Flag{registryFlag, addressFlag},
			Action: func(c *cli.Context) error {
				return withLedger(c, func(l *preconf.Ledger) error {
					addr, err := parseAddress(c.String(addressFlag.Name))
					if err != nil {
						return err
					}
					ops, err := selectRegistry(c, l)
					if err != nil {
						return err
					}
					return printJSON(c, stakeResult{Address: addr, Stake: geth.ToHexU256(ops.check(addr))})
				})
			},
		},
	},
}

type stakeResult struct {
	Address types.Address `json:"address"`
	Stake   *hexutil.U256 `json:"stake"`
}

// registryOps are the ledger operations on one of the two registries.
type registryOps struct {
	register func(types.Address, *uint256.Int) error
	deposit  func(types.Address, *uint256.Int) error
	check    func(types.Address) *uint256.Int
}

func selectRegistry(c *cli.Context, l *preconf.Ledger) (registryOps, error) {
	switch r := c.String(registryFlag.Name); r {
	case "user":
		return registryOps{l.RegisterUser, l.DepositUser, l.CheckUserStake}, nil
	case "provider":
		return registryOps{l.RegisterProvider, l.DepositProvider, l.CheckProviderStake}, nil
	default:
		return registryOps{}, fmt.Errorf("unknown registry %q", r)
	}
}

func stakeAction(c *cli.Context, register bool) error {
	addr, err := parseAddress(c.String(addressFlag.Name))
	if err != nil {
		return err
	}
	amount, err := geth.ParseWei(c.String(amountFlag.Name))
	if err != nil {
		return err
	}
	return withLedger(c, func(l *preconf.Ledger) error {
		ops, err := selectRegistry(c, l)
		if err != nil {
			return err
		}
		op := ops.deposit
		if register {
			op = ops.register
		}
		if err := op(addr, amount); err != nil {
			return err
		}
		return printJSON(c, stakeResult{Address: addr, Stake: geth.ToHexU256(ops.check(addr))})
	})
}

var bidsCommand = &cli.Command{
	Name:  "bids",
	Usage: "list the bids signed by an address",
	Flags: []cli.Flag{addressFlag},
	Action: func(c *cli.Context) error {
		addr, err := parseAddress(c.String(addressFlag.Name))
		if err != nil {
			return err
		}
		return withLedger(c, func(l *preconf.Ledger) error {
			return printJSON(c, l.GetBidsFor(addr))
		})
	},
}

var commitmentsCommand = &cli.Command{
	Name:  "commitments",
	Usage: "list the commitments signed by an address",
	Flags: []cli.Flag{addressFlag},
	Action: func(c *cli.Context) error {
		addr, err := parseAddress(c.String(addressFlag.Name))
		if err != nil {
			return err
		}
		return withLedger(c, func(l *preconf.Ledger) error {
			return printJSON(c, l.GetCommitmentsFor(addr))
		})
	},
}

type signResult struct {
	Digest    types.Hash    `json:"digest"`
	Signature hexutil.Bytes `json:"signature"`
	Signer    types.Address `json:"signer"`
}

var signBidCommand = &cli.Command{
	Name:  "sign-bid",
	Usage: "sign a bid",
	Flags: []cli.Flag{keyFlag, txnFlag, bidFlag, blockFlag},
	Action: func(c *cli.Context) error {
		h, err := hasher(c)
		if err != nil {
			return err
		}
		key, err := crypto.HexToECDSA(c.String(keyFlag.Name))
		if err != nil {
			return fmt.Errorf("invalid key: %w", err)
		}
		digest, sig, err := h.SignBid(key, c.String(txnFlag.Name), c.Uint64(bidFlag.Name), c.Uint64(blockFlag.Name))
		if err != nil {
			return err
		}
		return printJSON(c, signResult{Digest: digest, Signature: sig, Signer: crypto.PubkeyToAddress(key.PublicKey)})
	},
}

var signCommitmentCommand = &cli.Command{
	Name:  "sign-commitment",
	Usage: "sign a commitment to a bid",
	Flags: []cli.Flag{keyFlag, txnFlag, bidFlag, blockFlag, bidHashFlag, bidSigFlag},
	Action: func(c *cli.Context) error {
		h, err := hasher(c)
		if err != nil {
			return err
		}
		key, err := crypto.HexToECDSA(c.String(keyFlag.Name))
		if err != nil {
			return fmt.Errorf("invalid key: %w", err)
		}
		bidHash, bidSig, err := bidRef(c)
		if err != nil {
			return err
		}
		digest, sig, err := h.SignCommitment(key, c.String(txnFlag.Name), c.Uint64(bidFlag.Name), c.Uint64(blockFlag.Name), bidHash, bidSig)
		if err != nil {
			return err
		}
		return printJSON(c, signResult{Digest: digest, Signature: sig, Signer: crypto.PubkeyToAddress(key.PublicKey)})
	},
}

var hashCommand = &cli.Command{
	Name:  "hash",
	Usage: "print the EIP-712 typed data and digest of a bid, or of a commitment when --bid-hash is given",
	Flags: []cli.Flag{txnFlag, bidFlag, blockFlag, bidHashFlag, bidSigFlag},
	Action: func(c *cli.Context) error {
		h, err := hasher(c)
		if err != nil {
			return err
		}
		txn, amount, block := c.String(txnFlag.Name), c.Uint64(bidFlag.Name), c.Uint64(blockFlag.Name)

		td := geth.BidTypedData(h.BidDomain(), txn, amount, block)
		digest := h.BidHash(txn, amount, block)
		if c.IsSet(bidHashFlag.Name) {
			bidHash, bidSig, err := bidRef(c)
			if err != nil {
				return err
			}
			td = geth.CommitmentTypedData(h.CommitmentDomain(), txn, amount, block, bidHash, bidSig)
			digest = h.PreConfHash(txn, amount, block, bidHash, bidSig)
		}
		return printJSON(c, struct {
			TypedData any        `json:"typedData"`
			Digest    types.Hash `json:"digest"`
		}{td, digest})
	},
}

var dumpConfigCommand = &cli.Command{
	Name:  "dumpconfig",
	Usage: "print the effective configuration as TOML",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		out, err := node.MarshalConfig(cfg)
		if err != nil {
			return err
		}
		_, err = c.App.Writer.Write(out)
		return err
	},
}

// withLedger opens the ledger in the configured datadir without starting
// any server, runs fn and closes it again.
func withLedger(c *cli.Context, fn func(*preconf.Ledger) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.RPC.Enabled = false
	cfg.Metrics.Enabled = false
	n, err := node.New(cfg)
	if errors.Is(err, rawdb.ErrLocked) {
		return fmt.Errorf("ledger %s is held by a running preconfd daemon; stop it or use its JSON-RPC API: %w", cfg.DBPath(), err)
	}
	if err != nil {
		return err
	}
	return errors.Join(fn(n.Ledger()), n.Stop())
}

// hasher builds the digest derivation for the configured signing domains.
func hasher(c *cli.Context) (*preconf.Hasher, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	lc, err := cfg.LedgerConfig()
	if err != nil {
		return nil, err
	}
	return preconf.NewHasher(lc.Store.BidDomain, lc.Store.CommitmentDomain), nil
}

func bidRef(c *cli.Context) (types.Hash, []byte, error) {
	var h types.Hash
	if err := h.UnmarshalText([]byte(c.String(bidHashFlag.Name))); err != nil {
		return types.Hash{}, nil, fmt.Errorf("invalid --%s: %w", bidHashFlag.Name, err)
	}
	sig, err := types.DecodeHex(c.String(bidSigFlag.Name))
	if err != nil {
		return types.Hash{}, nil, fmt.Errorf("invalid --%s: %w", bidSigFlag.Name, err)
	}
	return h, sig, nil
}

func parseAddress(s string) (types.Address, error) {
	if !types.IsHexAddress(s) {
		return types.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return types.HexToAddress(s), nil
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
