// Command preconfd runs the preconfirmation ledger and provides offline
// helpers for staking, signing and hashing bids and commitments.
//
// Usage:
//
//	preconfd [global flags] <command> [flags]
//
// Commands:
//
//	run              serve JSON-RPC and metrics over the ledger in --datadir
//	stake            register or top up a user/provider stake
//	bids             list the bids signed by an address
//	commitments      list the commitments signed by an address
//	sign-bid         sign a bid with a private key
//	sign-commitment  sign a commitment to a bid with a private key
//	hash             print the EIP-712 typed data and digest of a bid or commitment
//	dumpconfig       print the effective configuration as TOML
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/eth2030/preconf/log"
	"github.com/eth2030/preconf/node"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "TOML configuration file",
		EnvVars: []string{"PRECONF_CONFIG"},
	}
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "data directory (overrides the config file)",
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "log level: debug, info, warn, error or 1-5",
	}
	logFormatFlag = &cli.StringFlag{
		Name:  "log.format",
		Usage: "log format: json or text",
	}
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	return runWith(args, os.Stdout, os.Stderr)
}

func runWith(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	if err := app.Run(append([]string{app.Name}, args...)); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "preconfd",
		Usage:     "stake-gated preconfirmation commitment ledger",
		Version:   fmt.Sprintf("%s (commit %s)", version, commit),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     []cli.Flag{configFlag, dataDirFlag, verbosityFlag, logFormatFlag},
		Before: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			_, err = log.Setup(log.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: c.App.ErrWriter})
			return err
		},
		Commands: []*cli.Command{
			runCommand,
			stakeCommand,
			bidsCommand,
			commitmentsCommand,
			signBidCommand,
			signCommitmentCommand,
			hashCommand,
			dumpConfigCommand,
		},
	}
}

// loadConfig reads --config and applies the global flag overrides.
func loadConfig(c *cli.Context) (*node.Config, error) {
	cfg, err := node.LoadConfigFile(c.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	if c.IsSet(dataDirFlag.Name) {
		cfg.DataDir = c.String(dataDirFlag.Name)
	}
	if c.IsSet(verbosityFlag.Name) {
		cfg.Log.Level = c.String(verbosityFlag.Name)
	}
	if c.IsSet(logFormatFlag.Name) {
		cfg.Log.Format = c.String(logFormatFlag.Name)
	}
	return cfg, nil
}
