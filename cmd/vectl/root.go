package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"veledger/config"
	"veledger/core"
	"veledger/crypto"
	"veledger/native/bank"
	"veledger/observability/logging"
	"veledger/storage"
)

const defaultConfigPath = "./veledger.toml"

type cli struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	jsonOutput bool
	verbose    bool
	logger     *slog.Logger
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "vectl",
		Short: "Operate a vote-escrow ledger and its reward distributor",
		Long: `vectl opens the ledger state in the configured data directory and runs a
single operation against it. Every mutating command is atomic.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.logger = logging.Console(c.stderr, c.verbose).With("run", uuid.NewString())
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", defaultConfigPath, "path to the TOML or YAML config file")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log ledger events")

	root.AddCommand(
		c.bootstrapCommand(),
		c.tokenCommand(),
		c.lockCommand(),
		c.rewardsCommand(),
		c.escrowCommand(),
		c.adminCommand(),
	)
	return root
}

func (c *cli) bootstrapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Register tokens and link the lock ledger with the reward distributor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				if err := l.Bootstrap(); err != nil {
					return err
				}
				return c.print(map[string]any{
					"escrow":      l.EscrowAddress(),
					"distributor": l.DistributorAddress(),
					"lockedToken": l.LockedToken(),
				}, fmt.Sprintf("Ledger bootstrapped\n  Escrow:      %s\n  Distributor: %s\n", l.EscrowAddress(), l.DistributorAddress()))
			})
		},
	}
}

// withLedger loads the configuration, opens the state database and runs fn.
func (c *cli) withLedger(fn func(*core.Ledger) error) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer db.Close()

	ledger, err := core.NewLedger(cfg, db)
	if err != nil {
		return err
	}
	ledger.SetLogger(c.logger)
	return fn(ledger)
}

// print writes v as JSON when --json is set, otherwise the text form.
func (c *cli) print(v any, text string) error {
	if c.jsonOutput {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := io.WriteString(c.stdout, text)
	return err
}

// resolveAddress accepts a bech32 or hex address, or one of the aliases
// owner, escrow and distributor.
func resolveAddress(l *core.Ledger, value string) (crypto.Address, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return crypto.ZeroAddress, fmt.Errorf("address is required")
	case "owner":
		return l.Owner(), nil
	case "escrow":
		return l.EscrowAddress(), nil
	case "distributor":
		return l.DistributorAddress(), nil
	}
	return crypto.ParseAddress(value)
}

// resolveToken accepts a token address or ticker symbol.
func resolveToken(value string) (crypto.Address, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return crypto.ZeroAddress, fmt.Errorf("--token is required")
	}
	if addr, err := crypto.ParseAddress(trimmed); err == nil {
		return addr, nil
	}
	return bank.TokenAddress(trimmed), nil
}

// parseAmount parses a non-negative integer amount in base units. Decimal
// and scientific shorthands such as 1000e18 or 0.5e6 are accepted when they
// resolve to a whole number.
func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(value), "_", "")
	if trimmed == "" {
		return nil, fmt.Errorf("--amount is required")
	}
	rat, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if rat.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	if !rat.IsInt() {
		return nil, fmt.Errorf("amount %q is not a whole number of base units", value)
	}
	return new(big.Int).Set(rat.Num()), nil
}
