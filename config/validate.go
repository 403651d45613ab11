package config

import (
	"fmt"
	"math/big"
	"strings"

	"veledger/crypto"
	"veledger/native/bank"
	nativecommon "veledger/native/common"
	"veledger/native/voteescrow"
)

// Validate checks the configuration for values the ledger cannot run with.
func (c *Config) Validate() error {
	if _, err := c.OwnerAddress(); err != nil {
		return err
	}
	if _, err := c.Escrow.LockedTokenAddress(); err != nil {
		return err
	}
	if _, err := c.Escrow.MinLockedAmountValue(); err != nil {
		return err
	}
	if rate := c.Escrow.PenaltyRate(); rate > voteescrow.Precision {
		return fmt.Errorf("escrow: EarlyWithdrawPenaltyRate %d exceeds %d", rate, voteescrow.Precision)
	}
	if _, err := c.Escrow.PenaltyCollectorAddress(); err != nil {
		return err
	}
	if _, err := voteescrow.CurveByName(c.Escrow.PowerCurve); err != nil {
		return fmt.Errorf("escrow: %w", err)
	}
	if c.Distribution.RewardsDurationSeconds == 0 {
		return fmt.Errorf("distribution: RewardsDurationSeconds must be positive")
	}
	seen := make(map[crypto.Address]string)
	locked, _ := c.Escrow.LockedTokenAddress()
	for _, token := range c.Distribution.RewardTokens {
		if bank.NormalizeSymbol(token.Symbol) == "" {
			return fmt.Errorf("distribution: reward token symbol must not be empty")
		}
		addr, err := token.TokenAddress()
		if err != nil {
			return err
		}
		if addr == locked {
			return fmt.Errorf("distribution: reward token %s collides with the locked token", token.Symbol)
		}
		if prev, ok := seen[addr]; ok {
			return fmt.Errorf("distribution: reward token %s duplicates %s", token.Symbol, prev)
		}
		seen[addr] = token.Symbol
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		return fmt.Errorf("logging: rotation limits must not be negative")
	}
	if c.API.RequestsPerMinute <= 0 || c.API.Burst <= 0 {
		return fmt.Errorf("api: RequestsPerMinute and Burst must be positive")
	}
	return nil
}

// OwnerAddress parses the privileged account.
func (c *Config) OwnerAddress() (crypto.Address, error) {
	if strings.TrimSpace(c.Owner) == "" {
		return crypto.ZeroAddress, fmt.Errorf("config: Owner must be set")
	}
	addr, err := crypto.ParseAddress(c.Owner)
	if err != nil {
		return crypto.ZeroAddress, fmt.Errorf("config: invalid Owner: %w", err)
	}
	if addr.IsZero() {
		return crypto.ZeroAddress, fmt.Errorf("config: Owner must not be the zero address")
	}
	return addr, nil
}

// PauseView converts the pause flags into the engines' pause lookup.
func (p Pauses) PauseView() nativecommon.StaticPauses {
	return nativecommon.StaticPauses{
		nativecommon.ModuleVoteEscrow: p.VoteEscrow,
		nativecommon.ModuleMultiFee:   p.MultiFee,
		nativecommon.ModuleBank:       p.Bank,
	}
}

// LockedTokenAddress resolves the escrowed token address.
func (e Escrow) LockedTokenAddress() (crypto.Address, error) {
	if strings.TrimSpace(e.LockedToken) == "" {
		if bank.NormalizeSymbol(e.LockedSymbol) == "" {
			return crypto.ZeroAddress, fmt.Errorf("escrow: LockedToken or LockedSymbol must be set")
		}
		return bank.TokenAddress(e.LockedSymbol), nil
	}
	addr, err := crypto.ParseAddress(e.LockedToken)
	if err != nil {
		return crypto.ZeroAddress, fmt.Errorf("escrow: invalid LockedToken: %w", err)
	}
	return addr, nil
}

// MinLockedAmountValue parses the minimum lock amount.
func (e Escrow) MinLockedAmountValue() (*big.Int, error) {
	amount, err := ParseAmount(e.MinLockedAmount)
	if err != nil {
		return nil, fmt.Errorf("escrow: invalid MinLockedAmount: %w", err)
	}
	if amount.Sign() == 0 {
		return nil, fmt.Errorf("escrow: MinLockedAmount must be positive")
	}
	return amount, nil
}

// PenaltyRate returns the configured penalty rate or the default.
func (e Escrow) PenaltyRate() uint64 {
	if e.EarlyWithdrawPenaltyRate == nil {
		return DefaultPenaltyRate
	}
	return *e.EarlyWithdrawPenaltyRate
}

// PenaltyCollectorAddress parses the optional penalty collector.
func (e Escrow) PenaltyCollectorAddress() (crypto.Address, error) {
	if strings.TrimSpace(e.PenaltyCollector) == "" {
		return crypto.ZeroAddress, nil
	}
	addr, err := crypto.ParseAddress(e.PenaltyCollector)
	if err != nil {
		return crypto.ZeroAddress, fmt.Errorf("escrow: invalid PenaltyCollector: %w", err)
	}
	return addr, nil
}

// TokenAddress resolves the reward token address.
func (r RewardToken) TokenAddress() (crypto.Address, error) {
	if strings.TrimSpace(r.Address) == "" {
		return bank.TokenAddress(r.Symbol), nil
	}
	addr, err := crypto.ParseAddress(r.Address)
	if err != nil {
		return crypto.ZeroAddress, fmt.Errorf("distribution: invalid address for %s: %w", r.Symbol, err)
	}
	return addr, nil
}

// ParseAmount parses a non-negative base-unit amount. Underscores may be used
// as digit separators.
func ParseAmount(value string) (*big.Int, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(value), "_", "")
	if trimmed == "" {
		return nil, fmt.Errorf("amount must not be empty")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}
