package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"veledger/crypto"
)

const (
	DefaultDataDir                = "./veledger-data"
	DefaultLockedSymbol           = "ETHA"
	DefaultMinLockedAmount        = "1000000000000000000000"
	DefaultPenaltyRate     uint64 = 30_000
	DefaultPowerCurve             = "linear"
	DefaultRewardsDuration uint64 = 7 * 86_400
	DefaultListenAddress          = "127.0.0.1:8645"
	DefaultRequestsPerMin         = 600
	DefaultBurst                  = 60
)

// DefaultOwner is the owner written into freshly generated configs.
var DefaultOwner = crypto.ModuleAddress("veledger/owner")

type Config struct {
	DataDir      string       `toml:"DataDir" yaml:"dataDir"`
	Owner        string       `toml:"Owner" yaml:"owner"`
	Escrow       Escrow       `toml:"escrow" yaml:"escrow"`
	Distribution Distribution `toml:"distribution" yaml:"distribution"`
	Pauses       Pauses       `toml:"pauses" yaml:"pauses"`
	Logging      Logging      `toml:"logging" yaml:"logging"`
	API          API          `toml:"api" yaml:"api"`
	Telemetry    Telemetry    `toml:"telemetry" yaml:"telemetry"`
}

// Load loads the configuration from the given path. TOML and YAML files are
// selected by extension. A missing file is created with defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if isYAML(path) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config %s: unknown field %s", path, undecoded[0])
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used for freshly created files.
func Default() *Config {
	cfg := &Config{
		DataDir: DefaultDataDir,
		Owner:   DefaultOwner.String(),
		Distribution: Distribution{
			RewardTokens: []RewardToken{
				{Symbol: "USDC", Decimals: 6},
				{Symbol: "WETH", Decimals: 18},
			},
		},
		Logging: Logging{Level: "info", Env: "dev"},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = DefaultDataDir
	}
	if strings.TrimSpace(c.Escrow.LockedSymbol) == "" {
		c.Escrow.LockedSymbol = DefaultLockedSymbol
	}
	if c.Escrow.LockedDecimals == 0 {
		c.Escrow.LockedDecimals = 18
	}
	if strings.TrimSpace(c.Escrow.MinLockedAmount) == "" {
		c.Escrow.MinLockedAmount = DefaultMinLockedAmount
	}
	if c.Escrow.EarlyWithdrawPenaltyRate == nil {
		rate := DefaultPenaltyRate
		c.Escrow.EarlyWithdrawPenaltyRate = &rate
	}
	if strings.TrimSpace(c.Escrow.PowerCurve) == "" {
		c.Escrow.PowerCurve = DefaultPowerCurve
	}
	if c.Distribution.RewardsDurationSeconds == 0 {
		c.Distribution.RewardsDurationSeconds = DefaultRewardsDuration
	}
	if c.Distribution.RewardTokens == nil {
		c.Distribution.RewardTokens = []RewardToken{}
	}
	for i := range c.Distribution.RewardTokens {
		if c.Distribution.RewardTokens[i].Decimals == 0 {
			c.Distribution.RewardTokens[i].Decimals = 18
		}
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 100
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 5
	}
	if strings.TrimSpace(c.API.ListenAddress) == "" {
		c.API.ListenAddress = DefaultListenAddress
	}
	if c.API.RequestsPerMinute == 0 {
		c.API.RequestsPerMinute = DefaultRequestsPerMin
	}
	if c.API.Burst == 0 {
		c.API.Burst = DefaultBurst
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path in the format implied by its extension.
func Save(path string, cfg *Config) error {
	return persist(path, cfg)
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
