package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"veledger/crypto"
	"veledger/native/bank"
	nativecommon "veledger/native/common"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "veledger.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultDataDir, cfg.DataDir)
	require.Equal(t, DefaultOwner.String(), cfg.Owner)
	require.Equal(t, DefaultPenaltyRate, cfg.Escrow.PenaltyRate())
	require.Len(t, cfg.Distribution.RewardTokens, 2)

	_, err = os.Stat(path)
	require.NoError(t, err)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, reloaded)
}

func TestLoadTOML(t *testing.T) {
	collector := crypto.ModuleAddress("collector")
	path := filepath.Join(t.TempDir(), "veledger.toml")
	contents := `DataDir = "/var/lib/veledger"
Owner = "` + DefaultOwner.Hex() + `"

[escrow]
LockedSymbol = "etha"
MinLockedAmount = "1_000"
EarlyWithdrawPenaltyRate = 0
PenaltyCollector = "` + collector.String() + `"
PowerCurve = "boosted"

[distribution]
RewardsDurationSeconds = 86400

[[distribution.RewardTokens]]
Symbol = "USDC"
Decimals = 6

[pauses]
MultiFee = true

[logging]
Level = "debug"
File = "/var/log/veledger.log"

[api]
ListenAddress = ":9000"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/veledger", cfg.DataDir)
	owner, err := cfg.OwnerAddress()
	require.NoError(t, err)
	require.Equal(t, DefaultOwner, owner)

	min, err := cfg.Escrow.MinLockedAmountValue()
	require.NoError(t, err)
	require.Equal(t, int64(1000), min.Int64())
	require.Zero(t, cfg.Escrow.PenaltyRate())
	got, err := cfg.Escrow.PenaltyCollectorAddress()
	require.NoError(t, err)
	require.Equal(t, collector, got)
	locked, err := cfg.Escrow.LockedTokenAddress()
	require.NoError(t, err)
	require.Equal(t, bank.TokenAddress("ETHA"), locked)

	require.Equal(t, uint64(86400), cfg.Distribution.RewardsDurationSeconds)
	require.Equal(t, []RewardToken{{Symbol: "USDC", Decimals: 6}}, cfg.Distribution.RewardTokens)
	require.True(t, cfg.Pauses.PauseView().IsPaused(nativecommon.ModuleMultiFee))
	require.False(t, cfg.Pauses.PauseView().IsPaused(nativecommon.ModuleVoteEscrow))
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, 100, cfg.Logging.MaxSizeMB)
	require.Equal(t, ":9000", cfg.API.ListenAddress)
	require.Equal(t, DefaultRequestsPerMin, cfg.API.RequestsPerMinute)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veledger.yaml")
	contents := `dataDir: ./data
owner: ` + DefaultOwner.String() + `
escrow:
  lockedSymbol: ETHA
  earlyWithdrawPenaltyRate: 45000
distribution:
  rewardTokens:
    - symbol: WETH
api:
  requestsPerMinute: 30
  burst: 5
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, uint64(45000), cfg.Escrow.PenaltyRate())
	require.Equal(t, DefaultMinLockedAmount, cfg.Escrow.MinLockedAmount)
	require.Equal(t, uint8(18), cfg.Distribution.RewardTokens[0].Decimals)
	require.Equal(t, 30, cfg.API.RequestsPerMinute)
	require.Equal(t, 5, cfg.API.Burst)
}

func TestLoadRejectsUnknownTOMLField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veledger.toml")
	require.NoError(t, os.WriteFile(path, []byte("Owner = \""+DefaultOwner.String()+"\"\nBogus = 1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "Bogus"), err.Error())
}

func TestSaveRoundTripYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veledger.yml")
	cfg := Default()
	cfg.API.Burst = 7
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7, loaded.API.Burst)
	require.Equal(t, cfg.Distribution.RewardTokens, loaded.Distribution.RewardTokens)
}

func TestValidate(t *testing.T) {
	rate := func(v uint64) *uint64 { return &v }
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing owner", func(c *Config) { c.Owner = "" }},
		{"bad owner", func(c *Config) { c.Owner = "nope" }},
		{"bad min amount", func(c *Config) { c.Escrow.MinLockedAmount = "12abc" }},
		{"zero min amount", func(c *Config) { c.Escrow.MinLockedAmount = "0" }},
		{"negative min amount", func(c *Config) { c.Escrow.MinLockedAmount = "-5" }},
		{"rate above precision", func(c *Config) { c.Escrow.EarlyWithdrawPenaltyRate = rate(100_001) }},
		{"bad collector", func(c *Config) { c.Escrow.PenaltyCollector = "0x12" }},
		{"unknown curve", func(c *Config) { c.Escrow.PowerCurve = "cubic" }},
		{"zero duration", func(c *Config) { c.Distribution.RewardsDurationSeconds = 0 }},
		{"empty reward symbol", func(c *Config) { c.Distribution.RewardTokens = []RewardToken{{Symbol: " "}} }},
		{"duplicate reward", func(c *Config) {
			c.Distribution.RewardTokens = []RewardToken{{Symbol: "usdc"}, {Symbol: "USDC"}}
		}},
		{"reward is locked token", func(c *Config) { c.Distribution.RewardTokens = []RewardToken{{Symbol: "ETHA"}} }},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }},
		{"zero burst", func(c *Config) { c.API.Burst = -1 }},
	}
	require.NoError(t, Default().Validate())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
