package config

// Escrow configures the lock ledger.
type Escrow struct {
	// LockedToken is the address of the escrowed token. When empty the
	// address is derived from LockedSymbol.
	LockedToken    string `toml:"LockedToken" yaml:"lockedToken"`
	LockedSymbol   string `toml:"LockedSymbol" yaml:"lockedSymbol"`
	LockedDecimals uint8  `toml:"LockedDecimals" yaml:"lockedDecimals"`
	// MinLockedAmount is a decimal string in base units.
	MinLockedAmount string `toml:"MinLockedAmount" yaml:"minLockedAmount"`
	// EarlyWithdrawPenaltyRate is out of 100000. Unset selects the default;
	// zero disables the penalty.
	EarlyWithdrawPenaltyRate *uint64 `toml:"EarlyWithdrawPenaltyRate" yaml:"earlyWithdrawPenaltyRate"`
	PenaltyCollector         string  `toml:"PenaltyCollector" yaml:"penaltyCollector"`
	PowerCurve               string  `toml:"PowerCurve" yaml:"powerCurve"`
}

// RewardToken describes a token streamed by the distributor.
type RewardToken struct {
	Symbol   string `toml:"Symbol" yaml:"symbol"`
	Decimals uint8  `toml:"Decimals" yaml:"decimals"`
	// Address overrides the symbol-derived token address.
	Address string `toml:"Address,omitempty" yaml:"address,omitempty"`
}

// Distribution configures the reward distributor.
type Distribution struct {
	RewardsDurationSeconds uint64        `toml:"RewardsDurationSeconds" yaml:"rewardsDurationSeconds"`
	RewardTokens           []RewardToken `toml:"RewardTokens" yaml:"rewardTokens"`
}

type Pauses struct {
	VoteEscrow bool `toml:"VoteEscrow" yaml:"voteEscrow"`
	MultiFee   bool `toml:"MultiFee" yaml:"multiFee"`
	Bank       bool `toml:"Bank" yaml:"bank"`
}

// Logging controls the structured logger.
type Logging struct {
	Level string `toml:"Level" yaml:"level"`
	Env   string `toml:"Env" yaml:"env"`
	// File enables rotated file output in addition to stdout.
	File       string `toml:"File,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"maxSizeMB"`
	MaxBackups int    `toml:"MaxBackups" yaml:"maxBackups"`
}

// API configures the read-only HTTP gateway.
type API struct {
	ListenAddress     string `toml:"ListenAddress" yaml:"listenAddress"`
	RequestsPerMinute int    `toml:"RequestsPerMinute" yaml:"requestsPerMinute"`
	Burst             int    `toml:"Burst" yaml:"burst"`
	LogRequests       bool   `toml:"LogRequests" yaml:"logRequests"`
}

// Telemetry configures OTLP export of traces and metrics.
type Telemetry struct {
	Endpoint string `toml:"Endpoint" yaml:"endpoint"`
	Insecure bool   `toml:"Insecure" yaml:"insecure"`
	// Headers is a comma-separated key=value list sent with every export.
	Headers string `toml:"Headers,omitempty" yaml:"headers,omitempty"`
	Traces  bool   `toml:"Traces" yaml:"traces"`
	Metrics bool   `toml:"Metrics" yaml:"metrics"`
}
