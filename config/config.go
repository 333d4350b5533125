// Package config holds the bot's runtime settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "15s" or "2m".
type Duration time.Duration

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the full bot configuration. Every field has a working default
// so a missing or partial file is fine.
type Config struct {
	// Contract is the game world contract address.
	Contract string `yaml:"contract"`
	// BotAddress is the wallet the controller signs with, used to detect
	// which seat the bot holds in games against humans.
	BotAddress string `yaml:"bot_address"`
	// ToriiURL is the GraphQL endpoint of the indexer.
	ToriiURL string `yaml:"torii_url"`

	MaxGames     int      `yaml:"max_games"`
	MapID        int      `yaml:"map_id"` // fallback when map discovery fails
	TickInterval Duration `yaml:"tick_interval"`
	TxWait       Duration `yaml:"tx_wait"`

	// MonitorAddr, when set, serves the live status websocket.
	MonitorAddr string `yaml:"monitor_addr"`

	// Adaptive enables situational strategy overrides on top of the
	// seeded preset draw.
	Adaptive bool `yaml:"adaptive"`
	// StrategyFile optionally replaces the built-in preset catalog.
	StrategyFile string `yaml:"strategy_file"`

	// WorkDir is where multicall files are staged.
	WorkDir string `yaml:"work_dir"`

	GameNames      []string `yaml:"game_names"`
	OpenGamePrefix string   `yaml:"open_game_prefix"`
	OpenGameNames  []string `yaml:"open_game_names"`
}

// Default returns the stock Sepolia configuration.
func Default() *Config {
	return &Config{
		Contract:     "0x05050094858a637c2c315b408377f7ce7d0481c4e60fd5bc732aad0ac7ab2862",
		BotAddress:   "0x4c16592ee60ce7ecd8c439b6e6195318f5459dd2ca394a8ffab30310f01f412",
		ToriiURL:     "https://api.cartridge.gg/x/hashfront/torii/graphql",
		MaxGames:     5,
		MapID:        1, // bridgehead
		TickInterval: Duration(15 * time.Second),
		TxWait:       Duration(2 * time.Second),
		Adaptive:     true,
		WorkDir:      os.TempDir(),
		GameNames: []string{
			"BOT_ARENA_01", "BOT_ARENA_02", "BOT_ARENA_03", "BOT_ARENA_04", "BOT_ARENA_05",
			"BOT_ARENA_06", "BOT_ARENA_07", "BOT_ARENA_08", "BOT_ARENA_09", "BOT_ARENA_10",
		},
		OpenGamePrefix: "OPEN",
		OpenGameNames: []string{
			"OPEN_BATTLE", "OPEN_MATCH", "OPEN_FIGHT", "OPEN_WAR", "OPEN_CLASH",
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the bot cannot run with.
func (c *Config) Validate() error {
	if c.Contract == "" {
		return fmt.Errorf("config: contract address required")
	}
	if c.ToriiURL == "" {
		return fmt.Errorf("config: torii_url required")
	}
	if c.MaxGames < 0 {
		return fmt.Errorf("config: max_games must be >= 0, got %d", c.MaxGames)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick_interval must be positive")
	}
	if len(c.GameNames) == 0 {
		return fmt.Errorf("config: at least one game name required")
	}
	return nil
}
