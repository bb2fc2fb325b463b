// Package config provides YAML-based configuration loading for ZenTiles,
// environment overrides, and the difficulty modes of the game.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("config: invalid")

// Config is the complete application configuration.
type Config struct {
	Game    GameConfig    `yaml:"game"`
	Offline OfflineConfig `yaml:"offline"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// GameConfig holds the symbol pool and the pacing of match resolution.
type GameConfig struct {
	Symbols    []string      `yaml:"symbols"`
	MatchDelay time.Duration `yaml:"match_delay" env:"ZENTILES_MATCH_DELAY"` // before a pair is marked matched
	WrongDelay time.Duration `yaml:"wrong_delay" env:"ZENTILES_WRONG_DELAY"` // before a mismatch is highlighted
	ResetDelay time.Duration `yaml:"reset_delay" env:"ZENTILES_RESET_DELAY"` // before a mismatch flips back
	WinDelay   time.Duration `yaml:"win_delay" env:"ZENTILES_WIN_DELAY"`     // between last match and win summary
}

// OfflineConfig describes the cache generation and its asset manifest.
type OfflineConfig struct {
	CachePrefix  string        `yaml:"cache_prefix" env:"ZENTILES_CACHE_PREFIX"`
	Version      string        `yaml:"version" env:"ZENTILES_CACHE_VERSION"`
	Origin       string        `yaml:"origin" env:"ZENTILES_ORIGIN"`
	RootDocument string        `yaml:"root_document" env:"ZENTILES_ROOT_DOCUMENT"`
	Assets       []string      `yaml:"assets" env:"ZENTILES_ASSETS" envSeparator:","`
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"ZENTILES_FETCH_TIMEOUT"`
	Backend      string        `yaml:"backend" env:"ZENTILES_CACHE_BACKEND"` // "sqlite" or "memory"
}

// CacheName returns the name of the current cache generation,
// e.g. "zentiles-v1.0.0".
func (o OfflineConfig) CacheName() string {
	return fmt.Sprintf("%s-v%s", o.CachePrefix, o.Version)
}

// ServerConfig configures the network front ends.
type ServerConfig struct {
	HTTPAddr    string        `yaml:"http_addr" env:"ZENTILES_HTTP_ADDR"`
	SSHAddr     string        `yaml:"ssh_addr" env:"ZENTILES_SSH_ADDR"` // empty disables SSH
	HostKeyPath string        `yaml:"host_key" env:"ZENTILES_HOST_KEY"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"ZENTILES_IDLE_TIMEOUT"`
}

// StorageConfig configures the SQLite database.
type StorageConfig struct {
	DBPath string `yaml:"db_path" env:"ZENTILES_DB"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level" env:"ZENTILES_LOG_LEVEL"`
}

// Validate checks the invariants the rest of the program relies on.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Game.Symbols))
	for _, s := range c.Game.Symbols {
		if s == "" {
			return fmt.Errorf("%w: empty symbol in pool", ErrInvalidConfig)
		}
		if seen[s] {
			return fmt.Errorf("%w: duplicate symbol %q in pool", ErrInvalidConfig, s)
		}
		seen[s] = true
	}
	if need := MaxPairs(); len(c.Game.Symbols) < need {
		return fmt.Errorf("%w: symbol pool has %d symbols, need at least %d", ErrInvalidConfig, len(c.Game.Symbols), need)
	}
	if c.Game.ResetDelay < c.Game.WrongDelay {
		return fmt.Errorf("%w: reset_delay %s is shorter than wrong_delay %s", ErrInvalidConfig, c.Game.ResetDelay, c.Game.WrongDelay)
	}
	if c.Offline.CachePrefix == "" || c.Offline.Version == "" {
		return fmt.Errorf("%w: offline cache_prefix and version are required", ErrInvalidConfig)
	}
	if len(c.Offline.Assets) == 0 {
		return fmt.Errorf("%w: offline asset manifest is empty", ErrInvalidConfig)
	}
	switch c.Offline.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("%w: unknown offline backend %q", ErrInvalidConfig, c.Offline.Backend)
	}
	return nil
}
