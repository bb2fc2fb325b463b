package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/zentiles.yaml
var defaultYAML []byte

// ZenSymbols is the built-in 18-symbol pool.
var ZenSymbols = []string{
	"☯️", "🌊", "🧘", "🌸", "🌙", "🎋",
	"⛩️", "🍵", "⛰️", "🕊️", "🕯️", "🌀",
	"🪁", "🐚", "💎", "🍃", "☀️", "🏮",
}

// DefaultAssets is the core asset manifest pre-cached on install.
var DefaultAssets = []string{
	"index.html",
	"style.css",
	"app.js",
	"ZenTiles.png",
	"manifest.json",
}

// Default returns the hardcoded configuration, used when the embedded
// YAML cannot be parsed.
func Default() Config {
	return Config{
		Game: GameConfig{
			Symbols:    append([]string(nil), ZenSymbols...),
			MatchDelay: 380 * time.Millisecond,
			WrongDelay: 200 * time.Millisecond,
			ResetDelay: 950 * time.Millisecond,
			WinDelay:   600 * time.Millisecond,
		},
		Offline: OfflineConfig{
			CachePrefix:  "zentiles",
			Version:      "1.0.0",
			Origin:       "http://localhost:8000/",
			RootDocument: "index.html",
			Assets:       append([]string(nil), DefaultAssets...),
			FetchTimeout: 10 * time.Second,
			Backend:      "sqlite",
		},
		Server: ServerConfig{
			HTTPAddr:    ":8080",
			IdleTimeout: 30 * time.Minute,
		},
		Storage: StorageConfig{
			DBPath: "~/.zentiles/zentiles.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
