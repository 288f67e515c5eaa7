package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Adapter controls GPU adapter selection.
type Adapter struct {
	// Force selects the first adapter whose name or vendor contains
	// this substring. Empty means automatic selection.
	Force string `toml:"force"`
	// Power is "high", "low" or "default".
	Power string `toml:"power"`
}

// Run controls harness behavior.
type Run struct {
	Debug         bool `toml:"debug"`
	ReadTimeoutMS int  `toml:"read-timeout-ms"`
}

type Config struct {
	Adapter Adapter `toml:"adapter"`
	Run     Run     `toml:"run"`
}

func Default() *Config {
	return &Config{
		Adapter: Adapter{Power: "high"},
		Run:     Run{ReadTimeoutMS: 2000},
	}
}

// Load reads a TOML config file. A missing file is not an error: the
// defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %v", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %v", path, err)
	}

	switch cfg.Adapter.Power {
	case "high", "low", "default":
	default:
		return nil, fmt.Errorf("invalid adapter power %q (want high, low or default)", cfg.Adapter.Power)
	}
	if cfg.Run.ReadTimeoutMS <= 0 {
		return nil, fmt.Errorf("invalid read-timeout-ms %d", cfg.Run.ReadTimeoutMS)
	}

	return cfg, nil
}

// ReadTimeout returns the readback timeout as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Run.ReadTimeoutMS) * time.Millisecond
}
