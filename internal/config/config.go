package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
	Sleep  SleepConfig  `yaml:"sleep"`
	Server ServerConfig `yaml:"server"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"SLEEPCALC_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"SLEEPCALC_LOG_FORMAT" env-default:"console"`
}

// StoreConfig selects the preference backend. An empty Path resolves to
// ~/.sleepcalc (file) or ~/.sleepcalc/sleepcalc.db (sqlite).
type StoreConfig struct {
	Driver string `yaml:"driver" env:"SLEEPCALC_STORE_DRIVER" env-default:"file"`
	Path   string `yaml:"path"   env:"SLEEPCALC_STORE_PATH"`
}

// SleepConfig seeds values used before any preference is saved.
type SleepConfig struct {
	FallAsleepBuffer int `yaml:"fall_asleep_buffer" env:"SLEEPCALC_BUFFER" env-default:"15"`
}

// ServerConfig holds web UI settings. Port 0 disables the server.
type ServerConfig struct {
	Port int `yaml:"port" env:"SLEEPCALC_PORT" env-default:"0"`
}

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults. path overrides SLEEPCALC_CONFIG; when
// neither is set, ./sleepcalc.yaml is used if it exists.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("SLEEPCALC_CONFIG")
	}
	explicitPath := path != ""
	if !explicitPath {
		path = "./sleepcalc.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("store.driver must be %q or %q (got %q)", DriverFile, DriverSQLite, c.Store.Driver)
	}
	if c.Sleep.FallAsleepBuffer < 0 {
		return fmt.Errorf("sleep.fall_asleep_buffer must be >= 0 (got %d)", c.Sleep.FallAsleepBuffer)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be within 0-65535 (got %d)", c.Server.Port)
	}
	return nil
}

// StorePath returns the configured store location, falling back to the
// user's home directory.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home: %w", err)
	}
	dir := filepath.Join(home, ".sleepcalc")
	if c.Store.Driver == DriverSQLite {
		return filepath.Join(dir, "sleepcalc.db"), nil
	}
	return dir, nil
}
