package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDataDir       = "./andromeda-data"
	DefaultChainID       = "andromeda-local"
	DefaultListenAddress = ":8080"
	DefaultLogLevel      = "info"
	DefaultRateLimit     = 50.0
	DefaultRateBurst     = 100
	DefaultMaxCallDepth  = 10
)

// Config is the andromedad node configuration. LogFile, when set, receives a
// rotated copy of the log stream. DeploymentFile is a YAML manifest of
// contracts to instantiate on first start.
type Config struct {
	DataDir            string  `toml:"DataDir"`
	ChainID            string  `toml:"ChainID"`
	ListenAddress      string  `toml:"ListenAddress"`
	MetricsEnabled     bool    `toml:"MetricsEnabled"`
	LogEnv             string  `toml:"LogEnv"`
	LogLevel           string  `toml:"LogLevel"`
	LogFile            string  `toml:"LogFile"`
	DeploymentFile     string  `toml:"DeploymentFile"`
	RateLimitPerSecond float64 `toml:"RateLimitPerSecond"`
	RateLimitBurst     int     `toml:"RateLimitBurst"`
	MaxCallDepth       int     `toml:"MaxCallDepth"`
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	return &Config{
		DataDir:            DefaultDataDir,
		ChainID:            DefaultChainID,
		ListenAddress:      DefaultListenAddress,
		MetricsEnabled:     true,
		LogEnv:             "local",
		LogLevel:           DefaultLogLevel,
		RateLimitPerSecond: DefaultRateLimit,
		RateLimitBurst:     DefaultRateBurst,
		MaxCallDepth:       DefaultMaxCallDepth,
	}
}

// Load loads the configuration from the given path, writing the defaults there
// when the file does not exist yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = DefaultDataDir
	}
	if strings.TrimSpace(cfg.ChainID) == "" {
		cfg.ChainID = DefaultChainID
	}
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.RateLimitPerSecond == 0 {
		cfg.RateLimitPerSecond = DefaultRateLimit
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = DefaultRateBurst
	}
	if cfg.MaxCallDepth == 0 {
		cfg.MaxCallDepth = DefaultMaxCallDepth
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

	return toml.NewEncoder(f).Encode(cfg)
}
