package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/geal-ai/sfddust"
)

// Environment variables consulted when the matching flag is absent.
const (
	envConfig = "SFD_CONFIG"
	envDir    = "SFD_DIR"
)

// Default download location of the SFD maps.
const defaultBaseURL = "https://github.com/kbarbary/sfddata/raw/master"

// Config is the sfd command configuration.
type Config struct {
	// Dir holds the map files.
	Dir string `yaml:"dir"`

	// BaseName is the map file prefix, <base>_ngp.fits.
	BaseName string `yaml:"base_name"`

	// Order is the default interpolation order.
	Order int `yaml:"order"`

	Fetch FetchConfig `yaml:"fetch"`
}

// FetchConfig configures --fetch.
type FetchConfig struct {
	BaseURL string `yaml:"base_url"`

	// Timeout bounds the whole download, e.g. "10m".
	Timeout string `yaml:"timeout"`

	// MaxBytes caps the size of one downloaded file.
	MaxBytes int64 `yaml:"max_bytes"`
}

// Default returns the configuration used before the file and flags are
// applied. Dir comes from SFD_DIR when set.
func Default() *Config {
	dir := os.Getenv(envDir)
	if dir == "" {
		dir = "."
	}
	return &Config{
		Dir:      dir,
		BaseName: sfddust.DefaultBaseName,
		Order:    sfddust.DefaultOrder,
		Fetch: FetchConfig{
			BaseURL:  defaultBaseURL,
			Timeout:  "10m",
			MaxBytes: 256 << 20, // a 4096² float32 map is 64 MiB
		},
	}
}

// loadConfig returns Default merged with the YAML file at path, or at
// $SFD_CONFIG when path is empty. No file means defaults only.
func loadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// timeout parses Fetch.Timeout.
func (c *Config) timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil {
		return 0, fmt.Errorf("fetch.timeout: %w", err)
	}
	return d, nil
}

func (c *Config) validate() error {
	if c.Dir == "" {
		return fmt.Errorf("config: dir is empty")
	}
	if c.BaseName == "" {
		return fmt.Errorf("config: base_name is empty")
	}
	if c.Order < 0 || c.Order > sfddust.MaxOrder {
		return fmt.Errorf("config: order %d out of range 0-%d", c.Order, sfddust.MaxOrder)
	}
	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf("config: fetch.max_bytes must be positive")
	}
	if d, err := c.timeout(); err != nil {
		return err
	} else if d <= 0 {
		return fmt.Errorf("config: fetch.timeout must be positive")
	}
	return nil
}
