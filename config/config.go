package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`
	Denom       string `toml:"Denom"`
	LogLevel    string `toml:"LogLevel"`
	// PriceMaxAgeSeconds bounds how old a published price may be when used
	// for liquidation. Zero disables the check.
	PriceMaxAgeSeconds uint64 `toml:"PriceMaxAgeSeconds"`

	Troves    Troves    `toml:"troves"`
	Contracts Contracts `toml:"contracts"`
	Roles     Roles     `toml:"roles"`
	Pauses    Pauses    `toml:"pauses"`
	Genesis   Genesis   `toml:"genesis"`
	RPC       RPC       `toml:"rpc"`
	Telemetry Telemetry `toml:"telemetry"`
}

const (
	DefaultRPCAddress  = ":8080"
	DefaultDataDir     = "./ultra-data"
	DefaultNetworkName = "ultra-local"
	DefaultDenom       = "ujuno"
)

// Load loads the configuration from the given path, writing a default file
// when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration written on first start.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = DefaultRPCAddress
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = DefaultDataDir
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = DefaultNetworkName
	}
	if strings.TrimSpace(c.Denom) == "" {
		c.Denom = DefaultDenom
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = "info"
	}
	if strings.TrimSpace(c.Troves.MCR) == "" {
		c.Troves.MCR = "1100000000000000000"
	}
	if strings.TrimSpace(c.Troves.GasCompensation) == "" {
		c.Troves.GasCompensation = "200000000000000000000"
	}
	if c.RPC.RateLimitPerMinute > 0 && c.RPC.RateLimitBurst <= 0 {
		c.RPC.RateLimitBurst = 5
	}
	if len(c.RPC.WSOrigins) == 0 {
		c.RPC.WSOrigins = []string{"localhost:*", "127.0.0.1:*"}
	}
	defaults := []struct {
		contract *Contract
		name     string
	}{
		{&c.Contracts.RoleProvider, "role provider"},
		{&c.Contracts.TroveManager, "trove manager"},
		{&c.Contracts.CollSurplusPool, "coll surplus pool"},
		{&c.Contracts.PriceFeed, "price feed"},
	}
	for _, d := range defaults {
		if strings.TrimSpace(d.contract.Name) == "" {
			d.contract.Name = d.name
		}
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
