package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ultrachain/crypto"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != DefaultRPCAddress || cfg.Denom != DefaultDenom {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not persisted: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Troves.MCR != "1100000000000000000" || reloaded.Contracts.TroveManager.Name != "trove manager" {
		t.Fatalf("defaults not round-tripped: %+v", reloaded)
	}
}

func TestLoadParsesSections(t *testing.T) {
	owner := crypto.NewAddress(crypto.UltraPrefix, bytes.Repeat([]byte{0x01}, crypto.AddressLength)).String()
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `RPCAddress = "127.0.0.1:9000"
Denom = "uatom"
PriceMaxAgeSeconds = 600

[troves]
MCR = "1500000000000000000"

[roles]
Owner = "` + owner + `"

[pauses]
Surplus = true

[rpc]
RateLimitPerMinute = 30

[telemetry]
Traces = true
SampleRatio = 0.25

[[genesis.Balances]]
Address = "` + owner + `"
Amount = "1000"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	mcr, err := cfg.MCR()
	if err != nil || mcr.Dec() != "1500000000000000000" {
		t.Fatalf("unexpected mcr %v %v", mcr, err)
	}
	gas, err := cfg.GasCompensation()
	if err != nil || gas.Dec() != "200000000000000000000" {
		t.Fatalf("gas compensation default missing: %v %v", gas, err)
	}
	if cfg.Denom != "uatom" || cfg.PriceMaxAgeSeconds != 600 || cfg.Roles.Owner != owner {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.Pauses.IsPaused("surplus") || cfg.Pauses.IsPaused("troves") {
		t.Fatalf("unexpected pauses %+v", cfg.Pauses)
	}
	if cfg.RPC.RateLimitBurst != 5 || !cfg.Telemetry.Traces || cfg.Telemetry.SampleRatio != 0.25 {
		t.Fatalf("unexpected rpc/telemetry %+v %+v", cfg.RPC, cfg.Telemetry)
	}
	if len(cfg.Genesis.Balances) != 1 || cfg.Genesis.Balances[0].Amount != "1000" {
		t.Fatalf("unexpected genesis %+v", cfg.Genesis)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Troves.MCR = "1.1"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "troves.MCR") {
		t.Fatalf("expected mcr error, got %v", err)
	}
	cfg = Default()
	cfg.Roles.TroveManager = "not-an-address"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "roles.TroveManager") {
		t.Fatalf("expected address error, got %v", err)
	}
	cfg = Default()
	cfg.Telemetry.SampleRatio = 2
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected sample ratio error")
	}
	cfg = Default()
	cfg.Genesis.Balances = []Balance{{Address: "", Amount: "1"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected genesis address error")
	}
}
