package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"ultrachain/crypto"
)

// Validate checks numeric strings and addresses. Empty addresses are allowed
// and leave the corresponding role or owner unassigned.
func (c *Config) Validate() error {
	mcr, err := c.MCR()
	if err != nil {
		return err
	}
	if mcr.IsZero() {
		return fmt.Errorf("troves: MCR must be positive")
	}
	if _, err := c.GasCompensation(); err != nil {
		return err
	}
	if c.RPC.RateLimitPerMinute < 0 {
		return fmt.Errorf("rpc: RateLimitPerMinute must not be negative")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio must be within [0,1]")
	}
	addresses := map[string]string{
		"contracts.RoleProvider.Owner":    c.Contracts.RoleProvider.Owner,
		"contracts.TroveManager.Owner":    c.Contracts.TroveManager.Owner,
		"contracts.CollSurplusPool.Owner": c.Contracts.CollSurplusPool.Owner,
		"contracts.PriceFeed.Owner":       c.Contracts.PriceFeed.Owner,
		"roles.Owner":                     c.Roles.Owner,
		"roles.TroveManager":              c.Roles.TroveManager,
		"roles.BorrowerOperations":        c.Roles.BorrowerOperations,
		"roles.ActivePool":                c.Roles.ActivePool,
		"roles.StabilityPool":             c.Roles.StabilityPool,
	}
	for field, value := range addresses {
		if err := validateAddress(field, value); err != nil {
			return err
		}
	}
	for i, balance := range c.Genesis.Balances {
		if err := validateAddress(fmt.Sprintf("genesis.Balances[%d].Address", i), balance.Address); err != nil {
			return err
		}
		if strings.TrimSpace(balance.Address) == "" {
			return fmt.Errorf("genesis.Balances[%d]: address required", i)
		}
		if _, err := parseUintAmount(balance.Amount); err != nil {
			return fmt.Errorf("invalid genesis.Balances[%d].Amount: %w", i, err)
		}
	}
	return nil
}

// MCR parses the minimum collateral ratio.
func (c *Config) MCR() (*uint256.Int, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(c.Troves.MCR))
	if err != nil {
		return nil, fmt.Errorf("invalid troves.MCR: %w", err)
	}
	return v, nil
}

// GasCompensation parses the gas compensation reserve.
func (c *Config) GasCompensation() (*uint256.Int, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(c.Troves.GasCompensation))
	if err != nil {
		return nil, fmt.Errorf("invalid troves.GasCompensation: %w", err)
	}
	return v, nil
}

func validateAddress(field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if _, err := crypto.DecodeAddress(value); err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	return nil
}

func parseUintAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

// ParseAmount exposes the genesis amount parser.
func ParseAmount(value string) (*big.Int, error) {
	return parseUintAmount(value)
}
