package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ultrachain/config"
	"ultrachain/contracts/base"
	"ultrachain/contracts/collsurplus"
	"ultrachain/contracts/pricefeed"
	"ultrachain/contracts/roleprovider"
	"ultrachain/contracts/trovemanager"
	"ultrachain/core"
	"ultrachain/crypto"
)

const (
	roleProviderName = "role_provider"
	collSurplusName  = "coll_surplus_pool"
	priceFeedName    = "price_feed"
	troveManagerName = "trove_manager"
)

// deployerAddress instantiates the contracts and becomes their admin.
func deployerAddress(cfg *config.Config) (crypto.Address, error) {
	if owner := strings.TrimSpace(cfg.Roles.Owner); owner != "" {
		return crypto.DecodeAddress(owner)
	}
	return crypto.ContractAddress("ultrad/deployer"), nil
}

// registerContracts installs the protocol contracts on rt.
func registerContracts(rt *core.Runtime, cfg *config.Config) error {
	mcr, err := cfg.MCR()
	if err != nil {
		return err
	}
	gasComp, err := cfg.GasCompensation()
	if err != nil {
		return err
	}
	maxAge := time.Duration(cfg.PriceMaxAgeSeconds) * time.Second
	contracts := []struct {
		name     string
		contract core.Contract
	}{
		{roleProviderName, roleprovider.New()},
		{collSurplusName, collsurplus.New(cfg.Denom)},
		{priceFeedName, pricefeed.New(maxAge)},
		{troveManagerName, trovemanager.New(mcr, gasComp)},
	}
	for _, c := range contracts {
		if _, err := rt.Register(c.name, c.contract); err != nil {
			return fmt.Errorf("register %s: %w", c.name, err)
		}
	}
	return nil
}

func ownerOr(value string, fallback crypto.Address) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback.String()
}

// bootstrap instantiates every contract not yet instantiated and funds the
// genesis balances on first boot. It is safe to run on every start.
func bootstrap(rt *core.Runtime, cfg *config.Config, logger *slog.Logger) error {
	deployer, err := deployerAddress(cfg)
	if err != nil {
		return fmt.Errorf("resolve deployer: %w", err)
	}
	providerAddr, _ := rt.Address(roleProviderName)
	poolAddr, _ := rt.Address(collSurplusName)
	feedAddr, _ := rt.Address(priceFeedName)

	steps := []struct {
		name string
		msg  interface{}
	}{
		{roleProviderName, roleprovider.InstantiateMsg{
			Owner:              ownerOr(cfg.Roles.Owner, deployer),
			TroveManager:       strings.TrimSpace(cfg.Roles.TroveManager),
			BorrowerOperations: strings.TrimSpace(cfg.Roles.BorrowerOperations),
			ActivePool:         strings.TrimSpace(cfg.Roles.ActivePool),
			StabilityPool:      strings.TrimSpace(cfg.Roles.StabilityPool),
		}},
		{collSurplusName, base.InstantiateMsg{
			Name:         cfg.Contracts.CollSurplusPool.Name,
			Owner:        ownerOr(cfg.Contracts.CollSurplusPool.Owner, deployer),
			RoleProvider: providerAddr.String(),
		}},
		{priceFeedName, base.InstantiateMsg{
			Name:         cfg.Contracts.PriceFeed.Name,
			Owner:        ownerOr(cfg.Contracts.PriceFeed.Owner, deployer),
			RoleProvider: providerAddr.String(),
		}},
		{troveManagerName, trovemanager.InstantiateMsg{
			Name:            cfg.Contracts.TroveManager.Name,
			Owner:           ownerOr(cfg.Contracts.TroveManager.Owner, deployer),
			RoleProvider:    providerAddr.String(),
			CollSurplusPool: poolAddr.String(),
			PriceFeed:       feedAddr.String(),
		}},
	}

	fresh := false
	for _, step := range steps {
		done, err := rt.Instantiated(step.name)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", step.name, err)
		}
		if done {
			continue
		}
		msg, err := json.Marshal(step.msg)
		if err != nil {
			return err
		}
		if _, err := rt.Instantiate(step.name, deployer, msg); err != nil {
			return fmt.Errorf("instantiate %s: %w", step.name, err)
		}
		fresh = fresh || step.name == roleProviderName
		logger.Info("contract instantiated", "contract", step.name, "admin", deployer.String())
	}
	if !fresh {
		return nil
	}
	for _, balance := range cfg.Genesis.Balances {
		addr, err := crypto.DecodeAddress(strings.TrimSpace(balance.Address))
		if err != nil {
			return fmt.Errorf("genesis balance: %w", err)
		}
		amount, err := config.ParseAmount(balance.Amount)
		if err != nil {
			return fmt.Errorf("genesis balance %s: %w", balance.Address, err)
		}
		if err := rt.Mint(addr, cfg.Denom, amount); err != nil {
			return fmt.Errorf("mint genesis balance %s: %w", balance.Address, err)
		}
	}
	return nil
}
