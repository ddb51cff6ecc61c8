package trovemanager

import "ultrachain/native/troves"

// InstantiateMsg extends the common instantiate fields with the contracts the
// trove manager depends on.
type InstantiateMsg struct {
	Name            string `json:"name"`
	Owner           string `json:"owner"`
	RoleProvider    string `json:"role_provider,omitempty"`
	CollSurplusPool string `json:"coll_surplus_pool,omitempty"`
	PriceFeed       string `json:"price_feed,omitempty"`
}

type borrowerMsg struct {
	Borrower string `json:"borrower"`
}

type setTroveStatusMsg struct {
	Borrower string        `json:"borrower"`
	Status   troves.Status `json:"status"`
}

type collIncreaseMsg struct {
	Borrower     string `json:"borrower"`
	CollIncrease string `json:"coll_increase"`
}

type collDecreaseMsg struct {
	Borrower     string `json:"borrower"`
	CollDecrease string `json:"coll_decrease"`
}

type debtIncreaseMsg struct {
	Borrower     string `json:"borrower"`
	DebtIncrease string `json:"debt_increase"`
}

type debtDecreaseMsg struct {
	Borrower     string `json:"borrower"`
	DebtDecrease string `json:"debt_decrease"`
}

type updateDependenciesMsg struct {
	CollSurplusPool *string `json:"coll_surplus_pool,omitempty"`
	PriceFeed       *string `json:"price_feed,omitempty"`
}

type currentICRQuery struct {
	Borrower string `json:"borrower"`
	Price    string `json:"price"`
}

type ownerIndexQuery struct {
	Index string `json:"index"`
}

type compositeDebtQuery struct {
	NetDebt string `json:"net_debt"`
}

// TroveResponse describes a stored trove.
type TroveResponse struct {
	Owner      string        `json:"owner"`
	Coll       string        `json:"coll"`
	Debt       string        `json:"debt"`
	Stake      string        `json:"stake"`
	Status     troves.Status `json:"status"`
	ArrayIndex uint64        `json:"array_index"`
}

// EntireDebtAndCollResponse answers get_entire_debt_and_coll.
type EntireDebtAndCollResponse struct {
	Debt string `json:"debt"`
	Coll string `json:"coll"`
}

// DependenciesResponse answers get_dependencies.
type DependenciesResponse struct {
	CollSurplusPool string `json:"coll_surplus_pool,omitempty"`
	PriceFeed       string `json:"price_feed,omitempty"`
	RoleProvider    string `json:"role_provider,omitempty"`
}
