package config

// Troves holds the risk parameters of the trove manager. Amounts are base-10
// strings so values beyond 64 bits survive TOML.
type Troves struct {
	// MCR is the minimum collateral ratio scaled by 1e18.
	MCR string
	// GasCompensation is the reserve added to every trove's debt.
	GasCompensation string
}

// Contract describes one contract deployed at startup.
type Contract struct {
	Name  string
	Owner string
}

// Contracts lists the protocol contracts instantiated on first boot.
type Contracts struct {
	RoleProvider    Contract
	TroveManager    Contract
	CollSurplusPool Contract
	PriceFeed       Contract
}

// Roles assigns the initial role holders in the role provider.
type Roles struct {
	Owner              string
	TroveManager       string
	BorrowerOperations string
	ActivePool         string
	StabilityPool      string
}

// Pauses halts mutating operations of a module while queries keep working.
type Pauses struct {
	Troves  bool
	Surplus bool
}

// IsPaused implements the pause view consumed by the engines.
func (p Pauses) IsPaused(module string) bool {
	switch module {
	case "troves":
		return p.Troves
	case "surplus":
		return p.Surplus
	}
	return false
}

// Genesis funds accounts when the data directory is first created.
type Genesis struct {
	Balances []Balance
}

type Balance struct {
	Address string
	Amount  string
}

// RPC tunes the JSON-RPC server.
type RPC struct {
	// RateLimitPerMinute bounds mutating calls per client; zero disables it.
	RateLimitPerMinute float64
	RateLimitBurst     int
	WSOrigins          []string
}

// Telemetry configures OTLP export of traces and metrics.
type Telemetry struct {
	Endpoint    string
	Insecure    bool
	Headers     string
	Traces      bool
	Metrics     bool
	SampleRatio float64
}
