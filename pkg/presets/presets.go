package presets

import (
	"time"

	"github.com/samber/lo"
)

// Contract is a registry entry seeded into new configuration files.
// Address is kept exactly as deployed tooling printed it; the registry
// document stores the literal unchanged unless checksumming is enabled.
type Contract struct {
	Name    string
	Address string
	ABIPath string
}

const (
	// DefaultTargetPath is the registry module in the web frontend.
	DefaultTargetPath = "src/config/contracts.ts"

	// DefaultFallbackAnchor names the entry new contracts are inserted after.
	DefaultFallbackAnchor = "ListingManager"

	DefaultDebounce = 500 * time.Millisecond
)

var defaultContracts = []Contract{
	{
		Name:    "AgentNFA",
		Address: "0xb65ca34b1526c926c75129ef934c3ba9fe6f29f6",
		ABIPath: "abi/agent_nfa_abi.json",
	},
	{
		Name:    "ListingManager",
		Address: "0x71597c159007E9FF35bcF47822913cA78B182156",
		ABIPath: "abi/listing_manager_abi.json",
	},
	{
		Name:    "PolicyGuard",
		Address: "0xf087B0e4e829109603533FA3c81BAe101e46934b",
		ABIPath: "abi/policy_guard_abi.json",
	},
}

// Contracts returns a copy of the default contract table.
func Contracts() []Contract {
	return lo.Map(defaultContracts, func(c Contract, _ int) Contract { return c })
}

// ContractNames returns the default contract names in table order.
func ContractNames() []string {
	return lo.Map(defaultContracts, func(c Contract, _ int) string { return c.Name })
}
