package contracts

import "github.com/ethereum/go-ethereum/common"

// Reserved addresses of the system contracts. Every produced genesis
// carries the same set, so consensus code on the running chain can call
// them without any lookup.
var (
	StakingAddress           = common.HexToAddress("0x0000000000000000000000000000000000001000")
	SlashingIndicatorAddress = common.HexToAddress("0x0000000000000000000000000000000000001001")
	SystemRewardAddress      = common.HexToAddress("0x0000000000000000000000000000000000001002")
	StakingPoolAddress       = common.HexToAddress("0x0000000000000000000000000000000000007001")
	GovernanceAddress        = common.HexToAddress("0x0000000000000000000000000000000000007002")
	ChainConfigAddress       = common.HexToAddress("0x0000000000000000000000000000000000007003")
	RuntimeUpgradeAddress    = common.HexToAddress("0x0000000000000000000000000000000000007004")
	DeployerProxyAddress     = common.HexToAddress("0x0000000000000000000000000000000000007005")
)

// IntermediarySystemAddress relays system transactions on the running
// chain. The genesis allocates it with a zero balance so the account
// exists from block zero.
var IntermediarySystemAddress = common.HexToAddress("0xfffffffffffffffffffffffffffffffffffffffe")

// EvmHookAddress is handed to the RuntimeUpgrade constructor. It is
// reserved for the upgrade hook of the node runtime; no code lives
// there at genesis.
var EvmHookAddress = common.HexToAddress("0x0000000000000000000000000000000000007f01")

// SystemContracts lists the deployable system contracts in their
// canonical deployment order.
var SystemContracts = []struct {
	Name    string
	Address common.Address
}{
	{"Staking", StakingAddress},
	{"SlashingIndicator", SlashingIndicatorAddress},
	{"SystemReward", SystemRewardAddress},
	{"StakingPool", StakingPoolAddress},
	{"Governance", GovernanceAddress},
	{"ChainConfig", ChainConfigAddress},
	{"RuntimeUpgrade", RuntimeUpgradeAddress},
	{"DeployerProxy", DeployerProxyAddress},
}
