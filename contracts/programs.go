package contracts

import "fadingrose/dawnforge/core/vm"

// The embedded build bundle is generated from the listings below; the
// package test re-assembles every listing and holds the bundle to it
// byte for byte.
//
// All constructors share one calling convention: the deployment code
// finds its ABI-encoded arguments appended after the runtime blob,
// copies them to memory offset zero and reads head words and array
// tails exactly where the ABI encoder put them.

// initPrograms indexes the constructor listings by contract name.
var initPrograms = map[string]func() []byte{
	"Staking":           stakingInit,
	"SlashingIndicator": slashingIndicatorInit,
	"SystemReward":      systemRewardInit,
	"StakingPool":       stakingPoolInit,
	"Governance":        governanceInit,
	"ChainConfig":       chainConfigInit,
	"RuntimeUpgrade":    runtimeUpgradeInit,
	"DeployerProxy":     deployerProxyInit,
}

// stakingInit persists the initial validator set.
//
// Storage layout:
//
//	slot 0                 validator count
//	keccak256(0) + i       validator address at position i
//	keccak256(V . 1)       initial stake of validator V
//	slot 2                 default commission rate
//	slot 3                 total initial stake
func stakingInit() []byte {
	p := newProgram()
	p.loadArgs()
	// slot 0: validator count, kept on the stack as the loop bound
	p.Push1(0x00).Op(vm.MLOAD, vm.MLOAD, vm.DUP1)
	p.Push1(0x00).Op(vm.SSTORE)
	// slot 2: commission rate, the third head word
	p.Push1(0x40).Op(vm.MLOAD)
	p.Push1(0x02).Op(vm.SSTORE)
	// walk validators[] and initialStakes[] in lockstep
	p.Push1(0x00)
	p.Jumpdest("loop")
	p.Op(vm.DUP1, vm.DUP3, vm.EQ)
	p.PushLabel("done").Op(vm.JUMPI)
	// offset of element i inside either array tail: 32 + 32*i
	p.Op(vm.DUP1).Push1(0x20).Op(vm.MUL).Push1(0x20).Op(vm.ADD)
	// validator = mem[mem[0] + off]
	p.Op(vm.DUP1).Push1(0x00).Op(vm.MLOAD, vm.ADD, vm.MLOAD)
	// validators[i] = validator
	p.Op(vm.DUP1, vm.DUP4)
	p.Push32(arrayBaseSlot)
	p.Op(vm.ADD, vm.SSTORE)
	// stake slot preimage: validator word, then mapping slot word 1
	p.Push2(scratchWord0).Op(vm.MSTORE)
	p.Push1(0x01).Push2(scratchWord1).Op(vm.MSTORE)
	// stake = mem[mem[32] + off]
	p.Op(vm.DUP1).Push1(0x20).Op(vm.MLOAD, vm.ADD, vm.MLOAD)
	// total += stake
	p.Op(vm.DUP1).Push2(scratchTotal).Op(vm.MLOAD, vm.ADD)
	p.Push2(scratchTotal).Op(vm.MSTORE)
	// stakeOf[validator] = stake
	p.Push1(0x40).Push2(scratchWord0).Op(vm.KECCAK256, vm.SSTORE, vm.POP)
	p.Push1(0x01).Op(vm.ADD)
	p.PushLabel("loop").Op(vm.JUMP)
	p.Jumpdest("done")
	p.Op(vm.POP, vm.POP)
	// slot 3: total initial stake
	p.Push2(scratchTotal).Op(vm.MLOAD)
	p.Push1(0x03).Op(vm.SSTORE)
	return p.deploy(runtimeFor("Staking"))
}

// systemRewardInit persists the reward distribution.
//
// Storage layout:
//
//	slot 0                 payee count
//	keccak256(0) + i       payee address at position i
//	keccak256(A . 1)       share of payee A, in 1/10000 parts
func systemRewardInit() []byte {
	p := newProgram()
	p.loadArgs()
	// slot 0: payee count, kept on the stack as the loop bound
	p.Push1(0x00).Op(vm.MLOAD, vm.MLOAD, vm.DUP1)
	p.Push1(0x00).Op(vm.SSTORE)
	p.Push1(0x00)
	p.Jumpdest("loop")
	p.Op(vm.DUP1, vm.DUP3, vm.EQ)
	p.PushLabel("done").Op(vm.JUMPI)
	p.Op(vm.DUP1).Push1(0x20).Op(vm.MUL).Push1(0x20).Op(vm.ADD)
	// payee = mem[mem[0] + off]
	p.Op(vm.DUP1).Push1(0x00).Op(vm.MLOAD, vm.ADD, vm.MLOAD)
	// payees[i] = payee
	p.Op(vm.DUP1, vm.DUP4)
	p.Push32(arrayBaseSlot)
	p.Op(vm.ADD, vm.SSTORE)
	// share slot preimage: payee word, then mapping slot word 1
	p.Push2(scratchWord0).Op(vm.MSTORE)
	p.Push1(0x01).Push2(scratchWord1).Op(vm.MSTORE)
	// share = mem[mem[32] + off]
	p.Op(vm.DUP1).Push1(0x20).Op(vm.MLOAD, vm.ADD, vm.MLOAD)
	// shareOf[payee] = share
	p.Push1(0x40).Push2(scratchWord0).Op(vm.KECCAK256, vm.SSTORE, vm.POP)
	p.Push1(0x01).Op(vm.ADD)
	p.PushLabel("loop").Op(vm.JUMP)
	p.Jumpdest("done")
	p.Op(vm.POP, vm.POP)
	return p.deploy(runtimeFor("SystemReward"))
}

// deployerProxyInit persists the deployer whitelist.
//
// Storage layout:
//
//	slot 0                 deployer count
//	keccak256(0) + i       deployer address at position i
func deployerProxyInit() []byte {
	p := newProgram()
	p.loadArgs()
	// slot 0: deployer count, kept on the stack as the loop bound
	p.Push1(0x00).Op(vm.MLOAD, vm.MLOAD, vm.DUP1)
	p.Push1(0x00).Op(vm.SSTORE)
	p.Push1(0x00)
	p.Jumpdest("loop")
	p.Op(vm.DUP1, vm.DUP3, vm.EQ)
	p.PushLabel("done").Op(vm.JUMPI)
	p.Op(vm.DUP1).Push1(0x20).Op(vm.MUL).Push1(0x20).Op(vm.ADD)
	// deployer = mem[mem[0] + off]
	p.Push1(0x00).Op(vm.MLOAD, vm.ADD, vm.MLOAD)
	// deployers[i] = deployer
	p.Op(vm.DUP2)
	p.Push32(arrayBaseSlot)
	p.Op(vm.ADD, vm.SSTORE)
	p.Push1(0x01).Op(vm.ADD)
	p.PushLabel("loop").Op(vm.JUMP)
	p.Jumpdest("done")
	p.Op(vm.POP, vm.POP)
	return p.deploy(runtimeFor("DeployerProxy"))
}

// chainConfigInit spreads the eight consensus parameters over slots 0
// through 7 in declaration order.
func chainConfigInit() []byte {
	p := newProgram()
	p.loadArgs()
	for slot := byte(0); slot < 8; slot++ {
		p.Push1(slot * 0x20).Op(vm.MLOAD)
		p.Push1(slot).Op(vm.SSTORE)
	}
	return p.deploy(runtimeFor("ChainConfig"))
}

// storeWordInit is the shared shape of constructors that persist one
// word argument into slot zero.
func storeWordInit(name string) []byte {
	p := newProgram()
	p.loadArgs()
	p.Push1(0x00).Op(vm.MLOAD)
	p.Push1(0x00).Op(vm.SSTORE)
	return p.deploy(runtimeFor(name))
}

// governanceInit stores the voting period in slot 0.
func governanceInit() []byte { return storeWordInit("Governance") }

// runtimeUpgradeInit stores the EVM hook address in slot 0.
func runtimeUpgradeInit() []byte { return storeWordInit("RuntimeUpgrade") }

// emptyInit is the constructor of contracts that take no arguments and
// persist nothing.
func emptyInit(name string) []byte {
	return newProgram().deploy(runtimeFor(name))
}

func slashingIndicatorInit() []byte { return emptyInit("SlashingIndicator") }

func stakingPoolInit() []byte { return emptyInit("StakingPool") }
