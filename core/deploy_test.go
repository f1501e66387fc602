package core

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"fadingrose/dawnforge/core/state"
	"fadingrose/dawnforge/core/vm"

	"github.com/ethereum/go-ethereum/common"
)

// runDeployment executes initcode pinned at target against a fresh message.
// A zero gasLimit keeps the canonical half-of-uint64 allowance.
func runDeployment(t *testing.T, statedb *state.StateDB, target common.Address, initcode []byte, gasLimit uint64) *DeployResult {
	t.Helper()
	msg := NewDeploymentMessage(target, initcode)
	if gasLimit != 0 {
		msg.GasLimit = gasLimit
	}
	evm := vm.NewEVM(NewEVMBlockContext(GenesisGasLimit), NewEVMTxContext(msg), statedb, IstanbulChainConfig(big.NewInt(14000)), vm.Config{})
	gp := new(GasPool).AddGas(msg.GasLimit)
	result, err := ApplyDeployment(evm, msg, gp)
	if err != nil {
		t.Fatalf("ApplyDeployment: %v", err)
	}
	return result
}

func TestApplyDeploymentStoresRuntime(t *testing.T) {
	statedb := state.NewStateDB()
	target := common.HexToAddress("0x1000")

	// Writes 0x2a to slot 1, then returns a single zero byte as runtime.
	initcode := common.Hex2Bytes("602a60015560016000f3")

	result := runDeployment(t, statedb, target, initcode, 0)
	if result.Failed() {
		t.Fatalf("deployment failed: %v", result.Err)
	}
	if result.ContractAddr != target {
		t.Errorf("deployed at %s, want %s", result.ContractAddr, target)
	}
	if !bytes.Equal(result.Return(), []byte{0x00}) {
		t.Errorf("runtime = %x, want 00", result.Return())
	}
	if !bytes.Equal(statedb.GetCode(target), []byte{0x00}) {
		t.Errorf("stored code = %x", statedb.GetCode(target))
	}
	if got := statedb.GetNonce(target); got != 1 {
		t.Errorf("contract nonce = %d, want 1", got)
	}
	if got := statedb.GetState(target, common.HexToHash("0x01")); got != common.HexToHash("0x2a") {
		t.Errorf("slot 1 = %s, want 0x2a", got)
	}
	if got := statedb.GetNonce(common.Address{}); got != 1 {
		t.Errorf("sender nonce = %d, want 1", got)
	}

	// PUSH1 x5, SSTORE set, RETURN with a one word memory bill, plus the
	// 200 gas deposit for the single runtime byte.
	if result.UsedGas != 20215 {
		t.Errorf("used gas = %d, want 20215", result.UsedGas)
	}

	changes := statedb.Changes()
	if len(changes) != 2 {
		t.Fatalf("got %d changed accounts, want sender and contract", len(changes))
	}
	contract := changes[1]
	if contract.Address != target || !contract.ResetStorage {
		t.Errorf("contract change malformed: %+v", contract)
	}
}

func TestApplyDeploymentOutOfGas(t *testing.T) {
	statedb := state.NewStateDB()
	target := common.HexToAddress("0x1000")

	initcode := common.Hex2Bytes("602a60015560016000f3")
	result := runDeployment(t, statedb, target, initcode, 5)
	if !errors.Is(result.Err, vm.ErrOutOfGas) {
		t.Fatalf("error = %v, want %v", result.Err, vm.ErrOutOfGas)
	}
	if result.UsedGas != 5 {
		t.Errorf("used gas = %d, want the whole 5", result.UsedGas)
	}
	if statedb.Exist(target) {
		t.Error("failed deployment left the contract account behind")
	}

	// Only the sender's nonce bump survives the revert.
	changes := statedb.Changes()
	if len(changes) != 1 || changes[0].Address != (common.Address{}) {
		t.Fatalf("dirty accounts after failure: %+v", changes)
	}
	if changes[0].Nonce != 1 {
		t.Errorf("sender nonce = %d, want 1", changes[0].Nonce)
	}
}

func TestApplyDeploymentCollision(t *testing.T) {
	initcode := common.Hex2Bytes("60016000f3")

	t.Run("nonce", func(t *testing.T) {
		statedb := state.NewStateDB()
		target := common.HexToAddress("0x1001")
		statedb.SetNonce(target, 5)

		result := runDeployment(t, statedb, target, initcode, 1_000_000)
		if !errors.Is(result.Err, vm.ErrContractAddressCollision) {
			t.Fatalf("error = %v, want %v", result.Err, vm.ErrContractAddressCollision)
		}
		if result.UsedGas != 1_000_000 {
			t.Errorf("used gas = %d, want all of it", result.UsedGas)
		}
	})

	t.Run("code", func(t *testing.T) {
		statedb := state.NewStateDB()
		target := common.HexToAddress("0x1002")
		statedb.SetCode(target, []byte{0xfe})

		result := runDeployment(t, statedb, target, initcode, 1_000_000)
		if !errors.Is(result.Err, vm.ErrContractAddressCollision) {
			t.Fatalf("error = %v, want %v", result.Err, vm.ErrContractAddressCollision)
		}
	})
}

func TestApplyDeploymentMaxCodeSize(t *testing.T) {
	statedb := state.NewStateDB()
	target := common.HexToAddress("0x1000")

	// Returns 24577 zero bytes, one over the EIP-170 ceiling.
	initcode := common.Hex2Bytes("6160016000f3")
	result := runDeployment(t, statedb, target, initcode, 0)
	if !errors.Is(result.Err, vm.ErrMaxCodeSizeExceeded) {
		t.Fatalf("error = %v, want %v", result.Err, vm.ErrMaxCodeSizeExceeded)
	}
	if statedb.Exist(target) {
		t.Error("oversized contract left in state")
	}
}

func TestApplyDeploymentCodeStoreOutOfGas(t *testing.T) {
	statedb := state.NewStateDB()
	target := common.HexToAddress("0x1000")

	// Execution fits in 100 gas but the 200 gas byte deposit does not.
	initcode := common.Hex2Bytes("60016000f3")
	result := runDeployment(t, statedb, target, initcode, 100)
	if !errors.Is(result.Err, vm.ErrCodeStoreOutOfGas) {
		t.Fatalf("error = %v, want %v", result.Err, vm.ErrCodeStoreOutOfGas)
	}
	if result.UsedGas != 100 {
		t.Errorf("used gas = %d, want the whole 100", result.UsedGas)
	}
	if statedb.Exist(target) {
		t.Error("unpaid contract left in state")
	}
}

func TestApplyDeploymentRevert(t *testing.T) {
	statedb := state.NewStateDB()
	target := common.HexToAddress("0x1000")

	// MSTORE 0xdead into the scratch word, revert with its last two bytes.
	initcode := common.Hex2Bytes("61dead6000526002601efd")
	result := runDeployment(t, statedb, target, initcode, 0)
	if !errors.Is(result.Err, vm.ErrExecutionReverted) {
		t.Fatalf("error = %v, want %v", result.Err, vm.ErrExecutionReverted)
	}
	if !bytes.Equal(result.Revert(), []byte{0xde, 0xad}) {
		t.Errorf("revert data = %x, want dead", result.Revert())
	}
	if result.Return() != nil {
		t.Errorf("failed deployment returned runtime %x", result.Return())
	}

	// A revert refunds the remaining gas, so only the executed instructions
	// are billed.
	if result.UsedGas != 18 {
		t.Errorf("used gas = %d, want 18", result.UsedGas)
	}
	if statedb.Exist(target) {
		t.Error("reverted contract left in state")
	}
}

func TestApplyDeploymentSstoreSentry(t *testing.T) {
	statedb := state.NewStateDB()
	target := common.HexToAddress("0x1000")

	// Exactly 2300 gas left when SSTORE executes trips the EIP-2200 sentry.
	initcode := common.Hex2Bytes("6001600055")
	result := runDeployment(t, statedb, target, initcode, 2306)
	if !result.Failed() {
		t.Fatal("sentry violation went through")
	}
	if result.UsedGas != 2306 {
		t.Errorf("used gas = %d, want the whole 2306", result.UsedGas)
	}
	if statedb.Exist(target) {
		t.Error("contract left in state after sentry fault")
	}
}

func TestApplyDeploymentRefundCap(t *testing.T) {
	statedb := state.NewStateDB()
	target := common.HexToAddress("0x1000")

	// Sets slot 0 and clears it again: the EIP-2200 refund of 19200 exceeds
	// half the 20812 spent, so the cap decides the bill.
	initcode := common.Hex2Bytes("6001600055600060005500")
	result := runDeployment(t, statedb, target, initcode, 0)
	if result.Failed() {
		t.Fatalf("deployment failed: %v", result.Err)
	}
	if result.UsedGas != 10406 {
		t.Errorf("used gas = %d, want 10406", result.UsedGas)
	}
	if got := statedb.GetState(target, common.Hash{}); got != (common.Hash{}) {
		t.Errorf("slot 0 = %s, want empty", got)
	}
}

func TestApplyDeploymentPoolExhausted(t *testing.T) {
	statedb := state.NewStateDB()
	msg := NewDeploymentMessage(common.HexToAddress("0x1000"), common.Hex2Bytes("00"))
	evm := vm.NewEVM(NewEVMBlockContext(GenesisGasLimit), NewEVMTxContext(msg), statedb, IstanbulChainConfig(big.NewInt(14000)), vm.Config{})

	gp := new(GasPool).AddGas(10)
	result, err := ApplyDeployment(evm, msg, gp)
	if !errors.Is(err, ErrGasLimitReached) {
		t.Fatalf("error = %v, want %v", err, ErrGasLimitReached)
	}
	if result != nil {
		t.Errorf("got a result from a dry pool: %+v", result)
	}
}
