package core

import (
	"math"
	"math/big"

	"fadingrose/dawnforge/core/tracing"
	"fadingrose/dawnforge/core/vm"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// CanTransfer checks whether there are enough funds in the address' account
// to make a transfer.
func CanTransfer(db vm.StateDB, addr common.Address, amount *uint256.Int) bool {
	return db.GetBalance(addr).Cmp(amount) >= 0
}

// Transfer subtracts amount from sender and adds amount to recipient using
// the given Db.
func Transfer(db vm.StateDB, sender, recipient common.Address, amount *uint256.Int) {
	db.SubBalance(sender, amount, tracing.BalanceChangeTransfer)
	db.AddBalance(recipient, amount, tracing.BalanceChangeTransfer)
}

// GetHashFn returns a GetHashFunc which resolves block hashes. At forging
// time no block history exists, so every height resolves to the zero hash.
func GetHashFn() func(n uint64) common.Hash {
	return func(n uint64) common.Hash {
		return common.Hash{}
	}
}

// IstanbulChainConfig assembles a chain configuration with every fork up to
// and including Istanbul active from height zero and nothing activated after
// it. This is the ruleset all genesis deployments execute under, regardless
// of what fork schedule the produced document advertises.
func IstanbulChainConfig(chainID *big.Int) *params.ChainConfig {
	return &params.ChainConfig{
		ChainID:             chainID,
		HomesteadBlock:      big.NewInt(0),
		EIP150Block:         big.NewInt(0),
		EIP155Block:         big.NewInt(0),
		EIP158Block:         big.NewInt(0),
		ByzantiumBlock:      big.NewInt(0),
		ConstantinopleBlock: big.NewInt(0),
		PetersburgBlock:     big.NewInt(0),
		IstanbulBlock:       big.NewInt(0),
	}
}

// NewEVMBlockContext creates a block context pinned at height zero for
// executing genesis deployments.
func NewEVMBlockContext(gasLimit uint64) vm.BlockContext {
	return vm.BlockContext{
		CanTransfer: CanTransfer,
		Transfer:    Transfer,
		GetHash:     GetHashFn(),
		Coinbase:    common.Address{},
		GasLimit:    gasLimit,
		BlockNumber: new(big.Int),
		Time:        0,
		Difficulty:  new(big.Int),
	}
}

// NewEVMTxContext creates a new transaction context for a single deployment.
func NewEVMTxContext(msg *Message) vm.TxContext {
	return vm.TxContext{
		Origin:   msg.From,
		GasPrice: new(big.Int),
	}
}

// Message carries a single contract deployment: who sends it, which reserved
// address the runtime code must land on, and the creation bytecode with the
// encoded constructor arguments already appended.
type Message struct {
	From     common.Address
	Address  common.Address
	Value    *uint256.Int
	GasLimit uint64
	Data     []byte
}

// NewDeploymentMessage builds the canonical deployment message: sent by the
// zero address with no value, carrying enough gas that only a runaway
// constructor can exhaust it. Halving MaxUint64 leaves headroom for the
// 63/64ths call gas arithmetic.
func NewDeploymentMessage(target common.Address, data []byte) *Message {
	return &Message{
		From:     common.Address{},
		Address:  target,
		Value:    new(uint256.Int),
		GasLimit: math.MaxUint64 / 2,
		Data:     data,
	}
}

// DeployResult is the outcome of a single deployment attempt. Err carries
// the execution fault, if any; errors at this level mean the deployed state
// was already reverted.
type DeployResult struct {
	ReturnData   []byte
	ContractAddr common.Address
	UsedGas      uint64
	Err          error
}

// Failed returns the indicator whether the deployment was terminated with an
// execution fault.
func (result *DeployResult) Failed() bool { return result.Err != nil }

// Return returns the runtime bytecode left behind by a successful deployment.
// Callers must not rely on its content when the deployment failed.
func (result *DeployResult) Return() []byte {
	if result.Err != nil {
		return nil
	}
	return common.CopyBytes(result.ReturnData)
}

// Revert returns the concrete revert reason if the execution was aborted by a
// REVERT opcode. Note the reason is borrowed, do not modify.
func (result *DeployResult) Revert() []byte {
	if result.Err != vm.ErrExecutionReverted {
		return nil
	}
	return result.ReturnData
}

// ApplyDeployment executes the deployment message against the EVM: it buys
// the message's gas from the pool, runs the creation code at the pinned
// address and settles the refund counter against the gas used. Execution
// faults come back inside the result; only a dry gas pool is an error of
// ApplyDeployment itself.
func ApplyDeployment(evm *vm.EVM, msg *Message, gp *GasPool) (*DeployResult, error) {
	if err := gp.SubGas(msg.GasLimit); err != nil {
		return nil, err
	}
	sender := vm.AccountRef(msg.From)
	ret, addr, remaining, vmerr := evm.CreateWithAddress(sender, msg.Address, msg.Data, msg.GasLimit, msg.Value)

	// Settle the refund counter, capped to a quotient of the gas used.
	used := msg.GasLimit - remaining
	refund := used / params.RefundQuotient
	if stateRefund := evm.StateDB.GetRefund(); refund > stateRefund {
		refund = stateRefund
	}
	remaining += refund
	gp.AddGas(remaining)

	return &DeployResult{
		ReturnData:   ret,
		ContractAddr: addr,
		UsedGas:      msg.GasLimit - remaining,
		Err:          vmerr,
	}, nil
}
