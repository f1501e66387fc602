package tracing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// OpContext provides the context at which the opcode is being
// executed in, including the memory, stack and various contract-level information.
type OpContext interface {
	MemoryData() []byte
	StackData() []uint256.Int
	Caller() common.Address
	Address() common.Address
	CallValue() *uint256.Int
	CallInput() []byte
}

type (
	// OpcodeHook is invoked just prior to the execution of an opcode.
	OpcodeHook = func(pc uint64, op byte, gas, cost uint64, scope OpContext, rData []byte, depth int, err error)
	// FaultHook is invoked when an error occurs during the execution of an opcode.
	FaultHook = func(pc uint64, op byte, gas, cost uint64, scope OpContext, depth int, err error)
	// EnterHook is invoked when a call or create frame is entered, including
	// the outer deployment frame of a system contract.
	EnterHook = func(depth int, typ byte, from common.Address, to common.Address, input []byte, gas uint64, value *big.Int)
	// ExitHook is invoked when a call or create frame ends. `reverted` is true
	// when there was an error during the execution.
	ExitHook = func(depth int, output []byte, gasUsed uint64, err error, reverted bool)
)

// Hooks is the set of optional callbacks a deployment run can install to
// observe execution. All fields are nil-safe: unset hooks are skipped.
type Hooks struct {
	OnOpcode OpcodeHook
	OnFault  FaultHook
	OnEnter  EnterHook
	OnExit   ExitHook
}

// BalanceChangeReason is used to indicate the reason for a balance change,
// useful for tracing and reporting.
type BalanceChangeReason byte

const (
	BalanceChangeUnspecified BalanceChangeReason = 0

	// BalanceIncreaseGenesisBalance is ether allocated before or during a
	// genesis deployment run, such as validator stakes and faucet funds.
	BalanceIncreaseGenesisBalance BalanceChangeReason = 1
	// BalanceChangeTransfer is ether transferred via a call.
	// It is a decrease for the sender and an increase for the recipient.
	BalanceChangeTransfer BalanceChangeReason = 2
	// BalanceChangeTouchAccount is a transfer of zero value. It is only there to
	// touch-create an account.
	BalanceChangeTouchAccount BalanceChangeReason = 3
	// BalanceIncreaseSelfdestruct is added to the recipient as indicated by a
	// selfdestructing account.
	BalanceIncreaseSelfdestruct BalanceChangeReason = 4
)
