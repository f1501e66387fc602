package vm

import (
	"fadingrose/dawnforge/core/tracing"
	"fadingrose/dawnforge/core/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// StateDB is the world state surface the interpreter executes against. The
// forge's in-memory journaled store implements it; nothing here persists.
type StateDB interface {
	// creations
	CreateAccount(addr common.Address)
	CreateContract(addr common.Address)

	// world state for an Address
	GetNonce(addr common.Address) uint64
	SetNonce(addr common.Address, nonce uint64)

	SubBalance(common.Address, *uint256.Int, tracing.BalanceChangeReason)
	AddBalance(common.Address, *uint256.Int, tracing.BalanceChangeReason)
	GetBalance(addr common.Address) *uint256.Int

	GetCodeHash(addr common.Address) common.Hash
	GetCode(addr common.Address) []byte
	SetCode(addr common.Address, code []byte)
	GetCodeSize(addr common.Address) int

	// support for SSTORE, SLOAD
	GetCommittedState(addr common.Address, key common.Hash) common.Hash
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash)
	GetStorageRoot(addr common.Address) common.Hash

	// Gas refund counter, required by the SSTORE net metering schedule.
	AddRefund(uint64)
	SubRefund(uint64)
	GetRefund() uint64

	SelfDestruct(addr common.Address)
	HasSelfDestructed(addr common.Address) bool

	// Exist reports whether the given account exists in state.
	// Notably this should also return true for self-destructed accounts.
	Exist(addr common.Address) bool
	// Empty returns whether the given account is empty. Empty
	// is defined according to EIP161 (balance = nonce = code = 0).
	Empty(addr common.Address) bool

	AddLog(*types.Log)

	Snapshot() int
	RevertToSnapshot(int)
}
