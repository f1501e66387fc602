package state

import (
	"fmt"
	"sort"

	"fadingrose/dawnforge/core/tracing"
	"fadingrose/dawnforge/core/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

type revision struct {
	id           int
	journalIndex int
}

// StateDB is the in-memory world state the forge executes deployments
// against. It starts empty, journals every mutation so any prefix can be
// reverted, and hands the surviving mutations out as an account diff. There
// is no trie and no commit: the diff is the only thing that leaves the store.
type StateDB struct {
	stateObjects map[common.Address]*stateObject

	// The journal is the backbone of Snapshot and RevertToSnapshot.
	journal        *journal
	validRevisions []revision
	nextRevisionId int

	// Logs emitted in the scope of the run. They are collected for
	// diagnostics only and never enter the diff.
	logs []*types.Log

	// Refund counter of the SSTORE net metering schedule.
	refund uint64
}

// NewStateDB creates an empty world state.
func NewStateDB() *StateDB {
	return &StateDB{
		stateObjects: make(map[common.Address]*stateObject),
		journal:      newJournal(),
	}
}

// getStateObject returns the account at addr or nil. Absence is meaningful:
// the EIP-158 empty-call shortcut and the create-collision check rely on it.
func (s *StateDB) getStateObject(addr common.Address) *stateObject {
	return s.stateObjects[addr]
}

func (s *StateDB) getOrNewStateObject(addr common.Address) *stateObject {
	if obj := s.getStateObject(addr); obj != nil {
		return obj
	}
	return s.createObject(addr)
}

// createObject makes a fresh account object at addr. An existing object at
// the same address is silently replaced, callers guard against that.
func (s *StateDB) createObject(addr common.Address) *stateObject {
	obj := newObject(s, addr, nil)
	s.journal.append(createObjectChange{account: &addr})
	s.stateObjects[addr] = obj
	return obj
}

// CreateAccount explicitly creates a new account, assuming none exists at
// the address yet.
func (s *StateDB) CreateAccount(addr common.Address) {
	s.createObject(addr)
}

// CreateContract marks the account as created as a contract within this run,
// which makes the extracted diff claim ownership of its complete storage.
// The account itself must already exist, CREATE funds it before running the
// initcode.
func (s *StateDB) CreateContract(addr common.Address) {
	obj := s.getStateObject(addr)
	if !obj.newContract {
		obj.newContract = true
		s.journal.append(createContractChange{account: addr})
	}
}

// Exist reports whether an account exists in state. Self-destructed accounts
// still exist until the run ends.
func (s *StateDB) Exist(addr common.Address) bool {
	return s.getStateObject(addr) != nil
}

// Empty reports whether the account is non-existent or empty per EIP-161
// (zero balance, zero nonce, no code).
func (s *StateDB) Empty(addr common.Address) bool {
	obj := s.getStateObject(addr)
	return obj == nil || obj.empty()
}

func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) {
	s.getOrNewStateObject(addr).AddBalance(amount, reason)
}

func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) {
	s.getOrNewStateObject(addr).SubBalance(amount, reason)
}

func (s *StateDB) SetBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) {
	s.getOrNewStateObject(addr).SetBalance(amount, reason)
}

func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.Balance()
	}
	return common.U2560
}

func (s *StateDB) GetNonce(addr common.Address) uint64 {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.Nonce()
	}
	return 0
}

func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	s.getOrNewStateObject(addr).SetNonce(nonce)
}

func (s *StateDB) GetCode(addr common.Address) []byte {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.Code()
	}
	return nil
}

func (s *StateDB) GetCodeSize(addr common.Address) int {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.CodeSize()
	}
	return 0
}

func (s *StateDB) GetCodeHash(addr common.Address) common.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return common.BytesToHash(obj.CodeHash())
	}
	return common.Hash{}
}

func (s *StateDB) SetCode(addr common.Address, code []byte) {
	s.getOrNewStateObject(addr).SetCode(crypto.Keccak256Hash(code), code)
}

// GetState reads a storage slot, dirty mutations of the current run included.
func (s *StateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.GetState(key)
	}
	return common.Hash{}
}

// GetCommittedState reads a storage slot as it was before the run's
// mutations.
func (s *StateDB) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.GetCommittedState(key)
	}
	return common.Hash{}
}

func (s *StateDB) SetState(addr common.Address, key, value common.Hash) {
	s.getOrNewStateObject(addr).SetState(key, value)
}

// GetStorageRoot returns the account's storage root. With no backing trie the
// root never moves off its seeded value within a run, which matches the
// intra-block visibility the create-collision check expects.
func (s *StateDB) GetStorageRoot(addr common.Address) common.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.Root()
	}
	return common.Hash{}
}

// SelfDestruct marks the account as self-destructed and clears its balance.
// The object stays readable until the diff is extracted.
func (s *StateDB) SelfDestruct(addr common.Address) {
	obj := s.getStateObject(addr)
	if obj == nil {
		return
	}
	s.journal.append(selfDestructChange{
		account:     &addr,
		prev:        obj.selfDestructed,
		prevbalance: new(uint256.Int).Set(obj.Balance()),
	})
	obj.markSelfdestructed()
	obj.data.Balance = new(uint256.Int)
}

func (s *StateDB) HasSelfDestructed(addr common.Address) bool {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.selfDestructed
	}
	return false
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionId
	s.nextRevisionId++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot undoes all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= revid
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	// Replay the journal backwards and drop the invalidated revisions.
	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// AddLog appends a log emitted by the LOG opcodes to the run's log set.
func (s *StateDB) AddLog(log *types.Log) {
	s.journal.append(addLogChange{})
	s.logs = append(s.logs, log)
}

// Logs returns the logs emitted so far, in emission order.
func (s *StateDB) Logs() []*types.Log {
	return s.logs
}

func (s *StateDB) AddRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	s.refund += gas
}

// SubRefund removes gas from the refund counter. It panics if the counter
// would go below zero, the SSTORE schedule never legitimately does that.
func (s *StateDB) SubRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	if gas > s.refund {
		panic(fmt.Sprintf("refund counter below zero (gas: %d > refund: %d)", gas, s.refund))
	}
	s.refund -= gas
}

func (s *StateDB) GetRefund() uint64 {
	return s.refund
}
