package state

import (
	"errors"
	"fmt"
	"slices"

	"fadingrose/dawnforge/core/tracing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AccountChange is the net effect of a run on a single account. A change is
// either a deletion marker or a modification carrying the account's final
// balance, nonce, optionally rewritten code and the storage slots whose value
// moved off their pre-run value.
type AccountChange struct {
	Address common.Address

	// Deleted marks an account that ends the run gone, either because it
	// self-destructed or because it finished EIP-161 empty.
	Deleted bool

	Balance *uint256.Int
	Nonce   uint64

	// Code is the runtime bytecode if it was written during the run, nil
	// otherwise.
	Code []byte

	// Storage holds the slots modified during the run, keyed by slot.
	Storage map[common.Hash]common.Hash

	// ResetStorage marks the account as owning its complete storage: any
	// slot not listed in Storage is empty. Set for accounts created as
	// contracts within the run.
	ResetStorage bool
}

// Changes extracts the accumulated state diff: one entry per journal-dirtied
// account, in ascending address order. Self-destructed and EIP-161-empty
// accounts come out as deletion markers. The store itself is left untouched,
// so Changes may be called repeatedly.
func (s *StateDB) Changes() []AccountChange {
	dirties := make([]common.Address, 0, len(s.journal.dirties))
	for addr := range s.journal.dirties {
		dirties = append(dirties, addr)
	}
	slices.SortFunc(dirties, common.Address.Cmp)

	changes := make([]AccountChange, 0, len(dirties))
	for _, addr := range dirties {
		obj := s.getStateObject(addr)
		if obj == nil || obj.selfDestructed || obj.empty() {
			changes = append(changes, AccountChange{Address: addr, Deleted: true})
			continue
		}
		change := AccountChange{
			Address:      addr,
			Balance:      new(uint256.Int).Set(obj.Balance()),
			Nonce:        obj.Nonce(),
			ResetStorage: obj.newContract,
		}
		if obj.dirtyCode {
			change.Code = common.CopyBytes(obj.code)
		}
		if len(obj.dirtyStorage) > 0 {
			change.Storage = obj.dirtyStorage.Copy()
		}
		changes = append(changes, change)
	}
	return changes
}

// Apply folds a change sequence into the store, journalled like any other
// mutation. The fold is atomic: a malformed entry reverts every entry applied
// before it and the store reads as if Apply was never called.
func (s *StateDB) Apply(changes []AccountChange) error {
	snapshot := s.Snapshot()
	for _, change := range changes {
		if err := s.applyChange(change); err != nil {
			s.RevertToSnapshot(snapshot)
			return fmt.Errorf("apply account change %s: %w", change.Address, err)
		}
	}
	return nil
}

func (s *StateDB) applyChange(change AccountChange) error {
	if change.Deleted {
		if s.getStateObject(change.Address) != nil {
			s.SelfDestruct(change.Address)
		}
		return nil
	}
	if change.Balance == nil {
		return errors.New("change carries no balance")
	}
	obj := s.getOrNewStateObject(change.Address)
	if change.ResetStorage {
		for key := range obj.dirtyStorage.Copy() {
			obj.SetState(key, common.Hash{})
		}
	}
	obj.SetBalance(new(uint256.Int).Set(change.Balance), tracing.BalanceIncreaseGenesisBalance)
	obj.SetNonce(change.Nonce)
	if change.Code != nil {
		s.SetCode(change.Address, common.CopyBytes(change.Code))
	}
	// Slots land in ascending key order so two folds of the same change
	// sequence journal identically.
	keys := make([]common.Hash, 0, len(change.Storage))
	for key := range change.Storage {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, common.Hash.Cmp)
	for _, key := range keys {
		obj.SetState(key, change.Storage[key])
	}
	return nil
}
