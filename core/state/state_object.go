package state

import (
	"bytes"
	"maps"

	"fadingrose/dawnforge/core/tracing"
	"fadingrose/dawnforge/core/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type Storage map[common.Hash]common.Hash

func (s Storage) Copy() Storage {
	return maps.Clone(s)
}

// stateObject is one account under mutation. There is no backing trie or
// database: the store starts empty for every forging run, an object's
// committed state is whatever it was seeded with, and every mutation lives in
// the dirty maps until extracted as a diff.
type stateObject struct {
	db      *StateDB
	address common.Address

	// origin is the account as seeded before the run, nil if the run created
	// it. data is the working copy every mutation goes through.
	origin *types.StateAccount
	data   types.StateAccount

	code      []byte
	dirtyCode bool // the run rewrote the code

	originStorage Storage // slot values as seeded, lazily recorded on first access
	dirtyStorage  Storage // slot values the run moved off their origin

	// newContract marks an account created as a contract within the run. The
	// extracted diff turns it into the reset-storage marker: such an account
	// owns its complete storage, a merely touched one does not.
	newContract bool

	// selfDestructed accounts stay readable until the end of the run and come
	// out of the diff as deletion markers.
	selfDestructed bool
}

func newObject(db *StateDB, addr common.Address, acct *types.StateAccount) *stateObject {
	origin := acct
	if acct == nil {
		acct = types.NewEmptyStateAccount()
	}
	return &stateObject{
		db:            db,
		address:       addr,
		origin:        origin,
		data:          *acct,
		originStorage: make(Storage),
		dirtyStorage:  make(Storage),
	}
}

func (s *stateObject) Address() common.Address { return s.address }
func (s *stateObject) Nonce() uint64           { return s.data.Nonce }
func (s *stateObject) Balance() *uint256.Int   { return s.data.Balance }
func (s *stateObject) CodeHash() []byte        { return s.data.CodeHash }
func (s *stateObject) Root() common.Hash       { return s.data.Root }
func (s *stateObject) Code() []byte            { return s.code }
func (s *stateObject) CodeSize() int           { return len(s.code) }

// empty reports whether the account is empty in the EIP-161 sense.
func (s *stateObject) empty() bool {
	return s.data.Nonce == 0 && s.data.Balance.IsZero() && bytes.Equal(s.data.CodeHash, types.EmptyCodeHash.Bytes())
}

// AddBalance adds amount to the account balance. A zero amount still touches
// an empty account, so a transfer of nothing dirties the recipient and
// EIP-161 clearing picks it up.
func (s *stateObject) AddBalance(amount *uint256.Int, reason tracing.BalanceChangeReason) {
	if amount.IsZero() {
		if s.empty() {
			s.touch()
		}
		return
	}
	s.SetBalance(new(uint256.Int).Add(s.Balance(), amount), reason)
}

// SubBalance removes amount from the account balance.
func (s *stateObject) SubBalance(amount *uint256.Int, reason tracing.BalanceChangeReason) {
	if amount.IsZero() {
		return
	}
	s.SetBalance(new(uint256.Int).Sub(s.Balance(), amount), reason)
}

func (s *stateObject) SetBalance(amount *uint256.Int, reason tracing.BalanceChangeReason) {
	s.db.journal.append(balanceChange{
		account: &s.address,
		prev:    new(uint256.Int).Set(s.data.Balance),
	})
	s.setBalance(amount)
}

func (s *stateObject) setBalance(amount *uint256.Int) {
	s.data.Balance = amount
}

func (s *stateObject) touch() {
	s.db.journal.append(touchChange{
		account: &s.address,
	})
}

func (s *stateObject) SetNonce(nonce uint64) {
	s.db.journal.append(nonceChange{
		account: &s.address,
		prev:    s.data.Nonce,
	})
	s.setNonce(nonce)
}

func (s *stateObject) setNonce(nonce uint64) {
	s.data.Nonce = nonce
}

func (s *stateObject) SetCode(codeHash common.Hash, code []byte) {
	s.db.journal.append(codeChange{
		account:  &s.address,
		prevhash: s.CodeHash(),
		prevcode: s.code,
	})
	s.setCode(codeHash, code)
}

func (s *stateObject) setCode(codeHash common.Hash, code []byte) {
	s.code = code
	s.data.CodeHash = codeHash[:]
	s.dirtyCode = true
}

func (s *stateObject) markSelfdestructed() {
	s.selfDestructed = true
}

// GetState reads a storage slot through the dirty overlay.
func (s *stateObject) GetState(key common.Hash) common.Hash {
	value, _ := s.getState(key)
	return value
}

// getState reads a storage slot along with its origin value.
func (s *stateObject) getState(key common.Hash) (common.Hash, common.Hash) {
	origin := s.GetCommittedState(key)
	if value, dirty := s.dirtyStorage[key]; dirty {
		return value, origin
	}
	return origin, origin
}

// GetCommittedState reads a storage slot as it was before the run's
// mutations. A slot never seeded is empty; the miss is recorded so later
// lookups stay map hits.
func (s *stateObject) GetCommittedState(key common.Hash) common.Hash {
	if value, cached := s.originStorage[key]; cached {
		return value
	}
	s.originStorage[key] = common.Hash{}
	return common.Hash{}
}

// SetState writes a storage slot. Writes landing on the current value are
// dropped and writes back to the origin value clear the slot's dirtiness, so
// the dirty map holds exactly the slots whose value moved.
func (s *stateObject) SetState(key, value common.Hash) {
	prev, origin := s.getState(key)
	if prev == value {
		return
	}
	s.db.journal.append(storageChange{
		account:   &s.address,
		key:       key,
		prevvalue: prev,
		origvalue: origin,
	})
	s.setState(key, value, origin)
}

func (s *stateObject) setState(key common.Hash, value common.Hash, origin common.Hash) {
	if value == origin {
		delete(s.dirtyStorage, key)
		return
	}
	s.dirtyStorage[key] = value
}
