package state

import (
	"reflect"
	"testing"

	"fadingrose/dawnforge/core/tracing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func TestSnapshotRevertNesting(t *testing.T) {
	s := NewStateDB()
	addr := common.HexToAddress("0xaa")
	key := common.HexToHash("0x01")

	s.SetBalance(addr, uint256.NewInt(100), tracing.BalanceChangeUnspecified)
	outer := s.Snapshot()

	s.SetState(addr, key, common.HexToHash("0x11"))
	s.SetNonce(addr, 7)
	inner := s.Snapshot()

	s.SetState(addr, key, common.HexToHash("0x22"))
	s.SetBalance(addr, uint256.NewInt(1), tracing.BalanceChangeUnspecified)

	s.RevertToSnapshot(inner)
	if got := s.GetState(addr, key); got != common.HexToHash("0x11") {
		t.Errorf("after inner revert, slot = %s", got)
	}
	if got := s.GetBalance(addr); got.Uint64() != 100 {
		t.Errorf("after inner revert, balance = %s", got)
	}
	if got := s.GetNonce(addr); got != 7 {
		t.Errorf("after inner revert, nonce = %d", got)
	}

	s.RevertToSnapshot(outer)
	if got := s.GetState(addr, key); got != (common.Hash{}) {
		t.Errorf("after outer revert, slot = %s", got)
	}
	if got := s.GetNonce(addr); got != 0 {
		t.Errorf("after outer revert, nonce = %d", got)
	}
	if got := s.GetBalance(addr); got.Uint64() != 100 {
		t.Errorf("after outer revert, balance = %s", got)
	}

	changes := s.Changes()
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}
	if changes[0].Storage != nil {
		t.Errorf("reverted storage still in diff: %v", changes[0].Storage)
	}
}

func TestRevertRemovesCreatedObject(t *testing.T) {
	s := NewStateDB()
	addr := common.HexToAddress("0xbb")

	snap := s.Snapshot()
	s.SetBalance(addr, uint256.NewInt(1), tracing.BalanceChangeTransfer)
	if !s.Exist(addr) {
		t.Fatal("account missing after write")
	}
	s.RevertToSnapshot(snap)
	if s.Exist(addr) {
		t.Error("account survived the revert")
	}
	if len(s.Changes()) != 0 {
		t.Errorf("reverted account still dirty: %v", s.Changes())
	}
}

func TestStorageLastWriteWins(t *testing.T) {
	s := NewStateDB()
	addr := common.HexToAddress("0xcc")
	key := common.HexToHash("0x02")

	s.SetBalance(addr, uint256.NewInt(1), tracing.BalanceChangeUnspecified)
	s.SetState(addr, key, common.HexToHash("0x11"))
	s.SetState(addr, key, common.HexToHash("0x22"))

	if got := s.GetState(addr, key); got != common.HexToHash("0x22") {
		t.Errorf("slot = %s, want 0x22", got)
	}
	if got := s.GetCommittedState(addr, key); got != (common.Hash{}) {
		t.Errorf("committed slot = %s, want empty", got)
	}

	changes := s.Changes()
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}
	want := Storage{key: common.HexToHash("0x22")}
	if !reflect.DeepEqual(changes[0].Storage, map[common.Hash]common.Hash(want)) {
		t.Errorf("diff storage = %v, want %v", changes[0].Storage, want)
	}
}

func TestStorageWriteBackToOriginLeavesNoDirt(t *testing.T) {
	s := NewStateDB()
	addr := common.HexToAddress("0xcd")
	key := common.HexToHash("0x03")

	s.SetBalance(addr, uint256.NewInt(1), tracing.BalanceChangeUnspecified)
	s.SetState(addr, key, common.HexToHash("0x11"))
	s.SetState(addr, key, common.Hash{})

	changes := s.Changes()
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}
	if changes[0].Storage != nil {
		t.Errorf("zeroed slot still in diff: %v", changes[0].Storage)
	}
}

func TestChangesSortedAndRepeatable(t *testing.T) {
	s := NewStateDB()
	for _, a := range []string{"0x03", "0x01", "0x02"} {
		s.SetBalance(common.HexToAddress(a), uint256.NewInt(9), tracing.BalanceChangeUnspecified)
	}

	first := s.Changes()
	if len(first) != 3 {
		t.Fatalf("got %d changes, want 3", len(first))
	}
	for i := 1; i < len(first); i++ {
		if first[i-1].Address.Cmp(first[i].Address) >= 0 {
			t.Fatalf("changes out of order: %s before %s", first[i-1].Address, first[i].Address)
		}
	}

	second := s.Changes()
	if !reflect.DeepEqual(first, second) {
		t.Error("two extractions of the same diff differ")
	}
}

func TestChangesDeletionMarkers(t *testing.T) {
	s := NewStateDB()

	// A contract that self-destructs within the run.
	destructed := common.HexToAddress("0xd1")
	s.SetBalance(destructed, uint256.NewInt(5), tracing.BalanceChangeUnspecified)
	s.SetCode(destructed, []byte{0xff})
	s.SelfDestruct(destructed)

	// An account only ever touched by a zero-value transfer.
	touched := common.HexToAddress("0xd2")
	s.AddBalance(touched, new(uint256.Int), tracing.BalanceChangeTouchAccount)

	for _, change := range s.Changes() {
		if !change.Deleted {
			t.Errorf("account %s not marked deleted", change.Address)
		}
	}
	if !s.HasSelfDestructed(destructed) {
		t.Error("self-destruct flag lost")
	}
	if got := s.GetBalance(destructed); !got.IsZero() {
		t.Errorf("self-destructed balance = %s, want 0", got)
	}
}

func TestCreateContractMarksStorageOwnership(t *testing.T) {
	s := NewStateDB()
	addr := common.HexToAddress("0xe1")

	s.CreateAccount(addr)
	s.SetNonce(addr, 1)
	snap := s.Snapshot()
	s.CreateContract(addr)

	changes := s.Changes()
	if len(changes) != 1 || !changes[0].ResetStorage {
		t.Fatalf("contract creation not reflected in diff: %+v", changes)
	}

	s.RevertToSnapshot(snap)
	changes = s.Changes()
	if len(changes) != 1 || changes[0].ResetStorage {
		t.Fatalf("creation flag survived the revert: %+v", changes)
	}
}

func TestApplyAtomicity(t *testing.T) {
	s := NewStateDB()
	good := common.HexToAddress("0xf1")
	changes := []AccountChange{
		{
			Address: good,
			Balance: uint256.NewInt(10),
			Nonce:   1,
			Code:    []byte{0x60, 0x00},
			Storage: map[common.Hash]common.Hash{common.HexToHash("0x01"): common.HexToHash("0x02")},
		},
		// Neither deleted nor carrying a balance: malformed.
		{Address: common.HexToAddress("0xf2")},
	}

	if err := s.Apply(changes); err == nil {
		t.Fatal("malformed change applied without error")
	}
	if s.Exist(good) {
		t.Error("partial fold left an account behind")
	}
	if got := s.Changes(); len(got) != 0 {
		t.Errorf("failed fold left %d dirty accounts", len(got))
	}
}

func TestApplyFoldsChanges(t *testing.T) {
	s := NewStateDB()

	// Seed an account whose storage the change sequence resets.
	seeded := common.HexToAddress("0xf3")
	s.SetBalance(seeded, uint256.NewInt(1), tracing.BalanceChangeUnspecified)
	s.SetState(seeded, common.HexToHash("0x01"), common.HexToHash("0xaa"))

	fresh := common.HexToAddress("0xf4")
	code := []byte{0x60, 0x00, 0x60, 0x00, 0xf3}
	err := s.Apply([]AccountChange{
		{
			Address:      seeded,
			Balance:      uint256.NewInt(2),
			ResetStorage: true,
			Storage:      map[common.Hash]common.Hash{common.HexToHash("0x02"): common.HexToHash("0xbb")},
		},
		{
			Address: fresh,
			Balance: uint256.NewInt(7),
			Nonce:   1,
			Code:    code,
		},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if got := s.GetState(seeded, common.HexToHash("0x01")); got != (common.Hash{}) {
		t.Errorf("reset did not clear slot 0x01: %s", got)
	}
	if got := s.GetState(seeded, common.HexToHash("0x02")); got != common.HexToHash("0xbb") {
		t.Errorf("slot 0x02 = %s, want 0xbb", got)
	}
	if got := s.GetBalance(seeded); got.Uint64() != 2 {
		t.Errorf("seeded balance = %s, want 2", got)
	}
	if got := s.GetCode(fresh); !reflect.DeepEqual(got, code) {
		t.Errorf("fresh code = %x, want %x", got, code)
	}
	if got := s.GetNonce(fresh); got != 1 {
		t.Errorf("fresh nonce = %d, want 1", got)
	}
}

func TestRefundJournal(t *testing.T) {
	s := NewStateDB()
	s.AddRefund(100)
	snap := s.Snapshot()
	s.AddRefund(50)
	s.SubRefund(30)
	if got := s.GetRefund(); got != 120 {
		t.Fatalf("refund = %d, want 120", got)
	}
	s.RevertToSnapshot(snap)
	if got := s.GetRefund(); got != 100 {
		t.Errorf("refund after revert = %d, want 100", got)
	}
}
