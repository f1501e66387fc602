package core

import (
	"bytes"
	"math/big"
	"path/filepath"
	"testing"

	"fadingrose/dawnforge/db"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

func testGenesis() *Genesis {
	genesis := NewGenesis(big.NewInt(14000), 1200)
	genesis.ExtraData = make([]byte, 32+common.AddressLength+65)
	genesis.Alloc[common.HexToAddress("0x1000")] = GenesisAccount{
		Code:    hexutil.Bytes{0x60, 0x00, 0x60, 0x00, 0xf3, 0xfe},
		Storage: map[common.Hash]common.Hash{common.HexToHash("0x00"): common.HexToHash("0x02")},
		Balance: (*math.HexOrDecimal256)(big.NewInt(0)),
		Nonce:   1,
	}
	genesis.Alloc[common.HexToAddress("0xfffffffffffffffffffffffffffffffffffffffe")] = GenesisAccount{
		Balance: (*math.HexOrDecimal256)(big.NewInt(0)),
	}
	return genesis
}

func TestGenesisHeaderDefaults(t *testing.T) {
	genesis := NewGenesis(big.NewInt(1337), 1200)
	if genesis.Timestamp != 0x5e9da7ce {
		t.Errorf("timestamp = %#x", genesis.Timestamp)
	}
	if genesis.GasLimit != 0x2625a00 {
		t.Errorf("gas limit = %#x", genesis.GasLimit)
	}
	if (*big.Int)(genesis.Difficulty).Cmp(big.NewInt(1)) != 0 {
		t.Errorf("difficulty = %v", genesis.Difficulty)
	}
	if genesis.Nonce != 0 || genesis.Number != 0 || genesis.GasUsed != 0 {
		t.Error("zero header fields not zero")
	}
	if genesis.Mixhash != (common.Hash{}) || genesis.Coinbase != (common.Address{}) || genesis.ParentHash != (common.Hash{}) {
		t.Error("hash header fields not zero")
	}

	config := genesis.Config
	if config.ChainID.Int64() != 1337 {
		t.Errorf("chain id = %v", config.ChainID)
	}
	if config.Parlia == nil || config.Parlia.Period != ParliaPeriod || config.Parlia.Epoch != 1200 {
		t.Errorf("parlia section = %+v", config.Parlia)
	}
	for name, block := range map[string]*big.Int{
		"homestead":      config.HomesteadBlock,
		"istanbul":       config.IstanbulBlock,
		"berlin":         config.BerlinBlock,
		"runtimeUpgrade": config.RuntimeUpgradeBlock,
		"deployerProxy":  config.DeployerProxyBlock,
	} {
		if block == nil || block.Sign() != 0 {
			t.Errorf("%s fork marker = %v, want 0", name, block)
		}
	}
}

func TestGenesisRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	genesis := testGenesis()
	if err := genesis.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	loaded, err := ReadGenesis(path)
	if err != nil {
		t.Fatalf("ReadGenesis: %v", err)
	}

	wrote, err := genesis.MarshalJSONIndent()
	if err != nil {
		t.Fatal(err)
	}
	reread, err := loaded.MarshalJSONIndent()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(wrote, reread) {
		t.Error("document changed across a write and read cycle")
	}

	h1, err := genesis.Hash()
	if err != nil {
		t.Fatal(err)
	}
	h2, err := loaded.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("hash moved across round trip: %s vs %s", h1, h2)
	}
}

func TestGenesisMarshalDeterminism(t *testing.T) {
	first, err := testGenesis().MarshalJSONIndent()
	if err != nil {
		t.Fatal(err)
	}
	second, err := testGenesis().MarshalJSONIndent()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("two renderings of the same document differ")
	}
}

func TestGenesisCommit(t *testing.T) {
	store, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	genesis := testGenesis()
	hash, err := genesis.Commit(store)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	marker, err := store.Get([]byte("dawnforge:canonical"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(marker, hash.Bytes()) {
		t.Errorf("canonical marker = %x, want %x", marker, hash)
	}

	data, err := store.Get(append([]byte("dawnforge:genesis:"), hash.Bytes()...))
	if err != nil {
		t.Fatal(err)
	}
	want, err := genesis.MarshalJSONIndent()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, want) {
		t.Error("stored document differs from the rendered one")
	}
	if crypto.Keccak256Hash(data) != hash {
		t.Error("commit hash is not the keccak of the payload")
	}
}
