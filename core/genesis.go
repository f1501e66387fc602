package core

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"fadingrose/dawnforge/db"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// ParliaConfig is the consensus engine section of the chain configuration.
type ParliaConfig struct {
	Period uint64 `json:"period"`
	Epoch  uint64 `json:"epoch"`
}

// ChainConfig is the fork schedule the genesis document advertises to the
// consuming node. Deployments themselves always execute under the Istanbul
// ruleset (IstanbulChainConfig); every marker here is inert pass-through,
// written as zero and never interpreted by the forge.
type ChainConfig struct {
	ChainID *big.Int `json:"chainId"`

	HomesteadBlock *big.Int `json:"homesteadBlock,omitempty"`

	EIP150Block *big.Int    `json:"eip150Block,omitempty"`
	EIP150Hash  common.Hash `json:"eip150Hash,omitempty"`
	EIP155Block *big.Int    `json:"eip155Block,omitempty"`
	EIP158Block *big.Int    `json:"eip158Block,omitempty"`

	ByzantiumBlock      *big.Int `json:"byzantiumBlock,omitempty"`
	ConstantinopleBlock *big.Int `json:"constantinopleBlock,omitempty"`
	PetersburgBlock     *big.Int `json:"petersburgBlock,omitempty"`
	IstanbulBlock       *big.Int `json:"istanbulBlock,omitempty"`
	MuirGlacierBlock    *big.Int `json:"muirGlacierBlock,omitempty"`
	BerlinBlock         *big.Int `json:"berlinBlock,omitempty"`

	RuntimeUpgradeBlock *big.Int `json:"runtimeUpgradeBlock,omitempty"`
	DeployerProxyBlock  *big.Int `json:"deployerProxyBlock,omitempty"`

	YoloV3Block   *big.Int `json:"yoloV3Block,omitempty"`
	EWASMBlock    *big.Int `json:"ewasmBlock,omitempty"`
	CatalystBlock *big.Int `json:"catalystBlock,omitempty"`

	RamanujanBlock  *big.Int `json:"ramanujanBlock,omitempty"`
	NielsBlock      *big.Int `json:"nielsBlock,omitempty"`
	MirrorSyncBlock *big.Int `json:"mirrorSyncBlock,omitempty"`
	BrunoBlock      *big.Int `json:"brunoBlock,omitempty"`

	Parlia *ParliaConfig `json:"parlia,omitempty"`
}

// GenesisAlloc specifies the initial state that is part of the genesis block.
type GenesisAlloc map[common.Address]GenesisAccount

// GenesisAccount is an account in the state of the genesis block.
type GenesisAccount struct {
	Code    hexutil.Bytes               `json:"code,omitempty"`
	Storage map[common.Hash]common.Hash `json:"storage,omitempty"`
	Balance *math.HexOrDecimal256       `json:"balance"`
	Nonce   math.HexOrDecimal64         `json:"nonce,omitempty"`
}

// Genesis specifies the header fields and state of the genesis block.
type Genesis struct {
	Config     *ChainConfig          `json:"config"`
	Nonce      math.HexOrDecimal64   `json:"nonce"`
	Timestamp  math.HexOrDecimal64   `json:"timestamp"`
	ExtraData  hexutil.Bytes         `json:"extraData"`
	GasLimit   math.HexOrDecimal64   `json:"gasLimit"`
	Difficulty *math.HexOrDecimal256 `json:"difficulty"`
	Mixhash    common.Hash           `json:"mixHash"`
	Coinbase   common.Address        `json:"coinbase"`
	Alloc      GenesisAlloc          `json:"alloc"`
	Number     math.HexOrDecimal64   `json:"number"`
	GasUsed    math.HexOrDecimal64   `json:"gasUsed"`
	ParentHash common.Hash           `json:"parentHash"`
}

// Block-header defaults shared by every forged document.
const (
	GenesisTimestamp = 0x5e9da7ce
	GenesisGasLimit  = 0x2625a00

	// ParliaPeriod is the block period in seconds advertised to the
	// consensus engine.
	ParliaPeriod = 3
)

// NewGenesis assembles a document with the canonical header defaults, an
// empty allocation table and a zeroed fork schedule for the given chain.
func NewGenesis(chainID *big.Int, epoch uint64) *Genesis {
	return &Genesis{
		Config:     NewChainConfig(chainID, epoch),
		Timestamp:  GenesisTimestamp,
		GasLimit:   GenesisGasLimit,
		Difficulty: (*math.HexOrDecimal256)(big.NewInt(1)),
		Alloc:      make(GenesisAlloc),
	}
}

// NewChainConfig assembles the advertised fork schedule: every marker pinned
// to zero and the parlia engine section filled in.
func NewChainConfig(chainID *big.Int, epoch uint64) *ChainConfig {
	return &ChainConfig{
		ChainID:             chainID,
		HomesteadBlock:      big.NewInt(0),
		EIP150Block:         big.NewInt(0),
		EIP155Block:         big.NewInt(0),
		EIP158Block:         big.NewInt(0),
		ByzantiumBlock:      big.NewInt(0),
		ConstantinopleBlock: big.NewInt(0),
		PetersburgBlock:     big.NewInt(0),
		IstanbulBlock:       big.NewInt(0),
		MuirGlacierBlock:    big.NewInt(0),
		BerlinBlock:         big.NewInt(0),
		RuntimeUpgradeBlock: big.NewInt(0),
		DeployerProxyBlock:  big.NewInt(0),
		YoloV3Block:         big.NewInt(0),
		EWASMBlock:          big.NewInt(0),
		CatalystBlock:       big.NewInt(0),
		RamanujanBlock:      big.NewInt(0),
		NielsBlock:          big.NewInt(0),
		MirrorSyncBlock:     big.NewInt(0),
		BrunoBlock:          big.NewInt(0),
		Parlia:              &ParliaConfig{Period: ParliaPeriod, Epoch: epoch},
	}
}

// MarshalJSONIndent renders the document in its persisted form: two-space
// indented JSON with map keys in lexicographic order, so independent runs
// produce byte-identical files.
func (g *Genesis) MarshalJSONIndent() ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal genesis: %w", err)
	}
	return data, nil
}

// Write serializes the document to the given path.
func (g *Genesis) Write(path string) error {
	data, err := g.MarshalJSONIndent()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write genesis: %w", err)
	}
	return nil
}

// ReadGenesis loads a previously written document. Regeneration reuses the
// stored chain configuration so an already-bootstrapped network keeps its
// identity across forge runs.
func ReadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	genesis := new(Genesis)
	if err := json.Unmarshal(data, genesis); err != nil {
		return nil, fmt.Errorf("parse genesis %s: %w", path, err)
	}
	return genesis, nil
}

// Hash is the identity of the serialized document, used as its key in the
// persisted-genesis store.
func (g *Genesis) Hash() (common.Hash, error) {
	data, err := g.MarshalJSONIndent()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(data), nil
}

const (
	genesisKeyPrefix = "dawnforge:genesis:"
	canonicalKey     = "dawnforge:canonical"
)

func genesisKey(hash common.Hash) []byte {
	return append([]byte(genesisKeyPrefix), hash.Bytes()...)
}

// Commit persists the serialized document into the key-value store under its
// content hash and points the canonical marker at it, so a node bootstrapping
// from the same datadir picks up the exact artifact.
func (g *Genesis) Commit(store *db.Store) (common.Hash, error) {
	data, err := g.MarshalJSONIndent()
	if err != nil {
		return common.Hash{}, err
	}
	hash := crypto.Keccak256Hash(data)
	if err := store.Put(genesisKey(hash), data); err != nil {
		return common.Hash{}, fmt.Errorf("commit genesis: %w", err)
	}
	if err := store.Put([]byte(canonicalKey), hash.Bytes()); err != nil {
		return common.Hash{}, fmt.Errorf("commit canonical marker: %w", err)
	}
	return hash, nil
}
