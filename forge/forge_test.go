package forge

import (
	"bytes"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"fadingrose/dawnforge/contracts"
	"fadingrose/dawnforge/core"
	"fadingrose/dawnforge/core/vm"
)

// testConfig is a two validator network exercising every constructor
// argument: a treasury, a deployer whitelist, a non-zero commission and
// unequal stakes.
func testConfig() *Config {
	treasury := common.HexToAddress("0x1000000000000000000000000000000000000001")
	v0 := common.HexToAddress("0x0a0b0c0000000000000000000000000000000001")
	v1 := common.HexToAddress("0x0a0b0c0000000000000000000000000000000002")
	return &Config{
		ChainID: 90909,
		Deployers: []common.Address{
			common.HexToAddress("0x2000000000000000000000000000000000000002"),
		},
		Validators:     []common.Address{v0, v1},
		SystemTreasury: &treasury,
		ConsensusParams: ConsensusParams{
			ActiveValidatorsLength:   25,
			EpochBlockInterval:       100,
			MisdemeanorThreshold:     50,
			FelonyThreshold:          150,
			ValidatorJailEpochLength: 7,
			UndelegatePeriod:         6,
			MinValidatorStakeAmount:  mustBalance("0xde0b6b3a7640000"),
			MinStakingAmount:         mustBalance("0xde0b6b3a7640000"),
		},
		InitialStakes: map[common.Address]*math.HexOrDecimal256{
			v0: mustBalance("0xde0b6b3a7640000"),  // 1 ether
			v1: mustBalance("0x1bc16d674ec80000"), // 2 ether
		},
		CommissionRate: 10,
		VotingPeriod:   60,
		Faucet: map[common.Address]*math.HexOrDecimal256{
			common.HexToAddress("0x3000000000000000000000000000000000000003"): mustBalance("0x21e19e0c9bab2400000"),
		},
	}
}

func slotHash(n int64) common.Hash {
	return common.BigToHash(big.NewInt(n))
}

// arrayElemSlot is the storage slot of element i of a dynamic array
// rooted in slot zero: keccak256(0) + i.
func arrayElemSlot(i int64) common.Hash {
	base := crypto.Keccak256Hash(common.Hash{}.Bytes())
	return common.BigToHash(new(big.Int).Add(base.Big(), big.NewInt(i)))
}

// mappingSlot is the storage slot of key inside a mapping rooted at the
// given slot: keccak256(key . slot).
func mappingSlot(key common.Address, slot int64) common.Hash {
	return crypto.Keccak256Hash(common.BytesToHash(key.Bytes()).Bytes(), slotHash(slot).Bytes())
}

func checkStorage(t *testing.T, name string, account core.GenesisAccount, want map[common.Hash]common.Hash) {
	t.Helper()
	if len(account.Storage) != len(want) {
		t.Errorf("%s: %d storage slots, want %d", name, len(account.Storage), len(want))
	}
	for slot, value := range want {
		if got := account.Storage[slot]; got != value {
			t.Errorf("%s: slot %x = %x, want %x", name, slot, got, value)
		}
	}
}

func TestBuildGenesisTwoValidators(t *testing.T) {
	config := testConfig()
	genesis, err := BuildGenesis(config, nil, vm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	if genesis.Config.ChainID.Cmp(big.NewInt(config.ChainID)) != 0 {
		t.Errorf("chainId = %v, want %d", genesis.Config.ChainID, config.ChainID)
	}
	if genesis.Config.Parlia == nil || genesis.Config.Parlia.Epoch != uint64(config.ConsensusParams.EpochBlockInterval) {
		t.Errorf("parlia section = %+v, want epoch %d", genesis.Config.Parlia, config.ConsensusParams.EpochBlockInterval)
	}
	if wantExtra := 32 + 20*len(config.Validators) + 65; len(genesis.ExtraData) != wantExtra {
		t.Errorf("extra data is %d bytes, want %d", len(genesis.ExtraData), wantExtra)
	}

	wantAccounts := len(contracts.SystemContracts) + 1 + len(config.Faucet)
	if len(genesis.Alloc) != wantAccounts {
		t.Errorf("alloc carries %d accounts, want %d", len(genesis.Alloc), wantAccounts)
	}
	if _, ok := genesis.Alloc[common.Address{}]; ok {
		t.Error("alloc carries the deployment sender")
	}

	for _, sc := range contracts.SystemContracts {
		account, ok := genesis.Alloc[sc.Address]
		if !ok {
			t.Errorf("%s missing from alloc", sc.Name)
			continue
		}
		art, err := contracts.Load(sc.Name)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(account.Code, art.DeployedBytecode) {
			t.Errorf("%s: code diverges from the artifact runtime", sc.Name)
		}
		if uint64(account.Nonce) != 1 {
			t.Errorf("%s: nonce = %d, want 1", sc.Name, account.Nonce)
		}
	}

	v0, v1 := config.Validators[0], config.Validators[1]
	s0 := (*big.Int)(config.InitialStakes[v0])
	s1 := (*big.Int)(config.InitialStakes[v1])
	total := new(big.Int).Add(s0, s1)

	staking := genesis.Alloc[contracts.StakingAddress]
	if (*big.Int)(staking.Balance).Cmp(total) != 0 {
		t.Errorf("staking balance = %v, want the combined stake %v", (*big.Int)(staking.Balance), total)
	}
	checkStorage(t, "Staking", staking, map[common.Hash]common.Hash{
		slotHash(0):        common.BigToHash(big.NewInt(2)),
		slotHash(2):        common.BigToHash(big.NewInt(int64(config.CommissionRate))),
		slotHash(3):        common.BigToHash(total),
		arrayElemSlot(0):   common.BytesToHash(v0.Bytes()),
		arrayElemSlot(1):   common.BytesToHash(v1.Bytes()),
		mappingSlot(v0, 1): common.BigToHash(s0),
		mappingSlot(v1, 1): common.BigToHash(s1),
	})

	treasury := *config.SystemTreasury
	checkStorage(t, "SystemReward", genesis.Alloc[contracts.SystemRewardAddress], map[common.Hash]common.Hash{
		slotHash(0):              common.BigToHash(big.NewInt(1)),
		arrayElemSlot(0):         common.BytesToHash(treasury.Bytes()),
		mappingSlot(treasury, 1): common.BigToHash(big.NewInt(10000)),
	})

	checkStorage(t, "Governance", genesis.Alloc[contracts.GovernanceAddress], map[common.Hash]common.Hash{
		slotHash(0): common.BigToHash(big.NewInt(config.VotingPeriod)),
	})
	checkStorage(t, "RuntimeUpgrade", genesis.Alloc[contracts.RuntimeUpgradeAddress], map[common.Hash]common.Hash{
		slotHash(0): common.BytesToHash(contracts.EvmHookAddress.Bytes()),
	})

	cp := config.ConsensusParams
	checkStorage(t, "ChainConfig", genesis.Alloc[contracts.ChainConfigAddress], map[common.Hash]common.Hash{
		slotHash(0): common.BigToHash(big.NewInt(int64(cp.ActiveValidatorsLength))),
		slotHash(1): common.BigToHash(big.NewInt(int64(cp.EpochBlockInterval))),
		slotHash(2): common.BigToHash(big.NewInt(int64(cp.MisdemeanorThreshold))),
		slotHash(3): common.BigToHash(big.NewInt(int64(cp.FelonyThreshold))),
		slotHash(4): common.BigToHash(big.NewInt(int64(cp.ValidatorJailEpochLength))),
		slotHash(5): common.BigToHash(big.NewInt(int64(cp.UndelegatePeriod))),
		slotHash(6): common.BigToHash((*big.Int)(cp.MinValidatorStakeAmount)),
		slotHash(7): common.BigToHash((*big.Int)(cp.MinStakingAmount)),
	})

	checkStorage(t, "DeployerProxy", genesis.Alloc[contracts.DeployerProxyAddress], map[common.Hash]common.Hash{
		slotHash(0):      common.BigToHash(big.NewInt(1)),
		arrayElemSlot(0): common.BytesToHash(config.Deployers[0].Bytes()),
	})

	checkStorage(t, "SlashingIndicator", genesis.Alloc[contracts.SlashingIndicatorAddress], nil)
	checkStorage(t, "StakingPool", genesis.Alloc[contracts.StakingPoolAddress], nil)

	intermediary, ok := genesis.Alloc[contracts.IntermediarySystemAddress]
	if !ok {
		t.Fatal("intermediary system address missing from alloc")
	}
	if (*big.Int)(intermediary.Balance).Sign() != 0 {
		t.Errorf("intermediary balance = %v, want 0", (*big.Int)(intermediary.Balance))
	}

	for addr, balance := range config.Faucet {
		account, ok := genesis.Alloc[addr]
		if !ok {
			t.Errorf("faucet account %s missing from alloc", addr.Hex())
			continue
		}
		if (*big.Int)(account.Balance).Cmp((*big.Int)(balance)) != 0 {
			t.Errorf("faucet %s balance = %v, want %v", addr.Hex(), (*big.Int)(account.Balance), (*big.Int)(balance))
		}
	}
}

func TestBuildGenesisDeterminism(t *testing.T) {
	first, err := BuildGenesis(testConfig(), nil, vm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := BuildGenesis(testConfig(), nil, vm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	a, err := first.MarshalJSONIndent()
	if err != nil {
		t.Fatal(err)
	}
	b, err := second.MarshalJSONIndent()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two runs render different documents")
	}
	ha, err := first.Hash()
	if err != nil {
		t.Fatal(err)
	}
	hb, err := second.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if ha != hb {
		t.Errorf("hashes diverge: %s vs %s", ha, hb)
	}
}

func TestBuildGenesisMissingStake(t *testing.T) {
	config := testConfig()
	delete(config.InitialStakes, config.Validators[1])
	if _, err := BuildGenesis(config, nil, vm.Config{}); err == nil || !strings.Contains(err.Error(), "no initial stake for validator") {
		t.Fatalf("err = %v, want a missing stake error", err)
	}
}

func TestBuildGenesisKeepsPrevChainConfig(t *testing.T) {
	config := testConfig()
	prev := core.NewGenesis(big.NewInt(config.ChainID), 9999)
	prev.Config.Parlia.Period = 42
	prev.Config.BerlinBlock = big.NewInt(7)

	genesis, err := BuildGenesis(config, prev, vm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if genesis.Config.Parlia.Period != 42 {
		t.Errorf("period = %d, hand-tuned value dropped", genesis.Config.Parlia.Period)
	}
	if got, want := genesis.Config.Parlia.Epoch, uint64(config.ConsensusParams.EpochBlockInterval); got != want {
		t.Errorf("epoch = %d, want the configured %d", got, want)
	}
	if genesis.Config.BerlinBlock == nil || genesis.Config.BerlinBlock.Cmp(big.NewInt(7)) != 0 {
		t.Errorf("berlinBlock = %v, hand-tuned value dropped", genesis.Config.BerlinBlock)
	}

	mismatched := core.NewGenesis(big.NewInt(5), 9999)
	if _, err := BuildGenesis(config, mismatched, vm.Config{}); err == nil || !strings.Contains(err.Error(), "existing genesis is for chain") {
		t.Fatalf("err = %v, want a chain mismatch error", err)
	}
}

func TestGenerateUpdateMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis-test.json")
	config := testConfig()

	if _, err := Generate(config, path, vm.Config{}); err != nil {
		t.Fatal(err)
	}

	// hand-tune the written document, then regenerate over it
	onDisk, err := core.ReadGenesis(path)
	if err != nil {
		t.Fatal(err)
	}
	onDisk.Config.Parlia.Period = 42
	if err := onDisk.Write(path); err != nil {
		t.Fatal(err)
	}

	genesis, err := Generate(config, path, vm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if genesis.Config.Parlia.Period != 42 {
		t.Errorf("period = %d, hand-tuned value not carried over", genesis.Config.Parlia.Period)
	}
	reread, err := core.ReadGenesis(path)
	if err != nil {
		t.Fatal(err)
	}
	if reread.Config.Parlia.Period != 42 {
		t.Error("written document dropped the hand-tuned period")
	}

	config.ChainID = 123
	if _, err := Generate(config, path, vm.Config{}); err == nil || !strings.Contains(err.Error(), "existing genesis is for chain") {
		t.Fatalf("err = %v, want a chain mismatch error", err)
	}
}

func TestBuildGenesisPresets(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{"devnet", DevNet},
		{"localnet", LocalNet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			genesis, err := BuildGenesis(tt.config, nil, vm.Config{})
			if err != nil {
				t.Fatal(err)
			}
			if genesis.Config.ChainID.Cmp(big.NewInt(tt.config.ChainID)) != 0 {
				t.Errorf("chainId = %v, want %d", genesis.Config.ChainID, tt.config.ChainID)
			}
			want := len(contracts.SystemContracts) + 1 + len(tt.config.Faucet)
			if len(genesis.Alloc) != want {
				t.Errorf("alloc carries %d accounts, want %d", len(genesis.Alloc), want)
			}
			if wantExtra := 32 + 20*len(tt.config.Validators) + 65; len(genesis.ExtraData) != wantExtra {
				t.Errorf("extra data is %d bytes, want %d", len(genesis.ExtraData), wantExtra)
			}
			total := new(big.Int)
			for _, stake := range tt.config.InitialStakes {
				total.Add(total, (*big.Int)(stake))
			}
			staking := genesis.Alloc[contracts.StakingAddress]
			if (*big.Int)(staking.Balance).Cmp(total) != 0 {
				t.Errorf("staking balance = %v, want %v", (*big.Int)(staking.Balance), total)
			}
			// no treasury configured, so rewards accrue in the contract
			if storage := genesis.Alloc[contracts.SystemRewardAddress].Storage; len(storage) != 0 {
				t.Errorf("system reward carries %d storage slots, want none", len(storage))
			}
		})
	}
}

func TestTreasuryDistribution(t *testing.T) {
	config := testConfig()
	accounts, shares := treasuryDistribution(config)
	if len(accounts) != 1 || accounts[0] != *config.SystemTreasury {
		t.Errorf("accounts = %v, want the configured treasury", accounts)
	}
	if len(shares) != 1 || shares[0] != 10000 {
		t.Errorf("shares = %v, want the full 10000", shares)
	}

	config.SystemTreasury = nil
	accounts, shares = treasuryDistribution(config)
	if len(accounts) != 0 || len(shares) != 0 {
		t.Errorf("no treasury: accounts = %v shares = %v, want empty", accounts, shares)
	}
}

func TestMakeExtraData(t *testing.T) {
	validators := []common.Address{
		common.HexToAddress("0x0a0b0c0000000000000000000000000000000001"),
		common.HexToAddress("0x0a0b0c0000000000000000000000000000000002"),
	}
	extra := makeExtraData(validators)
	if len(extra) != 32+20*2+65 {
		t.Fatalf("extra data is %d bytes, want %d", len(extra), 32+20*2+65)
	}
	for i, v := range validators {
		start := 32 + 20*i
		if !bytes.Equal(extra[start:start+20], v.Bytes()) {
			t.Errorf("validator %d not at offset %d", i, start)
		}
	}
	for _, i := range []int{0, 31, len(extra) - 65, len(extra) - 1} {
		if extra[i] != 0 {
			t.Errorf("byte %d = %#x, want zero padding", i, extra[i])
		}
	}
	if got := makeExtraData(nil); len(got) != 97 {
		t.Errorf("empty validator set yields %d bytes, want 97", len(got))
	}
}

func TestDeploySystemContractErrors(t *testing.T) {
	if _, err := deploySystemContract(big.NewInt(1), contracts.GovernanceAddress, "Treasury", nil, vm.Config{}); err == nil || !strings.Contains(err.Error(), "unknown system contract") {
		t.Fatalf("err = %v, want an unknown contract error", err)
	}
	if _, err := deploySystemContract(big.NewInt(1), contracts.GovernanceAddress, "Governance", []interface{}{"sixty"}, vm.Config{}); err == nil || !strings.Contains(err.Error(), "pack Governance constructor") {
		t.Fatalf("err = %v, want a pack error", err)
	}
}
