package forge

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"fadingrose/dawnforge/contracts"
	"fadingrose/dawnforge/core"
	"fadingrose/dawnforge/core/state"
	"fadingrose/dawnforge/core/vm"
)

// initSelector probes init() on a freshly deployed system contract.
var initSelector = hexutil.MustDecode("0xe1c7392a")

// initCallGas bounds the init() probe. Constructors themselves run with
// the deployment gas cap from core.NewDeploymentMessage.
const initCallGas = 10_000_000

// BuildGenesis forges the genesis document of the configured network.
// When prev is non-nil its chain configuration is carried into the new
// document, so regenerating over an existing file keeps a hand-tuned
// fork schedule intact.
func BuildGenesis(config *Config, prev *core.Genesis, vmcfg vm.Config) (*core.Genesis, error) {
	chainID := big.NewInt(config.ChainID)
	epoch := uint64(config.ConsensusParams.EpochBlockInterval)
	genesis := core.NewGenesis(chainID, epoch)
	if prev != nil && prev.Config != nil {
		if prev.Config.ChainID != nil && prev.Config.ChainID.Cmp(chainID) != 0 {
			return nil, fmt.Errorf("existing genesis is for chain %v, config wants %v", prev.Config.ChainID, chainID)
		}
		genesis.Config = prev.Config
		genesis.Config.ChainID = chainID
		if genesis.Config.Parlia == nil {
			genesis.Config.Parlia = &core.ParliaConfig{Period: core.ParliaPeriod}
		}
		genesis.Config.Parlia.Epoch = epoch
	}
	genesis.ExtraData = makeExtraData(config.Validators)

	// stakes follow validator order
	initialStakes := make([]*big.Int, 0, len(config.Validators))
	totalStake := new(big.Int)
	for _, v := range config.Validators {
		stake, ok := config.InitialStakes[v]
		if !ok {
			return nil, fmt.Errorf("no initial stake for validator %s", v.Hex())
		}
		initialStakes = append(initialStakes, (*big.Int)(stake))
		totalStake.Add(totalStake, (*big.Int)(stake))
	}

	treasuryAccounts, treasuryShares := treasuryDistribution(config)
	deployers := config.Deployers
	if deployers == nil {
		deployers = []common.Address{}
	}

	deployments := []struct {
		name    string
		address common.Address
		args    []interface{}
	}{
		{"Staking", contracts.StakingAddress, []interface{}{
			config.Validators, initialStakes, config.CommissionRate,
		}},
		{"SlashingIndicator", contracts.SlashingIndicatorAddress, nil},
		{"SystemReward", contracts.SystemRewardAddress, []interface{}{
			treasuryAccounts, treasuryShares,
		}},
		{"StakingPool", contracts.StakingPoolAddress, nil},
		{"Governance", contracts.GovernanceAddress, []interface{}{
			big.NewInt(config.VotingPeriod),
		}},
		{"ChainConfig", contracts.ChainConfigAddress, []interface{}{
			config.ConsensusParams.ActiveValidatorsLength,
			config.ConsensusParams.EpochBlockInterval,
			config.ConsensusParams.MisdemeanorThreshold,
			config.ConsensusParams.FelonyThreshold,
			config.ConsensusParams.ValidatorJailEpochLength,
			config.ConsensusParams.UndelegatePeriod,
			(*big.Int)(config.ConsensusParams.MinValidatorStakeAmount),
			(*big.Int)(config.ConsensusParams.MinStakingAmount),
		}},
		{"RuntimeUpgrade", contracts.RuntimeUpgradeAddress, []interface{}{
			contracts.EvmHookAddress,
		}},
		{"DeployerProxy", contracts.DeployerProxyAddress, []interface{}{
			deployers,
		}},
	}

	genesis.Alloc = make(core.GenesisAlloc)
	for _, d := range deployments {
		log.Info("Deploying system contract", "name", d.name, "address", d.address)
		account, err := deploySystemContract(chainID, d.address, d.name, d.args, vmcfg)
		if err != nil {
			return nil, err
		}
		genesis.Alloc[d.address] = account
	}

	// the staking contract holds every initial stake from block zero
	staking := genesis.Alloc[contracts.StakingAddress]
	staking.Balance = (*math.HexOrDecimal256)(totalStake)
	genesis.Alloc[contracts.StakingAddress] = staking

	genesis.Alloc[contracts.IntermediarySystemAddress] = core.GenesisAccount{
		Balance: (*math.HexOrDecimal256)(new(big.Int)),
	}

	for addr, balance := range config.Faucet {
		genesis.Alloc[addr] = core.GenesisAccount{Balance: balance}
	}

	return genesis, nil
}

// deploySystemContract executes one constructor in an isolated store and
// folds the target's state diff into a genesis entry. Accounts the
// constructor touched besides the target, the zero-address sender
// included, stay out of the document.
func deploySystemContract(chainID *big.Int, addr common.Address, name string, args []interface{}, vmcfg vm.Config) (core.GenesisAccount, error) {
	artifact, err := contracts.Load(name)
	if err != nil {
		return core.GenesisAccount{}, err
	}
	schema, err := contracts.Constructor(name)
	if err != nil {
		return core.GenesisAccount{}, err
	}
	ctor, err := schema.Pack(args...)
	if err != nil {
		return core.GenesisAccount{}, fmt.Errorf("pack %s constructor: %w", name, err)
	}
	code := append(common.CopyBytes(artifact.Bytecode), ctor...)

	statedb := state.NewStateDB()
	msg := core.NewDeploymentMessage(addr, code)
	evm := vm.NewEVM(core.NewEVMBlockContext(core.GenesisGasLimit), core.NewEVMTxContext(msg), statedb, core.IstanbulChainConfig(chainID), vmcfg)
	gp := new(core.GasPool).AddGas(msg.GasLimit)

	result, err := core.ApplyDeployment(evm, msg, gp)
	if err != nil {
		return core.GenesisAccount{}, fmt.Errorf("deploy %s: %w", name, err)
	}
	if result.Failed() {
		if revert := result.Revert(); len(revert) > 0 {
			log.Warn("Constructor reverted", "name", name, "data", hexutil.Encode(revert))
		}
		return core.GenesisAccount{}, fmt.Errorf("deploy %s: %w", name, result.Err)
	}

	var account core.GenesisAccount
	found := false
	for _, change := range statedb.Changes() {
		if change.Address != addr {
			continue
		}
		found = true
		if change.Deleted {
			log.Warn("System contract self destructed during deployment", "name", name, "address", addr)
			return core.GenesisAccount{Balance: (*math.HexOrDecimal256)(new(big.Int))}, nil
		}
		account = core.GenesisAccount{
			Code:    change.Code,
			Storage: change.Storage,
			Balance: (*math.HexOrDecimal256)(change.Balance.ToBig()),
			Nonce:   math.HexOrDecimal64(change.Nonce),
		}
	}
	if !found {
		return core.GenesisAccount{}, fmt.Errorf("deploy %s: no state recorded at %s", name, addr.Hex())
	}

	// the consensus engine calls init() on every system contract at block one
	ret, _, err := evm.Call(vm.AccountRef(common.Address{}), addr, initSelector, initCallGas, new(uint256.Int))
	if err != nil {
		if len(ret) > 0 {
			log.Warn("init() reverted", "name", name, "data", hexutil.Encode(ret))
		}
		return core.GenesisAccount{}, fmt.Errorf("init %s after deployment: %w", name, err)
	}
	return account, nil
}

// treasuryDistribution resolves the SystemReward payees. With no
// treasury configured the contract starts with an empty distribution and
// rewards accrue in place.
func treasuryDistribution(config *Config) ([]common.Address, []uint16) {
	if config.SystemTreasury == nil {
		return []common.Address{}, []uint16{}
	}
	return []common.Address{*config.SystemTreasury}, []uint16{10000}
}

// makeExtraData lays out the parlia extra-data field: 32 vanity bytes,
// 20 bytes per validator, 65 seal bytes.
func makeExtraData(validators []common.Address) []byte {
	extra := make([]byte, 32+common.AddressLength*len(validators)+65)
	for i, v := range validators {
		copy(extra[32+common.AddressLength*i:], v.Bytes())
	}
	return extra
}

// Generate builds one network and writes it to path. An existing
// document at path contributes its chain config first, so repeated runs
// are stable.
func Generate(config *Config, path string, vmcfg vm.Config) (*core.Genesis, error) {
	prev, err := core.ReadGenesis(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		prev = nil
	} else {
		log.Info("Reusing chain config of existing genesis", "path", path)
	}
	genesis, err := BuildGenesis(config, prev, vmcfg)
	if err != nil {
		return nil, err
	}
	if err := genesis.Write(path); err != nil {
		return nil, err
	}
	log.Info("Genesis written", "path", path, "chainId", config.ChainID, "validators", len(config.Validators))
	return genesis, nil
}
