package forge

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "testnet.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `{
		"chainId": 73927,
		"validators": ["0x08fae3885e299c24ff9841478eb946f41023ac69"],
		"systemTreasury": "0x00a601f45688dba8a070722073b015277cf36725",
		"consensusParams": {
			"activeValidatorsLength": 25,
			"epochBlockInterval": 100,
			"misdemeanorThreshold": 50,
			"felonyThreshold": 150,
			"validatorJailEpochLength": 7,
			"undelegatePeriod": 6,
			"minValidatorStakeAmount": "0xde0b6b3a7640000",
			"minStakingAmount": "1000000000000000000"
		},
		"initialStakes": {
			"0x08fae3885e299c24ff9841478eb946f41023ac69": "0x3635c9adc5dea00000"
		},
		"commissionRate": 30,
		"votingPeriod": 60,
		"faucet": {
			"0x00a601f45688dba8a070722073b015277cf36725": "0x21e19e0c9bab2400000"
		}
	}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if config.ChainID != 73927 {
		t.Errorf("chainId = %d, want 73927", config.ChainID)
	}
	validator := common.HexToAddress("0x08fae3885e299c24ff9841478eb946f41023ac69")
	if len(config.Validators) != 1 || config.Validators[0] != validator {
		t.Errorf("validators = %v, want [%s]", config.Validators, validator.Hex())
	}
	if config.SystemTreasury == nil || *config.SystemTreasury != common.HexToAddress("0x00a601f45688dba8a070722073b015277cf36725") {
		t.Errorf("treasury = %v", config.SystemTreasury)
	}
	if config.CommissionRate != 30 {
		t.Errorf("commissionRate = %d, want 30", config.CommissionRate)
	}
	if config.VotingPeriod != 60 {
		t.Errorf("votingPeriod = %d, want 60", config.VotingPeriod)
	}
	// hex and decimal notation decode to the same one ether
	minStake := (*big.Int)(config.ConsensusParams.MinValidatorStakeAmount)
	minDelegate := (*big.Int)(config.ConsensusParams.MinStakingAmount)
	if minStake.Cmp(minDelegate) != 0 {
		t.Errorf("stake amounts decode differently: %v vs %v", minStake, minDelegate)
	}
	stake := (*big.Int)(config.InitialStakes[validator])
	if stake == nil || stake.Cmp(hexBig(t, "0x3635c9adc5dea00000")) != 0 {
		t.Errorf("initial stake = %v, want 1000 ether", stake)
	}
	if config.ConsensusParams.EpochBlockInterval != 100 {
		t.Errorf("epochBlockInterval = %d, want 100", config.ConsensusParams.EpochBlockInterval)
	}
}

func hexBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		t.Fatalf("bad hex literal %q", s)
	}
	return v
}

func TestLoadConfigRejects(t *testing.T) {
	stakeAmounts := `"consensusParams": {"minValidatorStakeAmount": "0x01", "minStakingAmount": "0x01"}`
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"zero chain id",
			`{"chainId": 0, "validators": ["0x08fae3885e299c24ff9841478eb946f41023ac69"], ` + stakeAmounts + `}`,
			"chain id must be positive",
		},
		{
			"negative chain id",
			`{"chainId": -5, "validators": ["0x08fae3885e299c24ff9841478eb946f41023ac69"], ` + stakeAmounts + `}`,
			"chain id must be positive",
		},
		{
			"no validators",
			`{"chainId": 1, "validators": [], ` + stakeAmounts + `}`,
			"at least one validator required",
		},
		{
			"missing stake amounts",
			`{"chainId": 1, "validators": ["0x08fae3885e299c24ff9841478eb946f41023ac69"]}`,
			"consensus stake amounts are required",
		},
		{
			"malformed json",
			`{]`,
			"parse network config",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.body)
			if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "read network config") {
		t.Fatalf("err = %v, want a read error", err)
	}
}

func TestPresetsAreComplete(t *testing.T) {
	presets := map[string]*Config{"devnet": DevNet, "localnet": LocalNet}
	for name, config := range presets {
		if config.ChainID <= 0 {
			t.Errorf("%s: chain id %d", name, config.ChainID)
		}
		if len(config.Validators) == 0 {
			t.Errorf("%s: no validators", name)
		}
		for _, v := range config.Validators {
			if _, ok := config.InitialStakes[v]; !ok {
				t.Errorf("%s: validator %s has no initial stake", name, v.Hex())
			}
		}
		if len(config.InitialStakes) != len(config.Validators) {
			t.Errorf("%s: %d stakes for %d validators", name, len(config.InitialStakes), len(config.Validators))
		}
		if config.ConsensusParams.MinValidatorStakeAmount == nil || config.ConsensusParams.MinStakingAmount == nil {
			t.Errorf("%s: stake amounts unset", name)
		}
	}
	if DevNet.ChainID == LocalNet.ChainID {
		t.Error("presets share a chain id")
	}
}
