package forge

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// ConsensusParams carry the eight values the ChainConfig system contract
// is constructed with, in its declaration order.
type ConsensusParams struct {
	ActiveValidatorsLength   uint32                `json:"activeValidatorsLength"`
	EpochBlockInterval       uint32                `json:"epochBlockInterval"`
	MisdemeanorThreshold     uint32                `json:"misdemeanorThreshold"`
	FelonyThreshold          uint32                `json:"felonyThreshold"`
	ValidatorJailEpochLength uint32                `json:"validatorJailEpochLength"`
	UndelegatePeriod         uint32                `json:"undelegatePeriod"`
	MinValidatorStakeAmount  *math.HexOrDecimal256 `json:"minValidatorStakeAmount"`
	MinStakingAmount         *math.HexOrDecimal256 `json:"minStakingAmount"`
}

// Config describes one network to forge. Balance-like fields accept both
// hex and decimal notation.
type Config struct {
	ChainID         int64                                    `json:"chainId"`
	Deployers       []common.Address                         `json:"deployers"`
	Validators      []common.Address                         `json:"validators"`
	SystemTreasury  *common.Address                          `json:"systemTreasury,omitempty"`
	ConsensusParams ConsensusParams                          `json:"consensusParams"`
	InitialStakes   map[common.Address]*math.HexOrDecimal256 `json:"initialStakes"`
	CommissionRate  uint16                                   `json:"commissionRate"`
	VotingPeriod    int64                                    `json:"votingPeriod"`
	Faucet          map[common.Address]*math.HexOrDecimal256 `json:"faucet"`
}

// LoadConfig reads a network configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network config: %w", err)
	}
	config := new(Config)
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse network config %s: %w", path, err)
	}
	if config.ChainID <= 0 {
		return nil, fmt.Errorf("network config %s: chain id must be positive", path)
	}
	if len(config.Validators) == 0 {
		return nil, fmt.Errorf("network config %s: at least one validator required", path)
	}
	if config.ConsensusParams.MinValidatorStakeAmount == nil || config.ConsensusParams.MinStakingAmount == nil {
		return nil, fmt.Errorf("network config %s: consensus stake amounts are required", path)
	}
	return config, nil
}

func mustBalance(hex string) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(hexutil.MustDecodeBig(hex))
}

// DevNet is the built-in development network: five validators staking
// 1000 ether each.
var DevNet = &Config{
	ChainID:   14000,
	Deployers: []common.Address{},
	Validators: []common.Address{
		common.HexToAddress("0x08fae3885e299c24ff9841478eb946f41023ac69"),
		common.HexToAddress("0x751aaca849b09a3e347bbfe125cf18423cc24b40"),
		common.HexToAddress("0x7a1aef4b517e2250cd0902fbb576df7ac93a2ae5"),
		common.HexToAddress("0x8e1ea63e2c94ebda03d1b52fc8644fa4cc3c4df5"),
		common.HexToAddress("0x913155ab1cc20e9b6efb6b87d1339622c88a4ca7"),
	},
	ConsensusParams: ConsensusParams{
		ActiveValidatorsLength:   25,
		EpochBlockInterval:       1200,
		MisdemeanorThreshold:     50,
		FelonyThreshold:          150,
		ValidatorJailEpochLength: 7,
		UndelegatePeriod:         6,
		MinValidatorStakeAmount:  mustBalance("0x3635c9adc5dea00000"), // 1000 ether
		MinStakingAmount:         mustBalance("0xde0b6b3a7640000"),    // 1 ether
	},
	InitialStakes: map[common.Address]*math.HexOrDecimal256{
		common.HexToAddress("0x08fae3885e299c24ff9841478eb946f41023ac69"): mustBalance("0x3635c9adc5dea00000"),
		common.HexToAddress("0x751aaca849b09a3e347bbfe125cf18423cc24b40"): mustBalance("0x3635c9adc5dea00000"),
		common.HexToAddress("0x7a1aef4b517e2250cd0902fbb576df7ac93a2ae5"): mustBalance("0x3635c9adc5dea00000"),
		common.HexToAddress("0x8e1ea63e2c94ebda03d1b52fc8644fa4cc3c4df5"): mustBalance("0x3635c9adc5dea00000"),
		common.HexToAddress("0x913155ab1cc20e9b6efb6b87d1339622c88a4ca7"): mustBalance("0x3635c9adc5dea00000"),
	},
	CommissionRate: 0,
	VotingPeriod:   60,
	Faucet: map[common.Address]*math.HexOrDecimal256{
		common.HexToAddress("0x00a601f45688dba8a070722073b015277cf36725"): mustBalance("0x21e19e0c9bab2400000"),
		common.HexToAddress("0xb891fe7b38f857f53a7b5529204c58d5c487280b"): mustBalance("0x52b7d2dcc80cd2e4000000"),
	},
}

// LocalNet is the single-validator variant for local experiments.
var LocalNet = &Config{
	ChainID:   1337,
	Deployers: []common.Address{},
	Validators: []common.Address{
		common.HexToAddress("0x08fae3885e299c24ff9841478eb946f41023ac69"),
	},
	ConsensusParams: ConsensusParams{
		ActiveValidatorsLength:   25,
		EpochBlockInterval:       1200,
		MisdemeanorThreshold:     50,
		FelonyThreshold:          150,
		ValidatorJailEpochLength: 7,
		UndelegatePeriod:         6,
		MinValidatorStakeAmount:  mustBalance("0x3635c9adc5dea00000"), // 1000 ether
		MinStakingAmount:         mustBalance("0xde0b6b3a7640000"),    // 1 ether
	},
	InitialStakes: map[common.Address]*math.HexOrDecimal256{
		common.HexToAddress("0x08fae3885e299c24ff9841478eb946f41023ac69"): mustBalance("0x3635c9adc5dea00000"),
	},
	CommissionRate: 0,
	VotingPeriod:   60,
	Faucet: map[common.Address]*math.HexOrDecimal256{
		common.HexToAddress("0x00a601f45688dba8a070722073b015277cf36725"): mustBalance("0x21e19e0c9bab2400000"),
		common.HexToAddress("0xb891fe7b38f857f53a7b5529204c58d5c487280b"): mustBalance("0x52b7d2dcc80cd2e4000000"),
	},
}
