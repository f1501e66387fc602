package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// Log represents a contract log event. These events are generated by the LOG
// opcodes and stored/indexed by the node. During genesis forging they are only
// collected for diagnostics, so the consensus fields are all that is kept.
type Log struct {
	// address of the contract that generated the event
	Address common.Address `json:"address"`
	// list of topics provided by the contract
	Topics []common.Hash `json:"topics"`
	// supplied by the contract, usually ABI-encoded
	Data []byte `json:"data"`

	// BlockNumber is the block in which the log appeared. At genesis
	// forging time this is always zero.
	BlockNumber uint64 `json:"blockNumber"`
}
