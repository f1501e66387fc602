package contracts

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

//go:embed build/*.json
var buildFS embed.FS

// Artifact is one entry of the embedded build bundle. The field set
// follows the usual compiler output so externally built bundles drop in
// without conversion.
type Artifact struct {
	ContractName     string          `json:"contractName"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         hexutil.Bytes   `json:"bytecode"`
	DeployedBytecode hexutil.Bytes   `json:"deployedBytecode"`
}

// Load reads the embedded artifact of the named system contract.
func Load(name string) (*Artifact, error) {
	data, err := buildFS.ReadFile("build/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("unknown system contract %q", name)
	}
	art := new(Artifact)
	if err := json.Unmarshal(data, art); err != nil {
		return nil, fmt.Errorf("corrupt artifact for %s: %w", name, err)
	}
	return art, nil
}

// Constructor returns the ABI argument schema of the named contract's
// constructor. Contracts without arguments yield an empty schema that
// packs to zero bytes.
func Constructor(name string) (abi.Arguments, error) {
	art, err := Load(name)
	if err != nil {
		return nil, err
	}
	parsed, err := abi.JSON(bytes.NewReader(art.ABI))
	if err != nil {
		return nil, fmt.Errorf("parse ABI of %s: %w", name, err)
	}
	return parsed.Constructor.Inputs, nil
}

// Names lists the bundled contracts in lexical order.
func Names() []string {
	matches, err := fs.Glob(buildFS, "build/*.json")
	if err != nil {
		panic(err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(m, "build/"), ".json"))
	}
	sort.Strings(names)
	return names
}
