package contracts

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"fadingrose/dawnforge/core/asm"
)

func TestBundleMatchesListings(t *testing.T) {
	for name, build := range initPrograms {
		art, err := Load(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if art.ContractName != name {
			t.Errorf("%s: artifact names itself %q", name, art.ContractName)
		}
		if got := build(); !bytes.Equal(got, art.Bytecode) {
			t.Errorf("%s: assembled init code diverges from bundle\nhave %x\nwant %x", name, got, []byte(art.Bytecode))
		}
		if want := runtimeFor(name); !bytes.Equal(want, art.DeployedBytecode) {
			t.Errorf("%s: runtime blob diverges from bundle\nhave %x\nwant %x", name, want, []byte(art.DeployedBytecode))
		}
		if !bytes.HasSuffix(art.Bytecode, art.DeployedBytecode) {
			t.Errorf("%s: init code does not end with the runtime blob", name)
		}
	}
}

func TestBundleCoversListings(t *testing.T) {
	names := Names()
	if len(names) != len(initPrograms) {
		t.Fatalf("bundle has %d artifacts, listings cover %d", len(names), len(initPrograms))
	}
	for _, name := range names {
		if _, ok := initPrograms[name]; !ok {
			t.Errorf("artifact %s has no listing", name)
		}
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names out of order: %s before %s", names[i-1], names[i])
		}
	}
}

// TestArtifactsVet disassembles every bundled artifact: all jumps must
// land on a JUMPDEST and the unreachable tail after INVALID must spell
// the contract name.
func TestArtifactsVet(t *testing.T) {
	for _, name := range Names() {
		art, err := Load(name)
		if err != nil {
			t.Fatal(err)
		}
		variants := []struct {
			kind string
			code []byte
		}{
			{"init", art.Bytecode},
			{"runtime", art.DeployedBytecode},
		}
		for _, v := range variants {
			if err := asm.CheckStaticJumps(v.code); err != nil {
				t.Errorf("%s %s code: %v", name, v.kind, err)
			}
			_, tail, err := asm.DisassembleReachable(v.code)
			if err != nil {
				t.Errorf("%s %s code: %v", name, v.kind, err)
				continue
			}
			if string(tail) != name {
				t.Errorf("%s %s code: name marker %q, want %q", name, v.kind, tail, name)
			}
		}
	}
}

func TestConstructorSchemas(t *testing.T) {
	wantInputs := map[string]int{
		"Staking":           3,
		"SlashingIndicator": 0,
		"SystemReward":      2,
		"StakingPool":       0,
		"Governance":        1,
		"ChainConfig":       8,
		"RuntimeUpgrade":    1,
		"DeployerProxy":     1,
	}
	for name, want := range wantInputs {
		args, err := Constructor(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(args) != want {
			t.Errorf("%s: constructor takes %d arguments, want %d", name, len(args), want)
		}
	}
}

func TestStakingConstructorEncoding(t *testing.T) {
	args, err := Constructor("Staking")
	if err != nil {
		t.Fatal(err)
	}
	packed, err := args.Pack(
		[]common.Address{
			common.HexToAddress("0x00a601f45688dba8a070722073b015277cf36725"),
			common.HexToAddress("0xb891fe7b38f857f53a7b5529204c58d5c487280b"),
		},
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
		uint16(30),
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(packed) != 288 {
		t.Fatalf("packed %d bytes, want 288", len(packed))
	}
	// the first head word points at the validators tail
	if off := new(big.Int).SetBytes(packed[:32]); off.Int64() != 96 {
		t.Errorf("validators tail offset = %d, want 96", off.Int64())
	}
}
