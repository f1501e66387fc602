package contracts

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"fadingrose/dawnforge/core/vm"
)

// Constructors copy their ABI-encoded arguments to memory offset zero,
// so the scratch words used for mapping-slot hashing sit far above any
// argument blob a genesis preset can produce.
const (
	scratchWord0 = 0x2000
	scratchWord1 = 0x2020
	scratchTotal = 0x2040
)

// arrayBaseSlot is keccak256(uint256(0)), the storage slot of element
// zero of a dynamic array rooted in slot zero.
var arrayBaseSlot = crypto.Keccak256Hash(common.Hash{}.Bytes())

// program accumulates an EVM instruction stream. Jump targets and code
// offsets are written as named labels and resolved once the stream is
// final, so listings never carry hand-counted offsets.
type program struct {
	code    []byte
	labels  map[string]uint16
	patches map[int]string
}

func newProgram() *program {
	return &program{
		labels:  make(map[string]uint16),
		patches: make(map[int]string),
	}
}

// Op appends plain opcodes.
func (p *program) Op(ops ...vm.OpCode) *program {
	for _, op := range ops {
		p.code = append(p.code, byte(op))
	}
	return p
}

// Push1 appends a PUSH1 with a one byte immediate.
func (p *program) Push1(v byte) *program {
	p.code = append(p.code, byte(vm.PUSH1), v)
	return p
}

// Push2 appends a PUSH2 with a two byte immediate.
func (p *program) Push2(v uint16) *program {
	p.code = append(p.code, byte(vm.PUSH2), byte(v>>8), byte(v))
	return p
}

// Push32 appends a PUSH32 with a full word immediate.
func (p *program) Push32(word common.Hash) *program {
	p.code = append(p.code, byte(vm.PUSH32))
	p.code = append(p.code, word.Bytes()...)
	return p
}

// Jumpdest emits a JUMPDEST and names its offset.
func (p *program) Jumpdest(name string) *program {
	p.mark(name)
	return p.Op(vm.JUMPDEST)
}

// PushLabel emits a PUSH2 whose immediate is patched to the named
// offset during finalization. Using a fixed width push keeps every
// instruction length independent of where labels end up.
func (p *program) PushLabel(name string) *program {
	p.code = append(p.code, byte(vm.PUSH2), 0, 0)
	p.patches[len(p.code)-2] = name
	return p
}

func (p *program) mark(name string) {
	if _, dup := p.labels[name]; dup {
		panic(fmt.Sprintf("contracts: label %q defined twice", name))
	}
	p.labels[name] = uint16(len(p.code))
}

// loadArgs copies the ABI-encoded constructor arguments, appended after
// the runtime blob, into memory at offset zero.
func (p *program) loadArgs() *program {
	p.PushLabel("args").Op(vm.CODESIZE, vm.SUB)
	p.PushLabel("args").Push1(0x00).Op(vm.CODECOPY)
	return p
}

// deploy finishes a constructor: it returns the runtime blob appended
// after the instruction stream and resolves all labels.
func (p *program) deploy(runtime []byte) []byte {
	if len(runtime) == 0 || len(runtime) > 0xff {
		panic(fmt.Sprintf("contracts: runtime blob of %d bytes", len(runtime)))
	}
	n := byte(len(runtime))
	p.Push1(n).PushLabel("runtime").Push1(0x00).Op(vm.CODECOPY)
	p.Push1(n).Push1(0x00).Op(vm.RETURN)
	p.mark("runtime")
	p.code = append(p.code, runtime...)
	p.mark("args")
	return p.bytes()
}

func (p *program) bytes() []byte {
	for at, name := range p.patches {
		off, ok := p.labels[name]
		if !ok {
			panic(fmt.Sprintf("contracts: label %q never defined", name))
		}
		binary.BigEndian.PutUint16(p.code[at:], off)
	}
	return p.code
}

// runtimeFor builds the deployed code of a system contract: a stub that
// answers any call, init() included, with empty returndata and success.
// The unreachable tail after RETURN tags the code with the contract
// name, keeping the eight stubs distinguishable on chain.
func runtimeFor(name string) []byte {
	rt := []byte{
		byte(vm.PUSH1), 0x00,
		byte(vm.PUSH1), 0x00,
		byte(vm.RETURN),
		byte(vm.INVALID),
	}
	return append(rt, name...)
}
