package asm

import (
	"fmt"

	"fadingrose/dawnforge/core/vm"
)

type instructionIterator struct {
	code    []byte
	pc      uint64
	arg     []byte
	op      vm.OpCode
	error   error
	started bool
}

func NewInstructionIterator(code []byte) *instructionIterator {
	return &instructionIterator{code: code}
}

// Next returns true if there is another instruction to read and move on.
func (it *instructionIterator) Next() bool {
	if it.error != nil || uint64(len(it.code)) <= it.pc {
		return false
	}

	if it.started {
		// Skip past the operand of the previous instruction.
		if it.arg != nil {
			it.pc += uint64(len(it.arg))
			it.arg = nil
		}
		it.pc++
	} else {
		it.started = true
	}

	if uint64(len(it.code)) <= it.pc {
		return false
	}

	it.op = vm.OpCode(it.code[it.pc])
	if it.op.IsPush() {
		width := uint64(it.op) - uint64(vm.PUSH0)
		end := it.pc + 1 + width
		if uint64(len(it.code)) < end {
			it.error = fmt.Errorf("incomplete push instruction at %v", it.pc)
			return false
		}
		it.arg = it.code[it.pc+1 : end]
	} else {
		it.arg = nil
	}
	return true
}

// Error returns any error that may have been encountered.
func (it *instructionIterator) Error() error {
	return it.error
}

// PC returns the PC of the current instruction.
func (it *instructionIterator) PC() uint64 {
	return it.pc
}

// Op returns the opcode of the current instruction.
func (it *instructionIterator) Op() vm.OpCode {
	return it.op
}

// Arg returns the argument of the current instruction.
func (it *instructionIterator) Arg() []byte {
	return it.arg
}

// Disassemble returns all disassembled EVM instructions in human-readable
// format. It decodes the whole input, so code carrying trailing non-code
// bytes comes back as an error.
func Disassemble(script []byte) ([]string, error) {
	instrs := make([]string, 0)

	it := NewInstructionIterator(script)
	for it.Next() {
		instrs = append(instrs, sprintInstruction(it))
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return instrs, nil
}

// DisassembleReachable decodes script up to and including the first INVALID
// opcode and hands back whatever follows it untouched. The bundled system
// contracts close their executable region with INVALID and append a
// plain-text name marker that a linear decode would choke on.
func DisassembleReachable(script []byte) ([]string, []byte, error) {
	instrs := make([]string, 0)

	it := NewInstructionIterator(script)
	for it.Next() {
		instrs = append(instrs, sprintInstruction(it))
		if it.Op() == vm.INVALID {
			return instrs, script[it.PC()+1:], nil
		}
	}
	return instrs, nil, it.Error()
}

// CheckStaticJumps verifies that every JUMP and JUMPI in the executable
// region consumes a constant placed by the directly preceding push, and
// that the constant lands on a JUMPDEST. The bundled initcode only ever
// jumps through push constants, so a failure here means a mis-assembled
// artifact.
func CheckStaticJumps(script []byte) error {
	dests := make(map[uint64]bool)
	it := NewInstructionIterator(script)
	for it.Next() {
		if it.Op() == vm.JUMPDEST {
			dests[it.PC()] = true
		}
		if it.Op() == vm.INVALID {
			break
		}
	}
	if err := it.Error(); err != nil {
		return err
	}

	var (
		pushed   uint64
		havePush bool
	)
	it = NewInstructionIterator(script)
	for it.Next() {
		switch op := it.Op(); {
		case op == vm.JUMP || op == vm.JUMPI:
			if !havePush {
				return fmt.Errorf("jump at %#x has no constant target", it.PC())
			}
			if !dests[pushed] {
				return fmt.Errorf("jump at %#x targets %#x, not a JUMPDEST", it.PC(), pushed)
			}
			havePush = false
		case op.IsPush():
			pushed = 0
			for _, b := range it.Arg() {
				pushed = pushed<<8 | uint64(b)
			}
			havePush = true
		default:
			havePush = false
		}
		if it.Op() == vm.INVALID {
			break
		}
	}
	return it.Error()
}

func sprintInstruction(it *instructionIterator) string {
	if it.Arg() != nil && 0 < len(it.Arg()) {
		return fmt.Sprintf("%05x: %v %#x", it.PC(), it.Op(), it.Arg())
	}
	return fmt.Sprintf("%05x: %v", it.PC(), it.Op())
}
