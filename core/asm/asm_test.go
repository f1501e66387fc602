package asm

import (
	"reflect"
	"testing"

	"fadingrose/dawnforge/core/vm"
)

func TestInstructionIterator(t *testing.T) {
	type step struct {
		pc  uint64
		op  vm.OpCode
		arg []byte
	}
	tests := []struct {
		name    string
		input   []byte
		steps   []step
		wantErr bool
	}{
		{
			name:  "basic instructions",
			input: []byte{0x01, 0x02, 0x03},
			steps: []step{{0, vm.ADD, nil}, {1, vm.MUL, nil}, {2, vm.SUB, nil}},
		},
		{
			name:  "push widths",
			input: []byte{0x60, 0x01, 0x61, 0x01, 0x02, 0x62, 0x01, 0x02, 0x03},
			steps: []step{
				{0, vm.PUSH1, []byte{0x01}},
				{2, vm.PUSH2, []byte{0x01, 0x02}},
				{5, vm.PUSH3, []byte{0x01, 0x02, 0x03}},
			},
		},
		{
			name:  "empty input",
			input: []byte{},
		},
		{
			name:    "incomplete push",
			input:   []byte{0x60, 0x01, 0x61},
			steps:   []step{{0, vm.PUSH1, []byte{0x01}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := NewInstructionIterator(tt.input)
			var got []step
			for it.Next() {
				var arg []byte
				if len(it.Arg()) > 0 {
					arg = append(arg, it.Arg()...)
				}
				got = append(got, step{it.PC(), it.Op(), arg})
			}
			if gotErr := it.Error() != nil; gotErr != tt.wantErr {
				t.Fatalf("iterator error = %v, wantErr %v", it.Error(), tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.steps) {
				t.Errorf("decoded %v, want %v", got, tt.steps)
			}
		})
	}
}

func TestDisassemble(t *testing.T) {
	instrs, err := Disassemble([]byte{0x60, 0x2a, 0x60, 0x00, 0x55})
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	want := []string{
		"00000: PUSH1 0x2a",
		"00002: PUSH1 0x00",
		"00004: SSTORE",
	}
	if !reflect.DeepEqual(instrs, want) {
		t.Errorf("got %v, want %v", instrs, want)
	}

	// A trailing name marker is not decodable code.
	if _, err := Disassemble([]byte{0xfe, 'S', 't', 'a', 'k', 'i', 'n', 'g'}); err == nil {
		t.Error("expected an error decoding past the name marker")
	}
}

func TestDisassembleReachable(t *testing.T) {
	// PUSH1 0; PUSH1 0; RETURN; INVALID; two byte name marker.
	code := []byte{0x60, 0x00, 0x60, 0x00, 0xf3, 0xfe, 'O', 'K'}
	instrs, tail, err := DisassembleReachable(code)
	if err != nil {
		t.Fatalf("DisassembleReachable: %v", err)
	}
	if len(instrs) != 4 {
		t.Fatalf("decoded %d instructions, want 4: %v", len(instrs), instrs)
	}
	if instrs[3] != "00005: INVALID" {
		t.Errorf("last instruction = %q", instrs[3])
	}
	if string(tail) != "OK" {
		t.Errorf("tail = %q, want %q", tail, "OK")
	}

	// Without INVALID the whole input decodes and there is no tail.
	instrs, tail, err = DisassembleReachable([]byte{0x60, 0x01, 0x01})
	if err != nil || tail != nil || len(instrs) != 2 {
		t.Errorf("got %v tail %v err %v", instrs, tail, err)
	}
}

func TestCheckStaticJumps(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr bool
	}{
		{
			name:  "backward jump to dest",
			input: []byte{0x5b, 0x60, 0x00, 0x56}, // JUMPDEST; PUSH1 0; JUMP
		},
		{
			name:  "forward conditional jump",
			input: []byte{0x60, 0x05, 0x57, 0x00, 0x00, 0x5b}, // PUSH1 5; JUMPI; STOP; STOP; JUMPDEST
		},
		{
			name:    "jump without constant",
			input:   []byte{0x5b, 0x56}, // JUMPDEST; JUMP
			wantErr: true,
		},
		{
			name:    "jump to non dest",
			input:   []byte{0x60, 0x03, 0x56, 0x00}, // PUSH1 3; JUMP; STOP
			wantErr: true,
		},
		{
			name: "dest byte inside push operand does not count",
			// PUSH1 0x5b; PUSH1 1; JUMP: byte 1 is 0x5b but is operand data.
			input:   []byte{0x60, 0x5b, 0x60, 0x01, 0x56},
			wantErr: true,
		},
		{
			name:  "code after INVALID is ignored",
			input: []byte{0xfe, 0x56},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckStaticJumps(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckStaticJumps(%#x) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func FuzzInstructionIterator(f *testing.F) {
	f.Add([]byte{0x60, 0x01, 0x01})
	f.Add([]byte{0x60, 0x00, 0x60, 0x00, 0xf3, 0xfe, 'S'})
	f.Add([]byte{0x5b, 0x60, 0x00, 0x56})

	f.Fuzz(func(t *testing.T, data []byte) {
		it := NewInstructionIterator(data)

		// Re-emitting every decoded instruction must reproduce a prefix of
		// the input, and the whole input when the decode ran clean.
		recon := make([]byte, 0, len(data))
		for it.Next() {
			recon = append(recon, byte(it.Op()))
			recon = append(recon, it.Arg()...)
		}
		if len(recon) > len(data) {
			t.Fatalf("decoded %d bytes out of %d", len(recon), len(data))
		}
		for i := range recon {
			if recon[i] != data[i] {
				t.Errorf("byte mismatch at %d: got %#x, want %#x", i, recon[i], data[i])
			}
		}
		if it.Error() == nil && len(recon) != len(data) {
			t.Errorf("clean decode stopped at %d of %d bytes", len(recon), len(data))
		}
	})
}
