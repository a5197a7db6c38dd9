// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// A Flag selects one bit of the processor status byte.
type Flag byte

// Bits assigned to the processor status byte
const (
	Carry            Flag = 1 << 0 // C
	Zero             Flag = 1 << 1 // Z
	InterruptDisable Flag = 1 << 2 // I
	Decimal          Flag = 1 << 3 // D
	Break            Flag = 1 << 4 // B
	Unused           Flag = 1 << 5 // always reads as 1 after reset
	Overflow         Flag = 1 << 6 // V
	Negative         Flag = 1 << 7 // N
)

// ResetStatus is the processor status byte immediately after a reset:
// InterruptDisable and Unused set, everything else clear.
const ResetStatus = byte(InterruptDisable | Unused)

// Registers contains the state of all 6502 registers.
type Registers struct {
	A  byte   // accumulator
	X  byte   // X indexing register
	Y  byte   // Y indexing register
	SP byte   // stack pointer ($100 + SP = stack memory location)
	PC uint16 // program counter
	PS byte   // processor status
}

// Init initializes all registers. A, X, Y = 0. SP = 0xff. PC = 0. PS = 0.
func (r *Registers) Init() {
	r.A = 0
	r.X = 0
	r.Y = 0
	r.SP = 0xff
	r.PC = 0
	r.PS = 0
}

// GetFlag returns true if the status flag is set.
func (r *Registers) GetFlag(f Flag) bool {
	return r.PS&byte(f) != 0
}

// SetFlag sets or clears a status flag.
func (r *Registers) SetFlag(f Flag, v bool) {
	if v {
		r.PS |= byte(f)
	} else {
		r.PS &^= byte(f)
	}
}

// Update the Zero and Negative flags based on the value of 'v'.
func (r *Registers) updateNZ(v byte) {
	r.SetFlag(Zero, v == 0)
	r.SetFlag(Negative, v&0x80 != 0)
}

// FlagString renders the status byte as "NV-BDIZC", with clear flags shown
// in lower case.
func (r *Registers) FlagString() string {
	const names = "NV-BDIZC"
	b := []byte(names)
	for i := range b {
		if b[i] == '-' {
			continue
		}
		if r.PS&(0x80>>uint(i)) == 0 {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func boolToByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
