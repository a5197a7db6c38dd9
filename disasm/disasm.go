// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a 6502 instruction set
// disassembler.
package disasm

import (
	"fmt"

	"github.com/beevik/sim6502/cpu"
)

// Disassembler formatting for addressing modes
var modeFormat = []string{
	"#$%s",    // IMM
	"$%s",     // ZPG
	"$%s,X",   // ZPX
	"$%s,Y",   // ZPY
	"$%s",     // ABS
	"$%s,X",   // ABX
	"$%s,Y",   // ABY
	"($%s,X)", // IDX
	"($%s),Y", // IDY
	"",        // IMP
	"A",       // ACC
	"$%s",     // REL
	"($%s)",   // IND
}

var hex = "0123456789ABCDEF"

// Return a hexadecimal string representation of the little-endian operand
// bytes, most significant byte first.
func hexString(b []byte) string {
	hexlen := len(b) * 2
	hexbuf := make([]byte, hexlen)
	j := hexlen - 1
	for _, n := range b {
		hexbuf[j] = hex[n&0xf]
		hexbuf[j-1] = hex[n>>4]
		j -= 2
	}
	return string(hexbuf)
}

// Disassemble the machine code in memory 'm' at address 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// address that starts the following line of machine code. Memory is read
// without side effects.
func Disassemble(m cpu.Memory, addr uint16) (line string, next uint16) {
	inst := cpu.GetInstructionSet().Lookup(m.Read(addr, true))
	operand := make([]byte, inst.Length-1)
	cpu.LoadBytes(m, addr+1, operand)

	if inst.Mode == cpu.REL {
		// Convert relative offset to absolute address.
		braddr := addr + uint16(inst.Length) + uint16(int8(operand[0]))
		operand = []byte{byte(braddr), byte(braddr >> 8)}
	}

	next = addr + uint16(inst.Length)
	switch inst.Mode {
	case cpu.IMP:
		return inst.Name, next
	case cpu.ACC:
		return inst.Name + " A", next
	default:
		return inst.Name + " " + fmt.Sprintf(modeFormat[inst.Mode], hexString(operand)), next
	}
}
