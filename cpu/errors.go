// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "fmt"

// A DecodeError is returned when an operand address is requested for an
// addressing mode the resolver does not handle. It indicates a broken
// instruction table rather than bad program data.
type DecodeError struct {
	Mode Mode
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unsupported addressing mode %v", e.Mode)
}

// An InvalidOpcodeError is returned when the CPU fetches an opcode that has
// no instruction assigned to it.
type InvalidOpcodeError struct {
	Opcode byte   // offending opcode
	Addr   uint16 // address the opcode was fetched from
}

func (e *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("invalid opcode $%02X at $%04X", e.Opcode, e.Addr)
}
