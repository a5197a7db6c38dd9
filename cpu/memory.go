// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "github.com/beevik/sim6502/log"

// The Memory interface presents an interface to the CPU through which all
// memory accesses occur.
type Memory interface {
	// Read loads a single byte from the address and returns it. A read-only
	// access inspects memory without the side effects a real bus access
	// might have.
	Read(addr uint16, readOnly bool) byte

	// Write stores a byte to the requested address.
	Write(addr uint16, v byte)
}

// MemorySize is the size of the 6502 address space.
const MemorySize = 64 * 1024

// FlatMemory represents the 16-bit address space as a single zero-filled
// buffer. Accesses outside the buffer are ignored: reads return zero and
// writes are dropped.
type FlatMemory struct {
	b []byte
}

// NewFlatMemory creates a new memory covering the full 16-bit address space.
func NewFlatMemory() *FlatMemory {
	return NewFlatMemorySize(MemorySize)
}

// NewFlatMemorySize creates a memory whose backing store holds only 'size'
// bytes, starting at address $0000.
func NewFlatMemorySize(size int) *FlatMemory {
	if size < 0 || size > MemorySize {
		size = MemorySize
	}
	return &FlatMemory{b: make([]byte, size)}
}

// Size returns the number of bytes in the backing store.
func (m *FlatMemory) Size() int {
	return len(m.b)
}

// Read loads a single byte from the address and returns it.
func (m *FlatMemory) Read(addr uint16, readOnly bool) byte {
	if int(addr) >= len(m.b) {
		log.ModMem.Debugf("read out of bounds at $%04X", addr)
		return 0
	}
	return m.b[addr]
}

// Write stores a byte at the requested address.
func (m *FlatMemory) Write(addr uint16, v byte) {
	if int(addr) >= len(m.b) {
		log.ModMem.Debugf("write $%02X out of bounds at $%04X", v, addr)
		return
	}
	m.b[addr] = v
}

// LoadBytes loads len(b) bytes starting at addr into b. The address wraps
// at the end of the address space.
func LoadBytes(m Memory, addr uint16, b []byte) {
	for i := range b {
		b[i] = m.Read(addr+uint16(i), true)
	}
}

// StoreBytes stores the contents of b starting at addr. The address wraps
// at the end of the address space.
func StoreBytes(m Memory, addr uint16, b []byte) {
	for i, v := range b {
		m.Write(addr+uint16(i), v)
	}
}

// Load a little-endian 16-bit value from addr and addr+1.
func readWord(m Memory, addr uint16) uint16 {
	lo := m.Read(addr, false)
	hi := m.Read(addr+1, false)
	return uint16(lo) | uint16(hi)<<8
}

// Store a little-endian 16-bit value to addr and addr+1.
func writeWord(m Memory, addr uint16, v uint16) {
	m.Write(addr, byte(v))
	m.Write(addr+1, byte(v>>8))
}

// Given a 1-byte stack pointer register, return the corresponding stack
// memory address.
func stackAddress(offset byte) uint16 {
	return uint16(0x100) + uint16(offset)
}
