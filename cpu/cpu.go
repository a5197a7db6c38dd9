// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu implements a 6502 CPU instruction
// set and interpreter.
package cpu

import (
	"fmt"

	"github.com/beevik/sim6502/log"
)

// State describes whether the CPU is executing instructions.
type State byte

const (
	// Running is the state of a CPU between instructions.
	Running State = iota

	// Halted is the terminal state entered when a BRK is fetched.
	Halted
)

func (s State) String() string {
	if s == Halted {
		return "halted"
	}
	return "running"
}

// CPU represents a single 6502 execution context. It owns the registers and
// the memory the CPU runs against.
type CPU struct {
	Reg     Registers       // CPU registers
	Mem     Memory          // assigned memory
	State   State           // execution state
	Cycles  uint64          // approximate number of executed CPU cycles
	LastPC  uint16          // address of the most recently fetched opcode
	InstSet *InstructionSet // instruction set used by the CPU
	jumped  bool            // set by instructions that transfer control
}

// Interrupt vectors
const (
	vectorNMI   = 0xfffa
	vectorReset = 0xfffc
	vectorIRQ   = 0xfffe
)

// LoadAddr is the address Load copies a program image to.
const LoadAddr = 0x8000

// NewCPU creates an emulated 6502 CPU bound to the specified memory.
func NewCPU(m Memory) *CPU {
	cpu := &CPU{
		Mem:     m,
		InstSet: GetInstructionSet(),
	}

	cpu.Reg.Init()
	return cpu
}

// New creates an emulated 6502 CPU with its own zero-filled 64K memory.
func New() *CPU {
	return NewCPU(NewFlatMemory())
}

// SetPC updates the CPU program counter to 'addr'.
func (cpu *CPU) SetPC(addr uint16) {
	cpu.Reg.PC = addr
}

// Read loads a byte from the CPU's memory.
func (cpu *CPU) Read(addr uint16, readOnly bool) byte {
	return cpu.Mem.Read(addr, readOnly)
}

// Write stores a byte to the CPU's memory.
func (cpu *CPU) Write(addr uint16, v byte) {
	cpu.Mem.Write(addr, v)
}

// Load copies the program image to LoadAddr and points the reset vector
// at it.
func (cpu *CPU) Load(program []byte) {
	StoreBytes(cpu.Mem, LoadAddr, program)
	writeWord(cpu.Mem, vectorReset, LoadAddr)
}

// Reset clears the accumulator and index registers, sets the processor
// status to its post-reset value and loads the program counter from the
// reset vector. The stack pointer is left alone.
func (cpu *CPU) Reset() {
	cpu.Reg.A = 0
	cpu.Reg.X = 0
	cpu.Reg.Y = 0
	cpu.Reg.PS = ResetStatus
	cpu.Reg.PC = readWord(cpu.Mem, vectorReset)
	cpu.State = Running
}

// LoadAndRun loads the program image, resets the CPU and runs it until it
// halts or fails.
func (cpu *CPU) LoadAndRun(program []byte) error {
	cpu.Load(program)
	cpu.Reset()
	return cpu.Run()
}

// Run steps the CPU until a BRK instruction halts it or an error occurs.
func (cpu *CPU) Run() error {
	cpu.State = Running
	for cpu.State == Running {
		if err := cpu.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step the cpu by one instruction. A BRK opcode moves the CPU to the Halted
// state. Stepping a halted CPU does nothing.
func (cpu *CPU) Step() error {
	if cpu.State == Halted {
		return nil
	}

	// Grab the next opcode at the current PC and look it up.
	cpu.LastPC = cpu.Reg.PC
	opcode := cpu.Mem.Read(cpu.Reg.PC, false)
	cpu.Reg.PC++
	inst := cpu.InstSet.Lookup(opcode)

	if log.ModCPU.Enabled(log.DebugLevel) {
		log.ModCPU.WithField("pc", fmt.Sprintf("$%04X", cpu.LastPC)).
			Debugf("%s %v", inst.Name, inst.Mode)
	}

	switch inst.sym {
	case symUnused:
		return &InvalidOpcodeError{Opcode: opcode, Addr: cpu.LastPC}
	case symNOP:
		cpu.Cycles += uint64(inst.Cycles)
		return nil
	case symBRK:
		cpu.Cycles += uint64(inst.Cycles)
		cpu.State = Halted
		return nil
	}

	// Execute the instruction with PC pointing at its operand. Unless the
	// instruction transferred control, skip the operand afterwards.
	cpu.jumped = false
	if err := cpu.execute(inst); err != nil {
		return err
	}
	if !cpu.jumped {
		cpu.Reg.PC += uint16(inst.Length) - 1
	}

	cpu.Cycles += uint64(inst.Cycles)
	return nil
}

// Resolve computes the effective address for the addressing mode, reading
// the operand from memory at 'pc'. It does not modify the program counter.
func (cpu *CPU) Resolve(mode Mode, pc uint16) (uint16, error) {
	switch mode {
	case IMM:
		return pc, nil
	case ZPG:
		return uint16(cpu.Mem.Read(pc, false)), nil
	case ZPX:
		return uint16(cpu.Mem.Read(pc, false) + cpu.Reg.X), nil
	case ZPY:
		return uint16(cpu.Mem.Read(pc, false) + cpu.Reg.Y), nil
	case ABS:
		return readWord(cpu.Mem, pc), nil
	case ABX:
		return readWord(cpu.Mem, pc) + uint16(cpu.Reg.X), nil
	case ABY:
		return readWord(cpu.Mem, pc) + uint16(cpu.Reg.Y), nil
	case IDX:
		base := uint16(cpu.Mem.Read(pc, false)) + uint16(cpu.Reg.X)
		lo := cpu.Mem.Read(base&0xff, false)
		hi := cpu.Mem.Read((base+1)&0xff, false)
		return uint16(lo) | uint16(hi)<<8, nil
	case IDY:
		base := uint16(cpu.Mem.Read(pc, false))
		lo := cpu.Mem.Read(base, false)
		hi := cpu.Mem.Read((base+1)&0xff, false)
		return (uint16(lo) | uint16(hi)<<8) + uint16(cpu.Reg.Y), nil
	case REL:
		offset := int8(cpu.Mem.Read(pc, false))
		return pc + 1 + uint16(offset), nil
	case IND:
		// The NMOS 6502 does not carry into the high byte of the pointer,
		// so JMP ($12FF) reads its target from $12FF and $1200.
		ptr := readWord(cpu.Mem, pc)
		lo := cpu.Mem.Read(ptr, false)
		hi := cpu.Mem.Read(ptr&0xff00|(ptr+1)&0x00ff, false)
		return uint16(lo) | uint16(hi)<<8, nil
	default:
		return 0, &DecodeError{Mode: mode}
	}
}

// Load a byte value using the requested addressing mode and the operand at
// the current program counter.
func (cpu *CPU) load(mode Mode) (byte, error) {
	if mode == ACC {
		return cpu.Reg.A, nil
	}
	addr, err := cpu.Resolve(mode, cpu.Reg.PC)
	if err != nil {
		return 0, err
	}
	return cpu.Mem.Read(addr, false), nil
}

// Store a byte value using the requested addressing mode and the operand at
// the current program counter.
func (cpu *CPU) store(mode Mode, v byte) error {
	if mode == ACC {
		cpu.Reg.A = v
		return nil
	}
	addr, err := cpu.Resolve(mode, cpu.Reg.PC)
	if err != nil {
		return err
	}
	cpu.Mem.Write(addr, v)
	return nil
}

// Transfer control to 'addr'.
func (cpu *CPU) jump(addr uint16) {
	cpu.Reg.PC = addr
	cpu.jumped = true
}

// Push a value 'v' onto the stack.
func (cpu *CPU) push(v byte) {
	cpu.Mem.Write(stackAddress(cpu.Reg.SP), v)
	cpu.Reg.SP--
}

// Push the address 'addr' onto the stack.
func (cpu *CPU) pushAddress(addr uint16) {
	cpu.push(byte(addr >> 8))
	cpu.push(byte(addr))
}

// Pop a value from the stack and return it.
func (cpu *CPU) pop() byte {
	cpu.Reg.SP++
	return cpu.Mem.Read(stackAddress(cpu.Reg.SP), false)
}

// Pop a 16-bit address off the stack.
func (cpu *CPU) popAddress() uint16 {
	lo := cpu.pop()
	hi := cpu.pop()
	return uint16(lo) | uint16(hi)<<8
}

// Restore the status register from a byte pulled off the stack. The break
// bit does not exist in the register and the unused bit always reads as 1.
func (cpu *CPU) restorePS(v byte) {
	cpu.Reg.PS = v&^byte(Break) | byte(Unused)
}

// Handle an interrupt by storing the program counter and status flags on
// the stack. Then switch the program counter to the requested vector.
func (cpu *CPU) handleInterrupt(vector uint16) {
	cpu.pushAddress(cpu.Reg.PC)
	cpu.push(cpu.Reg.PS&^byte(Break) | byte(Unused))
	cpu.Reg.SetFlag(InterruptDisable, true)
	cpu.Reg.PC = readWord(cpu.Mem, vector)
	cpu.State = Running
}

// IRQ raises a maskable interrupt request. It is ignored while the
// InterruptDisable flag is set. The execution loop never raises it on
// its own.
func (cpu *CPU) IRQ() {
	if !cpu.Reg.GetFlag(InterruptDisable) {
		cpu.handleInterrupt(vectorIRQ)
	}
}

// NMI raises a non-maskable interrupt.
func (cpu *CPU) NMI() {
	cpu.handleInterrupt(vectorNMI)
}

// Execute the instruction's operation.
func (cpu *CPU) execute(inst *Instruction) error {
	switch inst.sym {
	case symADC:
		return cpu.adc(inst)
	case symAND:
		return cpu.and(inst)
	case symASL:
		return cpu.asl(inst)
	case symBCC:
		return cpu.branchIf(inst, !cpu.Reg.GetFlag(Carry))
	case symBCS:
		return cpu.branchIf(inst, cpu.Reg.GetFlag(Carry))
	case symBEQ:
		return cpu.branchIf(inst, cpu.Reg.GetFlag(Zero))
	case symBIT:
		return cpu.bit(inst)
	case symBMI:
		return cpu.branchIf(inst, cpu.Reg.GetFlag(Negative))
	case symBNE:
		return cpu.branchIf(inst, !cpu.Reg.GetFlag(Zero))
	case symBPL:
		return cpu.branchIf(inst, !cpu.Reg.GetFlag(Negative))
	case symBVC:
		return cpu.branchIf(inst, !cpu.Reg.GetFlag(Overflow))
	case symBVS:
		return cpu.branchIf(inst, cpu.Reg.GetFlag(Overflow))
	case symCLC:
		cpu.Reg.SetFlag(Carry, false)
	case symCLD:
		cpu.Reg.SetFlag(Decimal, false)
	case symCLI:
		cpu.Reg.SetFlag(InterruptDisable, false)
	case symCLV:
		cpu.Reg.SetFlag(Overflow, false)
	case symCMP:
		return cpu.compare(inst, cpu.Reg.A)
	case symCPX:
		return cpu.compare(inst, cpu.Reg.X)
	case symCPY:
		return cpu.compare(inst, cpu.Reg.Y)
	case symDEC:
		return cpu.dec(inst)
	case symDEX:
		cpu.Reg.X--
		cpu.Reg.updateNZ(cpu.Reg.X)
	case symDEY:
		cpu.Reg.Y--
		cpu.Reg.updateNZ(cpu.Reg.Y)
	case symEOR:
		return cpu.eor(inst)
	case symINC:
		return cpu.inc(inst)
	case symINX:
		cpu.Reg.X++
		cpu.Reg.updateNZ(cpu.Reg.X)
	case symINY:
		cpu.Reg.Y++
		cpu.Reg.updateNZ(cpu.Reg.Y)
	case symJMP:
		return cpu.jmp(inst)
	case symJSR:
		return cpu.jsr(inst)
	case symLDA:
		return cpu.lda(inst)
	case symLDX:
		return cpu.ldx(inst)
	case symLDY:
		return cpu.ldy(inst)
	case symLSR:
		return cpu.lsr(inst)
	case symORA:
		return cpu.ora(inst)
	case symPHA:
		cpu.push(cpu.Reg.A)
	case symPHP:
		cpu.push(cpu.Reg.PS | byte(Break) | byte(Unused))
	case symPLA:
		cpu.Reg.A = cpu.pop()
		cpu.Reg.updateNZ(cpu.Reg.A)
	case symPLP:
		cpu.restorePS(cpu.pop())
	case symROL:
		return cpu.rol(inst)
	case symROR:
		return cpu.ror(inst)
	case symRTI:
		cpu.restorePS(cpu.pop())
		cpu.jump(cpu.popAddress())
	case symRTS:
		cpu.jump(cpu.popAddress() + 1)
	case symSBC:
		return cpu.sbc(inst)
	case symSEC:
		cpu.Reg.SetFlag(Carry, true)
	case symSED:
		cpu.Reg.SetFlag(Decimal, true)
	case symSEI:
		cpu.Reg.SetFlag(InterruptDisable, true)
	case symSTA:
		return cpu.store(inst.Mode, cpu.Reg.A)
	case symSTX:
		return cpu.store(inst.Mode, cpu.Reg.X)
	case symSTY:
		return cpu.store(inst.Mode, cpu.Reg.Y)
	case symTAX:
		cpu.Reg.X = cpu.Reg.A
		cpu.Reg.updateNZ(cpu.Reg.X)
	case symTAY:
		cpu.Reg.Y = cpu.Reg.A
		cpu.Reg.updateNZ(cpu.Reg.Y)
	case symTSX:
		cpu.Reg.X = cpu.Reg.SP
		cpu.Reg.updateNZ(cpu.Reg.X)
	case symTXA:
		cpu.Reg.A = cpu.Reg.X
		cpu.Reg.updateNZ(cpu.Reg.A)
	case symTXS:
		cpu.Reg.SP = cpu.Reg.X
	case symTYA:
		cpu.Reg.A = cpu.Reg.Y
		cpu.Reg.updateNZ(cpu.Reg.A)
	default:
		// NOP, BRK and unused opcodes never reach here.
		panic(fmt.Sprintf("no operation for %s", inst.Name))
	}
	return nil
}

// Add with carry. Decimal mode is ignored.
func (cpu *CPU) adc(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	acc := cpu.Reg.A
	sum := uint16(acc) + uint16(v) + uint16(boolToByte(cpu.Reg.GetFlag(Carry)))
	result := byte(sum)

	cpu.Reg.A = result
	cpu.Reg.updateNZ(result)
	cpu.Reg.SetFlag(Carry, sum > 0xff)
	cpu.Reg.SetFlag(Overflow, ^(acc^v)&(acc^result)&0x80 != 0)
	return nil
}

// Subtract with carry. The carry flag is the inverse of the borrow.
func (cpu *CPU) sbc(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	acc := cpu.Reg.A
	borrow := 1 - uint16(boolToByte(cpu.Reg.GetFlag(Carry)))
	result := byte(uint16(acc) - uint16(v) - borrow)

	cpu.Reg.A = result
	cpu.Reg.updateNZ(result)
	cpu.Reg.SetFlag(Carry, uint16(acc) >= uint16(v)+borrow)
	cpu.Reg.SetFlag(Overflow, (acc^result)&(acc^v)&0x80 != 0)
	return nil
}

// Boolean AND
func (cpu *CPU) and(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	cpu.Reg.A &= v
	cpu.Reg.updateNZ(cpu.Reg.A)
	return nil
}

// Boolean OR
func (cpu *CPU) ora(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	cpu.Reg.A |= v
	cpu.Reg.updateNZ(cpu.Reg.A)
	return nil
}

// Boolean XOR
func (cpu *CPU) eor(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	cpu.Reg.A ^= v
	cpu.Reg.updateNZ(cpu.Reg.A)
	return nil
}

// Load the accumulator
func (cpu *CPU) lda(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	cpu.Reg.A = v
	cpu.Reg.updateNZ(v)
	return nil
}

// Load the X register
func (cpu *CPU) ldx(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	cpu.Reg.X = v
	cpu.Reg.updateNZ(v)
	return nil
}

// Load the Y register
func (cpu *CPU) ldy(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	cpu.Reg.Y = v
	cpu.Reg.updateNZ(v)
	return nil
}

// Increment memory value
func (cpu *CPU) inc(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	v++
	cpu.Reg.updateNZ(v)
	return cpu.store(inst.Mode, v)
}

// Decrement memory value
func (cpu *CPU) dec(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	v--
	cpu.Reg.updateNZ(v)
	return cpu.store(inst.Mode, v)
}

// Compare a register to memory
func (cpu *CPU) compare(inst *Instruction, reg byte) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	cpu.Reg.SetFlag(Carry, reg >= v)
	cpu.Reg.updateNZ(reg - v)
	return nil
}

// Bit test
func (cpu *CPU) bit(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	cpu.Reg.SetFlag(Zero, v&cpu.Reg.A == 0)
	cpu.Reg.SetFlag(Negative, v&0x80 != 0)
	cpu.Reg.SetFlag(Overflow, v&0x40 != 0)
	return nil
}

// Arithmetic shift left
func (cpu *CPU) asl(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	cpu.Reg.SetFlag(Carry, v&0x80 != 0)
	v <<= 1
	cpu.Reg.updateNZ(v)
	return cpu.store(inst.Mode, v)
}

// Logical shift right
func (cpu *CPU) lsr(inst *Instruction) error {
	v, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	cpu.Reg.SetFlag(Carry, v&1 != 0)
	v >>= 1
	cpu.Reg.updateNZ(v)
	return cpu.store(inst.Mode, v)
}

// Rotate left
func (cpu *CPU) rol(inst *Instruction) error {
	tmp, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	v := tmp<<1 | boolToByte(cpu.Reg.GetFlag(Carry))
	cpu.Reg.SetFlag(Carry, tmp&0x80 != 0)
	cpu.Reg.updateNZ(v)
	return cpu.store(inst.Mode, v)
}

// Rotate right
func (cpu *CPU) ror(inst *Instruction) error {
	tmp, err := cpu.load(inst.Mode)
	if err != nil {
		return err
	}
	v := tmp>>1 | boolToByte(cpu.Reg.GetFlag(Carry))<<7
	cpu.Reg.SetFlag(Carry, tmp&1 != 0)
	cpu.Reg.updateNZ(v)
	return cpu.store(inst.Mode, v)
}

// Branch to the relative target if 'cond' holds.
func (cpu *CPU) branchIf(inst *Instruction, cond bool) error {
	if !cond {
		return nil
	}
	addr, err := cpu.Resolve(inst.Mode, cpu.Reg.PC)
	if err != nil {
		return err
	}
	cpu.jump(addr)
	return nil
}

// Jump to memory address
func (cpu *CPU) jmp(inst *Instruction) error {
	addr, err := cpu.Resolve(inst.Mode, cpu.Reg.PC)
	if err != nil {
		return err
	}
	cpu.jump(addr)
	return nil
}

// Jump to subroutine. The return address pushed is that of the last byte
// of the JSR instruction.
func (cpu *CPU) jsr(inst *Instruction) error {
	addr, err := cpu.Resolve(inst.Mode, cpu.Reg.PC)
	if err != nil {
		return err
	}
	cpu.pushAddress(cpu.Reg.PC + uint16(inst.Length) - 2)
	cpu.jump(addr)
	return nil
}
