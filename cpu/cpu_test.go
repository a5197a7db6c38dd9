package cpu_test

import (
	"errors"
	"testing"

	"github.com/beevik/sim6502/cpu"
	"github.com/google/go-cmp/cmp"
)

func loadCPU(t *testing.T, code []byte) *cpu.CPU {
	t.Helper()
	c := cpu.New()
	c.Load(code)
	c.Reset()
	return c
}

func stepCPU(t *testing.T, c *cpu.CPU, steps int) {
	t.Helper()
	for i := 0; i < steps; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func runCPU(t *testing.T, code []byte) *cpu.CPU {
	t.Helper()
	c := loadCPU(t, code)
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	return c
}

func expectPC(t *testing.T, c *cpu.CPU, pc uint16) {
	t.Helper()
	if c.Reg.PC != pc {
		t.Errorf("PC incorrect. exp: $%04X, got: $%04X", pc, c.Reg.PC)
	}
}

func expectCycles(t *testing.T, c *cpu.CPU, cycles uint64) {
	t.Helper()
	if c.Cycles != cycles {
		t.Errorf("Cycles incorrect. exp: %d, got: %d", cycles, c.Cycles)
	}
}

func expectACC(t *testing.T, c *cpu.CPU, acc byte) {
	t.Helper()
	if c.Reg.A != acc {
		t.Errorf("Accumulator incorrect. exp: $%02X, got: $%02X", acc, c.Reg.A)
	}
}

func expectX(t *testing.T, c *cpu.CPU, x byte) {
	t.Helper()
	if c.Reg.X != x {
		t.Errorf("X register incorrect. exp: $%02X, got: $%02X", x, c.Reg.X)
	}
}

func expectSP(t *testing.T, c *cpu.CPU, sp byte) {
	t.Helper()
	if c.Reg.SP != sp {
		t.Errorf("stack pointer incorrect. exp: %02X, got $%02X", sp, c.Reg.SP)
	}
}

func expectMem(t *testing.T, c *cpu.CPU, addr uint16, v byte) {
	t.Helper()
	got := c.Read(addr, true)
	if got != v {
		t.Errorf("Memory at $%04X incorrect. exp: $%02X, got: $%02X", addr, v, got)
	}
}

func expectFlag(t *testing.T, c *cpu.CPU, f cpu.Flag, name string, v bool) {
	t.Helper()
	if c.Reg.GetFlag(f) != v {
		t.Errorf("%s flag incorrect. exp: %v, got: %v (%s)", name, v, !v, c.Reg.FlagString())
	}
}

func TestAccumulator(t *testing.T) {
	code := []byte{
		0xa9, 0x5e,       // LDA #$5E
		0x85, 0x15,       // STA $15
		0x8d, 0x00, 0x15, // STA $1500
	}

	c := loadCPU(t, code)
	stepCPU(t, c, 3)

	expectPC(t, c, 0x8007)
	expectCycles(t, c, 9)
	expectACC(t, c, 0x5e)
	expectMem(t, c, 0x15, 0x5e)
	expectMem(t, c, 0x1500, 0x5e)
}

func TestLoadFlags(t *testing.T) {
	loads := []struct {
		name   string
		opcode byte
		reg    func(c *cpu.CPU) byte
	}{
		{"LDA", 0xa9, func(c *cpu.CPU) byte { return c.Reg.A }},
		{"LDX", 0xa2, func(c *cpu.CPU) byte { return c.Reg.X }},
		{"LDY", 0xa0, func(c *cpu.CPU) byte { return c.Reg.Y }},
	}

	for _, l := range loads {
		for i := 0; i < 256; i++ {
			v := byte(i)
			c := runCPU(t, []byte{l.opcode, v, 0x00})
			if got := l.reg(c); got != v {
				t.Fatalf("%s #$%02X loaded $%02X", l.name, v, got)
			}
			if c.Reg.GetFlag(cpu.Zero) != (v == 0) {
				t.Errorf("%s #$%02X: zero flag %v", l.name, v, c.Reg.GetFlag(cpu.Zero))
			}
			if c.Reg.GetFlag(cpu.Negative) != (v&0x80 != 0) {
				t.Errorf("%s #$%02X: negative flag %v", l.name, v, c.Reg.GetFlag(cpu.Negative))
			}
		}
	}
}

func TestADC(t *testing.T) {
	tests := []struct {
		a, operand byte
		result     byte
		carry      bool
		overflow   bool
		negative   bool
	}{
		{0x10, 0x22, 0x32, false, false, false},
		{0xf0, 0x20, 0x10, true, false, false},
		{0x50, 0x50, 0xa0, false, true, true},
		{0xd0, 0x90, 0x60, true, true, false},
		{0xff, 0x01, 0x00, true, false, false},
	}

	for _, test := range tests {
		c := runCPU(t, []byte{
			0x18,               // CLC
			0xa9, test.a,       // LDA #a
			0x69, test.operand, // ADC #operand
			0x00,
		})
		expectACC(t, c, test.result)
		expectFlag(t, c, cpu.Carry, "Carry", test.carry)
		expectFlag(t, c, cpu.Overflow, "Overflow", test.overflow)
		expectFlag(t, c, cpu.Negative, "Negative", test.negative)
		expectFlag(t, c, cpu.Zero, "Zero", test.result == 0)
	}
}

func TestADCCarryIn(t *testing.T) {
	c := runCPU(t, []byte{
		0x38,       // SEC
		0xa9, 0x10, // LDA #$10
		0x69, 0x22, // ADC #$22
		0x00,
	})
	expectACC(t, c, 0x33)
	expectFlag(t, c, cpu.Carry, "Carry", false)
}

func TestSBC(t *testing.T) {
	tests := []struct {
		carryIn    bool
		a, operand byte
		result     byte
		carry      bool
		overflow   bool
		negative   bool
	}{
		{true, 0x50, 0x20, 0x30, true, false, false},
		{false, 0x10, 0x20, 0xef, false, false, true},
		{true, 0x50, 0xb0, 0xa0, false, true, true},
		{true, 0x20, 0x20, 0x00, true, false, false},
		{false, 0x00, 0xff, 0x00, false, false, false},
	}

	for _, test := range tests {
		setCarry := byte(0x18) // CLC
		if test.carryIn {
			setCarry = 0x38 // SEC
		}
		c := runCPU(t, []byte{
			setCarry,
			0xa9, test.a,       // LDA #a
			0xe9, test.operand, // SBC #operand
			0x00,
		})
		expectACC(t, c, test.result)
		expectFlag(t, c, cpu.Carry, "Carry", test.carry)
		expectFlag(t, c, cpu.Overflow, "Overflow", test.overflow)
		expectFlag(t, c, cpu.Negative, "Negative", test.negative)
	}
}

func TestLogical(t *testing.T) {
	c := loadCPU(t, []byte{
		0xa9, 0xf0, // LDA #$F0
		0x29, 0x3c, // AND #$3C
		0x09, 0x81, // ORA #$81
		0x49, 0xb1, // EOR #$B1
	})

	stepCPU(t, c, 2)
	expectACC(t, c, 0x30)
	expectFlag(t, c, cpu.Negative, "Negative", false)

	stepCPU(t, c, 1)
	expectACC(t, c, 0xb1)
	expectFlag(t, c, cpu.Negative, "Negative", true)

	stepCPU(t, c, 1)
	expectACC(t, c, 0x00)
	expectFlag(t, c, cpu.Zero, "Zero", true)
}

func TestStack(t *testing.T) {
	code := []byte{
		0xa9, 0x11, // LDA #$11
		0x48,       // PHA
		0xa9, 0x12, // LDA #$12
		0x48,       // PHA
		0xa9, 0x13, // LDA #$13
		0x48,       // PHA

		0x68,             // PLA
		0x8d, 0x00, 0x20, // STA $2000
		0x68,             // PLA
		0x8d, 0x01, 0x20, // STA $2001
		0x68,             // PLA
		0x8d, 0x02, 0x20, // STA $2002
	}

	c := loadCPU(t, code)
	stepCPU(t, c, 6)

	expectSP(t, c, 0xfc)
	expectACC(t, c, 0x13)
	expectMem(t, c, 0x1ff, 0x11)
	expectMem(t, c, 0x1fe, 0x12)
	expectMem(t, c, 0x1fd, 0x13)

	stepCPU(t, c, 6)
	expectACC(t, c, 0x11)
	expectSP(t, c, 0xff)
	expectMem(t, c, 0x2000, 0x13)
	expectMem(t, c, 0x2001, 0x12)
	expectMem(t, c, 0x2002, 0x11)
}

func TestStatusStack(t *testing.T) {
	c := loadCPU(t, []byte{
		0x38, // SEC
		0x08, // PHP
		0x18, // CLC
		0x28, // PLP
	})

	stepCPU(t, c, 2)
	expectMem(t, c, 0x1ff, cpu.ResetStatus|byte(cpu.Carry|cpu.Break))

	stepCPU(t, c, 1)
	expectFlag(t, c, cpu.Carry, "Carry", false)

	stepCPU(t, c, 1)
	expectFlag(t, c, cpu.Carry, "Carry", true)
	expectFlag(t, c, cpu.Break, "Break", false)
	expectFlag(t, c, cpu.Unused, "Unused", true)
	expectSP(t, c, 0xff)
}

func TestIndirect(t *testing.T) {
	code := []byte{
		0xa2, 0x80,       // LDX #$80
		0xa0, 0x40,       // LDY #$40
		0xa9, 0xee,       // LDA #$EE
		0x9d, 0x00, 0x20, // STA $2000,X
		0x99, 0x00, 0x20, // STA $2000,Y

		0xa9, 0x11, // LDA #$11
		0x85, 0x06, // STA $06
		0xa9, 0x05, // LDA #$05
		0x85, 0x07, // STA $07
		0xa2, 0x01, // LDX #$01
		0xa0, 0x01, // LDY #$01
		0xa9, 0xbb, // LDA #$BB
		0x81, 0x05, // STA ($05,X)
		0x91, 0x06, // STA ($06),Y
	}

	c := loadCPU(t, code)
	stepCPU(t, c, 14)

	expectMem(t, c, 0x2080, 0xee)
	expectMem(t, c, 0x2040, 0xee)
	expectMem(t, c, 0x0511, 0xbb)
	expectMem(t, c, 0x0512, 0xbb)
}

func TestAbsoluteIndexed(t *testing.T) {
	code := []byte{
		0xa9, 0x55,       // LDA #$55
		0x8d, 0x01, 0x81, // STA $8101
		0xa9, 0x00,       // LDA #$00
		0xa2, 0xff,       // LDX #$FF
		0xbd, 0x02, 0x80, // LDA $8002,X
	}

	c := loadCPU(t, code)
	stepCPU(t, c, 5)

	expectPC(t, c, 0x800c)
	expectCycles(t, c, 14)
	expectACC(t, c, 0x55)
	expectMem(t, c, 0x8101, 0x55)
}

func TestResolve(t *testing.T) {
	c := cpu.New()
	c.Write(0x0300, 0xff)
	c.Write(0x0301, 0xff)
	c.Write(0x0302, 0xf0)
	c.Write(0x0303, 0x20)

	tests := []struct {
		mode cpu.Mode
		pc   uint16
		x, y byte
		want uint16
	}{
		{cpu.IMM, 0x0300, 0, 0, 0x0300},
		{cpu.ZPG, 0x0300, 0, 0, 0x00ff},
		{cpu.ZPX, 0x0300, 0x02, 0, 0x0001},
		{cpu.ZPY, 0x0300, 0, 0x10, 0x000f},
		{cpu.ABS, 0x0302, 0, 0, 0x20f0},
		{cpu.ABX, 0x0302, 0x20, 0, 0x2110},
		{cpu.ABY, 0x0302, 0, 0x0f, 0x20ff},
		{cpu.ABX, 0x0300, 0x01, 0, 0x0000},
		{cpu.ABY, 0x0300, 0, 0x03, 0x0002},
		{cpu.REL, 0x0300, 0, 0, 0x0300},
		{cpu.REL, 0x0302, 0, 0, 0x02f3},
	}

	for _, test := range tests {
		c.Reg.X, c.Reg.Y = test.x, test.y
		got, err := c.Resolve(test.mode, test.pc)
		if err != nil {
			t.Errorf("%v at $%04X: %v", test.mode, test.pc, err)
			continue
		}
		if got != test.want {
			t.Errorf("%v at $%04X (X=$%02X Y=$%02X): exp $%04X, got $%04X",
				test.mode, test.pc, test.x, test.y, test.want, got)
		}
	}
}

func TestResolveIndirectZeroPageWrap(t *testing.T) {
	c := cpu.New()
	c.Write(0x0400, 0xfe) // operand
	c.Write(0x00ff, 0x34)
	c.Write(0x0000, 0x12)
	c.Write(0x0100, 0x99)

	// ($FE,X) with X=1 reads the pointer from $FF and $00.
	c.Reg.X = 0x01
	addr, err := c.Resolve(cpu.IDX, 0x0400)
	if err != nil {
		t.Fatal(err)
	}
	if addr != 0x1234 {
		t.Errorf("IDX: exp $1234, got $%04X", addr)
	}

	// ($FF),Y reads the pointer from $FF and $00, then adds Y.
	c.Write(0x0400, 0xff)
	c.Reg.Y = 0x10
	addr, err = c.Resolve(cpu.IDY, 0x0400)
	if err != nil {
		t.Fatal(err)
	}
	if addr != 0x1244 {
		t.Errorf("IDY: exp $1244, got $%04X", addr)
	}
}

func TestResolveDecodeError(t *testing.T) {
	c := cpu.New()
	for _, mode := range []cpu.Mode{cpu.IMP, cpu.ACC, cpu.Mode(0xff)} {
		_, err := c.Resolve(mode, 0x8000)
		var de *cpu.DecodeError
		if !errors.As(err, &de) {
			t.Errorf("%v: expected DecodeError, got %v", mode, err)
			continue
		}
		if de.Mode != mode {
			t.Errorf("DecodeError mode: exp %v, got %v", mode, de.Mode)
		}
	}
}

func TestZeroPageIndexedWrap(t *testing.T) {
	c := runCPU(t, []byte{
		0xa2, 0x02, // LDX #$02
		0xa9, 0x77, // LDA #$77
		0x95, 0xff, // STA $FF,X
		0x00,
	})
	expectMem(t, c, 0x0001, 0x77)
	expectMem(t, c, 0x0101, 0x00)
}

func TestLoadAndRun(t *testing.T) {
	c := cpu.New()
	if err := c.LoadAndRun([]byte{0xa9, 0x42, 0x00}); err != nil {
		t.Fatal(err)
	}
	expectACC(t, c, 0x42)
	expectPC(t, c, 0x8003)
	expectCycles(t, c, 9)
	if c.State != cpu.Halted {
		t.Errorf("state: exp %v, got %v", cpu.Halted, c.State)
	}
	expectMem(t, c, 0xfffc, 0x00)
	expectMem(t, c, 0xfffd, 0x80)
}

func TestInvalidOpcode(t *testing.T) {
	c := cpu.New()
	err := c.LoadAndRun([]byte{0xff, 0xa9, 0x01})

	var ie *cpu.InvalidOpcodeError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InvalidOpcodeError, got %v", err)
	}
	if ie.Opcode != 0xff || ie.Addr != 0x8000 {
		t.Errorf("error fields: opcode $%02X addr $%04X", ie.Opcode, ie.Addr)
	}
	if err.Error() != "invalid opcode $FF at $8000" {
		t.Errorf("error message: %q", err.Error())
	}

	// No instruction beyond the invalid one may have executed.
	expectPC(t, c, 0x8001)
	expectACC(t, c, 0x00)
}

func TestHaltedStep(t *testing.T) {
	c := runCPU(t, []byte{0x00, 0xa9, 0x01})
	expectPC(t, c, 0x8001)

	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	expectPC(t, c, 0x8001)
	expectACC(t, c, 0x00)
}

func TestNOP(t *testing.T) {
	c := runCPU(t, []byte{0xea, 0xea, 0x00})
	expectPC(t, c, 0x8003)
	expectCycles(t, c, 2+2+7)
}

func TestResetIdempotent(t *testing.T) {
	c := cpu.New()
	c.Load([]byte{0xa9, 0x42, 0x00})
	c.Reg.A, c.Reg.X, c.Reg.Y = 1, 2, 3
	c.Reg.PS = 0xff
	c.Reg.SP = 0x80

	c.Reset()
	first := c.Reg
	c.Reset()
	if diff := cmp.Diff(first, c.Reg); diff != "" {
		t.Errorf("registers changed across reset (-first +second):\n%s", diff)
	}

	want := cpu.Registers{SP: 0x80, PC: 0x8000, PS: 0x24}
	if diff := cmp.Diff(want, c.Reg); diff != "" {
		t.Errorf("registers after reset (-want +got):\n%s", diff)
	}
}

func TestBranch(t *testing.T) {
	c := runCPU(t, []byte{
		0xa2, 0x03, // LDX #$03
		0xca,       // DEX
		0xd0, 0xfd, // BNE -3
		0x00,
	})
	expectX(t, c, 0x00)
	expectFlag(t, c, cpu.Zero, "Zero", true)
	expectPC(t, c, 0x8006)
}

func TestBranchNotTaken(t *testing.T) {
	c := loadCPU(t, []byte{
		0xa9, 0x01, // LDA #$01
		0xf0, 0x10, // BEQ +16
		0x30, 0x10, // BMI +16
		0x10, 0x02, // BPL +2
		0xea, 0xea,
		0x00,
	})
	stepCPU(t, c, 2)
	expectPC(t, c, 0x8004)
	stepCPU(t, c, 1)
	expectPC(t, c, 0x8006)
	stepCPU(t, c, 1)
	expectPC(t, c, 0x800a)
}

func TestBranchFlags(t *testing.T) {
	tests := []struct {
		name   string
		setup  byte // flag instruction run before the branch
		branch byte
		taken  bool
	}{
		{"BCC", 0x18, 0x90, true},
		{"BCC", 0x38, 0x90, false},
		{"BCS", 0x38, 0xb0, true},
		{"BCS", 0x18, 0xb0, false},
		{"BVC", 0xb8, 0x50, true},
		{"BVS", 0xb8, 0x70, false},
	}

	for _, test := range tests {
		c := loadCPU(t, []byte{test.setup, test.branch, 0x04})
		stepCPU(t, c, 2)
		want := uint16(0x8003)
		if test.taken {
			want = 0x8007
		}
		if c.Reg.PC != want {
			t.Errorf("%s after $%02X: exp PC $%04X, got $%04X", test.name, test.setup, want, c.Reg.PC)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		code     []byte
		carry    bool
		zero     bool
		negative bool
	}{
		{[]byte{0xa9, 0x40, 0xc9, 0x40}, true, true, false},  // CMP equal
		{[]byte{0xa9, 0x40, 0xc9, 0x41}, false, false, true}, // CMP less
		{[]byte{0xa9, 0x40, 0xc9, 0x30}, true, false, false}, // CMP greater
		{[]byte{0xa2, 0x05, 0xe0, 0x05}, true, true, false},  // CPX equal
		{[]byte{0xa0, 0x00, 0xc0, 0x01}, false, false, true}, // CPY less
	}

	for i, test := range tests {
		c := loadCPU(t, test.code)
		stepCPU(t, c, 2)
		if c.Reg.GetFlag(cpu.Carry) != test.carry ||
			c.Reg.GetFlag(cpu.Zero) != test.zero ||
			c.Reg.GetFlag(cpu.Negative) != test.negative {
			t.Errorf("compare %d: unexpected flags %s", i, c.Reg.FlagString())
		}
	}
}

func TestShiftAccumulator(t *testing.T) {
	c := loadCPU(t, []byte{
		0xa9, 0x81, // LDA #$81
		0x0a,       // ASL A
		0x2a,       // ROL A
		0x4a,       // LSR A
		0x6a,       // ROR A
	})

	stepCPU(t, c, 2)
	expectACC(t, c, 0x02)
	expectFlag(t, c, cpu.Carry, "Carry", true)

	stepCPU(t, c, 1)
	expectACC(t, c, 0x05)
	expectFlag(t, c, cpu.Carry, "Carry", false)

	stepCPU(t, c, 1)
	expectACC(t, c, 0x02)
	expectFlag(t, c, cpu.Carry, "Carry", true)

	stepCPU(t, c, 1)
	expectACC(t, c, 0x81)
	expectFlag(t, c, cpu.Carry, "Carry", false)
	expectFlag(t, c, cpu.Negative, "Negative", true)
	expectPC(t, c, 0x8006)
}

func TestShiftMemory(t *testing.T) {
	c := loadCPU(t, []byte{
		0x06, 0x10, // ASL $10
		0x46, 0x11, // LSR $11
	})
	c.Write(0x10, 0x40)
	c.Write(0x11, 0x01)

	stepCPU(t, c, 1)
	expectMem(t, c, 0x10, 0x80)
	expectFlag(t, c, cpu.Negative, "Negative", true)

	stepCPU(t, c, 1)
	expectMem(t, c, 0x11, 0x00)
	expectFlag(t, c, cpu.Zero, "Zero", true)
	expectFlag(t, c, cpu.Carry, "Carry", true)
	expectACC(t, c, 0x00)
}

func TestIncDec(t *testing.T) {
	c := loadCPU(t, []byte{
		0xe6, 0x10, // INC $10
		0xc6, 0x10, // DEC $10
		0xa2, 0xff, // LDX #$FF
		0xe8,       // INX
		0x88,       // DEY
	})
	c.Write(0x10, 0xff)

	stepCPU(t, c, 1)
	expectMem(t, c, 0x10, 0x00)
	expectFlag(t, c, cpu.Zero, "Zero", true)

	stepCPU(t, c, 1)
	expectMem(t, c, 0x10, 0xff)
	expectFlag(t, c, cpu.Negative, "Negative", true)

	stepCPU(t, c, 2)
	expectX(t, c, 0x00)
	expectFlag(t, c, cpu.Zero, "Zero", true)

	stepCPU(t, c, 1)
	if c.Reg.Y != 0xff {
		t.Errorf("Y register incorrect. exp: $FF, got: $%02X", c.Reg.Y)
	}
}

func TestTransfers(t *testing.T) {
	c := loadCPU(t, []byte{
		0xa9, 0x80, // LDA #$80
		0xaa,       // TAX
		0xa8,       // TAY
		0xa9, 0x01, // LDA #$01
		0x9a,       // TXS
		0xba,       // TSX
		0x98,       // TYA
	})

	stepCPU(t, c, 3)
	expectX(t, c, 0x80)
	expectFlag(t, c, cpu.Negative, "Negative", true)

	stepCPU(t, c, 2)
	expectSP(t, c, 0x80)
	expectFlag(t, c, cpu.Negative, "Negative", false)

	stepCPU(t, c, 2)
	expectACC(t, c, 0x80)
	expectFlag(t, c, cpu.Negative, "Negative", true)
}

func TestBit(t *testing.T) {
	c := loadCPU(t, []byte{
		0xa9, 0x01, // LDA #$01
		0x24, 0x10, // BIT $10
		0xb8,       // CLV
	})
	c.Write(0x10, 0xc0)

	stepCPU(t, c, 2)
	expectFlag(t, c, cpu.Zero, "Zero", true)
	expectFlag(t, c, cpu.Negative, "Negative", true)
	expectFlag(t, c, cpu.Overflow, "Overflow", true)
	expectACC(t, c, 0x01)

	stepCPU(t, c, 1)
	expectFlag(t, c, cpu.Overflow, "Overflow", false)
}

func TestFlagInstructions(t *testing.T) {
	c := loadCPU(t, []byte{
		0x58, // CLI
		0xf8, // SED
		0xd8, // CLD
		0x78, // SEI
	})

	stepCPU(t, c, 1)
	expectFlag(t, c, cpu.InterruptDisable, "Interrupt", false)
	stepCPU(t, c, 1)
	expectFlag(t, c, cpu.Decimal, "Decimal", true)
	stepCPU(t, c, 1)
	expectFlag(t, c, cpu.Decimal, "Decimal", false)
	stepCPU(t, c, 1)
	expectFlag(t, c, cpu.InterruptDisable, "Interrupt", true)
}

func TestSubroutine(t *testing.T) {
	c := runCPU(t, []byte{
		0x20, 0x06, 0x80, // JSR $8006
		0xa2, 0x07,       // LDX #$07
		0x00,             // BRK
		0xa9, 0x55,       // LDA #$55
		0x60,             // RTS
	})

	expectACC(t, c, 0x55)
	expectX(t, c, 0x07)
	expectSP(t, c, 0xff)
	expectPC(t, c, 0x8006)
	expectMem(t, c, 0x1ff, 0x80)
	expectMem(t, c, 0x1fe, 0x02)
}

func TestJump(t *testing.T) {
	c := loadCPU(t, []byte{
		0x4c, 0x00, 0x90, // JMP $9000
	})
	c.Write(0x9000, 0x6c) // JMP ($30FF)
	c.Write(0x9001, 0xff)
	c.Write(0x9002, 0x30)
	c.Write(0x30ff, 0x34)
	c.Write(0x3000, 0x12)
	c.Write(0x3100, 0x56)

	stepCPU(t, c, 1)
	expectPC(t, c, 0x9000)

	stepCPU(t, c, 1)
	expectPC(t, c, 0x1234)
	expectCycles(t, c, 3+5)
}

func TestJumpToOperand(t *testing.T) {
	// A jump landing on the address just past its opcode still counts as
	// a jump and does not skip the operand bytes.
	c := loadCPU(t, []byte{
		0x4c, 0x01, 0x80, // JMP $8001
	})
	stepCPU(t, c, 1)
	expectPC(t, c, 0x8001)
}

func TestInterrupts(t *testing.T) {
	c := loadCPU(t, []byte{
		0x58, // CLI
		0xea, // NOP
		0x00,
	})
	c.Write(0xfffe, 0x00)
	c.Write(0xffff, 0x90)
	c.Write(0x9000, 0x40) // RTI

	// Interrupts are disabled after reset.
	c.IRQ()
	expectPC(t, c, 0x8000)

	stepCPU(t, c, 1)
	c.IRQ()
	expectPC(t, c, 0x9000)
	expectSP(t, c, 0xfc)
	expectMem(t, c, 0x1ff, 0x80)
	expectMem(t, c, 0x1fe, 0x01)
	expectMem(t, c, 0x1fd, byte(cpu.Unused))
	expectFlag(t, c, cpu.InterruptDisable, "Interrupt", true)

	stepCPU(t, c, 1)
	expectPC(t, c, 0x8001)
	expectSP(t, c, 0xff)
	expectFlag(t, c, cpu.InterruptDisable, "Interrupt", false)
}

func TestNMI(t *testing.T) {
	c := loadCPU(t, []byte{0xea})
	c.Write(0xfffa, 0x00)
	c.Write(0xfffb, 0xa0)

	c.NMI()
	expectPC(t, c, 0xa000)
	expectSP(t, c, 0xfc)
}

func TestFlatMemoryBounds(t *testing.T) {
	m := cpu.NewFlatMemorySize(0x100)
	if m.Size() != 0x100 {
		t.Fatalf("size: exp $100, got $%X", m.Size())
	}

	m.Write(0x00ff, 0x12)
	m.Write(0x0100, 0x34)
	if got := m.Read(0x00ff, false); got != 0x12 {
		t.Errorf("read $00FF: exp $12, got $%02X", got)
	}
	if got := m.Read(0x0100, false); got != 0 {
		t.Errorf("read $0100: exp $00, got $%02X", got)
	}

	// A CPU fetching outside its memory sees BRK bytes and halts.
	c := cpu.NewCPU(m)
	c.SetPC(0x4000)
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	expectPC(t, c, 0x4001)

	if cpu.NewFlatMemory().Size() != cpu.MemorySize {
		t.Errorf("default memory is not 64K")
	}
}

func TestBytes(t *testing.T) {
	m := cpu.NewFlatMemory()
	cpu.StoreBytes(m, 0xfffe, []byte{1, 2, 3, 4})

	got := make([]byte, 4)
	cpu.LoadBytes(m, 0xfffe, got)
	if diff := cmp.Diff([]byte{1, 2, 3, 4}, got); diff != "" {
		t.Errorf("bytes mismatch (-want +got):\n%s", diff)
	}
	if m.Read(0x0001, true) != 4 {
		t.Errorf("store did not wrap")
	}
}

func TestInstructionSet(t *testing.T) {
	set := cpu.GetInstructionSet()

	operandLen := map[cpu.Mode]byte{
		cpu.IMP: 1, cpu.ACC: 1,
		cpu.IMM: 2, cpu.ZPG: 2, cpu.ZPX: 2, cpu.ZPY: 2,
		cpu.IDX: 2, cpu.IDY: 2, cpu.REL: 2,
		cpu.ABS: 3, cpu.ABX: 3, cpu.ABY: 3, cpu.IND: 3,
	}

	valid := 0
	for i := 0; i < 256; i++ {
		inst := set.Lookup(byte(i))
		if inst.Opcode != byte(i) {
			t.Errorf("opcode $%02X stored as $%02X", i, inst.Opcode)
		}
		if !inst.Valid() {
			continue
		}
		valid++
		if inst.Length != operandLen[inst.Mode] {
			t.Errorf("%s %v ($%02X): length %d", inst.Name, inst.Mode, i, inst.Length)
		}
		if inst.Cycles == 0 {
			t.Errorf("%s %v ($%02X): no cycles", inst.Name, inst.Mode, i)
		}
	}
	if valid != 151 {
		t.Errorf("valid opcodes: exp 151, got %d", valid)
	}

	if n := len(set.GetInstructions("lda")); n != 8 {
		t.Errorf("LDA variants: exp 8, got %d", n)
	}
	if set.Lookup(0xff).Valid() {
		t.Errorf("opcode $FF should be unused")
	}
}
