// Copyright 2018 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host provides a monitor for a 6502 execution context and a runner
// for executing program images under an external step budget.
//
// Within the monitor it is possible to load program images into memory, step
// and run the CPU, set breakpoints, dump and modify memory, inspect the
// instruction set, and change CPU registers.
package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/beevik/cmd"
	"github.com/fatih/color"

	"github.com/beevik/sim6502/config"
	"github.com/beevik/sim6502/cpu"
	"github.com/beevik/sim6502/disasm"
	"github.com/beevik/sim6502/log"
)

var errQuit = errors.New("exiting program")

// A Host is a monitor wrapped around a single 6502 execution context with
// 64K of memory.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	cpu         *cpu.CPU
	runner      *Runner
	breakpoints *breakpoints
	lastCmd     *selection
	settings    *settings

	mu     sync.Mutex
	cancel context.CancelFunc // cancels the run in progress, if any
}

// New creates a new monitor with a freshly initialized CPU.
func New(cfg config.MonitorConfig) *Host {
	h := &Host{
		cpu:         cpu.New(),
		breakpoints: newBreakpoints(),
		settings:    newSettings(cfg),
	}
	h.runner = &Runner{
		CPU: h.cpu,
		Break: func(c *cpu.CPU) bool {
			return h.breakpoints.Hit(c.Reg.PC)
		},
	}
	return h
}

// CPU returns the execution context the monitor operates on.
func (h *Host) CPU() *cpu.CPU {
	return h.cpu
}

// RunCommands accepts monitor commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered. It returns false if
// a quit command was processed.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) bool {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
		h.displayRegisters()
	}

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			return true
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}

		var c selection
		if line != "" {
			c, err = lookup(line)
			switch {
			case errors.Is(err, cmd.ErrNotFound):
				h.println("Command not found.")
				continue
			case errors.Is(err, cmd.ErrAmbiguous):
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		} else if h.lastCmd != nil && h.interactive {
			c = *h.lastCmd
		}

		if c.Command == nil {
			// A command group was selected without a subcommand.
			if c.Group != "" {
				h.displayCommands(c.Group)
			}
			continue
		}

		command, ok := c.Command.Data.(*command)
		if !ok {
			continue
		}
		h.lastCmd = &c

		log.ModHost.WithField("cmd", command.path).Debugf("args %v", c.Args)
		if err := command.handler(h, c); err != nil {
			return !errors.Is(err, errQuit)
		}
	}
}

// Break interrupts a running CPU.
func (h *Host) Break() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
	}
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
	}
}

func (h *Host) parseAddr(s string) (uint16, error) {
	return parseExpr(s, h.settings.HexMode, h.cpu.Reg.PC)
}

func (h *Host) cmdBreakpointList(c selection) error {
	h.println("Addr  Enabled")
	h.println("----- -------")
	for _, b := range h.breakpoints.List() {
		h.printf("$%04X %v\n", b.Address, !b.Disabled)
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.breakpoints.Add(addr)
	h.printf("Breakpoint added at $%04X.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointRemove(c selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if !h.breakpoints.Remove(addr) {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}
	h.printf("Breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointEnable(c selection) error {
	return h.toggleBreakpoint(c, false)
}

func (h *Host) cmdBreakpointDisable(c selection) error {
	return h.toggleBreakpoint(c, true)
}

func (h *Host) toggleBreakpoint(c selection, disabled bool) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	b := h.breakpoints.Get(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}

	b.Disabled = disabled
	if disabled {
		h.printf("Breakpoint at $%04X disabled.\n", addr)
	} else {
		h.printf("Breakpoint at $%04X enabled.\n", addr)
	}
	return nil
}

func (h *Host) cmdDisassemble(c selection) error {
	addr := h.settings.NextDisasmAddr
	if len(c.Args) > 0 && c.Args[0] != "$" {
		a, err := h.parseAddr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	lines := h.settings.DisasmLines
	if len(c.Args) > 1 {
		n, err := parseNumber(c.Args[1], h.settings.HexMode)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(n)
	}

	h.settings.NextDisasmAddr = h.disassemble(addr, lines)
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdHelp(c selection) error {
	if len(c.Args) == 0 {
		h.displayCommands("")
		return nil
	}

	s, err := lookup(strings.Join(c.Args, " "))
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if s.Command == nil {
		h.displayCommands(s.Group)
		return nil
	}
	command, ok := s.Command.Data.(*command)
	if !ok {
		return nil
	}

	if command.usage != "" {
		h.printf("Syntax: %s\n\n", command.usage)
	}
	switch {
	case command.description != "":
		h.printf("Description:\n%s\n\n", indentWrap(3, command.description))
	case command.brief != "":
		h.printf("Description:\n%s.\n\n", indentWrap(3, command.brief))
	}
	return nil
}

func (h *Host) cmdLoad(c selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := c.Args[0]
	image, err := os.ReadFile(filename)
	if err != nil {
		h.printf("Failed to read '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	if len(image) == 0 {
		h.printf("File '%s' is empty.\n", filepath.Base(filename))
		return nil
	}

	origin := uint16(cpu.LoadAddr)
	if len(c.Args) > 1 {
		origin, err = h.parseAddr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		cpu.StoreBytes(h.cpu.Mem, origin, image)
	} else {
		h.cpu.Load(image)
	}

	h.cpu.SetPC(origin)
	h.cpu.State = cpu.Running
	h.printf("Loaded '%s' to $%04X..$%04X.\n", filepath.Base(filename),
		origin, origin+uint16(len(image)-1))
	return nil
}

func (h *Host) cmdMemoryDump(c selection) error {
	addr := h.settings.NextMemDumpAddr
	if len(c.Args) > 0 && c.Args[0] != "$" {
		a, err := h.parseAddr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	bytes := uint16(h.settings.MemDumpBytes)
	if len(c.Args) >= 2 {
		var err error
		bytes, err = parseNumber(c.Args[1], h.settings.HexMode)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	h.dumpMemory(addr, bytes)

	h.settings.NextMemDumpAddr = addr + bytes
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", bytes)}
	return nil
}

func (h *Host) cmdMemorySet(c selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	b := make([]byte, 0, len(c.Args)-1)
	for _, arg := range c.Args[1:] {
		v, err := parseByte(arg, h.settings.HexMode)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		b = append(b, v)
	}

	cpu.StoreBytes(h.cpu.Mem, addr, b)
	h.printf("Stored %d byte(s) at $%04X.\n", len(b), addr)
	return nil
}

func (h *Host) cmdOpcodes(c selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	insts := h.cpu.InstSet.GetInstructions(c.Args[0])
	if len(insts) == 0 {
		h.printf("Unknown instruction '%s'.\n", c.Args[0])
		return nil
	}

	h.println("Inst Mode Opcode Bytes Cycles")
	h.println("---- ---- ------ ----- ------")
	for _, inst := range insts {
		h.printf("%-4s %-4v $%02X    %-5d %d\n", inst.Name, inst.Mode, inst.Opcode, inst.Length, inst.Cycles)
	}
	return nil
}

func (h *Host) cmdQuit(c selection) error {
	return errQuit
}

func (h *Host) cmdRegisters(c selection) error {
	h.displayRegisters()
	return nil
}

func (h *Host) cmdReset(c selection) error {
	h.cpu.Reset()
	h.displayRegisters()
	return nil
}

func (h *Host) cmdRun(c selection) error {
	if len(c.Args) > 0 {
		pc, err := h.parseAddr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.cpu.SetPC(pc)
	}

	if h.interactive {
		h.printf("Running from $%04X. Press ctrl-C to break.\n", h.cpu.Reg.PC)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	h.runner.MaxSteps = h.settings.MaxRunSteps
	res, err := h.runner.Run(ctx)

	h.mu.Lock()
	h.cancel = nil
	h.mu.Unlock()
	cancel()

	h.reportRun(res, err)
	return nil
}

func (h *Host) reportRun(res Result, err error) {
	switch {
	case errors.Is(err, ErrStepLimit):
		h.printf("Step limit of %d reached.\n", h.settings.MaxRunSteps)
	case errors.Is(err, context.Canceled):
		h.println("Interrupted.")
	case err != nil:
		h.printf("ERROR: %v.\n", err)
	case res.Stopped:
		h.printf("Breakpoint hit at $%04X.\n", res.Reg.PC)
	case res.Halted():
		h.printf("BRK at $%04X after %d steps.\n", h.cpu.LastPC, res.Steps)
	}
	h.displayRegisters()
}

func (h *Host) cmdSet(c selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayUsage(c)

	default:
		key, value := strings.ToLower(c.Args[0]), c.Args[1]
		v, errV := h.parseAddr(value)

		// Setting a register?
		if errV == nil {
			sz := 0
			switch key {
			case "a":
				h.cpu.Reg.A, sz = byte(v), 1
			case "x":
				h.cpu.Reg.X, sz = byte(v), 1
			case "y":
				h.cpu.Reg.Y, sz = byte(v), 1
			case "sp":
				h.cpu.Reg.SP, sz = byte(v), 1
			case "ps":
				h.cpu.Reg.PS, sz = byte(v), 1
			case "pc":
				h.cpu.Reg.PC, sz = v, 2
			}

			switch sz {
			case 1:
				h.printf("Register %s set to $%02X.\n", strings.ToUpper(key), byte(v))
				return nil
			case 2:
				h.printf("Register %s set to $%04X.\n", strings.ToUpper(key), v)
				return nil
			}
		}

		// Setting a monitor setting?
		err := h.settings.Set(key, value)
		if errors.Is(err, errSettingNotFound) {
			err = fmt.Errorf("setting '%s' not found", key)
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}
	}

	return nil
}

func (h *Host) cmdStep(c selection) error {
	count := 1
	if len(c.Args) > 0 {
		n, err := parseNumber(c.Args[0], h.settings.HexMode)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		count = int(n)
	}

	for i := count - 1; i >= 0; i-- {
		if h.cpu.State == cpu.Halted {
			h.println("CPU is halted.")
			break
		}
		if err := h.cpu.Step(); err != nil {
			h.printf("ERROR: %v.\n", err)
			break
		}
		switch {
		case i == h.settings.MaxStepLines:
			h.println("...")
		case i < h.settings.MaxStepLines:
			h.displayRegisters()
		}
	}
	return nil
}

func (h *Host) displayRegisters() {
	h.println(h.registerString())
}

// Render the registers and the instruction at the program counter.
func (h *Host) registerString() string {
	paint := fmt.Sprint
	if h.settings.Color {
		paint = color.New(color.FgHiCyan).SprintFunc()
	}

	r := &h.cpu.Reg
	line, next := disasm.Disassemble(h.cpu.Mem, r.PC)
	code := make([]byte, next-r.PC)
	cpu.LoadBytes(h.cpu.Mem, r.PC, code)

	return fmt.Sprintf("%04X- %-8s  %s  A=%02X X=%02X Y=%02X PS=[%s] SP=%02X C=%d",
		r.PC, codeString(code), paint(fmt.Sprintf("%-11s", line)),
		r.A, r.X, r.Y, r.FlagString(), r.SP, h.cpu.Cycles)
}

func (h *Host) disassemble(addr uint16, lines int) uint16 {
	for i := 0; i < lines; i++ {
		line, next := disasm.Disassemble(h.cpu.Mem, addr)
		code := make([]byte, next-addr)
		cpu.LoadBytes(h.cpu.Mem, addr, code)
		h.printf("%04X- %-8s  %s\n", addr, codeString(code), line)
		addr = next
	}
	return addr
}

func (h *Host) dumpMemory(addr0, bytes uint16) {
	if bytes == 0 {
		return
	}

	addr1 := addr0 + bytes - 1
	if addr1 < addr0 {
		addr1 = 0xffff
	}

	buf := []byte("    -" + strings.Repeat(" ", 35))

	// Don't align display for short dumps.
	if addr1-addr0 < 8 {
		addrToBuf(addr0, buf[0:4])
		for a, c1, c2 := addr0, 6, 32; a <= addr1 && a >= addr0; a, c1, c2 = a+1, c1+3, c2+1 {
			m := h.cpu.Read(a, true)
			byteToBuf(m, buf[c1:c1+2])
			buf[c2] = toPrintableChar(m)
		}
		h.println(strings.TrimRight(string(buf), " "))
		return
	}

	// Align addr0 and addr1 to 8-byte boundaries.
	start := uint32(addr0) & 0xfff8
	stop := (uint32(addr1) + 8) & 0xffff8
	if stop > 0x10000 {
		stop = 0x10000
	}

	a := uint16(start)
	for r := start; r < stop; r += 8 {
		addrToBuf(a, buf[0:4])
		for c1, c2 := 6, 32; c1 < 29; c1, c2, a = c1+3, c2+1, a+1 {
			if a >= addr0 && a <= addr1 {
				m := h.cpu.Read(a, true)
				byteToBuf(m, buf[c1:c1+2])
				buf[c2] = toPrintableChar(m)
			} else {
				buf[c1] = ' '
				buf[c1+1] = ' '
				buf[c2] = ' '
			}
		}
		h.println(strings.TrimRight(string(buf), " "))
	}
}

func (h *Host) displayUsage(c selection) {
	if command, ok := c.Command.Data.(*command); ok && command.usage != "" {
		h.printf("Syntax: %s\n", command.usage)
	} else {
		h.println("<no help text>")
	}
}

// Display the brief descriptions of the commands in a group. An empty
// group selects the top-level commands.
func (h *Host) displayCommands(group string) {
	title := "Monitor"
	if group != "" {
		title = strings.ToUpper(group[:1]) + group[1:]
	}
	h.printf("%s commands:\n", title)

	seen := make(map[string]bool)
	for _, c := range commands {
		name := c.path
		if group != "" {
			rest, ok := strings.CutPrefix(c.path, group+" ")
			if !ok {
				continue
			}
			name = rest
		} else if i := strings.IndexByte(name, ' '); i >= 0 {
			name = name[:i]
			if seen[name] {
				continue
			}
			seen[name] = true
			h.printf("    %-15s  %s commands\n", name, strings.ToUpper(name[:1])+name[1:])
			continue
		}
		h.printf("    %-15s  %s\n", name, c.brief)
	}
}
