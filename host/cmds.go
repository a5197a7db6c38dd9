package host

import (
	"strings"

	"github.com/beevik/cmd"
)

// A command describes a monitor command and the host callback that
// handles it.
type command struct {
	path        string // full command path, e.g. "breakpoint add"
	brief       string
	description string
	usage       string
	handler     func(*Host, selection) error
}

// A selection is a resolved monitor command and its arguments.
type selection struct {
	Command *cmd.Command
	Group   string // command group named without a subcommand
	Args    []string
}

// Resolve a command line. A line naming only a command group yields a
// selection with a nil Command and the group's name.
func lookup(line string) (selection, error) {
	n, args, err := cmds.Lookup(line)
	if err != nil {
		return selection{}, err
	}
	switch n := n.(type) {
	case *cmd.Command:
		return selection{Command: n, Args: args}, nil
	case *cmd.Tree:
		return selection{Group: groups[n], Args: args}, nil
	}
	return selection{Args: args}, nil
}

var (
	cmds     *cmd.Tree
	groups   = make(map[*cmd.Tree]string)
	commands []*command // all commands in registration order
)

// Register a command for help display and return its tree descriptor.
func describe(c *command) cmd.CommandDescriptor {
	commands = append(commands, c)
	name := c.path
	if i := strings.LastIndexByte(name, ' '); i >= 0 {
		name = name[i+1:]
	}
	return cmd.CommandDescriptor{
		Name:        name,
		Brief:       c.brief,
		Description: c.description,
		Usage:       c.usage,
		Data:        c,
	}
}

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "sim6502"})
	root.AddCommand(describe(&command{
		path:        "help",
		brief:       "Display help for a command",
		description: "Display help for a command.",
		usage:       "help [<command>]",
		handler:     (*Host).cmdHelp,
	}))

	// Breakpoint commands
	bp := root.AddSubtree(cmd.TreeDescriptor{Name: "breakpoint", Brief: "Breakpoint commands"})
	groups[bp] = "breakpoint"
	bp.AddCommand(describe(&command{
		path:        "breakpoint list",
		brief:       "List breakpoints",
		description: "List all current breakpoints.",
		usage:       "breakpoint list",
		handler:     (*Host).cmdBreakpointList,
	}))
	bp.AddCommand(describe(&command{
		path:  "breakpoint add",
		brief: "Add a breakpoint",
		description: "Add a breakpoint at the specified address." +
			" The breakpoint starts enabled.",
		usage:   "breakpoint add <address>",
		handler: (*Host).cmdBreakpointAdd,
	}))
	bp.AddCommand(describe(&command{
		path:        "breakpoint remove",
		brief:       "Remove a breakpoint",
		description: "Remove a breakpoint at the specified address.",
		usage:       "breakpoint remove <address>",
		handler:     (*Host).cmdBreakpointRemove,
	}))
	bp.AddCommand(describe(&command{
		path:        "breakpoint enable",
		brief:       "Enable a breakpoint",
		description: "Enable a previously added breakpoint.",
		usage:       "breakpoint enable <address>",
		handler:     (*Host).cmdBreakpointEnable,
	}))
	bp.AddCommand(describe(&command{
		path:  "breakpoint disable",
		brief: "Disable a breakpoint",
		description: "Disable a previously added breakpoint. This" +
			" prevents the breakpoint from being hit when running the" +
			" CPU.",
		usage:   "breakpoint disable <address>",
		handler: (*Host).cmdBreakpointDisable,
	}))

	root.AddCommand(describe(&command{
		path:  "disassemble",
		brief: "Disassemble code",
		description: "Disassemble machine code starting at the requested" +
			" address. The number of instruction lines to disassemble may be" +
			" specified as an option. If no address is specified, the" +
			" disassembly continues from where the last disassembly left off.",
		usage:   "disassemble [<address>] [<lines>]",
		handler: (*Host).cmdDisassemble,
	}))
	root.AddCommand(describe(&command{
		path:  "load",
		brief: "Load a program image",
		description: "Load the contents of a raw binary file into memory." +
			" Without an address, the image is stored at $8000 and the" +
			" reset vector is pointed at it. The program counter is set" +
			" to the load address.",
		usage:   "load <filename> [<address>]",
		handler: (*Host).cmdLoad,
	}))

	// Memory commands
	me := root.AddSubtree(cmd.TreeDescriptor{Name: "memory", Brief: "Memory commands"})
	groups[me] = "memory"
	me.AddCommand(describe(&command{
		path:  "memory dump",
		brief: "Dump memory at address",
		description: "Dump the contents of memory starting from the" +
			" specified address. The number of bytes to dump may be" +
			" specified as an option. If no address is specified, the" +
			" memory dump continues from where the last dump left off.",
		usage:   "memory dump [<address>] [<bytes>]",
		handler: (*Host).cmdMemoryDump,
	}))
	me.AddCommand(describe(&command{
		path:  "memory set",
		brief: "Set memory at address",
		description: "Set the contents of memory starting from the specified" +
			" address. The values to assign should be a series of" +
			" space-separated byte values.",
		usage:   "memory set <address> <byte> [<byte> ...]",
		handler: (*Host).cmdMemorySet,
	}))

	root.AddCommand(describe(&command{
		path:  "opcodes",
		brief: "List the opcodes of an instruction",
		description: "Display every addressing mode variant of an" +
			" instruction, with its opcode, length and base cycle count.",
		usage:   "opcodes <mnemonic>",
		handler: (*Host).cmdOpcodes,
	}))
	root.AddCommand(describe(&command{
		path:        "quit",
		brief:       "Quit the program",
		description: "Quit the program.",
		usage:       "quit",
		handler:     (*Host).cmdQuit,
	}))
	root.AddCommand(describe(&command{
		path:  "registers",
		brief: "Display register contents",
		description: "Display the current contents of all CPU registers," +
			" and the instruction at the current program counter address.",
		usage:   "registers",
		handler: (*Host).cmdRegisters,
	}))
	root.AddCommand(describe(&command{
		path:  "reset",
		brief: "Reset the CPU",
		description: "Clear the accumulator and index registers, reset" +
			" the status flags and load the program counter from the" +
			" reset vector at $FFFC.",
		usage:   "reset",
		handler: (*Host).cmdReset,
	}))
	root.AddCommand(describe(&command{
		path:  "run",
		brief: "Run the CPU",
		description: "Run the CPU until it executes a BRK, hits a" +
			" breakpoint, fails, exhausts the MaxRunSteps budget, or the" +
			" user types Ctrl-C. If an address is given, execution starts" +
			" there.",
		usage:   "run [<address>]",
		handler: (*Host).cmdRun,
	}))
	root.AddCommand(describe(&command{
		path:  "set",
		brief: "Set a configuration variable",
		description: "Set the value of a configuration variable. To see the" +
			" current values of all configuration variables, type set" +
			" without any arguments. Register names A, X, Y, SP and PC" +
			" may also be set.",
		usage:   "set [<var> <value>]",
		handler: (*Host).cmdSet,
	}))
	root.AddCommand(describe(&command{
		path:  "step",
		brief: "Step the CPU",
		description: "Step the CPU by a single instruction. The number of" +
			" steps may be specified as an option.",
		usage:   "step [<count>]",
		handler: (*Host).cmdStep,
	}))

	// Add command shortcuts.
	root.AddShortcut("b", "breakpoint")
	root.AddShortcut("bp", "breakpoint")
	root.AddShortcut("ba", "breakpoint add")
	root.AddShortcut("br", "breakpoint remove")
	root.AddShortcut("bl", "breakpoint list")
	root.AddShortcut("be", "breakpoint enable")
	root.AddShortcut("bd", "breakpoint disable")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("m", "memory dump")
	root.AddShortcut("ms", "memory set")
	root.AddShortcut("r", "registers")
	root.AddShortcut("s", "step")
	root.AddShortcut("?", "help")
	root.AddShortcut(".", "registers")

	cmds = root
}
