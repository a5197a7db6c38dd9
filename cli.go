package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/beevik/sim6502/log"
)

type mode byte

const (
	monitorMode mode = iota // Start the interactive monitor
	runMode                 // Run program images to completion
	versionMode             // Show sim6502 version
)

type (
	CLI struct {
		Monitor Monitor `cmd:"" help:"Start the monitor. (default command)" default:"withargs"`
		Run     Run     `cmd:"" help:"Run program images until they halt."`
		Version Version `cmd:"" help:"Show sim6502 version."`

		Config string     `help:"${config_help}" type:"path" default:"sim6502.toml" placeholder:"FILE"`
		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Monitor struct {
		Scripts []string `arg:"" optional:"" name:"script" help:"${script_help}" type:"existingfile"`
	}

	Run struct {
		Images   []string `arg:"" name:"image" help:"${image_help}" type:"existingfile"`
		MaxSteps int      `name:"max-steps" help:"${max_steps_help}" default:"-1"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"config_help":    "Configuration file. A missing file selects the defaults.",
	"log_help":       "Enable debug logging for specified modules.",
	"script_help":    "Monitor command scripts to execute before reading standard input.",
	"image_help":     "Raw program images, loaded at $8000 and run from the reset vector.",
	"max_steps_help": "Maximum number of instructions per image, 0 for no limit. Negative values use the configuration.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("sim6502"),
		kong.Description("6502 interpreter and monitor."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")

	switch {
	case strings.HasPrefix(ctx.Command(), "run"):
		cfg.mode = runMode
	case ctx.Command() == "version":
		cfg.mode = versionMode
	default:
		cfg.mode = monitorMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}

	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all debug logging.
    - all                    Enable all debug logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}
	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

// logModMask is the set of modules selected with --log.
type logModMask struct {
	mask log.ModuleMask
	set  bool
}

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm *logModMask) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	s, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected a list of log modules")
	}

	mask, err := log.ParseModules(s)
	if err != nil {
		return err
	}
	lm.mask, lm.set = mask, true
	return nil
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
