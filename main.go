// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/beevik/term"
	"github.com/fatih/color"

	"github.com/beevik/sim6502/config"
	"github.com/beevik/sim6502/host"
	"github.com/beevik/sim6502/log"
)

const version = "0.1.0"

func main() {
	cli := parseArgs(os.Args[1:])

	cfg, err := config.Load(cli.Config)
	checkf(err, "failed to load configuration '%s'", cli.Config)
	checkf(setupLogging(cfg.Log, cli.Log), "invalid logging configuration")
	log.ModEmu.WithField("config", cli.Config).Infof("configuration loaded")

	switch cli.mode {
	case versionMode:
		fmt.Println("sim6502", version)
	case runMode:
		os.Exit(runImages(cfg, cli.Run))
	default:
		monitor(cfg, cli.Monitor.Scripts)
	}
}

// Apply the configured log level and debug modules. Modules given on the
// command line replace the configured ones.
func setupLogging(cfg config.LogConfig, flag logModMask) error {
	if cfg.Level != "" {
		if err := log.SetLevel(cfg.Level); err != nil {
			return err
		}
	}

	mask := flag.mask
	if !flag.set && cfg.Modules != "" {
		var err error
		mask, err = log.ParseModules(cfg.Modules)
		if err != nil {
			return err
		}
	}
	if mask != 0 {
		log.EnableDebugModules(mask)
	}
	return nil
}

func runImages(cfg config.Config, args Run) int {
	maxSteps := cfg.Run.MaxSteps
	if args.MaxSteps >= 0 {
		maxSteps = args.MaxSteps
	}

	if maxSteps == 0 {
		log.ModEmu.Warnf("no step budget, images that never halt run until interrupted")
	}
	log.ModEmu.Infof("running %d image(s) with step budget %d", len(args.Images), maxSteps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := host.RunImages(ctx, args.Images, maxSteps)
	checkf(err, "failed to run images")

	halt := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	status := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%s %v\n", fail("FAIL"), r.Err)
			status = 1
			continue
		}
		fmt.Printf("%s %s: A=%02X X=%02X Y=%02X SP=%02X PC=%04X PS=[%s] steps=%d cycles=%d\n",
			halt("HALT"), r.Name, r.Reg.A, r.Reg.X, r.Reg.Y, r.Reg.SP, r.Reg.PC,
			r.Reg.FlagString(), r.Steps, r.Cycles)
	}
	return status
}

func monitor(cfg config.Config, scripts []string) {
	h := host.New(cfg.Monitor)

	// Run commands contained in command-line files.
	for _, filename := range scripts {
		file, err := os.Open(filename)
		checkf(err, "failed to open script")
		more := h.RunCommands(file, os.Stdout, false)
		file.Close()
		if !more {
			return
		}
	}

	// Break on Ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(h, c)

	// Run commands interactively when attached to a terminal.
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	h.RunCommands(os.Stdin, os.Stdout, interactive)
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}
