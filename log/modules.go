// Package log provides per-module logging on top of logrus. Warnings and
// errors are always emitted; debug and info output is emitted only for the
// modules enabled with EnableDebugModules.
package log

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

type ModuleMask uint64
type Module uint

const (
	ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF
)

type Level = logrus.Level

const (
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)

const (
	ModEmu Module = iota + 1
	ModCPU
	ModMem
	ModHost
	ModRun

	endStandardMods
)

var modDebugMask ModuleMask = 0

var modNames = []string{
	"<error>", "emu", "cpu", "mem", "host", "run",
}

// ModuleByName returns the module registered under 'name'.
func ModuleByName(name string) (Module, bool) {
	for idx, s := range modNames {
		if idx > 0 && s == name {
			return Module(idx), true
		}
	}
	return Module(0xFFFFFFFF), false
}

// ModuleNames returns the sorted names of all modules.
func ModuleNames() []string {
	names := append([]string(nil), modNames[1:]...)
	sort.Strings(names)
	return names
}

// EnableDebugModules turns on debug and info output for the modules in mask.
func EnableDebugModules(mask ModuleMask) {
	modDebugMask |= mask
	if modDebugMask != 0 {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func DisableDebugModules(mask ModuleMask) {
	modDebugMask &^= mask
}

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

func (mod Module) String() string {
	if int(mod) < len(modNames) {
		return modNames[mod]
	}
	return modNames[0]
}

// Enabled reports whether a message at 'level' would be logged by mod.
func (mod Module) Enabled(level Level) bool {
	return level <= WarnLevel || modDebugMask&mod.Mask() != 0
}

func (mod Module) WithField(key string, value any) Entry {
	return Entry{mod: mod}.WithField(key, value)
}

func (mod Module) Debugf(format string, args ...any) {
	Entry{mod: mod}.Debugf(format, args...)
}

func (mod Module) Infof(format string, args ...any) {
	Entry{mod: mod}.Infof(format, args...)
}

func (mod Module) Warnf(format string, args ...any) {
	Entry{mod: mod}.Warnf(format, args...)
}

// ParseModules converts a comma-separated list of module names into a mask.
// "all" selects every module and "no" selects none.
func ParseModules(list string) (ModuleMask, error) {
	var mask ModuleMask
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		switch name {
		case "":
		case "all":
			mask |= ModuleMaskAll
		case "no":
			return 0, nil
		default:
			m, ok := ModuleByName(name)
			if !ok {
				return 0, fmt.Errorf("invalid log module %q", name)
			}
			mask |= m.Mask()
		}
	}
	return mask, nil
}
