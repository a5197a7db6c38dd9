// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/prefixtree/v2"

	"github.com/beevik/sim6502/config"
)

var errSettingNotFound = errors.New("setting not found")

// Monitor settings adjustable with the "set" command.
type settings struct {
	HexMode         bool
	Color           bool
	MemDumpBytes    int
	DisasmLines     int
	MaxRunSteps     int
	MaxStepLines    int
	NextDisasmAddr  uint16
	NextMemDumpAddr uint16
}

func newSettings(cfg config.MonitorConfig) *settings {
	return &settings{
		Color:        cfg.Color,
		MemDumpBytes: cfg.MemDumpBytes,
		DisasmLines:  10,
		MaxRunSteps:  cfg.MaxRunSteps,
		MaxStepLines: 20,
	}
}

// A setting names one settings field. The field accessor returns a *bool,
// *int or *uint16.
type setting struct {
	name  string
	doc   string
	field func(s *settings) any
}

var settingList = []setting{
	{"HexMode", "hexadecimal input mode", func(s *settings) any { return &s.HexMode }},
	{"Color", "colorize register output", func(s *settings) any { return &s.Color }},
	{"MemDumpBytes", "default number of memory bytes to dump", func(s *settings) any { return &s.MemDumpBytes }},
	{"DisasmLines", "default number of lines to disassemble", func(s *settings) any { return &s.DisasmLines }},
	{"MaxRunSteps", "step budget for run, 0 for none", func(s *settings) any { return &s.MaxRunSteps }},
	{"MaxStepLines", "max register lines to display when stepping", func(s *settings) any { return &s.MaxStepLines }},
	{"NextDisasmAddr", "address of next disassembly", func(s *settings) any { return &s.NextDisasmAddr }},
	{"NextMemDumpAddr", "address of next memory dump", func(s *settings) any { return &s.NextMemDumpAddr }},
}

var settingsTree = prefixtree.New[*setting]()

func init() {
	for i := range settingList {
		settingsTree.Add(strings.ToLower(settingList[i].name), &settingList[i])
	}
}

// Display writes every setting and its current value to w.
func (s *settings) Display(w io.Writer) {
	for _, st := range settingList {
		var v string
		switch p := st.field(s).(type) {
		case *bool:
			v = strconv.FormatBool(*p)
		case *int:
			v = strconv.Itoa(*p)
		case *uint16:
			v = fmt.Sprintf("$%04X", *p)
		}
		fmt.Fprintf(w, "%-28s (%s)\n", fmt.Sprintf("    %-16s %s", st.name, v), st.doc)
	}
}

// Set parses value and assigns it to the setting whose name starts with
// key. Numbers follow the monitor's number syntax.
func (s *settings) Set(key, value string) error {
	st, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		if errors.Is(err, prefixtree.ErrPrefixAmbiguous) {
			return fmt.Errorf("setting '%s' is ambiguous", key)
		}
		return errSettingNotFound
	}

	switch p := st.field(s).(type) {
	case *bool:
		b, err := stringToBool(value)
		if err != nil {
			return err
		}
		*p = b
	case *int:
		n, err := parseNumber(value, s.HexMode)
		if err != nil {
			return err
		}
		*p = int(n)
	case *uint16:
		n, err := parseNumber(value, s.HexMode)
		if err != nil {
			return err
		}
		*p = n
	}
	return nil
}
