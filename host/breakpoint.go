// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"cmp"
	"slices"
)

// A Breakpoint represents an address that will cause the monitor to stop
// code execution when the program counter reaches it.
type Breakpoint struct {
	Address  uint16 // address of execution breakpoint
	Disabled bool   // this breakpoint is currently disabled
}

type breakpoints struct {
	m map[uint16]*Breakpoint
}

func newBreakpoints() *breakpoints {
	return &breakpoints{m: make(map[uint16]*Breakpoint)}
}

// Get looks up a breakpoint by address and returns it if found. Otherwise
// it returns nil.
func (b *breakpoints) Get(addr uint16) *Breakpoint {
	return b.m[addr]
}

// List returns all breakpoints ordered by address.
func (b *breakpoints) List() []*Breakpoint {
	list := make([]*Breakpoint, 0, len(b.m))
	for _, bp := range b.m {
		list = append(list, bp)
	}
	slices.SortFunc(list, func(x, y *Breakpoint) int {
		return cmp.Compare(x.Address, y.Address)
	})
	return list
}

// Add sets a breakpoint at addr. Adding an existing breakpoint re-enables
// it.
func (b *breakpoints) Add(addr uint16) *Breakpoint {
	bp := &Breakpoint{Address: addr}
	b.m[addr] = bp
	return bp
}

// Remove deletes the breakpoint at addr and reports whether one was set.
func (b *breakpoints) Remove(addr uint16) bool {
	if _, ok := b.m[addr]; !ok {
		return false
	}
	delete(b.m, addr)
	return true
}

// Hit returns true if an enabled breakpoint is set at addr.
func (b *breakpoints) Hit(addr uint16) bool {
	bp, ok := b.m[addr]
	return ok && !bp.Disabled
}
