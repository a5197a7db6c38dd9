// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errNumber = errors.New("invalid number")

// Parse a numeric argument. "$" and "0x" prefixes select hexadecimal, and
// so does hexMode for unprefixed values. Values must fit in 16 bits.
func parseNumber(s string, hexMode bool) (uint16, error) {
	base := 10
	switch {
	case strings.HasPrefix(s, "$"):
		s, base = s[1:], 16
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	case hexMode:
		base = 16
	}

	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, fmt.Errorf("%w '%s'", errNumber, s)
	}
	return uint16(v), nil
}

// Parse an address expression: numbers or "." (the current PC) joined by
// '+' and '-'. Arithmetic wraps at 16 bits.
func parseExpr(s string, hexMode bool, pc uint16) (uint16, error) {
	if s == "" {
		return 0, errNumber
	}

	var sum uint16
	neg := false
	for s != "" {
		i := strings.IndexAny(s[1:], "+-") + 1
		if i == 0 {
			i = len(s)
		}
		term := s[:i]

		var v uint16
		if term == "." {
			v = pc
		} else {
			var err error
			if v, err = parseNumber(term, hexMode); err != nil {
				return 0, err
			}
		}
		if neg {
			sum -= v
		} else {
			sum += v
		}

		s = s[i:]
		if s != "" {
			neg = s[0] == '-'
			if s = s[1:]; s == "" {
				return 0, fmt.Errorf("%w: missing operand", errNumber)
			}
		}
	}
	return sum, nil
}

// Parse a numeric argument that must fit in a byte.
func parseByte(s string, hexMode bool) (byte, error) {
	v, err := parseNumber(s, hexMode)
	if err != nil {
		return 0, err
	}
	if v > 0xff {
		return 0, fmt.Errorf("value $%X does not fit in a byte", v)
	}
	return byte(v), nil
}

func codeString(b []byte) string {
	switch len(b) {
	case 1:
		return fmt.Sprintf("%02X", b[0])
	case 2:
		return fmt.Sprintf("%02X %02X", b[0], b[1])
	case 3:
		return fmt.Sprintf("%02X %02X %02X", b[0], b[1], b[2])
	default:
		return ""
	}
}

func stringToBool(s string) (bool, error) {
	s = strings.ToLower(s)
	switch s {
	case "0", "false", "off":
		return false, nil
	case "1", "true", "on":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool value '%s'", s)
	}
}

var hexString = "0123456789ABCDEF"

func addrToBuf(addr uint16, b []byte) {
	b[0] = hexString[(addr>>12)&0xf]
	b[1] = hexString[(addr>>8)&0xf]
	b[2] = hexString[(addr>>4)&0xf]
	b[3] = hexString[addr&0xf]
}

func byteToBuf(v byte, b []byte) {
	b[0] = hexString[(v>>4)&0xf]
	b[1] = hexString[v&0xf]
}

func toPrintableChar(v byte) byte {
	switch {
	case v >= 32 && v < 127:
		return v
	case v >= 160 && v < 255:
		return v - 128
	default:
		return '.'
	}
}

// Word-wrap text to a 79 column display, indenting every line.
func indentWrap(indent int, s string) string {
	const width = 79
	prefix := strings.Repeat(" ", indent)

	var b strings.Builder
	col := 0
	for _, w := range strings.Fields(s) {
		switch {
		case col == 0:
			b.WriteString(prefix)
			col = indent
		case col+1+len(w) > width:
			b.WriteString("\n")
			b.WriteString(prefix)
			col = indent
		default:
			b.WriteByte(' ')
			col++
		}
		b.WriteString(w)
		col += len(w)
	}
	return b.String()
}
