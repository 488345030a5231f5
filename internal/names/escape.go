// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2024 nosh contributors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package names is the name escaper: it maps arbitrary byte strings
// to and from the bundle-name alphabet, and substitutes the documented
// %-token table into a descriptor value.
package names

import (
	"fmt"
	"strings"
)

const escapeLead = '\\'

// safe reports whether b may appear literally in escaped output. The
// normal variant (alt=false) is for values that may still contain a
// path separator (e.g. a descriptor's own origin path); the alt variant
// is for turning an arbitrary path (an fstab source or target) into a
// single bundle-directory basename, where '/' cannot survive literally
// and is instead folded onto '-' (mirroring systemd-escape's own
// convention). Because '-' then means "this was a slash", a literal '-'
// byte must itself be hex-escaped in the alt variant so Unescape can
// recover which '-' was which.
func safe(b byte, alt bool) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '_' || b == '.':
		return true
	case b == '-':
		return !alt
	case b == '/':
		return !alt
	default:
		return false
	}
}

// Escape maps s into the bundle-name alphabet. The normal variant
// hex-escapes every byte outside {letters, digits, -, _, ., /} with a
// `\HH` prefix. The alt variant additionally turns every '/' into a
// literal '-' and hex-escapes any literal '-' so the mapping stays
// invertible.
func Escape(s string, alt bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if alt && c == '/' {
			b.WriteByte('-')
			continue
		}
		if safe(c, alt) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%c%02x", escapeLead, c)
	}
	return b.String()
}

// Unescape reverses Escape. It is the exact inverse over the
// round-trippable subset: Unescape(Escape(x, alt), alt) == x for every x
// and both alt values.
func Unescape(s string, alt bool) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == escapeLead && i+2 < len(s) {
			if hi, ok := hexVal(s[i+1]); ok {
				if lo, ok := hexVal(s[i+2]); ok {
					b.WriteByte(byte(hi<<4 | lo))
					i += 3
					continue
				}
			}
		}
		if alt && s[i] == '-' {
			b.WriteByte('/')
			i++
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func hexVal(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}
