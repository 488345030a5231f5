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

package names

import (
	"path/filepath"
	"strings"

	"github.com/nisbet-hubbard/nosh/dirs"
)

// Name carries every field derived from a unit argument: the raw form as
// given, its dirname/basename split, the escaped basename, an optional
// prefix@instance split, the bundle directory name it resolves to, and
// the effective user/runtime-dir/machine-id context substitution draws
// on.
type Name struct {
	Raw      string
	Dirname  string
	Basename string
	Escaped  string

	Prefix   string
	Instance string
	HasInstance bool

	BundleDirname string

	User       string
	RuntimeDir string
	MachineID  string
}

// New derives every field of Name from raw, given the user/machine
// context that %-substitution and runtime-dir defaults need.
func New(raw, user, machineID string) Name {
	dir, base := filepath.Split(raw)
	n := Name{
		Raw:      raw,
		Dirname:  dir,
		Basename: base,
		Escaped:  Escape(base, true),

		User:      user,
		MachineID: machineID,
	}
	n.RuntimeDir = dirs.UserRuntimeDir(user)

	if at := strings.IndexByte(base, '@'); at >= 0 {
		n.Prefix = base[:at]
		rest := base[at+1:]
		if dot := strings.LastIndexByte(rest, '.'); dot >= 0 {
			n.Instance = rest[:dot]
		} else {
			n.Instance = rest
		}
		n.HasInstance = n.Instance != ""
	} else {
		n.Prefix = stripKind(base)
	}

	n.BundleDirname = stripKind(base)
	return n
}

func stripKind(base string) string {
	if dot := strings.LastIndexByte(base, '.'); dot >= 0 {
		return base[:dot]
	}
	return base
}

// Substitute expands the documented %-token table inside s. It is a
// total function: every byte of s is consumed, %% yields a literal %,
// and an unrecognized %x is preserved verbatim.
func (n Name) Substitute(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		tok := s[i+1]
		switch tok {
		case '%':
			b.WriteByte('%')
		case 'p':
			b.WriteString(n.Prefix)
		case 'P':
			b.WriteString(Unescape(n.Prefix, false))
		case 'i':
			b.WriteString(n.Instance)
		case 'I':
			b.WriteString(Unescape(n.Instance, false))
		case 'f':
			b.WriteString(filepath.Join(n.Dirname, n.Basename))
		case 'n':
			b.WriteString(n.Basename)
		case 'N':
			b.WriteString(n.BundleDirname)
		case 'm':
			b.WriteString(n.MachineID)
		case 't':
			b.WriteString(n.RuntimeDir)
		default:
			b.WriteByte('%')
			b.WriteByte(tok)
			i++
			continue
		}
		i++
	}
	return b.String()
}
