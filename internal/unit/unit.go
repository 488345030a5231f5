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

// Package unit is the unit loader: it parses systemd-style INI unit
// descriptors (appendable values, no line continuations), resolves the
// search path, and handles prefix@instance.kind template fallback.
package unit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nisbet-hubbard/nosh/internal/errkind"
)

// Descriptor is an ordered (section -> key -> []value) mapping, plus
// per-key "used" tracking so unused keys can be warned once.
type Descriptor struct {
	Origin   string
	sections []string
	order    map[string][]string // section -> ordered key list
	values   map[string]map[string][]string
	used     map[string]map[string]bool
}

func newDescriptor(origin string) *Descriptor {
	return &Descriptor{
		Origin: origin,
		order:   map[string][]string{},
		values:  map[string]map[string][]string{},
		used:    map[string]map[string]bool{},
	}
}

func fold(s string) string { return strings.ToLower(s) }

func (d *Descriptor) appendValue(section, key, value string) {
	section, key = fold(section), fold(key)
	if d.values[section] == nil {
		d.values[section] = map[string][]string{}
		d.sections = append(d.sections, section)
	}
	if _, ok := d.values[section][key]; !ok {
		d.order[section] = append(d.order[section], key)
	}
	d.values[section][key] = append(d.values[section][key], value)
}

// Values returns the ordered list of values recorded at (section,key),
// marking the key as used.
func (d *Descriptor) Values(section, key string) []string {
	section, key = fold(section), fold(key)
	if d.used[section] == nil {
		d.used[section] = map[string]bool{}
	}
	d.used[section][key] = true
	if sec, ok := d.values[section]; ok {
		return sec[key]
	}
	return nil
}

// Value returns the last recorded value at (section,key), or ok=false.
func (d *Descriptor) Value(section, key string) (string, bool) {
	vs := d.Values(section, key)
	if len(vs) == 0 {
		return "", false
	}
	return vs[len(vs)-1], true
}

// Has reports whether (section,key) has any recorded value, without
// marking it used (for validation checks that don't consume the key).
func (d *Descriptor) Has(section, key string) bool {
	section, key = fold(section), fold(key)
	sec, ok := d.values[section]
	if !ok {
		return false
	}
	return len(sec[key]) > 0
}

// UnusedKeys returns every (section,key) pair that was parsed but never
// read via Value/Values, each warned once per descriptor.
func (d *Descriptor) UnusedKeys() []string {
	var out []string
	for _, section := range d.sections {
		for _, key := range d.order[section] {
			if d.used[section] == nil || !d.used[section][key] {
				out = append(out, fmt.Sprintf("[%s] %s", section, key))
			}
		}
	}
	return out
}

// Parse reads the unit grammar from r: lines are trimmed;
// '#' or ';' as the first non-blank character starts a comment; [name]
// opens a case-folded section; key=value appends to the ordered list at
// (section,key). Continuation lines are not supported.
func Parse(origin string, r *bufio.Scanner) (*Descriptor, error) {
	d := newDescriptor(origin)
	section := ""
	lineno := 0
	for r.Scan() {
		lineno++
		line := strings.TrimSpace(r.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if line[0] == '[' {
			end := strings.IndexByte(line, ']')
			if end < 0 {
				return nil, errkind.New(errkind.Config, origin, fmt.Errorf("line %d: unterminated section header", lineno))
			}
			section = fold(strings.TrimSpace(line[1:end]))
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, errkind.New(errkind.Config, origin, fmt.Errorf("line %d: expected key=value", lineno))
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		if section == "" {
			return nil, errkind.New(errkind.Config, origin, fmt.Errorf("line %d: key outside any section", lineno))
		}
		d.appendValue(section, key, value)
	}
	if err := r.Err(); err != nil {
		return nil, errkind.New(errkind.IO, origin, err)
	}
	return d, nil
}

// Load opens name, probing the search path when name has no path
// separator, and resolving prefix@instance.kind templates (falling back
// to prefix@.kind when the literal instance file is absent).
func Load(name string, searchPath []string) (*Descriptor, error) {
	if strings.ContainsRune(name, '/') {
		return loadFile(name)
	}

	candidates := templateCandidates(name)
	var mostInteresting error
	for _, cand := range candidates {
		for _, dir := range searchPath {
			path := filepath.Join(dir, cand)
			d, err := loadFile(path)
			if err == nil {
				return d, nil
			}
			if !os.IsNotExist(unwrapErr(err)) {
				mostInteresting = err
			} else if mostInteresting == nil {
				mostInteresting = err
			}
		}
	}
	if mostInteresting != nil {
		return nil, mostInteresting
	}
	return nil, errkind.New(errkind.Config, name, os.ErrNotExist)
}

// templateCandidates returns [name] normally, or [prefix@instance.kind,
// prefix@.kind] when name contains '@'.
func templateCandidates(name string) []string {
	at := strings.IndexByte(name, '@')
	if at < 0 {
		return []string{name}
	}
	dot := strings.LastIndexByte(name, '.')
	if dot < at {
		return []string{name}
	}
	prefix := name[:at]
	kind := name[dot:]
	return []string{name, prefix + "@" + kind}
}

func unwrapErr(err error) error {
	if e, ok := err.(*errkind.Error); ok {
		return e.Err
	}
	return err
}

func loadFile(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errkind.New(errkind.Config, path, err)
	}
	defer f.Close()
	return Parse(path, bufio.NewScanner(f))
}
