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

// Package presets decides, for a freshly converted bundle, whether it
// should be linked into its target's wanted-by set at conversion time
// ("enable at boot"). Preset lists are read as YAML so operators can
// hand-author or template them; this is a nosh-side convenience the
// original system-level preset file format does not offer.
package presets

import (
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Rule is one preset directive: enable or disable every bundle matching
// Pattern (a glob over the bundle's escaped name).
type Rule struct {
	Enable  bool   `yaml:"enable"`
	Pattern string `yaml:"pattern"`
}

// List is an ordered set of rules; the first matching rule wins, mirroring
// the "first match wins" convention preset-file readers in this space use.
type List []Rule

// Load reads a YAML preset file such as:
//
//	- enable: true
//	  pattern: "ssh@*"
//	- enable: false
//	  pattern: "*"
func Load(path string) (List, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var l List
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return l, nil
}

// Enabled reports whether name should be enabled at boot according to the
// first matching rule, defaulting to false (disabled) when nothing
// matches, matching the conservative default the rest of the conversion
// pipeline assumes.
func (l List) Enabled(name string) bool {
	for _, r := range l {
		ok, err := globMatch(r.Pattern, name)
		if err != nil {
			continue
		}
		if ok {
			return r.Enable
		}
	}
	return false
}

func globMatch(pattern, name string) (bool, error) {
	return matchGlob(pattern, name), nil
}

// matchGlob is a small shell-style matcher supporting '*' and '?', since
// presets only need to match bundle basenames, not full paths.
func matchGlob(pattern, name string) bool {
	return matchGlobAt(pattern, name)
}

func matchGlobAt(p, s string) bool {
	for len(p) > 0 {
		switch p[0] {
		case '*':
			if len(p) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if matchGlobAt(p[1:], s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			p, s = p[1:], s[1:]
		default:
			if len(s) == 0 || p[0] != s[0] {
				return false
			}
			p, s = p[1:], s[1:]
		}
	}
	return len(s) == 0
}
