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

// Package fstab is the fstab translator: it turns fstab rows into
// mount@/fsck@/swap@/dump@/gbde@/geli@ bundles with the orderings
// between them.
package fstab

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Record is one fstab row plus its derived classification flags.
type Record struct {
	Source  string
	Target  string
	FSType  string
	Options []string
	Passno  int
	// DumpKind is the fstab "type" field: rw, ro, rq, ??, sw, xx.
	DumpKind string

	IsLocal     bool
	IsPreenable bool
	IsFuse      bool
	IsGBDE      bool
	IsGELI      bool
	IsAPI       bool
	IsRoot      bool
}

var apiMountpoints = map[string]bool{
	"/proc": true, "/sys": true, "/dev": true, "/dev/pts": true,
	"/dev/shm": true, "/run": true, "/sys/fs/cgroup": true,
}

func isLocalType(kind string) bool {
	switch kind {
	case "rw", "ro", "rq", "??":
		return true
	default:
		return false
	}
}

func isPreenableType(kind string) bool {
	switch kind {
	case "rw", "ro", "rq":
		return true
	default:
		return false
	}
}

func hasOption(options []string, name string) (string, bool) {
	for _, o := range options {
		if o == name {
			return "", true
		}
		if strings.HasPrefix(o, name+"=") {
			return strings.TrimPrefix(o, name+"="), true
		}
	}
	return "", false
}

// classify derives Record's boolean flags from its raw fields.
func classify(r *Record) {
	r.IsLocal = isLocalType(r.DumpKind)
	r.IsPreenable = isPreenableType(r.DumpKind)
	r.IsFuse = strings.HasPrefix(r.Source, "fuse") || strings.HasPrefix(r.FSType, "fuse")
	r.IsGBDE = strings.HasSuffix(r.Source, ".bde")
	r.IsGELI = strings.HasSuffix(r.Source, ".eli")
	r.IsAPI = apiMountpoints[r.Target]
	r.IsRoot = r.Target == "/"
}

// NewRecord builds and classifies a single Record from explicit fields,
// for callers that describe one mount directly (e.g. a removable-media
// volume) instead of reading it out of a parsed fstab file.
func NewRecord(fstype, source, target string, options []string, passno int) Record {
	rec := Record{
		Source:  source,
		Target:  target,
		FSType:  fstype,
		Options: options,
		Passno:  passno,
	}
	rec.DumpKind = classifyDumpKind(rec.FSType, rec.Options)
	classify(&rec)
	return rec
}

// ParseFile reads fstab rows from r in the getfsent grammar:
// whitespace-separated source, target, fstype, comma-split
// options, dump frequency (read past, not kept), passno. Blank lines and
// '#' comments are skipped.
func ParseFile(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		rec := Record{
			Source:  fields[0],
			Target:  fields[1],
			FSType:  fields[2],
			Options: strings.Split(fields[3], ","),
		}
		if len(fields) >= 5 {
			// dump frequency field, not directly modeled; kept for
			// completeness of the getfsent tuple.
			_ = fields[4]
		}
		if len(fields) >= 6 {
			n, err := strconv.Atoi(fields[5])
			if err == nil {
				rec.Passno = n
			}
		}
		rec.DumpKind = classifyDumpKind(rec.FSType, rec.Options)
		classify(&rec)
		out = append(out, rec)
	}
	return out, sc.Err()
}

// classifyDumpKind derives the fstab "type" token (rw/ro/rq/??/sw/xx)
// this converter keys its decisions on, from the fstype and option list,
// since Go's standard fstab isn't getfsent's BSD disklabel format.
func classifyDumpKind(fstype string, options []string) string {
	if fstype == "swap" {
		return "sw"
	}
	if _, ro := hasOption(options, "ro"); ro {
		return "ro"
	}
	if _, rq := hasOption(options, "rq"); rq {
		return "rq"
	}
	if fstype == "none" || fstype == "ignore" {
		return "xx"
	}
	return "rw"
}

// lines joins tokens into a newline-per-token nosh script, mirroring
// script.tokenStream's convention but kept local to this package since
// fstab-derived bundles are simple enough not to need the full composer.
func lines(toks ...string) string {
	return "#!/bin/nosh\n" + strings.Join(toks, "\n") + "\n"
}
