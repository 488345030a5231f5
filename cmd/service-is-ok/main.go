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

// Command service-is-ok is a tiny health-check predicate: it exits 0 if
// DIR/ok or DIR/supervise/ok can be opened, EXIT_TEMPORARY_FAILURE if DIR
// itself cannot be opened, and EXIT_PERMANENT_FAILURE otherwise.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nisbet-hubbard/nosh/internal/exitcode"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "service-is-ok: usage: service-is-ok DIR")
		os.Exit(exitcode.Usage)
	}
	dir := os.Args[1]

	d, err := os.Open(dir)
	if err != nil {
		os.Exit(exitcode.TemporaryFailure)
	}
	d.Close()

	for _, candidate := range []string{
		filepath.Join(dir, "ok"),
		filepath.Join(dir, "supervise", "ok"),
	} {
		if f, err := os.OpenFile(candidate, os.O_WRONLY, 0); err == nil {
			f.Close()
			os.Exit(0)
		}
	}
	os.Exit(exitcode.PermanentFailure)
}
