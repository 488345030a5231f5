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

// Command nosh is the multi-call entry point: when invoked under the
// name "nosh" it dispatches on the tool named by argv[1], the way a
// busybox-style applet dispatches. When invoked under any other name
// (e.g. a symlink named "system-control") it dispatches on that name.
// Either way it execs the tool's own, separately built binary under
// /usr/libexec/nosh/, or the tool's name looked up on PATH when that
// file is not installed.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/nisbet-hubbard/nosh/internal/exitcode"
)

var applets = map[string]string{
	"system-manager":            "/usr/libexec/nosh/system-manager",
	"per-user-manager":          "/usr/libexec/nosh/system-manager",
	"system-control":            "/usr/libexec/nosh/system-control",
	"convert-systemd-units":     "/usr/libexec/nosh/convert-systemd-units",
	"convert-fstab-services":    "/usr/libexec/nosh/convert-fstab-services",
	"write-volume-service-bundles": "/usr/libexec/nosh/write-volume-service-bundles",
	"fifo-listen":               "/usr/libexec/nosh/fifo-listen",
	"service-is-ok":             "/usr/libexec/nosh/service-is-ok",
	"initctl-read":              "/usr/libexec/nosh/initctl-read",
}

func main() {
	name := filepath.Base(os.Args[0])
	argv := os.Args
	if name == "nosh" {
		if len(os.Args) < 2 {
			fmt.Fprintln(os.Stderr, "nosh: usage: nosh <applet> [args...]")
			os.Exit(exitcode.Usage)
		}
		name = os.Args[1]
		argv = os.Args[1:]
	}

	path, ok := applets[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "nosh: unknown applet %q\n", name)
		os.Exit(exitcode.Usage)
	}
	if name == "per-user-manager" {
		// per-user-manager is the same binary as system-manager run in
		// session mode.
		argv = append([]string{"system-manager", "--user"}, argv[1:]...)
	}
	if _, err := os.Stat(path); err != nil {
		path = filepath.Base(path) // fall back to PATH lookup if not installed under libexec
	}

	if err := syscall.Exec(resolvePath(path), argv, os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "nosh: exec %s: %v\n", path, err)
		os.Exit(exitcode.TemporaryFailure)
	}
}

func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if full, err := exec.LookPath(path); err == nil {
		return full
	}
	return path
}
