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

// Command system-control is the one-shot control helper:
// it resolves a bundle name against the search path and performs the
// single requested action (start, stop, activate, ...) on it.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/nisbet-hubbard/nosh/dirs"
	"github.com/nisbet-hubbard/nosh/internal/exitcode"
	"github.com/nisbet-hubbard/nosh/internal/osutil"
)

type options struct {
	User     bool `long:"user" description:"operate on the per-user bundle set"`
	Full     bool `long:"full" description:"show the full command output"`
	NoLegend bool `long:"no-legend" description:"omit table headers"`
	NoPager  bool `long:"no-pager" description:"don't page long output"`
	Quiet    bool `short:"q" long:"quiet" description:"suppress informational output"`
	Verbose  bool `long:"verbose" description:"log each sub-action taken"`
	Alarm    int  `long:"alarm" description:"give up after this many seconds"`

	Args struct {
		Command string   `positional-arg-name:"command"`
		Targets []string `positional-arg-name:"target"`
	} `positional-args:"yes" required:"1"`
}

// openBundleDirectory resolves name against the bundle search roots for
// the given role, returning the first directory that exists, mirroring
// the search-then-open convention the rest of this toolkit's directory
// resolution uses (internal/unit.Load, the dirs package's search-path
// tables). Names ending in ".target" are looked up in the target bundle
// directories, every other name in the service bundle directories.
func openBundleDirectory(name string, user bool) (string, error) {
	if filepath.IsAbs(name) {
		if osutil.IsDirectory(name) {
			return name, nil
		}
		return "", fmt.Errorf("%s: not a bundle directory", name)
	}
	roots := dirs.ServiceBundleDirs
	if filepath.Ext(name) == ".target" {
		roots = dirs.SystemTargetBundleDirs
	}
	if user {
		roots = append([]string{filepath.Join(dirs.RunDir, "user-service-bundles")}, roots...)
	}
	var lastErr error
	for _, root := range roots {
		dir := filepath.Join(root, name)
		if osutil.IsDirectory(dir) {
			return dir, nil
		} else if _, err := os.Stat(dir); err != nil {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no such bundle in search path")
	}
	return "", fmt.Errorf("%s: %w", name, lastErr)
}

// shutdownTargets maps the convenience subcommands onto the target
// bundle each one starts; "init" brings the system to its initial
// target the same way, which is how the manager's implicit init intent
// reaches the bundle graph.
var shutdownTargets = map[string]string{
	"init":     "sysinit.target",
	"halt":     "halt.target",
	"poweroff": "poweroff.target",
	"reboot":   "reboot.target",
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(exitcode.Usage)
	}

	// The deadline is this process's own, imposed on itself the way the
	// classic alarm(2)-then-exec helpers do it; the manager that forked
	// us never cancels or times out a helper.
	if opts.Alarm > 0 {
		time.AfterFunc(time.Duration(opts.Alarm)*time.Second, func() {
			syscall.Kill(os.Getpid(), syscall.SIGALRM)
		})
	}

	command := opts.Args.Command
	targets := opts.Args.Targets
	if command == "activate" {
		// activate is handled exactly as start; the target's wants are
		// not brought up separately.
		command = "start"
	}
	if t, ok := shutdownTargets[command]; ok {
		if command == "init" {
			// The remaining words are the manager's own boot arguments
			// (kernel command line or session argv); only the ones that
			// name a boot mode select an extra target, the rest are not
			// bundle names and are dropped.
			targets = bootModeTargets(targets)
		}
		command = "start"
		targets = append([]string{t}, targets...)
	}

	for _, target := range targets {
		dir, err := openBundleDirectory(target, opts.User)
		if err != nil {
			fmt.Fprintf(os.Stderr, "system-control: %v\n", err)
			os.Exit(exitcode.TemporaryFailure)
		}
		if err := runAction(command, dir, opts.Verbose); err != nil {
			fmt.Fprintf(os.Stderr, "system-control: %s %s: %v\n", command, target, err)
			os.Exit(exitcode.PermanentFailure)
		}
	}
}

// bootModeTargets translates recognized boot-mode words into the target
// bundle each selects, defaulting to the normal target when none match.
func bootModeTargets(words []string) []string {
	for _, w := range words {
		switch w {
		case "single", "s", "S", "rescue":
			return []string{"rescue.target"}
		case "emergency", "-b":
			return []string{"emergency.target"}
		}
	}
	return []string{"normal.target"}
}

// runAction performs one named action on the bundle at dir by invoking
// its service/<verb> script, which is how every other part of this
// toolkit already drives a bundle.
func runAction(action, dir string, verbose bool) error {
	script := filepath.Join(dir, "service", action)
	if _, err := os.Stat(script); err != nil {
		if action == "start" || action == "stop" {
			return nil // a bundle with no start/stop script has nothing to do
		}
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "system-control: running %s\n", script)
	}
	cmd := exec.Command(script)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
