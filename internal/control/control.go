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

// Package control is the control dispatcher: given the single
// highest-priority pending intent, it builds the argv for a one-shot
// control helper invocation.
package control

import (
	"fmt"

	"github.com/nisbet-hubbard/nosh/internal/intent"
)

// Command is a fully-formed control-helper invocation, ready for
// exec/fork by the caller.
type Command struct {
	Argv []string

	// Alarm is the helper's self-imposed deadline in seconds. It is
	// already encoded into Argv as system-control's --alarm flag; the
	// manager never cancels or times out a helper itself.
	Alarm int
}

// subcommandOf maps an intent to the system-control subcommand name and
// its single argument.
var subcommandOf = map[intent.Intent]struct {
	cmd string
	arg string
}{
	intent.Sysinit:          {"start", "sysinit.target"},
	intent.Normal:           {"start", "default.target"},
	intent.Rescue:           {"start", "rescue.target"},
	intent.Emergency:        {"start", "emergency.target"},
	intent.Halt:             {"start", "halt.target"},
	intent.Poweroff:         {"start", "poweroff.target"},
	intent.Reboot:           {"start", "reboot.target"},
	intent.PowerFailed:      {"activate", "power-failed.target"},
	intent.Kbrequest:        {"activate", "kbrequest.target"},
	intent.SecureAttention:  {"activate", "sak.target"},
}

// Build constructs the Command for i. user selects the per-user manager
// (--user is appended); origArgv is the manager's own argv, used verbatim
// only for the Init intent.
func Build(i intent.Intent, user bool, origArgv []string) (Command, error) {
	if i == intent.Init {
		argv := []string{"move-to-control-group", "system-control.slice", "system-control", "init", "--alarm=420"}
		argv = append(argv, origArgv...)
		if user {
			argv = append(argv, "--user")
		}
		return Command{Argv: argv, Alarm: 420}, nil
	}

	sub, ok := subcommandOf[i]
	if !ok {
		return Command{}, fmt.Errorf("control: intent %s has no dispatch mapping", i)
	}
	argv := []string{"system-control", sub.cmd, "--verbose", "--alarm=180"}
	if user {
		argv = append(argv, "--user")
	}
	argv = append(argv, sub.arg)
	return Command{Argv: argv, Alarm: 180}, nil
}
