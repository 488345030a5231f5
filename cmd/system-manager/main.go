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

// Command system-manager is the top-level event loop: run as
// pid 1 it supervises the service manager and the logger and reacts to
// signals; run with --user it does the same for one login session.
package main

import (
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/nisbet-hubbard/nosh/internal/bootstage"
	"github.com/nisbet-hubbard/nosh/internal/exitcode"
	"github.com/nisbet-hubbard/nosh/internal/logger"
	"github.com/nisbet-hubbard/nosh/internal/manager"
)

type options struct {
	User bool `long:"user" description:"run as a per-user session manager instead of pid 1"`
}

func main() {
	var opts options
	args, err := flags.ParseArgs(&opts, os.Args[1:])
	if err != nil {
		os.Exit(exitcode.Usage)
	}

	role := manager.System
	if opts.User {
		role = manager.User
	}

	m := manager.New(role, args)
	if err := m.Bootstrap(bootstage.NewPlatform()); err != nil {
		logger.Noticef("bootstrap: %v", err)
		os.Exit(exitcode.TemporaryFailure)
	}

	if err := m.Loop(); err != nil {
		logger.Noticef("exiting: %v", err)
		os.Exit(1)
	}
}
