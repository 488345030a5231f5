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

// Command fifo-listen creates or opens a FIFO, sets its ownership and
// mode, and dup2s it onto fd 3 before exec'ing the remainder of argv, so
// a bundle's run script can use a named pipe as its listen socket the
// same way it would a TCP or UNIX socket.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"syscall"

	flags "github.com/jessevdk/go-flags"
	"golang.org/x/sys/unix"

	"github.com/nisbet-hubbard/nosh/internal/exitcode"
	"github.com/nisbet-hubbard/nosh/internal/listenfd"
)

func lookPath(name string) (string, error) {
	return exec.LookPath(name)
}

type options struct {
	UID                  string `long:"uid" description:"numeric uid or name to chown the FIFO to"`
	GID                  string `long:"gid" description:"numeric gid or name to chgrp the FIFO to"`
	Mode                 string `long:"mode" description:"octal permission mode, e.g. 0600"`
	User                 string `long:"user" description:"resolve uid (and gid, if --gid absent) from this user name"`
	Group                string `long:"group" description:"resolve gid from this group name"`
	SystemdCompatibility bool   `long:"systemd-compatibility" description:"announce LISTEN_FDS=1/LISTEN_PID to the exec'd command"`

	Args struct {
		Path    string   `positional-arg-name:"path"`
		Command []string `positional-arg-name:"command"`
	} `positional-args:"yes" required:"1"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(exitcode.Usage)
	}

	uid, gid, err := resolveOwnership(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fifo-listen: %v\n", err)
		os.Exit(exitcode.Usage)
	}

	mode := os.FileMode(0600)
	if opts.Mode != "" {
		m, err := strconv.ParseUint(opts.Mode, 8, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fifo-listen: bad --mode %q: %v\n", opts.Mode, err)
			os.Exit(exitcode.Usage)
		}
		mode = os.FileMode(m)
	}

	if err := unix.Mkfifo(opts.Args.Path, uint32(mode)); err != nil && err != unix.EEXIST {
		fmt.Fprintf(os.Stderr, "fifo-listen: mkfifo %s: %v\n", opts.Args.Path, err)
		os.Exit(exitcode.TemporaryFailure)
	}
	if uid >= 0 || gid >= 0 {
		if err := os.Chown(opts.Args.Path, uid, gid); err != nil {
			fmt.Fprintf(os.Stderr, "fifo-listen: chown %s: %v\n", opts.Args.Path, err)
			os.Exit(exitcode.TemporaryFailure)
		}
	}
	if err := os.Chmod(opts.Args.Path, mode); err != nil {
		fmt.Fprintf(os.Stderr, "fifo-listen: chmod %s: %v\n", opts.Args.Path, err)
		os.Exit(exitcode.TemporaryFailure)
	}

	f, err := os.OpenFile(opts.Args.Path, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fifo-listen: open %s: %v\n", opts.Args.Path, err)
		os.Exit(exitcode.TemporaryFailure)
	}
	if err := unix.Dup2(int(f.Fd()), listenfd.FirstFD); err != nil {
		fmt.Fprintf(os.Stderr, "fifo-listen: dup2: %v\n", err)
		os.Exit(exitcode.TemporaryFailure)
	}
	f.Close()

	if len(opts.Args.Command) == 0 {
		os.Exit(0)
	}

	env := os.Environ()
	if opts.SystemdCompatibility {
		env = listenfd.SetEnv(env, 1)
	}
	path, err := lookPath(opts.Args.Command[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "fifo-listen: %v\n", err)
		os.Exit(exitcode.TemporaryFailure)
	}
	if err := syscall.Exec(path, opts.Args.Command, env); err != nil {
		fmt.Fprintf(os.Stderr, "fifo-listen: exec %s: %v\n", path, err)
		os.Exit(exitcode.TemporaryFailure)
	}
}

func resolveOwnership(opts options) (uid, gid int, err error) {
	uid, gid = -1, -1
	if opts.User != "" {
		u, err := user.Lookup(opts.User)
		if err != nil {
			return -1, -1, err
		}
		uid, _ = strconv.Atoi(u.Uid)
		gid, _ = strconv.Atoi(u.Gid)
	}
	if opts.Group != "" {
		g, err := user.LookupGroup(opts.Group)
		if err != nil {
			return -1, -1, err
		}
		gid, _ = strconv.Atoi(g.Gid)
	}
	if opts.UID != "" {
		if n, err := strconv.Atoi(opts.UID); err == nil {
			uid = n
		} else if u, err := user.Lookup(opts.UID); err == nil {
			uid, _ = strconv.Atoi(u.Uid)
		} else {
			return -1, -1, fmt.Errorf("unknown --uid %q", opts.UID)
		}
	}
	if opts.GID != "" {
		if n, err := strconv.Atoi(opts.GID); err == nil {
			gid = n
		} else if g, err := user.LookupGroup(opts.GID); err == nil {
			gid, _ = strconv.Atoi(g.Gid)
		} else {
			return -1, -1, fmt.Errorf("unknown --gid %q", opts.GID)
		}
	}
	return uid, gid, nil
}
