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

// Package listenfd implements the systemd-compatible LISTEN_FDS
// protocol: a listening socket is passed to a child on a fixed fd with
// LISTEN_FDS and LISTEN_PID announced in its environment.
package listenfd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/coreos/go-systemd/activation"
)

// FirstFD is the systemd-reserved first passed-socket descriptor number.
const FirstFD = 3

// Query reads LISTEN_FDS/LISTEN_PID from the current environment and
// returns how many sockets were handed to this process, 0 if the
// protocol variables are absent or do not name this pid. It delegates to
// coreos/go-systemd's activation package, the same library
// system-manager-facing tooling in the wider ecosystem already uses for
// this exact protocol.
func Query() uint {
	return uint(len(activation.Files(false)))
}

// SetEnv announces n sockets starting at FirstFD to a child process
// about to be exec'd, by setting LISTEN_FDS and LISTEN_PID in env.
func SetEnv(env []string, n int) []string {
	env = append(env, fmt.Sprintf("LISTEN_FDS=%d", n))
	env = append(env, "LISTEN_PID="+strconv.Itoa(os.Getpid()))
	return env
}
