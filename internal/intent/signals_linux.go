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

package intent

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// The kernel's real-time range starts at 32, but glibc reserves the
// first two signals for its own threading runtime, so SIGRTMIN as seen
// by every process on a glibc system is 34. The manager must agree with
// what userspace tools (kill -RTMIN+n) actually send.
const (
	sigRTMin = syscall.Signal(34)
	sigRTMax = syscall.Signal(64)
)

// sigPower is the UPS power-fail notification signal, where the
// platform has one.
const sigPower = unix.SIGPWR
