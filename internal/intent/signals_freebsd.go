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

import "syscall"

// FreeBSD fixes its real-time signal range in <sys/signal.h>.
const (
	sigRTMin = syscall.Signal(65)
	sigRTMax = syscall.Signal(126)
)

// sigPower is 0 here: FreeBSD has no SIGPWR, power-fail events arrive
// through devd rather than a signal.
const sigPower = syscall.Signal(0)
