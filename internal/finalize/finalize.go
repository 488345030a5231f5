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

// Package finalize is the shutdown finalizer: on the system role
// only, sync and invoke the platform-specific reboot/poweroff/halt
// syscall selected by whichever fast_* intent is latched.
package finalize

import (
	"context"
	"errors"
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sys/unix"

	"github.com/nisbet-hubbard/nosh/internal/intent"
	"github.com/nisbet-hubbard/nosh/internal/logger"
)

// ErrInsideContainer is returned by Run when the process detects it is
// running inside a jail/container, where the finalizer must be
// skipped.
var ErrInsideContainer = errors.New("finalize: running inside a container, skipping")

// Run performs the finalize sequence. It does not return on success: the
// reboot syscall itself ends the process. On failure it returns an error
// the caller should log as fatal.
func Run(pending intent.Intent) error {
	if InContainer() {
		return ErrInsideContainer
	}

	unix.Sync()

	// Best-effort: ask logind over dbus first, since a running logind
	// may want to coordinate session termination before the kernel
	// actually reboots. Any failure falls through to the raw syscall.
	if tryLogind(pending) {
		return nil
	}

	cmd := rebootCommand(pending)
	if err := unix.Reboot(cmd); err != nil {
		return err
	}
	// Reboot does not return on success; reaching here on Linux with a
	// nil error is itself unexpected, but isn't an error worth
	// propagating since the kernel is already tearing the system down.
	return nil
}

func logindMember(pending intent.Intent) string {
	switch pending {
	case intent.FastHalt:
		return "Halt"
	case intent.FastPoweroff:
		return "PowerOff"
	default:
		return "Reboot"
	}
}

// tryLogind attempts org.freedesktop.login1.Manager.{Halt,PowerOff,Reboot}
// over the system bus with a short timeout, returning true if the call
// was accepted. Any failure (no bus, no logind, permission denied) falls
// through silently to the raw syscall path.
func tryLogind(pending intent.Intent) bool {
	conn, err := dbus.SystemBus()
	if err != nil {
		return false
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	obj := conn.Object("org.freedesktop.login1", "/org/freedesktop/login1")
	call := obj.CallWithContext(ctx, "org.freedesktop.login1.Manager."+logindMember(pending), 0, false)
	if call.Err != nil {
		logger.Debugf("logind %s: %v", logindMember(pending), call.Err)
		return false
	}
	return true
}
