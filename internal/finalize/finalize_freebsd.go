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

package finalize

import (
	"golang.org/x/sys/unix"

	"github.com/nisbet-hubbard/nosh/internal/intent"
)

// InContainer reports whether the process is confined to a jail, where
// the reboot syscall must not be attempted.
func InContainer() bool {
	v, err := unix.SysctlUint32("security.jail.jailed")
	return err == nil && v != 0
}

// FreeBSD's reboot(2) already syncs on its own; the extra Sync before
// Run's syscall is harmless here.
func rebootCommand(pending intent.Intent) int {
	switch pending {
	case intent.FastHalt:
		return unix.RB_HALT
	case intent.FastPoweroff:
		return unix.RB_HALT | unix.RB_POWEROFF
	default:
		return unix.RB_AUTOBOOT
	}
}
