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
	"os"

	"golang.org/x/sys/unix"

	"github.com/nisbet-hubbard/nosh/internal/intent"
)

// InContainer is a best-effort detector using the same tells systemd
// itself uses: the /run/systemd/container marker dropped in by the
// container runtime, or docker's own marker file.
func InContainer() bool {
	if _, err := os.Stat("/run/systemd/container"); err == nil {
		return true
	}
	_, err := os.Stat("/.dockerenv")
	return err == nil
}

func rebootCommand(pending intent.Intent) int {
	switch pending {
	case intent.FastHalt:
		return unix.LINUX_REBOOT_CMD_HALT
	case intent.FastPoweroff:
		return unix.LINUX_REBOOT_CMD_POWER_OFF
	default:
		return unix.LINUX_REBOOT_CMD_RESTART
	}
}
