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

//go:build freebsd

package bootstage

import (
	"os"

	"golang.org/x/sys/unix"
)

// BSDPlatform implements Platform for FreeBSD. Door left open for other
// BSDs later; only FreeBSD's sysctl names are used here.
type BSDPlatform struct{}

// NewPlatform returns the capability implementation for the platform
// this binary was built for.
func NewPlatform() Platform {
	return BSDPlatform{}
}

func (BSDPlatform) HWClockUTCDetect() (bool, error) {
	if v, err := unix.SysctlUint32("machdep.wall_cmos_clock"); err == nil {
		return v == 0, nil
	}
	if _, err := os.Stat("/etc/wall_cmos_clock"); err == nil {
		return false, nil
	}
	return true, nil
}

func (BSDPlatform) APIMounts() []APIMount {
	return []APIMount{
		{Source: "devfs", Target: "/dev", FSType: "devfs"},
		{Source: "procfs", Target: "/proc", FSType: "procfs"},
		{Source: "tmpfs", Target: "/run", FSType: "tmpfs"},
	}
}

func (BSDPlatform) AlreadyMounted(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return st.Ino == 2, nil
}

func (BSDPlatform) Mount(m APIMount, remount bool) error {
	var flags int
	if remount {
		flags |= unix.MNT_UPDATE
	}
	err := unix.Mount(m.FSType, m.Target, flags, nil)
	if err == unix.EBUSY {
		return nil
	}
	return err
}

func (BSDPlatform) DisableCtrlAltDel() error {
	// No direct FreeBSD equivalent; reboot(8) policy is controlled via
	// /etc/rc.conf instead. This platform step sets the session's login
	// name to root, the BSD-only part of boot staging's first step.
	return unix.Setlogin("root")
}
