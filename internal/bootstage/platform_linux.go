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

package bootstage

import (
	"bufio"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/nisbet-hubbard/nosh/dirs"
)

// LinuxPlatform implements Platform for Linux.
type LinuxPlatform struct{}

// NewPlatform returns the capability implementation for the platform
// this binary was built for.
func NewPlatform() Platform {
	return LinuxPlatform{}
}

func (LinuxPlatform) HWClockUTCDetect() (bool, error) {
	f, err := os.Open(dirs.AdjtimeFile)
	if os.IsNotExist(err) {
		// No adjtime file: nosh's own default is UTC.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		if line == 3 {
			text := strings.TrimSpace(sc.Text())
			return text != "LOCAL", nil
		}
	}
	return true, sc.Err()
}

func (LinuxPlatform) APIMounts() []APIMount {
	return []APIMount{
		{Source: "proc", Target: "/proc", FSType: "proc", Flags: unix.MS_NOSUID | unix.MS_NOEXEC | unix.MS_NODEV},
		{Source: "sysfs", Target: "/sys", FSType: "sysfs", Flags: unix.MS_NOSUID | unix.MS_NOEXEC | unix.MS_NODEV},
		{Source: "devtmpfs", Target: "/dev", FSType: "devtmpfs", Flags: unix.MS_NOSUID, Data: "mode=0755"},
		{Source: "devpts", Target: "/dev/pts", FSType: "devpts", Flags: unix.MS_NOSUID | unix.MS_NOEXEC, Data: "mode=0620,gid=5"},
		{Source: "tmpfs", Target: "/dev/shm", FSType: "tmpfs", Flags: unix.MS_NOSUID | unix.MS_NODEV, Data: "mode=1777"},
		{Source: "tmpfs", Target: "/run", FSType: "tmpfs", Flags: unix.MS_NOSUID | unix.MS_NODEV, Data: "mode=0755"},
		{Source: "cgroup2", Target: "/sys/fs/cgroup", FSType: "cgroup2", Flags: unix.MS_NOSUID | unix.MS_NOEXEC | unix.MS_NODEV},
	}
}

func (LinuxPlatform) AlreadyMounted(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	// On Linux the root inode of a freshly mounted filesystem is ino 1.
	if st.Ino == 1 {
		return true, nil
	}
	f, err := os.Open("/proc/self/mounts")
	if err != nil {
		return false, nil
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 && fields[1] == path {
			return true, nil
		}
	}
	return false, nil
}

func (LinuxPlatform) Mount(m APIMount, remount bool) error {
	flags := m.Flags
	if remount {
		flags |= unix.MS_REMOUNT
	}
	err := unix.Mount(m.Source, m.Target, m.FSType, flags, m.Data)
	if err == unix.EBUSY {
		return nil
	}
	return err
}

func (LinuxPlatform) DisableCtrlAltDel() error {
	return unix.Reboot(unix.LINUX_REBOOT_CMD_CAD_OFF)
}
