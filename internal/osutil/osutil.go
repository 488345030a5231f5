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

// Package osutil collects the small filesystem and descriptor helpers
// shared by the bundle writer, the log-pipe and manager code, and the
// command-line tools.
package osutil

import (
	"fmt"
	"io/ioutil"
	"os"

	"golang.org/x/sys/unix"
)

// FileExists reports whether path names an existing filesystem entry,
// following symlinks.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDirectory reports whether path exists and is a directory.
func IsDirectory(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// AtomicWriteFile writes data to path by writing to a sibling temp file
// and renaming it into place, so readers never observe a partial write.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := ioutil.TempFile(parentOf(path), ".nosh-")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}

func parentOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

// CloseOnExec sets or clears the close-on-exec flag on fd, used when
// handing a descriptor to a child across exec.
func CloseOnExec(fd int, set bool) error {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	if err != nil {
		return err
	}
	if set {
		flags |= unix.FD_CLOEXEC
	} else {
		flags &^= unix.FD_CLOEXEC
	}
	_, err = unix.FcntlInt(uintptr(fd), unix.F_SETFD, flags)
	return err
}

// ReserveStandardFDs pads the process's descriptor table up to (at
// least) fd 3 by opening /dev/null on any of 0, 1, 2 that are closed, so
// a later open(2) never accidentally lands on a standard stream. Mirrors
// the defensive fd-padding step process-1-style supervisors run before
// doing anything else.
func ReserveStandardFDs() error {
	for fd := 0; fd <= 2; fd++ {
		if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); err == nil {
			continue
		}
		// A raw descriptor, not an *os.File: the file's finalizer would
		// otherwise close the padding descriptor once it is collected.
		nfd, err := unix.Open(os.DevNull, unix.O_RDWR, 0)
		if err != nil {
			return fmt.Errorf("reserve fd %d: %w", fd, err)
		}
		if nfd != fd {
			unix.Close(nfd)
		}
	}
	return nil
}
