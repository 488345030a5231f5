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

// Package logpipe is the log-pipe manager: it owns the pipe whose
// read end feeds the logger child, keeps the manager's original
// stdin/stdout/stderr/listen-socket descriptors around as a last resort
// so the logger's own startup errors never vanish, and restores those
// descriptors once the logger is no longer needed during a fast-path
// shutdown.
package logpipe

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/nisbet-hubbard/nosh/internal/logger"
	"github.com/nisbet-hubbard/nosh/internal/osutil"
)

// ListenSocketFD is the systemd-compatible fixed fd number the
// pre-opened listening socket for the service manager is handed on.
const ListenSocketFD = 3

// Manager owns the redirected descriptors. The *os.File wrappers are
// created exactly once so that no finalizer can close a descriptor that
// is still shared with a logger child.
type Manager struct {
	readEnd  int
	writeEnd int
	readFile *os.File

	lastResortStdin  int
	lastResortStdout int
	lastResortStderr int
	lastResortListen int

	stdoutFile *os.File
	stderrFile *os.File
	listenFile *os.File

	swapped bool
}

// New dups aside the current stdin/stdout/stderr/listen-socket as
// "last-resort" descriptors and creates a fresh close-on-exec pipe.
func New() (*Manager, error) {
	m := &Manager{}
	var err error
	if m.lastResortStdin, err = unix.Dup(0); err != nil {
		return nil, err
	}
	if m.lastResortStdout, err = unix.Dup(1); err != nil {
		return nil, err
	}
	if m.lastResortStderr, err = unix.Dup(2); err != nil {
		return nil, err
	}
	// The listen socket fd may not exist yet (it's set up by the caller
	// before or after New, depending on role); failure to dup it is not
	// fatal, it just means there is nothing to preserve.
	if fd, err := unix.Dup(ListenSocketFD); err == nil {
		m.lastResortListen = fd
		m.listenFile = os.NewFile(uintptr(fd), "listen-socket")
	} else {
		m.lastResortListen = -1
	}

	// The last-resort dups must not leak into children that are handed
	// explicit descriptors of their own.
	for _, fd := range []int{m.lastResortStdin, m.lastResortStdout, m.lastResortStderr, m.lastResortListen} {
		if fd > 0 {
			if err := osutil.CloseOnExec(fd, true); err != nil {
				logger.Debugf("set close-on-exec on fd %d: %v", fd, err)
			}
		}
	}

	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	m.readEnd, m.writeEnd = fds[0], fds[1]
	m.readFile = os.NewFile(uintptr(m.readEnd), "logpipe-read")
	m.stdoutFile = os.NewFile(uintptr(m.lastResortStdout), "last-resort-stdout")
	m.stderrFile = os.NewFile(uintptr(m.lastResortStderr), "last-resort-stderr")
	return m, nil
}

// Swap atomically replaces stdout and stderr with the pipe's write end.
// Until this is called, nothing should write heavily to the pipe: the
// first logger child must already be started, or writes will block and
// stall the manager.
func (m *Manager) Swap() error {
	if err := unix.Dup2(m.writeEnd, 1); err != nil {
		return err
	}
	if err := unix.Dup2(m.writeEnd, 2); err != nil {
		return err
	}
	m.swapped = true
	return nil
}

// ReadFile returns the pipe's read end, handed to the logger child as
// its stdin.
func (m *Manager) ReadFile() *os.File { return m.readFile }

// ListenFile returns the preserved listening socket inherited on fd 3,
// or nil if the manager was started without one.
func (m *Manager) ListenFile() *os.File { return m.listenFile }

// LastResortFiles returns the preserved original stdout/stderr, given to
// the logger child as its own stdout/stderr so that the logger's own
// errors do not disappear into the pipe it is itself draining.
func (m *Manager) LastResortFiles() (stdout, stderr *os.File) {
	return m.stdoutFile, m.stderrFile
}

// Restore puts the last-resort descriptors back onto the standard
// descriptors and closes the pipe's write end so the logger naturally
// EOFs and exits, once a fast shutdown has seen the service manager
// go away.
func (m *Manager) Restore() error {
	if !m.swapped {
		return nil
	}
	if err := unix.Dup2(m.lastResortStdout, 1); err != nil {
		return err
	}
	if err := unix.Dup2(m.lastResortStderr, 2); err != nil {
		return err
	}
	m.swapped = false
	if err := unix.Close(m.writeEnd); err != nil {
		logger.Debugf("close log pipe write end: %v", err)
	}
	return nil
}

// Close releases every descriptor the Manager holds.
func (m *Manager) Close() {
	for _, fd := range []int{m.readEnd, m.writeEnd, m.lastResortStdin, m.lastResortStdout, m.lastResortStderr, m.lastResortListen} {
		if fd > 0 {
			unix.Close(fd)
		}
	}
}
