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

// Package manager is the single cooperative event loop: one goroutine
// reads the event queue, reaps children, then dispatches the
// highest-priority latched intent.
package manager

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/coreos/go-systemd/daemon"

	"github.com/nisbet-hubbard/nosh/internal/bootstage"
	"github.com/nisbet-hubbard/nosh/internal/control"
	"github.com/nisbet-hubbard/nosh/internal/errkind"
	"github.com/nisbet-hubbard/nosh/internal/eventqueue"
	"github.com/nisbet-hubbard/nosh/internal/finalize"
	"github.com/nisbet-hubbard/nosh/internal/intent"
	"github.com/nisbet-hubbard/nosh/internal/listenfd"
	"github.com/nisbet-hubbard/nosh/internal/logger"
	"github.com/nisbet-hubbard/nosh/internal/logpipe"
	"github.com/nisbet-hubbard/nosh/internal/osutil"
	"github.com/nisbet-hubbard/nosh/internal/supervisor"
)

// Role selects system (process 1) vs per-user session behaviour.
type Role = intent.Role

const (
	System = intent.System
	User   = intent.User
)

// Manager holds every piece of state the event loop touches. It is
// never accessed from more than one goroutine, so none of its fields
// need synchronization.
type Manager struct {
	Role Role

	queue *eventqueue.Queue
	sup   *supervisor.Supervisor
	pipe  *logpipe.Manager
	pend  intent.Set

	origArgv []string

	// serviceManagerSignalled is latched once SIGTERM has been sent to
	// a still-running service manager during fast-path drain, so the
	// send is idempotent until the child is actually reaped.
	serviceManagerSignalled bool
}

// New constructs a Manager for role, with argv recorded for the implicit
// Init dispatch.
func New(role Role, argv []string) *Manager {
	m := &Manager{
		Role:     role,
		sup:      supervisor.New(),
		origArgv: argv,
	}
	m.pend.Add(intent.Init)
	return m
}

// Bootstrap runs boot staging (system role only) and sets up the log
// pipe, then starts listening for signals. It must run before Loop.
func (m *Manager) Bootstrap(plat bootstage.Platform) error {
	// Pad the standard descriptor range first so no open(2) below can
	// accidentally land on fds 0-2.
	if err := osutil.ReserveStandardFDs(); err != nil {
		logger.Debugf("reserve standard fds: %v", err)
	}

	if m.Role == System {
		if err := bootstage.Run(plat); err != nil {
			return errkind.New(errkind.Platform, "bootstage", err)
		}
	} else {
		if err := bootstage.BecomeSubreaper(); err != nil {
			logger.Debugf("become subreaper: %v", err)
		}
		// MANAGER_PID is deliberately not exported to children here:
		// the environment of already-running session processes cannot
		// be reached from this side of the fork, so the export could
		// never be observed by the processes that would want it.
	}

	pipe, err := logpipe.New()
	if err != nil {
		return errkind.New(errkind.IO, "logpipe", err)
	}
	m.pipe = pipe

	m.queue = eventqueue.New(intent.Signals(m.Role))

	daemon.SdNotify(false, daemon.SdNotifyReady)
	return nil
}

// Loop runs the cooperative event loop until the shutdown finalizer
// fires (which does not return) or an unrecoverable error occurs.
func (m *Manager) Loop() error {
	for {
		m.ensureChildrenStarted()

		if done, err := m.maybeFinalize(); done {
			return err
		}

		sigs := m.queue.Wait()
		for _, s := range sigs {
			m.pend.Add(intent.Classify(m.Role, s))
		}

		// Reap before dispatch, in the same turn, so "at most one
		// helper" is enforced against the freshest reap state.
		reaped := m.sup.ReapAll()
		for _, role := range reaped {
			m.pend.Add(intent.ChildChanged)
			if role == supervisor.Cyclog {
				logger.Debugf("cyclog exited")
			}
		}
		m.pend.Clear(intent.ChildChanged)

		m.handleFastPath()
		m.dispatchOne()
	}
}

// ensureChildrenStarted lazily starts the service manager and logger
// once boot staging and log-pipe setup have happened.
func (m *Manager) ensureChildrenStarted() {
	_, isFast := m.pend.FastPending()
	bothGone := !m.sup.Running(supervisor.ServiceManager) && !m.sup.Running(supervisor.Cyclog)

	if !isFast && !m.sup.Running(supervisor.ServiceManager) {
		m.startServiceManager()
	}
	if !(isFast && bothGone) && !m.sup.Running(supervisor.Cyclog) {
		// Only an abnormal logger exit is throttled; a clean exit (or
		// the very first start) respawns immediately. A signal arriving
		// mid-throttle preempts the sleep: the respawn is left for the
		// next turn, after the latched intent has been handled.
		if m.sup.AbnormalExit(supervisor.Cyclog) {
			ctx, stop := m.queue.Interruptible()
			ok := m.sup.WaitCyclogRespawn(ctx)
			stop()
			if !ok {
				return
			}
		}
		m.startCyclog()
	}
}

func (m *Manager) startServiceManager() {
	cmd := exec.Command("service-manager")
	cmd.Stdin = nil
	if listen := m.pipe.ListenFile(); listen != nil {
		// The preopened listening socket lands on the child's fd 3,
		// announced systemd-style. LISTEN_PID carries our own pid, not
		// the child's: there is no way to interpose between fork and
		// exec here, and service-manager accepts its parent's pid in
		// the variable for exactly this reason.
		cmd.ExtraFiles = []*os.File{listen}
		cmd.Env = listenfd.SetEnv(os.Environ(), 1)
	}
	if err := cmd.Start(); err != nil {
		logger.Debugf("start service-manager: %v", err)
		return
	}
	m.sup.Start(supervisor.ServiceManager, cmd.Process.Pid)
	m.serviceManagerSignalled = false
}

func (m *Manager) startCyclog() {
	stdout, stderr := m.pipe.LastResortFiles()
	cmd := exec.Command("cyclog", "--max-file-size", "32768", "--max-total-size", "1048576")
	cmd.Stdin = m.pipe.ReadFile()
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		logger.Debugf("start cyclog: %v", err)
		return
	}
	m.sup.Start(supervisor.Cyclog, cmd.Process.Pid)
	if err := m.pipe.Swap(); err != nil {
		logger.Debugf("swap log pipe: %v", err)
	}
}

// handleFastPath drives the fast_* drain: signal the service manager
// once (idempotent), and once the service manager is gone, restore the
// last-resort descriptors and close the log pipe so the logger reads EOF
// and exits, after which a later turn's maybeFinalize can run.
func (m *Manager) handleFastPath() {
	if _, ok := m.pend.FastPending(); !ok {
		return
	}
	if m.sup.Running(supervisor.ServiceManager) {
		if !m.serviceManagerSignalled {
			if c := m.sup.Get(supervisor.ServiceManager); c.Running {
				syscall.Kill(c.Pid, syscall.SIGTERM)
			}
			m.serviceManagerSignalled = true
		}
		return
	}
	if !m.sup.Running(supervisor.Cyclog) {
		return
	}
	// Service manager is gone: put the last-resort descriptors back and
	// close the pipe so the logger drains it, reads EOF and exits.
	if m.pipe != nil {
		if err := m.pipe.Restore(); err != nil {
			logger.Debugf("restore log pipe: %v", err)
		}
	}
}

// maybeFinalize reports (true, err) when fast_* is latched and both
// logger and service-manager have been reaped: it restores the
// last-resort descriptors and invokes the shutdown finalizer, which does
// not return on success.
func (m *Manager) maybeFinalize() (bool, error) {
	fast, ok := m.pend.FastPending()
	if !ok {
		return false, nil
	}
	if m.sup.Running(supervisor.ServiceManager) || m.sup.Running(supervisor.Cyclog) {
		return false, nil
	}
	if m.Role != System {
		return true, nil
	}
	if err := m.pipe.Restore(); err != nil {
		logger.Debugf("restore log pipe: %v", err)
	}
	if err := finalize.Run(fast); err != nil {
		logger.Noticef("finalize failed: %v", err)
		return true, err
	}
	return true, nil
}

// dispatchOne consumes the single highest-priority pending intent,
// forking a one-shot control helper for it, unless a control helper is
// already running.
func (m *Manager) dispatchOne() {
	if m.sup.Running(supervisor.ControlHelper) {
		return
	}

	var chosen intent.Intent
	if m.pend.Has(intent.Init) {
		chosen = intent.Init
	} else if next, ok := m.pend.Next(); ok {
		chosen = next
	} else {
		return
	}

	cmd, err := control.Build(chosen, m.Role == User, m.origArgv)
	if err != nil {
		logger.Debugf("control dispatch: %v", err)
		m.pend.Clear(chosen)
		return
	}

	c := exec.Command(cmd.Argv[0], cmd.Argv[1:]...)
	if err := c.Start(); err != nil {
		logger.Debugf("start control helper %v: %v", cmd.Argv, err)
		m.pend.Clear(chosen)
		return
	}
	m.sup.Start(supervisor.ControlHelper, c.Process.Pid)
	m.pend.Clear(chosen)
	// The helper's deadline is its own: Build encoded it as the --alarm
	// flag, and nothing here tracks or cancels a running helper.
}
