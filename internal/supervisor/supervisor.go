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

// Package supervisor is the child supervisor: it maintains at most
// one live pid per role, reaps exited children before any intent is
// dispatched in the same turn, and throttles logger respawns after an
// abnormal exit.
//
// The supervisor is touched only from the manager's single event-loop
// goroutine, so this type carries no mutex: the child table is owned
// state threaded through the loop, not shared state.
package supervisor

import (
	"context"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/nisbet-hubbard/nosh/internal/logger"
)

// Role identifies one of the three roles the manager supervises.
type Role int

const (
	ServiceManager Role = iota
	Cyclog
	ControlHelper
)

func (r Role) String() string {
	switch r {
	case ServiceManager:
		return "service-manager"
	case Cyclog:
		return "cyclog"
	default:
		return "control-helper"
	}
}

// Child tracks one role's live process and its last exit status.
type Child struct {
	Pid        int
	Running    bool
	ExitStatus unix.WaitStatus
	Exited     bool
}

// Supervisor maintains at most one Child per Role.
type Supervisor struct {
	children map[Role]*Child

	// cyclogThrottle gates logger respawn to no more than once per 500ms
	// after an abnormal exit: a token-bucket limiter
	// generalizes the bare nanosleep into a documented rate, and its
	// blocking Wait is the respawn delay itself.
	cyclogThrottle *rate.Limiter
	cyclogStableAt time.Time
}

// New returns an empty Supervisor.
func New() *Supervisor {
	return &Supervisor{
		children:       make(map[Role]*Child),
		cyclogThrottle: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// Get returns the tracked Child for role, creating an empty (not running)
// entry if none exists yet.
func (s *Supervisor) Get(role Role) *Child {
	c, ok := s.children[role]
	if !ok {
		c = &Child{}
		s.children[role] = c
	}
	return c
}

// Running reports whether role currently has a live pid.
func (s *Supervisor) Running(role Role) bool {
	return s.Get(role).Running
}

// Start records that role was forked as pid. Calling Start while role is
// already Running is a programmer error: the at-most-one-pid invariant is
// the caller's responsibility to check first via Running.
func (s *Supervisor) Start(role Role, pid int) {
	c := s.Get(role)
	c.Pid = pid
	c.Running = true
	c.Exited = false
	if role == Cyclog {
		s.cyclogStableAt = time.Now().Add(stableAfter)
	}
}

const stableAfter = 60 * time.Second

// ReapAll reaps before any intent is dispatched in the same turn: loop
// waitpid(-1, WNOHANG) until no more children report, clearing whichever
// role, if any, matches each reaped pid. Returns the set of roles that
// transitioned from running to exited this turn.
func (s *Supervisor) ReapAll() []Role {
	var reaped []Role
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		if pid <= 0 || err != nil {
			break
		}
		for role, c := range s.children {
			if c.Running && c.Pid == pid {
				c.Running = false
				c.Exited = true
				c.ExitStatus = ws
				reaped = append(reaped, role)
				logger.Debugf("reaped %s pid %d status %v", role, pid, ws)
			}
		}
	}
	return reaped
}

// AbnormalExit reports whether the Cyclog child's last recorded exit was
// a signal or non-zero status, the condition that gates the 500ms
// respawn throttle.
func (s *Supervisor) AbnormalExit(role Role) bool {
	c := s.Get(role)
	if !c.Exited {
		return false
	}
	return c.ExitStatus.Signaled() || c.ExitStatus.ExitStatus() != 0
}

// WaitCyclogRespawn blocks until the respawn throttle admits another
// spawn attempt, at most one refill interval away, and reports whether
// the spawn may proceed. The wait is the 500ms respawn delay after an
// abnormal logger exit, and it must stay interruptible: cancelling ctx
// (on signal arrival) preempts the sleep and returns false so the
// caller handles the pending intent first. A logger that has run stably
// past stableAfter gets its burst allowance back so a later one-off
// crash respawns without delay.
func (s *Supervisor) WaitCyclogRespawn(ctx context.Context) bool {
	if time.Now().After(s.cyclogStableAt) {
		s.cyclogThrottle.SetBurst(1)
	}
	return s.cyclogThrottle.Wait(ctx) == nil
}

// Clear drops role's tracked state entirely; a later Get starts from an
// empty, not-running entry.
func (s *Supervisor) Clear(role Role) {
	delete(s.children, role)
}
