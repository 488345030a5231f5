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

package manager

import (
	"io"
	"os/exec"
	"testing"
	"time"

	check "gopkg.in/check.v1"

	"github.com/nisbet-hubbard/nosh/internal/intent"
	"github.com/nisbet-hubbard/nosh/internal/supervisor"
)

func Test(t *testing.T) { check.TestingT(t) }

type ManagerSuite struct{}

var _ = check.Suite(&ManagerSuite{})

// spawnBlocked starts a real child that blocks reading stdin until its
// write end is closed or it is signalled, so tests can exercise the
// real SIGTERM/reap path without touching any binary the manager itself
// would normally fork.
func spawnBlocked(c *check.C) (*exec.Cmd, *io.PipeWriter) {
	r, w := io.Pipe()
	cmd := exec.Command("cat")
	cmd.Stdin = r
	c.Assert(cmd.Start(), check.IsNil)
	return cmd, w
}

func containsRole(roles []supervisor.Role, want supervisor.Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

// pollReaped polls ReapAll (never cmd.Wait, which would race the
// supervisor's own waitpid(-1) for the same pid) until want appears
// among the reaped roles.
func pollReaped(c *check.C, m *Manager, want supervisor.Role) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if containsRole(m.sup.ReapAll(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	c.Fatalf("role %v was not reaped in time", want)
}

// Scenario 5: a SIGCHLD arrives while fast_reboot is latched and the
// service manager is still alive. handleFastPath must signal the
// service manager exactly once (idempotent across turns), the loop
// must not restart it while fast_* stays pending, the logger keeps
// running until the service manager has also been reaped, and only
// once both are gone does the intent report as finalizable.
func (s *ManagerSuite) TestFastRebootDrainsThenFinalizes(c *check.C) {
	svcCmd, svcPipe := spawnBlocked(c)
	defer svcPipe.Close()
	logCmd, logPipe := spawnBlocked(c)
	defer logPipe.Close()

	m := &Manager{Role: User, sup: supervisor.New()}
	m.sup.Start(supervisor.ServiceManager, svcCmd.Process.Pid)
	m.sup.Start(supervisor.Cyclog, logCmd.Process.Pid)
	m.pend.Add(intent.FastReboot)

	// First turn: the service manager is still running, so it is
	// signalled exactly once.
	m.handleFastPath()
	c.Check(m.serviceManagerSignalled, check.Equals, true)

	pollReaped(c, m, supervisor.ServiceManager)

	// The loop must not restart the service manager while fast_* is
	// still latched.
	m.ensureChildrenStarted()
	c.Check(m.sup.Running(supervisor.ServiceManager), check.Equals, false)

	// Calling handleFastPath again must not re-signal (there is nothing
	// left to signal: serviceManagerSignalled stays latched and the
	// branch that would resend is unreachable now that the role isn't
	// running), and finalize must not fire while the logger still runs.
	m.handleFastPath()
	c.Check(m.serviceManagerSignalled, check.Equals, true)

	done, err := m.maybeFinalize()
	c.Check(done, check.Equals, false)
	c.Check(err, check.IsNil)

	// Once the logger exits too, finalize is reported ready.
	logPipe.Close()
	pollReaped(c, m, supervisor.Cyclog)

	done, err = m.maybeFinalize()
	c.Check(done, check.Equals, true)
	c.Check(err, check.IsNil)
}
