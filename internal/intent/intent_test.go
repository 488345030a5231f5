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

package intent

import (
	"runtime"
	"syscall"
	"testing"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type IntentSuite struct{}

var _ = check.Suite(&IntentSuite{})

func (s *IntentSuite) TestClassifySystemRealtimeOffsets(c *check.C) {
	c.Check(ClassifySystem(sigRTMin+0), check.Equals, Normal)
	c.Check(ClassifySystem(sigRTMin+15), check.Equals, FastReboot)
	c.Check(ClassifySystem(sigRTMin+10), check.Equals, Sysinit)
}

func (s *IntentSuite) TestClassifySystemNamedSignals(c *check.C) {
	c.Check(ClassifySystem(syscall.SIGCHLD), check.Equals, ChildChanged)
	c.Check(ClassifySystem(syscall.SIGWINCH), check.Equals, Kbrequest)
	if sigPower != 0 {
		c.Check(ClassifySystem(sigPower), check.Equals, PowerFailed)
	}
	c.Check(ClassifySystem(syscall.SIGINT), check.Equals, SecureAttention)
}

func (s *IntentSuite) TestClassifySystemTermIsPlatformDependent(c *check.C) {
	got := ClassifySystem(syscall.SIGTERM)
	if runtime.GOOS == "linux" {
		c.Check(got, check.Equals, Unknown)
	} else {
		c.Check(got, check.Equals, Halt)
	}
}

func (s *IntentSuite) TestClassifyUserCollapsesFastFamily(c *check.C) {
	c.Check(ClassifyUser(sigRTMin+3), check.Equals, Halt)
	c.Check(ClassifyUser(sigRTMin+13), check.Equals, FastHalt)
	c.Check(ClassifyUser(syscall.SIGTERM), check.Equals, Halt)
	c.Check(ClassifyUser(syscall.SIGCHLD), check.Equals, ChildChanged)
}

func (s *IntentSuite) TestClassifyDispatchesByRole(c *check.C) {
	c.Check(Classify(System, syscall.SIGWINCH), check.Equals, Kbrequest)
	c.Check(Classify(User, syscall.SIGHUP), check.Equals, Halt)
}

func (s *IntentSuite) TestSetAddIsIdempotentAndClearable(c *check.C) {
	var set Set
	set.Add(Halt)
	set.Add(Halt)
	c.Check(set.Has(Halt), check.Equals, true)
	c.Check(set.Empty(), check.Equals, false)

	set.Clear(Halt)
	c.Check(set.Has(Halt), check.Equals, false)
	c.Check(set.Empty(), check.Equals, true)
}

func (s *IntentSuite) TestSetNextReturnsHighestPriorityPending(c *check.C) {
	var set Set
	set.Add(Reboot)
	set.Add(Sysinit)
	next, ok := set.Next()
	c.Assert(ok, check.Equals, true)
	c.Check(next, check.Equals, Sysinit)
}

func (s *IntentSuite) TestSetFastPendingFindsAnyFastIntent(c *check.C) {
	var set Set
	_, ok := set.FastPending()
	c.Check(ok, check.Equals, false)

	set.Add(FastPoweroff)
	got, ok := set.FastPending()
	c.Assert(ok, check.Equals, true)
	c.Check(got, check.Equals, FastPoweroff)
}
