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

package eventqueue

import (
	"os"
	"syscall"
	"testing"
	"time"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type QueueSuite struct{}

var _ = check.Suite(&QueueSuite{})

func (s *QueueSuite) TestWaitReturnsDeliveredSignal(c *check.C) {
	q := New([]os.Signal{syscall.SIGUSR1})
	defer q.Stop()

	c.Assert(syscall.Kill(os.Getpid(), syscall.SIGUSR1), check.IsNil)

	sigs := q.Wait()
	c.Check(sigs, check.DeepEquals, []syscall.Signal{syscall.SIGUSR1})
}

// A signal arriving while an Interruptible watcher is armed cancels the
// context, and the signal is not lost: the next Wait returns it without
// blocking.
func (s *QueueSuite) TestInterruptibleCancelsAndStashes(c *check.C) {
	q := New([]os.Signal{syscall.SIGUSR2})
	defer q.Stop()

	ctx, stop := q.Interruptible()
	c.Assert(syscall.Kill(os.Getpid(), syscall.SIGUSR2), check.IsNil)

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		c.Fatalf("signal did not cancel the interruptible context")
	}
	stop()

	sigs := q.Wait()
	c.Check(sigs, check.DeepEquals, []syscall.Signal{syscall.SIGUSR2})
}

// Stopping an unfired watcher leaves the queue fully usable: a later
// delivery is still observed by Wait.
func (s *QueueSuite) TestInterruptibleStopWithoutSignal(c *check.C) {
	q := New([]os.Signal{syscall.SIGUSR1})
	defer q.Stop()

	_, stop := q.Interruptible()
	stop()

	c.Assert(syscall.Kill(os.Getpid(), syscall.SIGUSR1), check.IsNil)
	sigs := q.Wait()
	c.Check(sigs, check.DeepEquals, []syscall.Signal{syscall.SIGUSR1})
}
