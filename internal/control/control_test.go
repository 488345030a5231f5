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

package control

import (
	"testing"

	check "gopkg.in/check.v1"

	"github.com/nisbet-hubbard/nosh/internal/intent"
)

func Test(t *testing.T) { check.TestingT(t) }

type ControlSuite struct{}

var _ = check.Suite(&ControlSuite{})

func (s *ControlSuite) TestBuildInitCarriesOrigArgv(c *check.C) {
	cmd, err := Build(intent.Init, false, []string{"--some-flag"})
	c.Assert(err, check.IsNil)
	c.Check(cmd.Argv, check.DeepEquals,
		[]string{"move-to-control-group", "system-control.slice", "system-control", "init", "--alarm=420", "--some-flag"})
	c.Check(cmd.Alarm, check.Equals, 420)
}

func (s *ControlSuite) TestBuildInitUserAppendsFlag(c *check.C) {
	cmd, err := Build(intent.Init, true, nil)
	c.Assert(err, check.IsNil)
	c.Check(cmd.Argv, check.DeepEquals,
		[]string{"move-to-control-group", "system-control.slice", "system-control", "init", "--alarm=420", "--user"})
}

func (s *ControlSuite) TestBuildNormalTarget(c *check.C) {
	cmd, err := Build(intent.Normal, false, nil)
	c.Assert(err, check.IsNil)
	c.Check(cmd.Argv, check.DeepEquals, []string{"system-control", "start", "--verbose", "--alarm=180", "default.target"})
	c.Check(cmd.Alarm, check.Equals, 180)
}

func (s *ControlSuite) TestBuildUserAppendsFlagBeforeTarget(c *check.C) {
	cmd, err := Build(intent.Halt, true, nil)
	c.Assert(err, check.IsNil)
	c.Check(cmd.Argv, check.DeepEquals, []string{"system-control", "start", "--verbose", "--alarm=180", "--user", "halt.target"})
}

func (s *ControlSuite) TestBuildUnknownIntentFails(c *check.C) {
	_, err := Build(intent.Unknown, false, nil)
	c.Assert(err, check.NotNil)
}

func (s *ControlSuite) TestBuildChildChangedHasNoDispatchMapping(c *check.C) {
	_, err := Build(intent.ChildChanged, false, nil)
	c.Assert(err, check.NotNil)
}
