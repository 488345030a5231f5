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

package presets

import (
	"os"
	"path/filepath"
	"testing"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type PresetsSuite struct{}

var _ = check.Suite(&PresetsSuite{})

func (s *PresetsSuite) TestFirstMatchWins(c *check.C) {
	l := List{
		{Enable: true, Pattern: "ssh@*"},
		{Enable: false, Pattern: "*"},
	}
	c.Check(l.Enabled("ssh@22"), check.Equals, true)
	c.Check(l.Enabled("cron"), check.Equals, false)
}

func (s *PresetsSuite) TestNoMatchDefaultsDisabled(c *check.C) {
	l := List{{Enable: true, Pattern: "ssh@*"}}
	c.Check(l.Enabled("cron"), check.Equals, false)
}

func (s *PresetsSuite) TestQuestionMarkMatchesSingleChar(c *check.C) {
	c.Check(matchGlobAt("tty?", "tty1"), check.Equals, true)
	c.Check(matchGlobAt("tty?", "tty12"), check.Equals, false)
	c.Check(matchGlobAt("tty?", "tty"), check.Equals, false)
}

func (s *PresetsSuite) TestStarMatchesAcrossAtSign(c *check.C) {
	c.Check(matchGlobAt("getty@*", "getty@tty1"), check.Equals, true)
	c.Check(matchGlobAt("getty@*", "getty@"), check.Equals, true)
	c.Check(matchGlobAt("getty@*", "getty"), check.Equals, false)
}

func (s *PresetsSuite) TestLoadParsesYAMLInOrder(c *check.C) {
	dir := c.MkDir()
	path := filepath.Join(dir, "50-nosh.preset")
	content := "- enable: true\n  pattern: \"ssh@*\"\n- enable: false\n  pattern: \"*\"\n"
	c.Assert(os.WriteFile(path, []byte(content), 0644), check.IsNil)

	l, err := Load(path)
	c.Assert(err, check.IsNil)
	c.Assert(l, check.HasLen, 2)
	c.Check(l[0].Pattern, check.Equals, "ssh@*")
	c.Check(l[0].Enable, check.Equals, true)
	c.Check(l.Enabled("ssh@22"), check.Equals, true)
	c.Check(l.Enabled("other"), check.Equals, false)
}
