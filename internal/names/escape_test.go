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

package names

import (
	"testing"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type EscapeSuite struct{}

var _ = check.Suite(&EscapeSuite{})

func (s *EscapeSuite) TestAltFoldsSlashToDash(c *check.C) {
	c.Check(Escape("/", true), check.Equals, "-")
	c.Check(Escape("/dev/ada0p3", true), check.Equals, "-dev-ada0p3")
}

func (s *EscapeSuite) TestAltHexEscapesLiteralDash(c *check.C) {
	c.Check(Escape("a-b", true), check.Equals, "a\\2db")
}

func (s *EscapeSuite) TestNormalLeavesSlashAndDash(c *check.C) {
	c.Check(Escape("/etc/fstab", false), check.Equals, "/etc/fstab")
	c.Check(Escape("a-b", false), check.Equals, "a-b")
}

func (s *EscapeSuite) TestRoundTrip(c *check.C) {
	for _, alt := range []bool{true, false} {
		for _, raw := range []string{"/", "/dev/ada0p3", "a-b", "weird byte!", "plain"} {
			got := Unescape(Escape(raw, alt), alt)
			c.Check(got, check.Equals, raw)
		}
	}
}

func (s *EscapeSuite) TestSubstituteTokenTable(c *check.C) {
	n := New("/etc/systemd/system/ssh@22.service", "alice", "deadbeef")
	c.Check(n.Substitute("%p"), check.Equals, "ssh")
	c.Check(n.Substitute("%i"), check.Equals, "22")
	c.Check(n.Substitute("100%%"), check.Equals, "100%")
	c.Check(n.Substitute("%z"), check.Equals, "%z")
}
