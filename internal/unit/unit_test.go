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

package unit

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type UnitSuite struct{}

var _ = check.Suite(&UnitSuite{})

func (s *UnitSuite) TestParseAppendsRepeatedKeysInOrder(c *check.C) {
	src := "[Service]\n" +
		"# a comment\n" +
		"ExecStart=/bin/echo one\n" +
		"ExecStart=/bin/echo two\n" +
		"; another comment\n" +
		"Type = simple\n"
	d, err := Parse("test", bufio.NewScanner(strings.NewReader(src)))
	c.Assert(err, check.IsNil)

	c.Check(d.Values("service", "execstart"), check.DeepEquals,
		[]string{"/bin/echo one", "/bin/echo two"})
	v, ok := d.Value("Service", "Type")
	c.Check(ok, check.Equals, true)
	c.Check(v, check.Equals, "simple")
}

func (s *UnitSuite) TestParseRejectsKeyOutsideSection(c *check.C) {
	_, err := Parse("test", bufio.NewScanner(strings.NewReader("Foo=bar\n")))
	c.Assert(err, check.NotNil)
}

func (s *UnitSuite) TestParseRejectsUnterminatedSection(c *check.C) {
	_, err := Parse("test", bufio.NewScanner(strings.NewReader("[Service\n")))
	c.Assert(err, check.NotNil)
}

func (s *UnitSuite) TestUnusedKeysTracksUnreadOnly(c *check.C) {
	src := "[Service]\nExecStart=/bin/true\nType=simple\n"
	d, err := Parse("test", bufio.NewScanner(strings.NewReader(src)))
	c.Assert(err, check.IsNil)
	d.Value("Service", "ExecStart")

	c.Check(d.UnusedKeys(), check.DeepEquals, []string{"[service] type"})
}

func (s *UnitSuite) TestTemplateCandidatesFallsBackToBareTemplate(c *check.C) {
	c.Check(templateCandidates("ssh.service"), check.DeepEquals, []string{"ssh.service"})
	c.Check(templateCandidates("ssh@22.service"), check.DeepEquals,
		[]string{"ssh@22.service", "ssh@.service"})
}

func (s *UnitSuite) TestLoadProbesSearchPathAndFallsBackToTemplate(c *check.C) {
	dir := c.MkDir()
	c.Assert(os.WriteFile(filepath.Join(dir, "ssh@.service"), []byte("[Service]\nExecStart=/usr/sbin/sshd\n"), 0644), check.IsNil)

	other := c.MkDir()
	d, err := Load("ssh@22.service", []string{other, dir})
	c.Assert(err, check.IsNil)

	v, ok := d.Value("Service", "ExecStart")
	c.Check(ok, check.Equals, true)
	c.Check(v, check.Equals, "/usr/sbin/sshd")
}

func (s *UnitSuite) TestLoadPrefersLiteralInstanceOverTemplate(c *check.C) {
	dir := c.MkDir()
	c.Assert(os.WriteFile(filepath.Join(dir, "ssh@.service"), []byte("[Service]\nExecStart=/usr/sbin/sshd --template\n"), 0644), check.IsNil)
	c.Assert(os.WriteFile(filepath.Join(dir, "ssh@22.service"), []byte("[Service]\nExecStart=/usr/sbin/sshd --instance\n"), 0644), check.IsNil)

	d, err := Load("ssh@22.service", []string{dir})
	c.Assert(err, check.IsNil)
	v, _ := d.Value("Service", "ExecStart")
	c.Check(v, check.Equals, "/usr/sbin/sshd --instance")
}

func (s *UnitSuite) TestLoadByExplicitPath(c *check.C) {
	dir := c.MkDir()
	path := filepath.Join(dir, "custom.service")
	c.Assert(os.WriteFile(path, []byte("[Service]\nExecStart=/bin/true\n"), 0644), check.IsNil)

	d, err := Load(path, nil)
	c.Assert(err, check.IsNil)
	v, _ := d.Value("Service", "ExecStart")
	c.Check(v, check.Equals, "/bin/true")
}
