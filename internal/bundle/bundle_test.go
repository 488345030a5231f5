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

package bundle

import (
	"os"
	"path/filepath"
	"testing"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type BundleSuite struct{}

var _ = check.Suite(&BundleSuite{})

func (s *BundleSuite) TestWriteCreatesScriptsAndFlags(c *check.C) {
	root := c.MkDir()
	dir := filepath.Join(root, "ssh")
	b := New(dir, "ssh")
	b.Scripts["run"] = "#!/bin/nosh\nsetsid\n/usr/sbin/sshd\n"
	b.Flags["remain"] = true

	c.Assert(b.Write(false), check.IsNil)

	got, err := os.ReadFile(filepath.Join(dir, "service", "run"))
	c.Assert(err, check.IsNil)
	c.Check(string(got), check.Equals, b.Scripts["run"])

	_, err = os.Stat(filepath.Join(dir, "service", "remain"))
	c.Assert(err, check.IsNil)

	for _, rel := range AllRelations {
		info, err := os.Stat(filepath.Join(dir, string(rel)))
		c.Assert(err, check.IsNil)
		c.Check(info.IsDir(), check.Equals, true)
	}
}

func (s *BundleSuite) TestWriteRefusesExistingUnlessOverwrite(c *check.C) {
	root := c.MkDir()
	dir := filepath.Join(root, "ssh")
	c.Assert(New(dir, "ssh").Write(false), check.IsNil)

	err := New(dir, "ssh").Write(false)
	c.Assert(err, check.NotNil)

	err = New(dir, "ssh").Write(true)
	c.Assert(err, check.IsNil)
}

func (s *BundleSuite) TestCreateLinkRefusesSelfLink(c *check.C) {
	root := c.MkDir()
	dir := filepath.Join(root, "ssh")
	c.Assert(New(dir, "ssh").Write(false), check.IsNil)

	err := CreateLink(dir, "ssh", Wants, filepath.Join(root, "ssh"), false)
	c.Assert(err, check.IsNil)

	_, statErr := os.Lstat(filepath.Join(dir, "wants", "ssh"))
	c.Check(os.IsNotExist(statErr), check.Equals, true)
}

func (s *BundleSuite) TestCreateLinkToOtherBundle(c *check.C) {
	root := c.MkDir()
	dir := filepath.Join(root, "ssh")
	c.Assert(New(dir, "ssh").Write(false), check.IsNil)

	err := CreateLink(dir, "ssh", After, filepath.Join(root, "network.target"), false)
	c.Assert(err, check.IsNil)

	target, err := os.Readlink(filepath.Join(dir, "after", "network.target"))
	c.Assert(err, check.IsNil)
	c.Check(target, check.Equals, filepath.Join(root, "network.target"))
}

func (s *BundleSuite) TestMakeMountInterdependenciesStopsAtRootWhenPrevented(c *check.C) {
	root := c.MkDir()
	dir := filepath.Join(root, "mount@-var")
	c.Assert(New(dir, "mount@-var").Write(false), check.IsNil)

	mountBundleOf := map[string]string{
		"/":    "mount@-",
		"/var": "mount@-var",
	}
	err := MakeMountInterdependencies(dir, "mount@-var", "/var", mountBundleOf, root, true, false)
	c.Assert(err, check.IsNil)

	_, statErr := os.Lstat(filepath.Join(dir, "after", "mount@-"))
	c.Check(os.IsNotExist(statErr), check.Equals, true)
}
