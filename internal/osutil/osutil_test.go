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

package osutil

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type OsutilSuite struct{}

var _ = check.Suite(&OsutilSuite{})

func (s *OsutilSuite) TestFileExistsAndIsDirectory(c *check.C) {
	dir := c.MkDir()
	file := filepath.Join(dir, "f")
	c.Assert(os.WriteFile(file, []byte("x"), 0644), check.IsNil)

	c.Check(FileExists(dir), check.Equals, true)
	c.Check(FileExists(file), check.Equals, true)
	c.Check(FileExists(filepath.Join(dir, "missing")), check.Equals, false)

	c.Check(IsDirectory(dir), check.Equals, true)
	c.Check(IsDirectory(file), check.Equals, false)
}

func (s *OsutilSuite) TestAtomicWriteFileReplacesContentAndMode(c *check.C) {
	dir := c.MkDir()
	path := filepath.Join(dir, "out")
	c.Assert(os.WriteFile(path, []byte("old"), 0644), check.IsNil)

	c.Assert(AtomicWriteFile(path, []byte("new"), 0600), check.IsNil)

	got, err := os.ReadFile(path)
	c.Assert(err, check.IsNil)
	c.Check(string(got), check.Equals, "new")

	fi, err := os.Stat(path)
	c.Assert(err, check.IsNil)
	c.Check(fi.Mode().Perm(), check.Equals, os.FileMode(0600))

	// No stray temp files left behind in the directory.
	entries, err := os.ReadDir(dir)
	c.Assert(err, check.IsNil)
	c.Check(entries, check.HasLen, 1)
}

func (s *OsutilSuite) TestCloseOnExecSetsAndClearsFlag(c *check.C) {
	dir := c.MkDir()
	f, err := os.Create(filepath.Join(dir, "fd"))
	c.Assert(err, check.IsNil)
	defer f.Close()
	fd := int(f.Fd())

	c.Assert(CloseOnExec(fd, true), check.IsNil)
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	c.Assert(err, check.IsNil)
	c.Check(flags&unix.FD_CLOEXEC != 0, check.Equals, true)

	c.Assert(CloseOnExec(fd, false), check.IsNil)
	flags, err = unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	c.Assert(err, check.IsNil)
	c.Check(flags&unix.FD_CLOEXEC != 0, check.Equals, false)
}
