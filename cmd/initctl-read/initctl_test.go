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

package main

import (
	"encoding/binary"
	"testing"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type InitctlSuite struct{}

var _ = check.Suite(&InitctlSuite{})

func buildRecord(magic, cmd, runlevel, sleeptime uint32) []byte {
	buf := make([]byte, recordSize)
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], cmd)
	binary.LittleEndian.PutUint32(buf[8:12], runlevel)
	binary.LittleEndian.PutUint32(buf[12:16], sleeptime)
	return buf
}

// Scenario 6: a RUNLVL request with runlevel '3' forks telinit -3.
func (s *InitctlSuite) TestRunlevelRequestForksTelinit(c *check.C) {
	buf := buildRecord(initMagic, cmdRunlevel, uint32('3'), 0)
	r, err := parseRequest(buf)
	c.Assert(err, check.IsNil)
	c.Check(r.Cmd, check.Equals, int32(cmdRunlevel))
	c.Check(telinitArgv(r), check.DeepEquals, []string{"telinit", "-3"})
}

func (s *InitctlSuite) TestBadMagicRejected(c *check.C) {
	buf := buildRecord(0xdeadbeef, cmdRunlevel, uint32('3'), 0)
	_, err := parseRequest(buf)
	c.Assert(err, check.NotNil)
}

func (s *InitctlSuite) TestShortRecordRejected(c *check.C) {
	_, err := parseRequest(make([]byte, 10))
	c.Assert(err, check.NotNil)
}
