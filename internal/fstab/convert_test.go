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

package fstab

import (
	"runtime"
	"strings"
	"testing"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type ConvertSuite struct{}

var _ = check.Suite(&ConvertSuite{})

func (s *ConvertSuite) findByPrefix(c *check.C, gens []GeneratedBundle, prefix string) GeneratedBundle {
	for _, g := range gens {
		if len(g.Name) >= len(prefix) && g.Name[:len(prefix)] == prefix {
			return g
		}
	}
	c.Fatalf("no generated bundle with prefix %q among %v", prefix, bundleNames(gens))
	return GeneratedBundle{}
}

func bundleNames(gens []GeneratedBundle) []string {
	var out []string
	for _, g := range gens {
		out = append(out, g.Name)
	}
	return out
}

// Scenario 3: "/dev/ada0p2 / ufs rw 1 1" produces mount@- and fsck@-,
// with fsck@- ordered before mount@- and the mount script as specified.
func (s *ConvertSuite) TestRootMountAndFsck(c *check.C) {
	if runtime.GOOS == "linux" {
		c.Skip("scenario 3 expects BSD-style mount -o update semantics")
	}
	records, err := ParseFile(strings.NewReader("/dev/ada0p2 / ufs rw 1 1\n"))
	c.Assert(err, check.IsNil)
	c.Assert(records, check.HasLen, 1)

	gens := Convert(records, "/etc/service-bundles/targets")

	mount := s.findByPrefix(c, gens, "mount@")
	fsck := s.findByPrefix(c, gens, "fsck@")
	c.Check(mount.Name, check.Equals, "mount@-")
	c.Check(fsck.Name, check.Equals, "fsck@-")
	c.Check(mount.Bundle.Scripts["start"], check.Equals,
		"#!/bin/nosh\nmount\n-t ufs\n-o rw\n-o update\n-o rw\n/dev/ada0p2\n/\n")
	c.Check(fsck.Before, check.DeepEquals, []string{"mount@-"})
}

// Scenario 4: a swap row with discard and priority options produces a
// swap@ bundle wanted by swapauto.target.
func (s *ConvertSuite) TestSwapBundle(c *check.C) {
	records, err := ParseFile(strings.NewReader("/dev/ada0p3 none swap sw,pri=5,discard 0 0\n"))
	c.Assert(err, check.IsNil)
	c.Assert(records, check.HasLen, 1)

	gens := Convert(records, "/etc/service-bundles/targets")
	swap := s.findByPrefix(c, gens, "swap@")

	c.Check(swap.Bundle.Scripts["start"], check.Equals,
		"#!/bin/nosh\nswapon\n--discard\n--priority 5\n/dev/ada0p3\n")
	c.Check(swap.WantedBy, check.DeepEquals, []string{"swapauto.target"})
}
