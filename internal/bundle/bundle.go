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

// Package bundle is the bundle writer: it materializes a service
// directory (service/ scripts and flags, relation subdirs, an optional
// supervise symlink) on disk from the textual scripts the script
// composer (internal/script) produces.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nisbet-hubbard/nosh/dirs"
	"github.com/nisbet-hubbard/nosh/internal/errkind"
	"github.com/nisbet-hubbard/nosh/internal/osutil"
)

// Relation names the six relation subdirectories every bundle carries.
type Relation string

const (
	After      Relation = "after"
	Before     Relation = "before"
	Wants      Relation = "wants"
	WantedBy   Relation = "wanted-by"
	Conflicts  Relation = "conflicts"
	StoppedBy  Relation = "stopped-by"
)

var AllRelations = []Relation{After, Before, Wants, WantedBy, Conflicts, StoppedBy}

// Bundle is a directory under construction.
type Bundle struct {
	Dir  string // full path to the bundle directory
	Name string // bundle's own escaped name, for the self-link invariant

	Scripts map[string]string // service/{run,start,stop,restart}
	Flags   map[string]bool   // service/{remain,use_hangup,no_kill_signal}

	EarlySupervise bool
}

// New starts an empty Bundle rooted at dir.
func New(dir, name string) *Bundle {
	return &Bundle{
		Dir:     dir,
		Name:    name,
		Scripts: map[string]string{},
		Flags:   map[string]bool{},
	}
}

// Write materializes the bundle on disk. When overwrite is false and the
// directory already exists, it fails with "already exists". Directory
// creation uses mode 0755, script files 0755.
func (b *Bundle) Write(overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(b.Dir); err == nil {
			return errkind.New(errkind.IO, b.Dir, fmt.Errorf("already exists"))
		}
	}

	svcDir := filepath.Join(b.Dir, "service")
	if err := os.MkdirAll(svcDir, 0755); err != nil {
		return errkind.New(errkind.IO, svcDir, err)
	}
	for _, rel := range AllRelations {
		d := filepath.Join(b.Dir, string(rel))
		if err := os.MkdirAll(d, 0755); err != nil {
			return errkind.New(errkind.IO, d, err)
		}
	}

	for name, content := range b.Scripts {
		path := filepath.Join(svcDir, name)
		if err := osutil.AtomicWriteFile(path, []byte(content), 0755); err != nil {
			return errkind.New(errkind.IO, path, err)
		}
	}

	for name, present := range b.Flags {
		path := filepath.Join(svcDir, name)
		if present {
			if err := os.WriteFile(path, nil, 0644); err != nil {
				return errkind.New(errkind.IO, path, err)
			}
		} else {
			os.Remove(path)
		}
	}

	if b.EarlySupervise {
		link := filepath.Join(b.Dir, "supervise")
		target := filepath.Join(dirs.EarlySuperviseDir, b.Name)
		os.Remove(link)
		if err := os.Symlink(target, link); err != nil && !os.IsExist(err) {
			return errkind.New(errkind.IO, link, err)
		}
	}
	return nil
}

// CreateLink creates a single relation symlink inside bundle pointing at
// target (another bundle's path), idempotent under EEXIST when overwrite
// is true. A bundle is never allowed to link to itself: its own name
// must not appear in its own relation dirs.
func CreateLink(bundleDir, name string, rel Relation, target string, overwrite bool) error {
	if filepath.Base(target) == name {
		return nil
	}
	dir := filepath.Join(bundleDir, string(rel))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errkind.New(errkind.IO, dir, err)
	}
	link := filepath.Join(dir, filepath.Base(target))
	if overwrite {
		os.Remove(link)
	}
	if err := os.Symlink(target, link); err != nil {
		if os.IsExist(err) && overwrite {
			return nil
		}
		return errkind.New(errkind.IO, link, err)
	}
	return nil
}

// CreateLinks splits the space-separated names list and creates one link
// per item under subdir, resolving each name against bundleRoot to
// produce the link target.
func CreateLinks(bundleDir, selfName string, rel Relation, names string, bundleRoot string, overwrite bool) error {
	for _, n := range strings.Fields(names) {
		target := filepath.Join(bundleRoot, n)
		if err := CreateLink(bundleDir, selfName, rel, target, overwrite); err != nil {
			return err
		}
	}
	return nil
}

// MakeMountInterdependencies walks the filesystem path `where` upward
// from the mount bundle at bundleDir, creating after/ and stopped-by/
// links to each ancestor mount-point bundle on the way to "/"; the root
// mount itself is linked only when preventRootLink is false.
// mountBundleOf maps a filesystem path to the bundle name that owns it,
// if any.
func MakeMountInterdependencies(bundleDir, selfName, where string, mountBundleOf map[string]string, bundleRoot string, preventRootLink bool, overwrite bool) error {
	path := filepath.Clean(where)
	for {
		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		if parent == "/" && preventRootLink {
			break
		}
		if name, ok := mountBundleOf[parent]; ok && name != selfName {
			target := filepath.Join(bundleRoot, name)
			if err := CreateLink(bundleDir, selfName, After, target, overwrite); err != nil {
				return err
			}
			if err := CreateLink(bundleDir, selfName, StoppedBy, target, overwrite); err != nil {
				return err
			}
		}
		if parent == "/" {
			break
		}
		path = parent
	}
	return nil
}
