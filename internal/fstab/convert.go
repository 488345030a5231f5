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
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/nisbet-hubbard/nosh/internal/bundle"
	"github.com/nisbet-hubbard/nosh/internal/names"
)

// GeneratedBundle is one bundle this package decided to emit, along with
// the relation links it still owes other bundles once the whole fstab
// has been scanned (inter-ordering is only resolvable once every bundle
// name is known).
type GeneratedBundle struct {
	Name   string
	Bundle *bundle.Bundle

	// Where is the mount point a mount@ bundle owns, used to derive the
	// after/stopped-by links between nested mounts once the whole batch
	// is known.
	Where string

	After     []string
	Before    []string
	WantedBy  []string
	StoppedBy []string
}

// Convert translates every eligible fstab record into its bundle set.
// bundleRoot is the directory new bundles are created
// under (e.g. /etc/service-bundles/targets).
func Convert(records []Record, bundleRoot string) []GeneratedBundle {
	var out []GeneratedBundle
	for _, r := range records {
		out = append(out, convertRecord(r, bundleRoot)...)
	}
	return out
}

func convertRecord(r Record, bundleRoot string) []GeneratedBundle {
	var gen []GeneratedBundle

	switch r.DumpKind {
	case "rw", "ro", "rq", "??":
		srcName := "mount@" + names.Escape(r.Target, true)
		fsckName := "fsck@" + names.Escape(r.Target, true)
		gbdeName := "gbde@" + names.Escape(r.Source, true)
		geliName := "geli@" + names.Escape(r.Source, true)

		var preReqs []string
		if r.IsGBDE {
			gen = append(gen, makeGBDEBundle(gbdeName, r, bundleRoot))
			preReqs = append(preReqs, gbdeName)
		}
		if r.IsGELI {
			gen = append(gen, makeGELIBundle(geliName, r, bundleRoot))
			preReqs = append(preReqs, geliName)
		}

		var fsckBefore []string
		if r.Passno > 0 {
			fsck := makeFsckBundle(fsckName, r, bundleRoot)
			fsck.Before = append(fsck.Before, srcName)
			fsck.After = append(fsck.After, preReqs...)
			gen = append(gen, fsck)
			fsckBefore = []string{fsckName}
		}

		mount := makeMountBundle(srcName, r, bundleRoot)
		mount.After = append(mount.After, preReqs...)
		mount.After = append(mount.After, fsckBefore...)
		if r.IsFuse {
			mount.After = append(mount.After, "kmod@fuse")
		}
		target := "local-fs.target"
		pre := "local-fs-pre.target"
		if _, netdev := hasOption(r.Options, "_netdev"); netdev || strings.HasPrefix(r.FSType, "nfs") || strings.HasPrefix(r.FSType, "cifs") {
			target = "remote-fs.target"
			pre = "remote-fs-pre.target"
		}
		mount.After = append(mount.After, pre)
		mount.WantedBy = append(mount.WantedBy, target)
		gen = append(gen, mount)

	case "sw":
		swapName := "swap@" + names.Escape(r.Source, true)
		dumpName := "dump@" + names.Escape(r.Source, true)

		swap := makeSwapBundle(swapName, r, bundleRoot)
		wantedBy := "swapauto.target"
		if _, late := hasOption(r.Options, "late"); late {
			wantedBy = "swaplate.target"
		}
		swap.WantedBy = append(swap.WantedBy, wantedBy)
		gen = append(gen, swap)
		gen = append(gen, makeDumpBundle(dumpName, r, bundleRoot))
	}

	return gen
}

func fsckMode() []string {
	if runtime.GOOS == "linux" {
		return []string{"-p"}
	}
	return []string{"-C", "-p"}
}

func makeGBDEBundle(name string, r Record, root string) GeneratedBundle {
	b := bundle.New(filepath.Join(root, name), name)
	b.Scripts["start"] = lines("gbde", "attach", r.Source)
	b.Scripts["stop"] = lines("gbde", "detach", r.Source)
	return GeneratedBundle{Name: name, Bundle: b}
}

func makeGELIBundle(name string, r Record, root string) GeneratedBundle {
	b := bundle.New(filepath.Join(root, name), name)
	b.Scripts["start"] = lines("geli", "attach", r.Source)
	b.Scripts["stop"] = lines("geli", "detach", "-f", r.Source)
	return GeneratedBundle{Name: name, Bundle: b}
}

func makeFsckBundle(name string, r Record, root string) GeneratedBundle {
	b := bundle.New(filepath.Join(root, name), name)
	args := append([]string{"monitored-fsck"}, fsckMode()...)
	args = append(args, r.Target)
	b.Scripts["start"] = lines(args...)
	b.Flags["remain"] = true
	return GeneratedBundle{Name: name, Bundle: b}
}

func makeMountBundle(name string, r Record, root string) GeneratedBundle {
	b := bundle.New(filepath.Join(root, name), name)

	startArgs := []string{"mount", "-t " + r.FSType}
	for _, opt := range r.Options {
		startArgs = append(startArgs, "-o "+opt)
	}
	if r.IsRoot || r.IsAPI {
		if runtime.GOOS == "linux" {
			startArgs = append(startArgs, "-o remount")
		} else {
			startArgs = append(startArgs, "-o update")
		}
	}
	if r.IsRoot {
		startArgs = append(startArgs, "-o rw")
	}
	startArgs = append(startArgs, r.Source, r.Target)
	b.Scripts["start"] = lines(startArgs...)

	if r.IsRoot {
		b.Scripts["stop"] = lines("mount", "-o ro", r.Source, r.Target)
	} else if r.IsAPI {
		b.Scripts["stop"] = lines("true")
	} else {
		b.Scripts["stop"] = lines("umount", r.Target)
	}
	b.Flags["remain"] = true
	return GeneratedBundle{Name: name, Bundle: b, Where: r.Target}
}

func makeSwapBundle(name string, r Record, root string) GeneratedBundle {
	b := bundle.New(filepath.Join(root, name), name)
	args := []string{"swapon"}
	if _, ok := hasOption(r.Options, "discard"); ok {
		args = append(args, "--discard")
	}
	if pri, ok := hasOption(r.Options, "pri"); ok {
		if _, err := strconv.Atoi(pri); err == nil {
			args = append(args, "--priority "+pri)
		}
	}
	args = append(args, r.Source)
	b.Scripts["start"] = lines(args...)
	b.Scripts["stop"] = lines("swapoff", r.Source)
	b.Flags["remain"] = true
	return GeneratedBundle{Name: name, Bundle: b}
}

func makeDumpBundle(name string, r Record, root string) GeneratedBundle {
	b := bundle.New(filepath.Join(root, name), name)
	b.Scripts["start"] = lines("dumpon", r.Source)
	b.Scripts["stop"] = lines("dumpon", "off", r.Source)
	b.Flags["remain"] = true
	return GeneratedBundle{Name: name, Bundle: b}
}
