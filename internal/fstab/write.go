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

	"github.com/nisbet-hubbard/nosh/internal/bundle"
)

// WriteAll writes every generated bundle to disk and then resolves the
// relation links between them, since inter-ordering (gbde@/geli@ before
// fsck@/mount@, mount@ after its fsck@, etc.) can only be linked once all
// bundle names in the batch are known.
func WriteAll(gens []GeneratedBundle, bundleRoot string, overwrite bool) error {
	for _, g := range gens {
		if err := g.Bundle.Write(overwrite); err != nil {
			return err
		}
	}
	for _, g := range gens {
		dir := filepath.Join(bundleRoot, g.Name)
		for _, a := range g.After {
			if err := bundle.CreateLink(dir, g.Name, bundle.After, filepath.Join(bundleRoot, a), overwrite); err != nil {
				return err
			}
		}
		for _, b := range g.Before {
			if err := bundle.CreateLink(dir, g.Name, bundle.Before, filepath.Join(bundleRoot, b), overwrite); err != nil {
				return err
			}
		}
		for _, w := range g.WantedBy {
			if err := bundle.CreateLink(dir, g.Name, bundle.WantedBy, filepath.Join(bundleRoot, w), overwrite); err != nil {
				return err
			}
		}
		for _, sb := range g.StoppedBy {
			if err := bundle.CreateLink(dir, g.Name, bundle.StoppedBy, filepath.Join(bundleRoot, sb), overwrite); err != nil {
				return err
			}
		}
	}

	// Nested mounts depend on every ancestor mount point in the batch:
	// /var/log cannot come up before /var, and stops with it.
	mountBundleOf := map[string]string{}
	for _, g := range gens {
		if g.Where != "" {
			mountBundleOf[g.Where] = g.Name
		}
	}
	for _, g := range gens {
		if g.Where == "" {
			continue
		}
		dir := filepath.Join(bundleRoot, g.Name)
		if err := bundle.MakeMountInterdependencies(dir, g.Name, g.Where, mountBundleOf, bundleRoot, false, overwrite); err != nil {
			return err
		}
	}
	return nil
}
