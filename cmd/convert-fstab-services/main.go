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

// Command convert-fstab-services reads /etc/fstab and writes the mount,
// fsck, swap, and dump bundles it implies.
package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/nisbet-hubbard/nosh/dirs"
	"github.com/nisbet-hubbard/nosh/internal/exitcode"
	"github.com/nisbet-hubbard/nosh/internal/fstab"
)

type options struct {
	Fstab      string `long:"fstab" description:"path to the fstab file to read"`
	BundleRoot string `long:"bundle-root" description:"directory new bundles are written under"`
	Overwrite  bool   `long:"overwrite" description:"replace existing bundles of the same name"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(exitcode.Usage)
	}

	path := opts.Fstab
	if path == "" {
		path = dirs.FstabFile
	}
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "convert-fstab-services: FATAL: %v\n", err)
		os.Exit(exitcode.TemporaryFailure)
	}
	defer f.Close()

	records, err := fstab.ParseFile(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "convert-fstab-services: FATAL: %v\n", err)
		os.Exit(exitcode.PermanentFailure)
	}

	root := opts.BundleRoot
	if root == "" {
		root = dirs.ServiceBundlesDir
	}
	gens := fstab.Convert(records, root)
	if err := fstab.WriteAll(gens, root, opts.Overwrite); err != nil {
		fmt.Fprintf(os.Stderr, "convert-fstab-services: FATAL: %v\n", err)
		os.Exit(exitcode.PermanentFailure)
	}
}
