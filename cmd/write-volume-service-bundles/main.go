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

// Command write-volume-service-bundles writes the mount@ (and, for
// encrypted sources, gbde@/geli@) bundles for a single volume named
// directly on the command line, for removable media handled outside of
// /etc/fstab.
package main

import (
	"fmt"
	"os"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"github.com/nisbet-hubbard/nosh/dirs"
	"github.com/nisbet-hubbard/nosh/internal/exitcode"
	"github.com/nisbet-hubbard/nosh/internal/fstab"
)

type options struct {
	Options    string `short:"o" long:"options" description:"comma-separated mount options"`
	BundleRoot string `long:"bundle-root" description:"directory new bundles are written under"`
	Overwrite  bool   `long:"overwrite" description:"replace existing bundles of the same name"`
	Args       struct {
		FSType string `positional-arg-name:"fstype"`
		Source string `positional-arg-name:"source"`
		Target string `positional-arg-name:"target"`
	} `positional-args:"yes" required:"3"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(exitcode.Usage)
	}

	var opt []string
	if opts.Options != "" {
		opt = strings.Split(opts.Options, ",")
	}
	record := fstab.NewRecord(opts.Args.FSType, opts.Args.Source, opts.Args.Target, opt, 0)

	root := opts.BundleRoot
	if root == "" {
		root = dirs.ServiceBundlesDir
	}

	gens := fstab.Convert([]fstab.Record{record}, root)
	if len(gens) == 0 {
		fmt.Fprintln(os.Stderr, "write-volume-service-bundles: FATAL: nothing to do for this fstype")
		os.Exit(exitcode.PermanentFailure)
	}
	if err := fstab.WriteAll(gens, root, opts.Overwrite); err != nil {
		fmt.Fprintf(os.Stderr, "write-volume-service-bundles: FATAL: %v\n", err)
		os.Exit(exitcode.PermanentFailure)
	}
}
