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

// Command convert-systemd-units reads one or more systemd-style unit
// descriptors and writes the equivalent service bundles.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"github.com/nisbet-hubbard/nosh/dirs"
	"github.com/nisbet-hubbard/nosh/internal/bundle"
	"github.com/nisbet-hubbard/nosh/internal/exitcode"
	"github.com/nisbet-hubbard/nosh/internal/names"
	"github.com/nisbet-hubbard/nosh/internal/presets"
	"github.com/nisbet-hubbard/nosh/internal/script"
	"github.com/nisbet-hubbard/nosh/internal/unit"
)

type options struct {
	User      bool   `long:"user" description:"convert into the per-user bundle root"`
	Bundle    string `long:"bundle-root" description:"directory new bundles are written under"`
	Overwrite bool   `long:"overwrite" description:"replace an existing bundle of the same name"`
	Presets   string `long:"presets" description:"YAML preset file deciding enable-at-boot links"`
	Args      struct {
		Units []string `positional-arg-name:"unit" required:"1"`
	} `positional-args:"yes"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(exitcode.Usage)
	}

	bundleRoot := opts.Bundle
	if bundleRoot == "" {
		bundleRoot = dirs.ServiceBundlesDir
	}
	searchPath := dirs.SystemUnitSearchPath
	if opts.User {
		searchPath = dirs.UserUnitSearchPath
	}

	var rules presets.List
	if opts.Presets != "" {
		r, err := presets.Load(opts.Presets)
		if err != nil {
			fmt.Fprintf(os.Stderr, "convert-systemd-units: FATAL: %v\n", err)
			os.Exit(exitcode.TemporaryFailure)
		}
		rules = r
	}

	machineID := readMachineID()

	for _, unitName := range opts.Args.Units {
		if err := convertOne(unitName, opts.User, searchPath, bundleRoot, machineID, rules, opts.Overwrite); err != nil {
			fmt.Fprintf(os.Stderr, "convert-systemd-units: FATAL: %s: %v\n", unitName, err)
			os.Exit(exitcode.PermanentFailure)
		}
	}
}

func readMachineID() string {
	b, err := os.ReadFile("/etc/machine-id")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func convertOne(unitName string, user bool, searchPath []string, bundleRoot, machineID string, rules presets.List, overwrite bool) error {
	d, err := unit.Load(unitName, searchPath)
	if err != nil {
		return err
	}

	n := names.New(unitName, currentUser(user), machineID)
	s := settingsFromDescriptor(d, n)

	if strings.HasSuffix(n.Basename, ".socket") {
		return nil // paired with its .service sibling; handled there
	}
	if pair := n.Prefix + ".socket"; unitHasSocketPair(pair, searchPath) {
		sd, err := unit.Load(pair, searchPath)
		if err == nil {
			s.Sockets = socketsFromDescriptor(sd, n)
		}
	}

	bundleName := bundleNameFor(n)
	if runtime.GOOS == "linux" {
		s.ControlGroup = "../" + bundleName + ".service"
	}

	scripts := script.Compose(s)
	b := bundle.New(filepath.Join(bundleRoot, bundleName), bundleName)
	b.Scripts["run"] = scripts.Run
	if scripts.Start != "" {
		b.Scripts["start"] = scripts.Start
	}
	if scripts.Stop != "" {
		b.Scripts["stop"] = scripts.Stop
	}
	if scripts.Restart != "" {
		b.Scripts["restart"] = scripts.Restart
	}
	b.Flags["remain"] = scripts.Remain
	b.Flags["use_hangup"] = scripts.UseHangup
	b.Flags["no_kill_signal"] = scripts.NoKillSignal
	b.EarlySupervise = true

	if err := b.Write(overwrite); err != nil {
		return err
	}

	for _, after := range d.Values("unit", "after") {
		bundle.CreateLinks(b.Dir, bundleName, bundle.After, after, bundleRoot, overwrite)
	}
	for _, before := range d.Values("unit", "before") {
		bundle.CreateLinks(b.Dir, bundleName, bundle.Before, before, bundleRoot, overwrite)
	}
	for _, wants := range d.Values("unit", "wants") {
		bundle.CreateLinks(b.Dir, bundleName, bundle.Wants, wants, bundleRoot, overwrite)
	}
	for _, conflicts := range d.Values("unit", "conflicts") {
		bundle.CreateLinks(b.Dir, bundleName, bundle.Conflicts, conflicts, bundleRoot, overwrite)
	}
	wantedBy := d.Values("install", "wantedby")
	if rules != nil && rules.Enabled(bundleName) {
		wantedBy = append(wantedBy, "default.target")
	}
	for _, w := range wantedBy {
		bundle.CreateLinks(b.Dir, bundleName, bundle.WantedBy, w, bundleRoot, overwrite)
	}

	for _, k := range d.UnusedKeys() {
		fmt.Fprintf(os.Stderr, "convert-systemd-units: %s: warning: unused key %s\n", d.Origin, k)
	}

	return nil
}

// bundleNameFor derives the bundle directory name from the unit's name:
// the kind suffix is dropped, and an uninstantiated template keeps just
// its prefix, so "ssh@.service" paired with "ssh.socket" lands in a
// bundle named "ssh".
func bundleNameFor(n names.Name) string {
	if strings.ContainsRune(n.Basename, '@') && !n.HasInstance {
		return names.Escape(n.Prefix, true)
	}
	return names.Escape(n.BundleDirname, true)
}

func unitHasSocketPair(name string, searchPath []string) bool {
	_, err := unit.Load(name, searchPath)
	return err == nil
}

func currentUser(user bool) string {
	if !user {
		return ""
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u := os.Getenv("LOGNAME"); u != "" {
		return u
	}
	return strconv.Itoa(os.Getuid())
}

func settingsFromDescriptor(d *unit.Descriptor, n names.Name) script.Settings {
	s := script.Settings{
		EnvVars:        map[string]string{},
		ResourceLimits: map[string]string{},
	}
	if t, ok := d.Value("service", "type"); ok {
		s.Type = t
	} else {
		s.Type = "simple"
	}
	if v, ok := d.Value("service", "execstart"); ok {
		s.ExecStart = splitArgv(n.Substitute(v))
	}
	for _, v := range d.Values("service", "execstartpre") {
		s.ExecStartPre = append(s.ExecStartPre, splitArgv(n.Substitute(v)))
	}
	for _, v := range d.Values("service", "execstoppost") {
		s.ExecStopPost = append(s.ExecStopPost, splitArgv(n.Substitute(v)))
	}
	if v, ok := d.Value("service", "remainafterexit"); ok {
		s.RemainAfterExit = v == "yes" || v == "true"
	}
	if v, ok := d.Value("service", "sendsighup"); ok {
		s.SendSIGHUP = v == "yes" || v == "true"
	}
	if v, ok := d.Value("service", "sendsigkill"); ok {
		s.NoKillSignal = v == "no" || v == "false"
	}
	for _, v := range d.Values("service", "execrestartpre") {
		s.ExecRestartPre = append(s.ExecRestartPre, splitArgv(n.Substitute(v)))
	}
	if v, ok := d.Value("service", "user"); ok {
		s.User = n.Substitute(v)
	}
	if v, ok := d.Value("service", "group"); ok {
		s.Group = n.Substitute(v)
	}
	if v, ok := d.Value("service", "workingdirectory"); ok {
		s.WorkingDirectory = n.Substitute(v)
	}
	if v, ok := d.Value("service", "rootdirectory"); ok {
		s.RootDirectory = n.Substitute(v)
	}
	if v, ok := d.Value("service", "umask"); ok {
		s.UMask = v
	}
	if v, ok := d.Value("service", "privatetmp"); ok {
		s.PrivateTmp = v == "yes" || v == "true"
	}
	if v, ok := d.Value("service", "privatenetwork"); ok {
		s.PrivateNetwork = v == "yes" || v == "true"
	}
	if v, ok := d.Value("service", "restart"); ok {
		s.Restart = v
	}
	for _, v := range d.Values("service", "environment") {
		if eq := strings.IndexByte(v, '='); eq >= 0 {
			s.EnvVars[v[:eq]] = n.Substitute(v[eq+1:])
		}
	}
	for _, v := range d.Values("service", "environmentfile") {
		s.EnvFiles = append(s.EnvFiles, n.Substitute(v))
	}
	return s
}

func socketsFromDescriptor(d *unit.Descriptor, n names.Name) []script.Socket {
	var out []script.Socket
	for _, v := range d.Values("socket", "listenstream") {
		out = append(out, parseSocket(n.Substitute(v), "tcp"))
	}
	for _, v := range d.Values("socket", "listendatagram") {
		out = append(out, parseSocket(n.Substitute(v), "udp"))
	}
	for _, v := range d.Values("socket", "listenfifo") {
		out = append(out, script.Socket{Kind: "fifo", Path: n.Substitute(v)})
	}
	accept := false
	if v, ok := d.Value("socket", "accept"); ok {
		accept = v == "yes" || v == "true"
	}
	for i := range out {
		out[i].Accept = accept
	}
	return out
}

func parseSocket(v, kind string) script.Socket {
	if strings.HasPrefix(v, "/") {
		return script.Socket{Kind: "unix", Path: v}
	}
	if i := strings.LastIndexByte(v, ':'); i >= 0 {
		if _, err := strconv.Atoi(v[i+1:]); err == nil {
			return script.Socket{Kind: kind, Address: v[:i], Port: v[i+1:]}
		}
	}
	return script.Socket{Kind: kind, Address: "::0", Port: v}
}

// splitArgv is a small whitespace tokenizer; it does not implement shell
// quoting, since unit files only need simple word splitting for argv.
func splitArgv(s string) []string {
	return strings.Fields(s)
}
