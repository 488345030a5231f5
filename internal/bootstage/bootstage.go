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

package bootstage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mvo5/goconfigparser"
	"golang.org/x/sys/unix"

	"github.com/nisbet-hubbard/nosh/dirs"
	"github.com/nisbet-hubbard/nosh/internal/logger"
)

// DefaultPath is the PATH value seeded during step 2 of boot staging.
const DefaultPath = "/command:/usr/bin:/bin:/usr/sbin:/sbin"

// Run executes the seven ordered boot-staging steps. It is only ever
// called for the system role; per-user session setup is a much smaller
// subset handled directly by the caller (becoming a sub-reaper), since
// API mounts, ctrl-alt-del, and
// hwclock detection make no sense inside an unprivileged session.
func Run(plat Platform) error {
	// Step 1: setsid, chdir, umask. The session leader / login-to-root
	// portion is a BSD-only legacy convention with no Linux equivalent,
	// so it is folded into DisableCtrlAltDel's platform split instead of
	// being special-cased here.
	if _, err := unix.Setsid(); err != nil && err != unix.EPERM {
		logger.Debugf("setsid: %v", err)
	}
	if err := unix.Chdir("/"); err != nil {
		logger.Debugf("chdir /: %v", err)
	}
	unix.Umask(0022)

	// Step 2: seed PATH and LANG.
	os.Setenv("PATH", DefaultPath)
	os.Setenv("LANG", "C")

	// Step 3: load environment from /etc/locale.d (one file per
	// variable) and then from the first existing locale file in
	// dirs.LocaleFiles; later sources win over earlier ones. A bad line
	// anywhere is warned, not fatal.
	loadLocaleDir(dirs.LocaleDir)
	loadFirstLocaleFile(dirs.LocaleFiles)

	// Step 4: clock/timezone. Only the hardware-clock UTC preference is
	// detected and logged; the clock is not set here, and FreeBSD's
	// machdep.adjkerntz and loader.conf are neither read nor reconciled.
	utc, err := plat.HWClockUTCDetect()
	if err != nil {
		logger.Debugf("hwclock utc detect: %v", err)
	} else if !utc {
		logger.Debugf("hardware clock is local time, not UTC")
	}

	// Step 5: mount API filesystems, remounting in place if already
	// mounted; EBUSY is swallowed by the platform Mount implementation,
	// any other error is logged and staging continues.
	for _, m := range plat.APIMounts() {
		if err := os.MkdirAll(m.Target, 0755); err != nil && !os.IsExist(err) {
			logger.Debugf("mkdir %s: %v", m.Target, err)
		}
		already, err := plat.AlreadyMounted(m.Target)
		if err != nil {
			logger.Debugf("already-mounted check %s: %v", m.Target, err)
		}
		if err := plat.Mount(m, already); err != nil {
			logger.Debugf("mount %s on %s: %v", m.FSType, m.Target, err)
		}
	}

	// Step 6: create the /run/* manager directories. No symlinks are
	// created.
	for _, d := range []string{dirs.SystemManagerRunDir, dirs.EarlySuperviseDir} {
		if err := os.MkdirAll(d, 0755); err != nil && !os.IsExist(err) {
			logger.Debugf("mkdir %s: %v", d, err)
		}
	}

	// Step 7: disable ctrl-alt-del (no-op on platforms without one).
	if err := plat.DisableCtrlAltDel(); err != nil {
		logger.Debugf("disable ctrl-alt-del: %v", err)
	}

	return nil
}

// loadLocaleDir sets one environment variable per regular file in dir,
// keyed by the file's basename, with the file's trimmed content as the
// value. Parse errors for a single entry are warned, not fatal.
func loadLocaleDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			logger.Debugf("locale.d/%s: %v", e.Name(), err)
			continue
		}
		os.Setenv(e.Name(), strings.TrimSpace(string(content)))
	}
}

// localeVariables is the fixed set of variables a locale file may set,
// the same set locale(1) documents.
var localeVariables = []string{
	"LANG", "LANGUAGE", "LC_ALL", "LC_COLLATE", "LC_CTYPE",
	"LC_MESSAGES", "LC_MONETARY", "LC_NUMERIC", "LC_TIME",
	"LC_PAPER", "LC_NAME", "LC_ADDRESS", "LC_TELEPHONE",
	"LC_MEASUREMENT", "LC_IDENTIFICATION",
}

// loadFirstLocaleFile loads the known locale variables from the first
// file in files that exists. The files are flat key=value with no
// section headers, which goconfigparser handles in its
// AllowNoSectionHeader mode.
func loadFirstLocaleFile(files []string) {
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		cfg := goconfigparser.New()
		cfg.AllowNoSectionHeader = true
		if err := cfg.ReadString(string(content)); err != nil {
			logger.Debugf("%s: %v", path, err)
			return
		}
		for _, key := range localeVariables {
			v, err := cfg.Get("", key)
			if err != nil {
				continue
			}
			os.Setenv(key, strings.Trim(v, "\"'"))
		}
		return
	}
}

