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

// Package dirs centralizes every filesystem path the manager and
// converters agree on, so that tests can redirect them under a temporary
// root with SetRootDir.
package dirs

import (
	"fmt"
	"os"
	"path/filepath"
)

var (
	rootDir string

	RunDir                 string
	SystemManagerRunDir    string
	EarlySuperviseDir      string
	ServiceBundlesDir      string
	SystemTargetBundleDirs []string
	ServiceBundleDirs      []string
	LocaleDir              string
	LocaleFiles            []string
	AdjtimeFile            string
	FstabFile              string
	SystemUnitSearchPath   []string
	UserUnitSearchPath     []string
)

func init() {
	SetRootDir("")
}

// SetRootDir reparents every path under dirs beneath root, or under "/"
// when root is empty. Tests use this to sandbox filesystem operations.
func SetRootDir(root string) {
	if root == "" {
		root = "/"
	}
	rootDir = root

	RunDir = filepath.Join(root, "/run")
	SystemManagerRunDir = filepath.Join(RunDir, "system-manager")
	EarlySuperviseDir = filepath.Join(RunDir, "service-bundles/early-supervise")
	ServiceBundlesDir = filepath.Join(RunDir, "service-bundles")

	SystemTargetBundleDirs = []string{
		filepath.Join(RunDir, "system-manager/targets/"),
		filepath.Join(root, "/etc/system-manager/targets/"),
		filepath.Join(root, "/var/system-manager/targets/"),
	}
	ServiceBundleDirs = []string{
		filepath.Join(RunDir, "sv/"),
		filepath.Join(root, "/etc/sv/"),
		filepath.Join(root, "/var/local/sv/"),
		filepath.Join(root, "/var/sv/"),
		filepath.Join(root, "/service/"),
	}

	LocaleDir = filepath.Join(root, "/etc/locale.d")
	LocaleFiles = []string{
		filepath.Join(root, "/etc/locale.conf"),
		filepath.Join(root, "/etc/default/locale"),
		filepath.Join(root, "/etc/sysconfig/i18n"),
	}
	AdjtimeFile = filepath.Join(root, "/etc/adjtime")
	FstabFile = filepath.Join(root, "/etc/fstab")

	SystemUnitSearchPath = []string{
		filepath.Join(RunDir, "systemd/system/"),
		filepath.Join(root, "/etc/systemd/system/"),
		filepath.Join(root, "/usr/local/lib/systemd/system/"),
		filepath.Join(root, "/lib/systemd/system/"),
	}
	UserUnitSearchPath = []string{
		filepath.Join(RunDir, "systemd/user/"),
		filepath.Join(root, "/etc/systemd/user/"),
		filepath.Join(root, "/usr/local/lib/systemd/user/"),
		filepath.Join(root, "/lib/systemd/user/"),
	}
}

// RootDir returns the currently configured root, "/" by default.
func RootDir() string {
	return rootDir
}

// StripRootDir removes the global root prefix from an absolute path,
// panicking if path does not lie under it; mirrors how callers expect
// paths to read in diagnostics regardless of test sandboxing.
func StripRootDir(path string) string {
	if !filepath.IsAbs(path) {
		panic(fmt.Sprintf("supplied path is not absolute %q", path))
	}
	if rootDir == "/" {
		return path
	}
	stripped, err := filepath.Rel(rootDir, path)
	if err != nil || len(stripped) >= 2 && stripped[0:2] == ".." {
		panic(fmt.Sprintf("supplied path is not related to global root %q", path))
	}
	return filepath.Join("/", stripped)
}

// UserRuntimeDir returns /run/user/<name>/ under the current root.
func UserRuntimeDir(name string) string {
	return filepath.Join(RunDir, "user", name) + "/"
}

// MkdirAllPerm is a small convenience wrapper around os.MkdirAll; as with
// os.MkdirAll, the process umask still applies to perm.
func MkdirAllPerm(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
