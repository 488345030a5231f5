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

// Package script is the script composer: given a setting table
// derived from a unit descriptor, it synthesizes the fixed
// control-group/priority/.../exec pipeline into run/start/stop/
// restart scripts. There is no jail/jexec slot.
package script

// Settings is the flattened subset of unit keys the composer consumes.
// Each exec line is already split into argv tokens by the caller (the
// unit-file loader hands over raw strings; splitting belongs to whatever
// reads ExecStart et al, since quoting rules are a loader concern, not a
// composer one).
type Settings struct {
	Type            string // "simple", "oneshot", "forking", ...
	ExecStart       []string
	ExecStartPre    [][]string
	ExecStopPost    [][]string
	ExecRestartPre  [][]string
	RemainAfterExit bool
	SendSIGHUP      bool
	NoKillSignal    bool

	User  string
	Group string

	ControlGroup string // move-to-control-group target, empty to skip

	WorkingDirectory string
	RootDirectory    string // chroot target, empty if none
	UMask            string // e.g. "0022"

	PrivateTmp     bool
	PrivateNetwork bool
	PrivateDevices bool

	IOPriority string // ionice class/level, e.g. "3" for idle
	CPUNice    string // non-empty selects "chrt --idle 0"; the value itself is not passed
	CPUAffinity string // numactl cpu list

	ResourceLimits map[string]string // e.g. "nofile" -> "1024"
	EnvFiles       []string          // read-conf targets
	EnvDirs        []string          // envdir targets
	EnvVars        map[string]string // setenv KEY=VALUE

	LoginBanner string
	TTY         string // open-controlling-tty / vc-get-tty target

	Restart string // "always","no","never","on-success","on-failure","on-abort","on-abnormal"

	Sockets []Socket // paired .socket unit's listeners, for socket activation
}

// Scripts is the composer's output, ready for internal/bundle to write.
type Scripts struct {
	Run     string
	Start   string
	Stop    string
	Restart string

	Remain       bool
	UseHangup    bool
	NoKillSignal bool
}
