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

package script

import (
	"sort"
	"strings"
)

const shebang = "#!/bin/nosh"

// tokenStream accumulates one argv token per line, the nosh chain-loading
// convention: each stage program consumes its own leading flags and
// chain-execs the remainder of the stream as its own argv.
type tokenStream struct {
	toks []string
}

func (t *tokenStream) add(toks ...string) { t.toks = append(t.toks, toks...) }

func (t *tokenStream) String() string {
	if len(t.toks) == 0 {
		return shebang + "\n"
	}
	return shebang + "\n" + strings.Join(t.toks, "\n") + "\n"
}

// perilogueSetupEnvironment appends the slots common to every script
// variant that runs before privileges are dropped: control-group,
// priority, environment readers. No jail/jexec slot is emitted.
func perilogueSetupEnvironment(t *tokenStream, s Settings) {
	if s.ControlGroup != "" {
		t.add("move-to-control-group", s.ControlGroup)
	}

	if s.IOPriority != "" {
		t.add("ionice", "-c"+s.IOPriority, "-t")
	}
	if s.CPUNice != "" {
		t.add("chrt", "--idle", "0")
	}
	if s.CPUAffinity != "" {
		t.add("numactl", "--physcpubind="+s.CPUAffinity)
	}

	if s.User != "" {
		t.add("envuidgid", s.User)
	}
	for _, f := range s.EnvFiles {
		t.add("read-conf", f)
	}
	for _, d := range s.EnvDirs {
		t.add("envdir", d)
	}
	keys := make([]string, 0, len(s.EnvVars))
	for k := range s.EnvVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.add("setenv", k, s.EnvVars[k])
	}
}

// dropPrivileges appends setsid/softlimit/umask/unshare/chroot/chdir/
// fd redirection/banner/setuidgid, the remaining fixed slots before the
// user command itself.
func dropPrivileges(t *tokenStream, s Settings) {
	t.add("setsid")

	keys := make([]string, 0, len(s.ResourceLimits))
	for k := range s.ResourceLimits {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.add("softlimit", "--"+k, s.ResourceLimits[k])
	}

	if s.UMask != "" {
		t.add("umask", s.UMask)
	}

	if s.PrivateTmp || s.PrivateNetwork || s.PrivateDevices {
		t.add("unshare")
		if s.PrivateNetwork {
			t.add("--net")
		}
		if s.PrivateTmp || s.PrivateDevices {
			t.add("make-private-fs")
		}
	}

	if s.RootDirectory != "" {
		t.add("chroot", s.RootDirectory)
	}
	if s.WorkingDirectory != "" {
		t.add("chdir", s.WorkingDirectory)
	}

	if s.TTY != "" {
		t.add("open-controlling-tty", s.TTY)
	}
	if s.LoginBanner != "" {
		t.add("login-banner", s.LoginBanner)
	}

	if s.User != "" {
		t.add("setuidgid", s.User)
	} else if s.Group != "" {
		t.add("setgid", s.Group)
	}
}

// Compose synthesizes the run/start/stop/restart scripts from s, per the
// fixed pipeline slot order.
func Compose(s Settings) Scripts {
	run := &tokenStream{}

	// Socket listeners precede setup_environment entirely for
	// socket-activated units: the listener must already
	// hold fd 3 before control-group/priority/env-reader setup runs.
	for _, sock := range s.Sockets {
		run.add(listenerTokens(sock)...)
	}

	perilogueSetupEnvironment(run, s)
	dropPrivileges(run, s)

	for _, pre := range s.ExecStartPre {
		run.add("foreground")
		run.add(pre...)
		run.add(";")
	}

	if len(s.Sockets) > 0 {
		run.add("./service")
	} else {
		run.add(stripIgnoreFailure(s.ExecStart)...)
	}

	start := &tokenStream{}
	if s.Type == "oneshot" {
		// A oneshot's "start" content swaps places with "run": starting
		// it means running the command directly rather than leaving it
		// to the supervisor's long-lived run loop.
		perilogueSetupEnvironment(start, s)
		dropPrivileges(start, s)
		start.add(stripIgnoreFailure(s.ExecStart)...)
	}

	stop := &tokenStream{}
	for _, post := range s.ExecStopPost {
		stop.add(stripIgnoreFailure(post)...)
	}

	return Scripts{
		Run:          run.String(),
		Start:        start.String(),
		Stop:         stop.String(),
		Restart:      composeRestart(s),
		Remain:       s.RemainAfterExit,
		UseHangup:    s.SendSIGHUP,
		NoKillSignal: s.NoKillSignal,
	}
}

// stripIgnoreFailure removes a leading "-" from the first token of an
// exec line. nosh's own "foreground" wrapper already ignores exit codes,
// so the "-" prefix does not alter semantics: it is simply dropped.
func stripIgnoreFailure(argv []string) []string {
	if len(argv) == 0 {
		return argv
	}
	out := make([]string, len(argv))
	copy(out, argv)
	out[0] = strings.TrimPrefix(out[0], "-")
	return out
}

// composeRestart builds the /bin/sh restart script that encodes
// Restart= semantics as a case statement over the helper's "$1 $2"
// contract: $1 is one of exit|signalled|killed|core-dumped, $2 is the
// exit code or signal number.
func composeRestart(s Settings) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	for _, pre := range s.ExecRestartPre {
		b.WriteString(strings.Join(stripIgnoreFailure(pre), " "))
		b.WriteByte('\n')
	}
	switch s.Restart {
	case "always":
		b.WriteString("exit 0\n")
	case "no", "never":
		b.WriteString("exit 1\n")
	case "on-success":
		b.WriteString("case \"$1\" in\n")
		b.WriteString("exit) case \"$2\" in 0) exit 0 ;; *) exit 1 ;; esac ;;\n")
		b.WriteString("*) exit 1 ;;\n")
		b.WriteString("esac\n")
	case "on-failure":
		b.WriteString("case \"$1\" in\n")
		b.WriteString("exit) case \"$2\" in 0) exit 1 ;; *) exit 0 ;; esac ;;\n")
		b.WriteString("*) exit 0 ;;\n")
		b.WriteString("esac\n")
	case "on-abort":
		b.WriteString("case \"$1\" in\n")
		b.WriteString("signalled) exit 0 ;;\n")
		b.WriteString("*) exit 1 ;;\n")
		b.WriteString("esac\n")
	case "on-abnormal":
		b.WriteString("case \"$1\" in\n")
		b.WriteString("signalled|killed|core-dumped) exit 0 ;;\n")
		b.WriteString("exit) case \"$2\" in 0) exit 1 ;; *) exit 0 ;; esac ;;\n")
		b.WriteString("*) exit 1 ;;\n")
		b.WriteString("esac\n")
	default:
		b.WriteString("exit 1\n")
	}
	return b.String()
}
