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

// Socket describes one paired .socket unit's ListenStream/ListenDatagram
// entry, feeding the socket-listener pipeline slot that precedes
// setup_environment in a socket-activated service's run script.
type Socket struct {
	Kind    string // "tcp", "udp", "unix", "fifo"
	Address string // host part, "::0" style for a wildcard
	Port    string // numeric service port, empty for unix/fifo
	Path    string // unix/fifo path, empty for tcp/udp
	Accept  bool   // ListenStream Accept=yes: one connection per invocation
}

// listenerTokens returns the tcp/udp/unix/fifo-socket-listen program and
// its arguments, followed by the matching *-socket-accept stage when
// Accept is set; for socket-activated units the listener precedes every
// environment-setup stage.
func listenerTokens(s Socket) []string {
	var toks []string
	switch s.Kind {
	case "tcp":
		toks = append(toks, "tcp-socket-listen", s.Address, s.Port)
	case "udp":
		toks = append(toks, "udp-socket-listen", s.Address, s.Port)
	case "unix":
		toks = append(toks, "local-stream-socket-listen", s.Path)
	default:
		toks = append(toks, "fifo-listen", s.Path)
	}
	if s.Accept {
		proto := "tcp"
		switch s.Kind {
		case "udp":
			proto = "udp"
		case "unix":
			proto = "local-stream"
		}
		toks = append(toks, proto+"-socket-accept")
	}
	return toks
}
