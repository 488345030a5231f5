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

// Package errkind classifies errors into the small set of kinds the
// manager and converters distinguish when deciding whether to log-and-
// continue or print a fatal diagnostic and exit.
package errkind

import "fmt"

// Kind classifies an Error.
type Kind int

const (
	// Config marks an unreadable or malformed unit/fstab descriptor.
	Config Kind = iota
	// IO marks a filesystem or syscall failure.
	IO
	// Protocol marks a malformed wire message (bad initctl magic, bad
	// LISTEN_FDS).
	Protocol
	// Child marks an abnormal child exit.
	Child
	// Platform marks a missing platform capability (e.g. a sysctl that
	// does not exist on this kernel).
	Platform
	// Internal marks a state the code believes cannot happen.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case IO:
		return "io"
	case Protocol:
		return "protocol"
	case Child:
		return "child"
	case Platform:
		return "platform"
	default:
		return "internal"
	}
}

// Error wraps an underlying error with a Kind, so callers can branch with
// errors.As without string-matching messages.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
