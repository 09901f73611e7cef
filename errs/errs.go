// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package errs classifies operation failures. Every rejected operation
// surfaces one sentinel built here, so callers can assert on both the exact
// reason (errors.Is) and its category (KindOf).
package errs

import "errors"

// Kind is the category of a rejected operation.
type Kind uint8

const (
	// Unknown is reported for errors that were not built by this package,
	// e.g. database failures.
	Unknown Kind = iota
	// Authorization means the caller identity may not perform the operation.
	Authorization
	// Precondition means the ledger is not in a state that permits it.
	Precondition
	// Value means a supplied amount is wrong.
	Value
)

func (k Kind) String() string {
	switch k {
	case Authorization:
		return "AuthorizationError"
	case Precondition:
		return "PreconditionError"
	case Value:
		return "ValueError"
	default:
		return "UnknownError"
	}
}

// Error is a categorized sentinel. Sentinels are compared by identity.
type Error struct {
	kind Kind
	msg  string
}

// New returns a new sentinel of [kind].
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Kind returns the category of e.
func (e *Error) Kind() Kind {
	return e.kind
}

// KindOf returns the category of the first categorized error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return Unknown
}

func IsAuthorization(err error) bool {
	return KindOf(err) == Authorization
}

func IsPrecondition(err error) bool {
	return KindOf(err) == Precondition
}

func IsValue(err error) bool {
	return KindOf(err) == Value
}
