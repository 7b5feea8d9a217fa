// Package uerr defines the unified error taxonomy returned from every
// mutating and querying operation in the engine (spec §7).
//
// Every error surfaced by frame, pbase, vbase, eval and car carries one of
// the Kind values below. Callers branch on the kind with errors.Is against
// the package-level sentinels (one sentinel per Kind, zero-value payload),
// following the sentinel-plus-errors.Is discipline common to per-package
// error files, centralized once into a single taxonomy shared by every
// layer rather than one local vocabulary per package (spec §7).
//
// Sentinels are never wrapped with formatted text at the definition site;
// use New(kind, op, format, args...) to attach operation context while
// keeping errors.Is(err, ErrInconsistent) (etc.) true.
package uerr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error per spec §7.
type Kind int

const (
	// OK is the zero value; engine operations never return an *Error with
	// Kind OK — it exists only so Kind's zero value is named and printable.
	OK Kind = iota
	InputError
	StateError
	NotAllowed
	CritUnknown
	AltUnknown
	WrongFrameType
	FrameNotLoaded
	Inconsistent
	TreeError
	TooManyAlts
	TooManyCons
	TooManyStmts
	TooNarrowStmt
	TooFewAlts
	OutOfMemory
	Corrupted
	SameRankings
	NoFile
)

var kindNames = map[Kind]string{
	OK:              "ok",
	InputError:      "input-error",
	StateError:      "state-error",
	NotAllowed:      "not-allowed",
	CritUnknown:     "crit-unknown",
	AltUnknown:      "alt-unknown",
	WrongFrameType:  "wrong-frame-type",
	FrameNotLoaded:  "frame-not-loaded",
	Inconsistent:    "inconsistent",
	TreeError:       "tree-error",
	TooManyAlts:     "too-many-alts",
	TooManyCons:     "too-many-cons",
	TooManyStmts:    "too-many-stmts",
	TooNarrowStmt:   "too-narrow-stmt",
	TooFewAlts:      "too-few-alts",
	OutOfMemory:     "out-of-memory",
	Corrupted:       "corrupted",
	SameRankings:    "same-rankings",
	NoFile:          "no-file",
}

// String renders the kind using its own taxonomy name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("uerr.Kind(%d)", int(k))
}

// Error is the concrete error type returned by engine operations. Op names
// the failing operation (e.g. "pbase.Load", "car.SetWBase") for diagnostics;
// it is not part of the errors.Is identity, only Kind is.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

// Is reports whether target is a sentinel (or another *Error) of the same
// Kind, so errors.Is(err, ErrInconsistent) works regardless of Op/Msg.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == te.Kind
}

// New constructs an *Error for op with a formatted message. Use this at
// every return site instead of fmt.Errorf so errors.Is keeps working.
func New(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Sentinels — one zero-message *Error per Kind, for errors.Is comparisons
// at call sites that don't need New's formatting (e.g. "if errors.Is(err,
// uerr.ErrInconsistent)").
var (
	ErrInputError     = &Error{Kind: InputError}
	ErrStateError     = &Error{Kind: StateError}
	ErrNotAllowed     = &Error{Kind: NotAllowed}
	ErrCritUnknown    = &Error{Kind: CritUnknown}
	ErrAltUnknown     = &Error{Kind: AltUnknown}
	ErrWrongFrameType = &Error{Kind: WrongFrameType}
	ErrFrameNotLoaded = &Error{Kind: FrameNotLoaded}
	ErrInconsistent   = &Error{Kind: Inconsistent}
	ErrTreeError      = &Error{Kind: TreeError}
	ErrTooManyAlts    = &Error{Kind: TooManyAlts}
	ErrTooManyCons    = &Error{Kind: TooManyCons}
	ErrTooManyStmts   = &Error{Kind: TooManyStmts}
	ErrTooNarrowStmt  = &Error{Kind: TooNarrowStmt}
	ErrTooFewAlts     = &Error{Kind: TooFewAlts}
	ErrOutOfMemory    = &Error{Kind: OutOfMemory}
	ErrCorrupted      = &Error{Kind: Corrupted}
	ErrSameRankings   = &Error{Kind: SameRankings}
	ErrNoFile         = &Error{Kind: NoFile}
)

// Of reports the Kind of err, or OK if err is nil or not an *Error.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return OK
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return Of(err) == kind
}
