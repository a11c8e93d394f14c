package rotorlog

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an Error per §7.
type Kind int

const (
	BadConfig Kind = iota
	BadDirectory
	Io
	Poison
	SendFailed
	FormatFailed
	NoFileLogger
	ResetDisallowed
	SpecFile
	UtcAlreadyForced
)

func (k Kind) String() string {
	switch k {
	case BadConfig:
		return "BadConfig"
	case BadDirectory:
		return "BadDirectory"
	case Io:
		return "Io"
	case Poison:
		return "Poison"
	case SendFailed:
		return "SendFailed"
	case FormatFailed:
		return "FormatFailed"
	case NoFileLogger:
		return "NoFileLogger"
	case ResetDisallowed:
		return "ResetDisallowed"
	case SpecFile:
		return "SpecFile"
	case UtcAlreadyForced:
		return "UtcAlreadyForced"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type of §7: a variant (Kind) plus a cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

// Unwrap lets errors.Is/errors.As see through to Cause.
func (e *Error) Unwrap() error { return e.Cause }

// Wrap builds an Error of the given Kind, wrapping cause with
// github.com/pkg/errors so a stack trace is attached at the point the
// failure was first observed - the same pattern file-rotatelogs uses
// when it wraps rename/open failures.
func Wrap(kind Kind, msg string, cause error) *Error {
	if cause != nil {
		cause = pkgerrors.Wrap(cause, msg)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}
