// Package errs defines the error kinds sira surfaces to operators.
//
// Each kind wraps a cause and, where known, the file, host, and action
// ordinal that produced it, so a single line of output names exactly where
// a run went wrong.
package errs

import "fmt"

// Kind identifies which of sira's five error categories an error belongs to.
type Kind int

const (
	Config Kind = iota
	Signature
	Transport
	Action
	Internal
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case Signature:
		return "signature"
	case Transport:
		return "transport"
	case Action:
		return "action"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a typed error carrying a Kind plus optional host/action context.
type Error struct {
	Kind   Kind
	File   string
	Host   string
	Action int // ordinal within the host's action stream; -1 if not applicable
	Cause  error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.File != "" {
		msg += fmt.Sprintf(" (%s)", e.File)
	}
	if e.Host != "" {
		msg += fmt.Sprintf(" [host=%s", e.Host)
		if e.Action >= 0 {
			msg += fmt.Sprintf(" action=%d", e.Action)
		}
		msg += "]"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(k Kind, cause error) *Error {
	return &Error{Kind: k, Action: -1, Cause: cause}
}

func ConfigError(cause error) *Error    { return newErr(Config, cause) }
func SignatureError(cause error) *Error { return newErr(Signature, cause) }
func TransportError(cause error) *Error { return newErr(Transport, cause) }
func ActionError(cause error) *Error    { return newErr(Action, cause) }
func InternalError(cause error) *Error  { return newErr(Internal, cause) }

// WithFile returns a copy of e annotated with the offending file name.
func (e *Error) WithFile(file string) *Error {
	c := *e
	c.File = file
	return &c
}

// WithHost returns a copy of e annotated with the offending host and
// (optionally) the action ordinal that was running on it.
func (e *Error) WithHost(host string, action int) *Error {
	c := *e
	c.Host = host
	c.Action = action
	return &c
}

// Is reports whether target names the same Kind, so callers can write
// errors.Is(err, errs.ConfigError(nil)) to classify an error without caring
// about its cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
