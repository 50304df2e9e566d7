package aletheia

import "errors"

// Kind is a stable category for programmatic error handling.
type Kind string

const (
	// KindSchema reports JSON that parses but does not match the expected
	// record shape.
	KindSchema Kind = "Schema"
)

// Error is the package's structured error type.
//
// Path locates the offending field (for example
// "header.witness.public_key" or "entropy_proofs[1].timestamp").
type Error struct {
	Kind    Kind
	RuleID  string
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func schemaError(ruleID, path, msg string) error {
	return &Error{Kind: KindSchema, RuleID: ruleID, Path: path, Message: msg}
}

func wrapSchemaError(ruleID, path, msg string, cause error) error {
	return &Error{Kind: KindSchema, RuleID: ruleID, Path: path, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
