package canonical

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindUnrepresentable reports a value the Canonical Value Model cannot
	// express (NaN, infinities, unsupported Go types, duplicate keys).
	KindUnrepresentable Kind = "Unrepresentable"
	// KindUTF8 reports text that is not valid UTF-8.
	KindUTF8 Kind = "UTF8"
	// KindParse reports JSON input that could not be parsed into the model.
	KindParse Kind = "Parse"
	// KindNonCanonical reports JSON input that parses but is not in
	// canonical form.
	KindNonCanonical Kind = "NonCanonical"
)

// Error is the package's structured error type.
//
// RuleID is a stable identifier (e.g. ALE-ENC-101, ALE-PARSE-003) naming
// the violated rule. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
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
