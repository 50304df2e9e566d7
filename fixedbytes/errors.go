package fixedbytes

import "errors"

// Kind is a stable category for programmatic error handling.
type Kind string

const (
	// KindAlphabet reports text outside the URL-safe base64 alphabet, padding
	// characters, or a non-canonical final character.
	KindAlphabet Kind = "Alphabet"
	// KindLength reports a decoded size that differs from the required one.
	KindLength Kind = "Length"
)

// Error is the package's structured error type. Message is intended for
// humans; branch on Kind or RuleID.
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
