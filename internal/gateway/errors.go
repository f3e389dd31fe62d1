package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure.
type Kind string

const (
	// KindWalletUnavailable means no wallet/signer is configured.
	KindWalletUnavailable Kind = "wallet_unavailable"
	// KindSubmission means the message send step failed.
	KindSubmission Kind = "submission"
	// KindAwait means the result await step failed or timed out.
	KindAwait Kind = "await"
	// KindParse means the result payload was present but not valid JSON.
	KindParse Kind = "parse"
)

// Error is the uniform error surfaced by the gateway. Callers branch on
// Kind rather than string-matching messages.
type Error struct {
	Kind    Kind
	Action  string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("gateway: %s %s: %s", e.Action, e.Kind, e.Message)
	}
	return fmt.Sprintf("gateway: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// IsWalletUnavailable reports whether err is a missing-wallet failure.
func IsWalletUnavailable(err error) bool { return hasKind(err, KindWalletUnavailable) }

// IsSubmission reports whether err failed at the send step.
func IsSubmission(err error) bool { return hasKind(err, KindSubmission) }

// IsAwait reports whether err failed at the result-await step.
func IsAwait(err error) bool { return hasKind(err, KindAwait) }

// IsParse reports whether err is a malformed-payload failure.
func IsParse(err error) bool { return hasKind(err, KindParse) }

func hasKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func newError(kind Kind, action, message string, cause error) *Error {
	return &Error{Kind: kind, Action: action, Message: message, err: cause}
}
