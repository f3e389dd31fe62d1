package playground

import (
	"errors"
	"fmt"
)

// MissingCredentialError reports that no API key is configured for the
// named provider. The adapter never makes a network call in that state.
type MissingCredentialError struct {
	Provider string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("playground: no %s API key configured", e.Provider)
}

// IsMissingCredential reports whether err is a MissingCredentialError.
func IsMissingCredential(err error) bool {
	var me *MissingCredentialError
	return errors.As(err, &me)
}

// ProviderError carries an upstream failure: a non-2xx status or a
// response the adapter could not make sense of. Status is zero when the
// failure happened before a status was received.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
	err      error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("playground: %s returned status %d: %s", e.Provider, e.Status, e.Message)
	case e.err != nil:
		return fmt.Sprintf("playground: %s request failed: %v", e.Provider, e.err)
	}
	return fmt.Sprintf("playground: %s request failed: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.err }

// IsProvider reports whether err is a ProviderError.
func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
