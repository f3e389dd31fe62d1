package registry

import (
	"errors"
	"fmt"
)

// ValidationError reports a request rejected before any remote call was
// made. Field names the offending input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("registry: invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("registry: %s is required", e.Field)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExistsError reports a create that would shadow an entry already present
// under the same kind and name.
type ExistsError struct {
	Kind Kind
	Name string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("registry: %s %q already exists", e.Kind, e.Name)
}

// IsExists reports whether err is an ExistsError.
func IsExists(err error) bool {
	var ee *ExistsError
	return errors.As(err, &ee)
}

// RemoteError wraps a gateway failure on a write path. Read paths degrade
// to cached data instead of surfacing one.
type RemoteError struct {
	Action string
	err    error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("registry: %s failed: %v", e.Action, e.err)
}

func (e *RemoteError) Unwrap() error { return e.err }

// IsRemote reports whether err is a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

func remoteErr(action string, err error) *RemoteError {
	return &RemoteError{Action: action, err: err}
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field}
}
