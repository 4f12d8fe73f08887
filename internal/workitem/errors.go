package workitem

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("work item not found")

	// ErrStoreUnavailable wraps backing-store failures. It is the only
	// condition that fails a call outright; callers may retry idempotently.
	ErrStoreUnavailable = errors.New("work item store unavailable")

	// errVersionConflict is the repository-level signal that a conditional
	// update lost the race. The service re-reads and maps it to either
	// AlreadyTerminal or VersionConflict.
	errVersionConflict = errors.New("work item version conflict")
)

// ErrorKind classifies the expected domain outcomes of a transition. These
// are typed results the caller branches on, not failures.
type ErrorKind string

const (
	ErrKindNotFound         ErrorKind = "not_found"
	ErrKindValidationFailed ErrorKind = "validation_failed"
	ErrKindAlreadyTerminal  ErrorKind = "already_terminal"
	ErrKindVersionConflict  ErrorKind = "version_conflict"
	ErrKindStoreUnavailable ErrorKind = "store_unavailable"
)

// TransitionError reports why a transition was not committed. AlreadyTerminal
// and ValidationFailed leave the item unchanged and write no audit entry.
type TransitionError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s: %s", e.Kind, e.Message)
}

func validationFailed(format string, args ...any) *TransitionError {
	return &TransitionError{Kind: ErrKindValidationFailed, Message: fmt.Sprintf(format, args...)}
}

func alreadyTerminal(status Status) *TransitionError {
	return &TransitionError{Kind: ErrKindAlreadyTerminal, Message: fmt.Sprintf("item is already %s", status)}
}

// AsTransitionError unwraps a *TransitionError if err is one.
func AsTransitionError(err error) (*TransitionError, bool) {
	var te *TransitionError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
