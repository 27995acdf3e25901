package generate

import (
	"errors"
	"fmt"
)

// ErrorKind tags the caller-facing failure categories of the generation
// pipeline. The presentation layer maps each kind to a user-visible message
// and status code; it never inspects the wrapped cause.
type ErrorKind string

const (
	// KindConfiguration means a required credential is absent; no remote
	// call was attempted.
	KindConfiguration ErrorKind = "configuration"
	// KindSubmission means the service rejected or could not accept the job.
	KindSubmission ErrorKind = "submission"
	// KindModel means the remote job reached a terminal failed or canceled
	// state; Message carries the remote detail verbatim.
	KindModel ErrorKind = "model"
	// KindTimeout means the poll ceiling was exhausted. The job's true
	// outcome is unknown: a cancel was attempted but may not land before
	// the job completes.
	KindTimeout ErrorKind = "timeout"
	// KindNetwork covers transport failures at submit or poll time,
	// including the rate-limited sub-case.
	KindNetwork ErrorKind = "network"
)

// Error is the tagged failure returned by the orchestrator.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generate: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("generate: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the error kind from err, or KindNetwork when err is not a
// pipeline error.
func KindOf(err error) ErrorKind {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return KindNetwork
}
