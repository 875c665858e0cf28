package services

import "errors"

var (
	// ErrNotFound: an operation addressed a submission or case that
	// does not exist. Hard stop for the surrounding flow.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadySet: a set-once field (survey answers, assignment) was
	// written a second time.
	ErrAlreadySet = errors.New("field already set")

	// ErrNotAssigned: the wizard was opened for a submission the
	// balancer has not processed yet.
	ErrNotAssigned = errors.New("submission has no branch assignment")

	// ErrConfig: the static study configuration is inconsistent
	// (sequence index out of table range, permutation naming an
	// unknown case). Fatal to wizard initialization.
	ErrConfig = errors.New("study configuration invalid")

	// ErrAssistUnavailable: the text-generation service failed or timed
	// out. Retryable; the participant can also proceed without it.
	ErrAssistUnavailable = errors.New("writing assistant unavailable")

	// ErrAssistPending: a suggestion request for this case is already
	// in flight.
	ErrAssistPending = errors.New("suggestion request already in flight")

	// ErrWrongBranch: an AI-arm operation was invoked from the control
	// arm.
	ErrWrongBranch = errors.New("not available in this branch")
)
