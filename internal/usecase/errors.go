package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// Feed failures keep auth, transport, and shape problems distinct so
	// callers can tell an expired credential from a bad column layout.
	ErrFeedAuth     = errors.New("feed authentication failed")
	ErrFeedUpstream = errors.New("feed upstream failure")
	ErrFeedSchema   = errors.New("feed schema mismatch")

	ErrPersistence = errors.New("persistence failure")

	// Report job failures: ErrProtocol means the backend answered but not in
	// the agreed result shape, ErrExecution means the job itself broke.
	ErrProtocol      = errors.New("report result protocol violation")
	ErrExecution     = errors.New("report execution failed")
	ErrReportTimeout = errors.New("report generation timed out")
)
