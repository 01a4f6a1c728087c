package errs

import (
	"errors"
)

// Common error types
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateReport   = errors.New("you have already submitted a report on this message")
	ErrModeratorBusy     = errors.New("a report is already being processed")
	ErrReporterSuspended = errors.New("reporting feature is temporarily suspended for your account")
	ErrScoringFailed     = errors.New("scoring unavailable")
)
