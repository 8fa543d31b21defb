package interfaces

import "errors"

var (
	// ErrJobNotFound is returned when a job ID has no stored record
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyRunning is returned when a start or resume races an
	// active run of the same job
	ErrJobAlreadyRunning = errors.New("job already running")

	// ErrInvalidTransition is returned when an operation is not legal for
	// the job's current status
	ErrInvalidTransition = errors.New("invalid job state transition")

	// ErrSummaryNotFound is returned when an item has no stored summary
	ErrSummaryNotFound = errors.New("summary not found")
)
