package jobs

import "errors"

var (
	// ErrJobNotFound indicates no job exists with the given ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobFinished indicates an update was attempted on a job that has
	// already completed or failed. Terminal states are immutable.
	ErrJobFinished = errors.New("job already finished")
)
