package controller

import (
	"errors"
	"fmt"

	"artd/internal/prompts"
)

// notFoundError signals an unknown worker id or a missing prompt file.
type notFoundError struct {
	what string
	id   string
}

func (e notFoundError) Error() string { return e.what + " not found: " + e.id }

// IsNotFound reports whether err indicates an unknown worker or missing source.
func IsNotFound(err error) bool {
	var e notFoundError
	return errors.As(err, &e)
}

func workerNotFound(id int) error { return notFoundError{what: "worker", id: fmt.Sprint(id)} }

// alreadyBusyError signals an assignment to a worker that already has a job.
type alreadyBusyError struct{ workerID int }

func (e alreadyBusyError) Error() string { return fmt.Sprintf("worker %d is already busy", e.workerID) }

// IsAlreadyBusy reports whether err indicates an assignment to a busy worker.
func IsAlreadyBusy(err error) bool {
	var e alreadyBusyError
	return errors.As(err, &e)
}

// invalidArgumentError signals a rejected argument (negative capacity, ...).
type invalidArgumentError struct{ msg string }

func (e invalidArgumentError) Error() string { return "invalid argument: " + e.msg }

// ErrInvalidArgument constructs an invalidArgumentError.
func ErrInvalidArgument(msg string) error { return invalidArgumentError{msg: msg} }

// IsInvalidArgument reports whether err indicates a rejected argument.
func IsInvalidArgument(err error) bool {
	var e invalidArgumentError
	return errors.As(err, &e)
}

// IsParseError reports whether err indicates a malformed prompt file.
func IsParseError(err error) bool {
	var e *prompts.ParseError
	return errors.As(err, &e)
}

// shuttingDownError signals an operation refused after Shutdown.
type shuttingDownError struct{ op string }

func (e shuttingDownError) Error() string { return e.op + ": controller is shutting down" }

// IsShuttingDown reports whether err was returned because of shutdown.
func IsShuttingDown(err error) bool {
	var e shuttingDownError
	return errors.As(err, &e)
}
