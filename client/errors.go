package client

import (
	"errors"
	"fmt"

	"i4.energy/across/atcmd/at"
)

var (
	// ErrNoDialer is returned when a Client is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the interpreter.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a
	// Client that has not been successfully initialized.
	ErrNotInitialized = errors.New("client not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Client that has
	// already been closed.
	ErrAlreadyClosed = errors.New("client already closed")

	// ErrLoopRunning is returned when Loop is called while another Loop is
	// still running.
	ErrLoopRunning = errors.New("loop already running")

	// ErrUnexpectedReply is returned when the interpreter answers with a
	// final line that cannot be decoded.
	ErrUnexpectedReply = errors.New("unexpected reply")

	// ErrInvalidLine is returned by Exec for empty lines or lines carrying
	// a line terminator.
	ErrInvalidLine = errors.New("invalid command line")
)

// CommandError is returned when the interpreter answers a line with an error
// status. It matches the status with errors.Is:
//
//	if errors.Is(err, at.StatusCommandNotFound) { ... }
type CommandError struct {
	// Line is the command line that was sent.
	Line string
	// Status is the decoded final status.
	Status at.Status
	// Detail is the text printed after the status name in verbose mode,
	// usually the auxiliary code of an external error.
	Detail string
}

func (e *CommandError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Line, e.Status.Error(), e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Line, e.Status.Error())
}

func (e *CommandError) Unwrap() error {
	return e.Status
}
