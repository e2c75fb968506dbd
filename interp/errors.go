package interp

import (
	"errors"

	"i4.energy/across/atcmd/at"
)

// Driver errors. They are returned to the calling code and are never
// printed on the link. Each one is the matching at.Status, so callers may
// use errors.Is with either form.
var (
	// ErrNullParameter is returned when a required argument is missing: a nil
	// link or process callback in New, a nil command in Register or an empty
	// reply in SendReply.
	ErrNullParameter error = at.StatusNullParameter

	// ErrWriteArgumentsMissing is returned by Register when a command has a
	// write handler but no write arguments description.
	ErrWriteArgumentsMissing error = at.StatusWriteArgumentsMissing

	// ErrInvalidCategory is returned by Register when the command category
	// is outside the defined set.
	ErrInvalidCategory error = at.StatusInvalidCategory

	// ErrAlreadyRegistered is returned by Register when the same command
	// descriptor is already in the registry.
	ErrAlreadyRegistered error = at.StatusAlreadyRegistered

	// ErrRegistryFull is returned by Register when every slot is taken.
	ErrRegistryFull error = at.StatusRegistryFull

	// ErrNotRegistered is returned by Unregister when the descriptor is not
	// in the registry.
	ErrNotRegistered error = at.StatusNotRegistered

	// ErrTransport wraps every failure reported by the Link.
	ErrTransport error = at.StatusTransport
)

var (
	// ErrAlreadyClosed is returned when Close is called on an Interpreter
	// that has already been closed.
	ErrAlreadyClosed = errors.New("interpreter already closed")

	// ErrInvalidCapacity is returned when the registry capacity cannot hold
	// the built-in commands.
	ErrInvalidCapacity = errors.New("registry capacity too small")

	// ErrInvalidBufferSize is returned when the line buffer cannot hold the
	// protocol header.
	ErrInvalidBufferSize = errors.New("line buffer too small")
)
