// Package link provides the byte links an AT interpreter or a console
// client runs over: serial ports, TCP connections to emulators and MQTT
// topics.
package link

import (
	"context"
	"io"
)

//go:generate go tool mockgen -destination=mock_transport.go -package=link . Transport,Dialer

// Transport represents an established, bidirectional byte stream to an AT
// device.
//
// A Transport is assumed to be already connected and ready for use.
// Typical implementations include serial ports, TCP connections to
// emulators, MQTT topic pairs or in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport.
//
// Dialer abstracts how the connection is created (for example, via a serial
// port, TCP-based emulator, or test double) and is intended to be used
// during construction only. Once a Transport is obtained, the Dialer is no
// longer needed.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport.
	// It may perform blocking operations and should respect cancellation
	// and deadlines provided by the context. Dial returns an error if the
	// transport cannot be established.
	Dial(ctx context.Context) (Transport, error)
}
