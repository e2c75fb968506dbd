package link

import "errors"

var (
	// ErrNoPortName is returned by SerialDialer when no port is configured.
	ErrNoPortName = errors.New("link: serial port name is required")

	// ErrNilContext is returned by dialers called with a nil context.
	ErrNilContext = errors.New("link: context is nil")

	// ErrNoAddress is returned by TCPDialer and MQTTDialer when no address
	// or broker is configured.
	ErrNoAddress = errors.New("link: address is required")

	// ErrNoTopic is returned by MQTTDialer when a topic is missing.
	ErrNoTopic = errors.New("link: mqtt topic is required")

	// ErrAlreadyAttached is returned when Attach is called on a Stream that
	// is already delivering bytes.
	ErrAlreadyAttached = errors.New("link: stream already attached")

	// ErrClosed is returned when using a Stream or MQTT transport after it
	// was closed.
	ErrClosed = errors.New("link: closed")
)
