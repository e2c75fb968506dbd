package link

import (
	"context"
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate is used when neither BaudRate nor Mode is set.
const DefaultBaudRate = 115200

// SerialDialer opens a serial port with go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/ttyUSB0" or "COM3".
	PortName string
	// BaudRate is used with 8N1 framing when Mode is nil.
	BaudRate int
	// Mode overrides the whole line configuration.
	Mode *serial.Mode
}

func (d SerialDialer) mode() *serial.Mode {
	if d.Mode != nil {
		return d.Mode
	}
	baud := d.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
}

// Dial opens the port. Opening a serial port cannot be interrupted, so the
// context is only checked before and after the open call.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if d.PortName == "" {
		return nil, ErrNoPortName
	}
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	port, err := serial.Open(d.PortName, d.mode())
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}

	if err := ctx.Err(); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

func (d SerialDialer) String() string {
	return "serial://" + d.PortName
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
