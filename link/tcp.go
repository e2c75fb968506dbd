package link

import (
	"context"
	"net"
)

// TCPDialer connects to a device emulator, or to a serial-to-TCP bridge,
// that exposes the AT link on a TCP port.
type TCPDialer struct {
	Address string
}

func (d TCPDialer) Dial(ctx context.Context) (Transport, error) {
	if d.Address == "" {
		return nil, ErrNoAddress
	}
	if ctx == nil {
		return nil, ErrNilContext
	}
	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (d TCPDialer) String() string {
	return "tcp://" + d.Address
}
