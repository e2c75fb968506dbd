package link

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

const readChunk = 64

// Stream adapts a Transport to the byte-oriented contract of an AT
// interpreter: received bytes are pushed one at a time to a callback and
// replies are written synchronously.
//
// A Stream owns its Transport. Detach closes it.
type Stream struct {
	t Transport

	mu       sync.Mutex
	attached bool
	closed   bool

	detaching atomic.Bool
	done      chan struct{}
	errs      chan error

	wmu sync.Mutex
}

// NewStream wraps t. The returned Stream delivers nothing until Attach.
func NewStream(t Transport) *Stream {
	return &Stream{
		t:    t,
		done: make(chan struct{}),
		errs: make(chan error, 1),
	}
}

// Attach starts the reader goroutine. rx is called from that goroutine for
// every byte read, in order.
func (s *Stream) Attach(rx func(b byte)) error {
	if rx == nil {
		return errors.New("link: nil receive callback")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.attached {
		return ErrAlreadyAttached
	}
	s.attached = true
	go s.read(rx)
	return nil
}

func (s *Stream) read(rx func(b byte)) {
	defer close(s.done)
	defer close(s.errs)

	buf := make([]byte, readChunk)
	for {
		n, err := s.t.Read(buf)
		for _, b := range buf[:n] {
			rx(b)
		}
		if err != nil {
			if !s.detaching.Load() {
				s.errs <- err
			}
			return
		}
	}
}

// Errors reports the error that stopped the reader, io.EOF included. The
// channel is closed once the reader has exited. Errors caused by Detach are
// not reported.
func (s *Stream) Errors() <-chan error {
	return s.errs
}

// Send writes p in full.
func (s *Stream) Send(p []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	for len(p) > 0 {
		n, err := s.t.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// Detach closes the transport and waits for the reader to exit.
func (s *Stream) Detach() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	attached := s.attached
	s.mu.Unlock()

	s.detaching.Store(true)
	err := s.t.Close()
	if attached {
		<-s.done
	} else {
		close(s.errs)
	}
	return err
}
