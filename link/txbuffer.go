package link

import (
	"bytes"
	"sync"
)

// DefaultTxBufferSize is the amount of reply held back before the
// buffered part is written out.
const DefaultTxBufferSize = 4096

// TxBuffer holds what is sent during the processing of one line and writes
// it to the Stream on Flush. When the buffer fills up, the buffered bytes
// are written through and buffering starts over, so only the tail of a
// long reply, the final status line included, waits for Flush. Flushing
// once the interpreter has released its line buffer guarantees the peer
// never sees a final status before the next line can be received.
type TxBuffer struct {
	s     *Stream
	limit int

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewTxBuffer buffers the writes to s. A limit of zero selects
// DefaultTxBufferSize. The limit must hold the longest status line.
func NewTxBuffer(s *Stream, limit int) *TxBuffer {
	if limit <= 0 {
		limit = DefaultTxBufferSize
	}
	return &TxBuffer{s: s, limit: limit}
}

func (b *TxBuffer) Attach(rx func(b byte)) error {
	return b.s.Attach(rx)
}

// Detach drops whatever was not flushed and detaches the Stream.
func (b *TxBuffer) Detach() error {
	b.mu.Lock()
	b.buf.Reset()
	b.mu.Unlock()
	return b.s.Detach()
}

// Send appends p to the pending reply. If p does not fit, the pending reply
// is written to the Stream first; p itself is written directly when it is
// larger than the limit.
func (b *TxBuffer) Send(p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len()+len(p) <= b.limit {
		b.buf.Write(p)
		return nil
	}
	if err := b.writeOut(); err != nil {
		return err
	}
	if len(p) > b.limit {
		return b.s.Send(p)
	}
	b.buf.Write(p)
	return nil
}

// Flush writes the pending reply to the Stream. The buffer is emptied even
// when the write fails.
func (b *TxBuffer) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeOut()
}

func (b *TxBuffer) writeOut() error {
	if b.buf.Len() == 0 {
		return nil
	}
	defer b.buf.Reset()
	return b.s.Send(b.buf.Bytes())
}

// Buffered returns the number of bytes waiting for Flush.
func (b *TxBuffer) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *TxBuffer) Errors() <-chan error {
	return b.s.Errors()
}
