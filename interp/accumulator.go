package interp

import "i4.energy/across/atcmd/at"

// Receive is the byte-received callback handed to the Link. It runs in the
// receive context and may be called concurrently with Process, but never
// concurrently with itself.
//
// While a line is waiting to be processed every incoming byte is dropped.
// The line buffer is only written while pending is false and only read
// while it is true, which is what keeps Receive and Process apart.
func (it *Interpreter) Receive(b byte) {
	if b == 0 {
		return
	}
	if it.pending.Load() {
		it.dropped.Add(1)
		return
	}
	if b == at.LineEnd {
		it.process.Store(true)
		it.pending.Store(true)
		if it.notify != nil {
			it.notify()
		}
		return
	}
	switch it.overflow {
	case OverflowWrap:
		it.buf[it.size] = b
		it.size = (it.size + 1) % len(it.buf)
		if it.size == 0 {
			it.wrapped = true
		}
	default:
		if it.size == len(it.buf) {
			it.overflowed = true
			return
		}
		it.buf[it.size] = b
		it.size++
	}
}

// line returns the buffered line. A wrapped line spans the whole buffer.
func (it *Interpreter) line() []byte {
	if it.wrapped {
		return it.buf
	}
	return it.buf[:it.size]
}

// reset clears the line state and releases the receive side.
func (it *Interpreter) reset() {
	clear(it.buf)
	it.size = 0
	it.wrapped = false
	it.overflowed = false
	it.current = nil
	it.pending.Store(false)
}

// Pending reports whether a line is buffered or being processed. New bytes
// are dropped while it is true.
func (it *Interpreter) Pending() bool {
	return it.pending.Load()
}

// Ready reports whether a complete line waits for Process.
func (it *Interpreter) Ready() bool {
	return it.process.Load()
}

// Buffered returns the number of bytes stored for the line in progress.
// It must not be called concurrently with Receive.
func (it *Interpreter) Buffered() int {
	return it.size
}

// Dropped returns the number of bytes discarded because a line was
// pending.
func (it *Interpreter) Dropped() uint64 {
	return it.dropped.Load()
}
