package interp_test

import (
	"bytes"
	"testing"

	"i4.energy/across/atcmd/interp"
)

// fakeLink is a test helper standing in for a serial port. Bytes written
// by the interpreter are collected in out; feed plays the receive side.
type fakeLink struct {
	rx        func(byte)
	out       bytes.Buffer
	sendErr   error
	failSends int // fail that many sends with sendErr, zero fails all
	attachErr error
	detachErr error
	detached  bool
}

func (l *fakeLink) Attach(rx func(byte)) error {
	if l.attachErr != nil {
		return l.attachErr
	}
	l.rx = rx
	return nil
}

func (l *fakeLink) Detach() error {
	l.detached = true
	return l.detachErr
}

func (l *fakeLink) Send(p []byte) error {
	if l.sendErr != nil {
		err := l.sendErr
		if l.failSends > 0 {
			l.failSends--
			if l.failSends == 0 {
				l.sendErr = nil
			}
		}
		return err
	}
	l.out.Write(p)
	return nil
}

func (l *fakeLink) feed(s string) {
	for i := 0; i < len(s); i++ {
		l.rx(s[i])
	}
}

// take returns and clears everything written so far.
func (l *fakeLink) take() string {
	s := l.out.String()
	l.out.Reset()
	return s
}

type harness struct {
	t        *testing.T
	link     *fakeLink
	it       *interp.Interpreter
	requests int
}

func newHarness(t *testing.T, configure func(b *interp.ConfigBuilder)) *harness {
	t.Helper()
	h := &harness{t: t, link: &fakeLink{}}

	builder := interp.NewConfigBuilder().
		WithProcessCallback(func() { h.requests++ }).
		WithVerbose(true)
	if configure != nil {
		configure(builder)
	}
	config, err := builder.Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	h.it, err = interp.New(h.link, config)
	if err != nil {
		t.Fatalf("unexpected error from New(): %v", err)
	}
	return h
}

// run feeds line, processes it and returns the reply.
func (h *harness) run(line string) (string, error) {
	h.t.Helper()
	h.link.feed(line)
	err := h.it.Process()
	return h.link.take(), err
}

func (h *harness) register(cmd *interp.Command) {
	h.t.Helper()
	if err := h.it.Register(cmd); err != nil {
		h.t.Fatalf("unexpected error from Register(%s): %v", cmd, err)
	}
}
