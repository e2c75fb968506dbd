package client_test

import (
	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/atcmd/link"
)

type MockSequenceBuilder struct {
	transport *link.MockTransport
	calls     []any
}

func NewMockSequence(transport *link.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

// exchange expects line to be written and answers with resp.
func (b *MockSequenceBuilder) exchange(line, resp string) *MockSequenceBuilder {
	wire := []byte(line + "\r")
	b.calls = append(b.calls,
		b.transport.EXPECT().Write(wire).Return(len(wire), nil),
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			return copy(p, resp), nil
		}),
	)
	return b
}

// AT answers the sanity check with echo still enabled.
func (b *MockSequenceBuilder) AT() *MockSequenceBuilder {
	return b.exchange("AT", "AT\r\nOK\r\n")
}

// EchoOff answers in non-verbose mode, the interpreter default.
func (b *MockSequenceBuilder) EchoOff() *MockSequenceBuilder {
	return b.exchange("ATE=0", "ATE=0\r\n0\r\n")
}

func (b *MockSequenceBuilder) VerboseOn() *MockSequenceBuilder {
	return b.exchange("ATV=1", "OK\r\n")
}

// VerboseRejected answers ATV=1 as an interpreter without a write handler
// for V would.
func (b *MockSequenceBuilder) VerboseRejected() *MockSequenceBuilder {
	return b.exchange("ATV=1", "5\r\n")
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}

func initMockCalls(transport *link.MockTransport) []any {
	return NewMockSequence(transport).
		AT().
		EchoOff().
		VerboseOn().
		Build()
}
