package interp_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"i4.energy/across/atcmd/at"
	"i4.energy/across/atcmd/interp"
)

func TestNew(t *testing.T) {
	t.Run("ErrNullParameter when no process callback", func(t *testing.T) {
		_, err := interp.NewConfigBuilder().Build()
		if !errors.Is(err, interp.ErrNullParameter) {
			t.Errorf("expected ErrNullParameter from Build(), got: %v", err)
		}

		it, err := interp.New(&fakeLink{}, interp.Config{})
		if !errors.Is(err, interp.ErrNullParameter) {
			t.Errorf("expected ErrNullParameter from New(), got: %v", err)
		}
		if it != nil {
			t.Error("New() should return nil interpreter on error")
		}
	})

	t.Run("ErrNullParameter when no link", func(t *testing.T) {
		config, err := interp.NewConfigBuilder().WithProcessCallback(func() {}).Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}
		if _, err := interp.New(nil, config); !errors.Is(err, interp.ErrNullParameter) {
			t.Errorf("expected ErrNullParameter, got: %v", err)
		}
	})

	t.Run("ErrInvalidCapacity when built-ins do not fit", func(t *testing.T) {
		_, err := interp.NewConfigBuilder().
			WithProcessCallback(func() {}).
			WithCapacity(2).
			Build()
		if !errors.Is(err, interp.ErrInvalidCapacity) {
			t.Errorf("expected ErrInvalidCapacity, got: %v", err)
		}
	})

	t.Run("ErrInvalidBufferSize when header does not fit", func(t *testing.T) {
		_, err := interp.NewConfigBuilder().
			WithProcessCallback(func() {}).
			WithBufferSize(2).
			Build()
		if !errors.Is(err, interp.ErrInvalidBufferSize) {
			t.Errorf("expected ErrInvalidBufferSize, got: %v", err)
		}
	})

	t.Run("Attach failure is a transport error", func(t *testing.T) {
		config, err := interp.NewConfigBuilder().WithProcessCallback(func() {}).Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}
		link := &fakeLink{attachErr: errors.New("port busy")}
		if _, err := interp.New(link, config); !errors.Is(err, interp.ErrTransport) {
			t.Errorf("expected ErrTransport, got: %v", err)
		}
	})

	t.Run("Built-ins are registered", func(t *testing.T) {
		h := newHarness(t, nil)
		if got := h.it.Count(at.Basic); got != 3 {
			t.Errorf("expected 3 basic commands, got %d", got)
		}
		if got := h.it.Len(); got != 3 {
			t.Errorf("expected 3 commands, got %d", got)
		}
	})

	t.Run("Default flags", func(t *testing.T) {
		h := newHarness(t, func(b *interp.ConfigBuilder) {
			b.WithEcho(true).WithQuiet(true).WithVerbose(false)
		})
		if !h.it.Echo() || !h.it.Quiet() || h.it.Verbose() {
			t.Errorf("unexpected flags echo=%v quiet=%v verbose=%v", h.it.Echo(), h.it.Quiet(), h.it.Verbose())
		}
	})
}

func TestClose(t *testing.T) {
	t.Run("Detaches link", func(t *testing.T) {
		h := newHarness(t, nil)
		if err := h.it.Close(); err != nil {
			t.Errorf("unexpected error from Close(): %v", err)
		}
		if !h.link.detached {
			t.Error("Close() should detach the link")
		}
	})

	t.Run("ErrAlreadyClosed on double close", func(t *testing.T) {
		h := newHarness(t, nil)
		if err := h.it.Close(); err != nil {
			t.Errorf("first close should succeed, got error: %v", err)
		}
		if err := h.it.Close(); err != interp.ErrAlreadyClosed {
			t.Errorf("expected ErrAlreadyClosed on second close, got: %v", err)
		}
	})

	t.Run("Detach failure is a transport error", func(t *testing.T) {
		h := newHarness(t, nil)
		h.link.detachErr = errors.New("close failed")
		if err := h.it.Close(); !errors.Is(err, interp.ErrTransport) {
			t.Errorf("expected ErrTransport, got: %v", err)
		}
	})
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		line    string
		reply   string
		status  at.Status
	}{
		{name: "Ping", verbose: true, line: "AT\r", reply: "OK\r\n"},
		{name: "Ping non-verbose", line: "AT\r", reply: "0\r\n"},
		{name: "Missing header", verbose: true, line: "XY\r", reply: "ERROR:COMMAND_PARSING\r\n", status: at.StatusCommandParsing},
		{name: "Partial header", verbose: true, line: "A\r", reply: "ERROR:COMMAND_PARSING\r\n", status: at.StatusCommandParsing},
		{name: "Lowercase header", verbose: true, line: "at\r", reply: "ERROR:COMMAND_PARSING\r\n", status: at.StatusCommandParsing},
		{name: "Empty line", line: "\r", reply: "1\r\n", status: at.StatusCommandParsing},
		{name: "Help with trailing content", verbose: true, line: "AT?E\r", reply: "ERROR:COMMAND_PARSING\r\n", status: at.StatusCommandParsing},
		{name: "Unknown extended", verbose: true, line: "AT$FOO\r", reply: "ERROR:COMMAND_NOT_FOUND\r\n", status: at.StatusCommandNotFound},
		{name: "Unknown extended non-verbose", line: "AT$FOO\r", reply: "2\r\n", status: at.StatusCommandNotFound},
		{name: "Unknown basic", verbose: true, line: "ATZ\r", reply: "ERROR:COMMAND_NOT_FOUND\r\n", status: at.StatusCommandNotFound},
		{name: "Syntax is case sensitive", verbose: true, line: "ATe=1\r", reply: "ERROR:COMMAND_NOT_FOUND\r\n", status: at.StatusCommandNotFound},
		{name: "Basic read not defined", verbose: true, line: "ATE?\r", reply: "ERROR:COMMAND_READ_NOT_DEFINED\r\n", status: at.StatusReadNotDefined},
		{name: "Echo enable", verbose: true, line: "ATE=1\r", reply: "OK\r\n"},
		{name: "Echo enable non-verbose", line: "ATE=1\r", reply: "0\r\n"},
		{name: "Basic write without marker", verbose: true, line: "ATE0\r", reply: "OK\r\n"},
		{name: "Echo value out of range", verbose: true, line: "ATE=2\r", reply: "ERROR:COMMAND_BAD_PARAMETER_VALUE:0\r\n", status: at.StatusBadParameterValue},
		{name: "Echo value out of range non-verbose", line: "ATE=2\r", reply: "9\r\n", status: at.StatusBadParameterValue},
		{name: "Echo negative value", verbose: true, line: "ATE=-1\r", reply: "ERROR:COMMAND_BAD_PARAMETER_VALUE:0\r\n", status: at.StatusBadParameterValue},
		{name: "Echo value not a number", verbose: true, line: "ATE=x\r", reply: "ERROR:COMMAND_BAD_PARAMETER_PARSING:0\r\n", status: at.StatusBadParameterParsing},
		{name: "Echo value omitted", verbose: true, line: "ATE=,\r", reply: "ERROR:COMMAND_BAD_PARAMETER_PARSING:0\r\n", status: at.StatusBadParameterParsing},
		{name: "Echo without value", verbose: true, line: "ATE=\r", reply: "ERROR:COMMAND_BAD_PARAMETER_NUMBER:1\r\n", status: at.StatusBadParameterNumber},
		{name: "Echo too many values", verbose: true, line: "ATE=1,0\r", reply: "ERROR:COMMAND_BAD_PARAMETER_NUMBER:1\r\n", status: at.StatusBadParameterNumber},
		{name: "Too many arguments", verbose: true, line: "ATE=1,2,3,4,5,6,7,8,9,10,11\r", reply: "ERROR:COMMAND_BAD_PARAMETER_NUMBER:10\r\n", status: at.StatusBadParameterNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(b *interp.ConfigBuilder) { b.WithVerbose(tt.verbose) })

			reply, err := h.run(tt.line)
			if reply != tt.reply {
				t.Errorf("expected reply %q, got %q", tt.reply, reply)
			}
			if tt.status == at.Success {
				if err != nil {
					t.Errorf("unexpected error from Process(): %v", err)
				}
			} else if !errors.Is(err, tt.status) {
				t.Errorf("expected %v from Process(), got: %v", tt.status, err)
			}
			if h.it.Pending() || h.it.Ready() || h.it.Buffered() != 0 {
				t.Errorf("line state not reset: pending=%v ready=%v buffered=%d",
					h.it.Pending(), h.it.Ready(), h.it.Buffered())
			}
		})
	}
}

func TestProcessNothingBuffered(t *testing.T) {
	h := newHarness(t, nil)
	h.link.feed("AT")

	if err := h.it.Process(); err != nil {
		t.Errorf("unexpected error from Process(): %v", err)
	}
	if out := h.link.take(); out != "" {
		t.Errorf("expected no output, got %q", out)
	}
	if got := h.it.Buffered(); got != 2 {
		t.Errorf("partial line should be kept, got %d bytes", got)
	}
	if h.requests != 0 {
		t.Errorf("expected no process request, got %d", h.requests)
	}
}

func TestModeFlags(t *testing.T) {
	t.Run("Echo enables line echo", func(t *testing.T) {
		h := newHarness(t, nil)

		if _, err := h.run("ATE=1\r"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !h.it.Echo() {
			t.Fatal("echo should be enabled")
		}

		reply, err := h.run("AT$NOPE\r")
		if !errors.Is(err, at.StatusCommandNotFound) {
			t.Errorf("expected command not found, got: %v", err)
		}
		if want := "AT$NOPE\r\nERROR:COMMAND_NOT_FOUND\r\n"; reply != want {
			t.Errorf("expected %q, got %q", want, reply)
		}

		reply, _ = h.run("ATE\r")
		if want := "ATE\r\nOK\r\n"; reply != want {
			t.Errorf("expected %q, got %q", want, reply)
		}
		if h.it.Echo() {
			t.Error("bare ATE should disable echo")
		}
	})

	t.Run("Verbose toggles status format", func(t *testing.T) {
		h := newHarness(t, func(b *interp.ConfigBuilder) { b.WithVerbose(false) })

		if reply, _ := h.run("ATV=1\r"); reply != "OK\r\n" {
			t.Errorf("status should already be verbose, got %q", reply)
		}
		if reply, _ := h.run("ATV\r"); reply != "0\r\n" {
			t.Errorf("status should be numeric again, got %q", reply)
		}
	})

	t.Run("Quiet suppresses all output", func(t *testing.T) {
		h := newHarness(t, nil)

		if reply, _ := h.run("ATQ=1\r"); reply != "" {
			t.Errorf("expected no reply in quiet mode, got %q", reply)
		}
		if reply, _ := h.run("AT?\r"); reply != "" {
			t.Errorf("expected no help in quiet mode, got %q", reply)
		}
		if _, err := h.run("AT$NOPE\r"); !errors.Is(err, at.StatusCommandNotFound) {
			t.Errorf("errors are still returned in quiet mode, got: %v", err)
		}
		if reply, _ := h.run("ATQ\r"); reply != "OK\r\n" {
			t.Errorf("expected OK once quiet mode is off, got %q", reply)
		}
	})
}

func TestBackPressure(t *testing.T) {
	h := newHarness(t, nil)

	h.link.feed("AT\r")
	if !h.it.Ready() || !h.it.Pending() {
		t.Fatal("line should be ready and pending")
	}
	if h.requests != 1 {
		t.Fatalf("expected 1 process request, got %d", h.requests)
	}

	// Bytes arriving before the line is processed are dropped.
	h.link.feed("ATE=1\r")
	if got := h.it.Dropped(); got != 6 {
		t.Errorf("expected 6 dropped bytes, got %d", got)
	}
	if h.requests != 1 {
		t.Errorf("dropped end marker should not request processing, got %d requests", h.requests)
	}

	if err := h.it.Process(); err != nil {
		t.Fatalf("unexpected error from Process(): %v", err)
	}
	if reply := h.link.take(); reply != "OK\r\n" {
		t.Errorf("expected ping reply, got %q", reply)
	}
	if h.it.Echo() {
		t.Error("dropped line must not be executed")
	}

	// A second Process has nothing to do.
	if err := h.it.Process(); err != nil {
		t.Errorf("unexpected error from second Process(): %v", err)
	}
	if reply := h.link.take(); reply != "" {
		t.Errorf("expected no output, got %q", reply)
	}
}

func TestNullBytesIgnored(t *testing.T) {
	h := newHarness(t, nil)

	reply, err := h.run("A\x00T\x00E=1\r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "OK\r\n" || !h.it.Echo() {
		t.Errorf("expected echo enabled, got reply %q echo=%v", reply, h.it.Echo())
	}
}

func TestRecoveryAfterError(t *testing.T) {
	h := newHarness(t, nil)

	lines := []struct {
		line  string
		reply string
	}{
		{"garbage\r", "ERROR:COMMAND_PARSING\r\n"},
		{"AT$X\r", "ERROR:COMMAND_NOT_FOUND\r\n"},
		{"ATE=9\r", "ERROR:COMMAND_BAD_PARAMETER_VALUE:0\r\n"},
		{"AT\r", "OK\r\n"},
		{"ATE=1\r", "OK\r\n"},
		{"AT\r", "AT\r\nOK\r\n"},
	}
	for _, l := range lines {
		reply, _ := h.run(l.line)
		if reply != l.reply {
			t.Errorf("line %q: expected %q, got %q", l.line, l.reply, reply)
		}
		if h.it.Pending() || h.it.Buffered() != 0 || h.it.Current() != nil {
			t.Errorf("line %q: state not reset", l.line)
		}
	}
}

func TestOverflow(t *testing.T) {
	t.Run("Reject answers parsing error", func(t *testing.T) {
		h := newHarness(t, func(b *interp.ConfigBuilder) { b.WithBufferSize(8) })

		h.link.feed("ATE=1,0,1,0")
		if got := h.it.Buffered(); got != 8 {
			t.Errorf("expected a full buffer, got %d bytes", got)
		}

		reply, err := h.run("\r")
		if !errors.Is(err, at.StatusCommandParsing) {
			t.Errorf("expected parsing error, got: %v", err)
		}
		if reply != "ERROR:COMMAND_PARSING\r\n" {
			t.Errorf("unexpected reply %q", reply)
		}
		if h.it.Echo() {
			t.Error("overflowed line must not be executed")
		}

		if reply, _ := h.run("ATE=1\r"); reply != "OK\r\n" {
			t.Errorf("next line should be processed normally, got %q", reply)
		}
	})

	t.Run("Wrap keeps count modulo capacity", func(t *testing.T) {
		h := newHarness(t, func(b *interp.ConfigBuilder) {
			b.WithBufferSize(8).WithOverflowPolicy(interp.OverflowWrap)
		})

		h.link.feed("ATE=1,0,1,0")
		if got := h.it.Buffered(); got != 11%8 {
			t.Errorf("expected %d buffered bytes, got %d", 11%8, got)
		}

		// The start of the line is overwritten with "1,0" so the header is
		// gone and the line fails to parse instead of faulting.
		reply, err := h.run("\r")
		if !errors.Is(err, at.StatusCommandParsing) {
			t.Errorf("expected parsing error, got: %v", err)
		}
		if reply != "ERROR:COMMAND_PARSING\r\n" {
			t.Errorf("unexpected reply %q", reply)
		}
		if h.it.Pending() || h.it.Buffered() != 0 {
			t.Error("line state not reset")
		}
	})

	t.Run("Wrap at exact capacity processes the whole buffer", func(t *testing.T) {
		h := newHarness(t, func(b *interp.ConfigBuilder) {
			b.WithBufferSize(5).WithOverflowPolicy(interp.OverflowWrap)
		})

		reply, err := h.run("ATE=1\r")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply != "OK\r\n" || !h.it.Echo() {
			t.Errorf("expected echo enabled, got reply %q", reply)
		}
	})
}

func TestTransportFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.link.sendErr = errors.New("tx fault")

	_, err := h.run("AT?\r")
	if !errors.Is(err, interp.ErrTransport) {
		t.Errorf("expected ErrTransport, got: %v", err)
	}
	if h.it.Pending() || h.it.Buffered() != 0 {
		t.Error("line state not reset after transport failure")
	}

	h.link.sendErr = nil
	if reply, err := h.run("AT\r"); err != nil || reply != "OK\r\n" {
		t.Errorf("expected recovery, got reply %q err %v", reply, err)
	}
}

func TestEchoFailure(t *testing.T) {
	h := newHarness(t, func(b *interp.ConfigBuilder) { b.WithEcho(true) })
	executed := false
	h.register(&interp.Command{
		Syntax:   "RUN",
		Category: at.Extended,
		Help:     "Run",
		Execute: func(interp.Replier) error {
			executed = true
			return nil
		},
	})

	h.link.sendErr = errors.New("tx fault")
	h.link.failSends = 1

	reply, err := h.run("AT$RUN\r")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !executed {
		t.Error("line not executed after the echo failed")
	}
	if reply != "OK\r\n" {
		t.Errorf("reply = %q, want %q", reply, "OK\r\n")
	}
}

func TestHelp(t *testing.T) {
	t.Run("Built-ins only", func(t *testing.T) {
		h := newHarness(t, nil)

		reply, err := h.run("AT?\r")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := strings.Join([]string{
			"Basic commands",
			"    E : Interface echo control",
			"        -> ATE : Disable echo",
			"        -> ATE<enable> : Enable (1) or disable (0) echo",
			"    V : Interface verbosity level",
			"        -> ATV : Disable verbose mode",
			"        -> ATV<enable> : Enable (1) or disable (0) verbose mode",
			"    Q : Interface quiet mode control",
			"        -> ATQ : Disable quiet mode",
			"        -> ATQ<enable> : Enable (1) or disable (0) quiet mode",
			"Extended commands",
			"    None",
			"Debug commands",
			"    None",
			"OK",
		}, "\r\n") + "\r\n"
		if reply != want {
			t.Errorf("unexpected help:\n%s\nwant:\n%s", reply, want)
		}
	})

	t.Run("Every mode of an extended command", func(t *testing.T) {
		h := newHarness(t, nil)
		h.register(&interp.Command{
			Syntax:         "ID",
			Category:       at.Extended,
			Help:           "Device name",
			Execute:        func(interp.Replier) error { return nil },
			ExecuteHelp:    "Reset name",
			Read:           func(interp.Replier) error { return nil },
			ReadHelp:       "Read name",
			Write:          func(interp.Replier, interp.Args) error { return nil },
			WriteArguments: "<name>",
			WriteHelp:      "Set name",
		})
		h.register(&interp.Command{
			Syntax:   "RST",
			Category: at.Debug,
			Help:     "Reset",
			Execute:  func(interp.Replier) error { return nil },
		})

		reply, err := h.run("AT?\r")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := strings.Join([]string{
			"Extended commands",
			"    ID : Device name",
			"        -> AT$ID : Reset name",
			"        -> AT$ID=<name> : Set name",
			"        -> AT$ID? : Read name",
			"Debug commands",
			"    RST : Reset",
			"        -> AT!RST : ",
			"OK",
		}, "\r\n") + "\r\n"
		if !strings.HasSuffix(reply, want) {
			t.Errorf("unexpected help:\n%s\nwant suffix:\n%s", reply, want)
		}
	})
}

func TestDispatch(t *testing.T) {
	var got interp.Args
	var calls []string

	h := newHarness(t, nil)
	h.register(&interp.Command{
		Syntax:   "ARGS",
		Category: at.Extended,
		Help:     "Argument capture",
		Write: func(_ interp.Replier, args interp.Args) error {
			calls = append(calls, "write")
			got = args
			return nil
		},
		WriteArguments: "<a>,<b>,<c>",
	})
	h.register(&interp.Command{
		Syntax:   "VER",
		Category: at.Extended,
		Help:     "Firmware version",
		Read: func(r interp.Replier) error {
			calls = append(calls, "read")
			return r.SendReply(nil, "1.2.0")
		},
	})
	h.register(&interp.Command{
		Syntax:   "RST",
		Category: at.Debug,
		Help:     "Reset",
		Execute: func(r interp.Replier) error {
			calls = append(calls, "execute")
			return nil
		},
	})

	t.Run("Omitted arguments", func(t *testing.T) {
		reply, err := h.run("AT$ARGS=,,3\r")
		if err != nil || reply != "OK\r\n" {
			t.Fatalf("unexpected reply %q err %v", reply, err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 arguments, got %d", len(got))
		}
		if !got[0].Omitted() || !got.Omitted(1) {
			t.Error("first two arguments should be omitted")
		}
		if got.Omitted(2) || got.String(2) != "3" {
			t.Errorf("third argument should be \"3\", got %q", got.String(2))
		}
	})

	t.Run("No arguments", func(t *testing.T) {
		if _, err := h.run("AT$ARGS=\r"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no arguments, got %d", len(got))
		}
	})

	t.Run("Read streams a prefixed reply", func(t *testing.T) {
		reply, err := h.run("AT$VER?\r")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply != "$VER:1.2.0\r\nOK\r\n" {
			t.Errorf("unexpected reply %q", reply)
		}
	})

	t.Run("Execute debug command", func(t *testing.T) {
		calls = nil
		if reply, err := h.run("AT!RST\r"); err != nil || reply != "OK\r\n" {
			t.Errorf("unexpected reply %q err %v", reply, err)
		}
		if len(calls) != 1 || calls[0] != "execute" {
			t.Errorf("unexpected calls %v", calls)
		}
	})

	t.Run("Categories are separate namespaces", func(t *testing.T) {
		if _, err := h.run("AT!VER?\r"); !errors.Is(err, at.StatusCommandNotFound) {
			t.Errorf("expected command not found, got: %v", err)
		}
	})

	modes := []struct {
		line   string
		status at.Status
	}{
		{"AT$VER\r", at.StatusExecutionNotDefined},
		{"AT$VER=1\r", at.StatusWriteNotDefined},
		{"AT$ARGS?\r", at.StatusReadNotDefined},
		{"AT$VER#\r", at.StatusMarkerNotDefined},
		{"AT!RST?\r", at.StatusReadNotDefined},
	}
	for _, m := range modes {
		t.Run(fmt.Sprintf("Mode not defined %q", m.line), func(t *testing.T) {
			calls = nil
			reply, err := h.run(m.line)
			if !errors.Is(err, m.status) {
				t.Errorf("expected %v, got: %v", m.status, err)
			}
			if want := "ERROR:" + m.status.Name() + "\r\n"; reply != want {
				t.Errorf("expected %q, got %q", want, reply)
			}
			if len(calls) != 0 {
				t.Errorf("no handler should run, got %v", calls)
			}
		})
	}
}

func TestPrefixMatch(t *testing.T) {
	var hit string
	h := newHarness(t, nil)
	h.register(&interp.Command{
		Syntax:   "T",
		Category: at.Extended,
		Read: func(interp.Replier) error {
			hit = "T"
			return nil
		},
	})
	h.register(&interp.Command{
		Syntax:   "TEMP",
		Category: at.Extended,
		Read: func(interp.Replier) error {
			hit = "TEMP"
			return nil
		},
	})

	// First registered match wins, so TEMP is shadowed by T and the marker
	// after "T" is 'E'.
	if _, err := h.run("AT$TEMP?\r"); !errors.Is(err, at.StatusMarkerNotDefined) {
		t.Errorf("expected marker not defined, got: %v", err)
	}
	if _, err := h.run("AT$T?\r"); err != nil || hit != "T" {
		t.Errorf("expected T to run, got hit=%q err=%v", hit, err)
	}
}

func TestHandlerErrors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		text  interp.ErrorTextFunc
		reply string
	}{
		{
			name:  "Parameter number",
			err:   interp.ParamNumberError(2),
			reply: "ERROR:COMMAND_BAD_PARAMETER_NUMBER:2\r\n",
		},
		{
			name:  "Parameter parsing",
			err:   interp.ParamParsingError(1),
			reply: "ERROR:COMMAND_BAD_PARAMETER_PARSING:1\r\n",
		},
		{
			name:  "Core error hexadecimal fallback",
			err:   interp.CoreError(0x2A),
			reply: "ERROR:COMMAND_CORE_ERROR:0x2A\r\n",
		},
		{
			name:  "Core error translated",
			err:   interp.CoreError(3),
			text:  func(code int32) string { return fmt.Sprintf("SENSOR_%d", code) },
			reply: "ERROR:COMMAND_CORE_ERROR:SENSOR_3\r\n",
		},
		{
			name:  "Plain error is a core error",
			err:   errors.New("i2c nack"),
			reply: "ERROR:COMMAND_CORE_ERROR:0x00\r\n",
		},
		{
			name:  "Bare external status",
			err:   at.StatusBadParameterValue,
			reply: "ERROR:COMMAND_BAD_PARAMETER_VALUE:0\r\n",
		},
		{
			name:  "Wrapped command error",
			err:   fmt.Errorf("set rate: %w", interp.ParamValueError(4)),
			reply: "ERROR:COMMAND_BAD_PARAMETER_VALUE:4\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.register(&interp.Command{
				Syntax:    "FAIL",
				Category:  at.Extended,
				Execute:   func(interp.Replier) error { return tt.err },
				ErrorText: tt.text,
			})

			reply, err := h.run("AT$FAIL\r")
			if reply != tt.reply {
				t.Errorf("expected %q, got %q", tt.reply, reply)
			}
			var cmdErr *interp.CommandError
			if !errors.As(err, &cmdErr) {
				t.Errorf("expected *CommandError, got: %v", err)
			}
		})
	}
}

func TestSendReply(t *testing.T) {
	h := newHarness(t, nil)
	other := &interp.Command{Syntax: "OTHER", Category: at.Debug}
	h.register(&interp.Command{
		Syntax:   "MULTI",
		Category: at.Extended,
		Read: func(r interp.Replier) error {
			if err := r.SendReply(nil, "a"); err != nil {
				return err
			}
			if err := r.SendReply(other, "b"); err != nil {
				return err
			}
			if err := r.SendReply(nil, ""); !errors.Is(err, interp.ErrNullParameter) {
				return fmt.Errorf("expected ErrNullParameter, got %v", err)
			}
			return r.PrintLine("raw")
		},
	})

	reply, err := h.run("AT$MULTI?\r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "$MULTI:a\r\n!OTHER:b\r\nraw\r\nOK\r\n"; reply != want {
		t.Errorf("expected %q, got %q", want, reply)
	}

	// Outside of a dispatch there is no current command to prefix with.
	if err := h.it.SendReply(nil, "boot"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply := h.link.take(); reply != "boot\r\n" {
		t.Errorf("expected unprefixed reply, got %q", reply)
	}
}
