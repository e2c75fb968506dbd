// Package interp implements an AT command interpreter: it buffers lines
// received byte by byte from a Link, dispatches them to registered commands
// and prints the replies back on the same Link.
//
// The interpreter runs in two contexts. Receive is called for each incoming
// byte, typically from a reader goroutine. Process is called from the main
// loop after the process callback signalled a complete line. Everything
// else (registration, flags, replies) belongs to the main loop.
package interp

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"i4.energy/across/atcmd/at"
)

// Link is the byte-oriented hardware link the interpreter is attached to.
type Link interface {
	// Attach registers rx to be called once per received byte.
	Attach(rx func(b byte)) error
	// Detach stops byte delivery and releases the link.
	Detach() error
	// Send writes p to the link.
	Send(p []byte) error
}

// Interpreter is an AT command interpreter bound to one Link.
type Interpreter struct {
	link     Link
	logger   *slog.Logger
	notify   func()
	overflow OverflowPolicy
	closed   bool

	// Line state. Written by Receive while pending is false, read and
	// reset by Process while it is true.
	buf        []byte
	size       int
	wrapped    bool
	overflowed bool

	process atomic.Bool
	pending atomic.Bool
	dropped atomic.Uint64

	// Mode flags, main loop only.
	quiet   bool
	verbose bool
	echo    bool

	// current is the command being dispatched. It is nil outside Process.
	current *Command

	registry registry
	builtins []*Command
}

// New attaches an interpreter to link and registers the built-in echo,
// verbose and quiet commands.
func New(link Link, config Config) (*Interpreter, error) {
	if link == nil {
		return nil, ErrNullParameter
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	it := &Interpreter{
		link:     link,
		logger:   config.logger,
		notify:   config.processCallback,
		overflow: config.overflow,
		buf:      make([]byte, config.bufferSize),
		quiet:    config.quiet,
		verbose:  config.verbose,
		echo:     config.echo,
		registry: newRegistry(config.capacity),
	}

	if err := link.Attach(it.Receive); err != nil {
		return nil, fmt.Errorf("%w: attach: %w", ErrTransport, err)
	}

	it.builtins = it.newBuiltins()
	for _, cmd := range it.builtins {
		if err := it.registry.register(cmd); err != nil {
			link.Detach()
			return nil, fmt.Errorf("register %s: %w", cmd, err)
		}
	}

	return it, nil
}

// Close detaches the interpreter from its link. The registry is left as is.
func (it *Interpreter) Close() error {
	if it.closed {
		return ErrAlreadyClosed
	}
	it.closed = true

	if err := it.link.Detach(); err != nil {
		return fmt.Errorf("%w: detach: %w", ErrTransport, err)
	}
	return nil
}

// Register adds cmd to the command table.
func (it *Interpreter) Register(cmd *Command) error {
	if err := it.registry.register(cmd); err != nil {
		return err
	}
	it.logger.Debug("Command registered", "command", cmd.String(), "category", cmd.Category)
	return nil
}

// Unregister removes cmd from the command table, freeing its slot.
func (it *Interpreter) Unregister(cmd *Command) error {
	if err := it.registry.unregister(cmd); err != nil {
		return err
	}
	it.logger.Debug("Command unregistered", "command", cmd.String())
	return nil
}

// Registered reports whether cmd is in the command table.
func (it *Interpreter) Registered(cmd *Command) bool {
	return cmd != nil && it.registry.contains(cmd)
}

// Count returns the number of registered commands of category.
func (it *Interpreter) Count(category at.Category) int {
	return it.registry.count(category)
}

// Len returns the number of registered commands.
func (it *Interpreter) Len() int {
	return it.registry.size()
}

// Current returns the command being dispatched, or nil outside of a
// handler call.
func (it *Interpreter) Current() *Command {
	return it.current
}

// Echo reports whether received lines are printed back.
func (it *Interpreter) Echo() bool { return it.echo }

// Verbose reports whether status lines are printed by name.
func (it *Interpreter) Verbose() bool { return it.verbose }

// Quiet reports whether all output is suppressed.
func (it *Interpreter) Quiet() bool { return it.quiet }

// Process handles the buffered line, if any. It prints the line status and
// returns it: nil on success, an at.Status or a *CommandError otherwise.
// Whatever happens the line buffer is cleared and the receive side released
// before Process returns.
func (it *Interpreter) Process() error {
	if !it.process.Load() {
		return nil
	}
	it.process.Store(false)
	defer it.reset()

	line := it.line()
	err := it.processLine(line)
	status, code := statusOf(err)

	printErr := it.printStatus(status, code)
	if printErr != nil {
		it.logger.Error("Failed to print status", "error", printErr, "status", status)
	}

	it.logger.Debug("Line processed",
		"line", string(line),
		"status", status,
		"code", code,
		"command", commandName(it.current),
		"dropped", it.dropped.Load(),
	)

	if err != nil {
		return err
	}
	return printErr
}

func (it *Interpreter) processLine(line []byte) error {
	if it.echo {
		if err := it.PrintLine(string(line)); err != nil {
			it.logger.Warn("Failed to echo line", "error", err, "line", string(line))
		}
	}
	if it.overflowed {
		return at.StatusCommandParsing
	}

	rest, ok := bytes.CutPrefix(line, []byte(at.Header))
	if !ok {
		return at.StatusCommandParsing
	}
	if len(rest) == 0 {
		// Ping.
		return nil
	}

	switch rest[0] {
	case at.MarkerRead:
		if len(rest) != 1 {
			return at.StatusCommandParsing
		}
		return it.printHelpAll()
	case at.MarkerExtended:
		return it.dispatch(string(rest[1:]), at.Extended)
	case at.MarkerDebug:
		return it.dispatch(string(rest[1:]), at.Debug)
	default:
		return it.dispatch(string(rest), at.Basic)
	}
}

// statusOf maps the outcome of a line to the status and code to print.
func statusOf(err error) (at.Status, int32) {
	if err == nil {
		return at.Success, 0
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Status, cmdErr.Code
	}
	var s at.Status
	if errors.As(err, &s) {
		return s, 0
	}
	return at.StatusTransport, 0
}

func commandName(cmd *Command) string {
	if cmd == nil {
		return ""
	}
	return cmd.String()
}

// Lookup returns the registered command of category whose syntax is
// exactly syntax.
func (it *Interpreter) Lookup(category at.Category, syntax string) *Command {
	for _, cmd := range it.registry.commands(category) {
		if cmd.Syntax == syntax {
			return cmd
		}
	}
	return nil
}
