// Package client drives an AT command interpreter from the host side of a
// link. All transport reads are owned by a single event loop; commands are
// queued to it and answered with their reply lines and final status.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"i4.energy/across/atcmd/at"
	"i4.energy/across/atcmd/link"
)

// Client is a console attached to an AT interpreter.
type Client struct {
	// transport provides the physical connection (serial, TCP, MQTT...)
	transport link.Transport
	config    Config
	// scanner tokenizes everything read from transport, during
	// initialization and then inside Loop
	scanner *bufio.Scanner

	closed      atomic.Bool
	loopRunning atomic.Bool

	// unsolicited receives data lines that arrive while no command is in
	// flight
	unsolicited chan string
	// commands queues requests for the Loop to process
	commands chan *commandRequest

	loopCtx    context.Context
	loopCancel context.CancelFunc
}

// Response is the answer to one command line.
type Response struct {
	// Lines holds the data lines printed before the final status, without
	// the echo of the command.
	Lines  []string
	Status at.Status
	// Detail is the text after the status name in a verbose error line.
	Detail string
}

// Text joins the reply lines with newlines.
func (r *Response) Text() string {
	return strings.Join(r.Lines, "\n")
}

type commandRequest struct {
	line     string
	respChan chan commandResponse
	ctx      context.Context
}

type commandResponse struct {
	resp *Response
	err  error
}

// inflight tracks the command the Loop is collecting lines for.
type inflight struct {
	req       *commandRequest
	lines     []string
	echoSeen  bool
	discarded int // late finals of earlier commands seen while in flight
}

// accept reports whether token belongs to the reply. The echo of the
// command line, printed when the interpreter has echo enabled, is skipped.
func (f *inflight) accept(token string) bool {
	if !f.echoSeen && len(f.lines) == 0 && token == f.req.line {
		f.echoSeen = true
		return false
	}
	return true
}

// New dials the interpreter and runs the initialization sequence: a sanity
// check, echo off and verbose status lines on.
//
// Returns an error if the transport connection or the initialization
// fails.
func New(ctx context.Context, config Config) (*Client, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}

	c := &Client{
		transport:   transport,
		config:      config,
		unsolicited: make(chan string, unsolicitedBuffer),
		commands:    make(chan *commandRequest),
	}
	if transport != nil {
		c.scanner = bufio.NewScanner(transport)
		c.scanner.Split(at.Splitter)
	}

	c.loopCtx, c.loopCancel = context.WithCancel(ctx)

	initCtx, cancel := context.WithTimeout(ctx, config.initTimeout)
	defer cancel()

	if err := c.init(initCtx); err != nil {
		c.loopCancel()
		if transport != nil {
			transport.Close()
		}
		return nil, fmt.Errorf("initialize client: %w", err)
	}

	return c, nil
}

func (c *Client) init(ctx context.Context) error {
	if err := c.expectOkDirect(ctx, at.CmdAt); err != nil {
		return fmt.Errorf("interpreter not responding: %w", err)
	}
	if err := c.expectOkDirect(ctx, at.CmdEchoOff); err != nil {
		return fmt.Errorf("could not disable echo: %w", err)
	}
	if err := c.expectOkDirect(ctx, at.CmdVerboseOn); err != nil {
		return fmt.Errorf("could not enable verbose mode: %w", err)
	}
	return nil
}

// Loop is the event loop that handles all transport I/O. It must be called
// exactly once after New and before Exec. It is the only goroutine reading
// from the transport once initialization is done:
//
//	c, err := client.New(ctx, config)
//	if err != nil { return err }
//	go c.Loop(ctx)
//	resp, err := c.Exec(ctx, "AT$VER?")
//
// Loop runs until ctx is cancelled, the Client is closed or the transport
// fails.
func (c *Client) Loop(ctx context.Context) error {
	if !c.loopRunning.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer c.loopRunning.Store(false)

	if c.scanner == nil {
		return ErrNotInitialized
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	context.AfterFunc(c.loopCtx, stop)

	tokens := make(chan string, 10)
	scanErrs := make(chan error, 1)

	go func() {
		defer close(tokens)
		for c.scanner.Scan() {
			token := c.scanner.Text()
			if token == "" {
				continue
			}
			select {
			case tokens <- token:
			case <-ctx.Done():
				return
			}
		}
		if err := c.scanner.Err(); err != nil {
			scanErrs <- err
		}
	}()

	var current *inflight
	fail := func(err error) {
		if current != nil {
			current.req.respChan <- commandResponse{err: err}
			current = nil
		}
	}
	// stale counts the commands given up on whose final line is still due.
	// The interpreter answers lines in order, so the next stale finals and
	// the data before them belong to those commands. A command that was
	// given up after a late final reached it is not counted: its own line
	// was most likely dropped by the interpreter.
	stale := 0
	giveUp := func(err error) {
		if current.discarded == 0 {
			stale++
		}
		fail(err)
	}

	for {
		var expired <-chan struct{}
		if current != nil {
			expired = current.req.ctx.Done()
		}

		select {
		case <-ctx.Done():
			fail(ctx.Err())
			return ctx.Err()

		case <-expired:
			giveUp(fmt.Errorf("command timeout: %w", current.req.ctx.Err()))

		case req := <-c.commands:
			if current != nil {
				giveUp(fmt.Errorf("command %q superseded by %q", current.req.line, req.line))
			}
			if err := req.ctx.Err(); err != nil {
				req.respChan <- commandResponse{err: fmt.Errorf("command timeout: %w", err)}
				continue
			}

			if _, err := c.transport.Write([]byte(req.line + string(at.LineEnd))); err != nil {
				req.respChan <- commandResponse{err: fmt.Errorf("write command %q: %w", req.line, err)}
				continue
			}
			current = &inflight{req: req}

		case token, ok := <-tokens:
			if !ok {
				select {
				case err := <-scanErrs:
					fail(fmt.Errorf("read error: %w", err))
					return fmt.Errorf("scanner error: %w", err)
				default:
					fail(io.EOF)
					return io.EOF
				}
			}

			if stale > 0 {
				if at.Classify(token) == at.TypeFinal {
					stale--
					if current != nil {
						current.discarded++
					}
				}
				c.config.logger.Debug("late reply discarded", "line", token)
				continue
			}
			if current == nil {
				c.dispatchUnsolicited(token)
				continue
			}
			if !current.accept(token) {
				continue
			}

			switch at.Classify(token) {
			case at.TypeFinal:
				resp, err := finish(current.req.line, current.lines, token)
				c.config.logger.Debug("command done",
					"line", current.req.line,
					"lines", len(current.lines),
					"final", token,
				)
				current.req.respChan <- commandResponse{resp: resp, err: err}
				current = nil

			case at.TypeData:
				current.lines = append(current.lines, token)
			}
		}
	}
}

func (c *Client) dispatchUnsolicited(token string) {
	if at.Classify(token) == at.TypeFinal {
		c.config.logger.Debug("orphaned final line", "line", token)
		return
	}
	select {
	case c.unsolicited <- token:
	default:
		c.config.logger.Warn("unsolicited line dropped", "line", token)
	}
}

// Unsolicited returns a channel receiving data lines the interpreter
// printed while no command was in flight. The channel is buffered, but
// lines are dropped if it is not consumed fast enough.
func (c *Client) Unsolicited() <-chan string {
	return c.unsolicited
}

// Exec sends line to the interpreter and waits for its final status. The
// Loop must be running.
//
// When the interpreter reports an error the Response is returned together
// with a *CommandError.
func (c *Client) Exec(ctx context.Context, line string) (*Response, error) {
	if c.closed.Load() {
		return nil, ErrAlreadyClosed
	}
	if c.transport == nil {
		return nil, ErrNotInitialized
	}
	line, err := cleanLine(line)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok && c.config.atTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.atTimeout)
		defer cancel()
	}

	req := &commandRequest{
		line:     line,
		respChan: make(chan commandResponse, 1),
		ctx:      ctx,
	}

	select {
	case c.commands <- req:
	case <-ctx.Done():
		return nil, fmt.Errorf("command cancelled before sending: %w", ctx.Err())
	}

	select {
	case r := <-req.respChan:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("command timeout: %w", ctx.Err())
	}
}

// Ping checks that the interpreter answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Exec(ctx, at.CmdAt)
	return err
}

// Help returns the help dump of every registered command.
func (c *Client) Help(ctx context.Context) ([]string, error) {
	resp, err := c.Exec(ctx, at.CmdHelp)
	if err != nil {
		return nil, err
	}
	return resp.Lines, nil
}

// Close stops the Loop and closes the transport. A Client cannot be reused
// after Close.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}
	if c.loopCancel != nil {
		c.loopCancel()
	}
	if c.transport != nil {
		return c.transport.Close()
	}
	return nil
}

// execDirect runs line on the transport without going through the Loop.
// It is used during initialization only, before the Loop takes over the
// transport.
func (c *Client) execDirect(ctx context.Context, line string) (*Response, error) {
	if c.closed.Load() {
		return nil, ErrAlreadyClosed
	}
	if c.transport == nil {
		return nil, ErrNotInitialized
	}

	if _, ok := ctx.Deadline(); !ok && c.config.atTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.atTimeout)
		defer cancel()
	}

	if _, err := c.transport.Write([]byte(line + string(at.LineEnd))); err != nil {
		return nil, fmt.Errorf("write command %q: %w", line, err)
	}

	f := &inflight{req: &commandRequest{line: line}}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if !c.scanner.Scan() {
			if err := c.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read error: %w", err)
			}
			return nil, io.EOF
		}

		token := c.scanner.Text()
		if token == "" || !f.accept(token) {
			continue
		}

		switch at.Classify(token) {
		case at.TypeFinal:
			return finish(line, f.lines, token)
		case at.TypeData:
			f.lines = append(f.lines, token)
		}
	}
}

// expectOkDirect runs line and fails unless the interpreter reports
// success.
func (c *Client) expectOkDirect(ctx context.Context, line string) error {
	_, err := c.execDirect(ctx, line)
	return err
}

// finish decodes the final line of a reply.
func finish(line string, lines []string, final string) (*Response, error) {
	status, detail, ok := at.ParseFinal(final)
	if !ok {
		return &Response{Lines: lines}, fmt.Errorf("%w: %q", ErrUnexpectedReply, final)
	}
	resp := &Response{Lines: lines, Status: status, Detail: detail}
	if status != at.Success {
		return resp, &CommandError{Line: line, Status: status, Detail: detail}
	}
	return resp, nil
}

func cleanLine(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.ContainsAny(line, "\r\n") {
		return "", ErrInvalidLine
	}
	return line, nil
}
