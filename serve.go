package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"i4.energy/across/atcmd/interp"
	"i4.energy/across/atcmd/link"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an AT interpreter with the device command set",
		Long: `Run an AT command interpreter on the configured link. Lines received on
the link are dispatched to the device command set (AT$VER?, AT$UPT?,
AT$ID, AT!ERR, AT!ARGS) and to the E, V and Q mode commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), config, logger)
		},
	}
	cmd.Flags().Bool("echo", false, "Echo received lines")
	cmd.Flags().Bool("verbose", false, "Print symbolic status lines")
	cmd.Flags().Int("buffer-size", interp.DefaultBufferSize, "Line buffer size")
	cmd.Flags().String("overflow", "reject", "Line overflow policy (reject, wrap)")
	cmd.Flags().String("device-name", "atcmd", "Initial device name")
	return cmd
}

func runServe(ctx context.Context, config *Config, logger *slog.Logger) error {
	dialer, err := config.Dialer(true)
	if err != nil {
		return err
	}
	transport, err := dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("dial %s link: %w", config.Link, err)
	}

	loop, err := newInterpreterLoop(transport, config, logger)
	if err != nil {
		return err
	}
	logger.Info("Serving AT interpreter", "link", config.Link, "dialer", dialer)
	return loop.Run(ctx)
}

// interpreterLoop runs an interpreter on one link. The interpreter requests
// processing from the link reader goroutine; the Run loop is the main loop
// that processes the line and flushes the reply.
type interpreterLoop struct {
	it     *interp.Interpreter
	tx     *link.TxBuffer
	wake   chan struct{}
	device *Device
	logger *slog.Logger
}

func newInterpreterLoop(transport link.Transport, config *Config, logger *slog.Logger) (*interpreterLoop, error) {
	overflow, err := config.OverflowPolicy()
	if err != nil {
		transport.Close()
		return nil, err
	}

	s := &interpreterLoop{
		tx:     link.NewTxBuffer(link.NewStream(transport), 0),
		wake:   make(chan struct{}, 1),
		device: NewDevice(config.DeviceName),
		logger: logger.With("component", "serve"),
	}

	interpConfig, err := interp.NewConfigBuilder().
		WithProcessCallback(s.requestProcess).
		WithEcho(config.Echo).
		WithVerbose(config.Verbose).
		WithBufferSize(config.BufferSize).
		WithOverflowPolicy(overflow).
		WithLogger(logger.With("component", "interp")).
		Build()
	if err != nil {
		transport.Close()
		return nil, fmt.Errorf("interpreter config: %w", err)
	}

	s.it, err = interp.New(s.tx, interpConfig)
	if err != nil {
		transport.Close()
		return nil, fmt.Errorf("create interpreter: %w", err)
	}

	for _, cmd := range s.device.Commands() {
		if err := s.it.Register(cmd); err != nil {
			s.it.Close()
			return nil, fmt.Errorf("register %s: %w", cmd, err)
		}
	}
	return s, nil
}

// requestProcess runs on the link reader goroutine and must not block.
func (s *interpreterLoop) requestProcess() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run serves lines until ctx is cancelled or the link fails. The
// interpreter is closed when Run returns.
func (s *interpreterLoop) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.wake:
				if err := s.it.Process(); err != nil {
					s.logger.Debug("Line failed", "error", err)
				}
				if err := s.tx.Flush(); err != nil {
					return fmt.Errorf("flush reply: %w", err)
				}
			}
		}
	})

	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-s.tx.Errors():
			if !ok {
				return nil
			}
			return fmt.Errorf("link read: %w", err)
		}
	})

	err := g.Wait()
	if closeErr := s.it.Close(); closeErr != nil {
		s.logger.Error("Failed to close interpreter", "error", closeErr)
	}
	if errors.Is(err, context.Canceled) {
		s.logger.Info("Interpreter stopped", "dropped", s.it.Dropped())
		return nil
	}
	return err
}
