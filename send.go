package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"i4.energy/across/atcmd/client"
	"i4.energy/across/atcmd/link"
)

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <line>...",
		Short: "Send command lines to an AT interpreter",
		Long: `Send each line to the interpreter on the configured link and print the
reply lines. The command fails on the first line answered with an error.`,
		Example: `  atcmd send --link tcp --address 127.0.0.1:2323 'AT$VER?' 'AT$ID=node-7'`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runSend(cmd.Context(), config, logger, args, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Duration("timeout", client.DefaultATTimeout, "Timeout of each command")
	return cmd
}

func runSend(ctx context.Context, config *Config, logger *slog.Logger, lines []string, out io.Writer) error {
	dialer, err := config.Dialer(false)
	if err != nil {
		return err
	}

	clientConfig, err := client.NewConfigBuilder().
		WithDialer(dialer).
		WithATTimeout(config.ATTimeout).
		WithLogger(logger.With("component", "client")).
		Build()
	if err != nil {
		return err
	}

	c, err := client.New(ctx, clientConfig)
	if err != nil {
		return fmt.Errorf("connect %s link: %w", config.Link, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- c.Loop(ctx)
	}()
	defer func() {
		cancel()
		c.Close()
		<-loopDone
	}()

	for _, line := range lines {
		resp, err := c.Exec(ctx, line)
		if resp != nil {
			for _, l := range resp.Lines {
				fmt.Fprintln(out, l)
			}
		}
		var cmdErr *client.CommandError
		if errors.As(err, &cmdErr) {
			return cmdErr
		}
		if err != nil {
			return fmt.Errorf("%s: %w", line, err)
		}
		fmt.Fprintln(out, "OK")
	}
	return nil
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List the serial ports of this system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := link.Ports()
			if err != nil {
				return fmt.Errorf("list serial ports: %w", err)
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
