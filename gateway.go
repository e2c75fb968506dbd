package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"i4.energy/across/atcmd/client"
)

const shutdownTimeout = 30 * time.Second

func newGatewayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Expose an AT interpreter over HTTP",
		Long: `Connect to the interpreter on the configured link and serve its console
over HTTP: POST /exec with {"line": "AT$VER?"} runs one line, GET /help
returns the help dump.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runGateway(cmd.Context(), config, logger)
		},
	}
	cmd.Flags().String("bind-address", "127.0.0.1:8080", "Bind address for the HTTP server")
	cmd.Flags().Duration("timeout", client.DefaultATTimeout, "Timeout of each command")
	return cmd
}

func runGateway(ctx context.Context, config *Config, logger *slog.Logger) error {
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
	defer c.Close()

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger:  logger.With("component", "server"),
			Console: c,
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Loop(ctx)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("Closing HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
