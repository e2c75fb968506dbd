package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "atcmd",
		Short: "AT command interpreter and console",
		Long: `atcmd runs an AT command interpreter on a serial port or an MQTT topic
pair, and sends command lines to a running interpreter.`,
		Version:      Version,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("link", LinkSerial, "Link type (serial, tcp, mqtt)")
	root.PersistentFlags().String("serial-port", "/dev/ttyUSB0", "Serial port")
	root.PersistentFlags().Int("baud-rate", 115200, "Baud rate for serial communication")
	root.PersistentFlags().String("address", "127.0.0.1:2323", "Address of a TCP bridge or emulator")
	root.PersistentFlags().String("mqtt-broker", "", "MQTT broker URL (e.g. tcp://localhost:1883)")
	root.PersistentFlags().String("mqtt-client-id", "atcmd", "MQTT client identifier")
	root.PersistentFlags().String("mqtt-topic", "atcmd/device", "MQTT topic prefix of the device")

	root.AddCommand(newServeCmd(), newSendCmd(), newGatewayCmd(), newPortsCmd())
	return root
}

// loadConfig merges defaults, environment and the flags set on cmd.
func loadConfig(cmd *cobra.Command) (*Config, *slog.Logger, error) {
	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(cmd.Flags()))
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(config.LogLevel)}))
	return config, logger, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
