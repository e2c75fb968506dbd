package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"

	"i4.energy/across/atcmd/interp"
	"i4.energy/across/atcmd/link"
)

// Link kinds accepted by --link.
const (
	LinkSerial = "serial"
	LinkTCP    = "tcp"
	LinkMQTT   = "mqtt"
)

// Config holds the application configuration
type Config struct {
	// Link selects the transport: serial, tcp or mqtt
	Link string `env:"ATCMD_LINK"`
	// SerialPort is the path to the serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `env:"SERIAL_PORT"`
	// BaudRate is the baud rate for serial communication (e.g. 115200)
	BaudRate int `env:"BAUD_RATE"`
	// Address is the host:port of a TCP bridge or emulator
	Address string `env:"TCP_ADDRESS"`

	// MQTT link. The device reads <MQTTTopic>/in and writes <MQTTTopic>/out;
	// consoles use the mirrored pair.
	MQTTBroker   string `env:"MQTT_BROKER"`
	MQTTClientID string `env:"MQTT_CLIENT_ID"`
	MQTTTopic    string `env:"MQTT_TOPIC"`
	MQTTUsername string `env:"MQTT_USERNAME"`
	MQTTPassword string `env:"MQTT_PASSWORD"`

	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `env:"LOG_LEVEL"`

	// Interpreter settings used by serve
	Echo       bool   `env:"ATCMD_ECHO"`
	Verbose    bool   `env:"ATCMD_VERBOSE"`
	BufferSize int    `env:"ATCMD_BUFFER_SIZE"`
	Overflow   string `env:"ATCMD_OVERFLOW"`
	DeviceName string `env:"DEVICE_NAME"`

	// ATTimeout bounds every command run by send and gateway
	ATTimeout time.Duration `env:"AT_TIMEOUT"`
	// BindAddress is the address the gateway listens on (e.g. "0.0.0.0:8080")
	BindAddress string `env:"BIND_ADDRESS"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.Link = LinkSerial
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = link.DefaultBaudRate
		c.Address = "127.0.0.1:2323"
		c.MQTTClientID = "atcmd"
		c.MQTTTopic = "atcmd/device"
		c.LogLevel = "info"
		c.BufferSize = interp.DefaultBufferSize
		c.Overflow = "reject"
		c.DeviceName = "atcmd"
		c.ATTimeout = 5 * time.Second
		c.BindAddress = "127.0.0.1:8080"
		return nil
	}
}

// WithEnv loads configuration from environment variables. Variables that
// are not set leave the current values untouched.
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if err := env.Parse(c); err != nil {
			return fmt.Errorf("parse env: %w", err)
		}
		return nil
	}
}

// WithFlags loads configuration from the command-line flags that were set
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *pflag.Flag) {
			if err != nil {
				return
			}
			v := f.Value.String()
			switch f.Name {
			case "link":
				c.Link = v
			case "serial-port":
				c.SerialPort = v
			case "baud-rate":
				c.BaudRate, err = strconv.Atoi(v)
			case "address":
				c.Address = v
			case "mqtt-broker":
				c.MQTTBroker = v
			case "mqtt-client-id":
				c.MQTTClientID = v
			case "mqtt-topic":
				c.MQTTTopic = v
			case "log-level":
				c.LogLevel = v
			case "echo":
				c.Echo, err = strconv.ParseBool(v)
			case "verbose":
				c.Verbose, err = strconv.ParseBool(v)
			case "buffer-size":
				c.BufferSize, err = strconv.Atoi(v)
			case "overflow":
				c.Overflow = v
			case "device-name":
				c.DeviceName = v
			case "timeout":
				c.ATTimeout, err = time.ParseDuration(v)
			case "bind-address":
				c.BindAddress = v
			}
			if err != nil {
				err = fmt.Errorf("flag --%s: %w", f.Name, err)
			}
		})
		return err
	}
}

// OverflowPolicy maps the overflow setting to the interpreter policy.
func (c *Config) OverflowPolicy() (interp.OverflowPolicy, error) {
	switch c.Overflow {
	case "reject", "":
		return interp.OverflowReject, nil
	case "wrap":
		return interp.OverflowWrap, nil
	default:
		return 0, fmt.Errorf("unknown overflow policy %q", c.Overflow)
	}
}

// Dialer builds the dialer for the configured link. device selects the
// device side of the MQTT topic pair.
func (c *Config) Dialer(device bool) (link.Dialer, error) {
	switch c.Link {
	case LinkSerial:
		return link.SerialDialer{
			PortName: c.SerialPort,
			BaudRate: c.BaudRate,
		}, nil
	case LinkTCP:
		return link.TCPDialer{Address: c.Address}, nil
	case LinkMQTT:
		in, out := c.MQTTTopic+"/out", c.MQTTTopic+"/in"
		if device {
			in, out = out, in
		}
		return link.MQTTDialer{
			Broker:   c.MQTTBroker,
			ClientID: c.MQTTClientID,
			Username: c.MQTTUsername,
			Password: c.MQTTPassword,
			InTopic:  in,
			OutTopic: out,
			QoS:      1,
		}, nil
	default:
		return nil, fmt.Errorf("unknown link %q", c.Link)
	}
}
