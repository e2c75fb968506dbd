package main

import (
	"testing"
	"time"

	"github.com/spf13/pflag"

	"i4.energy/across/atcmd/interp"
	"i4.energy/across/atcmd/link"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		config, err := LoadConfig(WithDefaults())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Link != LinkSerial || config.SerialPort != "/dev/ttyUSB0" || config.BaudRate != 115200 {
			t.Errorf("unexpected serial defaults: %+v", config)
		}
		if config.BufferSize != interp.DefaultBufferSize || config.ATTimeout != 5*time.Second {
			t.Errorf("unexpected interpreter defaults: %+v", config)
		}
	})

	t.Run("Env overrides defaults", func(t *testing.T) {
		t.Setenv("ATCMD_LINK", "mqtt")
		t.Setenv("BAUD_RATE", "9600")
		t.Setenv("MQTT_BROKER", "tcp://broker:1883")
		t.Setenv("ATCMD_VERBOSE", "true")
		t.Setenv("AT_TIMEOUT", "250ms")

		config, err := LoadConfig(WithDefaults(), WithEnv())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Link != LinkMQTT || config.BaudRate != 9600 || config.MQTTBroker != "tcp://broker:1883" {
			t.Errorf("env not applied: %+v", config)
		}
		if !config.Verbose || config.ATTimeout != 250*time.Millisecond {
			t.Errorf("env not applied: %+v", config)
		}
		if config.SerialPort != "/dev/ttyUSB0" {
			t.Errorf("unset env must keep the default, got %q", config.SerialPort)
		}
	})

	t.Run("Invalid env", func(t *testing.T) {
		t.Setenv("BAUD_RATE", "fast")

		if _, err := LoadConfig(WithDefaults(), WithEnv()); err == nil {
			t.Error("expected error for invalid BAUD_RATE")
		}
	})

	t.Run("Flags override env", func(t *testing.T) {
		t.Setenv("SERIAL_PORT", "/dev/ttyACM0")

		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.String("serial-port", "/dev/ttyUSB0", "")
		fs.Int("baud-rate", 115200, "")
		fs.Bool("echo", false, "")
		fs.String("overflow", "reject", "")
		if err := fs.Parse([]string{"--serial-port=/dev/ttyS1", "--echo", "--overflow=wrap"}); err != nil {
			t.Fatalf("parse flags: %v", err)
		}

		config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(fs))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.SerialPort != "/dev/ttyS1" || !config.Echo || config.Overflow != "wrap" {
			t.Errorf("flags not applied: %+v", config)
		}
		if config.BaudRate != 115200 {
			t.Errorf("unset flag must not override, got %d", config.BaudRate)
		}
	})
}

func TestConfigOverflowPolicy(t *testing.T) {
	tests := []struct {
		overflow string
		want     interp.OverflowPolicy
		wantErr  bool
	}{
		{"reject", interp.OverflowReject, false},
		{"", interp.OverflowReject, false},
		{"wrap", interp.OverflowWrap, false},
		{"drop", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.overflow, func(t *testing.T) {
			got, err := (&Config{Overflow: tt.overflow}).OverflowPolicy()
			if (err != nil) != tt.wantErr {
				t.Fatalf("OverflowPolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("OverflowPolicy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigDialer(t *testing.T) {
	config, _ := LoadConfig(WithDefaults())

	d, err := config.Dialer(false)
	if err != nil {
		t.Fatalf("serial: %v", err)
	}
	if sd, ok := d.(link.SerialDialer); !ok || sd.PortName != "/dev/ttyUSB0" {
		t.Errorf("serial dialer = %#v", d)
	}

	config.Link = LinkMQTT
	d, _ = config.Dialer(true)
	device := d.(link.MQTTDialer)
	d, _ = config.Dialer(false)
	console := d.(link.MQTTDialer)
	if device.InTopic != "atcmd/device/in" || device.OutTopic != "atcmd/device/out" {
		t.Errorf("device topics = %s -> %s", device.InTopic, device.OutTopic)
	}
	if console.InTopic != device.OutTopic || console.OutTopic != device.InTopic {
		t.Errorf("console topics = %s -> %s, want mirrored", console.InTopic, console.OutTopic)
	}

	config.Link = "usb"
	if _, err := config.Dialer(false); err == nil {
		t.Error("expected error for unknown link")
	}
}

func TestParseLogLevel(t *testing.T) {
	if got := parseLogLevel("DEBUG"); got.String() != "DEBUG" {
		t.Errorf("parseLogLevel(DEBUG) = %v", got)
	}
	if got := parseLogLevel("verbose"); got.String() != "INFO" {
		t.Errorf("parseLogLevel(verbose) = %v, want INFO", got)
	}
}
