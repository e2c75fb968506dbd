package client

import (
	"io"
	"log/slog"
	"time"

	"i4.energy/across/atcmd/link"
)

const (
	DefaultATTimeout   = 5 * time.Second
	DefaultInitTimeout = 30 * time.Second

	unsolicitedBuffer = 100
)

type Config struct {
	dialer      link.Dialer
	atTimeout   time.Duration
	initTimeout time.Duration
	logger      *slog.Logger
}

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.atTimeout == 0 {
		c.atTimeout = DefaultATTimeout
	}
	if c.initTimeout == 0 {
		c.initTimeout = DefaultInitTimeout
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithDialer sets the Dialer used by New to reach the interpreter.
func (b *ConfigBuilder) WithDialer(d link.Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

// WithATTimeout bounds every command whose context has no deadline.
func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.atTimeout = d
	return b
}

// WithInitTimeout bounds the initialization sequence run by New.
func (b *ConfigBuilder) WithInitTimeout(d time.Duration) *ConfigBuilder {
	b.config.initTimeout = d
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	c := b.config
	c.setDefaults()
	return c, nil
}
