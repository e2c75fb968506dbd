package interp

import (
	"io"
	"log/slog"

	"i4.energy/across/atcmd/at"
)

const (
	// DefaultBufferSize is the default capacity of the line buffer.
	DefaultBufferSize = 128
	// DefaultCapacity is the default number of registry slots.
	DefaultCapacity = 64
)

// OverflowPolicy selects what the line accumulator does with bytes that do
// not fit in the line buffer.
type OverflowPolicy int

const (
	// OverflowReject discards the excess bytes and answers the line with
	// COMMAND_PARSING once its end marker arrives.
	OverflowReject OverflowPolicy = iota
	// OverflowWrap stores the excess bytes from the start of the buffer
	// again, overwriting the beginning of the line.
	OverflowWrap
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowReject:
		return "reject"
	case OverflowWrap:
		return "wrap"
	default:
		return "unknown"
	}
}

// Config holds the interpreter settings. Use NewConfigBuilder to create one.
type Config struct {
	processCallback func()
	quiet           bool
	verbose         bool
	echo            bool
	bufferSize      int
	capacity        int
	overflow        OverflowPolicy
	logger          *slog.Logger
}

func (c *Config) validate() error {
	if c.processCallback == nil {
		return ErrNullParameter
	}
	if c.capacity != 0 && c.capacity < len(builtinSyntaxes) {
		return ErrInvalidCapacity
	}
	if c.bufferSize != 0 && c.bufferSize <= len(at.Header) {
		return ErrInvalidBufferSize
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.bufferSize == 0 {
		c.bufferSize = DefaultBufferSize
	}
	if c.capacity == 0 {
		c.capacity = DefaultCapacity
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

// WithProcessCallback sets the function called from the receive context
// every time a complete line is buffered. It must not block; a typical
// implementation wakes the loop that calls Process. Required.
func (b *ConfigBuilder) WithProcessCallback(fn func()) *ConfigBuilder {
	b.config.processCallback = fn
	return b
}

func (b *ConfigBuilder) WithQuiet(quiet bool) *ConfigBuilder {
	b.config.quiet = quiet
	return b
}

func (b *ConfigBuilder) WithVerbose(verbose bool) *ConfigBuilder {
	b.config.verbose = verbose
	return b
}

func (b *ConfigBuilder) WithEcho(echo bool) *ConfigBuilder {
	b.config.echo = echo
	return b
}

func (b *ConfigBuilder) WithBufferSize(size int) *ConfigBuilder {
	b.config.bufferSize = size
	return b
}

// WithCapacity sets the number of registry slots, built-in commands
// included.
func (b *ConfigBuilder) WithCapacity(capacity int) *ConfigBuilder {
	b.config.capacity = capacity
	return b
}

func (b *ConfigBuilder) WithOverflowPolicy(policy OverflowPolicy) *ConfigBuilder {
	b.config.overflow = policy
	return b
}

func (b *ConfigBuilder) WithLogger(logger *slog.Logger) *ConfigBuilder {
	b.config.logger = logger
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	config := b.config
	config.setDefaults()
	return config, nil
}
