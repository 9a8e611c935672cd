package bootloader

import (
	"time"

	"github.com/mincpu/uartload/protocol"
)

// Config holds the uploader configuration.
type Config struct {
	// ProgressCallback is called during uploads to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// BaudRate is the line speed used when opening the port
	BaudRate int

	// Timeout bounds the port open and the wait for the status byte
	Timeout time.Duration

	// Profile holds the wire constants and pacing of the target bootloader
	Profile protocol.Profile

	// PollInterval is the longest single read while waiting for the status
	// byte. Cancellation is noticed at this granularity.
	PollInterval time.Duration

	// ProbeSettle is the pause between the probe write and its read
	ProbeSettle time.Duration

	// ProbeTimeout is the read window of a connectivity probe
	ProbeTimeout time.Duration
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		BaudRate:     protocol.DefaultBaudRate,
		Timeout:      protocol.DefaultTimeout,
		Profile:      protocol.DefaultProfile(),
		PollInterval: 100 * time.Millisecond,
		ProbeSettle:  protocol.ProbeSettle,
		ProbeTimeout: protocol.ProbeTimeout,
	}
}

// Option is a functional option for configuring the Uploader.
type Option func(*Config)

// WithProgressCallback sets a callback function to track upload progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the uploader operations.
//
// Example:
//
//	up := bootloader.New(opener, port, bootloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithBaudRate sets the line speed. Non-positive values are ignored.
func WithBaudRate(baud int) Option {
	return func(c *Config) {
		if baud > 0 {
			c.BaudRate = baud
		}
	}
}

// WithTimeout sets the open and status read timeout.
//
// Example:
//
//	up := bootloader.New(opener, port, bootloader.WithTimeout(10*time.Second))
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithProfile replaces the whole device profile.
func WithProfile(p protocol.Profile) Option {
	return func(c *Config) {
		c.Profile = p
	}
}

// WithChunkSize sets the maximum payload bytes per write.
// Default is 64 bytes, the bootloader's receive buffer.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.Profile.ChunkSize = size
		}
	}
}

// WithSettleDelay sets the pause after the magic word and each header frame.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.Profile.SettleDelay = d
		}
	}
}

// WithChunkDelay sets the pause after each payload chunk.
func WithChunkDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.Profile.ChunkDelay = d
		}
	}
}

// WithPollInterval sets the longest single read while waiting for status.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.PollInterval = d
		}
	}
}

// WithProbeTiming sets the settle pause and read window of Probe.
func WithProbeTiming(settle, window time.Duration) Option {
	return func(c *Config) {
		if settle >= 0 {
			c.ProbeSettle = settle
		}
		if window > 0 {
			c.ProbeTimeout = window
		}
	}
}
