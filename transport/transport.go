// Package transport provides the byte streams an upload session runs over.
//
// A Port is a duplex byte stream with a settable read timeout. Read returns
// (0, nil) when the timeout elapses without data, which is how go.bug.st/serial
// ports behave. Serial opens real UART devices; package sim provides an
// in-memory bootloader for tests and demos.
package transport

import (
	"errors"
	"io"
	"time"
)

// ErrClosed is returned by operations on a closed port.
var ErrClosed = errors.New("port closed")

// Port is an open byte stream to a device.
type Port interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds how long Read waits for the first byte.
	SetReadTimeout(t time.Duration) error
}

// Drainer is implemented by ports that can block until queued output has
// been transmitted.
type Drainer interface {
	Drain() error
}

// Config is the transport configuration consumed by an opener.
type Config struct {
	// Name is the port identifier, e.g. /dev/ttyUSB0 or COM3
	Name string

	// BaudRate is the line speed
	BaudRate int

	// ReadTimeout is applied to the port right after opening
	ReadTimeout time.Duration
}

// Opener opens ports.
type Opener interface {
	Open(cfg Config) (Port, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(cfg Config) (Port, error)

// Open calls f(cfg).
func (f OpenerFunc) Open(cfg Config) (Port, error) {
	return f(cfg)
}
