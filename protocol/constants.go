package protocol

import "time"

// Wire constants of the MinCPU UART bootloader.
const (
	// MagicWord opens every upload session (0xDEADBEEF, sent little-endian)
	MagicWord uint32 = 0xDEADBEEF

	// StatusSuccess is returned by the bootloader after a successful load
	StatusSuccess byte = 0xAA

	// StatusError is returned by the bootloader when it refuses the load
	StatusError byte = 0xFF

	// WordSize is the width of every header field in bytes
	WordSize = 4

	// DefaultChunkSize is the largest payload slice written at once.
	// It matches the bootloader's receive buffer.
	DefaultChunkSize = 64

	// DefaultAlignment is the boundary the payload is zero-padded to
	DefaultAlignment = 4

	// DefaultLoadAddress is the base of instruction memory
	DefaultLoadAddress uint32 = 0x1000

	// DefaultSettleDelay is the pause after each header frame
	DefaultSettleDelay = 100 * time.Millisecond

	// DefaultChunkDelay is the pause after each payload chunk
	DefaultChunkDelay = 10 * time.Millisecond
)

// Transport defaults.
const (
	// DefaultBaudRate is the UART speed of the bootloader
	DefaultBaudRate = 115200

	// DefaultTimeout bounds the port open and the final status read
	DefaultTimeout = 5 * time.Second
)

// Connectivity probe parameters.
const (
	// ProbeSettle is the pause between the probe write and the read
	ProbeSettle = 500 * time.Millisecond

	// ProbeTimeout is the read window for a probe reply
	ProbeTimeout = 1 * time.Second

	// ProbeReadSize is the most reply bytes read by a probe
	ProbeReadSize = 100
)

// ProbeBytes is the 2-byte probe sent by a connectivity test.
var ProbeBytes = []byte("AT")
