package bootloader

import "time"

// Upload phases reported in Progress and UploadError.
const (
	PhaseConnecting = "connecting"
	PhaseHandshake  = "handshake"
	PhaseHeader     = "header"
	PhasePayload    = "payload"
	PhaseStatus     = "status"
	PhaseComplete   = "complete"
	PhaseProbe      = "probe"
)

// Progress contains information about the upload progress.
// Passed to ProgressCallback during Upload.
type Progress struct {
	// Phase describes the current operation phase:
	//   "connecting" - Opening the port
	//   "handshake"  - Sending the magic word
	//   "header"     - Sending length and load address
	//   "payload"    - Streaming the image
	//   "status"     - Waiting for the device verdict
	//   "complete"   - Device accepted the image
	Phase string

	// BytesSent is the number of payload bytes written so far
	BytesSent int

	// TotalBytes is the padded payload length
	TotalBytes int

	// ChunksSent is the number of payload chunks written so far
	ChunksSent int

	// TotalChunks is the number of payload chunks
	TotalChunks int

	// Percentage is the payload completion percentage (0.0 to 100.0).
	// It never decreases during an upload.
	Percentage float64

	// ElapsedTime is the time elapsed since the upload started
	ElapsedTime time.Duration
}

// ProgressCallback is called during an upload to report progress.
// Implementations should return quickly: the payload pacing runs on the same
// goroutine.
//
// Example:
//
//	up := bootloader.New(opener, "/dev/ttyUSB0",
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("\rProgress: %.1f%%", p.Percentage)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the uploader.
// This allows integration with any logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
