package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrImageTooLarge means the padded image does not fit the 32-bit length field
	ErrImageTooLarge = errors.New("image too large for length field")

	// ErrInvalidChunkSize means a non-positive chunk size was requested
	ErrInvalidChunkSize = errors.New("invalid chunk size")
)

// StatusName returns a human-readable name for a status byte.
func StatusName(b byte, p Profile) string {
	switch ParseStatus(b, p) {
	case StatusOK:
		return "success"
	case StatusRejected:
		return "device error"
	default:
		return fmt.Sprintf("unknown status code 0x%02X", b)
	}
}
