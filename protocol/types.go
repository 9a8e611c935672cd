package protocol

import (
	"fmt"
	"time"
)

// Profile describes one bootloader flavour: the constants shared by the codec
// and the upload session. A Profile is a value; copies are independent.
type Profile struct {
	// Name identifies the profile in logs and profile files
	Name string

	// MagicWord is the handshake sentinel
	MagicWord uint32

	// SuccessCode is the status byte for an accepted load
	SuccessCode byte

	// ErrorCode is the status byte for a rejected load
	ErrorCode byte

	// ChunkSize is the maximum number of payload bytes per write
	ChunkSize int

	// Alignment is the padding boundary of the payload
	Alignment int

	// LoadAddress is used when the caller does not pass one
	LoadAddress uint32

	// SettleDelay follows the magic word and each header frame
	SettleDelay time.Duration

	// ChunkDelay follows each payload chunk
	ChunkDelay time.Duration
}

// DefaultProfile returns the profile of the stock MinCPU bootloader.
func DefaultProfile() Profile {
	return Profile{
		Name:        "mincpu",
		MagicWord:   MagicWord,
		SuccessCode: StatusSuccess,
		ErrorCode:   StatusError,
		ChunkSize:   DefaultChunkSize,
		Alignment:   DefaultAlignment,
		LoadAddress: DefaultLoadAddress,
		SettleDelay: DefaultSettleDelay,
		ChunkDelay:  DefaultChunkDelay,
	}
}

// Validate reports whether the profile can drive a session.
func (p Profile) Validate() error {
	if p.ChunkSize <= 0 {
		return fmt.Errorf("profile %q: chunk size must be positive, got %d", p.Name, p.ChunkSize)
	}
	if p.Alignment <= 0 {
		return fmt.Errorf("profile %q: alignment must be positive, got %d", p.Name, p.Alignment)
	}
	if p.SuccessCode == p.ErrorCode {
		return fmt.Errorf("profile %q: success and error codes are both 0x%02X", p.Name, p.SuccessCode)
	}
	if p.SettleDelay < 0 || p.ChunkDelay < 0 {
		return fmt.Errorf("profile %q: delays cannot be negative", p.Name)
	}
	return nil
}

// Status classifies the terminal status byte.
type Status int

const (
	// StatusUnknown is any byte other than the two defined codes
	StatusUnknown Status = iota

	// StatusOK means the device accepted the image
	StatusOK

	// StatusRejected means the device refused the image
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "success"
	case StatusRejected:
		return "error"
	default:
		return "unknown"
	}
}
