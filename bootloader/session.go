package bootloader

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mincpu/uartload/protocol"
	"github.com/mincpu/uartload/transport"
)

// State is the position of a Session in the upload state machine.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateHandshakeSent
	StateHeaderSent
	StatePayloadSent
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateHandshakeSent:
		return "handshake sent"
	case StateHeaderSent:
		return "header sent"
	case StatePayloadSent:
		return "payload sent"
	case StateSucceeded:
		return "completed (success)"
	case StateFailed:
		return "completed (failure)"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is a single upload attempt over an open port. Phases must be run
// in order: SendHandshake, SendHeader, SendPayload, ReadStatus. A Session is
// single-shot; a new attempt needs a new Session and a fresh open.
//
// A Session is not safe for concurrent use.
type Session struct {
	port   transport.Port
	config *Config
	state  State
	closed bool
	start  time.Time

	length int
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// SendHandshake writes the magic word and waits for the bootloader to arm
// its receiver.
func (s *Session) SendHandshake(ctx context.Context) error {
	if err := s.expect(StateConnected, PhaseHandshake); err != nil {
		return err
	}

	s.config.reportProgress(Progress{Phase: PhaseHandshake, ElapsedTime: time.Since(s.start)})
	s.config.logDebug("sending magic word", "magic", fmt.Sprintf("0x%08X", s.config.Profile.MagicWord))

	if err := writeFrame(ctx, s.port, PhaseHandshake, protocol.BuildMagicFrame(s.config.Profile.MagicWord)); err != nil {
		return s.fail(err)
	}
	if err := pause(ctx, PhaseHandshake, s.config.Profile.SettleDelay); err != nil {
		return s.fail(err)
	}

	s.state = StateHandshakeSent
	return nil
}

// SendHeader writes the padded payload length, then the load address, each
// followed by the settle delay.
func (s *Session) SendHeader(ctx context.Context, length int, addr uint32) error {
	if err := s.expect(StateHandshakeSent, PhaseHeader); err != nil {
		return err
	}
	if length%s.config.Profile.Alignment != 0 {
		return s.fail(fmt.Errorf("length %d is not a multiple of %d", length, s.config.Profile.Alignment))
	}

	lengthFrame, err := protocol.BuildLengthFrame(length)
	if err != nil {
		return s.fail(err)
	}

	s.config.reportProgress(Progress{
		Phase:       PhaseHeader,
		TotalBytes:  length,
		TotalChunks: protocol.ChunkCount(length, s.config.Profile.ChunkSize),
		ElapsedTime: time.Since(s.start),
	})

	s.config.logDebug("sending program size", "bytes", length)
	if err := writeFrame(ctx, s.port, PhaseHeader, lengthFrame); err != nil {
		return s.fail(err)
	}
	if err := pause(ctx, PhaseHeader, s.config.Profile.SettleDelay); err != nil {
		return s.fail(err)
	}

	s.config.logDebug("sending load address", "address", fmt.Sprintf("0x%08X", addr))
	if err := writeFrame(ctx, s.port, PhaseHeader, protocol.BuildAddressFrame(addr)); err != nil {
		return s.fail(err)
	}
	if err := pause(ctx, PhaseHeader, s.config.Profile.SettleDelay); err != nil {
		return s.fail(err)
	}

	s.length = length
	s.state = StateHeaderSent
	return nil
}

// SendPayload streams the padded image in chunks, pausing after each one so
// the bootloader can drain its receive buffer. payload must have exactly the
// length announced by SendHeader.
func (s *Session) SendPayload(ctx context.Context, payload []byte) error {
	if err := s.expect(StateHeaderSent, PhasePayload); err != nil {
		return err
	}
	if len(payload) != s.length {
		return s.fail(fmt.Errorf("payload is %d bytes, header announced %d", len(payload), s.length))
	}

	chunks, err := protocol.Chunks(payload, s.config.Profile.ChunkSize)
	if err != nil {
		return s.fail(err)
	}

	s.config.logDebug("sending program data", "bytes", len(payload), "chunks", len(chunks))

	sent := 0
	for i, chunk := range chunks {
		if err := writeFrame(ctx, s.port, PhasePayload, chunk); err != nil {
			return s.fail(err)
		}
		sent += len(chunk)

		s.config.reportProgress(Progress{
			Phase:       PhasePayload,
			BytesSent:   sent,
			TotalBytes:  len(payload),
			ChunksSent:  i + 1,
			TotalChunks: len(chunks),
			Percentage:  float64(sent) / float64(len(payload)) * 100,
			ElapsedTime: time.Since(s.start),
		})

		if err := pause(ctx, PhasePayload, s.config.Profile.ChunkDelay); err != nil {
			return s.fail(err)
		}
	}

	s.state = StatePayloadSent
	return nil
}

// ReadStatus waits for the single status byte. It returns the byte and a nil
// error only for the success code. The wait ends after the configured
// timeout, never before.
func (s *Session) ReadStatus(ctx context.Context) (byte, error) {
	if err := s.expect(StatePayloadSent, PhaseStatus); err != nil {
		return 0, err
	}

	s.config.reportProgress(Progress{
		Phase:       PhaseStatus,
		BytesSent:   s.length,
		TotalBytes:  s.length,
		Percentage:  100,
		ElapsedTime: time.Since(s.start),
	})
	s.config.logDebug("waiting for bootloader response", "timeout", s.config.Timeout.String())

	b, err := s.readByte(ctx)
	if err != nil {
		return 0, s.fail(err)
	}

	switch protocol.ParseStatus(b, s.config.Profile) {
	case protocol.StatusOK:
		s.state = StateSucceeded
		return b, nil
	case protocol.StatusRejected:
		s.config.logDebug("upload rejected by device", "status", protocol.StatusName(b, s.config.Profile))
		return b, s.fail(&UploadError{Reason: ErrDeviceRejected, Phase: PhaseStatus, Status: b})
	default:
		s.config.logDebug("unexpected response", "status", protocol.StatusName(b, s.config.Profile))
		return b, s.fail(&UploadError{Reason: ErrUnexpectedStatus, Phase: PhaseStatus, Status: b})
	}
}

func (s *Session) readByte(ctx context.Context) (byte, error) {
	deadline := time.Now().Add(s.config.Timeout)
	buf := make([]byte, 1)

	for {
		if err := ctx.Err(); err != nil {
			return 0, &UploadError{Reason: ErrInterrupted, Phase: PhaseStatus, Err: err}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, &UploadError{
				Reason: ErrTimeout,
				Phase:  PhaseStatus,
				Err:    fmt.Errorf("no response within %s", s.config.Timeout),
			}
		}

		poll := s.config.PollInterval
		if remaining < poll {
			poll = remaining
		}
		if err := s.port.SetReadTimeout(poll); err != nil {
			return 0, &UploadError{Reason: ErrTimeout, Phase: PhaseStatus, Err: err}
		}

		readStart := time.Now()
		n, err := s.port.Read(buf)
		if n == 1 {
			return buf[0], nil
		}
		if err != nil && err != io.EOF {
			return 0, &UploadError{Reason: ErrTimeout, Phase: PhaseStatus, Err: err}
		}

		// a port that returns early with nothing must not spin
		if rest := poll - time.Since(readStart); rest > 0 {
			if err := pause(ctx, PhaseStatus, rest); err != nil {
				return 0, err
			}
		}
	}
}

// Close releases the port. It is safe to call more than once. Closing a
// session that has not completed marks it failed.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.state != StateSucceeded {
		s.state = StateFailed
	}

	err := s.port.Close()
	s.config.logDebug("disconnected from serial port")
	return err
}

func (s *Session) expect(want State, phase string) error {
	if s.closed || s.state != want {
		return fmt.Errorf("%w: %s requires state %q, session is %q", ErrInvalidState, phase, want, s.state)
	}
	return nil
}

func (s *Session) fail(err error) error {
	s.state = StateFailed
	return err
}

// writeFrame writes b in a single call and flushes it to the line.
func writeFrame(ctx context.Context, port transport.Port, phase string, b []byte) error {
	if err := ctx.Err(); err != nil {
		return &UploadError{Reason: ErrInterrupted, Phase: phase, Err: err}
	}

	n, err := port.Write(b)
	if err != nil {
		return &UploadError{Reason: ErrWriteFailure, Phase: phase, Err: err}
	}
	if n != len(b) {
		return &UploadError{
			Reason: ErrWriteFailure,
			Phase:  phase,
			Err:    fmt.Errorf("%w: wrote %d of %d bytes", io.ErrShortWrite, n, len(b)),
		}
	}

	if d, ok := port.(transport.Drainer); ok {
		if err := d.Drain(); err != nil {
			return &UploadError{Reason: ErrWriteFailure, Phase: phase, Err: err}
		}
	}
	return nil
}

// pause sleeps for d unless ctx is cancelled first.
func pause(ctx context.Context, phase string, d time.Duration) error {
	if d <= 0 {
		if err := ctx.Err(); err != nil {
			return &UploadError{Reason: ErrInterrupted, Phase: phase, Err: err}
		}
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return &UploadError{Reason: ErrInterrupted, Phase: phase, Err: ctx.Err()}
	}
}
