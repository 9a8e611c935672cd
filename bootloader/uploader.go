package bootloader

import (
	"context"
	"fmt"
	"time"

	"github.com/mincpu/uartload/protocol"
	"github.com/mincpu/uartload/transport"
)

// Uploader pushes program images into a MinCPU device through its UART
// bootloader. Each call opens the port, runs one session and closes it.
//
// Uploader is safe for concurrent use after initialization, but concurrent
// uploads to the same port will fail to open it.
type Uploader struct {
	opener transport.Opener
	port   string
	config Config
}

// Result summarizes a successful upload.
type Result struct {
	// Address is the load address sent to the device
	Address uint32

	// ImageSize is the length of the caller's image
	ImageSize int

	// PaddedSize is the length actually transmitted
	PaddedSize int

	// Chunks is the number of payload writes
	Chunks int

	// Status is the status byte returned by the device
	Status byte

	// Elapsed is the duration of the whole session
	Elapsed time.Duration
}

// ProbeResult is the outcome of a connectivity probe.
type ProbeResult struct {
	// Reply holds whatever the device sent back, possibly nothing
	Reply []byte
}

// Responded reports whether the device sent anything back.
func (r *ProbeResult) Responded() bool {
	return len(r.Reply) > 0
}

// New creates a new Uploader for the named port.
// The opener is used for every session; use transport.Serial{} for real
// hardware.
//
// Example:
//
//	up := bootloader.New(transport.Serial{}, "/dev/ttyUSB0",
//	    bootloader.WithBaudRate(115200),
//	    bootloader.WithTimeout(5*time.Second),
//	)
func New(opener transport.Opener, port string, opts ...Option) *Uploader {
	if opener == nil {
		panic("opener cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Uploader{
		opener: opener,
		port:   port,
		config: cfg,
	}
}

// Config returns a copy of the uploader configuration.
func (u *Uploader) Config() Config {
	return u.config
}

// Upload sends image to the profile's default load address.
func (u *Uploader) Upload(ctx context.Context, image []byte) (*Result, error) {
	return u.UploadAt(ctx, image, u.config.Profile.LoadAddress)
}

// UploadAt performs a complete upload session:
//  1. Open the port
//  2. Send the magic word
//  3. Send the padded length and the load address
//  4. Stream the padded image in paced chunks
//  5. Wait for the status byte
//
// The port is closed before returning, whatever the outcome. Failures are
// returned as *UploadError; use errors.Is with the Err* reasons to classify
// them. Nothing is retried.
func (u *Uploader) UploadAt(ctx context.Context, image []byte, addr uint32) (*Result, error) {
	profile := u.config.Profile
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	padded := protocol.PadImage(image, profile.Alignment)
	if _, err := protocol.BuildLengthFrame(len(padded)); err != nil {
		return nil, err
	}

	startTime := time.Now()
	u.config.logInfo("starting upload",
		"port", u.port,
		"size", len(image),
		"padded", len(padded),
		"address", fmt.Sprintf("0x%08X", addr),
	)

	sess, err := u.Connect(ctx)
	if err != nil {
		u.config.logDebug("upload failed", "error", err.Error())
		return nil, err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			u.config.logError("failed to close port", "port", u.port, "error", err.Error())
		}
	}()

	status, err := u.run(ctx, sess, padded, addr)
	if err != nil {
		u.config.logDebug("upload failed", "error", err.Error())
		return nil, err
	}

	result := &Result{
		Address:    addr,
		ImageSize:  len(image),
		PaddedSize: len(padded),
		Chunks:     protocol.ChunkCount(len(padded), profile.ChunkSize),
		Status:     status,
		Elapsed:    time.Since(startTime),
	}

	u.config.reportProgress(Progress{
		Phase:       PhaseComplete,
		BytesSent:   len(padded),
		TotalBytes:  len(padded),
		ChunksSent:  result.Chunks,
		TotalChunks: result.Chunks,
		Percentage:  100,
		ElapsedTime: result.Elapsed,
	})

	u.config.logInfo("upload complete",
		"bytes", len(padded),
		"chunks", result.Chunks,
		"elapsed", result.Elapsed.String(),
	)

	return result, nil
}

func (u *Uploader) run(ctx context.Context, sess *Session, padded []byte, addr uint32) (byte, error) {
	if err := sess.SendHandshake(ctx); err != nil {
		return 0, err
	}
	if err := sess.SendHeader(ctx, len(padded), addr); err != nil {
		return 0, err
	}
	if err := sess.SendPayload(ctx, padded); err != nil {
		return 0, err
	}
	return sess.ReadStatus(ctx)
}

// Connect opens the port and returns a session in the Connected state.
// The profile is validated first; the open is abandoned after the
// configured timeout.
func (u *Uploader) Connect(ctx context.Context) (*Session, error) {
	if err := u.config.Profile.Validate(); err != nil {
		return nil, err
	}

	u.config.reportProgress(Progress{Phase: PhaseConnecting})

	port, err := u.open(ctx, PhaseConnecting)
	if err != nil {
		return nil, err
	}

	u.config.logInfo("connected", "port", u.port, "baud", u.config.BaudRate)

	return &Session{
		port:   port,
		config: &u.config,
		state:  StateConnected,
		start:  time.Now(),
	}, nil
}

// Probe checks that the link is usable: it writes a short probe, waits, and
// collects any reply. Silence is not a failure since an idle bootloader
// ignores the probe; only open and write failures are.
func (u *Uploader) Probe(ctx context.Context) (*ProbeResult, error) {
	port, err := u.open(ctx, PhaseProbe)
	if err != nil {
		return nil, err
	}
	defer func() { _ = port.Close() }()

	u.config.logDebug("sending probe", "bytes", fmt.Sprintf("%q", protocol.ProbeBytes))
	if err := writeFrame(ctx, port, PhaseProbe, protocol.ProbeBytes); err != nil {
		return nil, err
	}
	if err := pause(ctx, PhaseProbe, u.config.ProbeSettle); err != nil {
		return nil, err
	}

	reply, err := u.collect(ctx, port, protocol.ProbeReadSize, u.config.ProbeTimeout)
	if err != nil {
		return nil, err
	}

	if len(reply) > 0 {
		u.config.logInfo("received response", "reply", fmt.Sprintf("%q", reply))
	} else {
		u.config.logInfo("no response received, bootloader may be waiting")
	}
	return &ProbeResult{Reply: reply}, nil
}

// collect reads until limit bytes arrived or window elapsed.
func (u *Uploader) collect(ctx context.Context, port transport.Port, limit int, window time.Duration) ([]byte, error) {
	deadline := time.Now().Add(window)
	reply := make([]byte, 0, limit)
	buf := make([]byte, limit)

	for len(reply) < limit {
		if err := ctx.Err(); err != nil {
			return nil, &UploadError{Reason: ErrInterrupted, Phase: PhaseProbe, Err: err}
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		poll := u.config.PollInterval
		if remaining < poll {
			poll = remaining
		}
		if err := port.SetReadTimeout(poll); err != nil {
			return nil, &UploadError{Reason: ErrTransportUnavailable, Phase: PhaseProbe, Err: err}
		}
		n, err := port.Read(buf[:limit-len(reply)])
		reply = append(reply, buf[:n]...)
		if err != nil {
			return nil, &UploadError{Reason: ErrTransportUnavailable, Phase: PhaseProbe, Err: err}
		}
	}
	return reply, nil
}

type openResult struct {
	port transport.Port
	err  error
}

// open runs the opener on its own goroutine so a hung driver cannot block
// past the timeout. A port that opens late is closed.
func (u *Uploader) open(ctx context.Context, phase string) (transport.Port, error) {
	if err := ctx.Err(); err != nil {
		return nil, &UploadError{Reason: ErrInterrupted, Phase: phase, Err: err}
	}

	cfg := transport.Config{
		Name:        u.port,
		BaudRate:    u.config.BaudRate,
		ReadTimeout: u.config.Timeout,
	}

	done := make(chan openResult, 1)
	go func() {
		port, err := u.opener.Open(cfg)
		done <- openResult{port: port, err: err}
	}()

	timer := time.NewTimer(u.config.Timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			u.config.logDebug("error connecting", "port", u.port, "error", r.err.Error())
			return nil, &UploadError{Reason: ErrTransportUnavailable, Phase: phase, Err: r.err}
		}
		return r.port, nil
	case <-timer.C:
		go closeLate(done)
		return nil, &UploadError{
			Reason: ErrTransportUnavailable,
			Phase:  phase,
			Err:    fmt.Errorf("open %s: %w", u.port, context.DeadlineExceeded),
		}
	case <-ctx.Done():
		go closeLate(done)
		return nil, &UploadError{Reason: ErrInterrupted, Phase: phase, Err: ctx.Err()}
	}
}

func closeLate(done <-chan openResult) {
	if r := <-done; r.err == nil && r.port != nil {
		_ = r.port.Close()
	}
}

// reportProgress calls the progress callback if configured.
func (c *Config) reportProgress(progress Progress) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (c *Config) logDebug(msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (c *Config) logInfo(msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (c *Config) logError(msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Error(msg, keysAndValues...)
	}
}
