// Package sim simulates a MinCPU UART bootloader behind a transport.Port.
//
// The device parses the upload stream byte by byte exactly like the firmware:
// it hunts for the magic word, reads the length and address words, stores
// the payload and answers with a single status byte. It is meant for tests,
// demos and dry runs without hardware.
package sim

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/mincpu/uartload/protocol"
	"github.com/mincpu/uartload/transport"
)

// ErrBusy is returned when the device is opened twice.
var ErrBusy = errors.New("sim: port busy")

type rxState int

const (
	rxMagic rxState = iota
	rxLength
	rxAddress
	rxData
	rxDone
)

// Device is a simulated bootloader. The zero value is not usable; use New.
type Device struct {
	mu      sync.Mutex
	profile protocol.Profile

	memBase uint32
	memory  []byte

	// behaviour overrides
	silent      bool
	forceStatus *byte

	open     bool
	config   transport.Config
	timeout  time.Duration
	out      chan byte
	closed   chan struct{}
	writes   [][]byte
	opens    int

	state   rxState
	word    []byte
	length  uint32
	address uint32
	payload []byte
	loads   int
}

// Option configures a Device.
type Option func(*Device)

// WithProfile makes the device speak a non-default profile.
func WithProfile(p protocol.Profile) Option {
	return func(d *Device) {
		d.profile = p
	}
}

// WithMemory sets the writable memory window.
func WithMemory(base uint32, size int) Option {
	return func(d *Device) {
		d.memBase = base
		d.memory = make([]byte, size)
	}
}

// WithSilence makes the device swallow the upload without ever answering.
func WithSilence() Option {
	return func(d *Device) {
		d.silent = true
	}
}

// WithStatus forces the status byte sent after a complete upload.
func WithStatus(b byte) Option {
	return func(d *Device) {
		d.forceStatus = &b
	}
}

// New creates a simulated device with 64 KiB of memory at address 0.
func New(opts ...Option) *Device {
	d := &Device{
		profile: protocol.DefaultProfile(),
		memory:  make([]byte, 64*1024),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open implements transport.Opener. The device can be open once at a time;
// each open starts a fresh receive state.
func (d *Device) Open(cfg transport.Config) (transport.Port, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open {
		return nil, ErrBusy
	}
	d.open = true
	d.opens++
	d.config = cfg
	d.timeout = cfg.ReadTimeout
	d.out = make(chan byte, 16)
	d.closed = make(chan struct{})
	d.state = rxMagic
	d.word = d.word[:0]
	d.payload = nil
	return d, nil
}

// Write feeds bytes to the simulated bootloader.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return 0, transport.ErrClosed
	}
	d.writes = append(d.writes, append([]byte(nil), p...))
	for _, b := range p {
		d.receive(b)
	}
	return len(p), nil
}

// Drain implements transport.Drainer.
func (d *Device) Drain() error {
	return nil
}

// Read returns status bytes produced by the device. It waits up to the read
// timeout and returns (0, nil) if nothing arrives.
func (d *Device) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return 0, transport.ErrClosed
	}
	out, closed, timeout := d.out, d.closed, d.timeout
	d.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case b := <-out:
		p[0] = b
		n := 1
		for n < len(p) {
			select {
			case b := <-out:
				p[n] = b
				n++
			default:
				return n, nil
			}
		}
		return n, nil
	case <-expired:
		return 0, nil
	case <-closed:
		return 0, transport.ErrClosed
	}
}

// SetReadTimeout implements transport.Port.
func (d *Device) SetReadTimeout(t time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timeout = t
	return nil
}

// Close releases the port.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return transport.ErrClosed
	}
	d.open = false
	close(d.closed)
	return nil
}

func (d *Device) receive(b byte) {
	switch d.state {
	case rxMagic:
		d.word = append(d.word, b)
		if len(d.word) > protocol.WordSize {
			d.word = d.word[1:]
		}
		if len(d.word) == protocol.WordSize && binary.LittleEndian.Uint32(d.word) == d.profile.MagicWord {
			d.word = d.word[:0]
			d.state = rxLength
		}
	case rxLength, rxAddress:
		d.word = append(d.word, b)
		if len(d.word) < protocol.WordSize {
			return
		}
		v := binary.LittleEndian.Uint32(d.word)
		d.word = d.word[:0]
		if d.state == rxLength {
			d.length = v
			d.state = rxAddress
			return
		}
		d.address = v
		d.payload = make([]byte, 0, d.length)
		d.state = rxData
		if d.length == 0 {
			d.finish()
		}
	case rxData:
		d.payload = append(d.payload, b)
		if uint32(len(d.payload)) == d.length {
			d.finish()
		}
	case rxDone:
		// the bootloader ignores traffic after the status byte
	}
}

func (d *Device) finish() {
	d.state = rxDone
	status := d.profile.SuccessCode

	end := uint64(d.address) + uint64(d.length)
	if d.address < d.memBase || end > uint64(d.memBase)+uint64(len(d.memory)) {
		status = d.profile.ErrorCode
	} else {
		copy(d.memory[d.address-d.memBase:], d.payload)
		d.loads++
	}

	if d.forceStatus != nil {
		status = *d.forceStatus
	}
	if d.silent {
		return
	}
	d.out <- status
}

// Writes returns a copy of every Write call received since creation.
func (d *Device) Writes() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	writes := make([][]byte, len(d.writes))
	for i, w := range d.writes {
		writes[i] = append([]byte(nil), w...)
	}
	return writes
}

// Memory returns a copy of n bytes of device memory starting at addr.
func (d *Device) Memory(addr uint32, n int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	if addr < d.memBase || int(addr-d.memBase)+n > len(d.memory) {
		return nil
	}
	start := addr - d.memBase
	return append([]byte(nil), d.memory[start:int(start)+n]...)
}

// Loads returns the number of uploads the device accepted.
func (d *Device) Loads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loads
}

// Opens returns how many times the device was opened.
func (d *Device) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// IsOpen reports whether a session currently holds the port.
func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// LastConfig returns the configuration of the most recent Open.
func (d *Device) LastConfig() transport.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}
