package bootloader

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mincpu/uartload/transport"
)

// MockPort is a scripted transport.Port for testing
type MockPort struct {
	mu sync.Mutex

	writes   [][]byte
	pending  *bytes.Buffer
	timeout  time.Duration
	closed   bool
	closes   int
	reads    int
	readErr  error
	writeErr error
	failAt   int // 1-based write index that fails, 0 = never
	shortAt  int // 1-based write index that is truncated, 0 = never

	// onWrite runs after each successful write with the write index
	onWrite func(n int)
}

func NewMockPort() *MockPort {
	return &MockPort{pending: new(bytes.Buffer)}
}

// Reply queues bytes the port will return on Read.
func (m *MockPort) Reply(b ...byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.Write(b)
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, transport.ErrClosed
	}
	idx := len(m.writes) + 1
	if m.writeErr != nil && (m.failAt == 0 || m.failAt == idx) {
		m.mu.Unlock()
		return 0, m.writeErr
	}
	n := len(p)
	if m.shortAt == idx {
		n = len(p) / 2
	}
	m.writes = append(m.writes, append([]byte(nil), p[:n]...))
	hook := m.onWrite
	m.mu.Unlock()

	if hook != nil {
		hook(idx)
	}
	return n, nil
}

func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	m.reads++
	if m.closed {
		m.mu.Unlock()
		return 0, transport.ErrClosed
	}
	if m.readErr != nil {
		m.mu.Unlock()
		return 0, m.readErr
	}
	if m.pending.Len() > 0 {
		n, _ := m.pending.Read(p)
		m.mu.Unlock()
		return n, nil
	}
	timeout := m.timeout
	m.mu.Unlock()

	// behave like a serial port: wait out the timeout, return nothing
	time.Sleep(timeout)
	return 0, nil
}

func (m *MockPort) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = t
	return nil
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	if m.closed {
		return transport.ErrClosed
	}
	m.closed = true
	return nil
}

func (m *MockPort) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.writes...)
}

// Reads returns how many times Read was called.
func (m *MockPort) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func (m *MockPort) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// opener returns an Opener that hands out m and records the config.
func (m *MockPort) opener(cfg *transport.Config) transport.Opener {
	return transport.OpenerFunc(func(c transport.Config) (transport.Port, error) {
		if cfg != nil {
			*cfg = c
		}
		return m, nil
	})
}

func failingOpener(err error) transport.Opener {
	return transport.OpenerFunc(func(transport.Config) (transport.Port, error) {
		return nil, err
	})
}

var errNoDevice = errors.New("no such file or directory")

// MockLogger records messages for testing
type MockLogger struct {
	mu        sync.Mutex
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string

	// debugLines holds each debug message followed by its key/value pairs
	debugLines []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugMsgs = append(l.debugMsgs, msg)
	l.debugLines = append(l.debugLines, fmt.Sprint(append([]interface{}{msg}, kv...)...))
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorMsgs = append(l.errorMsgs, msg)
}

// fast returns options that remove the pacing delays.
func fast() []Option {
	return []Option{
		WithSettleDelay(0),
		WithChunkDelay(0),
		WithPollInterval(10 * time.Millisecond),
		WithTimeout(200 * time.Millisecond),
	}
}
