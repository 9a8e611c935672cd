package transport

import (
	"errors"
	"fmt"
	"io/fs"

	"go.bug.st/serial"
)

// Serial opens UART devices with 8 data bits, no parity and one stop bit.
type Serial struct{}

// Open opens the named serial device and applies the read timeout.
// Bytes already waiting in the input buffer are discarded.
func (Serial) Open(cfg Config) (Port, error) {
	if cfg.Name == "" {
		return nil, errors.New("serial: no port specified")
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Name, mode)
	if err != nil {
		return nil, fmt.Errorf("serial: failed to open %s: %w", cfg.Name, err)
	}

	if cfg.ReadTimeout > 0 {
		if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("serial: failed to set timeout: %w", err)
		}
	}

	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("serial: failed to flush input: %w", err)
	}

	return port, nil
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("serial: failed to list ports: %w", err)
	}
	return ports, nil
}

// IsNotFound reports whether err means the port does not exist. On Unix
// the serial driver returns the open(2) error unchanged, so ENOENT counts.
func IsNotFound(err error) bool {
	var perr *serial.PortError
	if errors.As(err, &perr) {
		return perr.Code() == serial.PortNotFound
	}
	return errors.Is(err, fs.ErrNotExist)
}
