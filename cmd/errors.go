package cmd

import (
	"errors"

	"github.com/mincpu/uartload/bootloader"
	"github.com/mincpu/uartload/transport"
)

// hint returns advice for the user matching the failure reason of err.
func hint(err error) string {
	switch bootloader.Reason(err) {
	case bootloader.ErrTransportUnavailable:
		if transport.IsNotFound(err) {
			return "Port does not exist; run 'uartload ports' to list available ports."
		}
		return "Check the port name and that no other program is using it."
	case bootloader.ErrWriteFailure:
		return "The link dropped during the upload. Check connections and try again."
	case bootloader.ErrTimeout:
		return "No response from the bootloader. Reset the device into bootloader mode and try again."
	case bootloader.ErrDeviceRejected:
		return "The bootloader refused the image. Check the load address and image size."
	case bootloader.ErrUnexpectedStatus:
		return "The device answered with an unknown status. Check the baud rate."
	case bootloader.ErrInterrupted:
		return "Upload interrupted by user."
	}
	if errors.Is(err, errUsage) {
		return "Run 'uartload --help' for usage."
	}
	return ""
}

var errUsage = errors.New("usage")
