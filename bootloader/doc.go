// Package bootloader provides a high-level API for uploading program images
// to a MinCPU device through its UART bootloader.
//
// # Overview
//
// An upload is a single-shot session that runs four phases in strict order:
//   - Handshake: the magic word, then a settle delay
//   - Header: the padded length and the load address, each followed by a settle delay
//   - Payload: the zero-padded image in chunks of at most 64 bytes, paced by a fixed delay
//   - Status: exactly one status byte, awaited for at most the configured timeout
//
// The device never acknowledges frames along the way. A lost byte anywhere is
// only visible in the final status.
//
// # Basic Usage
//
//	up := bootloader.New(transport.Serial{}, "/dev/ttyUSB0")
//
//	image, err := os.ReadFile("program.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := up.UploadAt(context.Background(), image, 0x1000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("uploaded %d bytes in %s\n", res.PaddedSize, res.Elapsed)
//
// # Configuration Options
//
//	up := bootloader.New(transport.Serial{}, port,
//	    bootloader.WithBaudRate(115200),
//	    bootloader.WithTimeout(5*time.Second),
//	    bootloader.WithProgressCallback(progressFunc),
//	    bootloader.WithLogger(myLogger),
//	    bootloader.WithProfile(profile),
//	)
//
// # Context Support
//
// Cancelling the context interrupts the session at the next write, delay or
// status poll. The port is closed and the error matches ErrInterrupted.
// Bytes already sent are not retracted; treat the device contents as
// undefined.
//
// # Error Handling
//
// Every failure is an *UploadError whose Reason is one of:
//   - ErrTransportUnavailable: the port could not be opened
//   - ErrWriteFailure: a write failed or was truncated
//   - ErrTimeout: no status byte arrived in time
//   - ErrDeviceRejected: the device answered with its error code
//   - ErrUnexpectedStatus: the device answered with an undefined byte
//   - ErrInterrupted: the context was cancelled
//
// Classify with errors.Is:
//
//	if errors.Is(err, bootloader.ErrTimeout) {
//	    // ...
//	}
//
// No operation is retried internally; a new attempt is a new session.
//
// # Manual Sessions
//
// Connect returns a Session whose phases can be driven one at a time, e.g.
// to interleave custom diagnostics. Out-of-order calls return ErrInvalidState.
package bootloader
