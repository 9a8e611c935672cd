// Package protocol implements the wire format of the MinCPU UART bootloader.
//
// # Protocol Overview
//
// An upload is a send-only stream followed by a single status byte:
//
//	Host -> Device: [MAGIC(4)] [LENGTH(4)] [ADDRESS(4)] [DATA(LENGTH)]
//	Device -> Host: [STATUS(1)]
//
// Where:
//   - MAGIC = 0xDEADBEEF, little-endian
//   - LENGTH = payload length in bytes, a multiple of 4, little-endian
//   - ADDRESS = load address, little-endian
//   - DATA = the image, zero-padded at the end to a multiple of 4
//   - STATUS = 0xAA on success, 0xFF on error
//
// The device never acknowledges individual frames. The host paces the stream
// with fixed delays instead: a settle delay after each header word and a short
// delay after each payload chunk of at most 64 bytes.
//
// # Frame Builders
//
//	magic := protocol.BuildMagicFrame(protocol.MagicWord)
//	length, err := protocol.BuildLengthFrame(len(padded))
//	addr := protocol.BuildAddressFrame(0x1000)
//
// # Payload Helpers
//
//	padded := protocol.PadImage(image, protocol.DefaultAlignment)
//	chunks, err := protocol.Chunks(padded, protocol.DefaultChunkSize)
//
// # Profiles
//
// All constants are gathered in a Profile so that alternate bootloaders can be
// driven without touching the session code:
//
//	p := protocol.DefaultProfile()
//	p.ChunkSize = 32
//	status := protocol.ParseStatus(b, p)
package protocol
