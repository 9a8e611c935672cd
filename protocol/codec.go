package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeU32LE encodes v as a 4-byte little-endian word, the device's native
// byte order.
func EncodeU32LE(v uint32) [WordSize]byte {
	var b [WordSize]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b
}

// BuildMagicFrame constructs the handshake frame.
//
// Frame structure:
//
//	[MAGIC_0][MAGIC_1][MAGIC_2][MAGIC_3]
func BuildMagicFrame(magic uint32) []byte {
	w := EncodeU32LE(magic)
	return w[:]
}

// BuildLengthFrame constructs the header frame carrying the padded payload
// length in bytes.
//
// Frame structure:
//
//	[LEN_0][LEN_1][LEN_2][LEN_3]
func BuildLengthFrame(length int) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("length cannot be negative, got %d", length)
	}
	if uint64(length) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, length)
	}
	w := EncodeU32LE(uint32(length))
	return w[:], nil
}

// BuildAddressFrame constructs the header frame carrying the load address.
//
// Frame structure:
//
//	[ADDR_0][ADDR_1][ADDR_2][ADDR_3]
func BuildAddressFrame(addr uint32) []byte {
	w := EncodeU32LE(addr)
	return w[:]
}

// PaddedLength returns the smallest multiple of align that is >= n.
func PaddedLength(n, align int) int {
	if align <= 1 || n%align == 0 {
		return n
	}
	return n + align - n%align
}

// PadImage returns a copy of data zero-padded at the end to a multiple of
// align. The input slice is never modified.
func PadImage(data []byte, align int) []byte {
	padded := make([]byte, PaddedLength(len(data), align))
	copy(padded, data)
	return padded
}

// ChunkCount returns the number of chunks a payload of n bytes is split into.
func ChunkCount(n, size int) int {
	if n == 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Chunks splits data into consecutive slices of at most size bytes.
// The slices alias data.
func Chunks(data []byte, size int) ([][]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
	}

	chunks := make([][]byte, 0, ChunkCount(len(data), size))
	for len(data) > size {
		chunks = append(chunks, data[:size])
		data = data[size:]
	}
	if len(data) > 0 {
		chunks = append(chunks, data)
	}
	return chunks, nil
}

// ParseStatus classifies a status byte against the profile's codes.
// The mapping is total: every byte value yields a Status.
func ParseStatus(b byte, p Profile) Status {
	switch b {
	case p.SuccessCode:
		return StatusOK
	case p.ErrorCode:
		return StatusRejected
	default:
		return StatusUnknown
	}
}
