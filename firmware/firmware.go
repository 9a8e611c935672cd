package firmware

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
)

// Format identifies the encoding of a program image file.
type Format string

const (
	// FormatBinary is a raw memory image
	FormatBinary Format = "bin"

	// FormatIntelHex is an Intel HEX text file
	FormatIntelHex Format = "hex"
)

// MaxImageSize bounds the span covered by an Intel HEX file.
const MaxImageSize = 16 << 20

// Image is a program image ready for upload.
type Image struct {
	// Data is the image contents; gaps between HEX segments are zero-filled
	Data []byte

	// Address is the base address recorded in the file.
	// Only meaningful when HasAddress is true.
	Address uint32

	// HasAddress is true for formats that carry a load address
	HasAddress bool

	// Format is the encoding the image was read from
	Format Format
}

// Load reads a program image from path. Files ending in .hex or .ihx are
// parsed as Intel HEX, everything else is taken as raw binary.
//
// Example:
//
//	img, err := firmware.Load("hello.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Size: %d bytes\n", len(img.Data))
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("binary file '%s' not found", path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadReader(f, FormatFromPath(path))
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihx", ".ihex":
		return FormatIntelHex
	default:
		return FormatBinary
	}
}

// LoadReader reads a program image of the given format from r.
func LoadReader(r io.Reader, format Format) (*Image, error) {
	switch format {
	case FormatBinary:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		return &Image{Data: data, Format: FormatBinary}, nil
	case FormatIntelHex:
		return parseIntelHex(r)
	default:
		return nil, fmt.Errorf("unknown image format %q", format)
	}
}

// parseIntelHex flattens all data segments into one image starting at the
// lowest address.
func parseIntelHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("failed to parse Intel HEX: %w", err)
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return nil, fmt.Errorf("Intel HEX file contains no data")
	}

	base := segments[0].Address
	end := uint64(base)
	for _, seg := range segments {
		if seg.Address < base {
			base = seg.Address
		}
		if segEnd := uint64(seg.Address) + uint64(len(seg.Data)); segEnd > end {
			end = segEnd
		}
	}

	span := end - uint64(base)
	if span > MaxImageSize {
		return nil, fmt.Errorf("Intel HEX spans %d bytes, maximum is %d", span, MaxImageSize)
	}

	data := mem.ToBinary(base, uint32(span), 0x00)
	return &Image{
		Data:       data,
		Address:    base,
		HasAddress: true,
		Format:     FormatIntelHex,
	}, nil
}
