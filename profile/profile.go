// Package profile reads bootloader device profiles from INI files.
//
// Each section describes one device; keys left out keep the stock MinCPU
// values:
//
//	[mincpu-fast]
//	magic        = 0xDEADBEEF
//	success      = 0xAA
//	error        = 0xFF
//	chunk_size   = 64
//	alignment    = 4
//	load_address = 0x1000
//	settle_delay = 50ms
//	chunk_delay  = 5ms
package profile

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"gopkg.in/ini.v1"

	"github.com/mincpu/uartload/protocol"
)

// Profile file keys.
const (
	KeyMagic       = "magic"
	KeySuccess     = "success"
	KeyError       = "error"
	KeyChunkSize   = "chunk_size"
	KeyAlignment   = "alignment"
	KeyLoadAddress = "load_address"
	KeySettleDelay = "settle_delay"
	KeyChunkDelay  = "chunk_delay"
)

// Set is a collection of named profiles.
type Set map[string]protocol.Profile

// Load parses the profile file at path.
func Load(path string) (Set, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	return fromFile(f)
}

// Parse parses profile definitions held in memory.
func Parse(data []byte) (Set, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	return fromFile(f)
}

func fromFile(f *ini.File) (Set, error) {
	set := make(Set)
	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		p, err := fromSection(section)
		if err != nil {
			return nil, err
		}
		set[p.Name] = p
	}
	return set, nil
}

func fromSection(section *ini.Section) (protocol.Profile, error) {
	p := protocol.DefaultProfile()
	p.Name = section.Name()

	var err error
	if p.MagicWord, err = uintKey(section, KeyMagic, 32, uint64(p.MagicWord)); err != nil {
		return p, err
	}

	var v uint32
	if v, err = uintKey(section, KeySuccess, 8, uint64(p.SuccessCode)); err != nil {
		return p, err
	}
	p.SuccessCode = byte(v)
	if v, err = uintKey(section, KeyError, 8, uint64(p.ErrorCode)); err != nil {
		return p, err
	}
	p.ErrorCode = byte(v)

	if v, err = uintKey(section, KeyChunkSize, 16, uint64(p.ChunkSize)); err != nil {
		return p, err
	}
	p.ChunkSize = int(v)
	if v, err = uintKey(section, KeyAlignment, 16, uint64(p.Alignment)); err != nil {
		return p, err
	}
	p.Alignment = int(v)

	if p.LoadAddress, err = uintKey(section, KeyLoadAddress, 32, uint64(p.LoadAddress)); err != nil {
		return p, err
	}

	if p.SettleDelay, err = durationKey(section, KeySettleDelay, p.SettleDelay); err != nil {
		return p, err
	}
	if p.ChunkDelay, err = durationKey(section, KeyChunkDelay, p.ChunkDelay); err != nil {
		return p, err
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// uintKey reads an unsigned key in decimal or 0x-prefixed hex.
func uintKey(section *ini.Section, name string, bits int, def uint64) (uint32, error) {
	if !section.HasKey(name) {
		return uint32(def), nil
	}
	raw := section.Key(name).String()
	v, err := strconv.ParseUint(raw, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("profile %q: invalid %s %q: %w", section.Name(), name, raw, err)
	}
	return uint32(v), nil
}

func durationKey(section *ini.Section, name string, def time.Duration) (time.Duration, error) {
	if !section.HasKey(name) {
		return def, nil
	}
	d, err := section.Key(name).Duration()
	if err != nil {
		return 0, fmt.Errorf("profile %q: invalid %s %q: %w", section.Name(), name, section.Key(name).String(), err)
	}
	return d, nil
}

// Get returns the named profile.
func (s Set) Get(name string) (protocol.Profile, error) {
	p, ok := s[name]
	if !ok {
		return protocol.Profile{}, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// Names returns the profile names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
