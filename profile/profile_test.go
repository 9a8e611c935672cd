package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mincpu/uartload/protocol"
)

const testProfiles = `
[mincpu]

[mincpu-fast]
settle_delay = 20ms
chunk_delay  = 2ms

[alt]
magic        = 0xCAFEF00D
success      = 0x06
error        = 21
chunk_size   = 32
alignment    = 2
load_address = 0x20000000
`

func TestParse(t *testing.T) {
	set, err := Parse([]byte(testProfiles))
	require.NoError(t, err)
	assert.Equal(t, []string{"alt", "mincpu", "mincpu-fast"}, set.Names())

	stock, err := set.Get("mincpu")
	require.NoError(t, err)
	want := protocol.DefaultProfile()
	assert.Equal(t, want, stock)

	fast, err := set.Get("mincpu-fast")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, fast.SettleDelay)
	assert.Equal(t, 2*time.Millisecond, fast.ChunkDelay)
	assert.Equal(t, protocol.MagicWord, fast.MagicWord)

	alt, err := set.Get("alt")
	require.NoError(t, err)
	assert.EqualValues(t, 0xCAFEF00D, alt.MagicWord)
	assert.EqualValues(t, 0x06, alt.SuccessCode)
	assert.EqualValues(t, 0x15, alt.ErrorCode)
	assert.Equal(t, 32, alt.ChunkSize)
	assert.Equal(t, 2, alt.Alignment)
	assert.EqualValues(t, 0x20000000, alt.LoadAddress)
	assert.Equal(t, protocol.DefaultSettleDelay, alt.SettleDelay)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"magic overflow", "[x]\nmagic = 0x1FFFFFFFF\n"},
		{"status overflow", "[x]\nsuccess = 0x100\n"},
		{"not a number", "[x]\nchunk_size = lots\n"},
		{"zero chunk size", "[x]\nchunk_size = 0\n"},
		{"bad duration", "[x]\nsettle_delay = soon\n"},
		{"clashing codes", "[x]\nsuccess = 0xFF\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestGetMissing(t *testing.T) {
	set, err := Parse([]byte("[a]\n"))
	require.NoError(t, err)
	_, err = set.Get("b")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.ini")
	require.NoError(t, os.WriteFile(path, []byte(testProfiles), 0o644))

	set, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, set, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}
