package protocol

import (
	"strings"
	"testing"
	"time"
)

func TestParseStatusIsTotal(t *testing.T) {
	p := DefaultProfile()
	for v := 0; v <= 0xFF; v++ {
		b := byte(v)
		got := ParseStatus(b, p)

		var want Status
		switch b {
		case 0xAA:
			want = StatusOK
		case 0xFF:
			want = StatusRejected
		default:
			want = StatusUnknown
		}

		if got != want {
			t.Errorf("ParseStatus(0x%02X) = %v, want %v", b, got, want)
		}
	}
}

func TestParseStatusCustomProfile(t *testing.T) {
	p := DefaultProfile()
	p.SuccessCode = 0x06
	p.ErrorCode = 0x15

	if ParseStatus(0x06, p) != StatusOK {
		t.Error("custom success code not recognised")
	}
	if ParseStatus(0x15, p) != StatusRejected {
		t.Error("custom error code not recognised")
	}
	if ParseStatus(0xAA, p) != StatusUnknown {
		t.Error("stock success code should be unknown under a custom profile")
	}
}

func TestStatusName(t *testing.T) {
	p := DefaultProfile()
	tests := []struct {
		code byte
		want string
	}{
		{0xAA, "success"},
		{0xFF, "device error"},
		{0x42, "unknown status code 0x42"},
	}
	for _, tt := range tests {
		if got := StatusName(tt.code, p); !strings.Contains(got, tt.want) {
			t.Errorf("StatusName(0x%02X) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	if err := p.Validate(); err != nil {
		t.Fatalf("default profile invalid: %v", err)
	}
	if p.MagicWord != 0xDEADBEEF {
		t.Errorf("MagicWord = 0x%08X", p.MagicWord)
	}
	if p.ChunkSize != 64 || p.Alignment != 4 || p.LoadAddress != 0x1000 {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if p.SettleDelay != 100*time.Millisecond || p.ChunkDelay != 10*time.Millisecond {
		t.Errorf("unexpected delays: %v / %v", p.SettleDelay, p.ChunkDelay)
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Profile)
		errMsg string
	}{
		{"zero chunk", func(p *Profile) { p.ChunkSize = 0 }, "chunk size"},
		{"zero alignment", func(p *Profile) { p.Alignment = 0 }, "alignment"},
		{"same codes", func(p *Profile) { p.ErrorCode = p.SuccessCode }, "both"},
		{"negative delay", func(p *Profile) { p.ChunkDelay = -1 }, "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile()
			tt.mutate(&p)
			err := p.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}
