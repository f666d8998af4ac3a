package radio

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeFrame(t *testing.T) {
	frame, err := EncodeFrame([]byte{0xAA, 0xBB, 0xCC})
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	want := []byte{0x94, 0xC3, 0x00, 0x03, 0xAA, 0xBB, 0xCC}
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = % x, want % x", frame, want)
	}
}

func TestEncodeFrameEmpty(t *testing.T) {
	frame, err := EncodeFrame(nil)
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	want := []byte{0x94, 0xC3, 0x00, 0x00}
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = % x, want % x", frame, want)
	}
}

func TestEncodeFrameTooLarge(t *testing.T) {
	_, err := EncodeFrame(make([]byte, MaxFrameBody+1))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("error = %v, want ErrFrameTooLarge", err)
	}
}

func TestParseFrameHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  []byte
		wantLen int
		wantErr error
	}{
		{
			name:    "valid",
			header:  []byte{0x94, 0xC3, 0x01, 0x2C},
			wantLen: 300,
		},
		{
			name:    "bad magic",
			header:  []byte{0x95, 0xC3, 0x00, 0x01},
			wantErr: ErrBadFrame,
		},
		{
			name:    "oversized",
			header:  []byte{0x94, 0xC3, 0xFF, 0xFF},
			wantErr: ErrFrameTooLarge,
		},
		{
			name:    "short",
			header:  []byte{0x94, 0xC3},
			wantErr: ErrTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseFrameHeader(tt.header)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrameHeader() error = %v", err)
			}
			if n != tt.wantLen {
				t.Errorf("length = %d, want %d", n, tt.wantLen)
			}
		})
	}
}

func TestIDSourceNonZero(t *testing.T) {
	ids := NewIDSource()
	seen := make(map[uint32]bool)
	for range 1000 {
		id := ids.Next()
		if id == 0 {
			t.Fatal("IDSource yielded zero")
		}
		seen[id] = true
	}
	if len(seen) < 990 {
		t.Errorf("only %d distinct IDs in 1000 draws", len(seen))
	}
}
