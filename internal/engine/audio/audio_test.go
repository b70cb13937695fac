package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// monoWAV builds a 16-bit PCM mono WAV with n samples.
func monoWAV(t *testing.T, rate uint32, n int) []byte {
	t.Helper()
	var buf bytes.Buffer
	dataSize := uint32(n * 2)
	write := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatal(err)
		}
	}
	buf.WriteString("RIFF")
	write(36 + dataSize)
	buf.WriteString("WAVE")
	// PCM, one channel, two bytes per frame
	buf.WriteString("fmt ")
	write(uint32(16))
	write(uint16(1))
	write(uint16(1))
	write(rate)
	write(rate * 2)
	write(uint16(2))
	write(uint16(16))
	buf.WriteString("data")
	write(dataSize)
	for i := 0; i < n; i++ {
		write(int16(i * 100))
	}
	return buf.Bytes()
}

func TestGainExponent(t *testing.T) {
	tests := []struct {
		vol  float64
		want float64
	}{
		{1.0, 0},
		{0.5, -1},
		{0.25, -2},
		{0, -100},
	}

	for _, tt := range tests {
		got := gainExponent(tt.vol)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("gainExponent(%v) = %v, want %v", tt.vol, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0, 0, 1, 0},
		{1, 0, 1, 1},
	}

	for _, tt := range tests {
		got := clamp(tt.v, tt.lo, tt.hi)
		if got != tt.want {
			t.Errorf("clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestVolume(t *testing.T) {
	m := New(2)
	if m.Volume() != 1 {
		t.Errorf("volume = %v, want 1 (clamped)", m.Volume())
	}
	m.SetVolume(0.3)
	if m.Volume() != 0.3 {
		t.Errorf("volume = %v, want 0.3", m.Volume())
	}
	m.SetVolume(-1)
	if m.Volume() != 0 {
		t.Errorf("volume = %v, want 0 (clamped)", m.Volume())
	}
}

func TestLoad(t *testing.T) {
	m := New(1)
	if err := m.Load(CueShutter, monoWAV(t, uint32(DefaultSampleRate), 64)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !m.Loaded(CueShutter) {
		t.Fatal("shutter cue should be loaded")
	}
	if got := m.cues[CueShutter].Len(); got != 64 {
		t.Errorf("buffer length = %d, want 64", got)
	}
	if m.Loaded(CuePlace) {
		t.Error("place cue was never loaded")
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	m := New(1)
	if err := m.Load(CuePlace, []byte("not a wav file")); err == nil {
		t.Error("expected decode error")
	}
	if m.Loaded(CuePlace) {
		t.Error("failed load must not register the cue")
	}
}

func TestPlayBeforeInit(t *testing.T) {
	m := New(1)
	if err := m.Play(CuePlace); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}
