// Package audio plays short feedback cues: object placed, object selected,
// photo taken.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// DefaultSampleRate is the output sample rate.
const DefaultSampleRate = beep.SampleRate(44100)

// Audio errors.
var (
	ErrNotInitialized = errors.New("audio not initialized")
	ErrUnknownCue     = errors.New("cue not loaded")
)

// Cue identifies a feedback sound.
type Cue int

const (
	CuePlace Cue = iota
	CueSelect
	CueShutter
)

func (c Cue) String() string {
	switch c {
	case CuePlace:
		return "place"
	case CueSelect:
		return "select"
	case CueShutter:
		return "shutter"
	default:
		return fmt.Sprintf("Cue(%d)", int(c))
	}
}

// Manager decodes cues up front and mixes them on the speaker. It is safe
// for concurrent use.
type Manager struct {
	mu sync.RWMutex

	initialized bool
	sampleRate  beep.SampleRate
	volume      float64 // 0.0 to 1.0

	mixer *beep.Mixer
	cues  map[Cue]*beep.Buffer
}

// New creates a manager with the given volume. Cues can be loaded before Init.
func New(volume float64) *Manager {
	return &Manager{
		sampleRate: DefaultSampleRate,
		volume:     clamp(volume, 0, 1),
		mixer:      &beep.Mixer{},
		cues:       make(map[Cue]*beep.Buffer),
	}
}

// Init opens the speaker and starts the mixer.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(m.mixer)
	m.initialized = true
	return nil
}

// Close stops playback.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		speaker.Clear()
		m.initialized = false
	}
}

// Initialized reports whether the speaker is open.
func (m *Manager) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SetVolume sets the cue volume, clamped to [0,1].
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clamp(vol, 0, 1)
}

// Volume returns the cue volume.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// Load decodes WAV data into memory, resampled to the output rate.
func (m *Manager) Load(cue Cue, data []byte) error {
	streamer, format, err := wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return fmt.Errorf("decode %s: %w", cue, err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != m.sampleRate {
		src = beep.Resample(4, format.SampleRate, m.sampleRate, streamer)
	}
	format.SampleRate = m.sampleRate

	buf := beep.NewBuffer(format)
	buf.Append(src)

	m.mu.Lock()
	m.cues[cue] = buf
	m.mu.Unlock()
	return nil
}

// Loaded reports whether cue has been loaded.
func (m *Manager) Loaded(cue Cue) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.cues[cue]
	return ok
}

// Play mixes cue into the output. Overlapping plays are allowed.
func (m *Manager) Play(cue Cue) error {
	m.mu.RLock()
	initialized := m.initialized
	vol := m.volume
	buf, ok := m.cues[cue]
	m.mu.RUnlock()

	if !initialized {
		return ErrNotInitialized
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCue, cue)
	}

	speaker.Lock()
	m.mixer.Add(&effects.Volume{
		Streamer: buf.Streamer(0, buf.Len()),
		Base:     2,
		Volume:   gainExponent(vol),
		Silent:   vol <= 0,
	})
	speaker.Unlock()
	return nil
}

// gainExponent maps a linear volume to a base-2 exponent, so that
// 2^exponent equals the volume.
func gainExponent(vol float64) float64 {
	if vol <= 0 {
		return -100
	}
	return math.Log2(vol)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
