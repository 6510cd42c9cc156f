package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Adweery/soundstory-app-nnkocz/internal/catalog"
)

// Output is the port to the underlying audio subsystem. The engine drives
// every fade and load through this interface; swapping implementations is
// how tests observe the crossfade protocol without a real audio device.
type Output interface {
	// Start prepares the audio subsystem. Called once per session.
	Start(ctx context.Context) error

	// LoadLoop creates a looping sound at the given volume and begins
	// playback. The returned Sound stays alive until Stop is called.
	LoadLoop(ctx context.Context, trackID string, volume float64) (Sound, error)

	// PlayOnce starts a non-looping one-shot at the given volume. done is
	// invoked exactly once when playback completes naturally; it is not
	// invoked after Stop.
	PlayOnce(ctx context.Context, trackID string, volume float64, done func()) (Sound, error)
}

// Sound is a live playback handle.
type Sound interface {
	// SetVolume adjusts the playback volume in [0,1].
	SetVolume(v float64) error
	// Stop halts playback and releases the underlying resources.
	Stop() error
}

// SoundState is a snapshot of one live sound in a MixOutput.
type SoundState struct {
	TrackID string  `json:"track_id"`
	Volume  float64 `json:"volume"`
	Looping bool    `json:"looping"`
}

// MixOutput is the server-side Output implementation. Playback devices live
// on the mobile client; the server keeps the authoritative mix state, so
// this output resolves track ids against the catalog and tracks every live
// sound with its current volume. One-shots self-complete after a fixed
// nominal duration.
type MixOutput struct {
	catalog     *catalog.Catalog
	oneShotSpan time.Duration

	mu     sync.Mutex
	sounds map[*mixSound]struct{}
}

// MixOption configures a MixOutput.
type MixOption func(*MixOutput)

// WithOneShotSpan sets the nominal duration after which one-shots complete.
func WithOneShotSpan(d time.Duration) MixOption {
	return func(o *MixOutput) {
		o.oneShotSpan = d
	}
}

// NewMixOutput creates a MixOutput backed by the given catalog.
func NewMixOutput(cat *catalog.Catalog, opts ...MixOption) *MixOutput {
	o := &MixOutput{
		catalog:     cat,
		oneShotSpan: 2 * time.Second,
		sounds:      make(map[*mixSound]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start implements Output. The mix state needs no device setup.
func (o *MixOutput) Start(_ context.Context) error {
	return nil
}

// LoadLoop implements Output.
func (o *MixOutput) LoadLoop(_ context.Context, trackID string, volume float64) (Sound, error) {
	if _, err := o.catalog.Resolve(trackID); err != nil {
		return nil, fmt.Errorf("load loop: %w", err)
	}
	return o.add(trackID, volume, true), nil
}

// PlayOnce implements Output.
func (o *MixOutput) PlayOnce(_ context.Context, trackID string, volume float64, done func()) (Sound, error) {
	if _, err := o.catalog.Resolve(trackID); err != nil {
		return nil, fmt.Errorf("play once: %w", err)
	}

	s := o.add(trackID, volume, false)
	s.timer = time.AfterFunc(o.oneShotSpan, func() {
		if s.finish() && done != nil {
			done()
		}
	})
	return s, nil
}

// Snapshot returns the current live sounds.
func (o *MixOutput) Snapshot() []SoundState {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]SoundState, 0, len(o.sounds))
	for s := range o.sounds {
		s.mu.Lock()
		out = append(out, SoundState{TrackID: s.trackID, Volume: s.volume, Looping: s.looping})
		s.mu.Unlock()
	}
	return out
}

func (o *MixOutput) add(trackID string, volume float64, looping bool) *mixSound {
	s := &mixSound{output: o, trackID: trackID, volume: volume, looping: looping}
	o.mu.Lock()
	o.sounds[s] = struct{}{}
	o.mu.Unlock()
	return s
}

func (o *MixOutput) remove(s *mixSound) {
	o.mu.Lock()
	delete(o.sounds, s)
	o.mu.Unlock()
}

type mixSound struct {
	output  *MixOutput
	trackID string
	looping bool
	timer   *time.Timer

	mu      sync.Mutex
	volume  float64
	stopped bool
}

func (s *mixSound) SetVolume(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.volume = v
	return nil
}

func (s *mixSound) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	timer := s.timer
	s.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	s.output.remove(s)
	return nil
}

// finish marks a one-shot as naturally complete. Returns false if the sound
// was already stopped, in which case the done callback must not fire.
func (s *mixSound) finish() bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.stopped = true
	s.mu.Unlock()

	s.output.remove(s)
	return true
}
