// Package engine owns the live soundscape: two persistent looping layers
// (music, ambience) plus transient one-shot effects, with crossfade
// transitions between track selections. A Manager is session-scoped and
// explicitly constructed; nothing in this package is process-global.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adweery/soundstory-app-nnkocz/internal/soundscape"
)

// ErrAudioSystem is returned by Initialize when the audio subsystem cannot
// be set up. After this, playback operations become logged no-ops; the
// session continues without sound rather than crashing.
var ErrAudioSystem = errors.New("engine: audio system unavailable")

// LayerKind identifies one of the two persistent layers.
type LayerKind string

// Persistent layer kinds.
const (
	LayerMusic    LayerKind = "music"
	LayerAmbience LayerKind = "ambience"
)

// LayerState is a crossfade state machine state.
type LayerState string

// Crossfade states. A layer accepts a new target only in Idle or Steady;
// mid-transition requests are skipped, not queued (the per-session pipeline
// serializes selections, so overlap is the exception).
const (
	StateIdle      LayerState = "idle"
	StateFadingOut LayerState = "fading_out"
	StateLoading   LayerState = "loading"
	StateFadingIn  LayerState = "fading_in"
	StateSteady    LayerState = "steady"
)

// Crossfade tuning. Each transition spends half the crossfade duration on
// the fade-out ramp and half on the fade-in ramp, in fixed linear steps.
const (
	fadeSteps         = 20
	musicCrossfade    = 1500 * time.Millisecond
	ambienceCrossfade = 1000 * time.Millisecond
)

// LayerSnapshot is an externally visible view of one layer.
type LayerSnapshot struct {
	Layer        LayerKind  `json:"layer"`
	State        LayerState `json:"state"`
	TrackID      string     `json:"track_id,omitempty"`
	Playing      bool       `json:"playing"`
	Volume       float64    `json:"volume"`
	TargetVolume float64    `json:"target_volume"`
}

// ApplyResult reports what one ApplySelection call did. Failures never
// surface as errors; skipped work is visible here and in the logs.
type ApplyResult struct {
	MusicChanged    bool `json:"music_changed"`
	MusicSkipped    bool `json:"music_skipped"`
	AmbienceChanged bool `json:"ambience_changed"`
	AmbienceSkipped bool `json:"ambience_skipped"`
	SfxTriggered    int  `json:"sfx_triggered"`
	SfxSkipped      int  `json:"sfx_skipped"`
}

type layer struct {
	kind      LayerKind
	crossfade time.Duration

	mu           sync.Mutex
	state        LayerState
	trackID      string
	playing      bool
	volume       float64
	targetVolume float64
	sound        Sound
	gen          uint64 // bumped by forced stops to abort in-flight ramps
}

func newLayer(kind LayerKind, crossfade time.Duration) *layer {
	return &layer{
		kind:         kind,
		crossfade:    crossfade,
		state:        StateIdle,
		targetVolume: 1.0,
	}
}

func (l *layer) snapshot() LayerSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LayerSnapshot{
		Layer:        l.kind,
		State:        l.state,
		TrackID:      l.trackID,
		Playing:      l.playing,
		Volume:       l.volume,
		TargetVolume: l.targetVolume,
	}
}

// sleepFunc paces fade ramp steps. Replaced in tests to run ramps instantly.
type sleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Manager is the session-scoped audio layer manager. All playback flows
// through the Output port; all failures inside operations are logged and
// degrade to silence rather than propagating.
type Manager struct {
	output Output
	logger *slog.Logger
	sleep  sleepFunc

	mu          sync.Mutex
	initialized bool
	degraded    bool

	music    *layer
	ambience *layer

	sfxMu     sync.Mutex
	sfxVolume float64
	sfx       map[*sfxHandle]struct{}
}

type sfxHandle struct {
	trackID string
	sound   Sound
}

// Option configures a Manager.
type Option func(*Manager)

// WithStepSleep replaces the fade ramp pacing function.
func WithStepSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Manager) {
		m.sleep = fn
	}
}

// NewManager creates a Manager driving the given output.
func NewManager(output Output, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		output:    output,
		logger:    logger,
		sleep:     defaultSleep,
		music:     newLayer(LayerMusic, musicCrossfade),
		ambience:  newLayer(LayerAmbience, ambienceCrossfade),
		sfxVolume: 1.0,
		sfx:       make(map[*sfxHandle]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize prepares the audio subsystem. Idempotent: a second call is a
// no-op. On failure it returns ErrAudioSystem once and marks the manager
// degraded; subsequent playback operations become no-ops.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	if err := m.output.Start(ctx); err != nil {
		m.initialized = true
		m.degraded = true
		m.logger.Error("audio system setup failed, continuing without sound",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %v", ErrAudioSystem, err)
	}

	m.initialized = true
	return nil
}

// ready reports whether playback operations should do anything.
func (m *Manager) ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized && !m.degraded
}

// ApplySelection transitions both persistent layers toward the selection and
// fires the selection's one-shot effects. Layers already steady on their
// target track are untouched; layers mid-transition skip the request. Music
// and ambience transitions run concurrently with each other and with the
// one-shots; the call returns when both transitions settle.
func (m *Manager) ApplySelection(ctx context.Context, sel soundscape.Selection) ApplyResult {
	var res ApplyResult
	if !m.ready() {
		m.logger.Debug("apply selection ignored, engine not ready")
		return res
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.MusicChanged, res.MusicSkipped = m.transition(ctx, m.music, sel.MusicTrack)
	}()
	go func() {
		defer wg.Done()
		res.AmbienceChanged, res.AmbienceSkipped = m.transition(ctx, m.ambience, sel.AmbientTrack)
	}()

	res.SfxTriggered, res.SfxSkipped = m.playSfx(ctx, sel.SfxTracks)
	wg.Wait()
	return res
}

// transition runs the crossfade state machine for one layer. Returns whether
// the layer changed and whether the request was skipped because the layer
// was mid-transition.
func (m *Manager) transition(ctx context.Context, l *layer, trackID string) (changed, skipped bool) {
	l.mu.Lock()
	if l.trackID == trackID && l.playing && l.state == StateSteady {
		l.mu.Unlock()
		return false, false
	}
	if l.state != StateIdle && l.state != StateSteady {
		state := l.state
		l.mu.Unlock()
		m.logger.Warn("layer busy, selection skipped",
			slog.String("layer", string(l.kind)),
			slog.String("state", string(state)),
			slog.String("track_id", trackID),
		)
		return false, true
	}

	gen := l.gen
	hadSound := l.sound != nil
	if hadSound {
		l.state = StateFadingOut
	} else {
		l.state = StateLoading
	}
	l.mu.Unlock()

	// Fade-out fully silences and releases the old sound before the new
	// one loads.
	if hadSound {
		if !m.fadeOut(ctx, l, gen) {
			return false, false
		}
		l.mu.Lock()
		if l.gen != gen {
			l.mu.Unlock()
			return false, false
		}
		if l.sound != nil {
			if err := l.sound.Stop(); err != nil {
				m.logger.Warn("stop old sound failed",
					slog.String("layer", string(l.kind)),
					slog.String("error", err.Error()),
				)
			}
		}
		l.sound = nil
		l.trackID = ""
		l.playing = false
		l.state = StateLoading
		l.mu.Unlock()
	}

	sound, err := m.output.LoadLoop(ctx, trackID, 0)
	if err != nil {
		// Try the layer's neutral fallback before giving up on sound
		// entirely; silence is the last resort.
		fallback := fallbackTrack(l.kind)
		if trackID != fallback {
			m.logger.Warn("track load failed, falling back to neutral",
				slog.String("layer", string(l.kind)),
				slog.String("track_id", trackID),
				slog.String("fallback", fallback),
				slog.String("error", err.Error()),
			)
			trackID = fallback
			sound, err = m.output.LoadLoop(ctx, trackID, 0)
		}
	}
	if err != nil {
		m.logger.Warn("track load failed, layer silenced",
			slog.String("layer", string(l.kind)),
			slog.String("track_id", trackID),
			slog.String("error", err.Error()),
		)
		l.mu.Lock()
		if l.gen == gen {
			l.state = StateIdle
		}
		l.mu.Unlock()
		return false, false
	}

	l.mu.Lock()
	if l.gen != gen {
		// Forced stop raced the load; release the fresh sound.
		l.mu.Unlock()
		_ = sound.Stop()
		return false, false
	}
	l.sound = sound
	l.trackID = trackID
	l.playing = true
	l.volume = 0
	l.state = StateFadingIn
	l.mu.Unlock()

	if !m.fadeIn(ctx, l, gen) {
		return false, false
	}

	l.mu.Lock()
	if l.gen == gen {
		l.state = StateSteady
	}
	l.mu.Unlock()

	m.logger.Info("layer transitioned",
		slog.String("layer", string(l.kind)),
		slog.String("track_id", trackID),
	)
	return true, false
}

// fallbackTrack returns the neutral track a layer retreats to when its
// selected track cannot be loaded.
func fallbackTrack(kind LayerKind) string {
	if kind == LayerAmbience {
		return soundscape.DefaultAmbientTrack
	}
	return soundscape.DefaultMusicTrack
}

// fadeOut ramps the layer volume to 0 in fixed linear steps over half the
// crossfade duration. Returns false if the ramp was aborted.
func (m *Manager) fadeOut(ctx context.Context, l *layer, gen uint64) bool {
	l.mu.Lock()
	start := l.volume
	l.mu.Unlock()

	stepDur := l.crossfade / 2 / fadeSteps
	for i := 1; i <= fadeSteps; i++ {
		if err := m.sleep(ctx, stepDur); err != nil {
			return m.abortRamp(l, gen, err)
		}
		v := start * float64(fadeSteps-i) / fadeSteps
		if !m.setRampVolume(l, gen, v) {
			return false
		}
	}
	return true
}

// fadeIn ramps the layer volume from 0 to its target in fixed linear steps
// over half the crossfade duration. Returns false if the ramp was aborted.
func (m *Manager) fadeIn(ctx context.Context, l *layer, gen uint64) bool {
	stepDur := l.crossfade / 2 / fadeSteps
	for i := 1; i <= fadeSteps; i++ {
		if err := m.sleep(ctx, stepDur); err != nil {
			return m.abortRamp(l, gen, err)
		}
		l.mu.Lock()
		target := l.targetVolume
		l.mu.Unlock()
		v := target * float64(i) / fadeSteps
		if !m.setRampVolume(l, gen, v) {
			return false
		}
	}
	return true
}

func (m *Manager) abortRamp(l *layer, gen uint64, err error) bool {
	m.logger.Warn("fade ramp aborted",
		slog.String("layer", string(l.kind)),
		slog.String("error", err.Error()),
	)
	l.mu.Lock()
	if l.gen == gen {
		l.state = StateIdle
		if l.sound != nil {
			_ = l.sound.Stop()
			l.sound = nil
		}
		l.trackID = ""
		l.playing = false
	}
	l.mu.Unlock()
	return false
}

// setRampVolume applies one ramp step. Returns false if a forced stop
// invalidated the ramp.
func (m *Manager) setRampVolume(l *layer, gen uint64, v float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		return false
	}
	l.volume = v
	if l.sound != nil {
		if err := l.sound.SetVolume(v); err != nil {
			m.logger.Warn("set volume failed",
				slog.String("layer", string(l.kind)),
				slog.String("error", err.Error()),
			)
		}
	}
	return true
}

// playSfx fires one-shots for the given ids in order without waiting for
// completion. An unresolvable id is skipped; it never aborts the rest.
func (m *Manager) playSfx(ctx context.Context, ids []string) (triggered, skipped int) {
	m.sfxMu.Lock()
	volume := m.sfxVolume
	m.sfxMu.Unlock()

	for _, id := range ids {
		h := &sfxHandle{trackID: id}

		m.sfxMu.Lock()
		m.sfx[h] = struct{}{}
		m.sfxMu.Unlock()

		sound, err := m.output.PlayOnce(ctx, id, volume, func() {
			m.removeSfx(h)
		})
		if err != nil {
			m.removeSfx(h)
			m.logger.Warn("sfx skipped",
				slog.String("track_id", id),
				slog.String("error", err.Error()),
			)
			skipped++
			continue
		}

		m.sfxMu.Lock()
		if _, live := m.sfx[h]; live {
			h.sound = sound
		}
		m.sfxMu.Unlock()
		triggered++
	}
	return triggered, skipped
}

func (m *Manager) removeSfx(h *sfxHandle) {
	m.sfxMu.Lock()
	delete(m.sfx, h)
	m.sfxMu.Unlock()
}

// SetMusicVolume sets the music layer's target volume and applies it to the
// live sound immediately. Direct user adjustment, not a fade.
func (m *Manager) SetMusicVolume(v float64) {
	m.setLayerVolume(m.music, v)
}

// SetAmbienceVolume sets the ambience layer's target volume and applies it
// to the live sound immediately.
func (m *Manager) SetAmbienceVolume(v float64) {
	m.setLayerVolume(m.ambience, v)
}

// SetSfxVolume sets the volume for effects triggered after this call.
// In-flight one-shots keep their original volume.
func (m *Manager) SetSfxVolume(v float64) {
	m.sfxMu.Lock()
	m.sfxVolume = clamp(v)
	m.sfxMu.Unlock()
}

func (m *Manager) setLayerVolume(l *layer, v float64) {
	v = clamp(v)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.targetVolume = v
	if l.sound != nil && l.playing {
		l.volume = v
		if err := l.sound.SetVolume(v); err != nil {
			m.logger.Warn("set volume failed",
				slog.String("layer", string(l.kind)),
				slog.String("error", err.Error()),
			)
		}
	}
}

// StopAll fades out and releases both persistent layers, stops every
// outstanding one-shot, and resets the layers to their empty initial state.
// Layers caught mid-transition are force-stopped, best effort.
func (m *Manager) StopAll(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.stopLayer(ctx, m.music)
	}()
	go func() {
		defer wg.Done()
		m.stopLayer(ctx, m.ambience)
	}()
	wg.Wait()

	m.sfxMu.Lock()
	handles := make([]*sfxHandle, 0, len(m.sfx))
	for h := range m.sfx {
		handles = append(handles, h)
	}
	m.sfx = make(map[*sfxHandle]struct{})
	m.sfxMu.Unlock()

	for _, h := range handles {
		if h.sound != nil {
			_ = h.sound.Stop()
		}
	}
}

func (m *Manager) stopLayer(ctx context.Context, l *layer) {
	l.mu.Lock()
	steady := l.state == StateSteady && l.sound != nil
	// Invalidate any in-flight ramp before touching the layer.
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	if steady {
		m.fadeOut(ctx, l, gen)
	}

	l.mu.Lock()
	if l.sound != nil {
		_ = l.sound.Stop()
		l.sound = nil
	}
	l.trackID = ""
	l.playing = false
	l.volume = 0
	l.state = StateIdle
	l.mu.Unlock()
}

// Cleanup stops everything and marks the manager uninitialized. Safe to call
// even if Initialize never ran or failed.
func (m *Manager) Cleanup(ctx context.Context) {
	m.StopAll(ctx)
	m.mu.Lock()
	m.initialized = false
	m.degraded = false
	m.mu.Unlock()
}

// Layers returns snapshots of both persistent layers, music first.
func (m *Manager) Layers() []LayerSnapshot {
	return []LayerSnapshot{m.music.snapshot(), m.ambience.snapshot()}
}

// ActiveSfxCount returns the number of outstanding one-shot handles.
func (m *Manager) ActiveSfxCount() int {
	m.sfxMu.Lock()
	defer m.sfxMu.Unlock()
	return len(m.sfx)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
