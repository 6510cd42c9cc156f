package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Adweery/soundstory-app-nnkocz/internal/soundscape"
)

// fakeSound records every volume applied to it, in order.
type fakeSound struct {
	trackID string
	looping bool

	mu      sync.Mutex
	volumes []float64
	stopped bool
}

func (s *fakeSound) SetVolume(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volumes = append(s.volumes, v)
	return nil
}

func (s *fakeSound) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeSound) recordedVolumes() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.volumes))
	copy(out, s.volumes)
	return out
}

func (s *fakeSound) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// fakeOutput counts loads and lets tests fail specific track ids.
type fakeOutput struct {
	mu        sync.Mutex
	startErr  error
	failIDs   map[string]bool
	loads     []*fakeSound
	oneShots  []*fakeSound
	doneFuncs []func()
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{failIDs: make(map[string]bool)}
}

func (o *fakeOutput) Start(_ context.Context) error {
	return o.startErr
}

func (o *fakeOutput) LoadLoop(_ context.Context, trackID string, volume float64) (Sound, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failIDs[trackID] {
		return nil, errors.New("unresolvable track")
	}
	s := &fakeSound{trackID: trackID, looping: true, volumes: []float64{volume}}
	o.loads = append(o.loads, s)
	return s, nil
}

func (o *fakeOutput) PlayOnce(_ context.Context, trackID string, volume float64, done func()) (Sound, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failIDs[trackID] {
		return nil, errors.New("unresolvable track")
	}
	s := &fakeSound{trackID: trackID, volumes: []float64{volume}}
	o.oneShots = append(o.oneShots, s)
	o.doneFuncs = append(o.doneFuncs, done)
	return s, nil
}

func (o *fakeOutput) loadCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.loads)
}

func (o *fakeOutput) lastLoad() *fakeSound {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.loads) == 0 {
		return nil
	}
	return o.loads[len(o.loads)-1]
}

// instantSleep makes fade ramps run without real delays.
func instantSleep(_ context.Context, _ time.Duration) error {
	return nil
}

func newTestManager(t *testing.T, out *fakeOutput) *Manager {
	t.Helper()
	m := NewManager(out, nil, WithStepSleep(instantSleep))
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return m
}

func testSelection() soundscape.Selection {
	return soundscape.Selection{
		MusicTrack:   "music_epic_banners_high",
		AmbientTrack: "amb_castle_siege_walls",
		SfxTracks:    []string{"sfx_full_melee", "sfx_dragon_roar", "sfx_explosion_burst"},
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	out := newFakeOutput()
	m := NewManager(out, nil, WithStepSleep(instantSleep))

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
}

func TestInitialize_FailureDegradesToNoOps(t *testing.T) {
	out := newFakeOutput()
	out.startErr = errors.New("no audio device")
	m := NewManager(out, nil, WithStepSleep(instantSleep))

	err := m.Initialize(context.Background())
	if !errors.Is(err, ErrAudioSystem) {
		t.Fatalf("expected ErrAudioSystem, got %v", err)
	}

	// Playback becomes a no-op, not an error.
	res := m.ApplySelection(context.Background(), testSelection())
	if res.MusicChanged || res.AmbienceChanged || res.SfxTriggered != 0 {
		t.Errorf("expected no-op result, got %+v", res)
	}
	if out.loadCount() != 0 {
		t.Errorf("expected 0 loads, got %d", out.loadCount())
	}
}

func TestApplySelection_IdleToSteady(t *testing.T) {
	out := newFakeOutput()
	m := newTestManager(t, out)

	res := m.ApplySelection(context.Background(), testSelection())

	if !res.MusicChanged || !res.AmbienceChanged {
		t.Fatalf("expected both layers to change, got %+v", res)
	}
	if res.SfxTriggered != 3 {
		t.Errorf("expected 3 sfx, got %d", res.SfxTriggered)
	}

	for _, snap := range m.Layers() {
		if snap.State != StateSteady {
			t.Errorf("layer %s state = %s, want steady", snap.Layer, snap.State)
		}
		if !snap.Playing {
			t.Errorf("layer %s not playing", snap.Layer)
		}
		if snap.Volume != snap.TargetVolume {
			t.Errorf("layer %s volume %v != target %v", snap.Layer, snap.Volume, snap.TargetVolume)
		}
	}
	if out.loadCount() != 2 {
		t.Errorf("expected 2 loop loads, got %d", out.loadCount())
	}
}

func TestApplySelection_NoOpOnSameSelection(t *testing.T) {
	out := newFakeOutput()
	m := newTestManager(t, out)

	sel := testSelection()
	m.ApplySelection(context.Background(), sel)
	loadsAfterFirst := out.loadCount()

	res := m.ApplySelection(context.Background(), sel)
	if res.MusicChanged || res.AmbienceChanged {
		t.Errorf("expected no layer changes, got %+v", res)
	}
	if out.loadCount() != loadsAfterFirst {
		t.Errorf("expected %d loads, got %d", loadsAfterFirst, out.loadCount())
	}
}

func TestApplySelection_CrossfadeOrdering(t *testing.T) {
	out := newFakeOutput()
	m := newTestManager(t, out)

	m.ApplySelection(context.Background(), testSelection())
	old := out.lastLoad()

	next := testSelection()
	next.MusicTrack = "music_sad_empty_throne"
	next.AmbientTrack = "amb_castle_quiet_halls"
	next.SfxTracks = nil
	m.ApplySelection(context.Background(), next)

	if !old.isStopped() {
		t.Error("old sound should be stopped after crossfade")
	}

	// Old sound volumes: initial load volume, ramp up, then ramp down to 0.
	vols := old.recordedVolumes()
	if vols[len(vols)-1] != 0 {
		t.Errorf("old sound final volume = %v, want 0", vols[len(vols)-1])
	}
}

func TestCrossfade_MonotonicRamps(t *testing.T) {
	out := newFakeOutput()
	m := newTestManager(t, out)

	sel := testSelection()
	sel.SfxTracks = nil
	m.ApplySelection(context.Background(), sel)

	// Find the music layer's sound and check its fade-in ramp.
	var musicSound *fakeSound
	for _, s := range out.loads {
		if s.trackID == sel.MusicTrack {
			musicSound = s
		}
	}
	if musicSound == nil {
		t.Fatal("music sound not loaded")
	}

	vols := musicSound.recordedVolumes()
	if vols[0] != 0 {
		t.Errorf("fade-in must start at 0, got %v", vols[0])
	}
	for i := 1; i < len(vols); i++ {
		if vols[i] < vols[i-1] {
			t.Fatalf("fade-in not monotonic at step %d: %v < %v", i, vols[i], vols[i-1])
		}
	}
	if final := vols[len(vols)-1]; final != 1.0 {
		t.Errorf("fade-in final volume = %v, want 1.0", final)
	}

	// Now crossfade away and check the fade-out ramp is non-increasing.
	next := sel
	next.MusicTrack = "music_sad_empty_throne"
	m.ApplySelection(context.Background(), next)

	vols = musicSound.recordedVolumes()
	peak := 0
	for i, v := range vols {
		if v == 1.0 {
			peak = i
		}
	}
	for i := peak + 1; i < len(vols); i++ {
		if vols[i] > vols[i-1] {
			t.Fatalf("fade-out not monotonic at step %d: %v > %v", i, vols[i], vols[i-1])
		}
	}
}

func TestApplySelection_LoadFailureFallsBackToNeutral(t *testing.T) {
	out := newFakeOutput()
	out.failIDs["music_epic_banners_high"] = true
	m := newTestManager(t, out)

	res := m.ApplySelection(context.Background(), testSelection())

	if !res.MusicChanged {
		t.Error("music should have fallen back to the neutral track")
	}
	music := m.Layers()[0]
	if music.State != StateSteady {
		t.Errorf("music state = %s, want steady", music.State)
	}
	if music.TrackID != soundscape.DefaultMusicTrack {
		t.Errorf("music track = %q, want %q", music.TrackID, soundscape.DefaultMusicTrack)
	}
}

func TestApplySelection_LoadFailureLeavesLayerIdle(t *testing.T) {
	out := newFakeOutput()
	out.failIDs["music_epic_banners_high"] = true
	out.failIDs[soundscape.DefaultMusicTrack] = true
	m := newTestManager(t, out)

	res := m.ApplySelection(context.Background(), testSelection())

	if res.MusicChanged {
		t.Error("music should not have changed")
	}
	if !res.AmbienceChanged {
		t.Error("ambience should still transition")
	}

	music := m.Layers()[0]
	if music.State != StateIdle {
		t.Errorf("music state = %s, want idle", music.State)
	}
	if music.Playing || music.TrackID != "" {
		t.Errorf("music layer not reset: %+v", music)
	}
}

func TestApplySelection_SfxIsolation(t *testing.T) {
	out := newFakeOutput()
	out.failIDs["sfx_dragon_roar"] = true
	m := newTestManager(t, out)

	res := m.ApplySelection(context.Background(), testSelection())

	if res.SfxTriggered != 2 {
		t.Errorf("expected 2 sfx triggered, got %d", res.SfxTriggered)
	}
	if res.SfxSkipped != 1 {
		t.Errorf("expected 1 sfx skipped, got %d", res.SfxSkipped)
	}
}

func TestSfxHandles_SelfRemoveOnCompletion(t *testing.T) {
	out := newFakeOutput()
	m := newTestManager(t, out)

	m.ApplySelection(context.Background(), testSelection())
	if m.ActiveSfxCount() != 3 {
		t.Fatalf("expected 3 active sfx, got %d", m.ActiveSfxCount())
	}

	for _, done := range out.doneFuncs {
		done()
	}
	if m.ActiveSfxCount() != 0 {
		t.Errorf("expected 0 active sfx after completion, got %d", m.ActiveSfxCount())
	}
}

func TestSetSfxVolume_AppliesToLaterOneShotsOnly(t *testing.T) {
	out := newFakeOutput()
	m := newTestManager(t, out)

	sel := testSelection()
	m.ApplySelection(context.Background(), sel)

	m.SetSfxVolume(0.25)
	m.ApplySelection(context.Background(), soundscape.Selection{
		MusicTrack:   sel.MusicTrack,
		AmbientTrack: sel.AmbientTrack,
		SfxTracks:    []string{"sfx_full_melee"},
	})

	first := out.oneShots[0].recordedVolumes()[0]
	last := out.oneShots[len(out.oneShots)-1].recordedVolumes()[0]
	if first != 1.0 {
		t.Errorf("first one-shot volume = %v, want 1.0", first)
	}
	if last != 0.25 {
		t.Errorf("later one-shot volume = %v, want 0.25", last)
	}
}

func TestSetLayerVolume_AppliesImmediately(t *testing.T) {
	out := newFakeOutput()
	m := newTestManager(t, out)

	sel := testSelection()
	sel.SfxTracks = nil
	m.ApplySelection(context.Background(), sel)

	m.SetMusicVolume(0.3)

	music := m.Layers()[0]
	if music.Volume != 0.3 || music.TargetVolume != 0.3 {
		t.Errorf("music volume = %v target %v, want 0.3", music.Volume, music.TargetVolume)
	}

	var musicSound *fakeSound
	for _, s := range out.loads {
		if s.trackID == sel.MusicTrack {
			musicSound = s
		}
	}
	vols := musicSound.recordedVolumes()
	if vols[len(vols)-1] != 0.3 {
		t.Errorf("live sound volume = %v, want 0.3", vols[len(vols)-1])
	}
}

func TestSetLayerVolume_Clamps(t *testing.T) {
	out := newFakeOutput()
	m := newTestManager(t, out)

	m.SetMusicVolume(1.8)
	if got := m.Layers()[0].TargetVolume; got != 1.0 {
		t.Errorf("target = %v, want 1.0", got)
	}

	m.SetAmbienceVolume(-0.5)
	if got := m.Layers()[1].TargetVolume; got != 0 {
		t.Errorf("target = %v, want 0", got)
	}
}

func TestStopAll_ResetsLayersAndSfx(t *testing.T) {
	out := newFakeOutput()
	m := newTestManager(t, out)

	m.ApplySelection(context.Background(), testSelection())
	m.StopAll(context.Background())

	for _, snap := range m.Layers() {
		if snap.State != StateIdle || snap.Playing || snap.TrackID != "" {
			t.Errorf("layer %s not reset: %+v", snap.Layer, snap)
		}
	}
	if m.ActiveSfxCount() != 0 {
		t.Errorf("expected 0 active sfx, got %d", m.ActiveSfxCount())
	}
	for _, s := range out.loads {
		if !s.isStopped() {
			t.Errorf("loop %s not stopped", s.trackID)
		}
	}
}

func TestCleanup_SafeWithoutInitialize(t *testing.T) {
	out := newFakeOutput()
	m := NewManager(out, nil, WithStepSleep(instantSleep))

	// Must not panic or touch the output.
	m.Cleanup(context.Background())
	if out.loadCount() != 0 {
		t.Errorf("unexpected loads: %d", out.loadCount())
	}
}

func TestCleanup_AllowsReinitialize(t *testing.T) {
	out := newFakeOutput()
	m := newTestManager(t, out)

	m.ApplySelection(context.Background(), testSelection())
	m.Cleanup(context.Background())

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("reinitialize: %v", err)
	}
	res := m.ApplySelection(context.Background(), testSelection())
	if !res.MusicChanged {
		t.Error("expected music to transition after reinitialize")
	}
}
