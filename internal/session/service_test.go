package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Adweery/soundstory-app-nnkocz/internal/catalog"
	"github.com/Adweery/soundstory-app-nnkocz/internal/classifier"
	"github.com/Adweery/soundstory-app-nnkocz/internal/engine"
	"github.com/Adweery/soundstory-app-nnkocz/internal/narrative"
	"github.com/Adweery/soundstory-app-nnkocz/internal/storage"
)

// stubClassifier returns a scripted sequence of tuples, or an error.
type stubClassifier struct {
	tuples []narrative.Tuple
	err    error
	calls  int
}

func (c *stubClassifier) Classify(_ context.Context, transcript string, _ []narrative.Tuple) (narrative.Tuple, error) {
	if transcript == "" {
		return narrative.Tuple{}, classifier.ErrTranscriptRequired
	}
	if c.err != nil {
		return narrative.Tuple{}, c.err
	}
	if c.calls >= len(c.tuples) {
		return narrative.Tuple{}, fmt.Errorf("%w: no scripted tuple", classifier.ErrUnavailable)
	}
	t := c.tuples[c.calls]
	c.calls++
	return t, nil
}

func instantSleep(_ context.Context, _ time.Duration) error {
	return nil
}

func newTestService(t *testing.T, cls classifier.Classifier) *Service {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	factory := func() *engine.Manager {
		out := engine.NewMixOutput(catalog.NewBuiltin())
		return engine.NewManager(out, nil, engine.WithStepSleep(instantSleep))
	}

	return NewService(NewMemoryRepository(), store, cls, factory, nil)
}

func TestService_FirstNarrationCycle(t *testing.T) {
	// First transcript of a fresh session: empty history, identity smoothing.
	cls := &stubClassifier{tuples: []narrative.Tuple{{
		Mood:      narrative.MoodEpic,
		Setting:   narrative.SettingCastle,
		Intensity: 0.9,
		Event:     narrative.EventBattle,
	}}}
	svc := newTestService(t, cls)
	ctx := context.Background()

	out, err := svc.Start(ctx, "dragon story")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !out.AudioReady {
		t.Fatal("expected audio ready")
	}

	res, err := svc.Narrate(ctx, out.Session.ID, "The dragon roars!")
	if err != nil {
		t.Fatalf("narrate: %v", err)
	}

	// Empty history: smoothing is the identity.
	if res.Tuple.Mood != narrative.MoodEpic || res.Tuple.Intensity != 0.9 {
		t.Errorf("stabilized tuple = %+v", res.Tuple)
	}
	if res.Selection.MusicTrack != "music_epic_banners_high" {
		t.Errorf("music = %s", res.Selection.MusicTrack)
	}
	if res.Selection.AmbientTrack != "amb_castle_siege_walls" {
		t.Errorf("ambience = %s", res.Selection.AmbientTrack)
	}
	if res.Apply.SfxTriggered != 3 {
		t.Errorf("sfx triggered = %d, want 3", res.Apply.SfxTriggered)
	}
	for _, l := range res.Layers {
		if l.State != engine.StateSteady {
			t.Errorf("layer %s state = %s, want steady", l.Layer, l.State)
		}
	}

	// The stabilized tuple was accepted into the window and logged.
	sess, err := svc.Get(ctx, out.Session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(sess.Window) != 1 {
		t.Fatalf("window length = %d, want 1", len(sess.Window))
	}

	log, err := svc.Log(ctx, out.Session.ID)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(log) != 1 || log[0].Transcript != "The dragon roars!" {
		t.Errorf("log = %+v", log)
	}
}

func TestService_SmoothingUsesWindow(t *testing.T) {
	calm := narrative.Tuple{Mood: narrative.MoodCalm, Setting: narrative.SettingForest, Intensity: 0.2, Event: narrative.EventExploration}
	scary := narrative.Tuple{Mood: narrative.MoodScary, Setting: narrative.SettingCave, Intensity: 0.8, Event: narrative.EventDanger}

	cls := &stubClassifier{tuples: []narrative.Tuple{calm, calm, scary}}
	svc := newTestService(t, cls)
	ctx := context.Background()

	out, _ := svc.Start(ctx, "")
	_, _ = svc.Narrate(ctx, out.Session.ID, "a quiet walk")
	_, _ = svc.Narrate(ctx, out.Session.ID, "still peaceful")

	// One scary outlier against two accepted calm tuples: the mode keeps
	// the soundscape calm.
	res, err := svc.Narrate(ctx, out.Session.ID, "something moves")
	if err != nil {
		t.Fatalf("narrate: %v", err)
	}
	if res.Tuple.Mood != narrative.MoodCalm {
		t.Errorf("mood = %s, want calm (outlier smoothed away)", res.Tuple.Mood)
	}
	if res.Tuple.Setting != narrative.SettingForest {
		t.Errorf("setting = %s, want forest", res.Tuple.Setting)
	}
}

func TestService_ClassifierFailureSkipsCycle(t *testing.T) {
	cls := &stubClassifier{err: fmt.Errorf("%w: model offline", classifier.ErrUnavailable)}
	svc := newTestService(t, cls)
	ctx := context.Background()

	out, _ := svc.Start(ctx, "")

	_, err := svc.Narrate(ctx, out.Session.ID, "anything")
	if !errors.Is(err, classifier.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	// Nothing accepted, nothing logged, mix untouched.
	sess, _ := svc.Get(ctx, out.Session.ID)
	if len(sess.Window) != 0 {
		t.Errorf("window length = %d, want 0", len(sess.Window))
	}
	log, _ := svc.Log(ctx, out.Session.ID)
	if len(log) != 0 {
		t.Errorf("log length = %d, want 0", len(log))
	}
	layers, _ := svc.Mix(ctx, out.Session.ID)
	for _, l := range layers {
		if l.State != engine.StateIdle {
			t.Errorf("layer %s state = %s, want idle", l.Layer, l.State)
		}
	}
}

func TestService_End(t *testing.T) {
	cls := &stubClassifier{tuples: []narrative.Tuple{{
		Mood: narrative.MoodCozy, Setting: narrative.SettingVillage, Intensity: 0.3, Event: narrative.EventResolution,
	}}}
	svc := newTestService(t, cls)
	ctx := context.Background()

	out, _ := svc.Start(ctx, "")
	_, _ = svc.Narrate(ctx, out.Session.ID, "they lived happily")

	sess, err := svc.End(ctx, out.Session.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if sess.Status != StatusEnded {
		t.Errorf("status = %s, want ended", sess.Status)
	}

	// Narration after end is rejected.
	if _, err := svc.Narrate(ctx, out.Session.ID, "more"); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("expected ErrSessionEnded, got %v", err)
	}

	// The log remains readable after the session ends.
	log, err := svc.Log(ctx, out.Session.ID)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(log) != 1 {
		t.Errorf("log length = %d, want 1", len(log))
	}
}

func TestService_Volumes(t *testing.T) {
	cls := &stubClassifier{tuples: []narrative.Tuple{{
		Mood: narrative.MoodCalm, Setting: narrative.SettingForest, Intensity: 0.2, Event: narrative.EventExploration,
	}}}
	svc := newTestService(t, cls)
	ctx := context.Background()

	out, _ := svc.Start(ctx, "")
	_, _ = svc.Narrate(ctx, out.Session.ID, "walking")

	music := 0.4
	if err := svc.Volumes(ctx, out.Session.ID, &music, nil, nil); err != nil {
		t.Fatalf("volumes: %v", err)
	}

	layers, _ := svc.Mix(ctx, out.Session.ID)
	if layers[0].Volume != 0.4 {
		t.Errorf("music volume = %v, want 0.4", layers[0].Volume)
	}
	if layers[1].Volume == 0.4 {
		t.Error("ambience volume should be untouched")
	}
}

func TestService_UnknownSession(t *testing.T) {
	svc := newTestService(t, &stubClassifier{})

	_, err := svc.Narrate(context.Background(), "nope", "text")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestService_SessionsAreIsolated(t *testing.T) {
	epic := narrative.Tuple{Mood: narrative.MoodEpic, Setting: narrative.SettingCastle, Intensity: 0.9, Event: narrative.EventBattle}
	cozy := narrative.Tuple{Mood: narrative.MoodCozy, Setting: narrative.SettingVillage, Intensity: 0.2, Event: narrative.EventResolution}

	cls := &stubClassifier{tuples: []narrative.Tuple{epic, cozy}}
	svc := newTestService(t, cls)
	ctx := context.Background()

	a, _ := svc.Start(ctx, "a")
	b, _ := svc.Start(ctx, "b")

	_, _ = svc.Narrate(ctx, a.Session.ID, "battle!")
	_, _ = svc.Narrate(ctx, b.Session.ID, "tea time")

	aLayers, _ := svc.Mix(ctx, a.Session.ID)
	bLayers, _ := svc.Mix(ctx, b.Session.ID)
	if aLayers[0].TrackID == bLayers[0].TrackID {
		t.Error("sessions share a music track; engines not isolated")
	}
}
