package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adweery/soundstory-app-nnkocz/internal/classifier"
	"github.com/Adweery/soundstory-app-nnkocz/internal/engine"
	"github.com/Adweery/soundstory-app-nnkocz/internal/narrative"
	"github.com/Adweery/soundstory-app-nnkocz/internal/smoothing"
	"github.com/Adweery/soundstory-app-nnkocz/internal/soundscape"
	"github.com/Adweery/soundstory-app-nnkocz/internal/storage"
)

// ErrSessionEnded is returned when narration is submitted to an ended session.
var ErrSessionEnded = errors.New("session has ended")

// EngineFactory creates a fresh audio engine for one session. Engines are
// session-scoped; two sessions never share playback state.
type EngineFactory func() *engine.Manager

// AnalysisResult is the outcome of one accepted narration cycle.
type AnalysisResult struct {
	// Tuple is the stabilized (post-smoothing) attribute tuple.
	Tuple narrative.Tuple
	// Selection is the soundscape derived from the tuple.
	Selection soundscape.Selection
	// Apply reports what the audio engine did with the selection.
	Apply engine.ApplyResult
	// Layers is the resulting mix state.
	Layers []engine.LayerSnapshot
}

// runtime holds the live per-session state that does not belong in the
// repository: the audio engine and the mutex serializing narration cycles.
type runtime struct {
	// mu enforces the single consuming timeline: one classify → smooth →
	// select → play cycle at a time per session.
	mu      sync.Mutex
	manager *engine.Manager
}

// Service orchestrates narration sessions: lifecycle, the per-chunk
// analysis cycle, and volume control, wiring the classifier, smoother,
// selector, audio engine, and analysis log together.
type Service struct {
	repo       Repository
	store      storage.LogStore
	classifier classifier.Classifier
	newEngine  EngineFactory
	logger     *slog.Logger

	mu       sync.Mutex
	runtimes map[string]*runtime
}

// NewService creates a session Service.
func NewService(repo Repository, store storage.LogStore, cls classifier.Classifier, newEngine EngineFactory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		store:      store,
		classifier: cls,
		newEngine:  newEngine,
		logger:     logger,
		runtimes:   make(map[string]*runtime),
	}
}

// StartOutput is the result of starting a session.
type StartOutput struct {
	Session *Session
	// AudioReady is false when the audio subsystem failed to initialize;
	// the session still runs, playback operations are no-ops.
	AudioReady bool
}

// Start creates a new session with its own audio engine.
func (s *Service) Start(ctx context.Context, title string) (StartOutput, error) {
	sess := New(title)

	s.logger.Info("starting session",
		slog.String("session_id", sess.ID),
		slog.String("title", title),
	)

	if err := s.repo.Save(ctx, sess); err != nil {
		return StartOutput{}, fmt.Errorf("save session: %w", err)
	}

	mgr := s.newEngine()
	audioReady := true
	if err := mgr.Initialize(ctx); err != nil {
		// Degraded but continuable: the session runs silent.
		audioReady = false
		s.logger.Warn("session audio unavailable",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	s.mu.Lock()
	s.runtimes[sess.ID] = &runtime{manager: mgr}
	s.mu.Unlock()

	return StartOutput{Session: sess, AudioReady: audioReady}, nil
}

// Get retrieves a session by ID.
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	return s.repo.FindByID(ctx, sessionID)
}

// List returns all sessions.
func (s *Service) List(ctx context.Context) ([]*Session, error) {
	return s.repo.List(ctx)
}

// Narrate runs one analysis cycle for a transcript chunk: classify against
// the session's recent history, smooth, select, apply to the audio engine,
// and append to the analysis log. Cycles are serialized per session.
//
// A classifier failure returns classifier.ErrUnavailable (wrapped): the
// cycle is skipped, the soundscape and window are untouched.
func (s *Service) Narrate(ctx context.Context, sessionID, transcript string) (*AnalysisResult, error) {
	rt, err := s.activeRuntime(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	sess, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsActive() {
		return nil, ErrSessionEnded
	}

	recent := sess.RecentWindow()

	tentative, err := s.classifier.Classify(ctx, transcript, recent)
	if err != nil {
		s.logger.Warn("classification failed, cycle skipped",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("classify narration: %w", err)
	}

	stabilized := smoothing.Smooth(tentative, recent)
	selection := soundscape.Select(stabilized)

	apply := rt.manager.ApplySelection(ctx, selection)

	entry := storage.Entry{
		Timestamp:  time.Now().UTC(),
		Transcript: transcript,
		Tuple:      stabilized,
		Selection:  selection,
	}
	if err := s.store.Append(ctx, sessionID, entry); err != nil {
		// The soundscape already changed; losing one log line is not
		// worth failing the cycle.
		s.logger.Error("append analysis log failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	sess.Accept(stabilized)
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info("narration cycle accepted",
		slog.String("session_id", sessionID),
		slog.String("mood", string(stabilized.Mood)),
		slog.String("setting", string(stabilized.Setting)),
		slog.Float64("intensity", stabilized.Intensity),
		slog.String("event", string(stabilized.Event)),
		slog.String("music", selection.MusicTrack),
		slog.String("ambience", selection.AmbientTrack),
	)

	return &AnalysisResult{
		Tuple:     stabilized,
		Selection: selection,
		Apply:     apply,
		Layers:    rt.manager.Layers(),
	}, nil
}

// End stops the session's audio engine, marks the session ended, and
// archives its analysis log when an object store is configured.
func (s *Service) End(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.End(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	rt := s.runtimes[sessionID]
	delete(s.runtimes, sessionID)
	s.mu.Unlock()

	if rt != nil {
		rt.mu.Lock()
		rt.manager.Cleanup(ctx)
		rt.mu.Unlock()
	}

	url, err := s.store.Archive(ctx, sessionID)
	switch {
	case errors.Is(err, storage.ErrS3NotConfigured):
		// Local-only deployment; the JSONL log stays on disk.
	case err != nil:
		s.logger.Error("archive session log failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	default:
		sess.SetArchiveURL(url)
	}

	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info("session ended",
		slog.String("session_id", sessionID),
		slog.String("archive_url", sess.ArchiveURL),
	)
	return sess, nil
}

// Log returns a session's analysis history, oldest first.
func (s *Service) Log(ctx context.Context, sessionID string) ([]storage.Entry, error) {
	if _, err := s.repo.FindByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.Entries(ctx, sessionID)
}

// Volumes applies the provided per-layer volume levels. Nil values leave a
// layer untouched. The sfx level affects only effects triggered afterwards.
func (s *Service) Volumes(ctx context.Context, sessionID string, music, ambience, sfx *float64) error {
	rt, err := s.activeRuntime(ctx, sessionID)
	if err != nil {
		return err
	}
	if music != nil {
		rt.manager.SetMusicVolume(*music)
	}
	if ambience != nil {
		rt.manager.SetAmbienceVolume(*ambience)
	}
	if sfx != nil {
		rt.manager.SetSfxVolume(*sfx)
	}
	return nil
}

// Mix returns the session's current layer state.
func (s *Service) Mix(ctx context.Context, sessionID string) ([]engine.LayerSnapshot, error) {
	rt, err := s.activeRuntime(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return rt.manager.Layers(), nil
}

// activeRuntime returns the live runtime for a session. A session that
// exists in the repository but has no runtime has ended.
func (s *Service) activeRuntime(ctx context.Context, sessionID string) (*runtime, error) {
	s.mu.Lock()
	rt, ok := s.runtimes[sessionID]
	s.mu.Unlock()
	if ok {
		return rt, nil
	}
	if _, err := s.repo.FindByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return nil, ErrSessionEnded
}
