// Package session provides the Session aggregate for live narration
// sessions and the service orchestrating the classify → smooth → select →
// play → persist cycle. It includes repository interfaces for persistence.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/Adweery/soundstory-app-nnkocz/internal/narrative"
	"github.com/Adweery/soundstory-app-nnkocz/internal/session/id"
	"github.com/Adweery/soundstory-app-nnkocz/internal/smoothing"
)

// Status represents the current state of a Session.
type Status string

const (
	// StatusActive indicates the session is accepting narration.
	StatusActive Status = "ACTIVE"
	// StatusEnded indicates the session has been ended by the user.
	StatusEnded Status = "ENDED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusActive: {StatusEnded},
	StatusEnded:  {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Session represents one live narration session. It owns the smoothing
// window: the accepted (post-smoothing) tuples, oldest first. The window
// grows without a hard cap; smoothing reads only the most recent entries.
type Session struct {
	mu sync.RWMutex

	// ID is the unique identifier for this session.
	ID string
	// Title is an optional display name supplied by the client.
	Title string
	// Status is the current session state.
	Status Status
	// Window is the accepted tuple history, oldest first.
	Window []narrative.Tuple
	// ArchiveURL is the archived log location if the session log was
	// uploaded at session end.
	ArchiveURL string
	// CreatedAt is when the session was created.
	CreatedAt time.Time
	// UpdatedAt is when the session was last updated.
	UpdatedAt time.Time
	// EndedAt is when the session ended.
	EndedAt time.Time
}

// New creates a new active Session with a generated ID.
func New(title string) *Session {
	now := time.Now()
	return &Session{
		ID:        id.Generate(),
		Title:     title,
		Status:    StatusActive,
		Window:    make([]narrative.Tuple, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewWithID creates a new active Session with the specified ID.
// Useful for testing or when the ID is externally generated.
func NewWithID(sessionID string) *Session {
	now := time.Now()
	return &Session{
		ID:        sessionID,
		Status:    StatusActive,
		Window:    make([]narrative.Tuple, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the session status.
// Returns ErrInvalidTransition if the transition is not allowed.
func (s *Session) TransitionTo(status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !canTransition(s.Status, status) {
		return ErrInvalidTransition
	}

	s.Status = status
	s.UpdatedAt = time.Now()
	if status == StatusEnded {
		s.EndedAt = s.UpdatedAt
	}
	return nil
}

// End transitions the session from ACTIVE to ENDED.
func (s *Session) End() error {
	return s.TransitionTo(StatusEnded)
}

// IsActive returns true if the session accepts narration (thread-safe).
func (s *Session) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status == StatusActive
}

// GetStatus returns the current session status (thread-safe).
func (s *Session) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Accept appends a stabilized tuple to the smoothing window.
func (s *Session) Accept(t narrative.Tuple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Window = append(s.Window, t)
	s.UpdatedAt = time.Now()
}

// Recent returns the most recent n accepted tuples, oldest first.
func (s *Session) Recent(n int) []narrative.Tuple {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := s.Window
	if n > 0 && len(window) > n {
		window = window[len(window)-n:]
	}
	out := make([]narrative.Tuple, len(window))
	copy(out, window)
	return out
}

// RecentWindow returns the tuples consulted by the next smoothing pass.
func (s *Session) RecentWindow() []narrative.Tuple {
	return s.Recent(smoothing.WindowSize)
}

// SetArchiveURL records the archived log location.
func (s *Session) SetArchiveURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ArchiveURL = url
	s.UpdatedAt = time.Now()
}

// Clone creates a deep copy of the session for safe reads.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := make([]narrative.Tuple, len(s.Window))
	copy(window, s.Window)

	return &Session{
		ID:         s.ID,
		Title:      s.Title,
		Status:     s.Status,
		Window:     window,
		ArchiveURL: s.ArchiveURL,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		EndedAt:    s.EndedAt,
	}
}
