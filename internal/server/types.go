// Package server provides the HTTP API for the SoundStory backend.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import (
	"time"

	"github.com/Adweery/soundstory-app-nnkocz/internal/engine"
	"github.com/Adweery/soundstory-app-nnkocz/internal/narrative"
	"github.com/Adweery/soundstory-app-nnkocz/internal/session"
	"github.com/Adweery/soundstory-app-nnkocz/internal/soundscape"
	"github.com/Adweery/soundstory-app-nnkocz/internal/storage"
)

// CreateSessionRequest is the HTTP request body for starting a session.
type CreateSessionRequest struct {
	// Title is an optional display name for the session.
	Title string `json:"title" validate:"omitempty,max=120"`
}

// SessionResponse is the HTTP representation of a session.
type SessionResponse struct {
	ID         string     `json:"id"`
	Title      string     `json:"title,omitempty"`
	Status     string     `json:"status"`
	WindowSize int        `json:"window_size"`
	ArchiveURL string     `json:"archive_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// CreateSessionResponse is returned when a session is started.
type CreateSessionResponse struct {
	SessionResponse
	// AudioReady is false when the audio subsystem failed to initialize
	// and the session runs silent.
	AudioReady bool `json:"audio_ready"`
}

// NarrationRequest is the HTTP request body for submitting a transcript chunk.
type NarrationRequest struct {
	// Transcript is the narration text for this chunk.
	Transcript string `json:"transcript" validate:"required,min=1,max=4000"`
}

// NarrationResponse is the outcome of one accepted narration cycle.
type NarrationResponse struct {
	Tuple     narrative.Tuple        `json:"tuple"`
	Selection soundscape.Selection   `json:"selection"`
	Apply     engine.ApplyResult     `json:"apply"`
	Layers    []engine.LayerSnapshot `json:"layers"`
}

// VolumesRequest is the HTTP request body for setting layer volumes.
// Omitted fields leave the layer untouched.
type VolumesRequest struct {
	Music    *float64 `json:"music" validate:"omitempty,gte=0,lte=1"`
	Ambience *float64 `json:"ambience" validate:"omitempty,gte=0,lte=1"`
	Sfx      *float64 `json:"sfx" validate:"omitempty,gte=0,lte=1"`
}

// MixResponse is the current layer state of a session.
type MixResponse struct {
	Layers []engine.LayerSnapshot `json:"layers"`
}

// LogResponse is a session's analysis history.
type LogResponse struct {
	Entries []storage.Entry `json:"entries"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// toSessionResponse converts a domain session to its HTTP representation.
func toSessionResponse(s *session.Session) SessionResponse {
	resp := SessionResponse{
		ID:         s.ID,
		Title:      s.Title,
		Status:     string(s.Status),
		WindowSize: len(s.Window),
		ArchiveURL: s.ArchiveURL,
		CreatedAt:  s.CreatedAt,
	}
	if !s.EndedAt.IsZero() {
		ended := s.EndedAt
		resp.EndedAt = &ended
	}
	return resp
}
