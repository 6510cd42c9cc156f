// Package storage provides the append-only analysis log for narration
// sessions. It defines the LogStore port plus implementations for local disk
// (JSONL per session) and S3-backed archival of finished session logs.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Adweery/soundstory-app-nnkocz/internal/narrative"
	"github.com/Adweery/soundstory-app-nnkocz/internal/soundscape"
)

// ErrS3NotConfigured is returned when archive operations are attempted
// without S3 configuration.
var ErrS3NotConfigured = errors.New("storage: S3 is not configured")

// Entry is one accepted analysis: the raw transcript, the stabilized tuple,
// and the selection derived from it. Entries are append-only.
type Entry struct {
	// Timestamp is when the tuple was accepted.
	Timestamp time.Time `json:"timestamp"`
	// Transcript is the raw narration chunk.
	Transcript string `json:"transcript"`
	// Tuple is the post-smoothing attribute tuple.
	Tuple narrative.Tuple `json:"tuple"`
	// Selection is the soundscape derived from the tuple.
	Selection soundscape.Selection `json:"selection"`
}

// LogStore defines the interface for the per-session analysis log.
type LogStore interface {
	// Append adds an entry to a session's log.
	Append(ctx context.Context, sessionID string, e Entry) error

	// Entries returns a session's full log, oldest first. A session with
	// no entries yields an empty slice, not an error.
	Entries(ctx context.Context, sessionID string) ([]Entry, error)

	// Tail returns the most recent n entries, oldest first.
	Tail(ctx context.Context, sessionID string, n int) ([]Entry, error)

	// Archive uploads a finished session's log for long-term storage and
	// returns its URL. Returns ErrS3NotConfigured when no object store is
	// available.
	Archive(ctx context.Context, sessionID string) (url string, err error)
}
