package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Compile-time check that LocalStore implements LogStore.
var _ LogStore = (*LocalStore)(nil)

// LocalStore implements LogStore on local disk. Each session's log is a
// JSONL file under the data directory, one entry per line, append-only.
type LocalStore struct {
	dataDir string

	// mu serializes appends per process; JSONL lines must not interleave.
	mu sync.Mutex
}

// NewLocalStore creates a LocalStore rooted at dataDir. If dataDir is empty,
// a directory under os.TempDir() is used. The directory is created if it
// does not exist.
func NewLocalStore(dataDir string) (*LocalStore, error) {
	if dataDir == "" {
		dataDir = filepath.Join(os.TempDir(), "soundstory")
	}

	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	return &LocalStore{dataDir: dataDir}, nil
}

// DataDir returns the data directory path.
func (s *LocalStore) DataDir() string {
	return s.dataDir
}

func (s *LocalStore) logPath(sessionID string) string {
	// Session ids are generated internally, but keep path traversal out
	// regardless.
	safe := strings.ReplaceAll(sessionID, string(os.PathSeparator), "_")
	return filepath.Join(s.dataDir, safe+".jsonl")
}

// Append adds an entry to a session's JSONL log.
func (s *LocalStore) Append(ctx context.Context, sessionID string, e Entry) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.logPath(sessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write session log: %w", err)
	}
	return nil
}

// Entries returns a session's full log, oldest first.
func (s *LocalStore) Entries(ctx context.Context, sessionID string) ([]Entry, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.Open(s.logPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("open session log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("decode session log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read session log: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Tail returns the most recent n entries, oldest first.
func (s *LocalStore) Tail(ctx context.Context, sessionID string, n int) ([]Entry, error) {
	entries, err := s.Entries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if n <= 0 || len(entries) == 0 {
		return []Entry{}, nil
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Archive is unsupported on plain local storage.
func (s *LocalStore) Archive(_ context.Context, _ string) (string, error) {
	return "", ErrS3NotConfigured
}
