// Package catalog provides the set of playable track ids. The audio engine
// resolves every selected id against the catalog before playback so that a
// track missing from the installed audio bundle degrades to a logged skip
// instead of a broken layer.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Adweery/soundstory-app-nnkocz/internal/soundscape"
)

// ErrTrackNotFound is returned when a track id is not in the catalog.
var ErrTrackNotFound = errors.New("catalog: track not found")

// Track describes one playable audio asset.
type Track struct {
	// ID is the selector-facing track identifier.
	ID string `json:"id"`
	// URI is the asset location hint for clients (optional).
	URI string `json:"uri,omitempty"`
}

// Catalog is an immutable set of playable tracks.
type Catalog struct {
	tracks map[string]Track
}

// NewBuiltin returns a catalog covering every id the soundscape selector can
// emit. Used when no catalog file is configured.
func NewBuiltin() *Catalog {
	ids := soundscape.AllTrackIDs()
	tracks := make(map[string]Track, len(ids))
	for _, id := range ids {
		tracks[id] = Track{ID: id}
	}
	return &Catalog{tracks: tracks}
}

// Parse reads a catalog from its JSON representation: an array of Track
// objects. Entries without an id are rejected.
func Parse(r io.Reader) (*Catalog, error) {
	var entries []Track
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	tracks := make(map[string]Track, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog entry %d: missing id", i)
		}
		tracks[e.ID] = e
	}
	return &Catalog{tracks: tracks}, nil
}

// Resolve returns the track for an id, or ErrTrackNotFound.
func (c *Catalog) Resolve(id string) (Track, error) {
	t, ok := c.tracks[id]
	if !ok {
		return Track{}, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	return t, nil
}

// Has reports whether an id is playable.
func (c *Catalog) Has(id string) bool {
	_, ok := c.tracks[id]
	return ok
}

// Len returns the number of tracks in the catalog.
func (c *Catalog) Len() int {
	return len(c.tracks)
}
