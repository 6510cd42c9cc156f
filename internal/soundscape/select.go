// Package soundscape maps stabilized narrative attributes to concrete audio
// track selections via deterministic lookup tables. Selection is a pure
// function: the same tuple always yields the same tracks, with named neutral
// defaults covering any key the tables do not.
package soundscape

import "github.com/Adweery/soundstory-app-nnkocz/internal/narrative"

// Selection is the concrete audio choice derived from one stabilized tuple.
// It has no identity of its own; it is recomputed on every accepted tuple.
type Selection struct {
	// MusicTrack is the looping music bed.
	MusicTrack string `json:"music_track"`
	// AmbientTrack is the looping ambience bed.
	AmbientTrack string `json:"ambient_track"`
	// SfxTracks are one-shot effects triggered together, in order.
	SfxTracks []string `json:"sfx_tracks"`
}

// Select derives the track selection for a stabilized tuple. Total and
// side-effect-free: every input yields non-empty music, ambience, and sfx.
func Select(t narrative.Tuple) Selection {
	bucket := t.Bucket()
	return Selection{
		MusicTrack:   musicFor(t.Mood, t.Setting),
		AmbientTrack: ambienceFor(t.Setting, bucket),
		SfxTracks:    sfxFor(t.Event, bucket),
	}
}

// musicFor looks up the music bed for a mood/setting pair, falling back to
// the neutral default for keys outside the closed enums.
func musicFor(mood narrative.Mood, setting narrative.Setting) string {
	bySetting, ok := musicTable[mood]
	if !ok {
		return DefaultMusicTrack
	}
	track, ok := bySetting[setting]
	if !ok {
		return DefaultMusicTrack
	}
	return track
}

func ambienceFor(setting narrative.Setting, bucket narrative.IntensityBucket) string {
	byBucket, ok := ambienceTable[setting]
	if !ok {
		return DefaultAmbientTrack
	}
	track, ok := byBucket[bucket]
	if !ok {
		return DefaultAmbientTrack
	}
	return track
}

func sfxFor(event narrative.Event, bucket narrative.IntensityBucket) []string {
	byBucket, ok := sfxTable[event]
	if !ok {
		return []string{DefaultSfxTrack}
	}
	tracks, ok := byBucket[bucket]
	if !ok || len(tracks) == 0 {
		return []string{DefaultSfxTrack}
	}
	out := make([]string, len(tracks))
	copy(out, tracks)
	return out
}

// AllTrackIDs returns every track id the selector can emit, including the
// neutral defaults. Used to seed the playable catalog.
func AllTrackIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	add(DefaultMusicTrack)
	add(DefaultAmbientTrack)
	add(DefaultSfxTrack)
	for _, mood := range narrative.Moods {
		for _, setting := range narrative.Settings {
			add(musicFor(mood, setting))
		}
	}
	buckets := []narrative.IntensityBucket{narrative.BucketLow, narrative.BucketMid, narrative.BucketHigh}
	for _, setting := range narrative.Settings {
		for _, b := range buckets {
			add(ambienceFor(setting, b))
		}
	}
	for _, event := range narrative.Events {
		for _, b := range buckets {
			for _, id := range sfxFor(event, b) {
				add(id)
			}
		}
	}
	return ids
}
