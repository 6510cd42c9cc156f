// Package narrative provides the shared domain types for narration analysis:
// the closed mood/setting/event enumerations, the attribute tuple produced by
// classification, and the 3-way intensity quantization used by the soundscape
// tables.
package narrative

import "math"

// Mood represents the emotional tone of a narration chunk.
type Mood string

// All moods the classifier may produce.
const (
	MoodCalm       Mood = "calm"
	MoodMysterious Mood = "mysterious"
	MoodTense      Mood = "tense"
	MoodScary      Mood = "scary"
	MoodEpic       Mood = "epic"
	MoodCozy       Mood = "cozy"
	MoodSad        Mood = "sad"
	MoodWhimsical  Mood = "whimsical"
)

// Moods lists every valid mood in declaration order.
var Moods = []Mood{
	MoodCalm, MoodMysterious, MoodTense, MoodScary,
	MoodEpic, MoodCozy, MoodSad, MoodWhimsical,
}

// IsValid returns true if the mood is a member of the closed enumeration.
func (m Mood) IsValid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

// Setting represents the physical scene the narration describes.
type Setting string

// All settings the classifier may produce.
const (
	SettingForest  Setting = "forest"
	SettingDungeon Setting = "dungeon"
	SettingCave    Setting = "cave"
	SettingCastle  Setting = "castle"
	SettingVillage Setting = "village"
	SettingNight   Setting = "night"
	SettingStorm   Setting = "storm"
	SettingFantasy Setting = "fantasy"
	SettingSpace   Setting = "space"
)

// Settings lists every valid setting in declaration order.
var Settings = []Setting{
	SettingForest, SettingDungeon, SettingCave, SettingCastle,
	SettingVillage, SettingNight, SettingStorm, SettingFantasy, SettingSpace,
}

// IsValid returns true if the setting is a member of the closed enumeration.
func (s Setting) IsValid() bool {
	for _, v := range Settings {
		if s == v {
			return true
		}
	}
	return false
}

// Event represents the narrative beat of a narration chunk.
type Event string

// All narrative events the classifier may produce.
const (
	EventExploration Event = "exploration"
	EventDanger      Event = "danger"
	EventBattle      Event = "battle"
	EventMagic       Event = "magic"
	EventDiscovery   Event = "discovery"
	EventResolution  Event = "resolution"
)

// Events lists every valid event in declaration order.
var Events = []Event{
	EventExploration, EventDanger, EventBattle,
	EventMagic, EventDiscovery, EventResolution,
}

// IsValid returns true if the event is a member of the closed enumeration.
func (e Event) IsValid() bool {
	for _, v := range Events {
		if e == v {
			return true
		}
	}
	return false
}

// IntensityBucket is the 3-way quantization of the continuous intensity
// value used by the ambience and sfx lookup tables.
type IntensityBucket string

// Intensity buckets.
const (
	BucketLow  IntensityBucket = "low"
	BucketMid  IntensityBucket = "mid"
	BucketHigh IntensityBucket = "high"
)

// Tuple is the classification of one narration chunk. It is immutable once
// created; smoothing produces a new Tuple rather than mutating its input.
type Tuple struct {
	// Mood is the emotional tone.
	Mood Mood `json:"mood" validate:"required"`
	// Setting is the physical scene.
	Setting Setting `json:"setting" validate:"required"`
	// Intensity is the dramatic intensity in [0,1].
	Intensity float64 `json:"intensity"`
	// Event is the narrative beat.
	Event Event `json:"narrative_event" validate:"required"`
}

// IsValid returns true if every categorical field is a member of its
// enumeration and intensity is within [0,1].
func (t Tuple) IsValid() bool {
	return t.Mood.IsValid() && t.Setting.IsValid() && t.Event.IsValid() &&
		t.Intensity >= 0 && t.Intensity <= 1
}

// Bucket returns the intensity bucket for the tuple's intensity.
func (t Tuple) Bucket() IntensityBucket {
	return BucketFor(t.Intensity)
}

// BucketFor quantizes an intensity value into low/mid/high.
// Boundaries: [0, 0.33) low, [0.33, 0.67) mid, [0.67, 1] high.
func BucketFor(intensity float64) IntensityBucket {
	switch {
	case intensity < 0.33:
		return BucketLow
	case intensity < 0.67:
		return BucketMid
	default:
		return BucketHigh
	}
}

// ClampIntensity forces an intensity into [0,1]. Out-of-range values are a
// classifier contract violation and are repaired here rather than rejected.
func ClampIntensity(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
