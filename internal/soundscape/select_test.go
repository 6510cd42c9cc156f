package soundscape

import (
	"reflect"
	"testing"

	"github.com/Adweery/soundstory-app-nnkocz/internal/narrative"
)

func TestSelect_TotalOverAllCombinations(t *testing.T) {
	intensities := []float64{0.0, 0.2, 0.33, 0.5, 0.67, 0.9, 1.0}

	for _, mood := range narrative.Moods {
		for _, setting := range narrative.Settings {
			for _, event := range narrative.Events {
				for _, intensity := range intensities {
					sel := Select(narrative.Tuple{
						Mood:      mood,
						Setting:   setting,
						Intensity: intensity,
						Event:     event,
					})
					if sel.MusicTrack == "" {
						t.Fatalf("empty music track for %s/%s", mood, setting)
					}
					if sel.AmbientTrack == "" {
						t.Fatalf("empty ambient track for %s/%v", setting, intensity)
					}
					if len(sel.SfxTracks) == 0 {
						t.Fatalf("empty sfx list for %s/%v", event, intensity)
					}
				}
			}
		}
	}
}

func TestSelect_Deterministic(t *testing.T) {
	tuple := narrative.Tuple{
		Mood:      narrative.MoodMysterious,
		Setting:   narrative.SettingCave,
		Intensity: 0.5,
		Event:     narrative.EventDiscovery,
	}

	first := Select(tuple)
	second := Select(tuple)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Select not deterministic: %+v vs %+v", first, second)
	}
}

func TestSelect_EpicCastleBattleHigh(t *testing.T) {
	sel := Select(narrative.Tuple{
		Mood:      narrative.MoodEpic,
		Setting:   narrative.SettingCastle,
		Intensity: 0.9,
		Event:     narrative.EventBattle,
	})

	if sel.MusicTrack != "music_epic_banners_high" {
		t.Errorf("music = %s", sel.MusicTrack)
	}
	if sel.AmbientTrack != "amb_castle_siege_walls" {
		t.Errorf("ambience = %s", sel.AmbientTrack)
	}
	want := []string{"sfx_full_melee", "sfx_dragon_roar", "sfx_explosion_burst"}
	if !reflect.DeepEqual(sel.SfxTracks, want) {
		t.Errorf("sfx = %v, want %v", sel.SfxTracks, want)
	}
}

func TestSelect_BucketChangesAmbienceAndSfxOnly(t *testing.T) {
	base := narrative.Tuple{
		Mood:    narrative.MoodCalm,
		Setting: narrative.SettingForest,
		Event:   narrative.EventExploration,
	}

	low := base
	low.Intensity = 0.1
	high := base
	high.Intensity = 0.9

	lowSel := Select(low)
	highSel := Select(high)

	if lowSel.MusicTrack != highSel.MusicTrack {
		t.Error("music track must not depend on intensity")
	}
	if lowSel.AmbientTrack == highSel.AmbientTrack {
		t.Error("ambient track should change across intensity buckets")
	}
	if reflect.DeepEqual(lowSel.SfxTracks, highSel.SfxTracks) {
		t.Error("sfx tracks should change across intensity buckets")
	}
}

func TestSelect_FallbackForUnknownKeys(t *testing.T) {
	sel := Select(narrative.Tuple{
		Mood:      narrative.Mood("unknown"),
		Setting:   narrative.Setting("unknown"),
		Intensity: 0.5,
		Event:     narrative.Event("unknown"),
	})

	if sel.MusicTrack != DefaultMusicTrack {
		t.Errorf("music = %s, want default", sel.MusicTrack)
	}
	if sel.AmbientTrack != DefaultAmbientTrack {
		t.Errorf("ambience = %s, want default", sel.AmbientTrack)
	}
	if len(sel.SfxTracks) != 1 || sel.SfxTracks[0] != DefaultSfxTrack {
		t.Errorf("sfx = %v, want [%s]", sel.SfxTracks, DefaultSfxTrack)
	}
}

func TestSelect_ReturnsCopyOfSfxList(t *testing.T) {
	tuple := narrative.Tuple{
		Mood:      narrative.MoodEpic,
		Setting:   narrative.SettingCastle,
		Intensity: 0.9,
		Event:     narrative.EventBattle,
	}

	sel := Select(tuple)
	sel.SfxTracks[0] = "mutated"

	again := Select(tuple)
	if again.SfxTracks[0] == "mutated" {
		t.Error("mutating a returned selection must not affect later selections")
	}
}

func TestAllTrackIDs_CoversSelections(t *testing.T) {
	ids := make(map[string]bool)
	for _, id := range AllTrackIDs() {
		ids[id] = true
	}

	// 8x9 music + 9x3 ambience + defaults comfortably exceed 100 ids.
	if len(ids) < 100 {
		t.Errorf("expected at least 100 distinct track ids, got %d", len(ids))
	}

	sel := Select(narrative.Tuple{
		Mood:      narrative.MoodScary,
		Setting:   narrative.SettingStorm,
		Intensity: 0.8,
		Event:     narrative.EventDanger,
	})
	if !ids[sel.MusicTrack] || !ids[sel.AmbientTrack] {
		t.Error("selected tracks missing from AllTrackIDs")
	}
	for _, id := range sel.SfxTracks {
		if !ids[id] {
			t.Errorf("sfx id %s missing from AllTrackIDs", id)
		}
	}
}
