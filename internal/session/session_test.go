package session

import (
	"testing"

	"github.com/Adweery/soundstory-app-nnkocz/internal/narrative"
)

func TestNew(t *testing.T) {
	s := New("campfire tales")

	if s.ID == "" {
		t.Error("expected generated ID")
	}
	if s.Title != "campfire tales" {
		t.Errorf("title = %q", s.Title)
	}
	if s.Status != StatusActive {
		t.Errorf("status = %s, want %s", s.Status, StatusActive)
	}
	if len(s.Window) != 0 {
		t.Errorf("expected empty window, got %d", len(s.Window))
	}
}

func TestSession_End(t *testing.T) {
	s := New("")

	if err := s.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if s.GetStatus() != StatusEnded {
		t.Errorf("status = %s, want %s", s.GetStatus(), StatusEnded)
	}
	if s.EndedAt.IsZero() {
		t.Error("expected EndedAt to be set")
	}

	// Ending twice is an invalid transition.
	if err := s.End(); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSession_AcceptAndRecent(t *testing.T) {
	s := New("")

	for i := 0; i < 8; i++ {
		s.Accept(narrative.Tuple{
			Mood:      narrative.MoodCalm,
			Setting:   narrative.SettingForest,
			Intensity: float64(i) / 10,
			Event:     narrative.EventExploration,
		})
	}

	if len(s.Window) != 8 {
		t.Errorf("window length = %d, want 8 (no hard cap)", len(s.Window))
	}

	recent := s.RecentWindow()
	if len(recent) != 5 {
		t.Fatalf("recent window length = %d, want 5", len(recent))
	}
	// Oldest first: entries 3..7.
	if recent[0].Intensity != 0.3 || recent[4].Intensity != 0.7 {
		t.Errorf("recent window = %v", recent)
	}
}

func TestSession_RecentReturnsCopy(t *testing.T) {
	s := New("")
	s.Accept(narrative.Tuple{Mood: narrative.MoodCalm, Setting: narrative.SettingForest, Event: narrative.EventExploration})

	recent := s.Recent(5)
	recent[0].Mood = narrative.MoodScary

	if s.Window[0].Mood != narrative.MoodCalm {
		t.Error("mutating Recent result should not affect the session window")
	}
}

func TestSession_Clone(t *testing.T) {
	s := New("original")
	s.Accept(narrative.Tuple{Mood: narrative.MoodEpic, Setting: narrative.SettingCastle, Intensity: 0.9, Event: narrative.EventBattle})

	c := s.Clone()
	c.Title = "modified"
	c.Window[0].Mood = narrative.MoodSad

	if s.Title != "original" {
		t.Error("clone title mutation leaked")
	}
	if s.Window[0].Mood != narrative.MoodEpic {
		t.Error("clone window mutation leaked")
	}
}
