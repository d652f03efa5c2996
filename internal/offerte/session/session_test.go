package session

import (
	"errors"
	"testing"
	"time"

	"offerte-service/internal/offerte/model"
)

func sampleMatches() []model.Match {
	return []model.Match{
		{ID: "m1", Confidence: 0.92, MatchType: model.MatchFuzzy, Status: "auto"},
		{ID: "m2", Confidence: 0.41, MatchType: model.MatchFuzzy, Status: "review"},
	}
}

func TestCreateAndMatches(t *testing.T) {
	s := NewStore(time.Hour)
	id := s.Create(sampleMatches())
	if id == "" {
		t.Fatal("empty session id")
	}
	if !s.Exists(id) {
		t.Fatal("created session not found")
	}

	matches, err := s.Matches(id)
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "m1" {
		t.Fatalf("matches = %+v", matches)
	}

	// returned slice is a copy
	matches[0].Status = "review"
	again, _ := s.Matches(id)
	if again[0].Status != "auto" {
		t.Fatal("Matches leaked internal state")
	}
}

func TestMatchLookup(t *testing.T) {
	s := NewStore(time.Hour)
	id := s.Create(sampleMatches())

	m, err := s.Match(id, "m2")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if m.ID != "m2" {
		t.Fatalf("got %s", m.ID)
	}
	if _, err := s.Match(id, "nope"); err != model.ErrNotFound {
		t.Fatalf("unknown match id: %v, want ErrNotFound", err)
	}
	if _, err := s.Match("nope", "m1"); err != model.ErrNotFound {
		t.Fatalf("unknown session: %v, want ErrNotFound", err)
	}
}

func TestUpdateMatch(t *testing.T) {
	s := NewStore(time.Hour)
	id := s.Create(sampleMatches())

	updated, err := s.UpdateMatch(id, "m2", func(m *model.Match) error {
		m.MatchType = model.MatchManual
		m.Confidence = 1.0
		m.Status = "auto"
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateMatch: %v", err)
	}
	if updated.MatchType != model.MatchManual || updated.Confidence != 1.0 {
		t.Fatalf("updated = %+v", updated)
	}

	persisted, _ := s.Match(id, "m2")
	if persisted.MatchType != model.MatchManual {
		t.Fatal("update not persisted")
	}
}

func TestUpdateMatchCallbackErrorAborts(t *testing.T) {
	s := NewStore(time.Hour)
	id := s.Create(sampleMatches())
	boom := errors.New("boom")

	_, err := s.UpdateMatch(id, "m1", func(m *model.Match) error {
		m.Status = "review"
		return boom
	})
	if err != boom {
		t.Fatalf("err = %v, want callback error", err)
	}
}

func TestExpiredSessionsPruned(t *testing.T) {
	s := NewStore(10 * time.Millisecond)
	old := s.Create(sampleMatches())

	time.Sleep(20 * time.Millisecond)
	fresh := s.Create(sampleMatches()) // prunes on create

	if s.Exists(old) {
		t.Fatal("expired session survived")
	}
	if !s.Exists(fresh) {
		t.Fatal("fresh session missing")
	}
}
