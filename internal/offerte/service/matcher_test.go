package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"offerte-service/internal/offerte/model"
)

// fakeCorrections serves learned matches from a map keyed "text|unit".
type fakeCorrections struct {
	learned map[string]*model.Correction
	err     error
}

func (f *fakeCorrections) FindLearned(textNorm, unitNorm string, minFrequency int) (*model.Correction, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := f.learned[textNorm+"|"+unitNorm]
	if c != nil && c.Frequency < minFrequency {
		return nil, nil
	}
	return c, nil
}

func newTestMatcher(t *testing.T, entries []model.CatalogEntry, corr CorrectionSource) *Matcher {
	t.Helper()
	return NewMatcher(entries, corr, DefaultConfig(), zerolog.Nop())
}

func TestMatchAllFuzzy(t *testing.T) {
	m := newTestMatcher(t, testCatalog(), nil)
	res := m.MatchAll(context.Background(), []model.WorkItem{
		{Description: "muur schilderen", Quantity: 20, Unit: "m2", Room: "Woonkamer"},
	})
	if len(res.Matches) != 1 {
		t.Fatalf("got %d matches", len(res.Matches))
	}
	got := res.Matches[0]
	if got.CatalogMatch == nil {
		t.Fatal("no catalog match")
	}
	if got.CatalogMatch.Code != "A1" {
		t.Fatalf("matched %s, want A1", got.CatalogMatch.Code)
	}
	if got.MatchType != model.MatchFuzzy {
		t.Fatalf("match_type = %s, want %s", got.MatchType, model.MatchFuzzy)
	}
	if got.Confidence < model.MediumConfidence {
		t.Fatalf("confidence = %v, want >= %v", got.Confidence, model.MediumConfidence)
	}
	if got.Room != "Woonkamer" {
		t.Fatalf("room = %q", got.Room)
	}
	if got.ID == "" {
		t.Fatal("match id missing")
	}
	if res.Counts.Total != 1 {
		t.Fatalf("counts.total = %d", res.Counts.Total)
	}
}

func TestMatchAllLearnedBeatsFuzzy(t *testing.T) {
	corr := &fakeCorrections{learned: map[string]*model.Correction{
		NormalizeText("muur schilderen") + "|" + NormalizeUnit("m2"): {
			InputText:  "muur schilderen",
			InputUnit:  "m2",
			ChosenCode: "B1",
			Frequency:  2,
		},
	}}
	m := newTestMatcher(t, testCatalog(), corr)
	res := m.MatchAll(context.Background(), []model.WorkItem{
		{Description: "Muur schilderen", Quantity: 20, Unit: "m²"},
	})
	got := res.Matches[0]
	if got.CatalogMatch == nil || got.CatalogMatch.Code != "B1" {
		t.Fatalf("learned correction ignored, got %+v", got.CatalogMatch)
	}
	if got.MatchType != model.MatchLearned {
		t.Fatalf("match_type = %s, want %s", got.MatchType, model.MatchLearned)
	}
	if got.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", got.Confidence)
	}
	if got.Status != "auto" {
		t.Fatalf("status = %s, want auto", got.Status)
	}
	for _, alt := range got.Alternatives {
		if alt.Code == "B1" {
			t.Fatal("best match repeated in alternatives")
		}
	}
}

func TestMatchAllLearnedUnknownCodeFallsBack(t *testing.T) {
	corr := &fakeCorrections{learned: map[string]*model.Correction{
		NormalizeText("muur schilderen") + "|m2": {ChosenCode: "GONE", Frequency: 3},
	}}
	m := newTestMatcher(t, testCatalog(), corr)
	res := m.MatchAll(context.Background(), []model.WorkItem{
		{Description: "muur schilderen", Unit: "m2"},
	})
	got := res.Matches[0]
	if got.MatchType != model.MatchFuzzy {
		t.Fatalf("match_type = %s, want fuzzy fallback", got.MatchType)
	}
	if got.CatalogMatch == nil || got.CatalogMatch.Code != "A1" {
		t.Fatalf("fallback match = %+v, want A1", got.CatalogMatch)
	}
}

func TestMatchAllEmptyCatalog(t *testing.T) {
	m := newTestMatcher(t, nil, nil)
	res := m.MatchAll(context.Background(), []model.WorkItem{
		{Description: "muur schilderen", Unit: "m2"},
	})
	got := res.Matches[0]
	if got.CatalogMatch != nil {
		t.Fatalf("empty catalog produced a match: %+v", got.CatalogMatch)
	}
	if got.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", got.Confidence)
	}
	if got.Status != "review" {
		t.Fatalf("status = %s, want review", got.Status)
	}
	if res.Counts.Low != 1 {
		t.Fatalf("counts.low = %d, want 1", res.Counts.Low)
	}
}

func TestMatchAllPreservesOrder(t *testing.T) {
	items := []model.WorkItem{
		{Description: "muur schilderen", Unit: "m2"},
		{Description: "radiator vervangen", Unit: "stuks"},
		{Description: "plinten plaatsen", Unit: "m1"},
		{Description: "behang verwijderen", Unit: "m2"},
	}
	m := newTestMatcher(t, testCatalog(), nil)
	res := m.MatchAll(context.Background(), items)
	if len(res.Matches) != len(items) {
		t.Fatalf("got %d matches for %d items", len(res.Matches), len(items))
	}
	for i, match := range res.Matches {
		if match.WorkItem.Description != items[i].Description {
			t.Fatalf("match %d holds item %q, want %q", i, match.WorkItem.Description, items[i].Description)
		}
	}
	want := []string{"A1", "C1", "D1", "B1"}
	for i, code := range want {
		if res.Matches[i].CatalogMatch == nil || res.Matches[i].CatalogMatch.Code != code {
			t.Fatalf("match %d = %+v, want %s", i, res.Matches[i].CatalogMatch, code)
		}
	}
}

func TestMatchAllIdempotent(t *testing.T) {
	items := []model.WorkItem{
		{Description: "muur schilderen", Unit: "m2"},
		{Description: "iets heel anders", Unit: "won"},
	}
	m := newTestMatcher(t, testCatalog(), nil)
	first := m.MatchAll(context.Background(), items)
	second := m.MatchAll(context.Background(), items)
	for i := range first.Matches {
		a, b := first.Matches[i], second.Matches[i]
		if a.Confidence != b.Confidence || a.MatchType != b.MatchType {
			t.Fatalf("pass differs at %d: %v/%s vs %v/%s",
				i, a.Confidence, a.MatchType, b.Confidence, b.MatchType)
		}
		ac, bc := "", ""
		if a.CatalogMatch != nil {
			ac = a.CatalogMatch.Code
		}
		if b.CatalogMatch != nil {
			bc = b.CatalogMatch.Code
		}
		if ac != bc {
			t.Fatalf("pass differs at %d: %s vs %s", i, ac, bc)
		}
	}
	if first.Counts != second.Counts {
		t.Fatalf("counts differ: %+v vs %+v", first.Counts, second.Counts)
	}
}

func TestMatchAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items := make([]model.WorkItem, 50)
	for i := range items {
		items[i] = model.WorkItem{Description: "muur schilderen", Unit: "m2"}
	}
	m := newTestMatcher(t, testCatalog(), nil)
	res := m.MatchAll(ctx, items)
	if len(res.Matches) != len(items) {
		t.Fatalf("got %d matches", len(res.Matches))
	}
	for i, match := range res.Matches {
		if match.ID == "" {
			t.Fatalf("match %d missing id after cancellation", i)
		}
	}
	if res.Counts.Total != len(items) {
		t.Fatalf("counts.total = %d", res.Counts.Total)
	}
}

func TestReloadRemovesEntry(t *testing.T) {
	m := newTestMatcher(t, testCatalog(), nil)
	if _, err := m.ResolveCode("A1"); err != nil {
		t.Fatalf("ResolveCode(A1) before reload: %v", err)
	}

	trimmed := testCatalog()[1:] // drop A1
	m.Reload(trimmed)

	if _, err := m.ResolveCode("A1"); err != model.ErrNotFound {
		t.Fatalf("ResolveCode(A1) after reload = %v, want ErrNotFound", err)
	}
	res := m.MatchAll(context.Background(), []model.WorkItem{
		{Description: "muur schilderen wit", Unit: "m2"},
	})
	got := res.Matches[0]
	if got.CatalogMatch != nil && got.CatalogMatch.Code == "A1" {
		t.Fatal("removed entry still matched")
	}
	if m.CatalogSize() != len(trimmed) {
		t.Fatalf("CatalogSize = %d, want %d", m.CatalogSize(), len(trimmed))
	}
}

func TestResolveCodeDerivesPrices(t *testing.T) {
	entries := []model.CatalogEntry{
		{Code: "X1", Description: "Wand stucen", Unit: "m2", Material: 4, Labor: 8},
	}
	m := newTestMatcher(t, entries, nil)
	e, err := m.ResolveCode("X1")
	if err != nil {
		t.Fatalf("ResolveCode: %v", err)
	}
	if e.UnitPrice != 12 {
		t.Fatalf("unit price = %v, want 12", e.UnitPrice)
	}
	if e.PriceIncl <= e.PriceExcl {
		t.Fatalf("incl %v not above excl %v", e.PriceIncl, e.PriceExcl)
	}
}

func TestCandidatesForLimit(t *testing.T) {
	m := newTestMatcher(t, testCatalog(), nil)
	cands := m.CandidatesFor(model.WorkItem{Description: "muur schilderen", Unit: "m2"}, 3)
	if len(cands) == 0 || len(cands) > 3 {
		t.Fatalf("got %d candidates, want 1..3", len(cands))
	}
	if cands[0].Entry.Code != "A1" {
		t.Fatalf("best = %s, want A1", cands[0].Entry.Code)
	}
}
