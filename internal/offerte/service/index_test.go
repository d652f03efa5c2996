package service

import (
	"testing"

	"offerte-service/internal/offerte/model"
)

func testCatalog() []model.CatalogEntry {
	return []model.CatalogEntry{
		{Code: "A1", Description: "Muur schilderen wit", Unit: "m2", UnitPrice: 12.50},
		{Code: "A2", Description: "Muur sauzen", Unit: "m2", UnitPrice: 9.00},
		{Code: "B1", Description: "Behang verwijderen incl. lijmresten", Unit: "m2", UnitPrice: 6.50},
		{Code: "C1", Description: "Radiator vervangen", Unit: "stu", UnitPrice: 210.00},
		{Code: "D1", Description: "Plinten plaatsen", Unit: "m1", UnitPrice: 7.25},
	}
}

func TestBuildIndexLookup(t *testing.T) {
	idx := BuildIndex(testCatalog())
	if idx.Len() != 5 {
		t.Fatalf("Len = %d, want 5", idx.Len())
	}
	e, ok := idx.Lookup("C1")
	if !ok {
		t.Fatal("Lookup(C1) missed")
	}
	if e.Description != "Radiator vervangen" {
		t.Fatalf("Lookup(C1).Description = %q", e.Description)
	}
	if _, ok := idx.Lookup("ZZ"); ok {
		t.Fatal("Lookup(ZZ) should miss")
	}
}

func TestCandidatesRanking(t *testing.T) {
	idx := BuildIndex(testCatalog())
	w := DefaultWeights()

	cands := idx.Candidates(NormalizeText("muur schilderen"), "m2", w, 5)
	if len(cands) == 0 {
		t.Fatal("no candidates")
	}
	if cands[0].Entry.Code != "A1" {
		t.Fatalf("best candidate = %s, want A1", cands[0].Entry.Code)
	}
	for i := 1; i < len(cands); i++ {
		if cands[i].Score > cands[i-1].Score {
			t.Fatalf("candidates not sorted: %v before %v", cands[i-1].Score, cands[i].Score)
		}
	}
}

func TestCandidatesLimit(t *testing.T) {
	idx := BuildIndex(testCatalog())
	cands := idx.Candidates(NormalizeText("muur"), "m2", DefaultWeights(), 2)
	if len(cands) > 2 {
		t.Fatalf("limit ignored: got %d candidates", len(cands))
	}
	if got := idx.Candidates("iets", "m2", DefaultWeights(), 0); got != nil {
		t.Fatalf("limit 0 should yield nil, got %v", got)
	}
}

func TestCandidatesEmptyIndex(t *testing.T) {
	idx := BuildIndex(nil)
	if cands := idx.Candidates("muur schilderen", "m2", DefaultWeights(), 5); len(cands) != 0 {
		t.Fatalf("empty index produced %d candidates", len(cands))
	}
}

func TestCandidatesDeterministic(t *testing.T) {
	idx := BuildIndex(testCatalog())
	w := DefaultWeights()
	first := idx.Candidates(NormalizeText("muur schilderen"), "m2", w, 5)
	for i := 0; i < 5; i++ {
		again := idx.Candidates(NormalizeText("muur schilderen"), "m2", w, 5)
		if len(again) != len(first) {
			t.Fatalf("candidate count changed between runs")
		}
		for j := range again {
			if again[j].Entry.Code != first[j].Entry.Code || again[j].Score != first[j].Score {
				t.Fatalf("run %d differs at %d: %s/%v vs %s/%v",
					i, j, again[j].Entry.Code, again[j].Score, first[j].Entry.Code, first[j].Score)
			}
		}
	}
}

func TestCandidatesNoTrigramOverlapFallsBack(t *testing.T) {
	idx := BuildIndex(testCatalog())
	// shares no trigram with any entry, still gets a (poor) best candidate
	cands := idx.Candidates("xyzqq", "m2", DefaultWeights(), 5)
	if len(cands) == 0 {
		t.Fatal("expected fallback scan to produce candidates")
	}
	if cands[0].Score >= model.MediumConfidence {
		t.Fatalf("nonsense query scored %v, expected low", cands[0].Score)
	}
}

func TestTieBreakShorterDescriptionThenCode(t *testing.T) {
	entries := []model.CatalogEntry{
		{Code: "B9", Description: "deur aflakken", Unit: "stu"},
		{Code: "A9", Description: "deur aflakken", Unit: "stu"},
	}
	idx := BuildIndex(entries)
	cands := idx.Candidates(NormalizeText("deur aflakken"), "stu", DefaultWeights(), 2)
	if len(cands) != 2 {
		t.Fatalf("got %d candidates", len(cands))
	}
	if cands[0].Entry.Code != "A9" {
		t.Fatalf("tie should break on code: got %s first", cands[0].Entry.Code)
	}
}
