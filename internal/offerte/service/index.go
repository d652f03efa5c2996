package service

import (
	"sort"

	"offerte-service/internal/offerte/model"
)

// indexedEntry caches the normalized forms next to the catalog row so the
// scorer never re-normalizes catalog text per query.
type indexedEntry struct {
	entry    model.CatalogEntry
	descNorm string
	unitNorm string
}

// Index is an immutable snapshot of the prijzenboek, searchable by text
// similarity. Catalog mutations build a fresh Index and swap it in whole;
// a live Index never changes.
type Index struct {
	entries []indexedEntry
	byCode  map[string]int              // code -> position in entries
	inv     map[string]map[int]struct{} // trigram -> entry positions
}

// Candidate pairs a catalog entry with its scores against one query.
type Candidate struct {
	Entry     model.CatalogEntry
	TextScore float64
	UnitScore float64
	Score     float64
}

// BuildIndex indexes a catalog snapshot. Entry order does not matter; ties
// are broken deterministically at query time.
func BuildIndex(entries []model.CatalogEntry) *Index {
	idx := &Index{
		entries: make([]indexedEntry, 0, len(entries)),
		byCode:  make(map[string]int, len(entries)),
		inv:     make(map[string]map[int]struct{}),
	}
	for _, e := range entries {
		ie := indexedEntry{
			entry:    e,
			descNorm: NormalizeText(e.Description),
			unitNorm: NormalizeUnit(e.Unit),
		}
		pos := len(idx.entries)
		idx.entries = append(idx.entries, ie)
		idx.byCode[e.Code] = pos
		for g := range trigramSet(ie.descNorm) {
			bucket, ok := idx.inv[g]
			if !ok {
				bucket = make(map[int]struct{})
				idx.inv[g] = bucket
			}
			bucket[pos] = struct{}{}
		}
	}
	return idx
}

func trigramSet(s string) map[string]struct{} {
	m := make(map[string]struct{})
	if s == "" {
		return m
	}
	p := " " + s + " "
	r := []rune(p)
	if len(r) < 3 {
		m[p] = struct{}{}
		return m
	}
	for i := 0; i <= len(r)-3; i++ {
		m[string(r[i:i+3])] = struct{}{}
	}
	return m
}

// Len reports the number of indexed entries.
func (idx *Index) Len() int { return len(idx.entries) }

// Lookup resolves a catalog entry by code.
func (idx *Index) Lookup(code string) (model.CatalogEntry, bool) {
	pos, ok := idx.byCode[code]
	if !ok {
		return model.CatalogEntry{}, false
	}
	return idx.entries[pos].entry, true
}

// candidatePositions narrows the catalog to entries sharing at least one
// trigram with the query. Falls back to the full catalog when nothing
// overlaps, so a best (even if poor) candidate always exists.
func (idx *Index) candidatePositions(descNorm string) []int {
	seen := make(map[int]struct{})
	for g := range trigramSet(descNorm) {
		if bucket, ok := idx.inv[g]; ok {
			for pos := range bucket {
				seen[pos] = struct{}{}
			}
		}
	}
	if len(seen) == 0 {
		out := make([]int, len(idx.entries))
		for i := range idx.entries {
			out[i] = i
		}
		return out
	}
	out := make([]int, 0, len(seen))
	for pos := range seen {
		out = append(out, pos)
	}
	sort.Ints(out) // deterministic order
	return out
}

// Candidates scores the query against the narrowed catalog and returns the
// top limit candidates ordered by combined score. Ties break on shorter
// description, then code.
func (idx *Index) Candidates(descNorm, unit string, weights Weights, limit int) []Candidate {
	if len(idx.entries) == 0 || limit <= 0 {
		return nil
	}
	cands := make([]Candidate, 0, limit)
	for _, pos := range idx.candidatePositions(descNorm) {
		ie := idx.entries[pos]
		ts := TextScore(descNorm, ie.descNorm)
		us := UnitScore(unit, ie.unitNorm)
		cands = append(cands, Candidate{
			Entry:     ie.entry,
			TextScore: ts,
			UnitScore: us,
			Score:     weights.Combined(ts, us),
		})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		li, lj := len(cands[i].Entry.Description), len(cands[j].Entry.Description)
		if li != lj {
			return li < lj
		}
		return cands[i].Entry.Code < cands[j].Entry.Code
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands
}
