package service

import (
	"context"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"offerte-service/internal/offerte/model"
)

// CorrectionSource is the learned-match lookup consulted before any scoring.
// Implemented by the corrections store; nil disables learning.
type CorrectionSource interface {
	FindLearned(textNorm, unitNorm string, minFrequency int) (*model.Correction, error)
}

// Config tunes one Matcher instance.
type Config struct {
	Weights           Weights
	TopN              int // best match + alternatives kept per item
	Workers           int // parallelism of a match pass
	MinCorrectionFreq int // corrections used only at or above this frequency
}

// DefaultConfig mirrors the backend defaults the UI was calibrated against.
func DefaultConfig() Config {
	return Config{
		Weights:           DefaultWeights(),
		TopN:              5,
		Workers:           4,
		MinCorrectionFreq: 1,
	}
}

// Matcher matches werkzaamheden against the current prijzenboek snapshot.
// The index is replaced atomically on catalog mutations; in-flight passes
// keep the snapshot they started with.
type Matcher struct {
	mu   sync.RWMutex
	idx  *Index
	corr CorrectionSource
	cfg  Config
	log  zerolog.Logger
}

func NewMatcher(entries []model.CatalogEntry, corr CorrectionSource, cfg Config, logger zerolog.Logger) *Matcher {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Weights.Text == 0 && cfg.Weights.Unit == 0 {
		cfg.Weights = DefaultWeights()
	}
	return &Matcher{
		idx:  BuildIndex(entries),
		corr: corr,
		cfg:  cfg,
		log:  logger,
	}
}

// Reload rebuilds the index from a fresh catalog snapshot and publishes it.
// Readers see the old or the new snapshot, never a partial one.
func (m *Matcher) Reload(entries []model.CatalogEntry) {
	idx := BuildIndex(entries)
	m.mu.Lock()
	m.idx = idx
	m.mu.Unlock()
	m.log.Info().Int("entries", idx.Len()).Msg("prijzenboek index rebuilt")
}

func (m *Matcher) snapshot() *Index {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idx
}

// CatalogSize reports the number of entries in the current snapshot.
func (m *Matcher) CatalogSize() int { return m.snapshot().Len() }

// ResolveCode looks a code up in the current snapshot with derived prices.
func (m *Matcher) ResolveCode(code string) (model.CatalogEntry, error) {
	e, ok := m.snapshot().Lookup(code)
	if !ok {
		return model.CatalogEntry{}, model.ErrNotFound
	}
	e.Derive()
	return e, nil
}

// CandidatesFor returns the top n lexical candidates for a work item, as fed
// to the semantic suggester.
func (m *Matcher) CandidatesFor(item model.WorkItem, n int) []Candidate {
	return m.snapshot().Candidates(NormalizeText(item.Description), item.Unit, m.cfg.Weights, n)
}

// MatchAll runs one match pass. Items are matched independently against a
// single index snapshot, bounded by cfg.Workers; output order follows input
// order. An empty catalog yields zero-confidence matches, not an error.
func (m *Matcher) MatchAll(ctx context.Context, items []model.WorkItem) model.MatchResult {
	idx := m.snapshot()
	matches := make([]model.Match, len(items))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < m.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				matches[i] = m.matchOne(idx, items[i])
			}
		}()
	}
send:
	for i := range items {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break send
		}
	}
	close(jobs)
	wg.Wait()

	var counts model.BandCounts
	for i := range matches {
		if matches[i].ID == "" { // cancelled before being matched
			matches[i] = unmatched(items[i])
		}
		counts.Count(matches[i].Confidence)
	}
	return model.MatchResult{Matches: matches, Counts: counts}
}

func (m *Matcher) matchOne(idx *Index, item model.WorkItem) model.Match {
	descNorm := NormalizeText(item.Description)
	unitNorm := NormalizeUnit(item.Unit)

	// learned corrections beat any score
	if m.corr != nil {
		c, err := m.corr.FindLearned(descNorm, unitNorm, m.cfg.MinCorrectionFreq)
		if err != nil {
			m.log.Warn().Err(err).Str("text", descNorm).Msg("corrections lookup failed")
		} else if c != nil {
			if entry, ok := idx.Lookup(c.ChosenCode); ok {
				entry.Derive()
				match := unmatched(item)
				match.CatalogMatch = &entry
				match.Confidence = 1.0
				match.TextScore = 1.0
				match.UnitScore = 1.0
				match.MatchType = model.MatchLearned
				match.Status = "auto"
				match.Alternatives = alternativesExcluding(
					idx.Candidates(descNorm, unitNorm, m.cfg.Weights, m.cfg.TopN), c.ChosenCode, m.cfg.TopN-1)
				return match
			}
			// correction points at a code no longer in the catalog
			m.log.Warn().Str("code", c.ChosenCode).Str("text", descNorm).Msg("learned match references unknown code")
		}
	}

	cands := idx.Candidates(descNorm, unitNorm, m.cfg.Weights, m.cfg.TopN)
	if len(cands) == 0 {
		return unmatched(item)
	}

	best := cands[0]
	entry := best.Entry
	entry.Derive()

	match := unmatched(item)
	match.CatalogMatch = &entry
	match.Confidence = round3(best.Score)
	match.TextScore = round3(best.TextScore)
	match.UnitScore = round3(best.UnitScore)
	if match.Confidence >= model.HighConfidence {
		match.Status = "auto"
	}
	match.Alternatives = toAlternatives(cands[1:])
	return match
}

// unmatched is the baseline Match a work item gets before (or without) any
// candidate: zero confidence, fuzzy, flagged for review.
func unmatched(item model.WorkItem) model.Match {
	return model.Match{
		ID:           uuid.NewString(),
		Room:         item.Room,
		WorkItem:     item,
		MatchType:    model.MatchFuzzy,
		Status:       "review",
		Alternatives: []model.Alternative{},
	}
}

func toAlternatives(cands []Candidate) []model.Alternative {
	out := make([]model.Alternative, 0, len(cands))
	for _, c := range cands {
		e := c.Entry
		e.Derive()
		out = append(out, model.Alternative{
			Code:        e.Code,
			Description: e.Description,
			Unit:        e.Unit,
			PriceExcl:   e.PriceExcl,
			PriceIncl:   e.PriceIncl,
			Score:       round3(c.Score),
		})
	}
	return out
}

func alternativesExcluding(cands []Candidate, code string, limit int) []model.Alternative {
	kept := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Entry.Code != code {
			kept = append(kept, c)
		}
	}
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return toAlternatives(kept)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
