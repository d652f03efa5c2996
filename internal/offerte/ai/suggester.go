// Package ai asks Claude to pick the semantically best prijzenboek candidate
// for a werkzaamheid. It is invoked on explicit user request only and every
// failure degrades to the lexical match upstream.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"offerte-service/internal/offerte/model"
)

const DefaultModel = "claude-sonnet-4-20250514"

// Config for one Suggester.
type Config struct {
	APIKey       string
	Model        string
	Timeout      time.Duration
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Suggestion is Claude's pick among the offered candidates.
type Suggestion struct {
	Index      int     `json:"best_match_index"` // 0-based into the candidate list
	Code       string  `json:"code"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Suggester wraps the Anthropic client with a TTL response cache.
type Suggester struct {
	cfg    Config
	client anthropic.Client
	cache  *responseCache
	log    zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Suggester {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return &Suggester{
		cfg:    cfg,
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		cache:  newResponseCache(cfg.CacheTTL),
		log:    logger,
	}
}

// Available reports whether semantic matching is configured.
func (s *Suggester) Available() bool { return s != nil && s.cfg.APIKey != "" }

// Model returns the configured model name, empty when unavailable.
func (s *Suggester) Model() string {
	if !s.Available() {
		return ""
	}
	return s.cfg.Model
}

// CacheSize reports the number of live cached responses.
func (s *Suggester) CacheSize() int { return s.cache.size() }

// ClearCache drops all cached responses.
func (s *Suggester) ClearCache() { s.cache.clear() }

// Suggest asks Claude for the best candidate. The call is bounded by the
// configured timeout on top of ctx; callers treat any error as a soft
// failure and keep the lexical result.
func (s *Suggester) Suggest(ctx context.Context, item model.WorkItem, candidates []model.CatalogEntry) (*Suggestion, error) {
	if !s.Available() {
		return nil, fmt.Errorf("ai matching not configured")
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates to rank")
	}

	key := cacheKey(item, candidates)
	if s.cfg.CacheEnabled {
		if sug, ok := s.cache.get(key); ok {
			return sug, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.cfg.Model),
		MaxTokens: 500,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(item, candidates))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text content in response")
	}
	s.log.Debug().
		Int64("tokens_in", message.Usage.InputTokens).
		Int64("tokens_out", message.Usage.OutputTokens).
		Msg("ai suggestion received")

	sug, err := parseSuggestion(text, candidates)
	if err != nil {
		return nil, err
	}
	if s.cfg.CacheEnabled {
		s.cache.put(key, sug)
	}
	return sug, nil
}

func buildPrompt(item model.WorkItem, candidates []model.CatalogEntry) string {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. Code: %s\n   Omschrijving: %s\n   Eenheid: %s\n   Prijs: €%.2f per %s\n",
			i+1, c.Code, c.Description, c.Unit, c.UnitPrice, c.Unit)
	}

	return fmt.Sprintf(`Je bent een expert in Nederlandse bouw- en renovatieterminologie.
Je taak is om een werkzaamheid uit een opnamerapport te matchen met de beste optie uit een prijzenboek.

WERKZAAMHEID UIT OPNAME:
- Omschrijving: %s
- Hoeveelheid: %g
- Eenheid: %s

KANDIDATEN UIT PRIJZENBOEK:
%s
INSTRUCTIES:
1. Analyseer de werkzaamheid en begrijp wat er precies bedoeld wordt
2. Vergelijk met elke kandidaat op basis van:
   - Semantische betekenis (niet alleen tekst-overeenkomst)
   - Type werkzaamheid (verwijderen, vervangen, schilderen, etc.)
   - Materiaal of object (behang, kozijn, radiator, etc.)
   - Eenheid compatibiliteit (m2, m1, stuks, etc.)
3. Kies de beste match

BELANGRIJK:
- Een "gipsplaten wand plaatsen" kan matchen met "Gipsplaat aanbrengen" ook al zijn de woorden anders
- "behang verwijderen" kan matchen met "wandbekleding verwijderen incl. lijmresten"
- Let op de context van bouwwerkzaamheden

Geef je antwoord in het volgende JSON formaat (alleen JSON, geen andere tekst):
{"best_match_index": 1, "confidence": 0.95, "reasoning": "Korte uitleg waarom dit de beste match is"}

waarbij best_match_index het nummer is van de kandidaat (1-%d).`,
		item.Description, item.Quantity, item.Unit, b.String(), len(candidates))
}

// parseSuggestion reads the JSON reply, tolerating markdown code fences.
func parseSuggestion(text string, candidates []model.CatalogEntry) (*Suggestion, error) {
	text = stripCodeFence(strings.TrimSpace(text))

	var raw struct {
		BestMatchIndex int     `json:"best_match_index"`
		Confidence     float64 `json:"confidence"`
		Reasoning      string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse ai response: %w", err)
	}

	idx := raw.BestMatchIndex - 1 // reply is 1-based
	if idx < 0 || idx >= len(candidates) {
		return nil, fmt.Errorf("ai picked candidate %d of %d", raw.BestMatchIndex, len(candidates))
	}
	conf := raw.Confidence
	if conf <= 0 || conf > 1 {
		conf = 0.8
	}
	reasoning := raw.Reasoning
	if reasoning == "" {
		reasoning = "AI semantic match"
	}
	return &Suggestion{
		Index:      idx,
		Code:       candidates[idx].Code,
		Confidence: conf,
		Reasoning:  reasoning,
	}, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	var kept []string
	inBlock := false
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```") && !inBlock:
			inBlock = true
		case strings.HasPrefix(line, "```") && inBlock:
			return strings.Join(kept, "\n")
		case inBlock:
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
