// Package handler exposes the matching engine over the HTTP contract the
// offerte frontend speaks: match passes, match corrections, AI suggestions,
// prijzenboek admin and corrections management.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"offerte-service/internal/config"
	"offerte-service/internal/offerte/ai"
	"offerte-service/internal/offerte/model"
	"offerte-service/internal/offerte/service"
	"offerte-service/internal/offerte/session"
	"offerte-service/internal/offerte/store"
)

// Suggester is the semantic-matching seam. Satisfied by *ai.Suggester; an
// unavailable one still answers config queries.
type Suggester interface {
	Available() bool
	Model() string
	CacheSize() int
	ClearCache()
	Suggest(ctx context.Context, item model.WorkItem, candidates []model.CatalogEntry) (*ai.Suggestion, error)
}

// Handler wires the engine's components to HTTP endpoints.
type Handler struct {
	cfg         config.Config
	log         zerolog.Logger
	matcher     *service.Matcher
	catalog     *store.CatalogStore
	corrections *store.CorrectionStore
	sessions    *session.Store
	suggester   Suggester

	// serializes catalog mutations with their index reload, so every
	// acknowledged write is resolvable in the published index
	catalogMu sync.Mutex
}

func New(
	cfg config.Config,
	logger zerolog.Logger,
	matcher *service.Matcher,
	catalog *store.CatalogStore,
	corrections *store.CorrectionStore,
	sessions *session.Store,
	suggester Suggester,
) *Handler {
	return &Handler{
		cfg:         cfg,
		log:         logger,
		matcher:     matcher,
		catalog:     catalog,
		corrections: corrections,
		sessions:    sessions,
		suggester:   suggester,
	}
}

type matchRequest struct {
	Ruimtes []struct {
		Naam          string           `json:"naam"`
		Werkzaamheden []model.WorkItem `json:"werkzaamheden"`
	} `json:"ruimtes"`
	Werkzaamheden []model.WorkItem `json:"werkzaamheden"` // flat alternative
}

// ProcessMatch runs one match pass over the posted werkzaamheden and stores
// the result in a new session. An empty prijzenboek produces unmatched rows,
// not an error.
func (h *Handler) ProcessMatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	items := req.Werkzaamheden
	for _, ruimte := range req.Ruimtes {
		for _, wi := range ruimte.Werkzaamheden {
			if wi.Room == "" {
				wi.Room = ruimte.Naam
			}
			items = append(items, wi)
		}
	}
	if len(items) == 0 {
		writeError(w, h.log, http.StatusBadRequest, "no werkzaamheden in request")
		return
	}

	result := h.matcher.MatchAll(r.Context(), items)
	sessionID := h.sessions.Create(result.Matches)

	h.log.Info().
		Str("session", sessionID).
		Int("items", len(items)).
		Int("high", result.Counts.High).
		Int("medium", result.Counts.Medium).
		Int("low", result.Counts.Low).
		Dur("elapsed", time.Since(start)).
		Msg("match pass done")

	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"session_id":        sessionID,
		"total_matches":     result.Counts.Total,
		"high_confidence":   result.Counts.High,
		"medium_confidence": result.Counts.Medium,
		"low_confidence":    result.Counts.Low,
		"matches":           result.Matches,
	})
}

// UpdateMatch replaces the catalog side of a match with a user-picked code.
// Manual selection means full confidence.
func (h *Handler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	matchID := r.URL.Query().Get("match_id")
	code := r.URL.Query().Get("prijzenboek_code")
	if sessionID == "" || matchID == "" || code == "" {
		writeError(w, h.log, http.StatusBadRequest, "session_id, match_id and prijzenboek_code are required")
		return
	}

	match, err := h.applySelection(sessionID, matchID, code, model.MatchManual, 1.0, "")
	if err != nil {
		h.writeSelectionError(w, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{"success": true, "match": match})
}

// CorrectMatch is UpdateMatch plus optional learning: with save_correction
// the chosen mapping is recorded so the next pass resolves it as learned.
func (h *Handler) CorrectMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	sessionID := r.URL.Query().Get("session_id")
	code := r.URL.Query().Get("new_code")
	saveCorrection := toBool(r.URL.Query().Get("save_correction"), true)
	if sessionID == "" || code == "" {
		writeError(w, h.log, http.StatusBadRequest, "session_id and new_code are required")
		return
	}

	prev, err := h.sessions.Match(sessionID, matchID)
	if err != nil {
		h.writeSelectionError(w, err)
		return
	}

	match, err := h.applySelection(sessionID, matchID, code, model.MatchManual, 1.0, "")
	if err != nil {
		h.writeSelectionError(w, err)
		return
	}

	saved := false
	if saveCorrection {
		corr := model.Correction{
			InputText:         service.NormalizeText(prev.WorkItem.Description),
			InputUnit:         service.NormalizeUnit(prev.WorkItem.Unit),
			ChosenCode:        match.CatalogMatch.Code,
			ChosenDescription: match.CatalogMatch.Description,
		}
		if prev.CatalogMatch != nil {
			corr.OriginalCode = prev.CatalogMatch.Code
			corr.OriginalDescription = prev.CatalogMatch.Description
		}
		if _, err := h.corrections.Record(corr); err != nil {
			h.log.Error().Err(err).Str("code", code).Msg("save correction failed")
		} else {
			saved = true
		}
	}

	msg := "match corrected"
	if saved {
		msg = "match corrected, correction saved"
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"success":          true,
		"match":            match,
		"correction_saved": saved,
		"message":          msg,
	})
}

// AISuggest asks the semantic matcher to re-rank the lexical candidates for
// one match. The suggestion is returned for review, never auto-applied, and
// any AI failure leaves the lexical match standing.
func (h *Handler) AISuggest(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, h.log, http.StatusBadRequest, "session_id is required")
		return
	}

	match, err := h.sessions.Match(sessionID, matchID)
	if err != nil {
		h.writeSelectionError(w, err)
		return
	}

	if match.MatchType == model.MatchManual ||
		(match.MatchType == model.MatchAISemantic && match.Confidence >= 0.95) {
		writeJSON(w, h.log, http.StatusOK, map[string]any{
			"success": true,
			"skipped": true,
			"message": "match already confirmed, no AI suggestion needed",
		})
		return
	}

	if !h.suggester.Available() {
		writeError(w, h.log, http.StatusServiceUnavailable, "AI matching is not configured")
		return
	}

	cands := h.matcher.CandidatesFor(match.WorkItem, h.cfg.MaxCandidatesForAI)
	if len(cands) == 0 {
		writeError(w, h.log, http.StatusConflict, "prijzenboek is empty, nothing to suggest")
		return
	}
	entries := make([]model.CatalogEntry, len(cands))
	for i, c := range cands {
		e := c.Entry
		e.Derive()
		entries[i] = e
	}

	sug, err := h.suggester.Suggest(r.Context(), match.WorkItem, entries)
	if err != nil {
		// soft failure: the lexical result stays valid
		h.log.Warn().Err(err).Str("match", matchID).Msg("ai suggestion failed")
		writeJSON(w, h.log, http.StatusOK, map[string]any{
			"success": false,
			"warning": "AI suggestion unavailable, lexical match kept",
		})
		return
	}

	entry := entries[sug.Index]
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"success": true,
		"suggestion": map[string]any{
			"code":         entry.Code,
			"omschrijving": entry.Description,
			"eenheid":      entry.Unit,
			"prijs_excl":   entry.PriceExcl,
			"prijs_incl":   entry.PriceIncl,
			"confidence":   sug.Confidence,
			"reasoning":    sug.Reasoning,
		},
	})
}

type aiFeedbackRequest struct {
	Accepted       bool    `json:"accepted"`
	Code           string  `json:"code"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
	SaveCorrection bool    `json:"save_correction"`
	ChosenCode     string  `json:"chosen_code"` // what the user picked instead, when rejected
}

// AIFeedback records whether a suggestion was accepted and, on acceptance,
// applies it to the match as ai_semantic.
func (h *Handler) AIFeedback(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	sessionID := r.URL.Query().Get("session_id")

	var req aiFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	match, err := h.sessions.Match(sessionID, matchID)
	if err != nil {
		h.writeSelectionError(w, err)
		return
	}

	if err := h.corrections.RecordAIFeedback(
		match.WorkItem.Description, req.Code, req.Confidence, req.Reasoning,
		req.Accepted, req.ChosenCode,
	); err != nil {
		h.log.Error().Err(err).Msg("record ai feedback failed")
	}

	if !req.Accepted {
		writeJSON(w, h.log, http.StatusOK, map[string]any{"success": true, "applied": false})
		return
	}

	conf := req.Confidence
	if conf <= 0 || conf > 1 {
		conf = 0.8
	}
	updated, err := h.applySelection(sessionID, matchID, req.Code, model.MatchAISemantic, conf, req.Reasoning)
	if err != nil {
		h.writeSelectionError(w, err)
		return
	}

	saved := false
	if req.SaveCorrection {
		corr := model.Correction{
			InputText:         service.NormalizeText(match.WorkItem.Description),
			InputUnit:         service.NormalizeUnit(match.WorkItem.Unit),
			ChosenCode:        req.Code,
			ChosenDescription: updated.CatalogMatch.Description,
		}
		if match.CatalogMatch != nil {
			corr.OriginalCode = match.CatalogMatch.Code
			corr.OriginalDescription = match.CatalogMatch.Description
		}
		if _, err := h.corrections.Record(corr); err != nil {
			h.log.Error().Err(err).Msg("save correction failed")
		} else {
			saved = true
		}
	}

	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"success":          true,
		"applied":          true,
		"match":            updated,
		"correction_saved": saved,
	})
}

// SessionStatus reports what a session holds.
func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	matches, err := h.sessions.Matches(sessionID)
	if err != nil {
		writeError(w, h.log, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"session_id":    sessionID,
		"matched":       true,
		"total_matches": len(matches),
	})
}

// applySelection points a match at another catalog entry, with confidence and
// type reflecting how the selection was made.
func (h *Handler) applySelection(sessionID, matchID, code, matchType string, confidence float64, reasoning string) (model.Match, error) {
	entry, err := h.matcher.ResolveCode(code)
	if err != nil {
		return model.Match{}, err
	}
	return h.sessions.UpdateMatch(sessionID, matchID, func(m *model.Match) error {
		m.CatalogMatch = &entry
		m.Confidence = confidence
		m.MatchType = matchType
		m.Reasoning = reasoning
		m.Status = "auto"
		if confidence < model.HighConfidence {
			m.Status = "review"
		}
		return nil
	})
}

func (h *Handler) writeSelectionError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrNotFound) {
		writeError(w, h.log, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, h.log, http.StatusInternalServerError, err.Error())
}
