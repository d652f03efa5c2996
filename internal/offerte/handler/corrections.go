package handler

import (
	"encoding/json"
	"net/http"

	"offerte-service/internal/offerte/model"
	"offerte-service/internal/offerte/service"
)

// CorrectionsStats serves the learning statistics for the settings page.
func (h *Handler) CorrectionsStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.corrections.Stats()
	if err != nil {
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}
	if stats.TopCorrections == nil {
		stats.TopCorrections = []model.Correction{}
	}
	writeJSON(w, h.log, http.StatusOK, stats)
}

// ExportCorrections dumps all learned corrections.
func (h *Handler) ExportCorrections(w http.ResponseWriter, r *http.Request) {
	corrections, err := h.corrections.ExportAll()
	if err != nil {
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"corrections": corrections,
		"total":       len(corrections),
	})
}

// AddCorrection records a correction directly (settings page bulk entry).
// The input text is normalized here so lookups at match time hit it.
func (h *Handler) AddCorrection(w http.ResponseWriter, r *http.Request) {
	var c model.Correction
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if c.InputText == "" || c.ChosenCode == "" {
		writeError(w, h.log, http.StatusBadRequest, "opname_text and chosen_code are required")
		return
	}
	if _, err := h.matcher.ResolveCode(c.ChosenCode); err != nil {
		writeError(w, h.log, http.StatusNotFound, "unknown prijzenboek code: "+c.ChosenCode)
		return
	}

	c.InputText = service.NormalizeText(c.InputText)
	c.InputUnit = service.NormalizeUnit(c.InputUnit)

	action, err := h.corrections.Record(c)
	if err != nil {
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"success": true,
		"action":  action,
		"message": "correction " + action,
	})
}

// ClearCorrections wipes all learned corrections and AI feedback.
func (h *Handler) ClearCorrections(w http.ResponseWriter, r *http.Request) {
	if err := h.corrections.Clear(); err != nil {
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"success": true,
		"message": "corrections cleared",
	})
}

// AIConfig reports whether semantic matching is available and how it is set up.
func (h *Handler) AIConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"ai_matching_enabled": h.cfg.AIMatchingEnabled,
		"ai_available":        h.suggester.Available(),
		"ai_model":            h.suggester.Model(),
		"cache_enabled":       h.cfg.CacheEnabled,
		"cache_size":          h.suggester.CacheSize(),
	})
}

// ClearAICache drops cached AI responses.
func (h *Handler) ClearAICache(w http.ResponseWriter, r *http.Request) {
	h.suggester.ClearCache()
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"success": true,
		"message": "AI cache cleared",
	})
}
