package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"offerte-service/internal/fileio"
	"offerte-service/internal/offerte/model"
)

// reloadIndex publishes a fresh index after a catalog mutation committed.
// Callers hold catalogMu across the mutation and this reload; without that
// two concurrent mutations can publish in the wrong order and leave an
// acknowledged write unresolvable. A failing reload is fatal for matching:
// better a 500 now than matches served against a stale snapshot.
func (h *Handler) reloadIndex() error {
	entries, err := h.catalog.All()
	if err != nil {
		return fmt.Errorf("reload prijzenboek: %w", err)
	}
	h.matcher.Reload(entries)
	return nil
}

// GetPrijzenboek lists the full catalog for the admin table.
func (h *Handler) GetPrijzenboek(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.All()
	if err != nil {
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []model.CatalogEntry{}
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"items": items,
		"total": len(items),
	})
}

type savePrijzenboekRequest struct {
	Items []model.CatalogEntry `json:"items"`
}

// SavePrijzenboek bulk-saves the admin table. Invalid rows are reported per
// row; valid rows still commit. The index is rebuilt before replying.
func (h *Handler) SavePrijzenboek(w http.ResponseWriter, r *http.Request) {
	var req savePrijzenboekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	h.catalogMu.Lock()
	added, updated, rowErrs := h.catalog.BulkUpsert(req.Items)
	err := h.reloadIndex()
	h.catalogMu.Unlock()
	if err != nil {
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"success":     true,
		"message":     fmt.Sprintf("Prijzenboek successfully updated (added: %d, updated: %d)", added, updated),
		"items_saved": added + updated,
		"added":       added,
		"updated":     updated,
		"errors":      rowErrs,
	})
}

// AddPrijzenboekItem adds or updates a single entry.
func (h *Handler) AddPrijzenboekItem(w http.ResponseWriter, r *http.Request) {
	var item model.CatalogEntry
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	h.catalogMu.Lock()
	action, err := h.catalog.Upsert(item)
	if err != nil {
		h.catalogMu.Unlock()
		writeError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}
	err = h.reloadIndex()
	h.catalogMu.Unlock()
	if err != nil {
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"success": true,
		"action":  action,
		"code":    item.Code,
		"message": fmt.Sprintf("Item %s: %s", action, item.Code),
	})
}

// DeletePrijzenboekItem removes one entry by code.
func (h *Handler) DeletePrijzenboekItem(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	h.catalogMu.Lock()
	if err := h.catalog.Delete(code); err != nil {
		h.catalogMu.Unlock()
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, h.log, http.StatusNotFound, fmt.Sprintf("Item %s not found", code))
			return
		}
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}
	err := h.reloadIndex()
	h.catalogMu.Unlock()
	if err != nil {
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Item %s deleted", code),
	})
}

// UploadPrijzenboek ingests an uploaded spreadsheet (xlsx/xlsm/xls/csv).
// The locale form value steers decimal parsing; rejected rows come back in
// the response while the valid remainder is committed.
func (h *Handler) UploadPrijzenboek(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(int64(h.cfg.MaxUploadMB) << 20); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.log, http.StatusBadRequest, "missing file: "+err.Error())
		return
	}
	defer file.Close()

	locale := r.FormValue("locale")
	if locale == "" {
		locale = "nl"
	}

	rows, err := fileio.ReadAnyMaps(file, header.Filename, 1)
	if err != nil {
		writeError(w, h.log, http.StatusBadRequest, "failed to read file: "+err.Error())
		return
	}

	entries, rowErrs := fileio.MapCatalogRows(rows, locale)

	h.catalogMu.Lock()
	added, updated, upsertErrs := h.catalog.BulkUpsert(entries)
	rowErrs = append(rowErrs, upsertErrs...)
	err = h.reloadIndex()
	h.catalogMu.Unlock()
	if err != nil {
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info().
		Str("file", header.Filename).
		Int("rows", len(rows)).
		Int("added", added).
		Int("updated", updated).
		Int("rejected", len(rowErrs)).
		Msg("prijzenboek uploaded")

	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Prijzenboek uploaded successfully",
		"filename":     header.Filename,
		"items_loaded": added + updated,
		"added":        added,
		"updated":      updated,
		"errors":       rowErrs,
	})
}

// ClearPrijzenboek wipes the catalog.
func (h *Handler) ClearPrijzenboek(w http.ResponseWriter, r *http.Request) {
	h.catalogMu.Lock()
	deleted, err := h.catalog.Clear()
	if err != nil {
		h.catalogMu.Unlock()
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}
	err = h.reloadIndex()
	h.catalogMu.Unlock()
	if err != nil {
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Prijzenboek cleared",
		"items_deleted": deleted,
	})
}
