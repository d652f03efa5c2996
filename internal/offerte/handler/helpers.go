package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// writeJSON encodes v as the response body. Encoding failures are logged,
// not surfaced; headers are already gone by then.
func writeJSON(w http.ResponseWriter, log zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write json")
	}
}

// writeError matches the {"detail": ...} shape the frontend reads.
func writeError(w http.ResponseWriter, log zerolog.Logger, status int, detail string) {
	writeJSON(w, log, status, map[string]string{"detail": detail})
}

func toBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
