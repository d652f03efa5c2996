package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"offerte-service/internal/offerte/model"
)

// CorrectionStore persists learned match corrections plus the append-only
// AI-feedback log. Corrections are keyed by (opname_text, eenheid, code);
// recording the same correction again bumps its frequency.
type CorrectionStore struct {
	db *sql.DB
}

func OpenCorrections(path string) (*CorrectionStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS match_corrections (
		id                    INTEGER PRIMARY KEY AUTOINCREMENT,
		opname_text           TEXT NOT NULL,
		opname_eenheid        TEXT NOT NULL,
		chosen_code           TEXT NOT NULL,
		chosen_omschrijving   TEXT DEFAULT '',
		original_code         TEXT DEFAULT '',
		original_omschrijving TEXT DEFAULT '',
		frequency             INTEGER DEFAULT 1,
		last_used             TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at            TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(opname_text, opname_eenheid, chosen_code)
	);
	CREATE INDEX IF NOT EXISTS idx_opname_lookup
		ON match_corrections(opname_text, opname_eenheid);

	CREATE TABLE IF NOT EXISTS ai_feedback (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		werkzaamheid_text  TEXT NOT NULL,
		ai_suggestion_code TEXT DEFAULT '',
		ai_confidence      REAL DEFAULT 0,
		ai_reasoning       TEXT DEFAULT '',
		user_accepted      INTEGER DEFAULT 0,
		user_chosen_code   TEXT DEFAULT '',
		created_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init corrections schema: %w", err)
	}
	return &CorrectionStore{db: db}, nil
}

func (s *CorrectionStore) Close() error { return s.db.Close() }

// Record upserts a correction. Returns "added" for a new key, "updated" when
// the frequency of an existing one was bumped.
func (s *CorrectionStore) Record(c model.Correction) (string, error) {
	if c.ChosenCode == "" {
		return "", fmt.Errorf("correction without chosen code")
	}
	text := strings.ToLower(strings.TrimSpace(c.InputText))
	unit := strings.ToLower(strings.TrimSpace(c.InputUnit))

	res, err := s.db.Exec(`
		UPDATE match_corrections
		SET frequency = frequency + 1, last_used = CURRENT_TIMESTAMP
		WHERE opname_text = ? AND opname_eenheid = ? AND chosen_code = ?`,
		text, unit, c.ChosenCode)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return "updated", nil
	}

	_, err = s.db.Exec(`
		INSERT INTO match_corrections (
			opname_text, opname_eenheid, chosen_code, chosen_omschrijving,
			original_code, original_omschrijving
		) VALUES (?, ?, ?, ?, ?, ?)`,
		text, unit, c.ChosenCode, c.ChosenDescription, c.OriginalCode, c.OriginalDescription)
	if err != nil {
		return "", err
	}
	return "added", nil
}

// FindLearned returns the most frequent correction for a normalized text and
// unit, or nil when none reaches minFrequency.
func (s *CorrectionStore) FindLearned(textNorm, unitNorm string, minFrequency int) (*model.Correction, error) {
	if minFrequency < 1 {
		minFrequency = 1
	}
	var c model.Correction
	err := s.db.QueryRow(`
		SELECT opname_text, opname_eenheid, chosen_code, chosen_omschrijving, frequency, last_used
		FROM match_corrections
		WHERE opname_text = ? AND opname_eenheid = ? AND frequency >= ?
		ORDER BY frequency DESC, last_used DESC
		LIMIT 1`,
		strings.ToLower(strings.TrimSpace(textNorm)), strings.ToLower(strings.TrimSpace(unitNorm)), minFrequency).
		Scan(&c.InputText, &c.InputUnit, &c.ChosenCode, &c.ChosenDescription, &c.Frequency, &c.LastUsed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// RecordAIFeedback appends one accepted/rejected AI suggestion.
// Observability only, never read back into matching.
func (s *CorrectionStore) RecordAIFeedback(text, suggestedCode string, confidence float64, reasoning string, accepted bool, chosenCode string) error {
	acceptedInt := 0
	if accepted {
		acceptedInt = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO ai_feedback (
			werkzaamheid_text, ai_suggestion_code, ai_confidence,
			ai_reasoning, user_accepted, user_chosen_code
		) VALUES (?, ?, ?, ?, ?, ?)`,
		text, suggestedCode, confidence, reasoning, acceptedInt, chosenCode)
	return err
}

// Stats aggregates correction usage and AI feedback for the settings page.
func (s *CorrectionStore) Stats() (model.CorrectionStats, error) {
	var stats model.CorrectionStats

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM match_corrections`).Scan(&stats.TotalCorrections); err != nil {
		return stats, err
	}
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(frequency), 0) FROM match_corrections`).Scan(&stats.TotalUses); err != nil {
		return stats, err
	}

	rows, err := s.db.Query(`
		SELECT opname_text, opname_eenheid, chosen_code, chosen_omschrijving, frequency
		FROM match_corrections
		ORDER BY frequency DESC
		LIMIT 10`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var c model.Correction
		if err := rows.Scan(&c.InputText, &c.InputUnit, &c.ChosenCode, &c.ChosenDescription, &c.Frequency); err != nil {
			return stats, err
		}
		stats.TopCorrections = append(stats.TopCorrections, c)
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(user_accepted), 0), COALESCE(AVG(ai_confidence), 0)
		FROM ai_feedback`).
		Scan(&stats.AIFeedback.TotalSuggestions, &stats.AIFeedback.Accepted, &stats.AIFeedback.AvgConfidence)
	if err != nil {
		return stats, err
	}
	if stats.AIFeedback.TotalSuggestions > 0 {
		stats.AIFeedback.AcceptanceRate = float64(stats.AIFeedback.Accepted) / float64(stats.AIFeedback.TotalSuggestions) * 100
	}
	return stats, nil
}

// ExportAll dumps every correction, most used first.
func (s *CorrectionStore) ExportAll() ([]model.Correction, error) {
	rows, err := s.db.Query(`
		SELECT opname_text, opname_eenheid, chosen_code, chosen_omschrijving,
		       original_code, original_omschrijving, frequency, last_used, created_at
		FROM match_corrections
		ORDER BY frequency DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Correction{}
	for rows.Next() {
		var c model.Correction
		if err := rows.Scan(&c.InputText, &c.InputUnit, &c.ChosenCode, &c.ChosenDescription,
			&c.OriginalCode, &c.OriginalDescription, &c.Frequency, &c.LastUsed, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Clear removes all corrections and feedback.
func (s *CorrectionStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM match_corrections`); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM ai_feedback`)
	return err
}
