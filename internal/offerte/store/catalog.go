// Package store persists the prijzenboek and the learned corrections in
// sqlite. Both stores are safe for concurrent use via database/sql pooling.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"offerte-service/internal/offerte/model"
)

// CatalogStore holds the prijzenboek rows.
type CatalogStore struct {
	db *sql.DB
}

func OpenCatalog(path string) (*CatalogStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS prijzenboek (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		code                 TEXT UNIQUE NOT NULL,
		omschrijving         TEXT NOT NULL,
		omschrijving_offerte TEXT DEFAULT '',
		eenheid              TEXT NOT NULL DEFAULT 'stu',
		materiaal            REAL DEFAULT 0,
		uren                 REAL DEFAULT 0,
		prijs_per_stuk       REAL DEFAULT 0,
		totaal_excl          REAL DEFAULT 0,
		totaal_incl          REAL DEFAULT 0,
		created_at           TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at           TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_prijzenboek_code ON prijzenboek(code);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init prijzenboek schema: %w", err)
	}
	return &CatalogStore{db: db}, nil
}

func (s *CatalogStore) Close() error { return s.db.Close() }

// All returns the full catalog ordered by code.
func (s *CatalogStore) All() ([]model.CatalogEntry, error) {
	rows, err := s.db.Query(`
		SELECT code, omschrijving, omschrijving_offerte, eenheid,
		       materiaal, uren, prijs_per_stuk, totaal_excl, totaal_incl
		FROM prijzenboek ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CatalogEntry
	for rows.Next() {
		var e model.CatalogEntry
		if err := rows.Scan(&e.Code, &e.Description, &e.OfferDescription, &e.Unit,
			&e.Material, &e.Labor, &e.UnitPrice, &e.PriceExcl, &e.PriceIncl); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get resolves one entry by code. Returns model.ErrNotFound when absent.
func (s *CatalogStore) Get(code string) (model.CatalogEntry, error) {
	var e model.CatalogEntry
	err := s.db.QueryRow(`
		SELECT code, omschrijving, omschrijving_offerte, eenheid,
		       materiaal, uren, prijs_per_stuk, totaal_excl, totaal_incl
		FROM prijzenboek WHERE code = ?`, code).
		Scan(&e.Code, &e.Description, &e.OfferDescription, &e.Unit,
			&e.Material, &e.Labor, &e.UnitPrice, &e.PriceExcl, &e.PriceIncl)
	if err == sql.ErrNoRows {
		return model.CatalogEntry{}, model.ErrNotFound
	}
	return e, err
}

// Upsert inserts or updates by code. Returns "added" or "updated".
func (s *CatalogStore) Upsert(e model.CatalogEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	e.Derive()

	res, err := s.db.Exec(`
		UPDATE prijzenboek SET
			omschrijving = ?, omschrijving_offerte = ?, eenheid = ?,
			materiaal = ?, uren = ?, prijs_per_stuk = ?,
			totaal_excl = ?, totaal_incl = ?, updated_at = CURRENT_TIMESTAMP
		WHERE code = ?`,
		e.Description, e.OfferDescription, e.Unit,
		e.Material, e.Labor, e.UnitPrice, e.PriceExcl, e.PriceIncl, e.Code)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return "updated", nil
	}

	_, err = s.db.Exec(`
		INSERT INTO prijzenboek (
			code, omschrijving, omschrijving_offerte, eenheid,
			materiaal, uren, prijs_per_stuk, totaal_excl, totaal_incl
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Code, e.Description, e.OfferDescription, e.Unit,
		e.Material, e.Labor, e.UnitPrice, e.PriceExcl, e.PriceIncl)
	if err != nil {
		return "", err
	}
	return "added", nil
}

// BulkUpsert applies a batch of entries. Rows failing validation are skipped
// and reported individually; the rest of the batch still commits.
func (s *CatalogStore) BulkUpsert(entries []model.CatalogEntry) (added, updated int, rowErrs []model.RowError) {
	for i, e := range entries {
		action, err := s.Upsert(e)
		if err != nil {
			rowErrs = append(rowErrs, model.RowError{Row: i + 1, Code: e.Code, Reason: err.Error()})
			continue
		}
		if action == "added" {
			added++
		} else {
			updated++
		}
	}
	return added, updated, rowErrs
}

// Delete removes one entry by code. Returns model.ErrNotFound when absent.
func (s *CatalogStore) Delete(code string) error {
	res, err := s.db.Exec(`DELETE FROM prijzenboek WHERE code = ?`, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Clear drops every entry and reports how many were removed.
func (s *CatalogStore) Clear() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM prijzenboek`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of stored entries.
func (s *CatalogStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM prijzenboek`).Scan(&n)
	return n, err
}
