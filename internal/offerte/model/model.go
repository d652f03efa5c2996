package model

import "errors"

// Sentinel errors shared across stores and handlers.
var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyCatalog = errors.New("catalog is empty")
)

// Match types as exposed to the UI.
const (
	MatchFuzzy      = "fuzzy"
	MatchLearned    = "learned"
	MatchManual     = "manual"
	MatchAISemantic = "ai_semantic"
)

// Confidence bands. Fixed thresholds, the UI renders badges off these.
const (
	HighConfidence   = 0.90
	MediumConfidence = 0.70
)

// ConfidenceBand returns "high" | "medium" | "low" for a confidence value.
func ConfidenceBand(c float64) string {
	switch {
	case c >= HighConfidence:
		return "high"
	case c >= MediumConfidence:
		return "medium"
	default:
		return "low"
	}
}

// CatalogEntry is one prijzenboek row. JSON field names follow the Dutch
// column names the admin UI expects.
type CatalogEntry struct {
	Code             string  `json:"code"`
	Description      string  `json:"omschrijving"`
	OfferDescription string  `json:"omschrijving_offerte,omitempty"`
	Unit             string  `json:"eenheid"`
	Material         float64 `json:"materiaal"`      // material cost per unit, excl BTW
	Labor            float64 `json:"uren"`           // labor cost per unit, excl BTW
	UnitPrice        float64 `json:"prijs_per_stuk"` // combined price per unit, excl BTW
	PriceExcl        float64 `json:"prijs_excl"`
	PriceIncl        float64 `json:"prijs_incl"`
}

const btwRate = 1.21

// Derive fills the computed price fields when the source (upload, admin form)
// supplied only partial data. UnitPrice stays as given when set explicitly.
func (e *CatalogEntry) Derive() {
	if e.UnitPrice == 0 {
		e.UnitPrice = e.Material + e.Labor
	}
	if e.PriceExcl == 0 {
		e.PriceExcl = e.UnitPrice
	}
	if e.PriceIncl == 0 {
		e.PriceIncl = e.PriceExcl * btwRate
	}
}

// Validate reports why an entry cannot be stored. Used row-by-row on bulk
// uploads so one bad row never rejects the batch.
func (e *CatalogEntry) Validate() error {
	if e.Code == "" {
		return errors.New("missing code")
	}
	if e.Description == "" {
		return errors.New("missing omschrijving")
	}
	if e.Material < 0 || e.Labor < 0 || e.UnitPrice < 0 {
		return errors.New("negative price")
	}
	return nil
}

// WorkItem is a parsed opname line: what the vakman wrote down for one ruimte.
type WorkItem struct {
	Room        string  `json:"ruimte,omitempty"`
	Description string  `json:"omschrijving"`
	Quantity    float64 `json:"hoeveelheid"`
	Unit        string  `json:"eenheid"`
	RawText     string  `json:"raw_text,omitempty"`
}

// Alternative is a non-best candidate offered for user review.
type Alternative struct {
	Code        string  `json:"code"`
	Description string  `json:"omschrijving"`
	Unit        string  `json:"eenheid"`
	PriceExcl   float64 `json:"prijs_excl"`
	PriceIncl   float64 `json:"prijs_incl"`
	Score       float64 `json:"score"`
}

// Match couples one work item to its best prijzenboek candidate.
// CatalogMatch is nil when the catalog had nothing to offer; the UI renders
// that as an unmatched row, it is not an error.
type Match struct {
	ID           string        `json:"id"`
	Room         string        `json:"ruimte"`
	WorkItem     WorkItem      `json:"opname_item"`
	CatalogMatch *CatalogEntry `json:"prijzenboek_match"`
	Confidence   float64       `json:"confidence"`
	TextScore    float64       `json:"text_score"`
	UnitScore    float64       `json:"unit_score"`
	MatchType    string        `json:"match_type"`
	Reasoning    string        `json:"reasoning,omitempty"`
	Status       string        `json:"status"` // auto | review
	Alternatives []Alternative `json:"alternatives"`
}

// MatchResult is the outcome of one match pass.
type MatchResult struct {
	Matches []Match    `json:"matches"`
	Counts  BandCounts `json:"counts"`
}

// BandCounts buckets matches per confidence band.
type BandCounts struct {
	Total  int `json:"total"`
	High   int `json:"high_confidence"`
	Medium int `json:"medium_confidence"`
	Low    int `json:"low_confidence"`
}

// Count classifies one confidence value into the totals.
func (b *BandCounts) Count(confidence float64) {
	b.Total++
	switch ConfidenceBand(confidence) {
	case "high":
		b.High++
	case "medium":
		b.Medium++
	default:
		b.Low++
	}
}

// Correction is a confirmed (opname text, eenheid) -> code mapping learned
// from the user. Keyed by normalized text + unit + chosen code; frequency
// counts how often the same correction recurred.
type Correction struct {
	InputText           string `json:"opname_text"`
	InputUnit           string `json:"opname_eenheid"`
	ChosenCode          string `json:"chosen_code"`
	ChosenDescription   string `json:"chosen_omschrijving"`
	OriginalCode        string `json:"original_code,omitempty"`
	OriginalDescription string `json:"original_omschrijving,omitempty"`
	Frequency           int    `json:"frequency"`
	LastUsed            string `json:"last_used,omitempty"`
	CreatedAt           string `json:"created_at,omitempty"`
}

// CorrectionStats summarises the corrections store for the settings page.
type CorrectionStats struct {
	TotalCorrections int          `json:"total_corrections"`
	TotalUses        int          `json:"total_uses"`
	TopCorrections   []Correction `json:"top_corrections"`
	AIFeedback       AIStats      `json:"ai_feedback"`
}

// AIStats summarises recorded AI suggestion feedback.
type AIStats struct {
	TotalSuggestions int     `json:"total_suggestions"`
	Accepted         int     `json:"accepted"`
	AcceptanceRate   float64 `json:"acceptance_rate"`
	AvgConfidence    float64 `json:"avg_confidence"`
}

// RowError reports one rejected row of a bulk upload.
type RowError struct {
	Row    int    `json:"row"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason"`
}
