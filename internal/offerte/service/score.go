package service

import "strings"

// Weights blends the text and unit scores into one confidence.
type Weights struct {
	Text float64
	Unit float64
}

// DefaultWeights matches the tuning the UI thresholds were calibrated for.
func DefaultWeights() Weights {
	return Weights{Text: 0.7, Unit: 0.3}
}

// similarity is the normalized Damerau-Levenshtein similarity in [0,1].
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	d := damerauLevenshtein(a, b)
	m := len([]rune(a))
	if mb := len([]rune(b)); mb > m {
		m = mb
	}
	if m == 0 {
		return 1
	}
	return 1 - float64(d)/float64(m)
}

func tokenSortSimilarity(a, b string) float64 {
	return similarity(tokenSort(a), tokenSort(b))
}

// TextScore compares two already-normalized descriptions. Exact match is 1,
// a substring relation earns a small boost on top of the edit similarity, and
// word order does not matter thanks to the token-sorted pass.
func TextScore(queryNorm, targetNorm string) float64 {
	if queryNorm == targetNorm {
		return 1
	}
	s := similarity(queryNorm, targetNorm)
	if ts := tokenSortSimilarity(queryNorm, targetNorm); ts > s {
		s = ts
	}
	if queryNorm != "" && targetNorm != "" &&
		(strings.Contains(targetNorm, queryNorm) || strings.Contains(queryNorm, targetNorm)) {
		s += 0.1
		if s > 1 {
			s = 1
		}
	}
	return s
}

// unit compatibility classes: exact match wins, same class is near, a length
// unit against another length unit is plausible but needs review.
var (
	lengthUnits = map[string]bool{"m1": true, "m": true, "cm": true, "mm": true}
	areaUnits   = map[string]bool{"m2": true}
	countUnits  = map[string]bool{"stu": true}
	volumeUnits = map[string]bool{"m3": true}
	wonUnits    = map[string]bool{"won": true}
	roomUnits   = map[string]bool{"ruimte": true}
)

// UnitScore compares two unit spellings after canonicalization.
func UnitScore(queryUnit, targetUnit string) float64 {
	q := NormalizeUnit(queryUnit)
	t := NormalizeUnit(targetUnit)

	if q == t {
		return 1.0
	}
	switch {
	case lengthUnits[q] && lengthUnits[t]:
		return 0.7
	case areaUnits[q] && areaUnits[t],
		countUnits[q] && countUnits[t],
		volumeUnits[q] && volumeUnits[t],
		wonUnits[q] && wonUnits[t],
		roomUnits[q] && roomUnits[t]:
		return 0.9
	}
	return 0.0
}

// Combined blends text and unit scores per the configured weights.
func (w Weights) Combined(textScore, unitScore float64) float64 {
	return textScore*w.Text + unitScore*w.Unit
}
