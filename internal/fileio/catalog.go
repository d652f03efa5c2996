package fileio

import (
	"regexp"
	"strings"

	"offerte-service/internal/offerte/model"
	"offerte-service/internal/utils"
)

var rxHeaderClean = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normHeaderKey: lowercase, drop punctuation, collapse spaces.
func normHeaderKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", " ", " ", " ").Replace(s)
	s = rxHeaderClean.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveKey finds the actual column for a wanted name. Alternatives are
// separated with "|"; composite headers match by containment, so
// "OMSCHRIJVING VAKMAN MUTATIE" resolves for "omschrijving".
func resolveKey(rec map[string]string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	for _, a := range alts {
		if _, ok := rec[a]; ok {
			return a
		}
	}

	var nWantAll []string
	for _, a := range alts {
		nWantAll = append(nWantAll, normHeaderKey(a))
	}

	bestKey := ""
	bestScore := 0
	for k := range rec {
		nk := normHeaderKey(k)
		for _, n := range nWantAll {
			if nk == n {
				return k
			}
		}
		score := 0
		for _, n := range nWantAll {
			if n != "" && (strings.Contains(nk, n) || strings.Contains(n, nk)) {
				if len(n) > score {
					score = len(n)
				}
			}
		}
		if score > bestScore {
			bestScore, bestKey = score, k
		}
	}
	return bestKey
}

// Column aliases seen across prijzenboek exports.
const (
	colCode      = "code|codering|codering database"
	colDesc      = "omschrijving|omschrijving vakman|omschrijving vakman mutatie"
	colOfferDesc = "omschrijving offerte|omschrijving offerte mutatie"
	colUnit      = "eenheid"
	colMaterial  = "materiaal|materiaal per stuk"
	colLabor     = "uren|uren per stuk"
	colUnitPrice = "prijs per stuk|prijs"
	colTotExcl   = "totaal excl|totaal excl btw"
	colTotIncl   = "totaal incl|totaal incl btw"
)

// MapCatalogRows turns header-keyed rows into catalog entries. Rows that do
// not validate are reported individually; the rest of the batch survives.
// locale steers decimal parsing ("nl" or "en").
func MapCatalogRows(rows []map[string]string, locale string) ([]model.CatalogEntry, []model.RowError) {
	var entries []model.CatalogEntry
	var rowErrs []model.RowError

	for i, rec := range rows {
		get := func(want string) string {
			return strings.TrimSpace(rec[resolveKey(rec, want)])
		}
		num := func(want string) float64 {
			f, _ := utils.ParseDecimal(get(want), locale)
			return f
		}

		e := model.CatalogEntry{
			Code:             get(colCode),
			Description:      get(colDesc),
			OfferDescription: get(colOfferDesc),
			Unit:             strings.ToLower(get(colUnit)),
			Material:         num(colMaterial),
			Labor:            num(colLabor),
			UnitPrice:        num(colUnitPrice),
			PriceExcl:        num(colTotExcl),
			PriceIncl:        num(colTotIncl),
		}
		if e.Code == "" && e.Description == "" {
			continue // header echoes, separators
		}
		if err := e.Validate(); err != nil {
			rowErrs = append(rowErrs, model.RowError{Row: i + 1, Code: e.Code, Reason: err.Error()})
			continue
		}
		e.Derive()
		entries = append(entries, e)
	}
	return entries, rowErrs
}
