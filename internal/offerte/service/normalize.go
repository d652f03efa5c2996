package service

import (
	"regexp"
	"sort"
	"strings"
)

// 0,5 -> 0.5
var decComma = regexp.MustCompile(`(\d),(\d)`)

// keep letters/digits/spaces plus . and % (dimensions like "2.40" and "10%")
var punct = regexp.MustCompile(`[^\p{L}\p{N}\s.%]+`)

// glue "40 mm" -> "40mm" so dimensions survive token operations as one token
const unitWord = `mm|cm|m2|m3|m1|m|stu|st|stuks|%`

var reAttachNumUnit = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)(\s*)(` + unitWord + `)\b`)

// unitSynonyms folds the spellings seen in opnames and prijzenboeken onto one
// canonical unit. Unknown units pass through unchanged.
var unitSynonyms = map[string]string{
	"m²":               "m2",
	"m2":               "m2",
	"vierkante meter":  "m2",
	"m¹":               "m1",
	"m1":               "m1",
	"meter":            "m1",
	"strekkende meter": "m1",
	"stu":              "stu",
	"stuks":            "stu",
	"st":               "stu",
	"stuk":             "stu",
	"pcs":              "stu",
	"cm":               "cm",
	"mm":               "mm",
	"won":              "won",
	"woning":           "won",
	"ruimte":           "ruimte",
	"m³":               "m3",
	"m3":               "m3",
	"kubieke meter":    "m3",
}

// NormalizeText is the canonical form used on both sides of a comparison:
// catalog descriptions at index build time, opname descriptions at match time.
// Lowercase, decimal comma to dot, punctuation to spaces, superscript units
// folded, number+unit pairs glued, whitespace collapsed.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	out := strings.ToLower(s)
	out = strings.NewReplacer("m²", "m2", "m³", "m3", "m¹", "m1", " ", " ", " ", " ").Replace(out)
	out = decComma.ReplaceAllString(out, "$1.$2")
	out = collapseSpaces(punct.ReplaceAllString(out, " "))
	out = attachNumberUnits(out)
	return strings.TrimSpace(out)
}

// NormalizeUnit maps a unit spelling onto its canonical form.
func NormalizeUnit(s string) string {
	u := strings.ToLower(strings.TrimSpace(s))
	if canon, ok := unitSynonyms[u]; ok {
		return canon
	}
	return u
}

// glue number+unit iteratively across the whole string
func attachNumberUnits(s string) string {
	prev := ""
	out := collapseSpaces(s)
	for out != prev {
		prev = out
		out = reAttachNumUnit.ReplaceAllString(out, "$1$3")
		out = collapseSpaces(out)
	}
	return out
}

// tokenSort makes comparison stable against word order
// ("schilderen muur" == "muur schilderen").
func tokenSort(s string) string {
	if s == "" {
		return s
	}
	t := strings.Fields(s)
	sort.Strings(t)
	return strings.Join(t, " ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
