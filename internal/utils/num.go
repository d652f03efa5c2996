package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var rxKeepNums = regexp.MustCompile(`[^\d.\-]`)

// ParseDecimal parses a price cell the way the given locale writes it.
// "nl": comma is the decimal separator, dot groups thousands ("1.234,50").
// "en": the other way around ("1,234.50"). Currency signs, regular and
// non-breaking spaces are ignored.
func ParseDecimal(s, locale string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	repl := strings.NewReplacer(" ", "", " ", "", " ", "", "\t", "", "€", "", "$", "")
	s = repl.Replace(s)

	if strings.ToLower(locale) == "nl" {
		// dots are thousands separators only when a decimal comma is present
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
