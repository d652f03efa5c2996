package service

import "testing"

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and trim", "  Muur Schilderen  ", "muur schilderen"},
		{"collapse whitespace", "behang \t verwijderen", "behang verwijderen"},
		{"punctuation to spaces", "kozijn vervangen, incl. afwerking", "kozijn vervangen incl. afwerking"},
		{"superscript units folded", "wand 10 m² sauzen", "wand 10m2 sauzen"},
		{"decimal comma", "plint 2,40 plaatsen", "plint 2.40 plaatsen"},
		{"number unit glued", "rail 40 mm monteren", "rail 40mm monteren"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeText(tc.in); got != tc.want {
				t.Fatalf("NormalizeText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeTextDeterministic(t *testing.T) {
	in := "Gipsplaten wand plaatsen, 12 m²"
	first := NormalizeText(in)
	for i := 0; i < 5; i++ {
		if got := NormalizeText(in); got != first {
			t.Fatalf("normalization not deterministic: %q vs %q", got, first)
		}
	}
	// normalizing a normalized string is a no-op
	if got := NormalizeText(first); got != first {
		t.Fatalf("not idempotent: %q -> %q", first, got)
	}
}

func TestNormalizeUnit(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"m²", "m2"},
		{"M2", "m2"},
		{"vierkante meter", "m2"},
		{"strekkende meter", "m1"},
		{"meter", "m1"},
		{"stuks", "stu"},
		{"ST", "stu"},
		{"pcs", "stu"},
		{"woning", "won"},
		{"kubieke meter", "m3"},
		{"  m3 ", "m3"},
		{"uur", "uur"}, // unknown units pass through
	}
	for _, tc := range cases {
		if got := NormalizeUnit(tc.in); got != tc.want {
			t.Errorf("NormalizeUnit(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTokenSort(t *testing.T) {
	if got := tokenSort("schilderen muur"); got != "muur schilderen" {
		t.Fatalf("tokenSort = %q", got)
	}
	if got := tokenSort(""); got != "" {
		t.Fatalf("tokenSort empty = %q", got)
	}
}
