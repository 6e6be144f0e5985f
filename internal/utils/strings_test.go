package utils

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"The Forest Hiker":   "the-forest-hiker",
		"  Sea   Explorer  ": "sea-explorer",
		"Tour #3 (2026)":     "tour-3-2026",
		"":                   "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
