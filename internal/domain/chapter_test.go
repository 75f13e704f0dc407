package domain

import "testing"

func TestMatchesPostalCode(t *testing.T) {
	cases := []struct {
		name     string
		patterns string
		postal   string
		want     bool
	}{
		{"exact match", "1012", "1012 AB", true},
		{"exact miss", "1012", "1013 AB", false},
		{"range inside", "1000-1099", "1043XB", true},
		{"range edge", "1000-1099", "1099 ZZ", true},
		{"range outside", "1000-1099", "1100 AA", false},
		{"wildcard", "10*", "1043 XB", true},
		{"wildcard miss", "10*", "2011 CD", false},
		{"second pattern wins", "9700, 10*", "1043 XB", true},
		{"whitespace tolerated", " 1012 , 2000-2099 ", "2050", true},
		{"no digits", "1012", "ABCD", false},
		{"empty patterns", "", "1012 AB", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Chapter{PostalCodes: tc.patterns}
			if got := c.MatchesPostalCode(tc.postal); got != tc.want {
				t.Fatalf("MatchesPostalCode(%q, %q) = %v, want %v", tc.patterns, tc.postal, got, tc.want)
			}
		})
	}
}
