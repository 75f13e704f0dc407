package sepa

import "testing"

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"Müller-Lüdenscheidt", 70, "Muller-Ludenscheidt"},
		{"Jan & Zn.", 70, "Jan + Zn."},
		{"Café  “De Zon”", 70, "Cafe De Zon"},
		{"ledenbijdrage 2026/Q1", 140, "ledenbijdrage 2026/Q1"},
		{"  spaced   out  ", 70, "spaced out"},
		{"truncate me here", 11, "truncate me"},
		{"", 70, ""},
	}
	for _, c := range cases {
		if got := SanitizeText(c.in, c.max); got != c.want {
			t.Fatalf("SanitizeText(%q, %d) = %q, want %q", c.in, c.max, got, c.want)
		}
	}
}
