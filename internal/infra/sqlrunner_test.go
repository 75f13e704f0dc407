package infra

import (
	"strings"
	"testing"
)

func TestSplitMarker(t *testing.T) {
	query := "--sql 5e39081d-4b28-4685-b74c-a455002c9da3\nSELECT id FROM members WHERE id = $1"
	marker, stmt, err := splitMarker(query)
	if err != nil {
		t.Fatalf("splitMarker: %v", err)
	}
	if marker != "5e39081d-4b28-4685-b74c-a455002c9da3" {
		t.Fatalf("marker = %q", marker)
	}
	if !strings.HasPrefix(stmt, "SELECT id") {
		t.Fatalf("stmt = %q", stmt)
	}
}

func TestSplitMarkerRejectsUnmarkedSQL(t *testing.T) {
	for _, query := range []string{
		"SELECT 1",
		"-- sql 5e39081d-4b28-4685-b74c-a455002c9da3\nSELECT 1",
		"--sql not-a-uuid\nSELECT 1",
		"",
	} {
		if _, _, err := splitMarker(query); err == nil {
			t.Fatalf("splitMarker(%q) accepted unmarked sql", query)
		}
	}
}
