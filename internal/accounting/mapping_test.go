package accounting

import (
	"os"
	"path/filepath"
	"testing"

	"ledenbeheer/internal/domain"
)

const mappingYAML = `receivable: "1300"
bank: "1100"
dues: "8000"
donations:
  default: "8100"
  Campaign: "8110"
  Chapter: "8100"
`

func writeMapping(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounting.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}
	return path
}

func TestLoadMapping(t *testing.T) {
	m, err := LoadMapping(writeMapping(t, mappingYAML))
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if m.Receivable != "1300" || m.Bank != "1100" || m.Dues != "8000" {
		t.Fatalf("unexpected mapping: %+v", m)
	}
	if got := m.DonationLedger(domain.PurposeCampaign); got != "8110" {
		t.Fatalf("campaign ledger = %q", got)
	}
	if got := m.DonationLedger(domain.PurposeSpecificGoal); got != "8100" {
		t.Fatalf("unmapped purpose should fall back to default, got %q", got)
	}
}

func TestLoadMappingRejectsMissingCodes(t *testing.T) {
	_, err := LoadMapping(writeMapping(t, "receivable: \"1300\"\nbank: \"1100\"\n"))
	if err == nil {
		t.Fatal("expected validation error for missing dues code")
	}
}

func TestMappingCodesDeduplicates(t *testing.T) {
	m, err := LoadMapping(writeMapping(t, mappingYAML))
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	codes := m.Codes()
	seen := map[string]bool{}
	for _, c := range codes {
		if seen[c] {
			t.Fatalf("code %q listed twice", c)
		}
		seen[c] = true
	}
	// 1300, 1100, 8000, 8100, 8110; the Chapter entry reuses 8100.
	if len(codes) != 5 {
		t.Fatalf("got %d codes %v, want 5", len(codes), codes)
	}
}
