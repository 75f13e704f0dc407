package accounting

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ledenbeheer/internal/domain"
)

// Mapping holds the ledger codes journal entries are booked against.
// Codes refer to the remote chart of accounts; the syncer resolves
// them to ledger ids at run time.
type Mapping struct {
	Receivable string            `yaml:"receivable"`
	Bank       string            `yaml:"bank"`
	Dues       string            `yaml:"dues"`
	Donations  map[string]string `yaml:"donations"`
}

// LoadMapping reads the ledger mapping from a YAML file.
func LoadMapping(path string) (*Mapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("accounting mapping: %w", err)
	}
	var m Mapping
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("accounting mapping: parsing %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("accounting mapping: %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks that every required ledger code is present.
func (m *Mapping) Validate() error {
	if strings.TrimSpace(m.Receivable) == "" {
		return fmt.Errorf("receivable ledger code is required")
	}
	if strings.TrimSpace(m.Bank) == "" {
		return fmt.Errorf("bank ledger code is required")
	}
	if strings.TrimSpace(m.Dues) == "" {
		return fmt.Errorf("dues ledger code is required")
	}
	if strings.TrimSpace(m.Donations["default"]) == "" {
		return fmt.Errorf("donations.default ledger code is required")
	}
	return nil
}

// DonationLedger returns the ledger code for a donation purpose,
// falling back to the default when no earmarked code is configured.
func (m *Mapping) DonationLedger(purpose domain.DonationPurpose) string {
	if code, ok := m.Donations[string(purpose)]; ok && strings.TrimSpace(code) != "" {
		return code
	}
	return m.Donations["default"]
}

// Codes lists every distinct ledger code in the mapping.
func (m *Mapping) Codes() []string {
	seen := map[string]bool{}
	var codes []string
	add := func(code string) {
		code = strings.TrimSpace(code)
		if code == "" || seen[code] {
			return
		}
		seen[code] = true
		codes = append(codes, code)
	}
	add(m.Receivable)
	add(m.Bank)
	add(m.Dues)
	for _, code := range m.Donations {
		add(code)
	}
	return codes
}
