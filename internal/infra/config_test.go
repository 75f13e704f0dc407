package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PII_ENCRYPTION_KEY", "test-key")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_DIR", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.StorageDir != "./data" {
		t.Fatalf("StorageDir mismatch: got %q want %q", cfg.StorageDir, "./data")
	}
	if cfg.EBoekhoudenBaseURL != "https://api.e-boekhouden.nl" {
		t.Fatalf("EBoekhoudenBaseURL mismatch: got %q", cfg.EBoekhoudenBaseURL)
	}
	if cfg.WorkerPollInterval != 5*time.Second {
		t.Fatalf("WorkerPollInterval mismatch: got %v", cfg.WorkerPollInterval)
	}
	if cfg.DBMaxConns != 10 {
		t.Fatalf("DBMaxConns mismatch: got %d", cfg.DBMaxConns)
	}
	if cfg.SMTPConfigured() {
		t.Fatal("SMTPConfigured should be false without SMTP_ADDR")
	}
}

func TestLoadConfigParsesCORSOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PII_ENCRYPTION_KEY", "test-key")
	t.Setenv("CORS_ORIGINS", "https://leden.example.org, https://portal.example.org ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := []string{"https://leden.example.org", "https://portal.example.org"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %#v, want %#v", cfg.CORSOrigins, want)
	}
	for i := range want {
		if cfg.CORSOrigins[i] != want[i] {
			t.Fatalf("CORSOrigins[%d] = %q, want %q", i, cfg.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PII_ENCRYPTION_KEY", "test-key")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoadConfigRequiresEncryptionKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PII_ENCRYPTION_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing PII_ENCRYPTION_KEY")
	}
}

func TestLoadConfigSMTP(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PII_ENCRYPTION_KEY", "test-key")
	t.Setenv("SMTP_ADDR", "mail.example.org:587")
	t.Setenv("SMTP_FROM", "leden@example.org")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.SMTPConfigured() {
		t.Fatal("SMTPConfigured should be true")
	}
}
