package config

import "testing"

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is empty")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("ALERT_EMAIL_RECIPIENTS", "sales@example.com")
	t.Setenv("PHONE_DEFAULT_REGION", "nl")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("MINIO_ENDPOINT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.HTTPAddr)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example" {
		t.Errorf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.GetPhoneDefaultRegion() != "NL" {
		t.Errorf("expected upper-cased region, got %q", cfg.GetPhoneDefaultRegion())
	}
	if cfg.IsSMTPEnabled() {
		t.Errorf("smtp should be disabled without host")
	}
	if cfg.IsMinIOEnabled() {
		t.Errorf("minio should be disabled without endpoint")
	}
}

func TestLoadRejectsWildcardWithCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for wildcard origin with credentials")
	}
}
