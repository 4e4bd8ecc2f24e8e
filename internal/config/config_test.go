package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.RoleClaim != "https://clinrec.app/roles" {
		t.Errorf("RoleClaim = %q", cfg.RoleClaim)
	}
	if cfg.DefaultClinicID != "default" {
		t.Errorf("DefaultClinicID = %q", cfg.DefaultClinicID)
	}
	if cfg.DefaultRole != "STAFF" {
		t.Errorf("DefaultRole = %q", cfg.DefaultRole)
	}
	if cfg.DatabaseURL == "" {
		t.Error("expected local development DATABASE_URL default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("AUTH_ISSUER", "https://idp.example.com")
	t.Setenv("AUTH_AUDIENCE", "https://api.clinrec.app")
	t.Setenv("ROLE_CLAIM", "custom_roles")
	t.Setenv("DEFAULT_CLINIC_ID", "main")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AuthIssuer != "https://idp.example.com" {
		t.Errorf("AuthIssuer = %q", cfg.AuthIssuer)
	}
	if cfg.RoleClaim != "custom_roles" {
		t.Errorf("RoleClaim = %q", cfg.RoleClaim)
	}
	if cfg.DefaultClinicID != "main" {
		t.Errorf("DefaultClinicID = %q", cfg.DefaultClinicID)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate_ProductionRequiresIssuer(t *testing.T) {
	cfg := &Config{Env: "production", AuthAudience: "aud"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when AUTH_ISSUER unset in production")
	}
	if !strings.Contains(err.Error(), "AUTH_ISSUER") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ProductionRequiresAudience(t *testing.T) {
	cfg := &Config{Env: "production", AuthIssuer: "https://idp.example.com"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when AUTH_AUDIENCE unset in production")
	}
}

func TestValidate_DevelopmentPermissive(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate in development: %v", err)
	}
}
