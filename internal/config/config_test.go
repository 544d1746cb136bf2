package config

import "testing"

// Deployments set secrets through the environment with no config.yaml on
// disk; every key must still come through Load.
func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/booking")
	t.Setenv("STATIC_TOKENS", "tok1,tok2")
	t.Setenv("JWT_HMAC_SECRET", "top-secret")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")

	cfg := Load()

	if cfg.DatabaseURL != "postgres://user:pass@db:5432/booking" {
		t.Errorf("DatabaseURL = %q, want env value", cfg.DatabaseURL)
	}
	if cfg.StaticTokens != "tok1,tok2" {
		t.Errorf("StaticTokens = %q, want env value", cfg.StaticTokens)
	}
	if cfg.JWTHMACSecret != "top-secret" {
		t.Errorf("JWTHMACSecret = %q, want env value", cfg.JWTHMACSecret)
	}
	if cfg.GoogleClientID != "client-id" {
		t.Errorf("GoogleClientID = %q, want env value", cfg.GoogleClientID)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.AppPort != "8080" {
		t.Errorf("AppPort = %q, want 8080", cfg.AppPort)
	}
	if cfg.OpTimeoutMS != 5000 {
		t.Errorf("OpTimeoutMS = %d, want 5000", cfg.OpTimeoutMS)
	}
	if cfg.OpenHour != 9 || cfg.CloseHour != 17 {
		t.Errorf("business hours = %d-%d, want 9-17", cfg.OpenHour, cfg.CloseHour)
	}
	if cfg.HorizonDays != 14 {
		t.Errorf("HorizonDays = %d, want 14", cfg.HorizonDays)
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("OP_TIMEOUT_MS", "2500")
	t.Setenv("APP_PORT", "9090")

	cfg := Load()

	if cfg.OpTimeoutMS != 2500 {
		t.Errorf("OpTimeoutMS = %d, want 2500", cfg.OpTimeoutMS)
	}
	if cfg.AppPort != "9090" {
		t.Errorf("AppPort = %q, want 9090", cfg.AppPort)
	}
}
