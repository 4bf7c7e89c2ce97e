package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Set required env vars
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Database.Name != "sheltersync" {
		t.Errorf("Database.Name: got %q, want %q", cfg.Database.Name, "sheltersync")
	}
	if cfg.Auth.AccessTokenExpiry != 15*time.Minute {
		t.Errorf("AccessTokenExpiry: got %v, want %v", cfg.Auth.AccessTokenExpiry, 15*time.Minute)
	}
	if cfg.Auth.MaxLoginAttempts != 5 {
		t.Errorf("MaxLoginAttempts: got %d, want 5", cfg.Auth.MaxLoginAttempts)
	}
	if cfg.Auth.LockoutDuration != 15*time.Minute {
		t.Errorf("LockoutDuration: got %v, want %v", cfg.Auth.LockoutDuration, 15*time.Minute)
	}
	if cfg.Auth.ResetTokenExpiry != 10*time.Minute {
		t.Errorf("ResetTokenExpiry: got %v, want %v", cfg.Auth.ResetTokenExpiry, 10*time.Minute)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("MAX_LOGIN_ATTEMPTS", "3")
	os.Setenv("LOCKOUT_DURATION", "30m")
	os.Setenv("CLIENT_URL", "https://app.sheltersync.example")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.MaxLoginAttempts != 3 {
		t.Errorf("MaxLoginAttempts: got %d, want 3", cfg.Auth.MaxLoginAttempts)
	}
	if cfg.Auth.LockoutDuration != 30*time.Minute {
		t.Errorf("LockoutDuration: got %v, want %v", cfg.Auth.LockoutDuration, 30*time.Minute)
	}
	if cfg.Email.ClientURL != "https://app.sheltersync.example" {
		t.Errorf("ClientURL: got %q", cfg.Email.ClientURL)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing JWT_SECRET")
	}
}

func TestLoad_MissingDBPassword(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing DB_PASSWORD")
	}
}

func TestLoad_WeakJWTSecretRejectedInProduction(t *testing.T) {
	os.Setenv("JWT_SECRET", "short")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ENV", "production")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for weak JWT_SECRET in production")
	}
}
