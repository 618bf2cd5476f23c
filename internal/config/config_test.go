package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/nutridash")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.FoodFinderCity != "braga-norte" {
		t.Errorf("expected default city braga-norte, got %q", cfg.FoodFinderCity)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
}

func TestValidate_MissingFoodFinderURL(t *testing.T) {
	cfg := &Config{FoodFinderCity: "braga-norte"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing FOOD_FINDER_URL")
	}
}

func TestValidate_BadFoodFinderScheme(t *testing.T) {
	cfg := &Config{FoodFinderURL: "ftp://somewhere", FoodFinderCity: "braga-norte"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http URL")
	}
}

func TestValidate_ProductionRequiresAuthSecret(t *testing.T) {
	cfg := &Config{
		Env:            "production",
		FoodFinderURL:  "http://127.0.0.1:5001",
		FoodFinderCity: "braga-norte",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing AUTH_SECRET in production")
	}
	cfg.AuthSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
