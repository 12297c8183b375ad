package config

import (
	"testing"
	"time"
)

func TestLoadClientConfigDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	t.Setenv("HTTP_ADDR", "")
	cfg, err := LoadClientConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackendURL != "http://localhost:8080" {
		t.Fatalf("expected same-origin backend, got %q", cfg.BackendURL)
	}
	if cfg.DefaultPickup.Lat != 37.7749 || cfg.DefaultPickup.Lng != -122.4194 {
		t.Fatalf("unexpected pickup %+v", cfg.DefaultPickup)
	}
	if cfg.DefaultDropoff.Lat != 37.7849 || cfg.DefaultDropoff.Lng != -122.4094 {
		t.Fatalf("unexpected dropoff %+v", cfg.DefaultDropoff)
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.BackendTimeout)
	}
}

func TestLoadClientConfigOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://api.example.com/")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("MIGRATE", "TRUE")
	cfg, err := LoadClientConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackendURL != "https://api.example.com" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.BackendURL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if !cfg.RunMigrations {
		t.Fatal("expected migrations enabled")
	}
}

func TestLoadClientConfigCollectsErrors(t *testing.T) {
	t.Setenv("BACKEND_TIMEOUT", "soon")
	t.Setenv("PICKUP_LAT", "north")
	if _, err := LoadClientConfig(); err == nil {
		t.Fatal("expected error for invalid values")
	}
}

func TestSameOrigin(t *testing.T) {
	cases := map[string]string{
		":8080":          "http://localhost:8080",
		"127.0.0.1:9000": "http://127.0.0.1:9000",
		"0.0.0.0:80":     "http://localhost:80",
		"bogus":          "http://localhost",
	}
	for in, want := range cases {
		if got := sameOrigin(in); got != want {
			t.Errorf("sameOrigin(%q) = %q, want %q", in, got, want)
		}
	}
}
