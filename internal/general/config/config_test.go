package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "services:\n  transit:\n    port: 7000\n"))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Transport != TransportHTTP {
		t.Errorf("transport = %q, want http", cfg.Transport)
	}
	if cfg.Services.Transit.Port != 7000 || cfg.Services.Gateway.Port != 8080 {
		t.Errorf("unexpected ports: %+v", cfg.Services)
	}
	if cfg.Pipeline.NearbyCandidates != 50 || cfg.Pipeline.TopStations != 3 {
		t.Errorf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.Providers.Nominatim.Timeout != 5*time.Second {
		t.Errorf("nominatim timeout = %s", cfg.Providers.Nominatim.Timeout)
	}
	if cfg.JWT.SecretKey == "" {
		t.Error("expected a generated JWT secret")
	}
	if got := cfg.Services.Display.BaseURL(); got != "http://localhost:9091" {
		t.Errorf("display base url = %q", got)
	}
}

func TestLoadParsesDurations(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, `
pipeline:
  outbound_timeout: 250ms
  stage_ttl: 1m
providers:
  geofox:
    timeout: 3s
`))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Pipeline.OutboundTimeout != 250*time.Millisecond || cfg.Pipeline.StageTTL != time.Minute {
		t.Errorf("durations not parsed: %+v", cfg.Pipeline)
	}
	if cfg.Providers.Geofox.Timeout != 3*time.Second {
		t.Errorf("geofox timeout = %s", cfg.Providers.Geofox.Timeout)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("GEOFOX_USER", "env-user")
	t.Setenv("GEOFOX_PASSWORD", "env-secret")
	t.Setenv("RABBITMQ_PORT", "5673")

	cfg, err := LoadFromFile(writeConfig(t, "providers:\n  geofox:\n    user: file-user\n"))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Providers.Geofox.User != "env-user" || cfg.Providers.Geofox.Password != "env-secret" {
		t.Errorf("env not applied: %+v", cfg.Providers.Geofox)
	}
	if cfg.RabbitMQ.Port != 5673 {
		t.Errorf("rabbitmq port = %d", cfg.RabbitMQ.Port)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"unknown transport": {"transport: carrier-pigeon\n", "Transport"},
		"amqp without credentials": {"transport: amqp\n", "rabbitmq.user is required"},
		"top stations above candidates": {
			"pipeline:\n  nearby_candidates: 2\n  top_stations: 5\n",
			"pipeline.top_stations",
		},
		"port out of range": {"services:\n  display:\n    port: 70000\n", "Port"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
