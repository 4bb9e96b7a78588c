package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalYAML = `
bus:
  bootstrap: localhost:9092
  groupId: test-group
  topics:
    - notifications.fraud-alert
resolver:
  type: mock
retry:
  onExhausted: log
health:
  port: 8081
`

func TestLoad_AppliesDefaultsAndOverrides(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bus.GroupID != "test-group" {
		t.Fatalf("expected overridden groupId, got %q", cfg.Bus.GroupID)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("expected default maxAttempts=3, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BackoffFactor != 2.0 {
		t.Fatalf("expected default backoffFactor=2.0, got %f", cfg.Retry.BackoffFactor)
	}
}

func TestLoad_MissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_KafkaExhaustedWithoutDLQTopicIsRejected(t *testing.T) {
	body := strings.Replace(minimalYAML, "retry:\n  onExhausted: log\n", "retry:\n  onExhausted: kafka\n  dlqTopic: \"\"\n", 1)
	path := writeTempConfig(t, body)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error when onExhausted=kafka has no dlqTopic")
	}
}

func TestLoad_KafkaExhaustedWithDLQTopicIsAccepted(t *testing.T) {
	body := strings.Replace(minimalYAML, "retry:\n  onExhausted: log\n", "retry:\n  onExhausted: kafka\n  dlqTopic: notifications.dlq\n", 1)
	path := writeTempConfig(t, body)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Retry.DLQTopic != "notifications.dlq" {
		t.Fatalf("expected dlqTopic to be set, got %q", cfg.Retry.DLQTopic)
	}
}

func TestLoad_InvalidResolverTypeIsRejected(t *testing.T) {
	body := `
bus:
  bootstrap: localhost:9092
  groupId: test-group
  topics:
    - notifications.fraud-alert
resolver:
  type: carrier-pigeon
retry:
  onExhausted: log
health:
  port: 8081
`
	path := writeTempConfig(t, body)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for unknown resolver type")
	}
}

func TestProviderConfig_CredFallsBackToEnv(t *testing.T) {
	t.Setenv("TEST_SENDGRID_KEY", "from-env")
	p := ProviderConfig{Credentials: map[string]string{}}

	if got := p.Cred("apiKey", "TEST_SENDGRID_KEY"); got != "from-env" {
		t.Fatalf("expected env fallback, got %q", got)
	}

	p.Credentials["apiKey"] = "from-yaml"
	if got := p.Cred("apiKey", "TEST_SENDGRID_KEY"); got != "from-yaml" {
		t.Fatalf("expected yaml value to win, got %q", got)
	}
}

func TestActiveProviders_FiltersDisabled(t *testing.T) {
	cfg := Config{}
	cfg.Channels.Email.Providers = []ProviderConfig{
		{Name: "sendgrid", Enabled: true},
		{Name: "ses", Enabled: false},
		{Name: "postmark", Enabled: true},
	}

	active := cfg.ActiveEmailProviders()
	if len(active) != 2 {
		t.Fatalf("expected 2 active providers, got %d", len(active))
	}
	if active[0].Name != "sendgrid" || active[1].Name != "postmark" {
		t.Fatalf("expected order preserved, got %+v", active)
	}
}
