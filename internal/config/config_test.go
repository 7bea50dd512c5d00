package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// mockSecrets is a test double for the secret store.
type mockSecrets struct {
	values map[string]string
}

func (m mockSecrets) Get(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func writeTempConfig(t *testing.T, content string) *fileBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return newFileBackend(path)
}

// TestDefaults verifies all default values are applied when loading an empty config file.
func TestDefaults(t *testing.T) {
	b := writeTempConfig(t, `{}`)
	t.Setenv("CIVIC_ADMIN_TOKEN", "")

	cfg, err := loadWith(b, mockSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Recommend.TopN != 5 || cfg.Recommend.HistoryLimit != 20 {
		t.Errorf("Recommend = %+v, want top 5 / history 20", cfg.Recommend)
	}
	if cfg.CacheTTL() != 60*time.Second {
		t.Errorf("CacheTTL() = %v, want 60s", cfg.CacheTTL())
	}
	if cfg.RateLimit.Requests != 120 || cfg.RateLimitWindow() != time.Minute {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 500ms", cfg.PollInterval())
	}
	if !strings.HasSuffix(cfg.Storage.DataDir, "civic") {
		t.Errorf("Storage.DataDir = %q, want a civic directory", cfg.Storage.DataDir)
	}
}

// TestFileParsing verifies that fields are read from the JSON file.
func TestFileParsing(t *testing.T) {
	b := writeTempConfig(t, `{
  "server.port": 5000,
  "storage.data_dir": "/tmp/civic-test",
  "recommend.top_n": "3",
  "cache.ttl": "5m",
  "admin.token": "ignored-in-file"
}`)
	t.Setenv("CIVIC_ADMIN_TOKEN", "")

	cfg, err := loadWith(b, mockSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Storage.DataDir != "/tmp/civic-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Recommend.TopN != 3 {
		t.Errorf("Recommend.TopN = %d, want 3", cfg.Recommend.TopN)
	}
	if cfg.CacheTTL() != 5*time.Minute {
		t.Errorf("CacheTTL() = %v, want 5m", cfg.CacheTTL())
	}
	if cfg.Admin.Token != "" {
		t.Errorf("Admin.Token = %q, secrets must not come from the config file", cfg.Admin.Token)
	}
}

// TestEnvOverride verifies that environment variables override config file values.
func TestEnvOverride(t *testing.T) {
	b := writeTempConfig(t, `{"server.port": 5000}`)
	t.Setenv("CIVIC_SERVER_PORT", "6000")
	t.Setenv("CIVIC_ADMIN_TOKEN", "env-token")

	cfg, err := loadWith(b, mockSecrets{values: map[string]string{"admin.token": "file-token"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000", cfg.Server.Port)
	}
	if cfg.Admin.Token != "env-token" {
		t.Errorf("Admin.Token = %q, want env-token", cfg.Admin.Token)
	}
}

// TestSecretFallback verifies the secret store is consulted when the env var is unset.
func TestSecretFallback(t *testing.T) {
	b := writeTempConfig(t, `{}`)
	t.Setenv("CIVIC_ADMIN_TOKEN", "")

	cfg, err := loadWith(b, mockSecrets{values: map[string]string{"admin.token": " stored-token\n"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Admin.Token != "stored-token" {
		t.Errorf("Admin.Token = %q, want stored-token", cfg.Admin.Token)
	}
	if err := cfg.RequireAdminToken(); err != nil {
		t.Errorf("RequireAdminToken() = %v", err)
	}
}

// TestMissingAdminToken verifies a clear error when the token is missing everywhere.
func TestMissingAdminToken(t *testing.T) {
	b := writeTempConfig(t, `{}`)
	t.Setenv("CIVIC_ADMIN_TOKEN", "")

	cfg, err := loadWith(b, mockSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = cfg.RequireAdminToken()
	if err == nil || !strings.Contains(err.Error(), "missing required config") {
		t.Errorf("RequireAdminToken() = %v, want missing required config", err)
	}
}

func TestInvalidDuration(t *testing.T) {
	b := writeTempConfig(t, `{"ratelimit.window": "soon"}`)

	_, err := loadWith(b, mockSecrets{})
	if err == nil || !strings.Contains(err.Error(), "ratelimit.window") {
		t.Errorf("loadWith() error = %v, want invalid ratelimit.window", err)
	}
}

func TestSetKey(t *testing.T) {
	b := writeTempConfig(t, `{}`)

	if err := setKeyIn(b, "recommend.top_n", "8"); err != nil {
		t.Fatalf("setKeyIn: %v", err)
	}
	if err := setKeyIn(b, "recommend.top_n", "many"); err == nil {
		t.Error("expected error for non-integer value")
	}
	if err := setKeyIn(b, "admin.token", "x"); err == nil {
		t.Error("expected error for secret key")
	}
	if err := setKeyIn(b, "no.such.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}

	reloaded := newFileBackend(b.path)
	v, ok, err := reloaded.GetInt("recommend.top_n")
	if err != nil || !ok || v != 8 {
		t.Errorf("GetInt = %d, %v, %v; want 8", v, ok, err)
	}
}

func TestSetSecret(t *testing.T) {
	f := fileSecrets{path: filepath.Join(t.TempDir(), "secrets.json")}

	if err := setSecretIn(f, "server.port", "1"); err == nil {
		t.Error("expected error for non-secret key")
	}
	if err := setSecretIn(f, "admin.token", "s3cret"); err != nil {
		t.Fatalf("setSecretIn: %v", err)
	}
	got, err := f.Get("admin.token")
	if err != nil || got != "s3cret" {
		t.Errorf("Get = %q, %v; want s3cret", got, err)
	}

	info, err := os.Stat(f.path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("secrets file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Admin.Token = "hidden"
	for _, k := range ShowAll(cfg) {
		if k.Key == "admin.token" || k.Value == "hidden" {
			t.Errorf("ShowAll exposed secret: %+v", k)
		}
	}
	if len(ValidKeys()) != len(specs)-1 {
		t.Errorf("ValidKeys() = %v", ValidKeys())
	}
}
