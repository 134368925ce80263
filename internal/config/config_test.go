package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BackendURL != DefaultConfig().BackendURL {
		t.Fatalf("BackendURL = %q, want %q", cfg.BackendURL, DefaultConfig().BackendURL)
	}
	if cfg.Port != 8080 {
		t.Fatalf("Port = %d, want 8080", cfg.Port)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"backend_url": "https://intents.example.org", "port": 9000}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BackendURL != "https://intents.example.org" {
		t.Fatalf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.Port != 9000 {
		t.Fatalf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.DisplayTimezone != "Europe/Oslo" {
		t.Fatalf("DisplayTimezone = %q, want default", cfg.DisplayTimezone)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"disabled_tools": ["intent_delete", "intent_update"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "intent_delete" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "intent_delete")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	globalConfig := `{"backend_url": "http://global:5000", "disabled_tools": ["intent_delete"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	projectDir := filepath.Join(repoRoot, ".intentdesk")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	repoConfig := `{"backend_url": "http://staging:5000", "disabled_tools": ["intent_update"]}`
	if err := os.WriteFile(filepath.Join(projectDir, "config.json"), []byte(repoConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.BackendURL != "http://staging:5000" {
		t.Errorf("BackendURL = %q, want project override", cfg.BackendURL)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.BackendURL != "http://localhost:5000" {
		t.Errorf("BackendURL = %q, want default", cfg.BackendURL)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestFindRepoConfig_InParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, ".intentdesk")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	configPath := filepath.Join(projectDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	if found := FindRepoConfig(subdir); found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}
	if found := FindRepoConfig(t.TempDir()); found != "" {
		t.Errorf("FindRepoConfig() = %q, want empty string", found)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{BackendURL: "http://a", Port: 8080}
	overlay := &Config{BackendURL: "http://b"}

	result := Merge(base, overlay)

	if result.BackendURL != "http://b" {
		t.Errorf("BackendURL = %q, want overlay", result.BackendURL)
	}
	if result.Port != 8080 {
		t.Errorf("Port = %d, want 8080 (base, overlay is zero)", result.Port)
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"intent_delete", " intent_update "}}
	overlay := &Config{DisabledTools: []string{"intent_update", "intent_create"}}

	result := Merge(base, overlay)

	if len(result.DisabledTools) != 3 {
		t.Errorf("DisabledTools = %v, want 3 merged entries", result.DisabledTools)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvBackendURL:     "http://env-backend:7000",
		EnvPort:           "9001",
		EnvTimezone:       "UTC",
		EnvRequestTimeout: "15s",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	if err := ApplyEnv(cfg, lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.BackendURL != "http://env-backend:7000" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.Port != 9001 {
		t.Errorf("Port = %d, want 9001", cfg.Port)
	}
	if cfg.Bind != "127.0.0.1" {
		t.Errorf("Bind = %q, want default kept", cfg.Bind)
	}
	if d, _ := cfg.Timeout(); d != 15*time.Second {
		t.Errorf("Timeout() = %v, want 15s", d)
	}

	env[EnvPort] = "eighty"
	if err := ApplyEnv(cfg, lookup); err == nil {
		t.Error("ApplyEnv() expected error for non-numeric port")
	}
}

func TestLoadEnvFiles(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env")
	if err := os.WriteFile(envPath, []byte("INTENTDESK_TEST_ONLY_VAR=from-dotenv\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("INTENTDESK_TEST_ONLY_VAR") })

	if err := LoadEnvFiles(filepath.Join(tmpDir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadEnvFiles() error = %v", err)
	}
	if got := os.Getenv("INTENTDESK_TEST_ONLY_VAR"); got != "from-dotenv" {
		t.Errorf("INTENTDESK_TEST_ONLY_VAR = %q, want %q", got, "from-dotenv")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "relative url", mutate: func(c *Config) { c.BackendURL = "/intent" }, wantErr: true},
		{name: "ftp url", mutate: func(c *Config) { c.BackendURL = "ftp://host" }, wantErr: true},
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, wantErr: true},
		{name: "unknown zone", mutate: func(c *Config) { c.DisplayTimezone = "Mars/Olympus" }, wantErr: true},
		{name: "bad timeout", mutate: func(c *Config) { c.RequestTimeout = "soon" }, wantErr: true},
		{name: "negative ttl", mutate: func(c *Config) { c.SessionTTL = "-1h" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDBPath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.DBPath("/base"); got != filepath.Join("/base", "devbackend.db") {
		t.Errorf("DBPath() = %q", got)
	}
	cfg.BackendDBPath = "/abs/intents.db"
	if got := cfg.DBPath("/base"); got != "/abs/intents.db" {
		t.Errorf("DBPath() = %q, want absolute path kept", got)
	}
}
