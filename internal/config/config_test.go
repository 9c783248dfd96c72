package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reelgraph.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[db]
path = "social.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.Path != "social.db" {
		t.Errorf("db.path = %q", cfg.DB.Path)
	}
	if cfg.Recommend.Cap != 5 {
		t.Errorf("default cap = %d, want 5", cfg.Recommend.Cap)
	}
	if cfg.Recommend.LikedWindow != 5 {
		t.Errorf("default liked_window = %d, want 5", cfg.Recommend.LikedWindow)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
[db]
path = "social.db"
busy_timeout_ms = 5000

[recommend]
cap = 3
liked_window = 10
exclude_usernames = ["bot-*", "*-test"]
rate_per_minute = 120
rate_burst = 20

[observability]
metrics_addr = "127.0.0.1:9190"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Recommend.Cap != 3 {
		t.Errorf("cap = %d", cfg.Recommend.Cap)
	}
	globs := cfg.ExcludeGlobs()
	if len(globs) != 2 {
		t.Fatalf("expected 2 compiled globs, got %d", len(globs))
	}
	if !globs[0].Match("bot-recommender") {
		t.Error("bot-* should match bot-recommender")
	}
	if globs[0].Match("robot") {
		t.Error("bot-* should not match robot")
	}
	if cfg.Observability.MetricsAddr != "127.0.0.1:9190" {
		t.Errorf("metrics_addr = %q", cfg.Observability.MetricsAddr)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"zero cap": `
[db]
path = "social.db"
[recommend]
cap = 0
`,
		"bad glob": `
[db]
path = "social.db"
[recommend]
exclude_usernames = ["[unclosed"]
`,
		"empty db path": `
[db]
path = ""
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
