package store

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
mode: DRY_RUN
database:
  host: localhost
  name: alpharai
  user: alpharai
telegram:
  enabled: true
  allowed_chats: [12345]
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("default database port = %d", cfg.Database.Port)
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("default redis port = %d", cfg.Redis.Port)
	}
	if cfg.Webhook.Addr != ":8080" {
		t.Errorf("default webhook addr = %q", cfg.Webhook.Addr)
	}
	if cfg.Bars.CacheSeconds != 60 {
		t.Errorf("default bar cache = %d", cfg.Bars.CacheSeconds)
	}
	if cfg.HistorySyncDays != 90 {
		t.Errorf("default history sync days = %d", cfg.HistorySyncDays)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad mode": `
mode: PAPER
database: {host: localhost, name: x}
telegram: {enabled: true}
`,
		"no database host": `
mode: LIVE
database: {name: x}
telegram: {enabled: true}
`,
		"no signal source": `
mode: LIVE
database: {host: localhost, name: x}
`,
		"webhook without path": `
mode: LIVE
database: {host: localhost, name: x}
webhook: {enabled: true}
`,
	}
	for name, body := range cases {
		if _, err := LoadConfig(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
