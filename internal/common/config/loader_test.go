package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_BundleDefaults(t *testing.T) {
	path := writeConfig(t, `
rules:
  source: bundle
  bundle_path: ./rules.yaml
`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30000, cfg.Rules.ViewTTL)
	assert.Equal(t, 300000, cfg.Rules.CacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, 5*time.Second, GetDuration(cfg.Server.ReadTimeout))
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_PG_HOST", "db.internal")
	path := writeConfig(t, `
database:
  postgres:
    host: ${TEST_PG_HOST}
    database: forms
    user: app
rules:
  source: postgres
`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "host=db.internal port=5432")
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "postgres without host",
			body:    "rules:\n  source: postgres\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "bundle without path",
			body:    "rules:\n  source: bundle\n",
			wantErr: "rules.bundle_path is required",
		},
		{
			name:    "unknown source",
			body:    "rules:\n  source: mongo\n",
			wantErr: "rules.source must be",
		},
		{
			name:    "cache without redis",
			body:    "rules:\n  source: bundle\n  bundle_path: x.yaml\n  cache_enabled: true\n",
			wantErr: "database.redis.address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
