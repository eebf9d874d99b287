package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"ai": {"providers": [{"name": "gemini", "model": "gemini-2.0-flash", "data": {"api_key": "k"}}]}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateServer())
	require.Equal(t, 72, cfg.JWTTTLHours)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "proofnote.db", cfg.Database.DSN)
	require.Equal(t, 60, cfg.AI.Timeout)
	require.Equal(t, 4000, cfg.Correction.ChunkThreshold)
	require.Equal(t, 3000, cfg.Correction.MaxChunkSize)
	require.InDelta(t, 0.7, cfg.Correction.SimilarityThreshold, 1e-9)
	require.Equal(t, "db", cfg.Backup.Type)
	require.Equal(t, 0, cfg.Backup.RetentionDays)
	require.Equal(t, 60, cfg.SessionTTLMinutes)
	require.Equal(t, "0 3 * * *", cfg.Cron.BackupRetention)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "no providers", body: `{}`, want: "ai.providers"},
		{name: "provider without model", body: `{"ai":{"providers":[{"name":"openai"}]}}`, want: "model is required"},
		{name: "bad driver", body: `{"database":{"driver":"mysql"},"ai":{"providers":[{"name":"a","model":"b"}]}}`, want: "database.driver"},
		{name: "postgres without dsn", body: `{"database":{"driver":"postgres"},"ai":{"providers":[{"name":"a","model":"b"}]}}`, want: "database.dsn"},
		{name: "bad backup type", body: `{"backup":{"type":"ftp"},"ai":{"providers":[{"name":"a","model":"b"}]}}`, want: "backup.type"},
		{name: "chunk larger than threshold", body: `{"correction":{"chunk_threshold":100,"max_chunk_size":200},"ai":{"providers":[{"name":"a","model":"b"}]}}`, want: "max_chunk_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"ai":{"providers":[{"name":"a","model":"b"}]}}`))
	require.NoError(t, err)
	require.ErrorContains(t, cfg.ValidateServer(), "jwt_secret")
}
