package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": content}}},
		})
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, dir, baseURL string, threshold, maxChunk int) string {
	t.Helper()
	cfg := fmt.Sprintf(`{
  "log_config": {"level": "error"},
  "ai": {"providers": [{"name": "openai", "model": "gpt", "data": {"api_key": "key", "base_url": %q}}]},
  "correction": {"chunk_threshold": %d, "max_chunk_size": %d}
}`, baseURL, threshold, maxChunk)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func runCheck(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newCheckCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestCheckApplyRefusesSectionedReview(t *testing.T) {
	dir := t.TempDir()
	srv := chatServer(t, `{"corrections":[{"issue":"teh","location":"line 1","correction":"Change \"teh\" to \"the\""}],"summary":"typo"}`)
	configPath := writeConfig(t, dir, srv.URL, 100, 60)

	content := "The first paragraph says teh thing out loud for a while.\n\n" +
		"The second paragraph says teh thing again for a while."
	notePath := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(notePath, []byte(content), 0o644))

	out := runCheck(t, notePath, "--config", configPath, "--apply", "--backup-dir", filepath.Join(dir, "backups"))
	require.Contains(t, out, "apply the suggestions manually")
	require.NotContains(t, out, "applied corrections")

	data, err := os.ReadFile(notePath)
	require.NoError(t, err)
	require.Equal(t, content, string(data))
	_, err = os.Stat(filepath.Join(dir, "backups"))
	require.True(t, os.IsNotExist(err))
}

func TestCheckApplyWritesWholeDocumentReview(t *testing.T) {
	dir := t.TempDir()
	srv := chatServer(t, `{"corrections":[{"issue":"teh","location":"line 1","correction":"Change \"teh\" to \"the\""}],"correctedText":"It says the thing."}`)
	configPath := writeConfig(t, dir, srv.URL, 4000, 3000)

	notePath := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(notePath, []byte("It says teh thing."), 0o644))
	backupDir := filepath.Join(dir, "backups")

	out := runCheck(t, notePath, "--config", configPath, "--apply", "--backup-dir", backupDir)
	require.Contains(t, out, "applied corrections")
	data, err := os.ReadFile(notePath)
	require.NoError(t, err)
	require.Equal(t, "It says the thing.", string(data))

	restore := newRestoreCmd()
	restore.SetOut(&bytes.Buffer{})
	restore.SetArgs([]string{notePath, "--backup-dir", backupDir})
	require.NoError(t, restore.Execute())
	data, err = os.ReadFile(notePath)
	require.NoError(t, err)
	require.Equal(t, "It says teh thing.", string(data))
}
