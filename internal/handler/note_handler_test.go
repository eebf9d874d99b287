package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/proofnote/internal/ai"
	"github.com/xxxsen/proofnote/internal/backup"
	"github.com/xxxsen/proofnote/internal/backupstore"
	"github.com/xxxsen/proofnote/internal/chunker"
	"github.com/xxxsen/proofnote/internal/config"
	"github.com/xxxsen/proofnote/internal/correction"
	"github.com/xxxsen/proofnote/internal/db"
	"github.com/xxxsen/proofnote/internal/handler"
	"github.com/xxxsen/proofnote/internal/middleware"
	"github.com/xxxsen/proofnote/internal/pkg/errcode"
	"github.com/xxxsen/proofnote/internal/pkg/jwt"
	"github.com/xxxsen/proofnote/internal/repo"
	"github.com/xxxsen/proofnote/internal/service"
	"github.com/xxxsen/proofnote/internal/session"
)

var jwtSecret = []byte("test-secret")

type reviewFunc func(ctx context.Context, req ai.ReviewRequest) (string, error)

func (f reviewFunc) Review(ctx context.Context, req ai.ReviewRequest) (string, error) {
	return f(ctx, req)
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T, reviewer correction.Reviewer) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.ApplyMigrations(conn, "sqlite"))

	store, err := backupstore.New(config.BackupConfig{Type: "db"}, backupstore.Deps{Repo: repo.NewBackupRepo(conn, "sqlite")})
	require.NoError(t, err)
	pipeline := correction.NewPipeline(reviewer, correction.Config{Chunking: chunker.Options{Threshold: 4000, MaxChunkSize: 3000}})
	svc := service.NewCorrectionService(repo.NewDocumentRepo(conn, "sqlite"), pipeline, backup.NewCoordinator(store), session.NewRegistry())

	deps := handler.RouterDeps{
		Notes:     handler.NewNoteHandler(svc),
		JWTSecret: jwtSecret,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return engine
}

func call(t *testing.T, router http.Handler, method, path, token string, body interface{}) envelope {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, jwtSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func TestNoteCorrectionFlow(t *testing.T) {
	router := setupRouter(t, reviewFunc(func(context.Context, ai.ReviewRequest) (string, error) {
		return `{"corrections":[{"issue":"teh","location":"line 1","correction":"Change \"teh\" to \"the\""}],` +
			`"summary":"one typo","correctedText":"I saw the cat"}`, nil
	}))
	token := tokenFor(t, "u1")

	env := call(t, router, http.MethodPost, "/api/v1/notes", "", map[string]string{"title": "t", "content": "x"})
	require.Equal(t, errcode.ErrUnauthorized, env.Code)

	env = call(t, router, http.MethodPost, "/api/v1/notes", token, map[string]string{"title": "draft", "content": "I saw teh cat"})
	require.Equal(t, 0, env.Code)
	var note struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &note))
	require.NotEmpty(t, note.ID)
	base := "/api/v1/notes/" + note.ID

	env = call(t, router, http.MethodPost, base+"/corrections", token, nil)
	require.Equal(t, 0, env.Code)
	var review struct {
		Result struct {
			Corrections   []map[string]string `json:"corrections"`
			CorrectedText string              `json:"corrected_text"`
			Chunked       bool                `json:"chunked"`
		} `json:"result"`
		Diff             []map[string]interface{} `json:"diff"`
		PreviewEnabled   bool                     `json:"preview_enabled"`
		AutoApplyEnabled bool                     `json:"auto_apply_enabled"`
		Partial          bool                     `json:"partial"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &review))
	require.Len(t, review.Result.Corrections, 1)
	require.Equal(t, "I saw the cat", review.Result.CorrectedText)
	require.False(t, review.Result.Chunked)
	require.True(t, review.PreviewEnabled)
	require.True(t, review.AutoApplyEnabled)
	require.Len(t, review.Diff, 1)
	require.Equal(t, "changed", review.Diff[0]["kind"])

	env = call(t, router, http.MethodGet, base+"/corrections/status", token, nil)
	require.Equal(t, 0, env.Code)
	require.Contains(t, string(env.Data), `"state":"done"`)

	env = call(t, router, http.MethodGet, base+"/backup", token, nil)
	require.Equal(t, 0, env.Code)
	require.Contains(t, string(env.Data), `"has_backup":false`)

	env = call(t, router, http.MethodPost, base+"/corrections/apply", token, map[string]string{
		"original":  "I saw teh cat",
		"corrected": review.Result.CorrectedText,
	})
	require.Equal(t, 0, env.Code)
	var applied struct {
		OK       bool `json:"ok"`
		BackedUp bool `json:"backed_up"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &applied))
	require.True(t, applied.OK)
	require.True(t, applied.BackedUp)

	env = call(t, router, http.MethodGet, base, token, nil)
	require.Contains(t, string(env.Data), "I saw the cat")
	env = call(t, router, http.MethodGet, base+"/backup", token, nil)
	require.Contains(t, string(env.Data), `"has_backup":true`)

	env = call(t, router, http.MethodPost, base+"/backup/restore", token, nil)
	require.Equal(t, 0, env.Code)
	require.Contains(t, string(env.Data), "I saw teh cat")

	env = call(t, router, http.MethodPost, base+"/backup/restore", token, nil)
	require.Equal(t, errcode.ErrNoBackup, env.Code)

	env = call(t, router, http.MethodGet, base, tokenFor(t, "u2"), nil)
	require.Equal(t, errcode.ErrNotFound, env.Code)
}

func TestAnalyzeErrors(t *testing.T) {
	var reply func() (string, error)
	router := setupRouter(t, reviewFunc(func(context.Context, ai.ReviewRequest) (string, error) {
		return reply()
	}))
	token := tokenFor(t, "u1")
	env := call(t, router, http.MethodPost, "/api/v1/notes", token, map[string]string{"title": "draft", "content": "I saw teh cat"})
	var note struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &note))
	path := "/api/v1/notes/" + note.ID + "/corrections"

	reply = func() (string, error) { return "", &ai.OracleError{StatusCode: 401, Message: "bad key"} }
	env = call(t, router, http.MethodPost, path, token, nil)
	require.Equal(t, errcode.ErrOracle, env.Code)
	require.Contains(t, env.Msg, "bad key")

	reply = func() (string, error) { return "", &ai.OracleError{Message: "not configured", Err: ai.ErrUnavailable} }
	env = call(t, router, http.MethodPost, path, token, nil)
	require.Equal(t, errcode.ErrAIUnavailable, env.Code)

	reply = func() (string, error) { return "no json here", nil }
	env = call(t, router, http.MethodPost, path, token, nil)
	require.Equal(t, errcode.ErrParseFailed, env.Code)

	env = call(t, router, http.MethodPost, "/api/v1/notes/"+note.ID+"/corrections/apply", token, map[string]string{"corrected": ""})
	require.Equal(t, errcode.ErrInvalid, env.Code)
}
