package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"notesapi/config"
	"notesapi/dto"
	"notesapi/enrichment"
	"notesapi/handler"
	"notesapi/model"
	"notesapi/repository"
	"notesapi/usecase"
	"notesapi/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSummarizer struct{}

func (staticSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	return "tl;dr", nil
}

type staticClassifier struct{}

func (staticClassifier) Classify(ctx context.Context, text string) (float64, error) {
	return 0.9, nil
}

type inlineEnqueuer struct{ worker *enrichment.Worker }

func (e inlineEnqueuer) Enqueue(ctx context.Context, task enrichment.Task) error {
	e.worker.Process(ctx, task)
	return nil
}

type tokenVerifier struct{}

func (tokenVerifier) Verify(ctx context.Context, token string) (*model.Identity, error) {
	if !strings.HasPrefix(token, "user:") {
		return nil, fmt.Errorf("%w: bad token", model.ErrUnauthorized)
	}
	id := strings.TrimPrefix(token, "user:")
	return &model.Identity{ID: id, DisplayName: "Name " + id}, nil
}

type alwaysReady struct{}

func (alwaysReady) Ready() bool { return true }

func setupRouter(t *testing.T, mode string, withVerifier bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.Auth.Mode = mode

	deps := Deps{
		Config:       cfg,
		NotesService: usecase.NewNotesService(store, inlineEnqueuer{enrichment.NewWorker(staticSummarizer{}, staticClassifier{}, store)}),
		Health:       handler.NewHealthHandler(store, alwaysReady{}, alwaysReady{}),
	}
	if withVerifier {
		deps.Verifier = tokenVerifier{}
	}
	return SetupRouter(deps)
}

func do(t *testing.T, r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestNotesEndToEnd(t *testing.T) {
	r := setupRouter(t, config.AuthStrict, true)

	w := do(t, r, http.MethodPost, "/notes", "user:alice", `{"title":"Trip","content":"Packed the bags"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.NoteResponse](t, w)
	assert.Equal(t, "alice", created.UserID)
	assert.Equal(t, "Name alice", created.UserName)
	require.NotNil(t, created.CreatedAt)
	assert.True(t, strings.HasSuffix(*created.CreatedAt, "Z"))

	w = do(t, r, http.MethodGet, fmt.Sprintf("/notes/%d", created.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[dto.NoteResponse](t, w)
	require.NotNil(t, got.Summarize)
	assert.Equal(t, "tl;dr", *got.Summarize)
	require.NotNil(t, got.Sentiment)
	assert.InDelta(t, 0.9, *got.Sentiment, 1e-9)

	w = do(t, r, http.MethodGet, "/notes", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[dto.NotesPageResponse](t, w)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
	assert.Contains(t, w.Body.String(), `"nextCursor":null`)
}

func TestUpdateSemantics(t *testing.T) {
	r := setupRouter(t, config.AuthStrict, true)

	w := do(t, r, http.MethodPost, "/notes", "user:alice", `{"title":"T","content":"C"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[dto.NoteResponse](t, w)
	path := fmt.Sprintf("/notes/%d", created.ID)

	// Another caller may edit, but ownership never changes.
	w = do(t, r, http.MethodPut, path, "user:bob", `{"title":"T2"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[dto.NoteResponse](t, w)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "C", updated.Content)
	assert.Equal(t, "alice", updated.UserID)
	assert.Equal(t, "Name alice", updated.UserName)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	w = do(t, r, http.MethodPut, path, "user:bob", `{"content":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode[dto.NoteResponse](t, w).Content)

	w = do(t, r, http.MethodPut, path, "user:bob", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "T2", decode[dto.NoteResponse](t, w).Title)

	w = do(t, r, http.MethodPut, path, "user:bob", fmt.Sprintf(`{"title":%q}`, strings.Repeat("a", 256)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, utils.CodeBadRequest, decode[utils.ErrorResponse](t, w).Error.Code)

	w = do(t, r, http.MethodPut, "/notes/999", "user:bob", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteNote(t *testing.T) {
	r := setupRouter(t, config.AuthStrict, true)

	w := do(t, r, http.MethodPost, "/notes", "user:alice", `{}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[dto.NoteResponse](t, w)
	assert.Equal(t, "", created.Title)
	path := fmt.Sprintf("/notes/%d", created.ID)

	w = do(t, r, http.MethodDelete, path, "user:alice", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(t, r, http.MethodDelete, path, "user:alice", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorEnvelopes(t *testing.T) {
	r := setupRouter(t, config.AuthStrict, true)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"bad cursor", http.MethodGet, "/notes?cursor=not-a-cursor", "", "", http.StatusBadRequest, utils.CodeBadCursor},
		{"bad limit", http.MethodGet, "/notes?limit=zero", "", "", http.StatusBadRequest, utils.CodeBadRequest},
		{"bad order", http.MethodGet, "/notes?order=up", "", "", http.StatusBadRequest, utils.CodeBadRequest},
		{"non numeric id", http.MethodGet, "/notes/abc", "", "", http.StatusNotFound, utils.CodeNotFound},
		{"missing note", http.MethodGet, "/notes/12345", "", "", http.StatusNotFound, utils.CodeNotFound},
		{"unknown route", http.MethodGet, "/nope", "", "", http.StatusNotFound, utils.CodeNotFound},
		{"no token", http.MethodPost, "/notes", "", `{}`, http.StatusUnauthorized, utils.CodeUnauthorized},
		{"bad token", http.MethodPost, "/notes", "forged", `{}`, http.StatusUnauthorized, utils.CodeUnauthorized},
		{"malformed json", http.MethodPost, "/notes", "user:a", `{"title":`, http.StatusBadRequest, utils.CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.token, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			env := decode[utils.ErrorResponse](t, w)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
			assert.Equal(t, w.Header().Get("X-Request-ID"), env.Error.TraceID)
		})
	}
}

func TestAuthModesWithoutVerifier(t *testing.T) {
	strict := setupRouter(t, config.AuthStrict, false)
	w := do(t, strict, http.MethodPost, "/notes", "", `{"title":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, utils.CodeAuthDisabled, decode[utils.ErrorResponse](t, w).Error.Code)

	// Reads stay open in strict mode.
	w = do(t, strict, http.MethodGet, "/notes", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	permissive := setupRouter(t, config.AuthPermissive, false)
	w = do(t, permissive, http.MethodPost, "/notes", "", `{"title":"x"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	note := decode[dto.NoteResponse](t, w)
	assert.Equal(t, "dev", note.UserID)
	assert.Equal(t, "Developer", note.UserName)
}

func TestPaginationThroughAPI(t *testing.T) {
	r := setupRouter(t, config.AuthStrict, true)

	for i := 0; i < 5; i++ {
		w := do(t, r, http.MethodPost, "/notes", "user:alice", fmt.Sprintf(`{"title":"n%d","content":"c"}`, i))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	var ids []int64
	path := "/notes?limit=2&order=asc"
	for {
		w := do(t, r, http.MethodGet, path, "", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		page := decode[dto.NotesPageResponse](t, w)
		for _, item := range page.Items {
			ids = append(ids, item.ID)
		}
		if !page.HasMore {
			break
		}
		require.NotNil(t, page.NextCursor)
		path = "/notes?limit=2&order=asc&cursor=" + *page.NextCursor
	}

	require.Len(t, ids, 5)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	r := setupRouter(t, config.AuthStrict, true)

	w := do(t, r, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = do(t, r, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "notesapi_http_requests_total")
}

func TestPanicsAreLoggedAndCounted(t *testing.T) {
	r := setupRouter(t, config.AuthStrict, true)
	r.GET("/boom", func(c *gin.Context) {
		panic("handler exploded")
	})

	w := do(t, r, http.MethodGet, "/boom", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var env utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, utils.CodeInternal, env.Error.Code)
	assert.Equal(t, w.Header().Get("X-Request-ID"), env.Error.TraceID)

	w = do(t, r, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `notesapi_http_requests_total{method="GET",path="/boom",status="500"}`)
}
