package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"board/internal/storage/jsonfile"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := jsonfile.Open(filepath.Join(t.TempDir(), "board.json"), logger)
	require.NoError(t, err)

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>board</html>"), 0o644))

	return New(store, logger, staticDir)
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "local", body["provider"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestMeta(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/meta", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Len(t, body["statuses"], 5)
	assert.Len(t, body["priorities"], 5)
	assert.Len(t, body["types"], 4)
	assert.NotEmpty(t, body["users"])
}

func TestProject(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/project", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "VGR", decodeBody(t, rec)["key"])
}

func TestSprintValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/sprints", map[string]any{"name": "Sprint 3"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "startDate and endDate are required")

	rec = doRequest(t, srv, http.MethodPatch, "/api/sprints/sprint-1", map[string]any{"state": "paused"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPatch, "/api/sprints/sprint-99", map[string]any{"name": "renamed"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/api/sprints/sprint-99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssueValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/issues", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "title is required")

	rec = doRequest(t, srv, http.MethodPost, "/api/issues", map[string]any{
		"title":       "Too many points",
		"type":        "Bug",
		"status":      "Backlog",
		"priority":    "Low",
		"storyPoints": 150,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "storyPoints must be a number between 0 and 100")
}

func TestIssueFiltering(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/issues?status=To%20Do,Backlog", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	issues := decodeList(t, rec)
	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.Contains(t, []any{"To Do", "Backlog"}, issue["status"])
		assert.Contains(t, issue, "comments")
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/issues?search=login", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	issues = decodeList(t, rec)
	require.Len(t, issues, 1)
	assert.Equal(t, "VGR-1", issues[0]["id"])
}

func TestIssueLabelsAcceptCommaString(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/issues", map[string]any{
		"title":    "Comma labels",
		"type":     "Task",
		"status":   "Backlog",
		"priority": "Low",
		"labels":   "ui, backend ,",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, []any{"ui", "backend"}, body["labels"])
}

func TestEndToEndScenario(t *testing.T) {
	srv := newTestServer(t)

	// Create a sprint.
	rec := doRequest(t, srv, http.MethodPost, "/api/sprints", map[string]any{
		"name":      "Sprint 3 - Polish",
		"startDate": "2026-02-11",
		"endDate":   "2026-02-25",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	sprintID := decodeBody(t, rec)["id"].(string)
	require.NotEmpty(t, sprintID)

	// Create an issue inside it.
	rec = doRequest(t, srv, http.MethodPost, "/api/issues", map[string]any{
		"title":       "Polish the HUD",
		"type":        "Task",
		"status":      "To Do",
		"priority":    "Medium",
		"storyPoints": 1,
		"sprintId":    sprintID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	issue := decodeBody(t, rec)
	issueID := issue["id"].(string)
	assert.Equal(t, "VGR-4", issueID)
	assert.Equal(t, 1.0, issue["storyPoints"])

	// Move it across the board.
	rec = doRequest(t, srv, http.MethodPatch, "/api/issues/"+issueID, map[string]any{
		"status": "In Progress",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "In Progress", decodeBody(t, rec)["status"])

	// Comment on it.
	rec = doRequest(t, srv, http.MethodPost, "/api/issues/"+issueID+"/comments", map[string]any{
		"author": "Zara",
		"body":   "HUD margins fixed.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Delete the sprint; the issue is detached, not deleted.
	rec = doRequest(t, srv, http.MethodDelete, "/api/sprints/"+sprintID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	deleted := decodeBody(t, rec)
	assert.Equal(t, true, deleted["ok"])
	assert.Equal(t, sprintID, deleted["removedSprintId"])
	assert.GreaterOrEqual(t, deleted["affectedIssues"].(float64), 1.0)

	rec = doRequest(t, srv, http.MethodGet, "/api/issues/"+issueID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decodeBody(t, rec)
	assert.Equal(t, "", fetched["sprintId"])
	assert.Len(t, fetched["comments"], 1)

	// Delete the issue, then it is gone for good.
	rec = doRequest(t, srv, http.MethodDelete, "/api/issues/"+issueID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, issueID, decodeBody(t, rec)["removedId"])

	rec = doRequest(t, srv, http.MethodGet, "/api/issues/"+issueID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["error"])
}

func TestUnknownAPIPathIsJSON404(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "endpoint not found", decodeBody(t, rec)["error"])
}

func TestStaticFallbackServesIndex(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/board/some/route", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html>board</html>")
}

func TestMissingStaticDirDegradesToAPIOnly(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := jsonfile.Open(filepath.Join(t.TempDir(), "board.json"), logger)
	require.NoError(t, err)
	srv := New(store, logger, filepath.Join(t.TempDir(), "does-not-exist"))

	rec := doRequest(t, srv, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/anything", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
