package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalagman/foreman/internal/db"
	"github.com/metalagman/foreman/internal/model"
)

func seedStore(t *testing.T) (*db.Store, string) {
	t.Helper()
	handle, err := db.Open(filepath.Join(t.TempDir(), "foreman.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	store := db.NewStore(handle)
	runID := db.NewRunID()
	ctx := context.Background()
	require.NoError(t, store.CreateRun(ctx, runID, "add a parser"))

	summary := model.NewRunSummary("add a parser", []model.TaskResult{{
		TaskID:         1,
		Description:    "add parser",
		TargetLocation: "pkg/parser.py",
		Success:        true,
		AttemptsUsed:   1,
		Implementation: model.Implementation{TaskID: 1, Code: "def parse(raw: str) -> dict:\n    \"\"\"Parse raw input.\"\"\"\n    return {}\n"},
	}})
	require.NoError(t, store.FinishRun(ctx, runID, summary))
	return store, runID
}

func TestIndexListsRuns(t *testing.T) {
	t.Parallel()

	store, runID := seedStore(t)
	server, err := NewServer(store)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), runID)
	assert.Contains(t, rec.Body.String(), "add a parser")
	assert.Contains(t, rec.Body.String(), "succeeded")
}

func TestRunPageShowsTaskResults(t *testing.T) {
	t.Parallel()

	store, runID := seedStore(t)
	server, err := NewServer(store)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+runID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "add parser")
	assert.Contains(t, rec.Body.String(), "pkg/parser.py")
	assert.Contains(t, rec.Body.String(), "def parse")
}
