package internal

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lectern/internal/api"
	"github.com/starford/lectern/internal/docstore"
	"github.com/starford/lectern/internal/metrics"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/persist"
	"github.com/starford/lectern/internal/session"
	"github.com/starford/lectern/internal/workspace"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, cfg := range []StoreConfig{
		{Driver: DriverMemory},
		{Driver: DriverSQLite, SQLite: SQLiteConfig{Path: filepath.Join(dir, "lectern.db")}},
		{Driver: DriverFS, FS: FSConfig{Path: filepath.Join(dir, "notes")}},
	} {
		t.Run(cfg.Driver, func(t *testing.T) {
			store, err := openStore(ctx, cfg)
			require.NoError(t, err)
			defer store.Close()

			_, err = store.Tags().Create(ctx, models.Tag{Name: "go"})
			require.NoError(t, err)
			tags, err := store.Tags().List(ctx)
			require.NoError(t, err)
			assert.Len(t, tags, 1)
		})
	}

	_, err := openStore(ctx, StoreConfig{Driver: "nope"})
	assert.Error(t, err)
}

func TestBootstrap_LoadsWorkspace(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	_, err := store.Lectures().Create(ctx, models.Lecture{Title: "Go", Language: models.DefaultLanguage})
	require.NoError(t, err)

	var logs bytes.Buffer
	cfg := NewDefaultConfig()
	app := &application{config: cfg, store: store, logOut: &logs}

	rt, err := app.bootstrap(ctx)
	require.NoError(t, err)
	assert.Len(t, rt.ws.Lectures(), 1)
	assert.Contains(t, logs.String(), `"msg":"Workspace loaded"`)
}

func TestBootstrap_RequiresConfig(t *testing.T) {
	_, err := (&application{}).bootstrap(context.Background())
	assert.ErrorContains(t, err, "config is required")
}

func TestHTTPHandler(t *testing.T) {
	m := metrics.New()
	f := persist.New(docstore.NewMemory(), workspace.New(), persist.WithMetrics(m))
	h := newHTTPHandler(api.Deps{
		Facade:  f,
		Session: session.New(f, session.Template("")),
		Metrics: m,
	})

	for _, path := range []string{"/health/live", "/health/ready", "/api/notes", "/api/session"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "lectern_http_requests_total"),
		"api requests are counted")
}
