package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackStore(t *testing.T) {
	m := New()

	m.TrackStore("note", "create")(nil)
	m.TrackStore("note", "create")(errors.New("boom"))
	m.TrackStore("note", "create")(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("note", "create", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("note", "create", ResultFailed)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.TrackStore("note", "update")(nil)
	m.SessionCommit("save", ResultOK)
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.SSEClientDelta(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.SessionCommit("blur", ResultSkipped)
	m.ObserveHTTP("GET", "/api/notes", 200, 5*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	text := string(body)
	assert.True(t, strings.Contains(text, `lectern_session_commits_total{result="skipped",trigger="blur"} 1`), text)
	assert.Contains(t, text, `lectern_http_requests_total{method="GET",route="/api/notes",status="200"} 1`)
}
