package http_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/epw-weather-service/internal/adapter/http"
	"github.com/couchcryptid/epw-weather-service/internal/adapter/catalog"
	"github.com/couchcryptid/epw-weather-service/internal/epw"
	"github.com/couchcryptid/epw-weather-service/internal/observability"
	"github.com/couchcryptid/epw-weather-service/internal/pipeline"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockStations struct {
	stations []catalog.Station
	err      error
}

func (m *mockStations) List(_ context.Context) ([]catalog.Station, error) {
	return m.stations, m.err
}

func (m *mockStations) Get(_ context.Context, name string) (catalog.Station, error) {
	if m.err != nil {
		return catalog.Station{}, m.err
	}
	for _, s := range m.stations {
		if s.Name == name {
			return s, nil
		}
	}
	return catalog.Station{}, fmt.Errorf("%w: %s", catalog.ErrNotFound, name)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(opts httpadapter.Options) *httpadapter.Server {
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = 4
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewFakeClockAt(time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC))
	}
	return httpadapter.NewServer(":0", opts, discardLogger())
}

func chicagoBody(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../epw/testdata/chicago.epw")
	require.NoError(t, err)
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(httpadapter.Options{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(httpadapter.Options{Ready: &mockReadiness{}})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeBody(t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	ready := httpadapter.AllReady(&mockReadiness{}, &mockReadiness{err: fmt.Errorf("not ready yet")})
	srv := newTestServer(httpadapter.Options{Ready: ready})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(httpadapter.Options{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestConvert_WEA(t *testing.T) {
	srv := newTestServer(httpadapter.Options{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/convert/wea?name=chicago", bytes.NewReader(chicagoBody(t)))
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	lines := strings.Split(rec.Body.String(), "\n")
	assert.Equal(t, "place Chicago Ohare Intl Ap_USA", lines[0])
	assert.Equal(t, "1 1 11.500 148 57", lines[17])
}

func TestConvert_JSONRoundTrips(t *testing.T) {
	srv := newTestServer(httpadapter.Options{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/convert/JSON?name=chicago", bytes.NewReader(chicagoBody(t)))
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	f, err := epw.FromJSON(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "chicago", f.Name())
}

func TestConvert_CachesIdenticalUploads(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	srv := newTestServer(httpadapter.Options{Metrics: metrics})
	body := chicagoBody(t)

	var first, second string
	for i, dst := range []*string{&first, &second} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/convert/ddy", bytes.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		*dst = rec.Body.String()
	}
	assert.Equal(t, first, second)
	assert.Contains(t, first, "SizingPeriod:DesignDay")
}

func TestConvert_Errors(t *testing.T) {
	srv := newTestServer(httpadapter.Options{MaxUploadBytes: 64 << 10})
	tokyo, err := os.ReadFile("../../epw/testdata/tokyo.epw")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		body   []byte
		status int
	}{
		{"unknown format", "/v1/convert/pdf", []byte("x"), http.StatusBadRequest},
		{"empty body", "/v1/convert/wea", nil, http.StatusBadRequest},
		{"not an epw", "/v1/convert/wea", []byte("hello\n"), http.StatusUnprocessableEntity},
		{"too large", "/v1/convert/wea", chicagoBody(t), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, bytes.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}

	t.Run("ddy without design conditions", func(t *testing.T) {
		big := newTestServer(httpadapter.Options{})
		rec := httptest.NewRecorder()
		big.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/convert/ddy", bytes.NewReader(tokyo)))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/convert/wea", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/summary", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestSummary(t *testing.T) {
	srv := newTestServer(httpadapter.Options{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/summary?name=chicago", bytes.NewReader(chicagoBody(t))))

	require.Equal(t, http.StatusOK, rec.Code)
	var s pipeline.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, "chicago", s.Name)
	assert.Equal(t, "725300", s.Location.StationID)
	require.NotNil(t, s.CoolingDryBulb004)
	assert.InDelta(t, 33.3, *s.CoolingDryBulb004, 1e-9)
}

func TestStations(t *testing.T) {
	store := &mockStations{stations: []catalog.Station{
		{Name: "chicago", City: "Chicago Ohare Intl Ap"},
		{Name: "tokyo", City: "Tokyo"},
	}}
	srv := newTestServer(httpadapter.Options{Stations: store})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 2, decodeBody(t, rec)["count"], 0)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stations/tokyo", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tokyo", decodeBody(t, rec)["city"])

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stations/atlantis", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	store.err = fmt.Errorf("database is locked")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stations", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStations_UnroutedWithoutCatalog(t *testing.T) {
	srv := newTestServer(httpadapter.Options{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stations", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
