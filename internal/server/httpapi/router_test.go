package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	h := NewRouter(prometheus.NewRegistry(), nil, logging.Nop())

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestReadyz(t *testing.T) {
	up := PingerFunc(func(context.Context) error { return nil })
	down := PingerFunc(func(context.Context) error { return errors.New("refused") })

	tests := []struct {
		name     string
		checks   map[string]Pinger
		wantCode int
		want     map[string]string
	}{
		{"no deps", nil, http.StatusOK, map[string]string{}},
		{"all up", map[string]Pinger{"postgres": up, "redis": up}, http.StatusOK, map[string]string{"postgres": "up", "redis": "up"}},
		{"one down", map[string]Pinger{"postgres": up, "redis": down}, http.StatusServiceUnavailable, map[string]string{"postgres": "up", "redis": "down"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, NewRouter(prometheus.NewRegistry(), tt.checks, logging.Nop()), "/readyz")
			assert.Equal(t, tt.wantCode, rec.Code)

			var got map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewDocumentMetrics(reg).IncRequest("Ping", "OK")

	rec := get(t, NewRouter(reg, nil, logging.Nop()), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tipsync_documents_requests_total{code="OK",method="Ping"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	rec := get(t, NewRouter(prometheus.NewRegistry(), nil, logging.Nop()), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(lis.Addr().String(), NewRouter(prometheus.NewRegistry(), nil, logging.Nop()), logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
