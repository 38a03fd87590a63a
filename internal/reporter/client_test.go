package reporter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"watchtime/internal/models"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendPostsReport(t *testing.T) {
	var got models.Report
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/log", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"status":"queued"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.Send(context.Background(), &models.Report{Action: "logTime", Seconds: 5, Domain: "a.com", Title: "T1", Category: "Reels"})
	require.NoError(t, err)
	assert.Equal(t, models.Report{Action: "logTime", Seconds: 5, Domain: "a.com", Title: "T1", Category: "Reels"}, got)
}

func TestClient_SendNon2xxIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Send(context.Background(), &models.Report{Seconds: 1, Domain: "a.com"})
	assert.ErrorIs(t, err, ErrEndpointUnavailable)
}

func TestClient_SendConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	err := NewClient(addr, time.Second).Send(context.Background(), &models.Report{Seconds: 1, Domain: "a.com"})
	assert.ErrorIs(t, err, ErrEndpointUnavailable)
}

func TestClient_ReadEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/day":
			assert.Equal(t, "2026-10-16", r.URL.Query().Get("date"))
			w.Write([]byte(`{"total":15,"domains":{},"categories":{"Long Form":15}}`))
		case "/rollup":
			assert.Equal(t, "2026-10-01", r.URL.Query().Get("from"))
			assert.Equal(t, "2026-10-16", r.URL.Query().Get("to"))
			w.Write([]byte(`{"from":"2026-10-01","to":"2026-10-16","days":16,"total":70,"domains":{"a.com":70},"categories":{}}`))
		case "/days":
			w.Write([]byte(`["2026-10-15","2026-10-16"]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	ctx := context.Background()
	c := NewClient(srv.URL, time.Second)

	rec, err := c.Day(ctx, "2026-10-16")
	require.NoError(t, err)
	assert.Equal(t, int64(15), rec.Total)

	sum, err := c.Rollup(ctx, "2026-10-01", "2026-10-16")
	require.NoError(t, err)
	assert.Equal(t, int64(70), sum.Total)
	assert.Equal(t, 16, sum.Days)

	days, err := c.Days(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-10-15", "2026-10-16"}, days)
}

func TestClient_ErrorMessageSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid day-key \"x\""}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Day(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid day-key")
}

func TestClient_Reset(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.RequestURI())
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second)

	require.NoError(t, c.Reset(context.Background(), "2026-10-16"))
	require.NoError(t, c.Reset(context.Background(), ""))
	assert.Equal(t, []string{"DELETE /day?date=2026-10-16", "DELETE /days"}, calls)
}

func TestNewClient_AddsScheme(t *testing.T) {
	c := NewClient("127.0.0.1:8765/", 0)
	assert.Equal(t, "http://127.0.0.1:8765", c.base)
}
