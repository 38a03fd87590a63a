package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"watchtime/internal/controllers"
	"watchtime/internal/services"
	"watchtime/internal/structures"
	"watchtime/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routeTestController(t *testing.T) *controllers.ApiController {
	t.Helper()
	conf := &structures.Config{
		Aggregation: structures.AggregationConfig{
			Mode:         structures.ModeAdditive,
			Timezone:     "UTC",
			QueueSize:    4,
			WriteTimeout: time.Second,
			MaxRangeDays: 31,
		},
	}
	store := testutil.NewMockStore()
	logger := &testutil.MockLogger{}
	engine := services.NewAggregationService(conf, store, logger, &testutil.MockMetrics{})
	t.Cleanup(engine.Stop)
	return controllers.NewApiController(logger, engine, services.NewReportService(conf, store), testutil.NewMockCache())
}

func TestInitRoutes_RegistersEndpoints(t *testing.T) {
	router := InitRoutes(routeTestController(t))
	routes := router.GetRoutes()

	urls := make([]string, len(routes))
	for i, r := range routes {
		urls[i] = r.Url
	}

	require.Len(t, routes, 4)
	assert.ElementsMatch(t, []string{"/log", "/day", "/days", "/rollup"}, urls)
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	router := InitRoutes(routeTestController(t))

	mux := http.NewServeMux()
	for _, r := range router.GetRoutes() {
		mux.Handle(r.Url, r.Handler)
	}

	cases := []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/log", http.StatusMethodNotAllowed},
		{http.MethodPost, "/day", http.StatusMethodNotAllowed},
		{http.MethodPut, "/days", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/rollup", http.StatusMethodNotAllowed},
		{http.MethodGet, "/day?date=2026-10-16", http.StatusOK},
		{http.MethodGet, "/days", http.StatusOK},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.target, nil))
		assert.Equal(t, tc.want, rr.Code, "%s %s", tc.method, tc.target)
	}
}
