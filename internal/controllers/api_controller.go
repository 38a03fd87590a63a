package controllers

import (
	"context"
	"errors"
	"net/http"
	"watchtime/internal/models"
	"watchtime/internal/providers"
	"watchtime/internal/services"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 64 << 10 // 64 KB

type ApiController struct {
	logger  providers.Logger
	engine  services.AggregationServiceInterface
	reports services.ReportServiceInterface
	cache   providers.CacheProviderInterface
}

type rollupResponse struct {
	*models.RangeSummary
	Breakdown         []models.DomainShare `json:"breakdown"`
	CategoryBreakdown []models.DomainShare `json:"categoryBreakdown"`
}

func NewApiController(logger providers.Logger, engine services.AggregationServiceInterface, reports services.ReportServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		engine:  engine,
		reports: reports,
		cache:   cache,
	}
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		writeRaw(w, http.StatusOK, data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.writeError(w, err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		ac.writeError(w, err)
		return
	}

	ac.cache.Set(cacheKey, gson)
	writeRaw(w, http.StatusOK, gson)
}

// ReceiveReport acknowledges as soon as the report is queued, never after
// the write.
func (ac *ApiController) ReceiveReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload models.Report
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("malformed report"))
		return
	}
	if err := ac.engine.Enqueue(r.Context(), &payload); err != nil {
		ac.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (ac *ApiController) GetDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = ac.reports.Today()
	}
	ac.serveFromCacheOrCompute(w, "day:"+date, func() (any, error) {
		return ac.reports.Day(r.Context(), date)
	})
}

func (ac *ApiController) GetRollup(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	today := ac.reports.Today()
	if from == "" {
		from = today
	}
	if to == "" {
		to = today
	}
	ac.serveFromCacheOrCompute(w, "rollup:"+from+":"+to, func() (any, error) {
		summary, err := ac.reports.Range(r.Context(), from, to)
		if err != nil {
			return nil, err
		}
		return &rollupResponse{
			RangeSummary:      summary,
			Breakdown:         summary.Breakdown(),
			CategoryBreakdown: summary.CategoryBreakdown(),
		}, nil
	})
}

func (ac *ApiController) GetDays(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "days", func() (any, error) {
		return ac.reports.Days(r.Context())
	})
}

func (ac *ApiController) ResetDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("date is required"))
		return
	}
	if err := ac.engine.ResetDay(r.Context(), date); err != nil {
		ac.writeError(w, err)
		return
	}
	ac.cache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) ResetAll(w http.ResponseWriter, r *http.Request) {
	if err := ac.engine.ResetAll(r.Context()); err != nil {
		ac.writeError(w, err)
		return
	}
	ac.cache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		ac.logger.Errorf(providers.TypeApp, "Request failed: %s", err)
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidReport),
		errors.Is(err, models.ErrInvalidDayKey),
		errors.Is(err, models.ErrRangeTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrQueueClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, gson)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
