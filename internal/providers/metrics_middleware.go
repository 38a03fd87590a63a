package providers

import (
	"net/http"
	"time"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// otherEndpoint labels paths outside the API so scanners cannot grow the
// label set without bound.
const otherEndpoint = "other"

var apiEndpoints = map[string]struct{}{
	"/log":    {},
	"/day":    {},
	"/days":   {},
	"/rollup": {},
}

func endpointLabel(path string) string {
	if _, ok := apiEndpoints[path]; ok {
		return path
	}
	return otherEndpoint
}

// MetricsMiddleware records request counts and latency per API path and logs
// every request into the log file of its method. Server errors are logged at
// warn level.
func MetricsMiddleware(metrics MetricsProviderInterface, logger Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		endpoint := endpointLabel(r.URL.Path)
		metrics.IncRequestsTotal(endpoint, sw.status)
		metrics.ObserveRequestDuration(endpoint, duration)

		logType := GetLogTypeByRequestType(r.Method)
		if sw.status >= http.StatusInternalServerError {
			logger.Warnf(logType, "%s %s %d %s", r.Method, r.URL.RequestURI(), sw.status, duration)
			return
		}
		logger.Debugf(logType, "%s %s %d %s", r.Method, r.URL.RequestURI(), sw.status, duration)
	})
}
