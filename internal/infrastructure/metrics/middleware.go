package metrics

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/asakaida/purosesu/internal/infrastructure/httputil"
)

// Middleware returns an HTTP middleware that records metrics for each
// request, keyed by the mux route template so path parameters do not
// explode the label space.
func Middleware(collector *Collector, exporter *PrometheusExporter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := routeTemplate(r)

			collector.RecordRequest(route)
			if exporter != nil {
				exporter.RecordRequest(route, r.Method)
			}

			rec := httputil.NewStatusRecorder(w)
			next.ServeHTTP(rec, r)

			duration := time.Since(start).Seconds()
			collector.RecordDuration(route, duration)
			if exporter != nil {
				exporter.RecordDuration(route, r.Method, duration)
			}

			if rec.Status >= http.StatusInternalServerError {
				collector.RecordError(route)
				if exporter != nil {
					exporter.RecordError(route, r.Method)
				}
			}
		})
	}
}

func routeTemplate(r *http.Request) string {
	if current := mux.CurrentRoute(r); current != nil {
		if tpl, err := current.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}
