package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdholdren/pageturn/internal/pageturn"
	"github.com/jdholdren/pageturn/internal/paginate"
)

const namespace = "pageturn"

type metrics struct {
	requests *prometheus.CounterVec
	pages    *prometheus.CounterVec
	fetches  *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_served_total",
			Help:      "Pages served, by how the window was located.",
		}, []string{"strategy"}),
		fetches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent locating a window in the store.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy", "outcome"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.pages, m.fetches} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// instrument times every fetch and counts the pages served.
func (m *metrics) instrument(f paginate.Fetcher[pageturn.Item]) paginate.Fetcher[pageturn.Item] {
	return paginate.FetcherFunc[pageturn.Item](func(ctx context.Context, req paginate.Request) (paginate.FetchResult[pageturn.Item], error) {
		var (
			strategy = req.Strategy().String()
			start    = time.Now()
		)

		res, err := f.Fetch(ctx, req)

		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		m.fetches.WithLabelValues(strategy, outcome).Observe(time.Since(start).Seconds())
		if err == nil {
			m.pages.WithLabelValues(strategy).Inc()
		}

		return res, err
	})
}

func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		counter := m.requests.MustCurryWith(prometheus.Labels{"route": route})
		promhttp.InstrumentHandlerCounter(counter, next).ServeHTTP(w, r)
	})
}
