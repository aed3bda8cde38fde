package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skotchmaster/course_market/internal/access"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	GateDenialsTotal    *prometheus.CounterVec
	ModerationTotal     *prometheus.CounterVec
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "course_market_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "course_market_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		GateDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "course_market_access_denials_total",
				Help: "Requests rejected by an access gate",
			},
			[]string{"path", "tier"},
		),
		ModerationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "course_market_moderation_actions_total",
				Help: "Moderation actions by kind and outcome",
			},
			[]string{"action", "outcome"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GateDenialsTotal,
		m.ModerationTotal,
	)
	return m
}

// Denied is an access.Gates deny hook.
func (m *Metrics) Denied(c echo.Context, p access.Principal) {
	m.GateDenialsTotal.WithLabelValues(c.Path(), p.Tier.String()).Inc()
}

func (m *Metrics) Moderation(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	m.ModerationTotal.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			// Render the error now so the recorded status is the one sent.
			if err != nil && !c.Response().Committed {
				c.Error(err)
			}
			status := c.Response().Status
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
