package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	TriageVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "modbot",
		Name:      "triage_verdicts_total",
		Help:      "Messages evaluated, by triage verdict.",
	}, []string{"verdict"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "modbot",
		Name:      "review_queue_depth",
		Help:      "Cases currently waiting for moderator review.",
	})

	ScoringFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "modbot",
		Name:      "scoring_failures_total",
		Help:      "Messages whose external scoring call failed.",
	})

	ReportsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "modbot",
		Name:      "user_reports_submitted_total",
		Help:      "User reports accepted into the review queue.",
	})

	CasesResolved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "modbot",
		Name:      "cases_resolved_total",
		Help:      "Review cases closed by a moderator.",
	})
)

// Server exposes the /metrics endpoint.
type Server struct {
	srv    *http.Server
	logger *log.Entry
}

func NewServer(listen string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		srv:    &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger: log.WithField("component", "metrics"),
	}
}

func (s *Server) Start(_ context.Context) error {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("metrics server failed")
		}
	}()
	s.logger.WithField("listen", s.srv.Addr).Info("serving metrics")
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return errors.Wrap(s.srv.Shutdown(ctx), "shutdown metrics server")
}
