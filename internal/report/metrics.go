package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type Metrics struct {
	files  *prometheus.CounterVec
	render prometheus.Histogram
}

// NewMetrics registers the pipeline collectors on reg. A nil Metrics is
// valid and records nothing.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		files: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turntime",
			Name:      "files_processed_total",
			Help:      "Leaderboard files processed, by outcome.",
		}, []string{"outcome"}),
		render: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "turntime",
			Name:      "render_seconds",
			Help:      "Time spent turning one file into its artifacts.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(err error, seconds float64) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
	}
	m.files.WithLabelValues(outcome).Inc()
	m.render.Observe(seconds)
}
