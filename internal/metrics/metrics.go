package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weibo_autopilot"

// Cycle outcomes.
const (
	CycleReposted   = "reposted"
	CycleDryRun     = "dry_run"
	CycleNoPosts    = "no_posts"
	CycleNoMatch    = "no_candidate"
	CycleFailed     = "failed"
	CycleErrored    = "error"
	RepostSuccess   = "success"
	RepostFailure   = "failure"
	RepostError     = "error"
	LaunchSucceeded = "ok"
	LaunchFailed    = "error"
)

// Metrics holds the Prometheus collectors reported by the autopilot. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	cycles    *prometheus.CounterVec
	reposts   *prometheus.CounterVec
	harvested prometheus.Counter
	launch    *prometheus.HistogramVec
}

// MustNew registers the collectors on reg. Registration errors panic, the
// same way promauto helpers do.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Autopilot cycles by outcome.",
			},
			[]string{"outcome"},
		),
		reposts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repost_attempts_total",
				Help:      "Repost submissions by result.",
			},
			[]string{"result"},
		),
		harvested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "harvested_posts_total",
				Help:      "Feed posts extracted across all harvests.",
			},
		),
		launch: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "browser_launch_duration_seconds",
				Help:      "Time from spawning the browser to an attached session.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(m.cycles, m.reposts, m.harvested, m.launch)
	return m
}

func (m *Metrics) RecordCycle(outcome string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRepost(result string) {
	if m == nil {
		return
	}
	m.reposts.WithLabelValues(result).Inc()
}

func (m *Metrics) AddHarvested(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.harvested.Add(float64(n))
}

// ObserveLaunch records how long a launch took, labelled by whether it failed.
func (m *Metrics) ObserveLaunch(duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := LaunchSucceeded
	if err != nil {
		status = LaunchFailed
	}
	m.launch.WithLabelValues(status).Observe(duration.Seconds())
}
