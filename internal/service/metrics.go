package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

// Metrics holds the notifier's prometheus collectors
type Metrics struct {
	cycles        prometheus.Counter
	cycleDuration prometheus.Histogram
	openMatches   prometheus.Gauge
	polls         *prometheus.CounterVec
	events        *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	digests       prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifier_poll_cycles_total",
			Help: "Completed poll cycles.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notifier_poll_cycle_duration_seconds",
			Help:    "Duration of a poll cycle over all open matches.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		openMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notifier_open_matches",
			Help: "Open matches seen by the last poll cycle.",
		}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_match_polls_total",
			Help: "Match polls by result and failed stage.",
		}, []string{"result", "stage"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_events_total",
			Help: "Classified events by kind.",
		}, []string{"kind"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_deliveries_total",
			Help: "Delivery attempts by platform and outcome.",
		}, []string{"platform", "outcome"}),
		digests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifier_weekly_digests_total",
			Help: "Weekly digest runs.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.cycles, m.cycleDuration, m.openMatches, m.polls, m.events, m.deliveries, m.digests)
	}
	return m
}

func (m *Metrics) observePoll(err error, events []domain.Event, reports []domain.DeliveryReport) {
	if m == nil {
		return
	}
	switch {
	case err == nil:
		m.polls.WithLabelValues("ok", "").Inc()
	case errors.Is(err, domain.ErrMatchBusy):
		m.polls.WithLabelValues("busy", "").Inc()
	default:
		m.polls.WithLabelValues("error", string(domain.StageOf(err))).Inc()
	}
	for _, ev := range events {
		m.events.WithLabelValues(string(ev.Kind)).Inc()
	}
	m.observeReports(reports)
}

func (m *Metrics) observeReports(reports []domain.DeliveryReport) {
	if m == nil {
		return
	}
	for _, r := range reports {
		m.deliveries.WithLabelValues(string(r.Payload.Platform), string(r.Outcome)).Inc()
	}
}
