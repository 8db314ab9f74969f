package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ladder", Name: name, Help: help})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		ChallengesCreated:   counter("challenges_created_total", "The total number of challenges created."),
		ChallengesAccepted:  counter("challenges_accepted_total", "The total number of challenges accepted by the defender."),
		ChallengesCancelled: counter("challenges_cancelled_total", "The total number of challenges cancelled."),
		ChallengesExpired:   counter("challenges_expired_total", "The total number of pending challenges removed after their deadline."),
		ResultsRecorded:     counter("results_recorded_total", "The total number of match results recorded."),
		ResultConflicts:     counter("result_conflicts_total", "The total number of result submissions rejected as conflicting."),
		ResultDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ladder",
			Name:      "result_processing_duration_seconds",
			Help:      "The duration of result submission, from validation to commit.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		EventsPublished:    counter("events_published_total", "The total number of ladder events published."),
		EventPublishFailed: counter("events_publish_failed_total", "The total number of ladder events that failed to publish."),
		SlackNotifSent:     counter("slack_notifications_sent_total", "The total number of Slack notifications successfully sent."),
		SlackNotifFailed:   counter("slack_notifications_failed_total", "The total number of Slack notifications that failed to send."),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ladder",
			Name:      "startup_duration_seconds",
			Help:      "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.ChallengesCreated,
		s.ChallengesAccepted,
		s.ChallengesCancelled,
		s.ChallengesExpired,
		s.ResultsRecorded,
		s.ResultConflicts,
		s.ResultDuration,
		s.EventsPublished,
		s.EventPublishFailed,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncChallengesCreated()   { s.ChallengesCreated.Inc() }
func (s *Service) IncChallengesAccepted()  { s.ChallengesAccepted.Inc() }
func (s *Service) IncChallengesCancelled() { s.ChallengesCancelled.Inc() }

func (s *Service) IncChallengesExpired(n int) {
	s.ChallengesExpired.Add(float64(n))
}

func (s *Service) IncResultsRecorded() { s.ResultsRecorded.Inc() }
func (s *Service) IncResultConflicts() { s.ResultConflicts.Inc() }

func (s *Service) ObserveResultDuration(seconds float64) {
	s.ResultDuration.Observe(seconds)
}

func (s *Service) IncEventsPublished()      { s.EventsPublished.Inc() }
func (s *Service) IncEventPublishFailures() { s.EventPublishFailed.Inc() }

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
