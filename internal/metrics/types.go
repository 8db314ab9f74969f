package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	ChallengesCreated   prometheus.Counter
	ChallengesAccepted  prometheus.Counter
	ChallengesCancelled prometheus.Counter
	ChallengesExpired   prometheus.Counter
	ResultsRecorded     prometheus.Counter
	ResultConflicts     prometheus.Counter
	ResultDuration      prometheus.Histogram
	EventsPublished     prometheus.Counter
	EventPublishFailed  prometheus.Counter
	SlackNotifSent      prometheus.Counter
	SlackNotifFailed    prometheus.Counter
	StartupTimeSeconds  prometheus.Gauge
}
