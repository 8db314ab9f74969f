package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncChallengesCreated()
	IncChallengesAccepted()
	IncChallengesCancelled()
	IncChallengesExpired(n int)
	IncResultsRecorded()
	IncResultConflicts()
	ObserveResultDuration(seconds float64)
	IncEventsPublished()
	IncEventPublishFailures()
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}
