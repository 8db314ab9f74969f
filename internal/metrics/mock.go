package metrics

import "sync"

var _ Metrics = (*Mock)(nil)

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	challengesCreated   int
	challengesAccepted  int
	challengesCancelled int
	challengesExpired   int
	resultsRecorded     int
	resultConflicts     int
	resultDurations     []float64
	eventsPublished     int
	eventPublishFailed  int
	slackNotifSent      int
	slackNotifFailed    int
	startupTime         float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		resultDurations: make([]float64, 0),
	}
}

func (m *Mock) IncChallengesCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challengesCreated++
}

func (m *Mock) IncChallengesAccepted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challengesAccepted++
}

func (m *Mock) IncChallengesCancelled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challengesCancelled++
}

func (m *Mock) IncChallengesExpired(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challengesExpired += n
}

func (m *Mock) IncResultsRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultsRecorded++
}

func (m *Mock) IncResultConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultConflicts++
}

func (m *Mock) ObserveResultDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultDurations = append(m.resultDurations, seconds)
}

func (m *Mock) IncEventsPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsPublished++
}

func (m *Mock) IncEventPublishFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventPublishFailed++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

func (m *Mock) ChallengesCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.challengesCreated
}

func (m *Mock) ChallengesAccepted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.challengesAccepted
}

func (m *Mock) ChallengesCancelled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.challengesCancelled
}

func (m *Mock) ChallengesExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.challengesExpired
}

func (m *Mock) ResultsRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultsRecorded
}

func (m *Mock) ResultConflicts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultConflicts
}

// ResultDurations returns a copy of every observed result duration.
func (m *Mock) ResultDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.resultDurations...)
}

func (m *Mock) EventsPublished() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsPublished
}

func (m *Mock) EventPublishFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventPublishFailed
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
