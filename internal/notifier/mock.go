package notifier

import (
	"sync"

	"github.com/mauv0809/tennis-ladder/internal/ladder"
	"github.com/mauv0809/tennis-ladder/internal/pubsub"
)

var _ Notifier = (*Mock)(nil)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records, keyed by event type.
	Sent map[pubsub.EventType][]pubsub.LadderEvent

	// SendFunc, when set, is called for every announcement.
	SendFunc func(ev *pubsub.LadderEvent, dryRun bool) error

	FormatRankingsResponseFunc func(rankingType ladder.RankingType, entries []ladder.Entry) (any, error)
	LastRankingsResponse       any
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{Sent: make(map[pubsub.EventType][]pubsub.LadderEvent)}
}

// Calls returns the recorded announcements of one event type.
func (m *Mock) Calls(t pubsub.EventType) []pubsub.LadderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pubsub.LadderEvent(nil), m.Sent[t]...)
}

func (m *Mock) record(ev *pubsub.LadderEvent, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent[ev.Type] = append(m.Sent[ev.Type], *ev)
	if m.SendFunc != nil {
		return m.SendFunc(ev, dryRun)
	}
	return nil
}

func (m *Mock) SendChallengeCreated(ev *pubsub.LadderEvent, dryRun bool) error {
	return m.record(ev, dryRun)
}

func (m *Mock) SendChallengeAccepted(ev *pubsub.LadderEvent, dryRun bool) error {
	return m.record(ev, dryRun)
}

func (m *Mock) SendChallengeCancelled(ev *pubsub.LadderEvent, dryRun bool) error {
	return m.record(ev, dryRun)
}

func (m *Mock) SendChallengeExpired(ev *pubsub.LadderEvent, dryRun bool) error {
	return m.record(ev, dryRun)
}

func (m *Mock) SendResultRecorded(ev *pubsub.LadderEvent, dryRun bool) error {
	return m.record(ev, dryRun)
}

func (m *Mock) FormatRankingsResponse(rankingType ladder.RankingType, entries []ladder.Entry) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatRankingsResponseFunc != nil {
		resp, err := m.FormatRankingsResponseFunc(rankingType, entries)
		m.LastRankingsResponse = resp
		return resp, err
	}
	return "formatted_rankings", nil
}
