package ladder

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/tennis-ladder/internal/pubsub"
	"github.com/mauv0809/tennis-ladder/internal/scoring"
)

// publish announces a committed state change. Delivery failures are logged
// and counted but never undo the change.
func (s *Service) publish(ctx context.Context, eventType pubsub.EventType, c *Challenge, outcome *scoring.Outcome) {
	if s.pubsub == nil {
		return
	}
	ev := newEvent(eventType, c, outcome)
	ev.OccurredAt = s.now().Unix()

	if err := s.pubsub.SendMessage(ctx, eventType, ev); err != nil {
		log.Error("Failed to publish ladder event", "error", err, "type", eventType, "challengeID", c.ID)
		s.metrics.IncEventPublishFailures()
		return
	}
	s.metrics.IncEventsPublished()
}

func newEvent(eventType pubsub.EventType, c *Challenge, outcome *scoring.Outcome) pubsub.LadderEvent {
	ev := pubsub.LadderEvent{
		ID:             uuid.NewString(),
		Type:           eventType,
		ChallengeID:    c.ID,
		ChallengerID:   c.ChallengerID,
		ChallengerName: c.ChallengerName,
		DefenderID:     c.DefenderID,
		DefenderName:   c.DefenderName,
		EventType:      c.EventType,
		Deadline:       c.Deadline.Unix(),
		Outcome:        outcome,
	}
	if c.WinnerID != nil {
		ev.WinnerID = *c.WinnerID
	}
	if c.Score != nil {
		ev.Score = *c.Score
	}
	return ev
}
