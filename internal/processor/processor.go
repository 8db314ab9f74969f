package processor

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tennis-ladder/internal/pubsub"
)

// New creates a new Processor. With dryRun set, announcements are only logged.
func New(notifier Notifier, dryRun bool) *Processor {
	return &Processor{
		notifier: notifier,
		dryRun:   dryRun,
		seen:     make(map[string]struct{}),
	}
}

// Deliver decodes a published message and handles it. It matches the
// loopback delivery signature so events can be processed in-process.
func (p *Processor) Deliver(_ context.Context, topic pubsub.EventType, data []byte) error {
	ev, err := pubsub.DecodeEvent(data)
	if err != nil {
		return fmt.Errorf("failed to decode %s message: %w", topic, err)
	}
	return p.HandleEvent(ev, false)
}

// HandleEvent announces a ladder event. Events already handled are skipped,
// since push subscriptions may deliver the same message more than once.
func (p *Processor) HandleEvent(ev *pubsub.LadderEvent, dryRun bool) error {
	if p.handled(ev.ID) {
		log.Debug("Skipping already handled event", "id", ev.ID, "type", ev.Type)
		return nil
	}

	log.Info("Handling ladder event", "id", ev.ID, "type", ev.Type, "challengeID", ev.ChallengeID)
	dryRun = dryRun || p.dryRun
	var err error
	switch ev.Type {
	case pubsub.EventChallengeCreated:
		err = p.notifier.SendChallengeCreated(ev, dryRun)
	case pubsub.EventChallengeAccepted:
		err = p.notifier.SendChallengeAccepted(ev, dryRun)
	case pubsub.EventChallengeCancelled:
		err = p.notifier.SendChallengeCancelled(ev, dryRun)
	case pubsub.EventChallengeExpired:
		err = p.notifier.SendChallengeExpired(ev, dryRun)
	case pubsub.EventResultRecorded:
		err = p.notifier.SendResultRecorded(ev, dryRun)
	default:
		log.Warn("Unknown ladder event", "id", ev.ID, "type", ev.Type)
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	if err != nil {
		log.Error("Failed to announce ladder event", "error", err, "id", ev.ID, "type", ev.Type)
		return err
	}

	// Only remember successes so a failed announcement can be retried.
	p.remember(ev.ID)
	return nil
}

func (p *Processor) handled(id string) bool {
	if id == "" {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.seen[id]
	return ok
}

func (p *Processor) remember(id string) {
	if id == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.seen[id]; ok {
		return
	}
	if len(p.recent) >= recentLimit {
		delete(p.seen, p.recent[0])
		p.recent = p.recent[1:]
	}
	p.seen[id] = struct{}{}
	p.recent = append(p.recent, id)
}
