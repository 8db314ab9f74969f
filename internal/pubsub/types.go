package pubsub

import (
	"context"

	"cloud.google.com/go/pubsub"
	"github.com/mauv0809/tennis-ladder/internal/scoring"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// loopback delivers messages in-process when no Pub/Sub project is configured.
type loopback struct {
	deliver func(ctx context.Context, topic EventType, data []byte) error
}

// EventType represents the type of event/message sent via pubsub. It doubles
// as the topic name.
type EventType string

const (
	EventChallengeCreated   EventType = "ladder-challenge-created"
	EventChallengeAccepted  EventType = "ladder-challenge-accepted"
	EventChallengeCancelled EventType = "ladder-challenge-cancelled"
	EventChallengeExpired   EventType = "ladder-challenge-expired"
	EventResultRecorded     EventType = "ladder-result-recorded"
)

// Topics lists every topic the ladder publishes to.
var Topics = []EventType{
	EventChallengeCreated,
	EventChallengeAccepted,
	EventChallengeCancelled,
	EventChallengeExpired,
	EventResultRecorded,
}

// LadderEvent is the payload published for every challenge state change.
type LadderEvent struct {
	ID             string            `msgpack:"id" json:"id"`
	Type           EventType         `msgpack:"type" json:"type"`
	ChallengeID    int64             `msgpack:"challenge_id" json:"challenge_id"`
	ChallengerID   int64             `msgpack:"challenger_id" json:"challenger_id"`
	ChallengerName string            `msgpack:"challenger_name" json:"challenger_name"`
	DefenderID     int64             `msgpack:"defender_id" json:"defender_id"`
	DefenderName   string            `msgpack:"defender_name" json:"defender_name"`
	EventType      scoring.EventType `msgpack:"event_type" json:"event_type"`
	Deadline       int64             `msgpack:"deadline" json:"deadline"`
	WinnerID       int64             `msgpack:"winner_id,omitempty" json:"winner_id,omitempty"`
	Score          string            `msgpack:"score,omitempty" json:"score,omitempty"`
	Outcome        *scoring.Outcome  `msgpack:"outcome,omitempty" json:"outcome,omitempty"`
	OccurredAt     int64             `msgpack:"occurred_at" json:"occurred_at"`
}
