package notifier

import (
	"github.com/mauv0809/tennis-ladder/internal/ladder"
	"github.com/mauv0809/tennis-ladder/internal/pubsub"
)

// Notifier announces ladder events to the club channel and formats ladder
// views for slash command responses.
type Notifier interface {
	SendChallengeCreated(ev *pubsub.LadderEvent, dryRun bool) error
	SendChallengeAccepted(ev *pubsub.LadderEvent, dryRun bool) error
	SendChallengeCancelled(ev *pubsub.LadderEvent, dryRun bool) error
	SendChallengeExpired(ev *pubsub.LadderEvent, dryRun bool) error
	SendResultRecorded(ev *pubsub.LadderEvent, dryRun bool) error

	FormatRankingsResponse(rankingType ladder.RankingType, entries []ladder.Entry) (any, error)
}
