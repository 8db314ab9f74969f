package ladder

import (
	"context"

	"github.com/mauv0809/tennis-ladder/internal/scoring"
)

var _ Ladder = (*Service)(nil)

// Ladder is the challenge and ranking engine.
type Ladder interface {
	CreateChallenge(ctx context.Context, challengerID, defenderID int64, eventType scoring.EventType) (*Challenge, error)
	AcceptChallenge(ctx context.Context, challengeID, userID int64) (*Challenge, error)
	CancelChallenge(ctx context.Context, challengeID int64) error
	// SubmitResult completes a challenge. An empty surface records the default.
	SubmitResult(ctx context.Context, challengeID int64, score string, winnerID int64, surface string) (*Challenge, error)
	GetChallenge(ctx context.Context, challengeID int64) (*Challenge, error)
	// ListChallenges returns every challenge, or only those involving userID
	// when it is set, ordered by deadline.
	ListChallenges(ctx context.Context, userID *int64) ([]Challenge, error)
	GetRankings(ctx context.Context, rankingType RankingType) ([]Entry, error)
	ExpireOverdue(ctx context.Context) (int, error)
}
