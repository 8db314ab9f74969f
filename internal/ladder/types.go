package ladder

import (
	"time"

	"github.com/mauv0809/tennis-ladder/internal/scoring"
)

// Status is the lifecycle state of a challenge. Cancelled challenges are
// deleted, so there is no cancelled status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
)

// DefaultChallengeWindow is how long a defender has before a challenge expires.
const DefaultChallengeWindow = 7 * 24 * time.Hour

// Challenge is a match request from one player to another.
type Challenge struct {
	ID             int64             `json:"id"`
	ChallengerID   int64             `json:"challenger_id"`
	ChallengerName string            `json:"challenger_name"`
	DefenderID     int64             `json:"defender_id"`
	DefenderName   string            `json:"defender_name"`
	Status         Status            `json:"status"`
	Deadline       time.Time         `json:"deadline"`
	MatchDate      *time.Time        `json:"match_date,omitempty"`
	WinnerID       *int64            `json:"winner_id,omitempty"`
	Score          *string           `json:"score,omitempty"`
	EventType      scoring.EventType `json:"event_type"`
	CreatedAt      time.Time         `json:"created_at"`
	// Outcome is only set on the challenge returned by SubmitResult.
	Outcome *scoring.Outcome `json:"outcome,omitempty"`
}

// IsActive reports whether the challenge still awaits a result.
func (c *Challenge) IsActive() bool {
	return c.Status == StatusPending || c.Status == StatusScheduled
}

// RankingType selects a ladder view.
type RankingType string

const (
	RankingClubElo   RankingType = "club_elo"
	RankingRTTRating RankingType = "rtt_rating"
)

// EntryStatus tells whether a ladder player currently has a challenge to answer.
type EntryStatus string

const (
	EntryDefending EntryStatus = "defending"
	EntryIdle      EntryStatus = "idle"
)

// Entry is one row of a ladder view.
type Entry struct {
	Rank        int         `json:"rank"`
	PlayerID    int64       `json:"player_id"`
	Name        string      `json:"name"`
	City        string      `json:"city"`
	Role        string      `json:"role"`
	XP          int         `json:"xp"`
	Rating      int         `json:"rating"`
	RTTRank     *int        `json:"rtt_rank,omitempty"`
	RTTCategory *string     `json:"rtt_category,omitempty"`
	Matches     int         `json:"matches"`
	Wins        int         `json:"wins"`
	WinRate     int         `json:"win_rate"`
	Status      EntryStatus `json:"status"`
}

// Options tunes the ladder service.
type Options struct {
	// ExclusiveDefender rejects a new challenge when the defender already
	// has a pending or scheduled one.
	ExclusiveDefender bool
	ChallengeWindow   time.Duration
	Now               func() time.Time
}
