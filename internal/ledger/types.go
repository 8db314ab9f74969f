package ledger

import (
	"time"

	"github.com/mauv0809/tennis-ladder/internal/database"
)

type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
)

// DefaultSurface is recorded when a result arrives without one.
const DefaultSurface = "hard"

// Match is one player's perspective of a completed match. Every completed
// challenge produces two of them.
type Match struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	OpponentName string    `json:"opponent_name"`
	Score        string    `json:"score"`
	Date         time.Time `json:"date"`
	Result       Result    `json:"result"`
	Surface      string    `json:"surface"`
	Stats        *string   `json:"stats,omitempty"`
	ChallengeID  *int64    `json:"challenge_id,omitempty"`
}

// Record aggregates a player's ledger.
type Record struct {
	Matches int
	Wins    int
}

type store struct {
	db database.DBTX
}
