package notification

import (
	"time"

	"github.com/mauv0809/tennis-ladder/internal/database"
)

type Type string

const (
	TypeNewChallenge      Type = "new_challenge"
	TypeChallengeAccepted Type = "challenge_accepted"
)

// Notification is an in-app message addressed to one player.
type Notification struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Type        Type      `json:"type"`
	Message     string    `json:"message"`
	ReferenceID int64     `json:"reference_id"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

type store struct {
	db database.DBTX
}
