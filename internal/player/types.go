package player

import (
	"errors"
	"time"

	"github.com/mauv0809/tennis-ladder/internal/database"
)

// Role decides which scoring track a player is on.
type Role string

const (
	RoleAmateur Role = "amateur"
	RoleRTTPro  Role = "rtt_pro"
	RoleCoach   Role = "coach"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAmateur, RoleRTTPro, RoleCoach, RoleAdmin:
		return true
	}
	return false
}

var (
	ErrPlayerNotFound = errors.New("player not found")
	// ErrStaleStanding is returned when a compare-and-set write finds that the
	// player's xp no longer matches the value the caller read.
	ErrStaleStanding = errors.New("player standing changed concurrently")
)

// Player is a ladder participant.
type Player struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	City              string     `json:"city"`
	Role              Role       `json:"role"`
	Rating            int        `json:"rating"`
	XP                int        `json:"xp"`
	RTTRank           *int       `json:"rtt_rank,omitempty"`
	RTTCategory       *string    `json:"rtt_category,omitempty"`
	LastActivityBonus *time.Time `json:"last_activity_bonus,omitempty"`
}

// Standing is the mutable scoring state of a player.
type Standing struct {
	XP                int
	Rating            int
	LastActivityBonus *time.Time
}

// Filter narrows ListPlayers. Zero values match everything.
type Filter struct {
	Role Role
	// Ranked keeps only players with a positive RTT rank.
	Ranked bool
}

type store struct {
	db database.DBTX
}
