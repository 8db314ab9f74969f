package scoring

import (
	"github.com/mauv0809/tennis-ladder/internal/ledger"
	"github.com/mauv0809/tennis-ladder/internal/player"
)

// EventType is the kind of match a challenge is played as.
type EventType string

const (
	EventFriendly EventType = "friendly"
	EventCup      EventType = "cup"
	EventMasters  EventType = "masters"
)

func (e EventType) Valid() bool {
	switch e {
	case EventFriendly, EventCup, EventMasters:
		return true
	}
	return false
}

// KFactor is the maximum xp exchanged by one amateur match of this event type.
func (e EventType) KFactor() int {
	switch e {
	case EventCup:
		return 40
	case EventMasters:
		return 48
	default:
		return 32
	}
}

const (
	StreakBonus = 25
	// StreakLength is the number of prior consecutive wins that, followed by
	// another win, earn the streak bonus.
	StreakLength      = 2
	ActivityBonus     = 50
	ActivityThreshold = 5

	RankHoldBonus  = 5
	RankMinorBonus = 1
)

// Contestant is one side of a match as seen by a strategy.
type Contestant struct {
	ID   int64
	Name string
	Role player.Role
	XP   int
	// MonthMatches counts the player's ledger rows in the current calendar
	// month, including the match being scored.
	MonthMatches int
	// BonusThisMonth is true if the activity bonus was already paid this month.
	BonusThisMonth bool
}

// Input is everything a strategy needs to score one completed challenge.
type Input struct {
	Challenger    Contestant
	Defender      Contestant
	ChallengerWon bool
	EventType     EventType
	// WinnerPriorResults holds the winner's most recent results before this
	// match, newest first.
	WinnerPriorResults []ledger.Result
}

func (in Input) Winner() Contestant {
	if in.ChallengerWon {
		return in.Challenger
	}
	return in.Defender
}

func (in Input) Loser() Contestant {
	if in.ChallengerWon {
		return in.Defender
	}
	return in.Challenger
}

// Outcome holds the xp changes a strategy decided on.
type Outcome struct {
	Strategy            string `json:"strategy" msgpack:"strategy"`
	WinnerDelta         int    `json:"winner_delta" msgpack:"winner_delta"`
	LoserDelta          int    `json:"loser_delta" msgpack:"loser_delta"`
	WinnerBonusDelta    int    `json:"winner_bonus_delta" msgpack:"winner_bonus_delta"`
	LoserBonusDelta     int    `json:"loser_bonus_delta" msgpack:"loser_bonus_delta"`
	WinnerActivityBonus bool   `json:"winner_activity_bonus" msgpack:"winner_activity_bonus"`
	LoserActivityBonus  bool   `json:"loser_activity_bonus" msgpack:"loser_activity_bonus"`
}

func (o Outcome) WinnerTotal() int { return o.WinnerDelta + o.WinnerBonusDelta }
func (o Outcome) LoserTotal() int  { return o.LoserDelta + o.LoserBonusDelta }

// Strategy scores a completed match.
type Strategy interface {
	Name() string
	Score(in Input) Outcome
}
