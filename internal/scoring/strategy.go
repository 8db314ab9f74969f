package scoring

import (
	"math"

	"github.com/mauv0809/tennis-ladder/internal/ledger"
	"github.com/mauv0809/tennis-ladder/internal/player"
)

var (
	_ Strategy = AmateurElo{}
	_ Strategy = RankChallenge{}
)

// Select picks the scoring track for a pairing: amateurs against each other
// use AmateurElo, any other pairing uses RankChallenge.
func Select(challenger, defender player.Role) Strategy {
	if challenger == player.RoleAmateur && defender == player.RoleAmateur {
		return AmateurElo{}
	}
	return RankChallenge{}
}

// AmateurElo exchanges xp along an ELO curve and pays streak and monthly
// activity bonuses.
type AmateurElo struct{}

func (AmateurElo) Name() string { return "amateur_elo" }

func (AmateurElo) Score(in Input) Outcome {
	w, l := in.Winner(), in.Loser()
	gain := EloGain(w.XP, l.XP, in.EventType.KFactor())
	loss := gain
	if loss > l.XP {
		loss = max(l.XP, 0)
	}

	out := Outcome{
		Strategy:    AmateurElo{}.Name(),
		WinnerDelta: gain,
		LoserDelta:  -loss,
	}
	if onStreak(in.WinnerPriorResults) {
		out.WinnerBonusDelta += StreakBonus
	}
	if activityDue(w) {
		out.WinnerBonusDelta += ActivityBonus
		out.WinnerActivityBonus = true
	}
	if activityDue(l) {
		out.LoserBonusDelta += ActivityBonus
		out.LoserActivityBonus = true
	}
	return out
}

// EloGain is the xp the winner takes from the loser. It shrinks as the
// winner's lead grows and never goes negative.
func EloGain(winnerXP, loserXP, k int) int {
	expected := 1 / (1 + math.Pow(10, float64(loserXP-winnerXP)/400))
	return int(math.Round(float64(k) * (1 - expected)))
}

func onStreak(prior []ledger.Result) bool {
	if len(prior) < StreakLength {
		return false
	}
	for _, r := range prior[:StreakLength] {
		if r != ledger.ResultWin {
			return false
		}
	}
	return true
}

func activityDue(c Contestant) bool {
	return c.MonthMatches >= ActivityThreshold && !c.BonusThisMonth
}

// RankChallenge is the professional track: a challenger who beats a
// higher-ranked defender takes their xp, and a defender who holds is
// rewarded. No streak or activity bonuses apply.
type RankChallenge struct{}

func (RankChallenge) Name() string { return "rank_challenge" }

func (RankChallenge) Score(in Input) Outcome {
	out := Outcome{Strategy: RankChallenge{}.Name()}
	c, d := in.Challenger, in.Defender

	switch {
	case !in.ChallengerWon:
		out.WinnerDelta = RankHoldBonus
	case d.XP <= c.XP:
		// the defender was already below; the loss still earns a point
		out.LoserDelta = RankMinorBonus
	default:
		out.WinnerDelta = d.XP - c.XP
		out.LoserDelta = c.XP - d.XP
	}
	return out
}
