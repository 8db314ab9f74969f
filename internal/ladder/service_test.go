package ladder_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/tennis-ladder/internal/ladder"
	"github.com/mauv0809/tennis-ladder/internal/ledger"
	"github.com/mauv0809/tennis-ladder/internal/notification"
	"github.com/mauv0809/tennis-ladder/internal/player"
	"github.com/mauv0809/tennis-ladder/internal/pubsub"
	"github.com/mauv0809/tennis-ladder/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChallenge(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	anna := f.addPlayer(t, "Anna", player.RoleAmateur, 100)
	boris := f.addPlayer(t, "Boris", player.RoleAmateur, 100)

	c, err := f.svc.CreateChallenge(ctx, anna, boris, "")
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, ladder.StatusPending, c.Status)
	assert.Equal(t, scoring.EventFriendly, c.EventType, "event type defaults to friendly")
	assert.True(t, c.CreatedAt.Add(7*24*time.Hour).Equal(c.Deadline), "deadline is one week after creation")
	assert.Equal(t, "Anna", c.ChallengerName)
	assert.Equal(t, "Boris", c.DefenderName)

	stored, err := f.svc.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, c.Deadline.Equal(stored.Deadline))
	assert.True(t, c.CreatedAt.Equal(stored.CreatedAt))
	assert.Nil(t, stored.WinnerID)
	assert.Nil(t, stored.Score)

	inbox, err := f.notifications.ListForUser(ctx, boris, true)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, notification.TypeNewChallenge, inbox[0].Type)
	assert.Equal(t, c.ID, inbox[0].ReferenceID)
	assert.Contains(t, inbox[0].Message, "Anna")

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, pubsub.EventChallengeCreated, events[0].Type)
	assert.Equal(t, c.ID, events[0].ChallengeID)
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, 1, f.metrics.ChallengesCreated())

	t.Run("explicit event type", func(t *testing.T) {
		c, err := f.svc.CreateChallenge(ctx, boris, anna, scoring.EventMasters)
		require.NoError(t, err)
		assert.Equal(t, scoring.EventMasters, c.EventType)
	})
}

func TestCreateChallenge_Errors(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	anna := f.addPlayer(t, "Anna", player.RoleAmateur, 100)
	boris := f.addPlayer(t, "Boris", player.RoleAmateur, 100)

	testCases := []struct {
		name       string
		challenger int64
		defender   int64
		eventType  scoring.EventType
		category   error
	}{
		{"self challenge", anna, anna, "", ladder.ErrValidation},
		{"zero id", 0, boris, "", ladder.ErrValidation},
		{"negative id", anna, -3, "", ladder.ErrValidation},
		{"unknown event type", anna, boris, "league", ladder.ErrValidation},
		{"unknown challenger", 404, boris, "", ladder.ErrNotFound},
		{"unknown defender", anna, 404, "", ladder.ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateChallenge(ctx, tc.challenger, tc.defender, tc.eventType)
			assert.ErrorIs(t, err, tc.category)
		})
	}

	all, err := f.svc.ListChallenges(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all, "failed creates leave nothing behind")
	assert.Empty(t, f.events.Events())
}

func TestCreateChallenge_ExclusiveDefender(t *testing.T) {
	ctx := context.Background()

	t.Run("advisory by default", func(t *testing.T) {
		f, teardown := setupLadder(t)
		defer teardown()
		a := f.addPlayer(t, "A", player.RoleAmateur, 0)
		b := f.addPlayer(t, "B", player.RoleAmateur, 0)
		c := f.addPlayer(t, "C", player.RoleAmateur, 0)

		_, err := f.svc.CreateChallenge(ctx, a, b, "")
		require.NoError(t, err)
		_, err = f.svc.CreateChallenge(ctx, c, b, "")
		assert.NoError(t, err)
	})

	t.Run("enforced when enabled", func(t *testing.T) {
		f, teardown := setupLadder(t, withExclusiveDefender())
		defer teardown()
		a := f.addPlayer(t, "A", player.RoleAmateur, 0)
		b := f.addPlayer(t, "B", player.RoleAmateur, 0)
		c := f.addPlayer(t, "C", player.RoleAmateur, 0)

		first, err := f.svc.CreateChallenge(ctx, a, b, "")
		require.NoError(t, err)
		_, err = f.svc.CreateChallenge(ctx, c, b, "")
		assert.ErrorIs(t, err, ladder.ErrDefenderBusy)
		assert.ErrorIs(t, err, ladder.ErrConflict)

		_, err = f.svc.SubmitResult(ctx, first.ID, "6-1 6-1", a, "")
		require.NoError(t, err)
		_, err = f.svc.CreateChallenge(ctx, c, b, "")
		assert.NoError(t, err, "completed challenges free the defender")
	})
}

func TestAcceptChallenge(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	anna := f.addPlayer(t, "Anna", player.RoleAmateur, 100)
	boris := f.addPlayer(t, "Boris", player.RoleAmateur, 100)
	vera := f.addPlayer(t, "Vera", player.RoleAmateur, 100)

	c, err := f.svc.CreateChallenge(ctx, anna, boris, "")
	require.NoError(t, err)

	t.Run("only the defender may accept", func(t *testing.T) {
		for _, caller := range []int64{anna, vera} {
			_, err := f.svc.AcceptChallenge(ctx, c.ID, caller)
			assert.ErrorIs(t, err, ladder.ErrUnauthorized)
		}
		stored, err := f.svc.GetChallenge(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, ladder.StatusPending, stored.Status)
	})

	t.Run("defender accepts", func(t *testing.T) {
		accepted, err := f.svc.AcceptChallenge(ctx, c.ID, boris)
		require.NoError(t, err)
		assert.Equal(t, ladder.StatusScheduled, accepted.Status)

		stored, err := f.svc.GetChallenge(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, ladder.StatusScheduled, stored.Status)

		inbox, err := f.notifications.ListForUser(ctx, anna, true)
		require.NoError(t, err)
		require.Len(t, inbox, 1)
		assert.Equal(t, notification.TypeChallengeAccepted, inbox[0].Type)
		assert.Equal(t, c.ID, inbox[0].ReferenceID)
		assert.Equal(t, 1, f.metrics.ChallengesAccepted())
	})

	t.Run("second accept conflicts", func(t *testing.T) {
		_, err := f.svc.AcceptChallenge(ctx, c.ID, boris)
		assert.ErrorIs(t, err, ladder.ErrConflict)
	})

	t.Run("unknown challenge", func(t *testing.T) {
		_, err := f.svc.AcceptChallenge(ctx, 999, boris)
		assert.ErrorIs(t, err, ladder.ErrNotFound)
	})
}

func TestCancelChallenge(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	anna := f.addPlayer(t, "Anna", player.RoleAmateur, 100)
	boris := f.addPlayer(t, "Boris", player.RoleAmateur, 100)

	t.Run("pending challenge is deleted with its invitation", func(t *testing.T) {
		c, err := f.svc.CreateChallenge(ctx, anna, boris, "")
		require.NoError(t, err)

		require.NoError(t, f.svc.CancelChallenge(ctx, c.ID))

		_, err = f.svc.GetChallenge(ctx, c.ID)
		assert.ErrorIs(t, err, ladder.ErrNotFound)
		inbox, err := f.notifications.ListForUser(ctx, boris, false)
		require.NoError(t, err)
		assert.Empty(t, inbox)
		assert.Equal(t, 1, f.metrics.ChallengesCancelled())
	})

	t.Run("scheduled challenge can be cancelled", func(t *testing.T) {
		c, err := f.svc.CreateChallenge(ctx, anna, boris, "")
		require.NoError(t, err)
		_, err = f.svc.AcceptChallenge(ctx, c.ID, boris)
		require.NoError(t, err)

		assert.NoError(t, f.svc.CancelChallenge(ctx, c.ID))
	})

	t.Run("unknown challenge", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.CancelChallenge(ctx, 12345), ladder.ErrNotFound)
	})

	t.Run("completed challenge is rejected and untouched", func(t *testing.T) {
		c := f.play(t, anna, boris, anna)
		annaXP, borisXP := f.xp(t, anna), f.xp(t, boris)

		err := f.svc.CancelChallenge(ctx, c.ID)
		assert.ErrorIs(t, err, ladder.ErrConflict)

		stored, err := f.svc.GetChallenge(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, ladder.StatusCompleted, stored.Status)
		assert.Equal(t, 2, f.ledgerRows(t, c.ID))
		assert.Equal(t, annaXP, f.xp(t, anna))
		assert.Equal(t, borisXP, f.xp(t, boris))
	})
}

func TestSubmitResult_ExampleScenario(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	a := f.addPlayer(t, "A", player.RoleAmateur, 100)
	b := f.addPlayer(t, "B", player.RoleAmateur, 100)
	f.priorWin(t, a, 2)
	f.priorWin(t, a, 1)

	c, err := f.svc.CreateChallenge(ctx, a, b, scoring.EventFriendly)
	require.NoError(t, err)
	_, err = f.svc.AcceptChallenge(ctx, c.ID, b)
	require.NoError(t, err)

	done, err := f.svc.SubmitResult(ctx, c.ID, "6-4 6-3", a, "")
	require.NoError(t, err)

	baseGain := scoring.EloGain(100, 100, scoring.EventFriendly.KFactor())
	assert.Equal(t, 100+baseGain+scoring.StreakBonus, f.xp(t, a))
	assert.Equal(t, 100-baseGain, f.xp(t, b))

	assert.Equal(t, ladder.StatusCompleted, done.Status)
	require.NotNil(t, done.WinnerID)
	assert.Equal(t, a, *done.WinnerID)
	require.NotNil(t, done.Score)
	assert.Equal(t, "6-4 6-3", *done.Score)
	require.NotNil(t, done.Outcome)
	assert.Equal(t, "amateur_elo", done.Outcome.Strategy)

	stored, err := f.svc.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, ladder.StatusCompleted, stored.Status)
	assert.Equal(t, a, *stored.WinnerID)
	assert.NotNil(t, stored.MatchDate)

	assert.Equal(t, 2, f.ledgerRows(t, c.ID))
	winnerRows, err := f.ledger.Recent(ctx, a, 1)
	require.NoError(t, err)
	assert.Equal(t, ledger.ResultWin, winnerRows[0].Result)
	assert.Equal(t, "B", winnerRows[0].OpponentName)
	assert.Equal(t, ledger.DefaultSurface, winnerRows[0].Surface)
	loserRows, err := f.ledger.Recent(ctx, b, 1)
	require.NoError(t, err)
	assert.Equal(t, ledger.ResultLoss, loserRows[0].Result)
	assert.Equal(t, "A", loserRows[0].OpponentName)

	for _, id := range []int64{a, b} {
		unread, err := f.notifications.ListForUser(ctx, id, true)
		require.NoError(t, err)
		assert.Empty(t, unread, "challenge notifications are marked read")
	}

	events := f.events.Events()
	last := events[len(events)-1]
	assert.Equal(t, pubsub.EventResultRecorded, last.Type)
	assert.Equal(t, a, last.WinnerID)
	require.NotNil(t, last.Outcome)
	assert.Equal(t, baseGain+scoring.StreakBonus, last.Outcome.WinnerTotal())
	assert.Equal(t, 1, f.metrics.ResultsRecorded())
	assert.Len(t, f.metrics.ResultDurations(), 1)
}

func TestSubmitResult_Surface(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	a := f.addPlayer(t, "A", player.RoleAmateur, 100)
	b := f.addPlayer(t, "B", player.RoleAmateur, 100)
	c, err := f.svc.CreateChallenge(ctx, a, b, "")
	require.NoError(t, err)

	_, err = f.svc.SubmitResult(ctx, c.ID, "7-6 7-6", b, "clay")
	require.NoError(t, err)

	rows, err := f.ledger.Recent(ctx, a, 1)
	require.NoError(t, err)
	assert.Equal(t, "clay", rows[0].Surface)
}

func TestSubmitResult_Validation(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	a := f.addPlayer(t, "A", player.RoleAmateur, 100)
	b := f.addPlayer(t, "B", player.RoleAmateur, 100)
	outsider := f.addPlayer(t, "C", player.RoleAmateur, 100)
	c, err := f.svc.CreateChallenge(ctx, a, b, "")
	require.NoError(t, err)

	testCases := []struct {
		name        string
		challengeID int64
		score       string
		winnerID    int64
		category    error
	}{
		{"winner not a participant", c.ID, "6-0 6-0", outsider, ladder.ErrValidation},
		{"empty score", c.ID, "   ", a, ladder.ErrValidation},
		{"invalid winner id", c.ID, "6-0", 0, ladder.ErrValidation},
		{"unknown challenge", 777, "6-0", a, ladder.ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.SubmitResult(ctx, tc.challengeID, tc.score, tc.winnerID, "")
			assert.ErrorIs(t, err, tc.category)
		})
	}

	stored, err := f.svc.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, ladder.StatusPending, stored.Status)
	assert.Zero(t, f.totalLedgerRows(t))
	assert.Equal(t, 100, f.xp(t, a))
	assert.Equal(t, 100, f.xp(t, b))
}

func TestSubmitResult_DoubleSubmission(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	a := f.addPlayer(t, "A", player.RoleAmateur, 100)
	b := f.addPlayer(t, "B", player.RoleAmateur, 100)
	c, err := f.svc.CreateChallenge(ctx, a, b, "")
	require.NoError(t, err)

	_, err = f.svc.SubmitResult(ctx, c.ID, "6-4 6-4", a, "")
	require.NoError(t, err)
	annaXP, borisXP := f.xp(t, a), f.xp(t, b)

	_, err = f.svc.SubmitResult(ctx, c.ID, "6-4 6-4", a, "")
	assert.ErrorIs(t, err, ladder.ErrConflict)
	_, err = f.svc.SubmitResult(ctx, c.ID, "0-6 0-6", b, "")
	assert.ErrorIs(t, err, ladder.ErrConflict, "a completed challenge is never rewritten")

	assert.Equal(t, annaXP, f.xp(t, a))
	assert.Equal(t, borisXP, f.xp(t, b))
	assert.Equal(t, 2, f.ledgerRows(t, c.ID))
	assert.Equal(t, 2, f.metrics.ResultConflicts())

	stored, err := f.svc.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, a, *stored.WinnerID)
	assert.Equal(t, "6-4 6-4", *stored.Score)
}

func TestSubmitResult_ConcurrentSubmissions(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	a := f.addPlayer(t, "A", player.RoleAmateur, 100)
	b := f.addPlayer(t, "B", player.RoleAmateur, 100)
	c, err := f.svc.CreateChallenge(ctx, a, b, "")
	require.NoError(t, err)

	const submitters = 4
	var wg sync.WaitGroup
	errs := make([]error, submitters)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			winner := a
			if i%2 == 1 {
				winner = b
			}
			_, errs[i] = f.svc.SubmitResult(ctx, c.ID, "6-3 6-3", winner, "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, ladder.ErrConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, f.ledgerRows(t, c.ID))

	gain := scoring.EloGain(100, 100, scoring.EventFriendly.KFactor())
	assert.ElementsMatch(t, []int{100 + gain, 100 - gain}, []int{f.xp(t, a), f.xp(t, b)})
}

func TestSubmitResult_RollsBackOnStandingConflict(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	a := f.addPlayer(t, "A", player.RoleAmateur, 100)
	b := f.addPlayer(t, "B", player.RoleAmateur, 100)
	c, err := f.svc.CreateChallenge(ctx, a, b, "")
	require.NoError(t, err)

	svc := ladder.New(f.db, staleStandingStore{Store: f.players, failID: b}, f.ledger, f.notifications, f.events, f.metrics, ladder.Options{Now: f.clock.Now})
	_, err = svc.SubmitResult(ctx, c.ID, "6-4 6-4", a, "")
	assert.ErrorIs(t, err, ladder.ErrStandingChanged)
	assert.ErrorIs(t, err, ladder.ErrConflict)

	stored, err := f.svc.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, ladder.StatusPending, stored.Status, "challenge status rolls back")
	assert.Nil(t, stored.WinnerID)
	assert.Zero(t, f.totalLedgerRows(t), "ledger rows roll back")
	assert.Equal(t, 100, f.xp(t, a), "winner xp rolls back")

	unread, err := f.notifications.ListForUser(ctx, b, true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	_, err = f.svc.SubmitResult(ctx, c.ID, "6-4 6-4", a, "")
	assert.NoError(t, err, "the challenge can still be completed")
}

func TestSubmitResult_StreakBonus(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()

	a := f.addPlayer(t, "A", player.RoleAmateur, 100)
	b := f.addPlayer(t, "B", player.RoleAmateur, 100)

	first := f.play(t, a, b, a)
	second := f.play(t, b, a, a)
	third := f.play(t, a, b, a)

	assert.Zero(t, first.Outcome.WinnerBonusDelta)
	assert.Zero(t, second.Outcome.WinnerBonusDelta)
	assert.Equal(t, scoring.StreakBonus, third.Outcome.WinnerBonusDelta, "third consecutive win earns the bonus")

	broken := f.play(t, a, b, b)
	assert.Zero(t, broken.Outcome.WinnerBonusDelta)

	// a fifth match this month would add the activity bonus
	f.clock.Set(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	afterLoss := f.play(t, a, b, a)
	assert.Zero(t, afterLoss.Outcome.WinnerBonusDelta, "a loss resets the streak")
}

func TestSubmitResult_ActivityBonus(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()

	a := f.addPlayer(t, "A", player.RoleAmateur, 500)
	b := f.addPlayer(t, "B", player.RoleAmateur, 500)

	var loserBonus []int
	var winnerFlags []bool
	for i := 0; i < 6; i++ {
		done := f.play(t, a, b, a)
		loserBonus = append(loserBonus, done.Outcome.LoserBonusDelta)
		winnerFlags = append(winnerFlags, done.Outcome.WinnerActivityBonus)
	}
	assert.Equal(t, []int{0, 0, 0, 0, scoring.ActivityBonus, 0}, loserBonus)
	assert.Equal(t, []bool{false, false, false, false, true, false}, winnerFlags)

	pb, err := f.players.GetPlayer(context.Background(), b)
	require.NoError(t, err)
	require.NotNil(t, pb.LastActivityBonus)
	assert.Equal(t, time.May, pb.LastActivityBonus.Month())

	t.Run("new month pays again", func(t *testing.T) {
		f.clock.Set(time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC))
		var bonuses []int
		for i := 0; i < 5; i++ {
			done := f.play(t, a, b, a)
			bonuses = append(bonuses, done.Outcome.LoserBonusDelta)
		}
		assert.Equal(t, []int{0, 0, 0, 0, scoring.ActivityBonus}, bonuses)
	})
}

func TestSubmitResult_ProfileEditDoesNotRepayActivityBonus(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	a := f.addPlayer(t, "A", player.RoleAmateur, 500)
	b := f.addPlayer(t, "B", player.RoleAmateur, 500)
	for i := 0; i < 5; i++ {
		f.play(t, a, b, a)
	}
	before := f.xp(t, b)

	_, err := f.players.UpsertPlayer(ctx, &player.Player{ID: b, Name: "B renamed"})
	require.NoError(t, err)
	assert.Equal(t, before, f.xp(t, b))

	done := f.play(t, a, b, a)
	assert.Zero(t, done.Outcome.LoserBonusDelta)
	assert.False(t, done.Outcome.LoserActivityBonus)
}

func TestSubmitResult_RankChallenge(t *testing.T) {
	ctx := context.Background()

	t.Run("weaker challenger takes the defender's xp", func(t *testing.T) {
		f, teardown := setupLadder(t)
		defer teardown()
		c := f.addPlayer(t, "Challenger", player.RoleRTTPro, 300)
		d := f.addPlayer(t, "Defender", player.RoleRTTPro, 800)

		done := f.play(t, c, d, c)
		assert.Equal(t, "rank_challenge", done.Outcome.Strategy)
		assert.Equal(t, 800, f.xp(t, c))
		assert.Equal(t, 300, f.xp(t, d))
	})

	t.Run("stronger challenger leaves xp and gives defender a point", func(t *testing.T) {
		f, teardown := setupLadder(t)
		defer teardown()
		c := f.addPlayer(t, "Challenger", player.RoleRTTPro, 800)
		d := f.addPlayer(t, "Defender", player.RoleRTTPro, 300)

		f.play(t, c, d, c)
		assert.Equal(t, 800, f.xp(t, c))
		assert.Equal(t, 301, f.xp(t, d))
	})

	t.Run("defender holds", func(t *testing.T) {
		f, teardown := setupLadder(t)
		defer teardown()
		c := f.addPlayer(t, "Challenger", player.RoleRTTPro, 300)
		d := f.addPlayer(t, "Defender", player.RoleRTTPro, 800)

		f.play(t, c, d, d)
		assert.Equal(t, 300, f.xp(t, c))
		assert.Equal(t, 805, f.xp(t, d))
	})

	t.Run("mixed pairing uses the rank track", func(t *testing.T) {
		f, teardown := setupLadder(t)
		defer teardown()
		amateur := f.addPlayer(t, "Amateur", player.RoleAmateur, 100)
		pro := f.addPlayer(t, "Pro", player.RoleRTTPro, 500)

		done := f.play(t, amateur, pro, amateur)
		assert.Equal(t, "rank_challenge", done.Outcome.Strategy)
		assert.Equal(t, 500, f.xp(t, amateur))
		assert.Equal(t, 100, f.xp(t, pro))
	})

	t.Run("no bonuses on the rank track", func(t *testing.T) {
		f, teardown := setupLadder(t)
		defer teardown()
		c := f.addPlayer(t, "Challenger", player.RoleRTTPro, 0)
		d := f.addPlayer(t, "Defender", player.RoleCoach, 0)

		for i := 0; i < 5; i++ {
			done := f.play(t, c, d, d)
			assert.Zero(t, done.Outcome.WinnerBonusDelta)
			assert.Zero(t, done.Outcome.LoserBonusDelta)
		}
		assert.Equal(t, 25, f.xp(t, d))

		p, err := f.players.GetPlayer(ctx, d)
		require.NoError(t, err)
		assert.Nil(t, p.LastActivityBonus)
	})
}

func TestListChallenges(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	a := f.addPlayer(t, "A", player.RoleAmateur, 0)
	b := f.addPlayer(t, "B", player.RoleAmateur, 0)
	c := f.addPlayer(t, "C", player.RoleAmateur, 0)

	first, err := f.svc.CreateChallenge(ctx, a, b, "")
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	second, err := f.svc.CreateChallenge(ctx, c, a, "")
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	third, err := f.svc.CreateChallenge(ctx, b, c, "")
	require.NoError(t, err)

	all, err := f.svc.ListChallenges(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{first.ID, second.ID, third.ID}, []int64{all[0].ID, all[1].ID, all[2].ID}, "ordered by deadline")
	assert.Equal(t, "C", all[1].ChallengerName)
	assert.Equal(t, "A", all[1].DefenderName)

	mine, err := f.svc.ListChallenges(ctx, &a)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, first.ID, mine[0].ID)
	assert.Equal(t, second.ID, mine[1].ID)

	bad := int64(-1)
	_, err = f.svc.ListChallenges(ctx, &bad)
	assert.ErrorIs(t, err, ladder.ErrValidation)
}

func TestExpireOverdue(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	a := f.addPlayer(t, "A", player.RoleAmateur, 0)
	b := f.addPlayer(t, "B", player.RoleAmateur, 0)

	stale, err := f.svc.CreateChallenge(ctx, a, b, "")
	require.NoError(t, err)
	accepted, err := f.svc.CreateChallenge(ctx, b, a, "")
	require.NoError(t, err)
	_, err = f.svc.AcceptChallenge(ctx, accepted.ID, a)
	require.NoError(t, err)

	n, err := f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing is overdue yet")

	f.clock.Advance(8 * 24 * time.Hour)
	fresh, err := f.svc.CreateChallenge(ctx, a, b, "")
	require.NoError(t, err)

	n, err = f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.svc.GetChallenge(ctx, stale.ID)
	assert.ErrorIs(t, err, ladder.ErrNotFound)
	_, err = f.svc.GetChallenge(ctx, accepted.ID)
	assert.NoError(t, err, "scheduled challenges never expire")
	_, err = f.svc.GetChallenge(ctx, fresh.ID)
	assert.NoError(t, err)

	assert.Equal(t, 1, f.metrics.ChallengesExpired())
	events := f.events.Events()
	assert.Equal(t, pubsub.EventChallengeExpired, events[len(events)-1].Type)
	assert.Equal(t, stale.ID, events[len(events)-1].ChallengeID)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f, teardown := setupLadder(t)
	defer teardown()
	ctx := context.Background()

	f.events.SendMessageFunc = func(pubsub.EventType, any) error {
		return errors.New("topic not found")
	}
	a := f.addPlayer(t, "A", player.RoleAmateur, 0)
	b := f.addPlayer(t, "B", player.RoleAmateur, 0)

	c, err := f.svc.CreateChallenge(ctx, a, b, "")
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, 1, f.metrics.EventPublishFailures())
	assert.Zero(t, f.metrics.EventsPublished())
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "validation", ladder.Category(ladder.ErrSelfChallenge))
	assert.Equal(t, "not_found", ladder.Category(ladder.ErrChallengeNotFound))
	assert.Equal(t, "authorization", ladder.Category(ladder.ErrNotDefender))
	assert.Equal(t, "conflict", ladder.Category(ladder.ErrAlreadyCompleted))
	assert.Equal(t, "persistence", ladder.Category(errors.New("disk full")))
	assert.Empty(t, ladder.Category(nil))
}
