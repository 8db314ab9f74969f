package ladder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tennis-ladder/internal/ledger"
	"github.com/mauv0809/tennis-ladder/internal/metrics"
	"github.com/mauv0809/tennis-ladder/internal/notification"
	"github.com/mauv0809/tennis-ladder/internal/player"
	"github.com/mauv0809/tennis-ladder/internal/pubsub"
	"github.com/mauv0809/tennis-ladder/internal/scoring"
)

// Service implements Ladder on top of the player, ledger and notification
// stores. All writes of one operation share a single transaction.
type Service struct {
	db            *sql.DB
	players       player.Store
	ledger        ledger.Ledger
	notifications notification.Sink
	pubsub        pubsub.PubSubClient
	metrics       metrics.Metrics
	opts          Options
}

func New(
	db *sql.DB,
	players player.Store,
	matches ledger.Ledger,
	notifications notification.Sink,
	events pubsub.PubSubClient,
	m metrics.Metrics,
	opts Options,
) *Service {
	if opts.ChallengeWindow <= 0 {
		opts.ChallengeWindow = DefaultChallengeWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		db:            db,
		players:       players,
		ledger:        matches,
		notifications: notifications,
		pubsub:        events,
		metrics:       m,
		opts:          opts,
	}
}

// now is second-precision UTC, matching what the store keeps.
func (s *Service) now() time.Time {
	return s.opts.Now().UTC().Truncate(time.Second)
}

func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistence("commit transaction", err)
	}
	return nil
}

// getPair loads both sides of a challenge in one query.
func getPair(ctx context.Context, players player.Store, challengerID, defenderID int64) (*player.Player, *player.Player, error) {
	found, err := players.GetPlayers(ctx, []int64{challengerID, defenderID})
	if err != nil {
		return nil, nil, persistence("load players", err)
	}
	byID := make(map[int64]*player.Player, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	challenger, ok := byID[challengerID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, challengerID)
	}
	defender, ok := byID[defenderID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, defenderID)
	}
	return challenger, defender, nil
}

func getChallenge(ctx context.Context, challenges challengeStore, id int64) (*Challenge, error) {
	c, err := challenges.get(ctx, id)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %d", ErrChallengeNotFound, id)
	}
	if err != nil {
		return nil, persistence("load challenge", err)
	}
	return c, nil
}

func (s *Service) CreateChallenge(ctx context.Context, challengerID, defenderID int64, eventType scoring.EventType) (*Challenge, error) {
	if challengerID <= 0 || defenderID <= 0 {
		return nil, ErrInvalidID
	}
	if challengerID == defenderID {
		return nil, ErrSelfChallenge
	}
	if eventType == "" {
		eventType = scoring.EventFriendly
	}
	if !eventType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventType, eventType)
	}

	now := s.now()
	c := &Challenge{
		ChallengerID: challengerID,
		DefenderID:   defenderID,
		Status:       StatusPending,
		Deadline:     now.Add(s.opts.ChallengeWindow),
		EventType:    eventType,
		CreatedAt:    now,
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		players := s.players.WithTx(tx)
		challenger, defender, err := getPair(ctx, players, challengerID, defenderID)
		if err != nil {
			return err
		}
		c.ChallengerName, c.DefenderName = challenger.Name, defender.Name

		challenges := challengeStore{db: tx}
		if s.opts.ExclusiveDefender {
			active, err := challenges.countActiveForDefender(ctx, defenderID)
			if err != nil {
				return persistence("count active challenges", err)
			}
			if active > 0 {
				return fmt.Errorf("%w: player %d", ErrDefenderBusy, defenderID)
			}
		}
		if err := challenges.insert(ctx, c); err != nil {
			return persistence("create challenge", err)
		}

		_, err = s.notifications.WithTx(tx).Create(ctx, &notification.Notification{
			UserID:      defenderID,
			Type:        notification.TypeNewChallenge,
			Message:     fmt.Sprintf("%s challenged you to a %s match", challenger.Name, eventType),
			ReferenceID: c.ID,
			CreatedAt:   now,
		})
		if err != nil {
			return persistence("notify defender", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Challenge created", "challengeID", c.ID, "challenger", challengerID, "defender", defenderID, "event_type", eventType)
	s.metrics.IncChallengesCreated()
	s.publish(ctx, pubsub.EventChallengeCreated, c, nil)
	return c, nil
}

func (s *Service) AcceptChallenge(ctx context.Context, challengeID, userID int64) (*Challenge, error) {
	if challengeID <= 0 || userID <= 0 {
		return nil, ErrInvalidID
	}

	var c *Challenge
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		challenges := challengeStore{db: tx}
		var err error
		c, err = getChallenge(ctx, challenges, challengeID)
		if err != nil {
			return err
		}
		if c.DefenderID != userID {
			return fmt.Errorf("%w: player %d is not the defender of challenge %d", ErrNotDefender, userID, challengeID)
		}
		if c.Status != StatusPending {
			return fmt.Errorf("%w: challenge %d is %s", ErrNotPending, challengeID, c.Status)
		}

		won, err := challenges.transition(ctx, challengeID, StatusPending, StatusScheduled)
		if err != nil {
			return persistence("accept challenge", err)
		}
		if !won {
			return fmt.Errorf("%w: challenge %d changed concurrently", ErrNotPending, challengeID)
		}
		c.Status = StatusScheduled

		_, err = s.notifications.WithTx(tx).Create(ctx, &notification.Notification{
			UserID:      c.ChallengerID,
			Type:        notification.TypeChallengeAccepted,
			Message:     fmt.Sprintf("%s accepted your challenge", c.DefenderName),
			ReferenceID: c.ID,
			CreatedAt:   s.now(),
		})
		if err != nil {
			return persistence("notify challenger", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Challenge accepted", "challengeID", challengeID, "defender", userID)
	s.metrics.IncChallengesAccepted()
	s.publish(ctx, pubsub.EventChallengeAccepted, c, nil)
	return c, nil
}

func (s *Service) CancelChallenge(ctx context.Context, challengeID int64) error {
	if challengeID <= 0 {
		return ErrInvalidID
	}
	c, err := s.removeChallenge(ctx, challengeID, StatusPending, StatusScheduled)
	if err != nil {
		return err
	}

	log.Info("Challenge cancelled", "challengeID", challengeID)
	s.metrics.IncChallengesCancelled()
	s.publish(ctx, pubsub.EventChallengeCancelled, c, nil)
	return nil
}

// removeChallenge deletes a challenge in one of the given statuses along with
// the defender's invitation.
func (s *Service) removeChallenge(ctx context.Context, challengeID int64, statuses ...Status) (*Challenge, error) {
	var c *Challenge
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		challenges := challengeStore{db: tx}
		var err error
		c, err = getChallenge(ctx, challenges, challengeID)
		if err != nil {
			return err
		}
		if c.Status == StatusCompleted {
			return fmt.Errorf("%w: challenge %d", ErrAlreadyCompleted, challengeID)
		}

		removed, err := challenges.remove(ctx, challengeID, statuses...)
		if err != nil {
			return persistence("delete challenge", err)
		}
		if !removed {
			return fmt.Errorf("%w: challenge %d changed concurrently", ErrConflict, challengeID)
		}
		if _, err := s.notifications.WithTx(tx).DeleteByReference(ctx, challengeID, notification.TypeNewChallenge); err != nil {
			return persistence("delete challenge notification", err)
		}
		return nil
	})
	return c, err
}

func (s *Service) SubmitResult(ctx context.Context, challengeID int64, score string, winnerID int64, surface string) (*Challenge, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveResultDuration(time.Since(start).Seconds())
	}()

	if challengeID <= 0 || winnerID <= 0 {
		return nil, ErrInvalidID
	}
	score = strings.TrimSpace(score)
	if score == "" {
		return nil, ErrEmptyScore
	}
	surface = strings.TrimSpace(surface)
	if surface == "" {
		surface = ledger.DefaultSurface
	}

	var c *Challenge
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		c, err = s.recordResult(ctx, tx, challengeID, score, winnerID, surface)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.metrics.IncResultConflicts()
		}
		log.Warn("Result submission failed", "challengeID", challengeID, "category", Category(err), "error", err)
		return nil, err
	}

	log.Info("Result recorded", "challengeID", challengeID, "winner", winnerID, "score", score,
		"strategy", c.Outcome.Strategy, "winner_xp_delta", c.Outcome.WinnerTotal(), "loser_xp_delta", c.Outcome.LoserTotal())
	s.metrics.IncResultsRecorded()
	s.publish(ctx, pubsub.EventResultRecorded, c, c.Outcome)
	return c, nil
}

// recordResult runs every write of a result submission on tx. Any error
// leaves the caller to roll back.
func (s *Service) recordResult(ctx context.Context, tx *sql.Tx, challengeID int64, score string, winnerID int64, surface string) (*Challenge, error) {
	challenges := challengeStore{db: tx}
	players := s.players.WithTx(tx)
	matches := s.ledger.WithTx(tx)

	c, err := getChallenge(ctx, challenges, challengeID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, fmt.Errorf("%w: challenge %d", ErrAlreadyCompleted, challengeID)
	}
	if winnerID != c.ChallengerID && winnerID != c.DefenderID {
		return nil, fmt.Errorf("%w: player %d", ErrWinnerNotParticipant, winnerID)
	}

	challenger, defender, err := getPair(ctx, players, c.ChallengerID, c.DefenderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	// The guarded update is the double-submission barrier: of two concurrent
	// submissions only one finds the challenge still active.
	completed, err := challenges.complete(ctx, challengeID, winnerID, score, now)
	if err != nil {
		return nil, persistence("complete challenge", err)
	}
	if !completed {
		return nil, fmt.Errorf("%w: challenge %d", ErrAlreadyCompleted, challengeID)
	}

	winner, loser := challenger, defender
	if winnerID == c.DefenderID {
		winner, loser = defender, challenger
	}

	prior, err := matches.Recent(ctx, winner.ID, scoring.StreakLength)
	if err != nil {
		return nil, persistence("load recent matches", err)
	}
	priorResults := make([]ledger.Result, len(prior))
	for i, m := range prior {
		priorResults[i] = m.Result
	}

	ref := challengeID
	rows := []ledger.Match{
		{UserID: winner.ID, OpponentName: loser.Name, Score: score, Date: now, Result: ledger.ResultWin, Surface: surface, ChallengeID: &ref},
		{UserID: loser.ID, OpponentName: winner.Name, Score: score, Date: now, Result: ledger.ResultLoss, Surface: surface, ChallengeID: &ref},
	}
	for i := range rows {
		if _, err := matches.Append(ctx, &rows[i]); err != nil {
			return nil, persistence("append match", err)
		}
	}

	challengerSide, err := s.contestant(ctx, matches, challenger, now)
	if err != nil {
		return nil, err
	}
	defenderSide, err := s.contestant(ctx, matches, defender, now)
	if err != nil {
		return nil, err
	}

	strategy := scoring.Select(challenger.Role, defender.Role)
	outcome := strategy.Score(scoring.Input{
		Challenger:         challengerSide,
		Defender:           defenderSide,
		ChallengerWon:      winnerID == c.ChallengerID,
		EventType:          c.EventType,
		WinnerPriorResults: priorResults,
	})

	if err := applyStanding(ctx, players, winner, outcome.WinnerTotal(), outcome.WinnerActivityBonus, now); err != nil {
		return nil, err
	}
	if err := applyStanding(ctx, players, loser, outcome.LoserTotal(), outcome.LoserActivityBonus, now); err != nil {
		return nil, err
	}

	_, err = s.notifications.WithTx(tx).MarkRead(ctx, challengeID, notification.TypeNewChallenge, notification.TypeChallengeAccepted)
	if err != nil {
		return nil, persistence("mark notifications read", err)
	}

	c.Status = StatusCompleted
	c.WinnerID = &winnerID
	c.Score = &score
	if c.MatchDate == nil {
		c.MatchDate = &now
	}
	c.Outcome = &outcome
	return c, nil
}

func (s *Service) contestant(ctx context.Context, matches ledger.Ledger, p *player.Player, now time.Time) (scoring.Contestant, error) {
	count, err := matches.CountInMonth(ctx, p.ID, now)
	if err != nil {
		return scoring.Contestant{}, persistence("count monthly matches", err)
	}
	return scoring.Contestant{
		ID:             p.ID,
		Name:           p.Name,
		Role:           p.Role,
		XP:             p.XP,
		MonthMatches:   count,
		BonusThisMonth: sameMonth(p.LastActivityBonus, now),
	}, nil
}

func applyStanding(ctx context.Context, players player.Store, p *player.Player, delta int, activityBonus bool, now time.Time) error {
	next := player.Standing{
		XP:                p.XP + delta,
		Rating:            p.Rating,
		LastActivityBonus: p.LastActivityBonus,
	}
	if activityBonus {
		next.LastActivityBonus = &now
	}
	err := players.CompareAndSetStanding(ctx, p.ID, p.XP, next)
	if errors.Is(err, player.ErrStaleStanding) {
		return fmt.Errorf("%w: player %d", ErrStandingChanged, p.ID)
	}
	if err != nil {
		return persistence("update standing", err)
	}
	return nil
}

func sameMonth(t *time.Time, now time.Time) bool {
	if t == nil {
		return false
	}
	u := t.In(now.Location())
	return u.Year() == now.Year() && u.Month() == now.Month()
}

func (s *Service) GetChallenge(ctx context.Context, challengeID int64) (*Challenge, error) {
	if challengeID <= 0 {
		return nil, ErrInvalidID
	}
	return getChallenge(ctx, challengeStore{db: s.db}, challengeID)
}

func (s *Service) ListChallenges(ctx context.Context, userID *int64) ([]Challenge, error) {
	if userID != nil && *userID <= 0 {
		return nil, ErrInvalidID
	}
	challenges, err := challengeStore{db: s.db}.list(ctx, userID)
	if err != nil {
		return nil, persistence("list challenges", err)
	}
	return challenges, nil
}

// ExpireOverdue removes pending challenges whose deadline has passed and
// returns how many were removed. Scheduled challenges never expire.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	ids, err := challengeStore{db: s.db}.overdue(ctx, s.now())
	if err != nil {
		return 0, persistence("find overdue challenges", err)
	}

	expired := 0
	for _, id := range ids {
		c, err := s.removeChallenge(ctx, id, StatusPending)
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
			// accepted, completed or cancelled since the scan
			log.Debug("Skipping challenge that changed before expiry", "challengeID", id, "error", err)
			continue
		}
		if err != nil {
			return expired, err
		}
		expired++
		log.Info("Challenge expired", "challengeID", id, "deadline", c.Deadline)
		s.publish(ctx, pubsub.EventChallengeExpired, c, nil)
	}
	if expired > 0 {
		s.metrics.IncChallengesExpired(expired)
	}
	return expired, nil
}
