package ladder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mauv0809/tennis-ladder/internal/database"
)

// allowedTransitions lists the status changes a challenge may go through.
// Removal (cancel or expiry) is handled separately.
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusScheduled, StatusCompleted},
	StatusScheduled: {StatusCompleted},
	StatusCompleted: {},
}

func isValidStatusTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

const challengeSelect = `
	SELECT c.id, c.challenger_id, ch.name, c.defender_id, df.name, c.status, c.deadline,
		c.match_date, c.winner_id, c.score, c.event_type, c.created_at
	FROM challenges c
	JOIN players ch ON ch.id = c.challenger_id
	JOIN players df ON df.id = c.defender_id`

// challengeStore holds the challenge queries. It runs on whatever executor it
// is given, so the service can bind it to a transaction.
type challengeStore struct {
	db database.DBTX
}

func (s challengeStore) insert(ctx context.Context, c *Challenge) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO challenges (challenger_id, defender_id, status, deadline, event_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ChallengerID, c.DefenderID, c.Status, c.Deadline.Unix(), c.EventType, c.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert challenge: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read challenge id: %w", err)
	}
	return nil
}

// get returns sql.ErrNoRows when the challenge does not exist.
func (s challengeStore) get(ctx context.Context, id int64) (*Challenge, error) {
	return scanChallenge(s.db.QueryRowContext(ctx, challengeSelect+" WHERE c.id = ?", id))
}

func (s challengeStore) list(ctx context.Context, userID *int64) ([]Challenge, error) {
	query := challengeSelect
	var args []any
	if userID != nil {
		query += " WHERE c.challenger_id = ? OR c.defender_id = ?"
		args = append(args, *userID, *userID)
	}
	query += " ORDER BY c.deadline ASC, c.id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	challenges := []Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge row: %w", err)
		}
		challenges = append(challenges, *c)
	}
	return challenges, rows.Err()
}

// transition moves a challenge from one status to another and reports
// whether this call won the change. A concurrent writer that got there first
// leaves zero matching rows.
func (s challengeStore) transition(ctx context.Context, id int64, from, to Status) (bool, error) {
	if !isValidStatusTransition(from, to) {
		return false, fmt.Errorf("invalid status transition %s -> %s", from, to)
	}
	res, err := s.db.ExecContext(ctx, "UPDATE challenges SET status = ? WHERE id = ? AND status = ?", to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update challenge %d status: %w", id, err)
	}
	return affectedOne(res)
}

// complete records the result, guarded on the challenge still being active.
func (s challengeStore) complete(ctx context.Context, id, winnerID int64, score string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE challenges
		SET status = ?, winner_id = ?, score = ?, match_date = COALESCE(match_date, ?)
		WHERE id = ? AND status IN (?, ?)`,
		StatusCompleted, winnerID, score, at.Unix(), id, StatusPending, StatusScheduled)
	if err != nil {
		return false, fmt.Errorf("failed to complete challenge %d: %w", id, err)
	}
	return affectedOne(res)
}

// remove deletes the challenge if its status is one of statuses, by default
// any active status.
func (s challengeStore) remove(ctx context.Context, id int64, statuses ...Status) (bool, error) {
	if len(statuses) == 0 {
		statuses = []Status{StatusPending, StatusScheduled}
	}
	query := "DELETE FROM challenges WHERE id = ? AND status IN (" +
		strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",") + ")"
	args := []any{id}
	for _, st := range statuses {
		args = append(args, st)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete challenge %d: %w", id, err)
	}
	return affectedOne(res)
}

func (s challengeStore) countActiveForDefender(ctx context.Context, defenderID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM challenges WHERE defender_id = ? AND status IN (?, ?)",
		defenderID, StatusPending, StatusScheduled).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active challenges for defender %d: %w", defenderID, err)
	}
	return n, nil
}

// activeDefenders returns the players currently defending a pending or
// scheduled challenge.
func (s challengeStore) activeDefenders(ctx context.Context) (map[int64]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT defender_id FROM challenges WHERE status IN (?, ?)",
		StatusPending, StatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to query active defenders: %w", err)
	}
	defer rows.Close()

	defenders := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan defender id: %w", err)
		}
		defenders[id] = true
	}
	return defenders, rows.Err()
}

// overdue returns ids of pending challenges whose deadline is before now.
func (s challengeStore) overdue(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM challenges WHERE status = ? AND deadline < ? ORDER BY deadline",
		StatusPending, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue challenges: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan challenge id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanChallenge(scanner interface{ Scan(...any) error }) (*Challenge, error) {
	var (
		c         Challenge
		deadline  int64
		createdAt int64
		matchDate sql.NullInt64
		winnerID  sql.NullInt64
		score     sql.NullString
	)
	err := scanner.Scan(&c.ID, &c.ChallengerID, &c.ChallengerName, &c.DefenderID, &c.DefenderName,
		&c.Status, &deadline, &matchDate, &winnerID, &score, &c.EventType, &createdAt)
	if err != nil {
		return nil, err
	}
	c.Deadline = time.Unix(deadline, 0).UTC()
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	if matchDate.Valid {
		t := time.Unix(matchDate.Int64, 0).UTC()
		c.MatchDate = &t
	}
	if winnerID.Valid {
		c.WinnerID = &winnerID.Int64
	}
	if score.Valid {
		c.Score = &score.String
	}
	return &c, nil
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
