package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mauv0809/tennis-ladder/internal/database"
)

// New creates a Ledger backed by db.
func New(db database.DBTX) Ledger {
	return &store{db: db}
}

func (s *store) WithTx(tx *sql.Tx) Ledger {
	return &store{db: tx}
}

func (s *store) Append(ctx context.Context, m *Match) (int64, error) {
	if m.Result != ResultWin && m.Result != ResultLoss {
		return 0, fmt.Errorf("invalid match result %q", m.Result)
	}
	if m.Surface == "" {
		m.Surface = DefaultSurface
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (user_id, opponent_name, score, date, result, surface, stats, challenge_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.UserID, m.OpponentName, m.Score, m.Date.Unix(), m.Result, m.Surface, m.Stats, m.ChallengeID)
	if err != nil {
		return 0, fmt.Errorf("failed to append match for player %d: %w", m.UserID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read match id: %w", err)
	}
	m.ID = id
	return id, nil
}

func (s *store) CountInMonth(ctx context.Context, userID int64, month time.Time) (int, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0)

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM matches WHERE user_id = ? AND date >= ? AND date < ?",
		userID, start.Unix(), end.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches for player %d: %w", userID, err)
	}
	return count, nil
}

func (s *store) Recent(ctx context.Context, userID int64, n int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, opponent_name, score, date, result, surface, stats, challenge_id
		FROM matches WHERE user_id = ?
		ORDER BY date DESC, id DESC
		LIMIT ?`, userID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for player %d: %w", userID, err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		var (
			m           Match
			date        int64
			stats       sql.NullString
			challengeID sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.OpponentName, &m.Score, &date, &m.Result, &m.Surface, &stats, &challengeID); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		m.Date = time.Unix(date, 0).UTC()
		if stats.Valid {
			m.Stats = &stats.String
		}
		if challengeID.Valid {
			m.ChallengeID = &challengeID.Int64
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *store) Records(ctx context.Context) (map[int64]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, COUNT(*), SUM(CASE WHEN result = 'win' THEN 1 ELSE 0 END)
		FROM matches GROUP BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate matches: %w", err)
	}
	defer rows.Close()

	records := make(map[int64]Record)
	for rows.Next() {
		var (
			userID int64
			r      Record
		)
		if err := rows.Scan(&userID, &r.Matches, &r.Wins); err != nil {
			return nil, fmt.Errorf("failed to scan match aggregate: %w", err)
		}
		records[userID] = r
	}
	return records, rows.Err()
}
