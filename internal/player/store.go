package player

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tennis-ladder/internal/database"
)

const playerColumns = "id, name, city, role, rating, xp, rtt_rank, rtt_category, last_activity_bonus"

// New creates a player Store backed by db.
func New(db database.DBTX) Store {
	return &store{db: db}
}

func (s *store) WithTx(tx *sql.Tx) Store {
	return &store{db: tx}
}

// UpsertPlayer inserts a new player when p.ID is zero, otherwise it creates or
// updates the profile stored under p.ID. For an existing player only the
// profile columns change; xp, rating and last_activity_bonus belong to
// CompareAndSetStanding. The stored id is returned.
func (s *store) UpsertPlayer(ctx context.Context, p *Player) (int64, error) {
	if p.Role == "" {
		p.Role = RoleAmateur
	}
	if !p.Role.Valid() {
		return 0, fmt.Errorf("unknown role %q", p.Role)
	}

	bonus := unixOrNull(p.LastActivityBonus)
	if p.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO players (name, city, role, rating, xp, rtt_rank, rtt_category, last_activity_bonus)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Name, p.City, p.Role, p.Rating, p.XP, p.RTTRank, p.RTTCategory, bonus)
		if err != nil {
			return 0, fmt.Errorf("failed to insert player: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read player id: %w", err)
		}
		log.Info("Added new player to the store", "playerID", id, "name", p.Name)
		return id, nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, name, city, role, rating, xp, rtt_rank, rtt_category, last_activity_bonus)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			city = excluded.city,
			role = excluded.role,
			rtt_rank = excluded.rtt_rank,
			rtt_category = excluded.rtt_category`,
		p.ID, p.Name, p.City, p.Role, p.Rating, p.XP, p.RTTRank, p.RTTCategory, bonus)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert player %d: %w", p.ID, err)
	}
	log.Debug("Upserted player", "playerID", p.ID, "name", p.Name)
	return p.ID, nil
}

func (s *store) GetPlayer(ctx context.Context, id int64) (*Player, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+playerColumns+" FROM players WHERE id = ?", id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	return p, nil
}

// GetPlayers returns the players with the given ids. Unknown ids are skipped.
func (s *store) GetPlayers(ctx context.Context, ids []int64) ([]Player, error) {
	if len(ids) == 0 {
		return []Player{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+playerColumns+" FROM players WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (s *store) ListPlayers(ctx context.Context, filter Filter) ([]Player, error) {
	query := "SELECT " + playerColumns + " FROM players WHERE 1=1"
	var args []any
	if filter.Role != "" {
		query += " AND role = ?"
		args = append(args, filter.Role)
	}
	if filter.Ranked {
		query += " AND rtt_rank > 0"
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

// CompareAndSetStanding writes next only if the player's xp still equals
// expectedXP, otherwise it returns ErrStaleStanding and changes nothing.
func (s *store) CompareAndSetStanding(ctx context.Context, id int64, expectedXP int, next Standing) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE players SET xp = ?, rating = ?, last_activity_bonus = ?
		WHERE id = ? AND xp = ?`,
		next.XP, next.Rating, unixOrNull(next.LastActivityBonus), id, expectedXP)
	if err != nil {
		return fmt.Errorf("failed to update standing for player %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("%w: player %d", ErrStaleStanding, id)
	}
	return nil
}

func collect(rows *sql.Rows) ([]Player, error) {
	players := []Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func scanPlayer(scanner interface{ Scan(...any) error }) (*Player, error) {
	var (
		p        Player
		rttRank  sql.NullInt64
		category sql.NullString
		bonus    sql.NullInt64
	)
	if err := scanner.Scan(&p.ID, &p.Name, &p.City, &p.Role, &p.Rating, &p.XP, &rttRank, &category, &bonus); err != nil {
		return nil, err
	}
	if rttRank.Valid {
		r := int(rttRank.Int64)
		p.RTTRank = &r
	}
	if category.Valid {
		p.RTTCategory = &category.String
	}
	if bonus.Valid {
		t := time.Unix(bonus.Int64, 0).UTC()
		p.LastActivityBonus = &t
	}
	return &p, nil
}

func unixOrNull(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
