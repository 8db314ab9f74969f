package notification

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mauv0809/tennis-ladder/internal/database"
)

// New creates a Sink backed by db.
func New(db database.DBTX) Sink {
	return &store{db: db}
}

func (s *store) WithTx(tx *sql.Tx) Sink {
	return &store{db: tx}
}

func (s *store) Create(ctx context.Context, n *Notification) (int64, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, type, message, reference_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Type, n.Message, n.ReferenceID, n.IsRead, n.CreatedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to create %s notification: %w", n.Type, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read notification id: %w", err)
	}
	n.ID = id
	return id, nil
}

// MarkRead marks every notification of the given types that points at
// referenceID as read and returns how many rows changed.
func (s *store) MarkRead(ctx context.Context, referenceID int64, types ...Type) (int64, error) {
	if len(types) == 0 {
		return 0, nil
	}
	args := []any{referenceID}
	for _, t := range types {
		args = append(args, t)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(types)), ",")

	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE reference_id = ? AND is_read = 0 AND type IN ("+placeholders+")",
		args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read for reference %d: %w", referenceID, err)
	}
	return res.RowsAffected()
}

func (s *store) DeleteByReference(ctx context.Context, referenceID int64, t Type) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notifications WHERE reference_id = ? AND type = ?", referenceID, t)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s notifications for reference %d: %w", t, referenceID, err)
	}
	return res.RowsAffected()
}

func (s *store) ListForUser(ctx context.Context, userID int64, unreadOnly bool) ([]Notification, error) {
	query := "SELECT id, user_id, type, message, reference_id, is_read, created_at FROM notifications WHERE user_id = ?"
	if unreadOnly {
		query += " AND is_read = 0"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for player %d: %w", userID, err)
	}
	defer rows.Close()

	list := []Notification{}
	for rows.Next() {
		var (
			n         Notification
			createdAt int64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.ReferenceID, &n.IsRead, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		n.CreatedAt = time.Unix(createdAt, 0).UTC()
		list = append(list, n)
	}
	return list, rows.Err()
}
