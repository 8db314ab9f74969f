package ledger

import (
	"context"
	"database/sql"
	"time"
)

// Ledger is the append-only match history.
type Ledger interface {
	WithTx(tx *sql.Tx) Ledger
	Append(ctx context.Context, m *Match) (int64, error)
	// CountInMonth counts the player's matches in the calendar month containing month.
	CountInMonth(ctx context.Context, userID int64, month time.Time) (int, error)
	// Recent returns up to n of the player's matches, newest first.
	Recent(ctx context.Context, userID int64, n int) ([]Match, error)
	Records(ctx context.Context) (map[int64]Record, error)
}
