package player

import (
	"context"
	"database/sql"
)

// Store is the player record store.
type Store interface {
	// WithTx returns a Store whose queries run inside tx.
	WithTx(tx *sql.Tx) Store
	UpsertPlayer(ctx context.Context, p *Player) (int64, error)
	GetPlayer(ctx context.Context, id int64) (*Player, error)
	GetPlayers(ctx context.Context, ids []int64) ([]Player, error)
	ListPlayers(ctx context.Context, filter Filter) ([]Player, error)
	CompareAndSetStanding(ctx context.Context, id int64, expectedXP int, next Standing) error
}
