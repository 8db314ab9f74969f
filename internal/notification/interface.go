package notification

import (
	"context"
	"database/sql"
)

// Sink stores in-app notifications.
type Sink interface {
	WithTx(tx *sql.Tx) Sink
	Create(ctx context.Context, n *Notification) (int64, error)
	MarkRead(ctx context.Context, referenceID int64, types ...Type) (int64, error)
	DeleteByReference(ctx context.Context, referenceID int64, t Type) (int64, error)
	ListForUser(ctx context.Context, userID int64, unreadOnly bool) ([]Notification, error)
}
