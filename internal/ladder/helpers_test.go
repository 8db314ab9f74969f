package ladder_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/tennis-ladder/internal/database"
	"github.com/mauv0809/tennis-ladder/internal/ladder"
	"github.com/mauv0809/tennis-ladder/internal/ledger"
	"github.com/mauv0809/tennis-ladder/internal/metrics"
	"github.com/mauv0809/tennis-ladder/internal/notification"
	"github.com/mauv0809/tennis-ladder/internal/player"
	"github.com/mauv0809/tennis-ladder/internal/pubsub"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	svc           *ladder.Service
	db            *sql.DB
	players       player.Store
	ledger        ledger.Ledger
	notifications notification.Sink
	events        *pubsub.MockPubSubClient
	metrics       *metrics.Mock
	clock         *fakeClock
}

type fixtureOption func(*ladder.Options)

func withExclusiveDefender() fixtureOption {
	return func(o *ladder.Options) { o.ExclusiveDefender = true }
}

var testStart = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func setupLadder(t *testing.T, opts ...fixtureOption) (*fixture, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	f := &fixture{
		db:            db,
		players:       player.New(db),
		ledger:        ledger.New(db),
		notifications: notification.New(db),
		events:        pubsub.NewMock(),
		metrics:       metrics.NewMock(),
		clock:         &fakeClock{now: testStart},
	}
	o := ladder.Options{Now: f.clock.Now}
	for _, opt := range opts {
		opt(&o)
	}
	f.svc = ladder.New(db, f.players, f.ledger, f.notifications, f.events, f.metrics, o)
	return f, teardown
}

func (f *fixture) addPlayer(t *testing.T, name string, role player.Role, xp int) int64 {
	t.Helper()
	id, err := player.New(f.db).UpsertPlayer(context.Background(), &player.Player{Name: name, Role: role, XP: xp, Rating: 1000})
	require.NoError(t, err)
	return id
}

func (f *fixture) xp(t *testing.T, id int64) int {
	t.Helper()
	p, err := player.New(f.db).GetPlayer(context.Background(), id)
	require.NoError(t, err)
	return p.XP
}

func (f *fixture) ledgerRows(t *testing.T, challengeID int64) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM matches WHERE challenge_id = ?", challengeID).Scan(&n))
	return n
}

func (f *fixture) totalLedgerRows(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&n))
	return n
}

// play creates a challenge and records a result for it.
func (f *fixture) play(t *testing.T, challengerID, defenderID, winnerID int64) *ladder.Challenge {
	t.Helper()
	ctx := context.Background()
	c, err := f.svc.CreateChallenge(ctx, challengerID, defenderID, "")
	require.NoError(t, err)
	done, err := f.svc.SubmitResult(ctx, c.ID, "6-4 6-4", winnerID, "")
	require.NoError(t, err)
	return done
}

// priorWin appends a win to the player's history dated before the test month.
func (f *fixture) priorWin(t *testing.T, userID int64, daysAgo int) {
	t.Helper()
	_, err := f.ledger.Append(context.Background(), &ledger.Match{
		UserID:       userID,
		OpponentName: "Club sparring",
		Score:        "6-2 6-2",
		Date:         time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo),
		Result:       ledger.ResultWin,
	})
	require.NoError(t, err)
}

// staleStandingStore fails compare-and-set for one player, as if another
// writer had changed their xp first.
type staleStandingStore struct {
	player.Store
	failID int64
}

func (s staleStandingStore) WithTx(tx *sql.Tx) player.Store {
	return staleStandingStore{Store: s.Store.WithTx(tx), failID: s.failID}
}

func (s staleStandingStore) CompareAndSetStanding(ctx context.Context, id int64, expectedXP int, next player.Standing) error {
	if id == s.failID {
		return player.ErrStaleStanding
	}
	return s.Store.CompareAndSetStanding(ctx, id, expectedXP, next)
}
