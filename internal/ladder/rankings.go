package ladder

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/mauv0809/tennis-ladder/internal/ledger"
	"github.com/mauv0809/tennis-ladder/internal/player"
	"golang.org/x/sync/errgroup"
)

// GetRankings builds a ladder view. club_elo ranks every player by xp, then
// rating, then name. rtt_rating ranks only players holding a positive RTT
// rank, by rank, then category, then rating.
func (s *Service) GetRankings(ctx context.Context, rankingType RankingType) ([]Entry, error) {
	var (
		filter player.Filter
		order  func(a, b player.Player) int
	)
	switch rankingType {
	case RankingClubElo:
		order = byClubElo
	case RankingRTTRating:
		filter.Ranked = true
		order = byRTTRating
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRankingType, rankingType)
	}

	var (
		players   []player.Player
		records   map[int64]ledger.Record
		defending map[int64]bool
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.players.ListPlayers(gCtx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.ledger.Records(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		defending, err = challengeStore{db: s.db}.activeDefenders(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, persistence("load rankings", err)
	}

	slices.SortStableFunc(players, order)

	entries := make([]Entry, 0, len(players))
	for i, p := range players {
		rec := records[p.ID]
		status := EntryIdle
		if defending[p.ID] {
			status = EntryDefending
		}
		entries = append(entries, Entry{
			Rank:        i + 1,
			PlayerID:    p.ID,
			Name:        p.Name,
			City:        p.City,
			Role:        string(p.Role),
			XP:          p.XP,
			Rating:      p.Rating,
			RTTRank:     p.RTTRank,
			RTTCategory: p.RTTCategory,
			Matches:     rec.Matches,
			Wins:        rec.Wins,
			WinRate:     winRate(rec),
			Status:      status,
		})
	}
	return entries, nil
}

func byClubElo(a, b player.Player) int {
	return cmp.Or(
		cmp.Compare(b.XP, a.XP),
		cmp.Compare(b.Rating, a.Rating),
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.ID, b.ID),
	)
}

func byRTTRating(a, b player.Player) int {
	return cmp.Or(
		cmp.Compare(deref(a.RTTRank), deref(b.RTTRank)),
		compareCategory(a.RTTCategory, b.RTTCategory),
		cmp.Compare(b.Rating, a.Rating),
		cmp.Compare(a.ID, b.ID),
	)
}

// compareCategory orders RTT categories alphabetically with a missing
// category after every real one.
func compareCategory(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

func winRate(r ledger.Record) int {
	if r.Matches == 0 {
		return 0
	}
	return int(math.Round(float64(r.Wins) / float64(r.Matches) * 100))
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
