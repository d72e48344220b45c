package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
	basecache "github.com/riskibarqy/h2h-analyzer/internal/platform/cache"
)

// FixtureProvider caches provider responses so repeated pairs within one
// run, and repeated API lookups, do not spend request quota.
type FixtureProvider struct {
	next  fixture.Provider
	cache *basecache.Store[[]fixture.Fixture]
}

var _ fixture.Provider = (*FixtureProvider)(nil)

func NewFixtureProvider(next fixture.Provider, cache *basecache.Store[[]fixture.Fixture]) *FixtureProvider {
	return &FixtureProvider{next: next, cache: cache}
}

func (p *FixtureProvider) ListByDate(ctx context.Context, date time.Time) ([]fixture.Fixture, error) {
	key := "fixtures:date:" + date.Format("2006-01-02")
	return p.load(ctx, key, func(ctx context.Context) ([]fixture.Fixture, error) {
		return p.next.ListByDate(ctx, date)
	})
}

// ListHeadToHead shares one entry between both orderings of a pair.
func (p *FixtureProvider) ListHeadToHead(ctx context.Context, team1, team2 fixture.TeamRef, limit int) ([]fixture.Fixture, error) {
	low, high := team1.ID, team2.ID
	if low > high {
		low, high = high, low
	}
	key := "fixtures:h2h:" + strconv.FormatInt(low, 10) + "-" + strconv.FormatInt(high, 10) + ":" + strconv.Itoa(limit)
	return p.load(ctx, key, func(ctx context.Context) ([]fixture.Fixture, error) {
		return p.next.ListHeadToHead(ctx, team1, team2, limit)
	})
}

func (p *FixtureProvider) ListRecentByTeam(ctx context.Context, teamID int64, limit int) ([]fixture.Fixture, error) {
	key := "fixtures:team:" + strconv.FormatInt(teamID, 10) + ":" + strconv.Itoa(limit)
	return p.load(ctx, key, func(ctx context.Context) ([]fixture.Fixture, error) {
		return p.next.ListRecentByTeam(ctx, teamID, limit)
	})
}

func (p *FixtureProvider) load(ctx context.Context, key string, loader func(context.Context) ([]fixture.Fixture, error)) ([]fixture.Fixture, error) {
	items, err := p.cache.GetOrLoad(ctx, key, func(ctx context.Context) ([]fixture.Fixture, error) {
		items, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return append([]fixture.Fixture(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]fixture.Fixture(nil), items...), nil
}
