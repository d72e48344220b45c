package fixture

import (
	"context"
	"time"
)

// Provider exposes fixture reads from the sports-data source.
type Provider interface {
	ListByDate(ctx context.Context, date time.Time) ([]Fixture, error)
	ListHeadToHead(ctx context.Context, team1, team2 TeamRef, limit int) ([]Fixture, error)
	ListRecentByTeam(ctx context.Context, teamID int64, limit int) ([]Fixture, error)
}
