package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/report"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/logging"
)

type DailyAnalysisConfig struct {
	Workers     int
	MaxFixtures int
	LeagueIDs   []int64
}

// DailyAnalysisService analyses every fixture scheduled on a date and hands
// the report to the configured writers.
type DailyAnalysisService struct {
	provider fixture.Provider
	pairs    *HeadToHeadService
	store    report.Repository
	writers  []report.Writer
	cfg      DailyAnalysisConfig
	leagues  map[int64]struct{}
	logger   *logging.Logger
	now      func() time.Time
}

// NewDailyAnalysisService saves every report to store (when non-nil) and
// then to each extra writer.
func NewDailyAnalysisService(
	provider fixture.Provider,
	pairs *HeadToHeadService,
	store report.Repository,
	extraWriters []report.Writer,
	cfg DailyAnalysisConfig,
	logger *logging.Logger,
) *DailyAnalysisService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	writers := make([]report.Writer, 0, len(extraWriters)+1)
	if store != nil {
		writers = append(writers, store)
	}
	for _, w := range extraWriters {
		if w != nil {
			writers = append(writers, w)
		}
	}

	var leagues map[int64]struct{}
	if len(cfg.LeagueIDs) > 0 {
		leagues = make(map[int64]struct{}, len(cfg.LeagueIDs))
		for _, id := range cfg.LeagueIDs {
			leagues[id] = struct{}{}
		}
	}

	return &DailyAnalysisService{
		provider: provider,
		pairs:    pairs,
		store:    store,
		writers:  writers,
		cfg:      cfg,
		leagues:  leagues,
		logger:   logger,
		now:      time.Now,
	}
}

type fixtureOutcome struct {
	index int
	entry report.Entry
	ok    bool
}

func (s *DailyAnalysisService) Run(ctx context.Context, date time.Time) (report.Report, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DailyAnalysisService.Run",
		attribute.String("date", date.Format(report.DateLayout)),
	)
	defer span.End()

	if date.IsZero() {
		return report.Report{}, fmt.Errorf("%w: analysis date is required", ErrInvalidInput)
	}
	date = startOfDay(date)

	fixtures, err := s.provider.ListByDate(ctx, date)
	if err != nil {
		span.RecordError(err)
		return report.Report{}, fmt.Errorf("list fixtures for %s: %w", date.Format(report.DateLayout), err)
	}

	candidates, skipped := s.selectFixtures(ctx, fixtures)
	s.logger.InfoContext(ctx, "analysing fixtures",
		"date", date.Format(report.DateLayout),
		"fixtures", len(fixtures),
		"candidates", len(candidates),
		"workers", s.cfg.Workers,
	)

	outcomes, err := s.analyseAll(ctx, candidates)
	if err != nil {
		return report.Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return report.Report{}, fmt.Errorf("analysis for %s interrupted: %w", date.Format(report.DateLayout), err)
	}

	out := report.Report{
		Date:        date,
		GeneratedAt: s.now().UTC(),
		Skipped:     skipped,
	}
	for _, outcome := range outcomes {
		if !outcome.ok {
			out.Skipped++
			continue
		}
		out.Entries = append(out.Entries, outcome.entry)
	}
	out.Analysed = len(out.Entries)

	if err := s.save(ctx, out); err != nil {
		span.RecordError(err)
		return out, err
	}

	s.logger.InfoContext(ctx, "analysis finished",
		"date", out.DateKey(),
		"analysed", out.Analysed,
		"skipped", out.Skipped,
	)
	return out, nil
}

// GetReport loads a previously saved report.
func (s *DailyAnalysisService) GetReport(ctx context.Context, date time.Time) (report.Report, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DailyAnalysisService.GetReport")
	defer span.End()

	if date.IsZero() {
		return report.Report{}, fmt.Errorf("%w: report date is required", ErrInvalidInput)
	}
	if s.store == nil {
		return report.Report{}, fmt.Errorf("%w: report storage is not configured", ErrDependencyUnavailable)
	}

	date = startOfDay(date)
	item, exists, err := s.store.GetByDate(ctx, date)
	if err != nil {
		return report.Report{}, fmt.Errorf("get report %s: %w", date.Format(report.DateLayout), err)
	}
	if !exists {
		return report.Report{}, fmt.Errorf("%w: report date=%s", ErrNotFound, date.Format(report.DateLayout))
	}
	return item, nil
}

func (s *DailyAnalysisService) selectFixtures(ctx context.Context, fixtures []fixture.Fixture) ([]fixture.Fixture, int) {
	out := make([]fixture.Fixture, 0, len(fixtures))
	skipped := 0
	for _, item := range fixtures {
		reason := ""
		switch {
		case !item.HasTeamIDs():
			reason = "missing team ids"
		case item.Home.ID == item.Away.ID:
			reason = "same team on both sides"
		case fixture.IsCancelledLikeStatus(item.Status):
			reason = "status " + fixture.NormalizeStatus(item.Status)
		case s.leagues != nil && !s.inLeagues(item.LeagueID):
			reason = "league not selected"
		case s.cfg.MaxFixtures > 0 && len(out) >= s.cfg.MaxFixtures:
			reason = "fixture limit reached"
		}
		if reason != "" {
			s.logger.DebugContext(ctx, "skip fixture", "fixture_id", item.ID, "reason", reason)
			skipped++
			continue
		}
		out = append(out, item)
	}
	return out, skipped
}

func (s *DailyAnalysisService) inLeagues(id int64) bool {
	_, ok := s.leagues[id]
	return ok
}

func (s *DailyAnalysisService) analyseAll(ctx context.Context, candidates []fixture.Fixture) ([]fixtureOutcome, error) {
	outcomes := make([]fixtureOutcome, len(candidates))
	if len(candidates) == 0 {
		return outcomes, nil
	}

	workerCount := s.cfg.Workers
	if workerCount > len(candidates) {
		workerCount = len(candidates)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan fixtureOutcome, len(candidates))
	var workers sync.WaitGroup
	for i, item := range candidates {
		i, item := i, item
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			results <- s.analyseFixture(ctx, i, item)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return nil, fmt.Errorf("submit fixture to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		outcomes[row.index] = row
	}
	return outcomes, nil
}

func (s *DailyAnalysisService) analyseFixture(ctx context.Context, index int, item fixture.Fixture) fixtureOutcome {
	out := fixtureOutcome{index: index}
	if ctx.Err() != nil {
		return out
	}

	s.logger.InfoContext(ctx, "analysing pair", "fixture_id", item.ID, "home", item.Home.Name, "away", item.Away.Name)
	entry, ok, err := s.pairs.AnalyzePair(ctx, PairInput{Team1: item.Home, Team2: item.Away})
	if err != nil {
		s.logger.WarnContext(ctx, "pair analysis failed", "fixture_id", item.ID, "error", err)
		return out
	}
	if !ok {
		s.logger.InfoContext(ctx, "no head-to-head data available", "fixture_id", item.ID, "pair", item.Home.Name+" vs "+item.Away.Name)
		return out
	}

	entry.FixtureID = item.ID
	entry.LeagueID = item.LeagueID
	entry.LeagueName = item.LeagueName
	entry.KickoffAt = item.KickoffAt
	out.entry = entry
	out.ok = true
	return out
}

func (s *DailyAnalysisService) save(ctx context.Context, rep report.Report) error {
	var errs []error
	for _, w := range s.writers {
		if err := w.Save(ctx, rep); err != nil {
			s.logger.ErrorContext(ctx, "save report failed", "date", rep.DateKey(), "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("save report %s: %w", rep.DateKey(), errors.Join(errs...))
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
