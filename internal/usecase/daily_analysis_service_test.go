package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/report"
	fixturemock "github.com/riskibarqy/h2h-analyzer/internal/mocks/domain/fixture"
	reportmock "github.com/riskibarqy/h2h-analyzer/internal/mocks/domain/report"
)

var analysisDate = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

func scheduled(id, leagueID int64, home, away fixture.TeamRef, status string) fixture.Fixture {
	return fixture.Fixture{
		ID:         id,
		LeagueID:   leagueID,
		LeagueName: "Premier League",
		Status:     status,
		Home:       home,
		Away:       away,
		KickoffAt:  analysisDate.Add(19 * time.Hour),
	}
}

func newDailyService(t *testing.T, provider fixture.Provider, store report.Repository, writers []report.Writer, cfg DailyAnalysisConfig) *DailyAnalysisService {
	t.Helper()
	pairs := NewHeadToHeadService(provider, HeadToHeadConfig{FinishedOnly: true}, nil)
	return NewDailyAnalysisService(provider, pairs, store, writers, cfg, nil)
}

func TestDailyAnalysisService_Run_SkipsAndSaves(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	provider := fixturemock.NewProvider(t)
	store := reportmock.NewRepository(t)
	file := reportmock.NewWriter(t)
	service := newDailyService(t, provider, store, []report.Writer{file}, DailyAnalysisConfig{Workers: 2})

	provider.
		On("ListByDate", mock.Anything, analysisDate).
		Return([]fixture.Fixture{
			scheduled(100, 39, arsenal, chelsea, fixture.StatusNotStarted),
			scheduled(101, 39, everton, fixture.TeamRef{Name: "Unknown"}, fixture.StatusNotStarted),
			scheduled(102, 39, fulham, everton, fixture.StatusCancelled),
			scheduled(103, 39, everton, fulham, fixture.StatusNotStarted),
		}, nil).
		Once()
	provider.
		On("ListHeadToHead", mock.Anything, arsenal, chelsea, 0).
		Return([]fixture.Fixture{finished(1, chelsea, arsenal, 0, 2)}, nil).
		Once()
	provider.
		On("ListHeadToHead", mock.Anything, everton, fulham, 0).
		Return(nil, nil).
		Once()

	savedReport := mock.MatchedBy(func(r report.Report) bool {
		return r.Analysed == 1 && r.Skipped == 3 && len(r.Entries) == 1 && r.Entries[0].FixtureID == 100
	})
	store.On("Save", mock.Anything, savedReport).Return(nil).Once()
	file.On("Save", mock.Anything, savedReport).Return(nil).Once()

	got, err := service.Run(ctx, analysisDate.Add(15*time.Hour))
	if err != nil {
		t.Fatalf("run analysis: %v", err)
	}
	if !got.Date.Equal(analysisDate) {
		t.Fatalf("expected date truncated to day, got %s", got.Date)
	}
	entry := got.Entries[0]
	if entry.LeagueID != 39 || entry.Summary.Team1Wins != 1 || entry.Summary.Pair.Team1 != arsenal {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestDailyAnalysisService_Run_KeepsProviderOrder(t *testing.T) {
	t.Parallel()

	provider := fixturemock.NewProvider(t)
	service := newDailyService(t, provider, nil, nil, DailyAnalysisConfig{Workers: 4})

	teams := []fixture.TeamRef{arsenal, chelsea, everton, fulham, {ID: 40, Name: "Liverpool"}, {ID: 50, Name: "Man City"}}
	var fixtures []fixture.Fixture
	for i := 0; i+1 < len(teams); i++ {
		item := scheduled(int64(200+i), 39, teams[i], teams[i+1], fixture.StatusNotStarted)
		fixtures = append(fixtures, item)
		provider.
			On("ListHeadToHead", mock.Anything, item.Home, item.Away, 0).
			Return([]fixture.Fixture{finished(int64(i), item.Home, item.Away, 1, 0)}, nil).
			Once()
	}
	provider.On("ListByDate", mock.Anything, analysisDate).Return(fixtures, nil).Once()

	got, err := service.Run(context.Background(), analysisDate)
	if err != nil {
		t.Fatalf("run analysis: %v", err)
	}
	if len(got.Entries) != len(fixtures) {
		t.Fatalf("expected %d entries, got %d", len(fixtures), len(got.Entries))
	}
	for i, entry := range got.Entries {
		if entry.FixtureID != fixtures[i].ID {
			t.Fatalf("entry %d out of order: got fixture %d want %d", i, entry.FixtureID, fixtures[i].ID)
		}
	}
}

func TestDailyAnalysisService_Run_LeagueFilterAndLimit(t *testing.T) {
	t.Parallel()

	provider := fixturemock.NewProvider(t)
	service := newDailyService(t, provider, nil, nil, DailyAnalysisConfig{MaxFixtures: 1, LeagueIDs: []int64{140}})

	provider.
		On("ListByDate", mock.Anything, analysisDate).
		Return([]fixture.Fixture{
			scheduled(300, 39, arsenal, chelsea, fixture.StatusNotStarted),
			scheduled(301, 140, everton, fulham, fixture.StatusNotStarted),
			scheduled(302, 140, fulham, arsenal, fixture.StatusNotStarted),
		}, nil).
		Once()
	provider.
		On("ListHeadToHead", mock.Anything, everton, fulham, 0).
		Return([]fixture.Fixture{finished(1, everton, fulham, 1, 1)}, nil).
		Once()

	got, err := service.Run(context.Background(), analysisDate)
	if err != nil {
		t.Fatalf("run analysis: %v", err)
	}
	if got.Analysed != 1 || got.Skipped != 2 || got.Entries[0].FixtureID != 301 {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestDailyAnalysisService_Run_ProviderError(t *testing.T) {
	t.Parallel()

	provider := fixturemock.NewProvider(t)
	service := newDailyService(t, provider, nil, nil, DailyAnalysisConfig{})

	upstream := errors.New("api-football status=500")
	provider.On("ListByDate", mock.Anything, analysisDate).Return(nil, upstream).Once()

	if _, err := service.Run(context.Background(), analysisDate); !errors.Is(err, upstream) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestDailyAnalysisService_Run_WriterFailureStillTriesOthers(t *testing.T) {
	t.Parallel()

	provider := fixturemock.NewProvider(t)
	store := reportmock.NewRepository(t)
	file := reportmock.NewWriter(t)
	service := newDailyService(t, provider, store, []report.Writer{file}, DailyAnalysisConfig{})

	diskFull := errors.New("no space left on device")
	provider.On("ListByDate", mock.Anything, analysisDate).Return([]fixture.Fixture{}, nil).Once()
	store.On("Save", mock.Anything, mock.Anything).Return(diskFull).Once()
	file.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	got, err := service.Run(context.Background(), analysisDate)
	if !errors.Is(err, diskFull) {
		t.Fatalf("expected writer error, got %v", err)
	}
	if got.Analysed != 0 {
		t.Fatalf("expected empty report, got %+v", got)
	}
}

func TestDailyAnalysisService_Run_RequiresDate(t *testing.T) {
	t.Parallel()

	service := newDailyService(t, fixturemock.NewProvider(t), nil, nil, DailyAnalysisConfig{})
	if _, err := service.Run(context.Background(), time.Time{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDailyAnalysisService_GetReport(t *testing.T) {
	t.Parallel()

	store := reportmock.NewRepository(t)
	service := newDailyService(t, fixturemock.NewProvider(t), store, nil, DailyAnalysisConfig{})

	missing := analysisDate.AddDate(0, 0, -1)
	store.On("GetByDate", mock.Anything, missing).Return(report.Report{}, false, nil).Once()
	store.On("GetByDate", mock.Anything, analysisDate).Return(report.Report{Date: analysisDate, Analysed: 4}, true, nil).Once()

	if _, err := service.GetReport(context.Background(), missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, err := service.GetReport(context.Background(), analysisDate)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if got.Analysed != 4 {
		t.Fatalf("unexpected report: %+v", got)
	}
}
