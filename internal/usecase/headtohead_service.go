package usecase

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/headtohead"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/report"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/teamform"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/logging"
)

type HeadToHeadConfig struct {
	// H2HLimit caps the history to the last N meetings; 0 means all.
	H2HLimit     int
	FinishedOnly bool
	FormEnabled  bool
	FormMatches  int
}

type PairInput struct {
	Team1    fixture.TeamRef
	Team2    fixture.TeamRef
	SkipForm bool
}

type HeadToHeadService struct {
	provider fixture.Provider
	cfg      HeadToHeadConfig
	logger   *logging.Logger
}

func NewHeadToHeadService(provider fixture.Provider, cfg HeadToHeadConfig, logger *logging.Logger) *HeadToHeadService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FormMatches <= 0 {
		cfg.FormMatches = 5
	}
	if cfg.H2HLimit < 0 {
		cfg.H2HLimit = 0
	}

	return &HeadToHeadService{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// AnalyzePair returns false when the two teams have no usable meetings.
// Form lookups are best effort: a failure leaves the form nil.
func (s *HeadToHeadService) AnalyzePair(ctx context.Context, input PairInput) (report.Entry, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HeadToHeadService.AnalyzePair",
		attribute.Int64("team1_id", input.Team1.ID),
		attribute.Int64("team2_id", input.Team2.ID),
	)
	defer span.End()

	if input.Team1.ID <= 0 || input.Team2.ID <= 0 {
		return report.Entry{}, false, fmt.Errorf("%w: both team ids are required", ErrInvalidInput)
	}
	if input.Team1.ID == input.Team2.ID {
		return report.Entry{}, false, fmt.Errorf("%w: team ids must differ (team=%d)", ErrInvalidInput, input.Team1.ID)
	}

	var (
		history      []fixture.Fixture
		form1, form2 *teamform.Form
	)

	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		items, err := s.provider.ListHeadToHead(ctx, input.Team1, input.Team2, s.cfg.H2HLimit)
		if err != nil {
			return fmt.Errorf("list head-to-head team1=%d team2=%d: %w", input.Team1.ID, input.Team2.ID, err)
		}
		history = items
		return nil
	})
	if s.cfg.FormEnabled && !input.SkipForm {
		p.Go(func(ctx context.Context) error {
			form1 = s.recentForm(ctx, input.Team1)
			return nil
		})
		p.Go(func(ctx context.Context) error {
			form2 = s.recentForm(ctx, input.Team2)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		span.RecordError(err)
		return report.Entry{}, false, err
	}

	if s.cfg.FinishedOnly {
		history = fixture.FinishedOnly(history)
	}

	summary, ok := headtohead.Analyze(headtohead.Pair{Team1: input.Team1, Team2: input.Team2}, history)
	if !ok {
		return report.Entry{}, false, nil
	}

	return report.Entry{
		Summary:   summary,
		FormTeam1: form1,
		FormTeam2: form2,
	}, true, nil
}

func (s *HeadToHeadService) recentForm(ctx context.Context, team fixture.TeamRef) *teamform.Form {
	items, err := s.provider.ListRecentByTeam(ctx, team.ID, s.cfg.FormMatches)
	if err != nil {
		s.logger.WarnContext(ctx, "team form unavailable", "team_id", team.ID, "team", team.Name, "error", err)
		return nil
	}
	form := teamform.Compute(team, fixture.FinishedOnly(items))
	return &form
}
