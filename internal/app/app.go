package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/h2h-analyzer/external/apifootball"
	"github.com/riskibarqy/h2h-analyzer/external/footballdata"
	"github.com/riskibarqy/h2h-analyzer/internal/config"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/report"
	"github.com/riskibarqy/h2h-analyzer/internal/infrastructure/report/textfile"
	cacherepo "github.com/riskibarqy/h2h-analyzer/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/h2h-analyzer/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/h2h-analyzer/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/h2h-analyzer/internal/interfaces/httpapi"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/cache"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/logging"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/resilience"
	"github.com/riskibarqy/h2h-analyzer/internal/usecase"
)

// Services holds the wired use cases shared by the API and the CLI.
type Services struct {
	HeadToHead *usecase.HeadToHeadService
	Analysis   *usecase.DailyAnalysisService
	ResultFile *textfile.Writer

	db *sqlx.DB
}

// Close releases the database handle when one was opened.
func (s *Services) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BuildServices wires provider, storage and use cases from cfg.
func BuildServices(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Services, error) {
	if logger == nil {
		logger = logging.Default()
	}

	provider := newProvider(cfg, logger)
	out := &Services{
		ResultFile: textfile.NewWriter(cfg.ResultsPath, logger),
	}

	var store report.Repository = memory.NewReportRepository()
	if cfg.DBEnabled {
		db, err := openDB(ctx, cfg.DBURL)
		if err != nil {
			return nil, err
		}
		out.db = db
		store = postgres.NewReportRepository(db)
		logger.Info("report storage ready", "backend", "postgres")
	} else {
		logger.Info("report storage ready", "backend", "memory", "reason", "DB_ENABLED=false")
	}

	out.HeadToHead = usecase.NewHeadToHeadService(provider, usecase.HeadToHeadConfig{
		H2HLimit:     cfg.H2HLimit,
		FinishedOnly: cfg.H2HFinishedOnly,
		FormEnabled:  cfg.FormEnabled,
		FormMatches:  cfg.FormMatches,
	}, logger)
	out.Analysis = usecase.NewDailyAnalysisService(
		provider,
		out.HeadToHead,
		store,
		[]report.Writer{out.ResultFile},
		usecase.DailyAnalysisConfig{
			Workers:     cfg.AnalysisWorkers,
			MaxFixtures: cfg.AnalysisMaxFixtures,
			LeagueIDs:   cfg.AnalysisLeagueIDs,
		},
		logger,
	)

	return out, nil
}

// newProvider picks API-Football when its key is set and falls back to
// football-data.org otherwise. Both share the timeout, retry and breaker
// settings.
func newProvider(cfg config.Config, logger *logging.Logger) fixture.Provider {
	breaker := resilience.BreakerConfig{
		Enabled:             cfg.APIFootballCircuitEnabled,
		FailureThreshold:    cfg.APIFootballCircuitFailureCount,
		OpenTimeout:         cfg.APIFootballCircuitOpenTimeout,
		HalfOpenMaxRequests: cfg.APIFootballCircuitHalfOpenMaxReq,
	}

	var client fixture.Provider
	if cfg.APIFootballKey != "" {
		client = apifootball.NewClient(apifootball.ClientConfig{
			BaseURL:         cfg.APIFootballBaseURL,
			APIKey:          cfg.APIFootballKey,
			Timezone:        cfg.APIFootballTimezone,
			Timeout:         cfg.APIFootballTimeout,
			MaxRetries:      cfg.APIFootballMaxRetries,
			RequestInterval: cfg.APIFootballRequestInterval,
			Logger:          logger.Named("apifootball"),
			CircuitBreaker:  breaker,
		})
	} else {
		client = footballdata.NewClient(footballdata.ClientConfig{
			BaseURL:         cfg.FootballDataBaseURL,
			APIKey:          cfg.FootballDataKey,
			Timeout:         cfg.APIFootballTimeout,
			MaxRetries:      cfg.APIFootballMaxRetries,
			RequestInterval: cfg.FootballDataRequestInterval,
			Logger:          logger.Named("footballdata"),
			CircuitBreaker:  breaker,
		})
	}
	if !cfg.CacheEnabled {
		return client
	}
	return cacherepo.NewFixtureProvider(client, cache.NewStore[[]fixture.Fixture](cfg.CacheTTL))
}

// NewHTTPServer builds the API server on top of services.
func NewHTTPServer(cfg config.Config, services *Services, logger *logging.Logger) (*http.Server, error) {
	if services == nil {
		return nil, errors.New("services are required")
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(services.HeadToHead, services.Analysis, cfg.AnalysisLocation, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
