package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/report"
)

const (
	upsertReportRunSQL = `INSERT INTO h2h_report_runs (report_date, generated_at, analysed, skipped)
VALUES ($1, $2, $3, $4)
ON CONFLICT (report_date)
DO UPDATE SET
    generated_at = EXCLUDED.generated_at,
    analysed = EXCLUDED.analysed,
    skipped = EXCLUDED.skipped,
    updated_at = NOW()`

	upsertReportEntrySQL = `INSERT INTO h2h_reports (
    report_date, fixture_id, position, league_id, league_name, kickoff_at,
    team1_id, team1_name, team2_id, team2_name,
    total_matches, team1_wins, team2_wins, draws, over15_count, over25_count,
    predicted, likely_over15, likely_over25, home_1x, away_2x, best_bet,
    form_team1, form_team2
) VALUES (
    :report_date, :fixture_id, :position, :league_id, :league_name, :kickoff_at,
    :team1_id, :team1_name, :team2_id, :team2_name,
    :total_matches, :team1_wins, :team2_wins, :draws, :over15_count, :over25_count,
    :predicted, :likely_over15, :likely_over25, :home_1x, :away_2x, :best_bet,
    CAST(:form_team1 AS JSONB), CAST(:form_team2 AS JSONB)
)
ON CONFLICT (report_date, fixture_id)
DO UPDATE SET
    position = EXCLUDED.position,
    league_id = EXCLUDED.league_id,
    league_name = EXCLUDED.league_name,
    kickoff_at = EXCLUDED.kickoff_at,
    team1_id = EXCLUDED.team1_id,
    team1_name = EXCLUDED.team1_name,
    team2_id = EXCLUDED.team2_id,
    team2_name = EXCLUDED.team2_name,
    total_matches = EXCLUDED.total_matches,
    team1_wins = EXCLUDED.team1_wins,
    team2_wins = EXCLUDED.team2_wins,
    draws = EXCLUDED.draws,
    over15_count = EXCLUDED.over15_count,
    over25_count = EXCLUDED.over25_count,
    predicted = EXCLUDED.predicted,
    likely_over15 = EXCLUDED.likely_over15,
    likely_over25 = EXCLUDED.likely_over25,
    home_1x = EXCLUDED.home_1x,
    away_2x = EXCLUDED.away_2x,
    best_bet = EXCLUDED.best_bet,
    form_team1 = EXCLUDED.form_team1,
    form_team2 = EXCLUDED.form_team2,
    updated_at = NOW()`

	deleteStaleEntriesSQL = `DELETE FROM h2h_reports WHERE report_date = $1 AND NOT (fixture_id = ANY($2))`

	selectReportRunSQL = `SELECT report_date, generated_at, analysed, skipped
FROM h2h_report_runs
WHERE report_date = $1`

	selectReportEntriesSQL = `SELECT
    to_char(report_date, 'YYYY-MM-DD') AS report_date, fixture_id, position, league_id, league_name, kickoff_at,
    team1_id, team1_name, team2_id, team2_name,
    total_matches, team1_wins, team2_wins, draws, over15_count, over25_count,
    predicted, likely_over15, likely_over25, home_1x, away_2x, best_bet,
    form_team1, form_team2
FROM h2h_reports
WHERE report_date = $1
ORDER BY position, fixture_id`
)

type ReportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*ReportRepository)(nil)

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save upserts the run summary and one row per entry, then removes rows
// of fixtures that are no longer part of the report for that date.
func (r *ReportRepository) Save(ctx context.Context, item report.Report) error {
	dateKey := item.DateKey()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx save report: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, upsertReportRunSQL, dateKey, item.GeneratedAt.UTC(), item.Analysed, item.Skipped); err != nil {
		return fmt.Errorf("upsert report run date=%s: %w", dateKey, err)
	}

	fixtureIDs := make([]int64, 0, len(item.Entries))
	for i, entry := range item.Entries {
		row, err := newReportEntryModel(dateKey, i, entry)
		if err != nil {
			return fmt.Errorf("encode report entry fixture=%d: %w", entry.FixtureID, err)
		}
		if _, err := tx.NamedExecContext(ctx, upsertReportEntrySQL, row); err != nil {
			return fmt.Errorf("upsert report entry date=%s fixture=%d: %w", dateKey, entry.FixtureID, err)
		}
		fixtureIDs = append(fixtureIDs, entry.FixtureID)
	}

	if _, err := tx.ExecContext(ctx, deleteStaleEntriesSQL, dateKey, pq.Array(fixtureIDs)); err != nil {
		return fmt.Errorf("delete stale report entries date=%s: %w", dateKey, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save report tx: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByDate(ctx context.Context, date time.Time) (report.Report, bool, error) {
	dateKey := date.Format(report.DateLayout)

	var run reportRunTableModel
	if err := r.db.GetContext(ctx, &run, selectReportRunSQL, dateKey); err != nil {
		if isNotFound(err) {
			return report.Report{}, false, nil
		}
		return report.Report{}, false, fmt.Errorf("select report run date=%s: %w", dateKey, err)
	}

	var rows []reportEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, selectReportEntriesSQL, dateKey); err != nil {
		return report.Report{}, false, fmt.Errorf("select report entries date=%s: %w", dateKey, err)
	}

	out := report.Report{
		Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location()),
		GeneratedAt: run.GeneratedAt.UTC(),
		Analysed:    run.Analysed,
		Skipped:     run.Skipped,
		Entries:     make([]report.Entry, 0, len(rows)),
	}
	for _, row := range rows {
		entry, err := row.toDomain()
		if err != nil {
			return report.Report{}, false, fmt.Errorf("decode report entry fixture=%d: %w", row.FixtureID, err)
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, true, nil
}
