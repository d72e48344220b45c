package postgres

import (
	"database/sql"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/headtohead"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/report"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/teamform"
)

type reportRunTableModel struct {
	ReportDate  time.Time `db:"report_date"`
	GeneratedAt time.Time `db:"generated_at"`
	Analysed    int       `db:"analysed"`
	Skipped     int       `db:"skipped"`
}

type reportEntryTableModel struct {
	ReportDate   string       `db:"report_date"`
	FixtureID    int64        `db:"fixture_id"`
	Position     int          `db:"position"`
	LeagueID     int64        `db:"league_id"`
	LeagueName   string       `db:"league_name"`
	KickoffAt    sql.NullTime `db:"kickoff_at"`
	Team1ID      int64        `db:"team1_id"`
	Team1Name    string       `db:"team1_name"`
	Team2ID      int64        `db:"team2_id"`
	Team2Name    string       `db:"team2_name"`
	TotalMatches int          `db:"total_matches"`
	Team1Wins    int          `db:"team1_wins"`
	Team2Wins    int          `db:"team2_wins"`
	Draws        int          `db:"draws"`
	Over15Count  int          `db:"over15_count"`
	Over25Count  int          `db:"over25_count"`
	Predicted    string       `db:"predicted"`
	LikelyOver15 bool         `db:"likely_over15"`
	LikelyOver25 bool         `db:"likely_over25"`
	Home1X       bool         `db:"home_1x"`
	Away2X       bool         `db:"away_2x"`
	BestBet      string       `db:"best_bet"`
	FormTeam1    []byte       `db:"form_team1"`
	FormTeam2    []byte       `db:"form_team2"`
}

// formDocument is the JSONB shape of a stored team form.
type formDocument struct {
	Matches      int `json:"matches"`
	Wins         int `json:"wins"`
	Draws        int `json:"draws"`
	Losses       int `json:"losses"`
	GoalsFor     int `json:"goals_for"`
	GoalsAgainst int `json:"goals_against"`
}

func encodeForm(form *teamform.Form) ([]byte, error) {
	if form == nil {
		return nil, nil
	}
	return sonic.Marshal(formDocument{
		Matches:      form.Matches,
		Wins:         form.Wins,
		Draws:        form.Draws,
		Losses:       form.Losses,
		GoalsFor:     form.GoalsFor,
		GoalsAgainst: form.GoalsAgainst,
	})
}

func decodeForm(team fixture.TeamRef, raw []byte) (*teamform.Form, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var doc formDocument
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &teamform.Form{
		Team:         team,
		Matches:      doc.Matches,
		Wins:         doc.Wins,
		Draws:        doc.Draws,
		Losses:       doc.Losses,
		GoalsFor:     doc.GoalsFor,
		GoalsAgainst: doc.GoalsAgainst,
	}, nil
}

func newReportEntryModel(dateKey string, position int, entry report.Entry) (reportEntryTableModel, error) {
	form1, err := encodeForm(entry.FormTeam1)
	if err != nil {
		return reportEntryTableModel{}, err
	}
	form2, err := encodeForm(entry.FormTeam2)
	if err != nil {
		return reportEntryTableModel{}, err
	}

	s := entry.Summary
	return reportEntryTableModel{
		ReportDate:   dateKey,
		FixtureID:    entry.FixtureID,
		Position:     position,
		LeagueID:     entry.LeagueID,
		LeagueName:   entry.LeagueName,
		KickoffAt:    timePtrToNullTime(&entry.KickoffAt),
		Team1ID:      s.Pair.Team1.ID,
		Team1Name:    s.Pair.Team1.Name,
		Team2ID:      s.Pair.Team2.ID,
		Team2Name:    s.Pair.Team2.Name,
		TotalMatches: s.TotalMatches,
		Team1Wins:    s.Team1Wins,
		Team2Wins:    s.Team2Wins,
		Draws:        s.Draws,
		Over15Count:  s.Over15Count,
		Over25Count:  s.Over25Count,
		Predicted:    string(s.Predicted),
		LikelyOver15: s.LikelyOver15,
		LikelyOver25: s.LikelyOver25,
		Home1X:       s.Home1X,
		Away2X:       s.Away2X,
		BestBet:      string(s.BestBet),
		FormTeam1:    form1,
		FormTeam2:    form2,
	}, nil
}

func (m reportEntryTableModel) toDomain() (report.Entry, error) {
	pair := headtohead.Pair{
		Team1: fixture.TeamRef{ID: m.Team1ID, Name: m.Team1Name},
		Team2: fixture.TeamRef{ID: m.Team2ID, Name: m.Team2Name},
	}
	form1, err := decodeForm(pair.Team1, m.FormTeam1)
	if err != nil {
		return report.Entry{}, err
	}
	form2, err := decodeForm(pair.Team2, m.FormTeam2)
	if err != nil {
		return report.Entry{}, err
	}

	return report.Entry{
		FixtureID:  m.FixtureID,
		LeagueID:   m.LeagueID,
		LeagueName: m.LeagueName,
		KickoffAt:  nullTimeToTime(m.KickoffAt),
		Summary: headtohead.Summary{
			Pair:         pair,
			TotalMatches: m.TotalMatches,
			Team1Wins:    m.Team1Wins,
			Team2Wins:    m.Team2Wins,
			Draws:        m.Draws,
			Over15Count:  m.Over15Count,
			Over25Count:  m.Over25Count,
			Predicted:    headtohead.Outcome(m.Predicted),
			LikelyOver15: m.LikelyOver15,
			LikelyOver25: m.LikelyOver25,
			Home1X:       m.Home1X,
			Away2X:       m.Away2X,
			BestBet:      headtohead.Bet(m.BestBet),
		},
		FormTeam1: form1,
		FormTeam2: form2,
	}, nil
}
