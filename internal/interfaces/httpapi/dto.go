package httpapi

import (
	"time"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/report"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/teamform"
)

type teamDTO struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

type formDTO struct {
	Matches        int `json:"matches"`
	Wins           int `json:"wins"`
	Draws          int `json:"draws"`
	Losses         int `json:"losses"`
	GoalsFor       int `json:"goals_for"`
	GoalsAgainst   int `json:"goals_against"`
	GoalDifference int `json:"goal_difference"`
}

type summaryDTO struct {
	TotalMatches   int    `json:"total_matches"`
	Team1Wins      int    `json:"team1_wins"`
	Team2Wins      int    `json:"team2_wins"`
	Draws          int    `json:"draws"`
	Over15Count    int    `json:"over_1_5_count"`
	Over25Count    int    `json:"over_2_5_count"`
	Predicted      string `json:"predicted"`
	PredictedLabel string `json:"predicted_label"`
	LikelyOver15   bool   `json:"likely_over_1_5"`
	LikelyOver25   bool   `json:"likely_over_2_5"`
	Home1X         bool   `json:"home_1x"`
	Away2X         bool   `json:"away_2x"`
	BestBet        string `json:"best_bet"`
	BestBetLabel   string `json:"best_bet_label"`
}

type entryDTO struct {
	FixtureID  int64      `json:"fixture_id,omitempty"`
	LeagueID   int64      `json:"league_id,omitempty"`
	LeagueName string     `json:"league_name,omitempty"`
	KickoffAt  *time.Time `json:"kickoff_at,omitempty"`
	Team1      teamDTO    `json:"team1"`
	Team2      teamDTO    `json:"team2"`
	Summary    summaryDTO `json:"summary"`
	FormTeam1  *formDTO   `json:"form_team1,omitempty"`
	FormTeam2  *formDTO   `json:"form_team2,omitempty"`
	Lines      []string   `json:"lines"`
}

type reportDTO struct {
	Date        string     `json:"date"`
	GeneratedAt time.Time  `json:"generated_at"`
	Analysed    int        `json:"analysed"`
	Skipped     int        `json:"skipped"`
	Entries     []entryDTO `json:"entries"`
}

func entryToDTO(v report.Entry) entryDTO {
	s := v.Summary
	out := entryDTO{
		FixtureID:  v.FixtureID,
		LeagueID:   v.LeagueID,
		LeagueName: v.LeagueName,
		Team1:      teamDTO{ID: s.Pair.Team1.ID, Name: s.Pair.Team1.Name},
		Team2:      teamDTO{ID: s.Pair.Team2.ID, Name: s.Pair.Team2.Name},
		Summary: summaryDTO{
			TotalMatches:   s.TotalMatches,
			Team1Wins:      s.Team1Wins,
			Team2Wins:      s.Team2Wins,
			Draws:          s.Draws,
			Over15Count:    s.Over15Count,
			Over25Count:    s.Over25Count,
			Predicted:      string(s.Predicted),
			PredictedLabel: s.PredictedLabel(),
			LikelyOver15:   s.LikelyOver15,
			LikelyOver25:   s.LikelyOver25,
			Home1X:         s.Home1X,
			Away2X:         s.Away2X,
			BestBet:        string(s.BestBet),
			BestBetLabel:   s.BestBetLabel(),
		},
		FormTeam1: formToDTO(v.FormTeam1),
		FormTeam2: formToDTO(v.FormTeam2),
		Lines:     report.FormatEntry(v),
	}
	if !v.KickoffAt.IsZero() {
		kickoff := v.KickoffAt.UTC()
		out.KickoffAt = &kickoff
	}
	return out
}

func formToDTO(v *teamform.Form) *formDTO {
	if v == nil {
		return nil
	}
	return &formDTO{
		Matches:        v.Matches,
		Wins:           v.Wins,
		Draws:          v.Draws,
		Losses:         v.Losses,
		GoalsFor:       v.GoalsFor,
		GoalsAgainst:   v.GoalsAgainst,
		GoalDifference: v.GoalDifference(),
	}
}

func reportToDTO(v report.Report) reportDTO {
	entries := make([]entryDTO, 0, len(v.Entries))
	for _, entry := range v.Entries {
		entries = append(entries, entryToDTO(entry))
	}
	return reportDTO{
		Date:        v.DateKey(),
		GeneratedAt: v.GeneratedAt.UTC(),
		Analysed:    v.Analysed,
		Skipped:     v.Skipped,
		Entries:     entries,
	}
}
