package report

import (
	"fmt"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/teamform"
)

const formUnavailable = "unavailable"

// FormatEntry renders an entry as the summary line followed by one recent
// form line per team.
func FormatEntry(entry Entry) []string {
	s := entry.Summary
	summary := fmt.Sprintf(
		"%s: Predicted winner - %s; Draws: %d; 1X (home win or draw): %t; 2X (away win or draw): %t; Likely over 1.5 goals: %t; Likely over 2.5 goals: %t (based on %d head-to-head matches); Best bet: %s",
		s.Pair.String(),
		s.PredictedLabel(),
		s.Draws,
		s.Home1X,
		s.Away2X,
		s.LikelyOver15,
		s.LikelyOver25,
		s.TotalMatches,
		s.BestBetLabel(),
	)

	return []string{
		summary,
		formLine(s.Pair.Team1.Name, entry.FormTeam1),
		formLine(s.Pair.Team2.Name, entry.FormTeam2),
	}
}

// FormatReport flattens every entry of report in order.
func FormatReport(report Report) []string {
	out := make([]string, 0, len(report.Entries)*3)
	for _, entry := range report.Entries {
		out = append(out, FormatEntry(entry)...)
	}
	return out
}

func formLine(team string, form *teamform.Form) string {
	value := formUnavailable
	if form != nil && !form.Empty() {
		value = form.String()
	}
	return "Recent form " + team + ": " + value
}
