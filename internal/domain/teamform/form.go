package teamform

import "github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"

// Compute builds the form of team from matches. Matches the team did not
// take part in are ignored.
func Compute(team fixture.TeamRef, matches []fixture.Fixture) Form {
	out := Form{Team: team}
	for _, match := range matches {
		home, away := match.Goals()

		var scored, conceded int
		switch {
		case match.Home.Same(team):
			scored, conceded = home, away
		case match.Away.Same(team):
			scored, conceded = away, home
		default:
			continue
		}

		out.Matches++
		out.GoalsFor += scored
		out.GoalsAgainst += conceded
		switch {
		case scored > conceded:
			out.Wins++
		case scored < conceded:
			out.Losses++
		default:
			out.Draws++
		}
	}
	return out
}
