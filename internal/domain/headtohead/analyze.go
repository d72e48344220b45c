package headtohead

import "github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"

// Analyze tallies the head-to-head record of pair over matches.
// It returns false when matches is empty.
func Analyze(pair Pair, matches []fixture.Fixture) (Summary, bool) {
	if len(matches) == 0 {
		return Summary{}, false
	}

	out := Summary{Pair: pair, TotalMatches: len(matches)}
	for _, match := range matches {
		home, away := match.Goals()
		total := float64(home + away)
		if total > 1.5 {
			out.Over15Count++
		}
		if total > 2.5 {
			out.Over25Count++
		}

		switch {
		case home == away:
			out.Draws++
		case home > away:
			out.creditWin(match.Home)
		default:
			out.creditWin(match.Away)
		}
	}

	out.Predicted = predictOutcome(out.Team1Wins, out.Team2Wins, out.Draws)
	total := float64(out.TotalMatches)
	out.LikelyOver15 = float64(out.Over15Count)/total >= LikelyRate
	out.LikelyOver25 = float64(out.Over25Count)/total >= LikelyRate
	out.Home1X = out.Team1Wins+out.Draws > out.Team2Wins
	out.Away2X = out.Team2Wins+out.Draws > out.Team1Wins
	out.BestBet = pickBestBet(out)

	return out, true
}

// Wins by a team that is neither side of the pair are dropped.
func (s *Summary) creditWin(winner fixture.TeamRef) {
	switch {
	case winner.Same(s.Pair.Team1):
		s.Team1Wins++
	case winner.Same(s.Pair.Team2):
		s.Team2Wins++
	}
}

func predictOutcome(team1Wins, team2Wins, draws int) Outcome {
	switch {
	case draws > team1Wins && draws > team2Wins:
		return OutcomeDraw
	case team1Wins > team2Wins:
		return OutcomeTeam1
	case team2Wins > team1Wins:
		return OutcomeTeam2
	default:
		return OutcomeDraw
	}
}

func pickBestBet(s Summary) Bet {
	total := float64(s.TotalMatches)
	drawRate := float64(s.Draws) / total
	team1Rate := float64(s.Team1Wins) / total
	team2Rate := float64(s.Team2Wins) / total
	over15Rate := float64(s.Over15Count) / total
	over25Rate := float64(s.Over25Count) / total

	switch {
	case drawRate > SafeBetRate:
		return BetDraw
	case team1Rate > SafeBetRate:
		return BetTeam1Win
	case team2Rate > SafeBetRate:
		return BetTeam2Win
	case over25Rate > SafeBetRate:
		return BetOver25
	case over15Rate > SafeBetRate:
		return BetOver15
	case s.Home1X && team1Rate+drawRate > SafeBetRate:
		return BetTeam1OrDraw
	case s.Away2X && team2Rate+drawRate > SafeBetRate:
		return BetTeam2OrDraw
	default:
		return BetNone
	}
}
