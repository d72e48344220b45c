package headtohead

import (
	"fmt"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
)

const (
	// SafeBetRate is the strict lower bound a rate must exceed to be recommended.
	SafeBetRate = 0.7
	// LikelyRate is the inclusive lower bound for the "likely over" flags.
	LikelyRate = 0.5
)

// Pair names the two teams under comparison. Order only affects labels.
type Pair struct {
	Team1 fixture.TeamRef
	Team2 fixture.TeamRef
}

func (p Pair) Swap() Pair {
	return Pair{Team1: p.Team2, Team2: p.Team1}
}

func (p Pair) String() string {
	return p.Team1.Name + " vs " + p.Team2.Name
}

type Outcome string

const (
	OutcomeDraw  Outcome = "draw"
	OutcomeTeam1 Outcome = "team1"
	OutcomeTeam2 Outcome = "team2"
)

type Bet string

const (
	BetDraw        Bet = "draw"
	BetTeam1Win    Bet = "team1_win"
	BetTeam2Win    Bet = "team2_win"
	BetOver25      Bet = "over_2_5"
	BetOver15      Bet = "over_1_5"
	BetTeam1OrDraw Bet = "team1_or_draw"
	BetTeam2OrDraw Bet = "team2_or_draw"
	BetNone        Bet = "none"
)

// Summary is the head-to-head record of a Pair.
type Summary struct {
	Pair         Pair
	TotalMatches int
	Team1Wins    int
	Team2Wins    int
	Draws        int
	Over15Count  int
	Over25Count  int
	Predicted    Outcome
	LikelyOver15 bool
	LikelyOver25 bool
	Home1X       bool
	Away2X       bool
	BestBet      Bet
}

func (s Summary) PredictedLabel() string {
	switch s.Predicted {
	case OutcomeTeam1:
		return s.Pair.Team1.Name
	case OutcomeTeam2:
		return s.Pair.Team2.Name
	default:
		return "Draw"
	}
}

func (s Summary) BestBetLabel() string {
	return s.BestBet.Label(s.Pair)
}

// Label renders the recommendation with the team names of pair.
func (b Bet) Label(pair Pair) string {
	const suffix = " (>70% h2h)"
	switch b {
	case BetDraw:
		return "Draw" + suffix
	case BetTeam1Win:
		return pair.Team1.Name + " to win" + suffix
	case BetTeam2Win:
		return pair.Team2.Name + " to win" + suffix
	case BetOver25:
		return "Over 2.5 goals" + suffix
	case BetOver15:
		return "Over 1.5 goals" + suffix
	case BetTeam1OrDraw:
		return pair.Team1.Name + " win or draw (1X)" + suffix
	case BetTeam2OrDraw:
		return pair.Team2.Name + " win or draw (2X)" + suffix
	case BetNone:
		return "No safest bet" + suffix
	default:
		return fmt.Sprintf("unknown bet %q", string(b))
	}
}
