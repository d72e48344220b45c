package teamform

import (
	"fmt"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
)

// Form is a team's record over its most recent matches.
type Form struct {
	Team         fixture.TeamRef
	Matches      int
	Wins         int
	Draws        int
	Losses       int
	GoalsFor     int
	GoalsAgainst int
}

func (f Form) Empty() bool {
	return f.Matches == 0
}

func (f Form) GoalDifference() int {
	return f.GoalsFor - f.GoalsAgainst
}

func (f Form) String() string {
	return fmt.Sprintf("W%d D%d L%d, goals %d-%d (%d matches)", f.Wins, f.Draws, f.Losses, f.GoalsFor, f.GoalsAgainst, f.Matches)
}
