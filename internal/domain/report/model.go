package report

import (
	"time"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/headtohead"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/teamform"
)

// Entry is the analysis of a single fixture. Forms are nil when they were
// not requested or could not be fetched.
type Entry struct {
	FixtureID  int64
	LeagueID   int64
	LeagueName string
	KickoffAt  time.Time
	Summary    headtohead.Summary
	FormTeam1  *teamform.Form
	FormTeam2  *teamform.Form
}

// Report groups the entries produced for one analysis date.
type Report struct {
	Date        time.Time
	GeneratedAt time.Time
	Entries     []Entry
	Analysed    int
	Skipped     int
}

const DateLayout = "2006-01-02"

func (r Report) DateKey() string {
	return r.Date.Format(DateLayout)
}
