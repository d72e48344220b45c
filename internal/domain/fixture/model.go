package fixture

import (
	"strings"
	"time"
)

// Provider short status codes.
const (
	StatusNotStarted  = "NS"
	StatusToBeDefined = "TBD"
	StatusFinished    = "FT"
	StatusAfterExtra  = "AET"
	StatusPenalties   = "PEN"
	StatusPostponed   = "PST"
	StatusCancelled   = "CANC"
	StatusAbandoned   = "ABD"
)

// TeamRef identifies a club by its provider id and display name.
// ID is zero when the source did not supply one.
type TeamRef struct {
	ID   int64
	Name string
}

// Same reports whether both refs point at the same club. Ids win when both
// sides carry one; otherwise the trimmed names must be equal.
func (t TeamRef) Same(other TeamRef) bool {
	if t.ID > 0 && other.ID > 0 {
		return t.ID == other.ID
	}
	name := strings.TrimSpace(t.Name)
	return name != "" && name == strings.TrimSpace(other.Name)
}

// Fixture represents one scheduled or played match.
type Fixture struct {
	ID         int64
	LeagueID   int64
	LeagueName string
	Season     int
	Round      string
	KickoffAt  time.Time
	Venue      string
	Status     string
	Home       TeamRef
	Away       TeamRef
	HomeGoals  *int
	AwayGoals  *int
}

// Goals returns the final score with unknown values treated as zero.
func (f Fixture) Goals() (home, away int) {
	if f.HomeGoals != nil {
		home = *f.HomeGoals
	}
	if f.AwayGoals != nil {
		away = *f.AwayGoals
	}
	return home, away
}

func (f Fixture) TotalGoals() int {
	home, away := f.Goals()
	return home + away
}

func (f Fixture) HasTeamIDs() bool {
	return f.Home.ID > 0 && f.Away.ID > 0
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusNotStarted
	}
	return status
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case "1H", "HT", "2H", "ET", "BT", "P", "LIVE", "INT", "SUSP":
		return true
	default:
		return false
	}
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, StatusAfterExtra, StatusPenalties:
		return true
	default:
		return false
	}
}

func IsCancelledLikeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusPostponed, StatusAbandoned, "AWD", "WO":
		return true
	default:
		return false
	}
}

// FinishedOnly keeps the fixtures that have a final result.
func FinishedOnly(items []Fixture) []Fixture {
	out := make([]Fixture, 0, len(items))
	for _, item := range items {
		if IsFinishedStatus(item.Status) {
			out = append(out, item)
		}
	}
	return out
}
