package footballdata

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
)

// matchList is the body of /v4/matches and /v4/teams/{id}/matches.
type matchList struct {
	ResultSet struct {
		Count int `json:"count"`
	} `json:"resultSet"`
	Matches []matchItem `json:"matches"`
}

// apiError is the body football-data.org sends with non-2xx statuses.
type apiError struct {
	Message   string `json:"message"`
	ErrorCode int    `json:"errorCode"`
}

type matchItem struct {
	ID          int64  `json:"id"`
	UTCDate     string `json:"utcDate"`
	Status      string `json:"status"`
	Matchday    int    `json:"matchday"`
	Stage       string `json:"stage"`
	Venue       string `json:"venue"`
	Competition struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"competition"`
	Season struct {
		StartDate string `json:"startDate"`
	} `json:"season"`
	HomeTeam teamItem `json:"homeTeam"`
	AwayTeam teamItem `json:"awayTeam"`
	Score    struct {
		Duration  string    `json:"duration"`
		FullTime  scoreLine `json:"fullTime"`
		Penalties scoreLine `json:"penalties"`
	} `json:"score"`
}

type teamItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

type scoreLine struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

func (t teamItem) toDomain() fixture.TeamRef {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		name = strings.TrimSpace(t.ShortName)
	}
	return fixture.TeamRef{ID: t.ID, Name: name}
}

func (m matchItem) toDomain() fixture.Fixture {
	homeGoals, awayGoals := m.goals()
	return fixture.Fixture{
		ID:         m.ID,
		LeagueID:   m.Competition.ID,
		LeagueName: strings.TrimSpace(m.Competition.Name),
		Season:     seasonYear(m.Season.StartDate),
		Round:      m.round(),
		KickoffAt:  parseKickoff(m.UTCDate),
		Venue:      strings.TrimSpace(m.Venue),
		Status:     mapStatus(m.Status, m.Score.Duration),
		Home:       m.HomeTeam.toDomain(),
		Away:       m.AwayTeam.toDomain(),
		HomeGoals:  homeGoals,
		AwayGoals:  awayGoals,
	}
}

// goals returns the score without the shootout: v4 folds penalty kicks
// into fullTime for matches decided on penalties.
func (m matchItem) goals() (*int, *int) {
	home, away := m.Score.FullTime.Home, m.Score.FullTime.Away
	pens := m.Score.Penalties
	if home == nil || away == nil || pens.Home == nil || pens.Away == nil {
		return home, away
	}
	h := *home - *pens.Home
	a := *away - *pens.Away
	if h < 0 || a < 0 {
		return home, away
	}
	return &h, &a
}

func (m matchItem) round() string {
	if m.Matchday > 0 {
		return fmt.Sprintf("Matchday %d", m.Matchday)
	}
	return strings.ReplaceAll(strings.TrimSpace(m.Stage), "_", " ")
}

// mapStatus translates v4 status names into the short codes the domain uses.
func mapStatus(status, duration string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "FINISHED":
		switch strings.ToUpper(strings.TrimSpace(duration)) {
		case "EXTRA_TIME":
			return fixture.StatusAfterExtra
		case "PENALTY_SHOOTOUT":
			return fixture.StatusPenalties
		default:
			return fixture.StatusFinished
		}
	case "IN_PLAY", "LIVE":
		return "LIVE"
	case "PAUSED":
		return "HT"
	case "SUSPENDED":
		return "SUSP"
	case "POSTPONED":
		return fixture.StatusPostponed
	case "CANCELLED":
		return fixture.StatusCancelled
	case "AWARDED":
		return "AWD"
	case "SCHEDULED", "TIMED", "":
		return fixture.StatusNotStarted
	default:
		return fixture.NormalizeStatus(status)
	}
}

func parseKickoff(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

func seasonYear(startDate string) int {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(startDate))
	if err != nil {
		return 0
	}
	return parsed.Year()
}
