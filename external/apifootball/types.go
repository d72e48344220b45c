package apifootball

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
)

// envelope is the wrapper every v3 endpoint returns. errors is an empty
// array on success and an object keyed by error kind otherwise.
type envelope struct {
	Get      string        `json:"get"`
	Errors   any           `json:"errors"`
	Results  int           `json:"results"`
	Paging   paging        `json:"paging"`
	Response []fixtureItem `json:"response"`
}

type paging struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

type fixtureItem struct {
	Fixture struct {
		ID        int64  `json:"id"`
		Date      string `json:"date"`
		Timestamp int64  `json:"timestamp"`
		Venue     struct {
			Name string `json:"name"`
			City string `json:"city"`
		} `json:"venue"`
		Status struct {
			Short string `json:"short"`
			Long  string `json:"long"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Season int    `json:"season"`
		Round  string `json:"round"`
	} `json:"league"`
	Teams struct {
		Home teamItem `json:"home"`
		Away teamItem `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type teamItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (t teamItem) toDomain() fixture.TeamRef {
	return fixture.TeamRef{ID: t.ID, Name: strings.TrimSpace(t.Name)}
}

func (i fixtureItem) toDomain() fixture.Fixture {
	return fixture.Fixture{
		ID:         i.Fixture.ID,
		LeagueID:   i.League.ID,
		LeagueName: strings.TrimSpace(i.League.Name),
		Season:     i.League.Season,
		Round:      strings.TrimSpace(i.League.Round),
		KickoffAt:  parseKickoff(i.Fixture.Date, i.Fixture.Timestamp),
		Venue:      strings.TrimSpace(i.Fixture.Venue.Name),
		Status:     fixture.NormalizeStatus(i.Fixture.Status.Short),
		Home:       i.Teams.Home.toDomain(),
		Away:       i.Teams.Away.toDomain(),
		HomeGoals:  i.Goals.Home,
		AwayGoals:  i.Goals.Away,
	}
}

func parseKickoff(raw string, unix int64) time.Time {
	if value := strings.TrimSpace(raw); value != "" {
		if parsed, err := time.Parse(time.RFC3339, value); err == nil {
			return parsed.UTC()
		}
	}
	if unix > 0 {
		return time.Unix(unix, 0).UTC()
	}
	return time.Time{}
}

// providerErrors flattens the envelope errors field into "key: message"
// pairs, sorted for stable messages.
func providerErrors(raw any) []providerError {
	var out []providerError
	switch v := raw.(type) {
	case map[string]any:
		for key, msg := range v {
			out = append(out, providerError{Key: key, Message: stringify(msg)})
		}
	case []any:
		for _, item := range v {
			switch inner := item.(type) {
			case map[string]any:
				for key, msg := range inner {
					out = append(out, providerError{Key: key, Message: stringify(msg)})
				}
			default:
				out = append(out, providerError{Message: stringify(inner)})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

type providerError struct {
	Key     string
	Message string
}

func (e providerError) String() string {
	if e.Key == "" {
		return e.Message
	}
	return e.Key + ": " + e.Message
}

// transient reports errors API-Football raises for quota and throttling.
func (e providerError) transient() bool {
	switch strings.ToLower(e.Key) {
	case "requests", "ratelimit":
		return true
	default:
		return false
	}
}

func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}
