package apifootball

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/resilience"
	"github.com/riskibarqy/h2h-analyzer/internal/usecase"
)

const testKey = "secret-key-123"

const fixturesPayload = `{
  "get": "fixtures",
  "errors": [],
  "results": 2,
  "paging": {"current": 1, "total": 1},
  "response": [
    {
      "fixture": {"id": 1035000, "date": "2026-10-17T19:00:00+00:00", "timestamp": 1792263600, "venue": {"name": "Emirates Stadium", "city": "London"}, "status": {"short": "NS", "long": "Not Started"}},
      "league": {"id": 39, "name": "Premier League", "season": 2026, "round": "Regular Season - 8"},
      "teams": {"home": {"id": 42, "name": "Arsenal"}, "away": {"id": 49, "name": "Chelsea"}},
      "goals": {"home": null, "away": null}
    },
    {
      "fixture": {"id": 1035001, "date": "2026-10-17T14:00:00+00:00", "venue": {"name": "Goodison Park"}, "status": {"short": "FT"}},
      "league": {"id": 39, "name": "Premier League", "season": 2026, "round": "Regular Season - 8"},
      "teams": {"home": {"id": 45, "name": "Everton"}, "away": {"id": 36, "name": "Fulham"}},
      "goals": {"home": 2, "away": 1}
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*ClientConfig)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := ClientConfig{
		HTTPClient:   server.Client(),
		BaseURL:      server.URL,
		APIKey:       testKey,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		CircuitBreaker: resilience.BreakerConfig{
			Enabled:             true,
			FailureThreshold:    5,
			OpenTimeout:         time.Minute,
			HalfOpenMaxRequests: 1,
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg)
}

func TestClient_ListByDate_MapsFixtures(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("date"); got != "2026-10-17" {
			t.Errorf("unexpected date param %q", got)
		}
		if got := r.URL.Query().Get("timezone"); got != "Europe/London" {
			t.Errorf("unexpected timezone param %q", got)
		}
		if got := r.Header.Get("x-apisports-key"); got != testKey {
			t.Errorf("unexpected api key header %q", got)
		}
		_, _ = w.Write([]byte(fixturesPayload))
	}, func(cfg *ClientConfig) { cfg.Timezone = "Europe/London" })

	items, err := client.ListByDate(context.Background(), time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 fixtures, got %d", len(items))
	}

	first := items[0]
	if first.ID != 1035000 || first.LeagueID != 39 || first.Season != 2026 || first.Venue != "Emirates Stadium" {
		t.Fatalf("unexpected fixture: %+v", first)
	}
	if first.Home != (fixture.TeamRef{ID: 42, Name: "Arsenal"}) || first.Away.ID != 49 {
		t.Fatalf("unexpected teams: %+v vs %+v", first.Home, first.Away)
	}
	if first.HomeGoals != nil || first.AwayGoals != nil {
		t.Fatalf("expected unknown goals for unplayed fixture")
	}
	if !first.KickoffAt.Equal(time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected kickoff: %s", first.KickoffAt)
	}

	second := items[1]
	if second.Status != fixture.StatusFinished || *second.HomeGoals != 2 || *second.AwayGoals != 1 {
		t.Fatalf("unexpected result: %+v", second)
	}
}

func TestClient_ListHeadToHead_BuildsQuery(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures/headtohead" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("h2h"); got != "42-49" {
			t.Errorf("unexpected h2h param %q", got)
		}
		if got := r.URL.Query().Get("last"); got != "10" {
			t.Errorf("unexpected last param %q", got)
		}
		_, _ = w.Write([]byte(fixturesPayload))
	}, nil)

	_, err := client.ListHeadToHead(context.Background(), fixture.TeamRef{ID: 42}, fixture.TeamRef{ID: 49}, 10)
	if err != nil {
		t.Fatalf("list head-to-head: %v", err)
	}

	_, err = client.ListHeadToHead(context.Background(), fixture.TeamRef{Name: "Arsenal"}, fixture.TeamRef{ID: 49}, 0)
	if !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without team id, got %v", err)
	}
}

func TestClient_ListRecentByTeam_DefaultsLimit(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("team") != "42" || r.URL.Query().Get("last") != "5" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"errors":[],"response":[]}`))
	}, nil)

	items, err := client.ListRecentByTeam(context.Background(), 42, 0)
	if err != nil {
		t.Fatalf("list recent by team: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no fixtures, got %d", len(items))
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("bad gateway"))
			return
		}
		_, _ = w.Write([]byte(fixturesPayload))
	}, nil)

	items, err := client.ListByDate(context.Background(), time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if len(items) != 2 || calls.Load() != 2 {
		t.Fatalf("unexpected result: items=%d calls=%d", len(items), calls.Load())
	}
}

func TestClient_EnvelopeErrorIsPermanentAndRedacted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"errors":{"token":"Error/Missing application key secret-key-123"},"response":[]}`))
	}, nil)

	_, err := client.ListRecentByTeam(context.Background(), 42, 5)
	if err == nil {
		t.Fatalf("expected provider error")
	}
	if errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("token error should not be transient: %v", err)
	}
	if strings.Contains(err.Error(), testKey) {
		t.Fatalf("api key leaked into error: %v", err)
	}
	if !strings.Contains(err.Error(), "token: Error/Missing application key") {
		t.Fatalf("unexpected error message: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retries, got %d calls", calls.Load())
	}
}

func TestClient_RateLimitEnvelopeIsTransient(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"errors":{"rateLimit":"Too many requests. Your rate limit is 10 requests per minute."},"response":[]}`))
	}, nil)

	_, err := client.ListRecentByTeam(context.Background(), 42, 5)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 1 call plus 2 retries, got %d", calls.Load())
	}
}

func TestClient_CircuitBreakerRejectsAfterFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, func(cfg *ClientConfig) {
		cfg.MaxRetries = 0
		cfg.CircuitBreaker.FailureThreshold = 2
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.ListRecentByTeam(ctx, 42, 5); err == nil {
			t.Fatalf("expected failure on call %d", i)
		}
	}

	_, err := client.ListRecentByTeam(ctx, 42, 5)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected breaker rejection, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected breaker to short-circuit, server saw %d calls", calls.Load())
	}
}

func TestClient_CollapsesConcurrentIdenticalRequests(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(fixturesPayload))
	}, nil)

	const callers = 8
	var wg sync.WaitGroup
	wg.Add(callers)
	errCh := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, err := client.ListHeadToHead(context.Background(), fixture.TeamRef{ID: 42}, fixture.TeamRef{ID: 49}, 0)
			errCh <- err
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}
}

func TestClient_CancelledCallerDoesNotFailSharedRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		_, _ = w.Write([]byte(fixturesPayload))
	}, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.ListHeadToHead(firstCtx, fixture.TeamRef{ID: 42}, fixture.TeamRef{ID: 49}, 0)
		firstErr <- err
	}()
	<-started

	secondDone := make(chan error, 1)
	var secondItems []fixture.Fixture
	go func() {
		items, err := client.ListHeadToHead(context.Background(), fixture.TeamRef{ID: 42}, fixture.TeamRef{ID: 49}, 0)
		secondItems = items
		secondDone <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancelFirst()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected first caller to see context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting on the shared request")
	}

	close(release)
	if err := <-secondDone; err != nil {
		t.Fatalf("second caller failed after first cancelled: %v", err)
	}
	if len(secondItems) != 2 {
		t.Fatalf("expected 2 fixtures for second caller, got %d", len(secondItems))
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}
}

func TestAbbreviateBody_KeepsRuneBoundary(t *testing.T) {
	t.Parallel()

	// 239 ASCII bytes then a 3-byte rune straddling the cut.
	body := strings.Repeat("a", maxErrorBodyBytes-1) + "€" + strings.Repeat("b", 10)
	got := abbreviateBody(body)
	if !utf8.ValidString(got) {
		t.Fatalf("abbreviated body is not valid utf-8: %q", got[len(got)-8:])
	}
	want := strings.Repeat("a", maxErrorBodyBytes-1) + "..."
	if got != want {
		t.Fatalf("unexpected abbreviation tail %q", got[len(got)-8:])
	}

	short := "  quota exceeded  "
	if got := abbreviateBody(short); got != "quota exceeded" {
		t.Fatalf("short body should be trimmed only, got %q", got)
	}
}
