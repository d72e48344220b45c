package footballdata

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/logging"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/resilience"
	"github.com/riskibarqy/h2h-analyzer/internal/usecase"
)

const (
	defaultBaseURL      = "https://api.football-data.org"
	defaultFormMatches  = 5
	authHeader          = "X-Auth-Token"
	maxResponseBodySize = 6 << 20
	maxErrorBodyBytes   = 240
	historyStart        = "1900-01-01"
	formWindow          = 365 * 24 * time.Hour
	dateLayout          = "2006-01-02"
)

var errTransient = crerr.New("football-data transient failure")

type ClientConfig struct {
	HTTPClient      *http.Client
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RequestInterval time.Duration
	Logger          *logging.Logger
	CircuitBreaker  resilience.BreakerConfig
	// Now anchors the dateTo bound of team history requests. Defaults to time.Now.
	Now func() time.Time
}

// Client reads fixtures from football-data.org v4. It implements
// fixture.Provider. The API has no head-to-head endpoint, so meetings are
// filtered out of the first team's match history.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retry      resilience.RetryPolicy
	limiter    *rate.Limiter
	breaker    *resilience.Breaker
	flight     singleflight.Group
	now        func() time.Time
	logger     *logging.Logger
}

var _ fixture.Provider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	breaker := resilience.NewBreaker(cfg.CircuitBreaker,
		resilience.WithTripClassifier(isTransient),
		resilience.WithStateChangeHook(func(from, to resilience.State) {
			logger.Warn("football-data circuit breaker state changed", "from", from, "to", to)
		}),
	)

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		retry:      resilience.RetryPolicy{MaxRetries: max(cfg.MaxRetries, 0), Backoff: backoff},
		limiter:    limiter,
		breaker:    breaker,
		now:        now,
		logger:     logger,
	}
}

// ListByDate returns the matches scheduled on the calendar day of date.
func (c *Client) ListByDate(ctx context.Context, date time.Time) ([]fixture.Fixture, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", usecase.ErrInvalidInput)
	}
	day := date.Format(dateLayout)
	query := url.Values{}
	query.Set("dateFrom", day)
	query.Set("dateTo", day)

	items, err := c.fetchMatches(ctx, "/v4/matches", query)
	if err != nil {
		return nil, fmt.Errorf("fetch matches date=%s: %w", day, err)
	}
	return items, nil
}

// ListHeadToHead returns past meetings of the two teams, most recent first.
// A limit of zero returns the whole history.
func (c *Client) ListHeadToHead(ctx context.Context, team1, team2 fixture.TeamRef, limit int) ([]fixture.Fixture, error) {
	if team1.ID <= 0 {
		return nil, fmt.Errorf("%w: head-to-head needs the first team id", usecase.ErrInvalidInput)
	}
	if team2.ID <= 0 && strings.TrimSpace(team2.Name) == "" {
		return nil, fmt.Errorf("%w: head-to-head needs the opponent id or name", usecase.ErrInvalidInput)
	}
	query := url.Values{}
	query.Set("dateFrom", historyStart)
	query.Set("dateTo", c.now().UTC().Format(dateLayout))

	history, err := c.fetchMatches(ctx, teamMatchesPath(team1.ID), query)
	if err != nil {
		return nil, fmt.Errorf("fetch team matches team=%d: %w", team1.ID, err)
	}

	meetings := make([]fixture.Fixture, 0, len(history))
	for _, item := range history {
		if team2.Same(item.Home) || team2.Same(item.Away) {
			meetings = append(meetings, item)
		}
	}
	return latest(meetings, limit), nil
}

// ListRecentByTeam returns the team's latest finished matches within the
// last year, most recent first.
func (c *Client) ListRecentByTeam(ctx context.Context, teamID int64, limit int) ([]fixture.Fixture, error) {
	if teamID <= 0 {
		return nil, fmt.Errorf("%w: team id must be greater than zero", usecase.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultFormMatches
	}
	now := c.now().UTC()
	query := url.Values{}
	query.Set("status", "FINISHED")
	query.Set("dateFrom", now.Add(-formWindow).Format(dateLayout))
	query.Set("dateTo", now.Format(dateLayout))

	items, err := c.fetchMatches(ctx, teamMatchesPath(teamID), query)
	if err != nil {
		return nil, fmt.Errorf("fetch recent matches team=%d: %w", teamID, err)
	}
	return latest(items, limit), nil
}

func teamMatchesPath(teamID int64) string {
	return "/v4/teams/" + strconv.FormatInt(teamID, 10) + "/matches"
}

func latest(items []fixture.Fixture, limit int) []fixture.Fixture {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].KickoffAt.After(items[j].KickoffAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// fetchMatches collapses identical in-flight requests and runs them behind
// the circuit breaker.
func (c *Client) fetchMatches(ctx context.Context, path string, query url.Values) ([]fixture.Fixture, error) {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	// The shared call outlives any single caller; the http client timeout
	// bounds it instead. Each caller still stops waiting on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(path+"?"+query.Encode(), func() (any, error) {
		var items []fixture.Fixture
		err := c.breaker.Do(shared, func(ctx context.Context) error {
			list, reqErr := c.execute(ctx, fullURL)
			if reqErr != nil {
				return reqErr
			}
			items = make([]fixture.Fixture, 0, len(list.Matches))
			for _, item := range list.Matches {
				items = append(items, item.toDomain())
			}
			return nil
		})
		return items, err
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if err := res.Err; err != nil {
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "football-data circuit breaker rejected request", "path", path, "state", c.breaker.State())
			return nil, fmt.Errorf("%w: football data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		if isTransient(err) {
			return nil, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err)
		}
		return nil, err
	}
	// Shared results are copied so callers can reorder them independently.
	return append([]fixture.Fixture(nil), res.Val.([]fixture.Fixture)...), nil
}

func (c *Client) execute(ctx context.Context, fullURL string) (matchList, error) {
	var list matchList
	err := resilience.Retry(ctx, c.retry, isTransient, func(ctx context.Context, attempt int) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return crerr.Wrap(err, "wait for request slot")
			}
		}
		decoded, err := c.do(ctx, fullURL)
		if err != nil {
			if attempt < c.retry.MaxRetries && isTransient(err) {
				c.logger.DebugContext(ctx, "retrying football-data request", "url", fullURL, "attempt", attempt+1, "error", err)
			}
			return err
		}
		list = decoded
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "football-data request failed", "url", fullURL, "error", err)
		return matchList{}, err
	}
	return list, nil
}

func (c *Client) do(ctx context.Context, fullURL string) (matchList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return matchList{}, crerr.Wrap(err, "build request")
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set(authHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return matchList{}, ctx.Err()
		}
		return matchList{}, crerr.Mark(crerr.Newf("send request: %s", c.redact(err.Error())), errTransient)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	_ = resp.Body.Close()
	if readErr != nil {
		return matchList{}, crerr.Mark(crerr.Wrap(readErr, "read response body"), errTransient)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := crerr.Newf("provider status=%d message=%s", resp.StatusCode, c.redact(errorMessage(raw)))
		if isRetryableStatus(resp.StatusCode) {
			return matchList{}, crerr.Mark(statusErr, errTransient)
		}
		return matchList{}, statusErr
	}

	var list matchList
	if err := sonic.Unmarshal(raw, &list); err != nil {
		return matchList{}, crerr.Wrap(err, "decode provider payload")
	}
	return list, nil
}

func (c *Client) redact(value string) string {
	if c.apiKey == "" {
		return value
	}
	return strings.ReplaceAll(value, c.apiKey, "REDACTED")
}

// errorMessage prefers the message field of an error body and falls back to
// the raw text.
func errorMessage(raw []byte) string {
	var body apiError
	if err := sonic.Unmarshal(raw, &body); err == nil && strings.TrimSpace(body.Message) != "" {
		return abbreviateBody(body.Message)
	}
	return abbreviateBody(string(raw))
}

func isTransient(err error) bool {
	return err != nil && crerr.Is(err, errTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxErrorBodyBytes {
		return text
	}
	cut := maxErrorBodyBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
