package apifootball

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
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
	defaultBaseURL      = "https://v3.football.api-sports.io"
	defaultFormMatches  = 5
	apiKeyHeader        = "x-apisports-key"
	maxResponseBodySize = 6 << 20
	maxErrorBodyBytes   = 240
)

var errTransient = crerr.New("api-football transient failure")

type ClientConfig struct {
	HTTPClient      *http.Client
	BaseURL         string
	APIKey          string
	Timezone        string
	Timeout         time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RequestInterval time.Duration
	Logger          *logging.Logger
	CircuitBreaker  resilience.BreakerConfig
}

// Client reads fixtures from API-Football v3. It implements fixture.Provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timezone   string
	retry      resilience.RetryPolicy
	limiter    *rate.Limiter
	breaker    *resilience.Breaker
	flight     singleflight.Group
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

	breaker := resilience.NewBreaker(cfg.CircuitBreaker,
		resilience.WithTripClassifier(isTransient),
		resilience.WithStateChangeHook(func(from, to resilience.State) {
			logger.Warn("api-football circuit breaker state changed", "from", from, "to", to)
		}),
	)

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		timezone:   strings.TrimSpace(cfg.Timezone),
		retry:      resilience.RetryPolicy{MaxRetries: max(cfg.MaxRetries, 0), Backoff: backoff},
		limiter:    limiter,
		breaker:    breaker,
		logger:     logger,
	}
}

// ListByDate returns the fixtures scheduled on the calendar day of date.
func (c *Client) ListByDate(ctx context.Context, date time.Time) ([]fixture.Fixture, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", usecase.ErrInvalidInput)
	}
	query := url.Values{}
	query.Set("date", date.Format("2006-01-02"))
	if c.timezone != "" {
		query.Set("timezone", c.timezone)
	}

	items, err := c.fetchFixtures(ctx, "/fixtures", query)
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures date=%s: %w", query.Get("date"), err)
	}
	return items, nil
}

// ListHeadToHead returns past meetings of the two teams. A limit of zero
// returns the whole history.
func (c *Client) ListHeadToHead(ctx context.Context, team1, team2 fixture.TeamRef, limit int) ([]fixture.Fixture, error) {
	if team1.ID <= 0 || team2.ID <= 0 {
		return nil, fmt.Errorf("%w: head-to-head needs both team ids", usecase.ErrInvalidInput)
	}
	query := url.Values{}
	query.Set("h2h", strconv.FormatInt(team1.ID, 10)+"-"+strconv.FormatInt(team2.ID, 10))
	if limit > 0 {
		query.Set("last", strconv.Itoa(limit))
	}

	items, err := c.fetchFixtures(ctx, "/fixtures/headtohead", query)
	if err != nil {
		return nil, fmt.Errorf("fetch head-to-head h2h=%s: %w", query.Get("h2h"), err)
	}
	return items, nil
}

func (c *Client) ListRecentByTeam(ctx context.Context, teamID int64, limit int) ([]fixture.Fixture, error) {
	if teamID <= 0 {
		return nil, fmt.Errorf("%w: team id must be greater than zero", usecase.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultFormMatches
	}
	query := url.Values{}
	query.Set("team", strconv.FormatInt(teamID, 10))
	query.Set("last", strconv.Itoa(limit))

	items, err := c.fetchFixtures(ctx, "/fixtures", query)
	if err != nil {
		return nil, fmt.Errorf("fetch recent fixtures team=%d: %w", teamID, err)
	}
	return items, nil
}

// fetchFixtures collapses identical in-flight requests and runs them behind
// the circuit breaker.
func (c *Client) fetchFixtures(ctx context.Context, path string, query url.Values) ([]fixture.Fixture, error) {
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
			env, reqErr := c.execute(ctx, fullURL)
			if reqErr != nil {
				return reqErr
			}
			items = make([]fixture.Fixture, 0, len(env.Response))
			for _, item := range env.Response {
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
			c.logger.WarnContext(ctx, "api-football circuit breaker rejected request", "path", path, "state", c.breaker.State())
			return nil, fmt.Errorf("%w: football data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		if isTransient(err) {
			return nil, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err)
		}
		return nil, err
	}
	return res.Val.([]fixture.Fixture), nil
}

func (c *Client) execute(ctx context.Context, fullURL string) (envelope, error) {
	var env envelope
	err := resilience.Retry(ctx, c.retry, isTransient, func(ctx context.Context, attempt int) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return crerr.Wrap(err, "wait for request slot")
			}
		}
		decoded, err := c.do(ctx, fullURL)
		if err != nil {
			if attempt < c.retry.MaxRetries && isTransient(err) {
				c.logger.DebugContext(ctx, "retrying api-football request", "url", fullURL, "attempt", attempt+1, "error", err)
			}
			return err
		}
		env = decoded
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "api-football request failed", "url", fullURL, "error", err)
		return envelope{}, err
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, fullURL string) (envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return envelope{}, crerr.Wrap(err, "build request")
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return envelope{}, ctx.Err()
		}
		return envelope{}, crerr.Mark(crerr.Newf("send request: %s", c.redact(err.Error())), errTransient)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	_ = resp.Body.Close()
	if readErr != nil {
		return envelope{}, crerr.Mark(crerr.Wrap(readErr, "read response body"), errTransient)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := crerr.Newf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(c.redact(string(raw))))
		if isRetryableStatus(resp.StatusCode) {
			return envelope{}, crerr.Mark(statusErr, errTransient)
		}
		return envelope{}, statusErr
	}

	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return envelope{}, crerr.Wrap(err, "decode provider payload")
	}
	if errs := providerErrors(env.Errors); len(errs) > 0 {
		return envelope{}, c.envelopeError(errs)
	}
	return env, nil
}

func (c *Client) envelopeError(errs []providerError) error {
	parts := make([]string, 0, len(errs))
	transient := false
	for _, item := range errs {
		parts = append(parts, item.String())
		transient = transient || item.transient()
	}
	err := crerr.Newf("provider errors: %s", c.redact(strings.Join(parts, "; ")))
	if transient {
		return crerr.Mark(err, errTransient)
	}
	return err
}

func (c *Client) redact(value string) string {
	if c.apiKey == "" {
		return value
	}
	return strings.ReplaceAll(value, c.apiKey, "REDACTED")
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
