// Package quote fetches current market prices from the Finnhub quote API.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"tradeflow/internal/config"
	"tradeflow/internal/logger"
	"tradeflow/internal/metrics"
)

const finnhubTokenHeader = "X-Finnhub-Token"

var (
	// ErrRateLimited is returned when the provider answers 429.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrInvalidQuote is returned for payloads without a positive current price.
	ErrInvalidQuote = errors.New("invalid quote payload")
	// ErrMissingAPIKey is returned by NewFinnhubClient without FINNHUB_API_KEY.
	ErrMissingAPIKey = errors.New("FINNHUB_API_KEY is required")
)

// StatusError is returned for non-200 responses other than 429.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// FetchError records why no price was obtained for a ticker.
type FetchError struct {
	Ticker string
	Err    error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch quote for %s: %v", e.Ticker, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

// finnhubQuote is the subset of the /quote response we read. "c" is the
// current price; a pointer distinguishes a missing field from zero.
type finnhubQuote struct {
	Current *float64 `json:"c"`
}

// FinnhubClient fetches quotes one ticker per request, concurrently.
type FinnhubClient struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxConcurrency int           // <= 0 means one goroutine per ticker
	limiter        *rate.Limiter // nil means no client-side limiting
	log            *zap.SugaredLogger
}

// NewFinnhubClient creates a client from the quote settings in cfg.
func NewFinnhubClient(cfg config.Config, httpClient *http.Client) (*FinnhubClient, error) {
	if cfg.FinnhubAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.QuoteRequestTimeout}
	}
	return &FinnhubClient{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(cfg.FinnhubBaseURL, "/"),
		apiKey:         cfg.FinnhubAPIKey,
		maxConcurrency: cfg.QuoteMaxConcurrency,
		limiter:        newLimiter(cfg.QuoteRateLimitPerMinute),
		log:            logger.Named("quote"),
	}, nil
}

// newLimiter returns a token bucket refilled at perMinute tokens per minute
// holding at most one minute of budget, or nil when perMinute is zero.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// FetchQuotes returns a positive price for every ticker that could be priced.
// Failures are logged and the ticker is left out of the result.
func (c *FinnhubClient) FetchQuotes(ctx context.Context, tickers []string) map[string]float64 {
	prices, fetchErrors := c.Fetch(ctx, tickers)
	for _, fe := range fetchErrors {
		switch {
		case errors.Is(fe.Err, ErrRateLimited):
			c.log.Warnw("quote provider rate limit exceeded", "ticker", fe.Ticker)
		case errors.Is(fe.Err, ErrInvalidQuote):
			c.log.Debugw("quote data invalid", "ticker", fe.Ticker, "error", fe.Err)
		default:
			c.log.Warnw("quote request failed", "ticker", fe.Ticker, "error", fe.Err)
		}
	}
	return prices
}

// Fetch fetches every ticker concurrently and waits for all requests to
// finish. It returns the prices obtained and one FetchError per ticker that
// produced none. An empty ticker set makes no requests.
func (c *FinnhubClient) Fetch(ctx context.Context, tickers []string) (map[string]float64, []FetchError) {
	tickers = dedupe(tickers)
	prices := make(map[string]float64, len(tickers))
	if len(tickers) == 0 {
		return prices, nil
	}

	type result struct {
		price float64
		err   error
	}
	results := make([]result, len(tickers))

	// Plain Group: one ticker failing must not cancel the others.
	var g errgroup.Group
	if c.maxConcurrency > 0 {
		g.SetLimit(c.maxConcurrency)
	}
	for i, ticker := range tickers {
		g.Go(func() error {
			price, err := c.fetchOne(ctx, ticker)
			results[i] = result{price: price, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var fetchErrors []FetchError
	for i, ticker := range tickers {
		r := results[i]
		metrics.ObserveQuote(outcome(r.err))
		if r.err != nil {
			fetchErrors = append(fetchErrors, FetchError{Ticker: ticker, Err: r.err})
			continue
		}
		prices[ticker] = r.price
	}

	return prices, fetchErrors
}

// fetchOne performs a single GET /quote request.
func (c *FinnhubClient) fetchOne(ctx context.Context, ticker string) (float64, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	endpoint := c.baseURL + "/quote?" + url.Values{"symbol": {ticker}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(finnhubTokenHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return 0, &StatusError{StatusCode: resp.StatusCode}
	}

	var q finnhubQuote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return 0, fmt.Errorf("%w: decoding response: %v", ErrInvalidQuote, err)
	}
	if q.Current == nil {
		return 0, fmt.Errorf("%w: missing current price", ErrInvalidQuote)
	}
	price := *q.Current
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: current price %v", ErrInvalidQuote, price)
	}
	return price, nil
}

// outcome maps a fetch result to its metrics label.
func outcome(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return metrics.QuoteOK
	case errors.Is(err, ErrRateLimited):
		return metrics.QuoteRateLimited
	case errors.Is(err, ErrInvalidQuote):
		return metrics.QuoteInvalid
	case errors.As(err, &statusErr):
		return metrics.QuoteHTTPError
	default:
		return metrics.QuoteTransportError
	}
}

// dedupe upper-cases tickers and drops blanks and repeats, keeping order.
func dedupe(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
