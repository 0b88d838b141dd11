package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"tradeflow/internal/config"
	"tradeflow/internal/metrics"
)

// newQuoteServer serves GET /quote?symbol=X. handlers maps symbol to a custom
// handler; symbols in prices get a normal quote, anything else a 404.
func newQuoteServer(t *testing.T, prices map[string]float64, handlers map[string]http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/quote" {
			http.NotFound(w, r)
			return
		}
		symbol := r.URL.Query().Get("symbol")
		if h, ok := handlers[symbol]; ok {
			h(w, r)
			return
		}
		price, ok := prices[symbol]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"c":%v,"h":0,"l":0,"o":0,"pc":0}`, price)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestClient(server *httptest.Server) *FinnhubClient {
	return &FinnhubClient{
		httpClient: server.Client(),
		baseURL:    server.URL,
		apiKey:     "test-key",
		log:        zap.NewNop().Sugar(),
	}
}

func TestFetch_Success(t *testing.T) {
	server, _ := newQuoteServer(t, map[string]float64{"AAPL": 180.5, "MSFT": 420.25}, nil)
	c := newTestClient(server)

	prices, fetchErrors := c.Fetch(context.Background(), []string{"AAPL", "MSFT"})
	if len(fetchErrors) != 0 {
		t.Fatalf("expected no errors, got %v", fetchErrors)
	}
	if prices["AAPL"] != 180.5 || prices["MSFT"] != 420.25 {
		t.Errorf("unexpected prices: %v", prices)
	}
}

func TestFetch_EmptyInputMakesNoRequests(t *testing.T) {
	server, calls := newQuoteServer(t, nil, nil)
	c := newTestClient(server)

	for _, in := range [][]string{nil, {}, {"", "  "}} {
		prices, fetchErrors := c.Fetch(context.Background(), in)
		if len(prices) != 0 || len(fetchErrors) != 0 {
			t.Errorf("expected empty result for %v, got %v / %v", in, prices, fetchErrors)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("expected no HTTP calls, got %d", calls.Load())
	}
}

func TestFetch_FailuresAreIsolated(t *testing.T) {
	server, _ := newQuoteServer(t,
		map[string]float64{"AAPL": 100, "MSFT": 200},
		map[string]http.HandlerFunc{
			"LIMIT": func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			"BOOM": func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			"ZERO": func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"c":0,"h":0,"l":0}`))
			},
			"JUNK": func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>not json</html>`))
			},
			"EMPTY": func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
		})
	c := newTestClient(server)

	prices, fetchErrors := c.Fetch(context.Background(),
		[]string{"AAPL", "LIMIT", "BOOM", "ZERO", "JUNK", "EMPTY", "MSFT"})

	if len(prices) != 2 || prices["AAPL"] != 100 || prices["MSFT"] != 200 {
		t.Errorf("expected only AAPL and MSFT priced, got %v", prices)
	}
	if len(fetchErrors) != 5 {
		t.Fatalf("expected 5 fetch errors, got %d: %v", len(fetchErrors), fetchErrors)
	}

	byTicker := make(map[string]error, len(fetchErrors))
	for _, fe := range fetchErrors {
		byTicker[fe.Ticker] = fe.Err
	}
	if !errors.Is(byTicker["LIMIT"], ErrRateLimited) {
		t.Errorf("expected LIMIT rate limited, got %v", byTicker["LIMIT"])
	}
	var statusErr *StatusError
	if !errors.As(byTicker["BOOM"], &statusErr) || statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected BOOM status error 500, got %v", byTicker["BOOM"])
	}
	for _, ticker := range []string{"ZERO", "JUNK", "EMPTY"} {
		if !errors.Is(byTicker[ticker], ErrInvalidQuote) {
			t.Errorf("expected %s invalid, got %v", ticker, byTicker[ticker])
		}
	}
}

func TestFetch_TimeoutExcludesTicker(t *testing.T) {
	server, _ := newQuoteServer(t,
		map[string]float64{"AAPL": 100},
		map[string]http.HandlerFunc{
			"SLOW": func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
		})
	c := newTestClient(server)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	prices, fetchErrors := c.Fetch(context.Background(), []string{"AAPL", "SLOW"})
	if _, ok := prices["SLOW"]; ok {
		t.Error("expected SLOW to be excluded")
	}
	if prices["AAPL"] != 100 {
		t.Errorf("expected AAPL priced, got %v", prices)
	}
	if len(fetchErrors) != 1 || fetchErrors[0].Ticker != "SLOW" {
		t.Errorf("expected one error for SLOW, got %v", fetchErrors)
	}
}

func TestFetch_DeduplicatesAndNormalizes(t *testing.T) {
	server, calls := newQuoteServer(t, map[string]float64{"AAPL": 100}, nil)
	c := newTestClient(server)

	prices, _ := c.Fetch(context.Background(), []string{"AAPL", "aapl", " AAPL "})
	if calls.Load() != 1 {
		t.Errorf("expected 1 HTTP call, got %d", calls.Load())
	}
	if len(prices) != 1 || prices["AAPL"] != 100 {
		t.Errorf("unexpected prices: %v", prices)
	}
}

func TestFetch_SendsTokenHeader(t *testing.T) {
	var gotToken, gotQuery string
	server, _ := newQuoteServer(t, nil, map[string]http.HandlerFunc{
		"AAPL": func(w http.ResponseWriter, r *http.Request) {
			gotToken = r.Header.Get(finnhubTokenHeader)
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`{"c":1}`))
		},
	})
	c := newTestClient(server)

	c.Fetch(context.Background(), []string{"AAPL"})
	if gotToken != "test-key" {
		t.Errorf("expected token header test-key, got %q", gotToken)
	}
	if strings.Contains(gotQuery, "test-key") {
		t.Errorf("API key leaked into query string: %s", gotQuery)
	}
}

func TestFetch_RequestsRunConcurrently(t *testing.T) {
	const n = 5
	var arrived sync.WaitGroup
	arrived.Add(n)
	all := make(chan struct{})
	go func() {
		arrived.Wait()
		close(all)
	}()

	handler := func(w http.ResponseWriter, _ *http.Request) {
		arrived.Done()
		select {
		case <-all:
			_, _ = w.Write([]byte(`{"c":10}`))
		case <-time.After(2 * time.Second):
			w.WriteHeader(http.StatusGatewayTimeout)
		}
	}
	handlers := make(map[string]http.HandlerFunc, n)
	tickers := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ticker := fmt.Sprintf("T%d", i)
		handlers[ticker] = handler
		tickers = append(tickers, ticker)
	}
	server, _ := newQuoteServer(t, nil, handlers)
	c := newTestClient(server)

	prices, fetchErrors := c.Fetch(context.Background(), tickers)
	if len(fetchErrors) != 0 || len(prices) != n {
		t.Errorf("expected all %d requests in flight at once, got %d prices, errors %v", n, len(prices), fetchErrors)
	}
}

func TestFetch_MaxConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int64
	handler := func(w http.ResponseWriter, _ *http.Request) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		_, _ = w.Write([]byte(`{"c":5}`))
	}
	handlers := map[string]http.HandlerFunc{}
	tickers := []string{}
	for i := 0; i < 6; i++ {
		ticker := fmt.Sprintf("C%d", i)
		handlers[ticker] = handler
		tickers = append(tickers, ticker)
	}
	server, _ := newQuoteServer(t, nil, handlers)
	c := newTestClient(server)
	c.maxConcurrency = 2

	prices, _ := c.Fetch(context.Background(), tickers)
	if len(prices) != 6 {
		t.Errorf("expected 6 prices, got %d", len(prices))
	}
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent requests, saw %d", peak.Load())
	}
}

func TestFetch_RateLimiterExhausted(t *testing.T) {
	server, calls := newQuoteServer(t, map[string]float64{"AAPL": 1, "MSFT": 2}, nil)
	c := newTestClient(server)
	c.limiter = newLimiter(1)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	prices, fetchErrors := c.Fetch(ctx, []string{"AAPL", "MSFT"})
	if len(prices) != 1 || len(fetchErrors) != 1 {
		t.Errorf("expected one priced and one limited, got %v / %v", prices, fetchErrors)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 HTTP call, got %d", calls.Load())
	}
}

func quoteCount(outcome string) float64 {
	return testutil.ToFloat64(metrics.QuoteFetches.WithLabelValues(outcome))
}

func TestFetch_RecordsOutcomeMetrics(t *testing.T) {
	server, _ := newQuoteServer(t, map[string]float64{"AAPL": 1}, map[string]http.HandlerFunc{
		"LIMIT": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
	})
	c := newTestClient(server)

	okBefore := quoteCount(metrics.QuoteOK)
	limitedBefore := quoteCount(metrics.QuoteRateLimited)

	c.Fetch(context.Background(), []string{"AAPL", "LIMIT"})

	if got := quoteCount(metrics.QuoteOK) - okBefore; got != 1 {
		t.Errorf("expected ok delta 1, got %v", got)
	}
	if got := quoteCount(metrics.QuoteRateLimited) - limitedBefore; got != 1 {
		t.Errorf("expected rate_limited delta 1, got %v", got)
	}
}

func TestFetchQuotes_ReturnsOnlyPriced(t *testing.T) {
	server, _ := newQuoteServer(t, map[string]float64{"AAPL": 150}, nil)
	c := newTestClient(server)

	prices := c.FetchQuotes(context.Background(), []string{"AAPL", "GONE"})
	if len(prices) != 1 || prices["AAPL"] != 150 {
		t.Errorf("unexpected prices: %v", prices)
	}
}

func TestNewFinnhubClient(t *testing.T) {
	c, err := NewFinnhubClient(config.Config{
		FinnhubAPIKey:           "k",
		FinnhubBaseURL:          "https://example.test/api/v1/",
		QuoteRequestTimeout:     3 * time.Second,
		QuoteMaxConcurrency:     4,
		QuoteRateLimitPerMinute: 30,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.baseURL != "https://example.test/api/v1" {
		t.Errorf("expected trailing slash trimmed, got %s", c.baseURL)
	}
	if c.httpClient.Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", c.httpClient.Timeout)
	}
	if c.maxConcurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", c.maxConcurrency)
	}
	if c.limiter == nil || c.limiter.Burst() != 30 {
		t.Error("expected limiter with burst 30")
	}
	if newLimiter(0) != nil {
		t.Error("expected no limiter when disabled")
	}
}

func TestNewFinnhubClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewFinnhubClient(config.Config{FinnhubBaseURL: "https://example.test"}, nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
