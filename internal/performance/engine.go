package performance

import (
	"context"

	"go.uber.org/zap"

	"tradeflow/internal/logger"
	"tradeflow/internal/models"
)

// QuoteFetcher returns current prices for tickers. Tickers it could not
// price are absent from the result; it never fails as a whole.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, tickers []string) map[string]float64
}

// Engine computes portfolio performance from a ledger and live quotes.
type Engine struct {
	quotes QuoteFetcher
	log    *zap.SugaredLogger
}

// NewEngine creates an Engine that prices holdings with quotes.
func NewEngine(quotes QuoteFetcher) *Engine {
	return &Engine{quotes: quotes, log: logger.Named("performance")}
}

// ComputePerformance replays txs, fetches quotes for the tickers still held
// and returns the valuation. It always produces a report.
func (e *Engine) ComputePerformance(ctx context.Context, portfolioID string, txs []models.Transaction) PortfolioReport {
	positions := Aggregate(txs)
	tickers := Tickers(positions)

	quotes := map[string]float64{}
	if len(tickers) > 0 {
		quotes = e.quotes.FetchQuotes(ctx, tickers)
	}

	e.log.Debugw("computed positions",
		"portfolio_id", portfolioID,
		"transactions", len(txs),
		"open_positions", len(positions),
		"quotes", len(quotes),
	)

	return Calculate(portfolioID, positions, quotes)
}
