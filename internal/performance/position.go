// Package performance turns a portfolio's transaction ledger into positions
// and values them against live quotes.
package performance

import (
	"strings"

	"github.com/shopspring/decimal"

	"tradeflow/internal/models"
)

// Position is the weighted-average-cost state of one ticker after replaying
// the ledger. It is derived on every request and never stored.
type Position struct {
	Ticker    string
	Quantity  decimal.Decimal
	CostBasis decimal.Decimal
}

// Open reports whether any units are still held.
func (p Position) Open() bool {
	return p.Quantity.IsPositive()
}

// apply folds one transaction into the position.
//
// A sell reduces the cost basis by the sold units at the average cost held
// just before the sale. Selling everything, or more than is held, resets
// the cost basis to zero; the quantity is allowed to go negative.
func (p *Position) apply(tx models.Transaction) {
	switch tx.Side {
	case models.SideBuy:
		p.Quantity = p.Quantity.Add(tx.Quantity)
		p.CostBasis = p.CostBasis.Add(tx.Quantity.Mul(tx.PricePerShare))
	case models.SideSell:
		held := p.Quantity
		p.Quantity = held.Sub(tx.Quantity)
		if !p.Quantity.IsPositive() {
			p.CostBasis = decimal.Zero
			return
		}
		// Scale by the held fraction left rather than subtracting the rounded
		// average, which can overshoot on tiny remainders.
		p.CostBasis = p.CostBasis.Mul(p.Quantity).Div(held)
	}
}

// Fold replays txs in slice order and returns one position per ticker, in
// order of first appearance. Closed and oversold tickers are included.
func Fold(txs []models.Transaction) []Position {
	index := make(map[string]int)
	positions := make([]Position, 0)

	for _, tx := range txs {
		ticker := normalizeTicker(tx.Ticker)
		i, ok := index[ticker]
		if !ok {
			i = len(positions)
			index[ticker] = i
			positions = append(positions, Position{
				Ticker:    ticker,
				Quantity:  decimal.Zero,
				CostBasis: decimal.Zero,
			})
		}
		positions[i].apply(tx)
	}

	return positions
}

// Aggregate is Fold restricted to positions that are still open.
func Aggregate(txs []models.Transaction) []Position {
	all := Fold(txs)
	open := all[:0]
	for _, p := range all {
		if p.Open() {
			open = append(open, p)
		}
	}
	return open
}

// Tickers returns the tickers of the given positions, preserving order.
func Tickers(positions []Position) []string {
	tickers := make([]string, len(positions))
	for i, p := range positions {
		tickers[i] = p.Ticker
	}
	return tickers
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
