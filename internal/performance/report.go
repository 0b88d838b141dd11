package performance

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// HoldingReport is the valuation of one open position.
type HoldingReport struct {
	Ticker        string  `json:"ticker"`
	Quantity      float64 `json:"quantity"`
	AvgBuyPrice   float64 `json:"avg_buy_price"`
	CurrentPrice  float64 `json:"current_price"`
	CurrentValue  float64 `json:"current_value"`
	ProfitLoss    float64 `json:"profit_loss"`
	ProfitLossPct float64 `json:"profit_loss_pct"`
}

// PortfolioReport is the valuation of a whole portfolio.
type PortfolioReport struct {
	PortfolioID     string          `json:"portfolio_id"`
	TotalValue      float64         `json:"total_value"`
	TotalInvested   float64         `json:"total_invested"`
	TotalProfitLoss float64         `json:"total_profit_loss"`
	TotalROIPct     float64         `json:"total_roi_pct"`
	Holdings        []HoldingReport `json:"holdings"`
}

// Calculate values positions against quotes. Positions that are not open
// are skipped. A position without a usable quote is priced at its average
// buy price, which values it at exactly its cost basis and zero profit.
// Every ratio falls back to zero when its denominator is zero.
func Calculate(portfolioID string, positions []Position, quotes map[string]float64) PortfolioReport {
	report := PortfolioReport{
		PortfolioID: portfolioID,
		Holdings:    make([]HoldingReport, 0, len(positions)),
	}

	totalValue := decimal.Zero
	totalInvested := decimal.Zero

	for _, p := range positions {
		if !p.Open() {
			continue
		}

		avgBuyPrice := p.CostBasis.Div(p.Quantity)
		currentPrice := avgBuyPrice
		currentValue := p.CostBasis
		if price, ok := usableQuote(quotes, p.Ticker); ok {
			currentPrice = price
			currentValue = p.Quantity.Mul(price)
		}
		profitLoss := currentValue.Sub(p.CostBasis)

		totalValue = totalValue.Add(currentValue)
		totalInvested = totalInvested.Add(p.CostBasis)

		report.Holdings = append(report.Holdings, HoldingReport{
			Ticker:        p.Ticker,
			Quantity:      p.Quantity.InexactFloat64(),
			AvgBuyPrice:   avgBuyPrice.InexactFloat64(),
			CurrentPrice:  currentPrice.InexactFloat64(),
			CurrentValue:  currentValue.InexactFloat64(),
			ProfitLoss:    profitLoss.InexactFloat64(),
			ProfitLossPct: percentOf(profitLoss, p.CostBasis).InexactFloat64(),
		})
	}

	totalProfitLoss := totalValue.Sub(totalInvested)
	report.TotalValue = totalValue.InexactFloat64()
	report.TotalInvested = totalInvested.InexactFloat64()
	report.TotalProfitLoss = totalProfitLoss.InexactFloat64()
	report.TotalROIPct = percentOf(totalProfitLoss, totalInvested).InexactFloat64()

	return report
}

// usableQuote returns the quote for ticker if it is a finite positive number.
func usableQuote(quotes map[string]float64, ticker string) (decimal.Decimal, bool) {
	price, ok := quotes[ticker]
	if !ok || price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(price), true
}

// percentOf returns part/whole*100, or zero when whole is not positive.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
