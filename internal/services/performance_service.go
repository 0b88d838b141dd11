package services

import (
	"context"

	"gorm.io/gorm"

	"tradeflow/internal/performance"
)

// performanceService values a stored portfolio against live quotes.
type performanceService struct {
	db           *gorm.DB
	transactions TransactionServicer
	engine       PerformanceEngine
}

// NewPerformanceService creates a new PerformanceServicer.
func NewPerformanceService(db *gorm.DB, transactions TransactionServicer, engine PerformanceEngine) PerformanceServicer {
	return &performanceService{db: db, transactions: transactions, engine: engine}
}

// GetPerformance checks ownership, loads the full ledger and computes the
// report. Quote failures never make this fail.
func (s *performanceService) GetPerformance(ctx context.Context, userID, portfolioID string) (*performance.PortfolioReport, error) {
	portfolio, err := ownedPortfolio(s.db, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	txs, err := s.transactions.ListLedger(portfolio.ID)
	if err != nil {
		return nil, err
	}

	report := s.engine.ComputePerformance(ctx, portfolio.ID, txs)
	return &report, nil
}
