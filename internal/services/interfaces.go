package services

import (
	"context"

	"github.com/shopspring/decimal"

	"tradeflow/internal/models"
	"tradeflow/internal/pagination"
	"tradeflow/internal/performance"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	DeleteUser(id string) error
}

// PortfolioServicer defines the contract for portfolio-related business logic.
// A portfolio that exists but belongs to another user is reported exactly
// like a missing one.
type PortfolioServicer interface {
	CreatePortfolio(userID, name string) (*models.Portfolio, error)
	GetUserPortfolios(userID string, page pagination.Request) (*pagination.Page[models.Portfolio], error)
	GetPortfolioByID(userID, portfolioID string) (*models.Portfolio, error)
	DeletePortfolio(userID, portfolioID string) error
}

// TransactionServicer defines the contract for recording and reading the ledger.
type TransactionServicer interface {
	CreateTransaction(userID, portfolioID, ticker string, side models.TransactionSide, quantity, pricePerShare decimal.Decimal) (*models.Transaction, error)
	GetPortfolioTransactions(userID, portfolioID string, page pagination.Request) (*pagination.Page[models.Transaction], error)
	ListLedger(portfolioID string) ([]models.Transaction, error)
}

// PerformanceServicer defines the contract for valuing a portfolio.
type PerformanceServicer interface {
	GetPerformance(ctx context.Context, userID, portfolioID string) (*performance.PortfolioReport, error)
}

// PerformanceEngine turns a ledger into a report.
type PerformanceEngine interface {
	ComputePerformance(ctx context.Context, portfolioID string, txs []models.Transaction) performance.PortfolioReport
}
