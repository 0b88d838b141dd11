package services

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tradeflow/internal/errors"
	"tradeflow/internal/models"
	"tradeflow/internal/pagination"
	"tradeflow/internal/validator"
)

// ledgerOrder is the insertion order of a portfolio's transactions.
const ledgerOrder = "timestamp ASC, id ASC"

// Amounts are stored as NUMERIC(24,8).
const amountScale = 8

var maxAmount = decimal.New(1, 24-amountScale)

// checkAmount rejects values the ledger columns cannot store exactly.
func checkAmount(field string, d decimal.Decimal) error {
	switch {
	case !d.IsPositive():
		return apperrors.WithMessage(apperrors.ErrInvalidInput, field+" must be greater than 0")
	case !d.Equal(d.Truncate(amountScale)):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, field+" must have at most 8 decimal places")
	case d.GreaterThanOrEqual(maxAmount):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, field+" must be less than 10^16")
	}
	return nil
}

// transactionService handles recording and reading portfolio ledgers.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction appends a trade to an owned portfolio. The ticker is
// stored upper-cased and the timestamp is assigned now.
func (s *transactionService) CreateTransaction(
	userID, portfolioID, ticker string,
	side models.TransactionSide,
	quantity, pricePerShare decimal.Decimal,
) (*models.Transaction, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if !validator.ValidTicker(ticker) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "ticker must be 1 to 10 letters, digits, dots or dashes")
	}
	side = models.TransactionSide(strings.ToUpper(string(side)))
	if !side.Valid() {
		return nil, apperrors.ErrInvalidTransactionSide
	}
	if err := checkAmount("quantity", quantity); err != nil {
		return nil, err
	}
	if err := checkAmount("price_per_share", pricePerShare); err != nil {
		return nil, err
	}

	var transaction *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		portfolio, err := ownedPortfolio(tx, userID, portfolioID)
		if err != nil {
			return err
		}

		transaction = &models.Transaction{
			PortfolioID:   portfolio.ID,
			Ticker:        ticker,
			Side:          side,
			Quantity:      quantity,
			PricePerShare: pricePerShare,
		}
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// GetPortfolioTransactions returns a page of an owned portfolio's ledger in
// insertion order.
func (s *transactionService) GetPortfolioTransactions(userID, portfolioID string, page pagination.Request) (*pagination.Page[models.Transaction], error) {
	if _, err := ownedPortfolio(s.db, userID, portfolioID); err != nil {
		return nil, err
	}

	page = page.WithDefaults()

	var totalItems int64
	if err := s.db.Model(&models.Transaction{}).Where("portfolio_id = ?", portfolioID).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := s.db.Where("portfolio_id = ?", portfolioID).Order(ledgerOrder).
		Scopes(page.Scope()).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPage(transactions, page, totalItems)
	return &result, nil
}

// ListLedger returns every transaction of a portfolio in insertion order.
// It does not check ownership.
func (s *transactionService) ListLedger(portfolioID string) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.Where("portfolio_id = ?", portfolioID).Order(ledgerOrder).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}
