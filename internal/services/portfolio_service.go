package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "tradeflow/internal/errors"
	"tradeflow/internal/models"
	"tradeflow/internal/pagination"
)

// MaxPortfolioNameLength is the longest accepted portfolio name.
const MaxPortfolioNameLength = 50

// portfolioService handles portfolio-related business logic.
type portfolioService struct {
	db *gorm.DB
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB) PortfolioServicer {
	return &portfolioService{db: db}
}

// CreatePortfolio creates an empty portfolio for userID.
func (s *portfolioService) CreatePortfolio(userID, name string) (*models.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxPortfolioNameLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be between 1 and 50 characters")
	}

	portfolio := &models.Portfolio{UserID: userID, Name: name}
	if err := s.db.Create(portfolio).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return portfolio, nil
}

// GetUserPortfolios returns a page of the user's portfolios, oldest first.
func (s *portfolioService) GetUserPortfolios(userID string, page pagination.Request) (*pagination.Page[models.Portfolio], error) {
	page = page.WithDefaults()

	var totalItems int64
	if err := s.db.Model(&models.Portfolio{}).Where("user_id = ?", userID).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var portfolios []models.Portfolio
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC, id ASC").
		Scopes(page.Scope()).Find(&portfolios).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPage(portfolios, page, totalItems)
	return &result, nil
}

// GetPortfolioByID returns the portfolio if it exists and belongs to userID.
func (s *portfolioService) GetPortfolioByID(userID, portfolioID string) (*models.Portfolio, error) {
	return ownedPortfolio(s.db, userID, portfolioID)
}

// DeletePortfolio removes an owned portfolio and its transactions in one
// database transaction.
func (s *portfolioService) DeletePortfolio(userID, portfolioID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		portfolio, err := ownedPortfolio(tx, userID, portfolioID)
		if err != nil {
			return err
		}
		if err := tx.Where("portfolio_id = ?", portfolio.ID).Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(portfolio).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// ownedPortfolio loads a portfolio scoped to its owner.
func ownedPortfolio(db *gorm.DB, userID, portfolioID string) (*models.Portfolio, error) {
	if !validID(portfolioID) {
		return nil, apperrors.ErrPortfolioNotFound
	}
	var portfolio models.Portfolio
	if err := db.Where("id = ? AND user_id = ?", portfolioID, userID).First(&portfolio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPortfolioNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &portfolio, nil
}
