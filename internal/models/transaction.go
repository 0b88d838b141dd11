package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionSide is the direction of a trade.
type TransactionSide string

const (
	SideBuy  TransactionSide = "BUY"
	SideSell TransactionSide = "SELL"
)

// Valid reports whether s is one of the two supported sides.
func (s TransactionSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Transaction is a single buy or sell of a ticker inside a portfolio.
// Rows are append-only: no Base embed, no UpdatedAt.
type Transaction struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	PortfolioID   string          `gorm:"type:uuid;not null;index:idx_transactions_ledger,priority:1" json:"portfolio_id"`
	Ticker        string          `gorm:"size:10;not null;index" json:"ticker"`
	Side          TransactionSide `gorm:"size:4;not null" json:"type"`
	Quantity      decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"quantity"`
	PricePerShare decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"price_per_share"`
	Timestamp     time.Time       `gorm:"not null;index:idx_transactions_ledger,priority:2" json:"timestamp"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BeforeCreate assigns the ID and, when unset, the timestamp.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		t.ID = id
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	return nil
}
