package models

// Portfolio is a named collection of transactions owned by a single user.
type Portfolio struct {
	Base
	UserID       string        `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string        `gorm:"size:50;not null" json:"name"`
	Transactions []Transaction `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"-"`
}
