package models

// User represents the user model in the database
type User struct {
	Base
	Email      string      `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password   string      `gorm:"size:255;not null" json:"-"`
	Portfolios []Portfolio `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"portfolios,omitempty"`
}
