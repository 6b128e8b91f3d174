package models

// User represents a registered user. Every user owns exactly one wallet,
// created with the user in the same database transaction.
type User struct {
	Base
	Username         string `gorm:"uniqueIndex;not null" json:"username"`
	Email            string `gorm:"uniqueIndex;not null" json:"email"`
	Password         string `gorm:"not null" json:"-"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	StripeCustomerID string `json:"-"`

	Wallet       *Wallet       `gorm:"foreignKey:UserID" json:"wallet,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
	Budgets      []Budget      `gorm:"foreignKey:UserID" json:"budgets,omitempty"`
}
