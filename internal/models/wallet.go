package models

// Wallet holds a user's running balance in a single currency. Amounts are
// stored in minor units (cents). The balance always equals the signed sum of
// the wallet's transactions; it is only ever mutated together with a
// transaction insert inside one database transaction.
type Wallet struct {
	Base
	UserID   uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance  int64  `gorm:"not null;default:0" json:"balance"`
	Currency string `gorm:"not null;default:'USD'" json:"currency"`

	Transactions []Transaction `gorm:"foreignKey:WalletID" json:"transactions,omitempty"`
}
