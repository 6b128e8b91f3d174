package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
	TransactionTypeDeposit  TransactionType = "deposit"
)

// BalanceDelta returns the signed effect of a transaction of this type on a
// wallet balance. Transfers carry no balance effect.
func (t TransactionType) BalanceDelta(amount int64) int64 {
	switch t {
	case TransactionTypeIncome, TransactionTypeDeposit:
		return amount
	case TransactionTypeExpense:
		return -amount
	}
	return 0
}

// Transaction is an immutable, append-only ledger entry. Rows are created
// only by the posting path, which updates the owning wallet's balance in the
// same database transaction.
type Transaction struct {
	Base
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	WalletID    uint            `gorm:"not null;index" json:"wallet_id"`
	CategoryID  *uint           `json:"category_id,omitempty"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null" json:"date"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
