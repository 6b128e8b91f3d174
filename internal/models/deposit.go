package models

// DepositProvider identifies the external payment provider behind a deposit.
type DepositProvider string

const (
	DepositProviderStripe DepositProvider = "stripe"
	DepositProviderMpesa  DepositProvider = "mpesa"
)

// DepositStatus tracks the lifecycle of a pending external payment.
type DepositStatus string

const (
	DepositStatusCreated   DepositStatus = "created"
	DepositStatusConfirmed DepositStatus = "confirmed"
	DepositStatusFailed    DepositStatus = "failed"
)

// Deposit records an in-flight or settled external payment attempt. The
// unique (provider, provider_ref) index is what makes deposit confirmation
// exactly-once: a provider reference can be consumed into a ledger
// transaction at most one time.
type Deposit struct {
	Base
	Provider    DepositProvider `gorm:"not null;uniqueIndex:idx_provider_ref" json:"provider"`
	ProviderRef string          `gorm:"not null;uniqueIndex:idx_provider_ref" json:"provider_ref"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	WalletID    uint            `gorm:"not null" json:"wallet_id"`
	Amount      int64           `gorm:"not null" json:"amount"`
	Phone       string          `json:"phone,omitempty"`
	Receipt     string          `json:"receipt,omitempty"`
	Status      DepositStatus   `gorm:"not null;default:'created'" json:"status"`

	TransactionID *uint `json:"transaction_id,omitempty"`
}
