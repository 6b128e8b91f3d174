package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
	"budgetwise/internal/payments/mpesa"
	"budgetwise/internal/payments/stripe"
)

// UserServicer defines the contract for user-related business logic.
// Creating a user also creates the user's wallet; the two are never
// observable separately.
type UserServicer interface {
	CreateUser(username, email, password, firstName, lastName string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	SetStripeCustomerID(userID uint, customerID string) error
}

// WalletServicer defines the contract for wallet reads. Balances are never
// written through this interface; only transaction posting mutates them.
type WalletServicer interface {
	GetWalletByUser(userID uint) (*models.Wallet, error)
}

// TransactionServicer defines the contract for the ledger posting path.
type TransactionServicer interface {
	// PostTransaction appends a ledger entry and applies its balance effect
	// in one database transaction, returning the entry and the post-update
	// wallet snapshot.
	PostTransaction(userID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, *models.Wallet, error)
	// PostTransactionTx is the same posting step running inside a caller's
	// database transaction, for flows that must commit a posting atomically
	// with other writes (deposit settlement).
	PostTransactionTx(tx *gorm.DB, userID, walletID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, *models.Wallet, error)
	ListTransactions(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
}

// CategoryServicer defines the contract for the global category reference data.
type CategoryServicer interface {
	ListCategories() ([]models.Category, error)
	GetCategoryByID(id uint) (*models.Category, error)
	CreateCategory(name, icon, color string, isDefault bool) (*models.Category, error)
	SeedDefaults() error
}

// BudgetServicer defines the contract for budget reference data.
type BudgetServicer interface {
	CreateBudget(userID uint, categoryID *uint, amount int64, period models.BudgetPeriod, startDate time.Time, endDate *time.Time) (*models.Budget, error)
	GetUserBudgets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID uint) (*models.Budget, error)
	DeleteBudget(userID, budgetID uint) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}

// CardGateway is the card-processor capability the deposit flow needs.
type CardGateway interface {
	Configured() bool
	CreateCustomer(ctx context.Context, email string) (string, error)
	CreateIntent(ctx context.Context, amount int64, currency, customerID string) (*stripe.Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*stripe.Intent, error)
}

// MpesaGateway is the mobile-money capability the deposit flow needs.
type MpesaGateway interface {
	Configured() bool
	InitiateSTKPush(ctx context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (*mpesa.StatusResponse, error)
}

// DepositServicer orchestrates external payments into ledger postings. Every
// confirmed payment produces exactly one transaction and one balance update.
type DepositServicer interface {
	CreateCardIntent(ctx context.Context, userID uint, amount int64) (*stripe.Intent, error)
	ConfirmCardDeposit(ctx context.Context, userID uint, amount int64, paymentIntentID string) (*models.Transaction, *models.Wallet, error)
	InitiateSTKPush(ctx context.Context, userID uint, phoneNumber string, amount int64, description string) (*mpesa.STKPushResponse, error)
	QuerySTKStatus(ctx context.Context, checkoutRequestID string) (*mpesa.StatusResponse, error)
	ConfirmMpesaDeposit(userID uint, phoneNumber string, amount int64, description string) (*models.Transaction, *models.Wallet, error)
	HandleCallback(env *mpesa.CallbackEnvelope) error
}
