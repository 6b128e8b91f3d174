package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"budgetwise/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and a unique
// username/email pair. The wallet is created separately; use
// CreateTestUserWithWallet for the common case.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	n := nextID()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@test.com", n),
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestUserWithWallet creates a user together with a zero-balance wallet.
func CreateTestUserWithWallet(t *testing.T, db *gorm.DB) (*models.User, *models.Wallet) {
	t.Helper()

	user := CreateTestUser(t, db)
	wallet := CreateTestWallet(t, db, user.ID, 0)
	return user, wallet
}

// CreateTestWallet creates a wallet with the given balance (in cents).
func CreateTestWallet(t *testing.T, db *gorm.DB, userID uint, balance int64) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{
		UserID:   userID,
		Balance:  balance,
		Currency: "USD",
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// CreateTestCategory creates a non-default category.
func CreateTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:  fmt.Sprintf("Test Category %d", nextID()),
		Icon:  "label",
		Color: "#4caf50",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction of the given type and amount (in cents).
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, walletID uint, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:   userID,
		WalletID: walletID,
		Type:     txType,
		Amount:   amount,
		Date:     time.Now(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a monthly budget, optionally scoped to a category.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID uint, categoryID *uint) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     10000, // $100.00
		Period:     models.BudgetPeriodMonthly,
		StartDate:  time.Now().Truncate(24 * time.Hour),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestDeposit creates a pending deposit attempt for the given provider reference.
func CreateTestDeposit(t *testing.T, db *gorm.DB, userID, walletID uint, provider models.DepositProvider, ref string, amount int64) *models.Deposit {
	t.Helper()

	deposit := &models.Deposit{
		Provider:    provider,
		ProviderRef: ref,
		UserID:      userID,
		WalletID:    walletID,
		Amount:      amount,
		Status:      models.DepositStatusCreated,
	}
	if err := db.Create(deposit).Error; err != nil {
		t.Fatalf("failed to create test deposit: %v", err)
	}
	return deposit
}
