package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
)

// transactionService handles the ledger posting path.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

func validTransactionType(t models.TransactionType) bool {
	switch t {
	case models.TransactionTypeIncome, models.TransactionTypeExpense,
		models.TransactionTypeTransfer, models.TransactionTypeDeposit:
		return true
	}
	return false
}

// PostTransaction appends a ledger entry for the user's wallet and applies
// its balance effect atomically.
func (s *transactionService) PostTransaction(
	userID uint,
	categoryID *uint,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, *models.Wallet, error) {
	wallet, err := getWalletByUser(s.db, userID)
	if err != nil {
		return nil, nil, err
	}

	var transaction *models.Transaction
	var updated *models.Wallet
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		transaction, updated, txErr = s.PostTransactionTx(tx, userID, wallet.ID, categoryID, transactionType, amount, description, date)
		return txErr
	})
	if err != nil {
		return nil, nil, err
	}
	return transaction, updated, nil
}

// PostTransactionTx performs the posting inside the caller's database
// transaction. The balance change is a single database-level increment, so
// concurrent postings against the same wallet serialize at the row instead of
// racing a read-modify-write.
func (s *transactionService) PostTransactionTx(
	tx *gorm.DB,
	userID, walletID uint,
	categoryID *uint,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, *models.Wallet, error) {
	if amount <= 0 {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !validTransactionType(transactionType) {
		return nil, nil, apperrors.ErrInvalidTransactionType
	}
	if date.IsZero() {
		date = time.Now()
	}

	transaction := &models.Transaction{
		UserID:      userID,
		WalletID:    walletID,
		CategoryID:  categoryID,
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Date:        date,
	}
	if err := tx.Create(transaction).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if delta := transactionType.BalanceDelta(amount); delta != 0 {
		res := tx.Model(&models.Wallet{}).
			Where("id = ?", walletID).
			Update("balance", gorm.Expr("balance + ?", delta))
		if res.Error != nil {
			return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, nil, apperrors.ErrWalletNotFound
		}
	}

	var wallet models.Wallet
	if err := tx.First(&wallet, walletID).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return transaction, &wallet, nil
}

// ListTransactions returns the user's ledger entries newest-first. The date
// field is client-supplied, so id (posting sequence) breaks ties.
func (s *transactionService) ListTransactions(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Category").
		Order("date DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}
