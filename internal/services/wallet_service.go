package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
)

// walletService handles wallet reads.
type walletService struct {
	db *gorm.DB
}

// NewWalletService creates a new WalletServicer.
func NewWalletService(db *gorm.DB) WalletServicer {
	return &walletService{db: db}
}

// GetWalletByUser retrieves the wallet owned by a user.
func (s *walletService) GetWalletByUser(userID uint) (*models.Wallet, error) {
	return getWalletByUser(s.db, userID)
}

// getWalletByUser is shared by the posting and deposit paths so wallet
// resolution behaves identically everywhere.
func getWalletByUser(db *gorm.DB, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &wallet, nil
}
