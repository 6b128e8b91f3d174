package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"budgetwise/internal/config"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/logger"
	"budgetwise/internal/models"
	"budgetwise/internal/payments/mpesa"
	"budgetwise/internal/payments/stripe"
	"budgetwise/internal/uuid"
)

// depositService ties confirmed external payments to ledger postings. Each
// deposit attempt moves Created -> Confirmed -> Posted or Failed; the
// transition into Confirmed consumes the attempt and can happen at most once
// per provider reference.
type depositService struct {
	db           *gorm.DB
	transactions TransactionServicer
	users        UserServicer
	card         CardGateway
	mobileMoney  MpesaGateway
	mpesaCfg     config.MpesaConfig
}

// NewDepositService creates a new DepositServicer.
func NewDepositService(db *gorm.DB, transactions TransactionServicer, users UserServicer, card CardGateway, mobileMoney MpesaGateway, mpesaCfg config.MpesaConfig) DepositServicer {
	return &depositService{
		db:           db,
		transactions: transactions,
		users:        users,
		card:         card,
		mobileMoney:  mobileMoney,
		mpesaCfg:     mpesaCfg,
	}
}

// CreateCardIntent starts a card deposit: it creates a provider-side payment
// intent and records the pending attempt. The returned client secret lets the
// caller complete the card flow; nothing touches the ledger yet.
func (s *depositService) CreateCardIntent(ctx context.Context, userID uint, amount int64) (*stripe.Intent, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	wallet, err := getWalletByUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	intent, err := s.card.CreateIntent(ctx, amount, wallet.Currency, s.cardCustomer(ctx, userID))
	if err != nil {
		return nil, err
	}

	pending := &models.Deposit{
		Provider:    models.DepositProviderStripe,
		ProviderRef: intent.ID,
		UserID:      userID,
		WalletID:    wallet.ID,
		Amount:      amount,
		Status:      models.DepositStatusCreated,
	}
	if err := s.db.Create(pending).Error; err != nil {
		// The intent exists provider-side but was never returned to the
		// caller, so no money can move against it.
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return intent, nil
}

// cardCustomer returns the user's provider-side customer id, creating and
// persisting one on first use. Customer attachment is best effort: an intent
// without a customer still settles, so failures here never block the deposit.
func (s *depositService) cardCustomer(ctx context.Context, userID uint) string {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return ""
	}
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID
	}

	customerID, err := s.card.CreateCustomer(ctx, user.Email)
	if err != nil || customerID == "" {
		logger.Get().Warnw("stripe customer creation failed", "user_id", userID, "error", err)
		return ""
	}
	if err := s.users.SetStripeCustomerID(userID, customerID); err != nil {
		logger.Get().Warnw("could not persist stripe customer id", "user_id", userID, "error", err)
	}
	return customerID
}

// ConfirmCardDeposit settles a card deposit. The intent is re-retrieved from
// the provider — the client-supplied status is never trusted — and must be in
// the terminal success state. The pending attempt is then claimed and the
// ledger posting committed in one database transaction, so a reference id
// can credit the wallet exactly once no matter how often it is replayed.
func (s *depositService) ConfirmCardDeposit(ctx context.Context, userID uint, amount int64, paymentIntentID string) (*models.Transaction, *models.Wallet, error) {
	if paymentIntentID == "" {
		return nil, nil, apperrors.ErrPaymentRefRequired
	}

	wallet, err := getWalletByUser(s.db, userID)
	if err != nil {
		return nil, nil, err
	}

	intent, err := s.card.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, nil, err
	}
	if intent.Status != stripe.StatusSucceeded {
		return nil, nil, apperrors.WithMessage(apperrors.ErrPaymentNotCompleted,
			fmt.Sprintf("Payment not completed. Status: %s", intent.Status))
	}

	// The provider-verified amount is authoritative; the client-supplied one
	// is only a hint.
	if intent.Amount > 0 {
		amount = intent.Amount
	}

	var transaction *models.Transaction
	var updated *models.Wallet
	err = s.db.Transaction(func(tx *gorm.DB) error {
		depositID, claimErr := s.claimDeposit(tx, models.DepositProviderStripe, paymentIntentID, userID, wallet.ID, amount, "")
		if claimErr != nil {
			return claimErr
		}

		var postErr error
		transaction, updated, postErr = s.transactions.PostTransactionTx(
			tx, userID, wallet.ID, nil, models.TransactionTypeDeposit, amount,
			"Wallet deposit via card", time.Now())
		if postErr != nil {
			// Distinct from a payment failure: the provider captured the
			// money but the ledger write did not go through. The rollback
			// releases the claim so a retry can settle it.
			var appErr *apperrors.AppError
			if errors.As(postErr, &appErr) && appErr.Code == apperrors.ErrInvalidInput.Code {
				return postErr
			}
			return apperrors.Wrap(apperrors.ErrWalletNotCredited, postErr)
		}

		return s.linkDepositTransaction(tx, depositID, transaction.ID)
	})
	if err != nil {
		return nil, nil, err
	}
	return transaction, updated, nil
}

// InitiateSTKPush starts a mobile-money deposit: it prompts the user's phone
// and records a pending attempt keyed by the provider's checkout request id,
// which the asynchronous callback later resolves.
func (s *depositService) InitiateSTKPush(ctx context.Context, userID uint, phoneNumber string, amount int64, description string) (*mpesa.STKPushResponse, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	wallet, err := getWalletByUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	if description == "" {
		description = "Wallet deposit"
	}

	resp, err := s.mobileMoney.InitiateSTKPush(ctx, mpesa.STKPushRequest{
		PhoneNumber:      phoneNumber,
		Amount:           amount,
		CallbackURL:      s.callbackURL(),
		AccountReference: "BW-" + uuid.New()[:8],
		Description:      description,
	})
	if err != nil {
		return nil, err
	}

	pending := &models.Deposit{
		Provider:    models.DepositProviderMpesa,
		ProviderRef: resp.CheckoutRequestID,
		UserID:      userID,
		WalletID:    wallet.ID,
		Amount:      amount,
		Phone:       mpesa.NormalizePhone(phoneNumber),
		Status:      models.DepositStatusCreated,
	}
	if err := s.db.Create(pending).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return resp, nil
}

// QuerySTKStatus polls the provider for a push outcome.
func (s *depositService) QuerySTKStatus(ctx context.Context, checkoutRequestID string) (*mpesa.StatusResponse, error) {
	return s.mobileMoney.QueryStatus(ctx, checkoutRequestID)
}

// ConfirmMpesaDeposit posts a deposit without provider verification. This is
// the demo/test confirmation path; provider-verified funds go through the
// callback instead.
func (s *depositService) ConfirmMpesaDeposit(userID uint, phoneNumber string, amount int64, description string) (*models.Transaction, *models.Wallet, error) {
	wallet, err := getWalletByUser(s.db, userID)
	if err != nil {
		return nil, nil, err
	}

	if description == "" {
		description = "M-Pesa deposit"
	}

	var transaction *models.Transaction
	var updated *models.Wallet
	err = s.db.Transaction(func(tx *gorm.DB) error {
		deposit := &models.Deposit{
			Provider:    models.DepositProviderMpesa,
			ProviderRef: "manual-" + uuid.New(),
			UserID:      userID,
			WalletID:    wallet.ID,
			Amount:      amount,
			Phone:       mpesa.NormalizePhone(phoneNumber),
			Status:      models.DepositStatusConfirmed,
		}
		if err := tx.Create(deposit).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var postErr error
		transaction, updated, postErr = s.transactions.PostTransactionTx(
			tx, userID, wallet.ID, nil, models.TransactionTypeDeposit, amount, description, time.Now())
		if postErr != nil {
			return postErr
		}

		return s.linkDepositTransaction(tx, deposit.ID, transaction.ID)
	})
	if err != nil {
		return nil, nil, err
	}
	return transaction, updated, nil
}

// HandleCallback resolves a provider callback against its pending deposit.
// On a success result the deposit is consumed and exactly one ledger posting
// committed; on a failure result the deposit is marked failed. The HTTP layer
// always acknowledges the provider regardless of what this returns.
func (s *depositService) HandleCallback(env *mpesa.CallbackEnvelope) error {
	ref := env.CheckoutRequestID()

	var deposit models.Deposit
	if err := s.db.Where("provider = ? AND provider_ref = ?", models.DepositProviderMpesa, ref).First(&deposit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrDepositNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !env.Succeeded() {
		res := s.db.Model(&models.Deposit{}).
			Where("id = ? AND status = ?", deposit.ID, models.DepositStatusCreated).
			Update("status", models.DepositStatusFailed)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		logger.Get().Infow("mpesa deposit failed",
			"checkout_request_id", ref,
			"result_code", env.Body.StkCallback.ResultCode,
			"result_desc", env.Body.StkCallback.ResultDesc,
		)
		return nil
	}

	amount := env.Amount()
	if amount == 0 {
		amount = deposit.Amount
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Deposit{}).
			Where("id = ? AND status = ?", deposit.ID, models.DepositStatusCreated).
			Updates(map[string]interface{}{
				"status":  models.DepositStatusConfirmed,
				"receipt": env.Receipt(),
				"amount":  amount,
			})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			// Already consumed: the provider retried a callback we have
			// processed. Nothing more to post.
			return apperrors.ErrDuplicateDeposit
		}

		description := "M-Pesa deposit"
		if receipt := env.Receipt(); receipt != "" {
			description = "M-Pesa deposit " + receipt
		}

		transaction, _, postErr := s.transactions.PostTransactionTx(
			tx, deposit.UserID, deposit.WalletID, nil, models.TransactionTypeDeposit, amount, description, time.Now())
		if postErr != nil {
			return apperrors.Wrap(apperrors.ErrWalletNotCredited, postErr)
		}

		return s.linkDepositTransaction(tx, deposit.ID, transaction.ID)
	})
}

// claimDeposit transitions a pending deposit to confirmed, creating the row
// if initiation never recorded one. The status guard on the update plus the
// unique (provider, provider_ref) index make the claim first-wins under
// concurrent confirmation.
func (s *depositService) claimDeposit(tx *gorm.DB, provider models.DepositProvider, ref string, userID, walletID uint, amount int64, receipt string) (uint, error) {
	var deposit models.Deposit
	err := tx.Where("provider = ? AND provider_ref = ?", provider, ref).First(&deposit).Error
	switch {
	case err == nil:
		if deposit.UserID != userID {
			return 0, apperrors.ErrDepositNotFound
		}
		res := tx.Model(&models.Deposit{}).
			Where("id = ? AND status = ?", deposit.ID, models.DepositStatusCreated).
			Updates(map[string]interface{}{
				"status":  models.DepositStatusConfirmed,
				"receipt": receipt,
			})
		if res.Error != nil {
			return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return 0, apperrors.ErrDuplicateDeposit
		}
		return deposit.ID, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		deposit = models.Deposit{
			Provider:    provider,
			ProviderRef: ref,
			UserID:      userID,
			WalletID:    walletID,
			Amount:      amount,
			Receipt:     receipt,
			Status:      models.DepositStatusConfirmed,
		}
		if createErr := tx.Create(&deposit).Error; createErr != nil {
			// Unique index collision: another confirmation got there first.
			return 0, apperrors.Wrap(apperrors.ErrDuplicateDeposit, createErr)
		}
		return deposit.ID, nil

	default:
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

func (s *depositService) linkDepositTransaction(tx *gorm.DB, depositID, transactionID uint) error {
	if err := tx.Model(&models.Deposit{}).Where("id = ?", depositID).
		Update("transaction_id", transactionID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// callbackURL builds the public callback endpoint registered with the
// provider, including the per-deployment secret segment the handler checks.
func (s *depositService) callbackURL() string {
	return fmt.Sprintf("%s/api/mpesa/callback/%s", s.mpesaCfg.CallbackBase, s.mpesaCfg.CallbackSecret)
}
