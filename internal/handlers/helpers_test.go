package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
	"budgetwise/internal/payments/mpesa"
	"budgetwise/internal/payments/stripe"
	"budgetwise/internal/validator"
	"gorm.io/gorm"
)

// --- mock services ---

type mockUserService struct {
	createUserFn        func(username, email, password, firstName, lastName string) (*models.User, error)
	getUserByUsernameFn func(username string) (*models.User, error)
	getUserByIDFn       func(id uint) (*models.User, error)
	verifyPasswordFn    func(user *models.User, password string) bool
}

func (m *mockUserService) CreateUser(username, email, password, firstName, lastName string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(username, email, password, firstName, lastName)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByUsername(username string) (*models.User, error) {
	if m.getUserByUsernameFn != nil {
		return m.getUserByUsernameFn(username)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id uint) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(user, password)
	}
	return true
}

func (m *mockUserService) SetStripeCustomerID(_ uint, _ string) error { return nil }

type mockTransactionService struct {
	postTransactionFn  func(userID uint, categoryID *uint, txType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, *models.Wallet, error)
	listTransactionsFn func(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
}

func (m *mockTransactionService) PostTransaction(userID uint, categoryID *uint, txType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, *models.Wallet, error) {
	if m.postTransactionFn != nil {
		return m.postTransactionFn(userID, categoryID, txType, amount, description, date)
	}
	return &models.Transaction{}, &models.Wallet{}, nil
}

func (m *mockTransactionService) PostTransactionTx(_ *gorm.DB, _, _ uint, _ *uint, _ models.TransactionType, _ int64, _ string, _ time.Time) (*models.Transaction, *models.Wallet, error) {
	return &models.Transaction{}, &models.Wallet{}, nil
}

func (m *mockTransactionService) ListTransactions(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 50, 0)
	return &resp, nil
}

type mockDepositService struct {
	createCardIntentFn    func(ctx context.Context, userID uint, amount int64) (*stripe.Intent, error)
	confirmCardDepositFn  func(ctx context.Context, userID uint, amount int64, paymentIntentID string) (*models.Transaction, *models.Wallet, error)
	initiateSTKPushFn     func(ctx context.Context, userID uint, phoneNumber string, amount int64, description string) (*mpesa.STKPushResponse, error)
	querySTKStatusFn      func(ctx context.Context, checkoutRequestID string) (*mpesa.StatusResponse, error)
	confirmMpesaDepositFn func(userID uint, phoneNumber string, amount int64, description string) (*models.Transaction, *models.Wallet, error)
	handleCallbackFn      func(env *mpesa.CallbackEnvelope) error
}

func (m *mockDepositService) CreateCardIntent(ctx context.Context, userID uint, amount int64) (*stripe.Intent, error) {
	if m.createCardIntentFn != nil {
		return m.createCardIntentFn(ctx, userID, amount)
	}
	return &stripe.Intent{}, nil
}

func (m *mockDepositService) ConfirmCardDeposit(ctx context.Context, userID uint, amount int64, paymentIntentID string) (*models.Transaction, *models.Wallet, error) {
	if m.confirmCardDepositFn != nil {
		return m.confirmCardDepositFn(ctx, userID, amount, paymentIntentID)
	}
	return &models.Transaction{}, &models.Wallet{}, nil
}

func (m *mockDepositService) InitiateSTKPush(ctx context.Context, userID uint, phoneNumber string, amount int64, description string) (*mpesa.STKPushResponse, error) {
	if m.initiateSTKPushFn != nil {
		return m.initiateSTKPushFn(ctx, userID, phoneNumber, amount, description)
	}
	return &mpesa.STKPushResponse{}, nil
}

func (m *mockDepositService) QuerySTKStatus(ctx context.Context, checkoutRequestID string) (*mpesa.StatusResponse, error) {
	if m.querySTKStatusFn != nil {
		return m.querySTKStatusFn(ctx, checkoutRequestID)
	}
	return &mpesa.StatusResponse{}, nil
}

func (m *mockDepositService) ConfirmMpesaDeposit(userID uint, phoneNumber string, amount int64, description string) (*models.Transaction, *models.Wallet, error) {
	if m.confirmMpesaDepositFn != nil {
		return m.confirmMpesaDepositFn(userID, phoneNumber, amount, description)
	}
	return &models.Transaction{}, &models.Wallet{}, nil
}

func (m *mockDepositService) HandleCallback(env *mpesa.CallbackEnvelope) error {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(env)
	}
	return nil
}

type mockAuditService struct{}

func (m *mockAuditService) Log(_ uint, _, _ string, _ uint, _ string, _ map[string]interface{}) {}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectUserID(uid uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
