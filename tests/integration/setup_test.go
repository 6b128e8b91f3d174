package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"budgetwise/internal/config"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/handlers"
	"budgetwise/internal/logger"
	"budgetwise/internal/middleware"
	"budgetwise/internal/models"
	"budgetwise/internal/payments/mpesa"
	"budgetwise/internal/payments/stripe"
	"budgetwise/internal/services"
	"budgetwise/internal/validator"
)

const callbackSecret = "integration-callback-secret"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Card   *stubCardGateway
	Mpesa  *stubMpesaGateway
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
	config.Get()
}

// stubCardGateway stands in for the card processor. Intents start out
// unpaid; tests flip them to succeeded to simulate the client-side
// confirmation step.
type stubCardGateway struct {
	intents map[string]*stripe.Intent
	nextID  int
}

func newStubCardGateway() *stubCardGateway {
	return &stubCardGateway{intents: make(map[string]*stripe.Intent)}
}

func (s *stubCardGateway) Configured() bool { return true }

func (s *stubCardGateway) CreateCustomer(_ context.Context, email string) (string, error) {
	return "cus_int_" + email, nil
}

func (s *stubCardGateway) CreateIntent(_ context.Context, amount int64, currency, _ string) (*stripe.Intent, error) {
	s.nextID++
	intent := &stripe.Intent{
		ID:           fmt.Sprintf("pi_int_%d", s.nextID),
		ClientSecret: fmt.Sprintf("pi_int_%d_secret", s.nextID),
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     strings.ToLower(currency),
	}
	s.intents[intent.ID] = intent
	return intent, nil
}

func (s *stubCardGateway) RetrieveIntent(_ context.Context, intentID string) (*stripe.Intent, error) {
	intent, ok := s.intents[intentID]
	if !ok {
		return nil, apperrors.ErrGatewayError
	}
	return intent, nil
}

func (s *stubCardGateway) succeed(intentID string) {
	s.intents[intentID].Status = stripe.StatusSucceeded
}

// stubMpesaGateway acknowledges STK pushes without talking to Daraja.
type stubMpesaGateway struct {
	nextID   int
	lastPush mpesa.STKPushRequest
}

func (s *stubMpesaGateway) Configured() bool { return true }

func (s *stubMpesaGateway) InitiateSTKPush(_ context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error) {
	s.nextID++
	s.lastPush = req
	return &mpesa.STKPushResponse{
		MerchantRequestID: fmt.Sprintf("mr_int_%d", s.nextID),
		CheckoutRequestID: fmt.Sprintf("ws_CO_int_%d", s.nextID),
		ResponseCode:      "0",
		CustomerMessage:   "Success. Request accepted for processing",
	}, nil
}

func (s *stubMpesaGateway) QueryStatus(_ context.Context, checkoutRequestID string) (*mpesa.StatusResponse, error) {
	return &mpesa.StatusResponse{
		CheckoutRequestID: checkoutRequestID,
		ResultCode:        "0",
		ResultDesc:        "The service request is processed successfully.",
	}, nil
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Wallet{},
		&models.Category{},
		&models.Transaction{},
		&models.Budget{},
		&models.Deposit{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite, with payment gateways replaced by local stubs.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db, "USD")
	walletService := services.NewWalletService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	budgetService := services.NewBudgetService(db)
	auditService := services.NewAuditService(db)

	card := newStubCardGateway()
	mobileMoney := &stubMpesaGateway{}
	mpesaCfg := config.MpesaConfig{
		CallbackBase:   "https://example.com",
		CallbackSecret: callbackSecret,
	}
	depositService := services.NewDepositService(db, transactionService, userService, card, mobileMoney, mpesaCfg)

	if err := categoryService.SeedDefaults(); err != nil {
		t.Fatalf("failed to seed categories: %v", err)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	walletHandler := handlers.NewWalletHandler(walletService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	depositHandler := handlers.NewDepositHandler(depositService, auditService)
	mpesaHandler := handlers.NewMpesaHandler(depositService, auditService, mpesaCfg)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	api := router.Group("/api")

	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.GET("/categories", categoryHandler.GetCategories)
	api.POST("/mpesa/callback/:secret", mpesaHandler.Callback)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/me", authHandler.Me)
	protected.GET("/wallet", walletHandler.GetWallet)

	protected.POST("/categories", categoryHandler.CreateCategory)

	protected.GET("/transactions", transactionHandler.GetTransactions)
	protected.POST("/transactions", transactionHandler.CreateTransaction)

	protected.GET("/budgets", budgetHandler.GetBudgets)
	protected.POST("/budgets", budgetHandler.CreateBudget)
	protected.DELETE("/budgets/:id", budgetHandler.DeleteBudget)

	protected.POST("/create-payment-intent", depositHandler.CreatePaymentIntent)
	protected.POST("/deposit", depositHandler.ConfirmDeposit)

	protected.POST("/mpesa/stk-push", mpesaHandler.STKPush)
	protected.GET("/mpesa/transaction/:checkoutRequestId", mpesaHandler.TransactionStatus)
	protected.POST("/mpesa/confirm-deposit", mpesaHandler.ConfirmDeposit)

	return &testApp{DB: db, Router: router, Card: card, Mpesa: mobileMoney}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, username, password string) (token string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@test.com","password":%q}`, username, username, password)
	rec := app.request("POST", "/api/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(float64)
}

// walletBalance reads the wallet through the API and returns its balance.
func (app *testApp) walletBalance(t *testing.T, token string) float64 {
	t.Helper()
	rec := app.request("GET", "/api/wallet", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get wallet failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["balance"].(float64)
}
