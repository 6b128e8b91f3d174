package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"budgetwise/internal/config"
	"budgetwise/internal/database"
	"budgetwise/internal/handlers"
	"budgetwise/internal/logger"
	"budgetwise/internal/middleware"
	"budgetwise/internal/payments/mpesa"
	"budgetwise/internal/payments/stripe"
	"budgetwise/internal/services"
	"budgetwise/internal/validator"

	_ "budgetwise/internal/docs" // Import swagger docs
)

// @title           BudgetWise API
// @version         1.0
// @description     BudgetWise is a personal budgeting application with a single wallet per user, transaction and budget tracking, and wallet deposits via card payments or M-Pesa.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db, appConfig.DefaultCurrency)
	walletService := services.NewWalletService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	budgetService := services.NewBudgetService(db)
	auditService := services.NewAuditService(db)

	// Payment gateways
	cardGateway := stripe.NewClient(appConfig.Stripe.SecretKey, "")
	mpesaGateway := mpesa.NewClient(appConfig.Mpesa, "")
	depositService := services.NewDepositService(db, transactionService, userService, cardGateway, mpesaGateway, appConfig.Mpesa)

	// Seed the default category catalog
	if err := categoryService.SeedDefaults(); err != nil {
		return fmt.Errorf("failed to seed default categories: %w", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	walletHandler := handlers.NewWalletHandler(walletService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	depositHandler := handlers.NewDepositHandler(depositService, auditService)
	mpesaHandler := handlers.NewMpesaHandler(depositService, auditService, appConfig.Mpesa)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API group
	api := router.Group("/api")

	// Health check endpoint
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.GET("/categories", categoryHandler.GetCategories)

	// Provider-facing callback; authenticated by the secret path segment
	api.POST("/mpesa/callback/:secret", mpesaHandler.Callback)

	// Protected routes
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

	log.Infof("Starting BudgetWise backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
