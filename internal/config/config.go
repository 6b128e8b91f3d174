package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Wallets
	DefaultCurrency string

	// Payment providers
	Stripe StripeConfig
	Mpesa  MpesaConfig
}

// StripeConfig holds card-processor credentials. An empty secret key means
// card deposits are unavailable; endpoints then return a gateway
// configuration error instead of failing at startup.
type StripeConfig struct {
	SecretKey string
}

// MpesaConfig holds Daraja credentials for STK push deposits.
type MpesaConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string
	Passkey        string
	Environment    string // "sandbox" or "production"
	CallbackBase   string // public base URL the provider posts callbacks to
	CallbackSecret string // secret path segment appended to the callback URL
}

// Configured reports whether the minimum Daraja credentials are present.
func (m MpesaConfig) Configured() bool {
	return m.ConsumerKey != "" && m.ConsumerSecret != "" && m.Shortcode != ""
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "budgetwise"),
		DBPassword: getEnv("DB_PASSWORD", "budgetwise"),
		DBName:     getEnv("DB_NAME", "budgetwise"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "USD"),

		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		},
		Mpesa: MpesaConfig{
			ConsumerKey:    getEnv("MPESA_CONSUMER_KEY", ""),
			ConsumerSecret: getEnv("MPESA_CONSUMER_SECRET", ""),
			Shortcode:      getEnv("MPESA_SHORTCODE", ""),
			Passkey:        getEnv("MPESA_PASSKEY", ""),
			Environment:    getEnv("MPESA_ENV", "sandbox"),
			CallbackBase:   getEnv("MPESA_CALLBACK_BASE", ""),
			CallbackSecret: getEnv("MPESA_CALLBACK_SECRET", ""),
		},
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
