package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	PORT        string
	DB_URL      string
	JWT_SECRET  string
	CORS_ORIGIN string

	FRONTEND_URL string

	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string

	BTCPAY_URL            string
	BTCPAY_API_KEY        string
	BTCPAY_STORE_ID       string
	BTCPAY_WEBHOOK_SECRET string

	NOWPAYMENTS_API_KEY    string
	NOWPAYMENTS_IPN_SECRET string

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")
	CORS_ORIGIN = getEnv("CORS_ORIGIN", "http://localhost:5173")

	FRONTEND_URL = getEnv("FRONTEND_URL", "http://localhost:5173")

	// Payment providers are optional per deployment; the matching adapter is
	// only registered when its credentials are present.
	STRIPE_SECRET_KEY = getEnv("STRIPE_SECRET_KEY", "")
	STRIPE_WEBHOOK_SECRET = getEnv("STRIPE_WEBHOOK_SECRET", "")

	BTCPAY_URL = getEnv("BTCPAY_URL", "")
	BTCPAY_API_KEY = getEnv("BTCPAY_API_KEY", "")
	BTCPAY_STORE_ID = getEnv("BTCPAY_STORE_ID", "")
	BTCPAY_WEBHOOK_SECRET = getEnv("BTCPAY_WEBHOOK_SECRET", "")

	NOWPAYMENTS_API_KEY = getEnv("NOWPAYMENTS_API_KEY", "")
	NOWPAYMENTS_IPN_SECRET = getEnv("NOWPAYMENTS_IPN_SECRET", "")

	GOOGLE_CLIENT_ID = getEnv("GOOGLE_CLIENT_ID", "")
	GOOGLE_CLIENT_SECRET = getEnv("GOOGLE_CLIENT_SECRET", "")
	GOOGLE_REDIRECT_URL = getEnv("GOOGLE_REDIRECT_URL", "")
	GOOGLE_FRONTEND_REDIRECT = getEnv("GOOGLE_FRONTEND_REDIRECT", "")
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
