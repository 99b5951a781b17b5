package configs

import (
	"os"

	"github.com/joho/godotenv"
)

func init() {
	// .env is optional; deployments usually pass environment variables directly.
	_ = godotenv.Load()
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func EnvMongoURI() string {
	return getenv("MONGOURI", "mongodb://localhost:27017")
}

func EnvDatabaseName() string {
	return getenv("DB_NAME", "shoeStore")
}

func EnvPort() string {
	return getenv("PORT", "3000")
}

func EnvJWTSecret() string {
	return os.Getenv("JWT_SECRET")
}

func EnvStripeSecretKey() string {
	return os.Getenv("STRIPE_SECRET_KEY")
}

func EnvStripeWebhookSecret() string {
	return os.Getenv("STRIPE_WEBHOOK_SECRET")
}

func EnvSMTPHost() string {
	return getenv("SMTP_HOST", "localhost")
}

func EnvSMTPPort() string {
	return getenv("SMTP_PORT", "587")
}

func EnvSMTPUser() string {
	return os.Getenv("SMTP_USER")
}

func EnvSMTPPassword() string {
	return os.Getenv("SMTP_PASSWORD")
}

func EnvSMTPFrom() string {
	return getenv("SMTP_FROM", "no-reply@shoestore.local")
}

func EnvVAPIDPublicKey() string {
	return os.Getenv("VAPID_PUBLIC_KEY")
}

func EnvVAPIDPrivateKey() string {
	return os.Getenv("VAPID_PRIVATE_KEY")
}

func EnvVAPIDSubject() string {
	return getenv("VAPID_SUBJECT", "mailto:support@shoestore.local")
}
