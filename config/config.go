package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultCartItemExpiry is used when neither CART_ITEM_EXPIRY_SECONDS
// nor CART_ITEM_EXPIRY_HOURS is set.
const DefaultCartItemExpiry = 24 * time.Hour

func LoadEnv() error {
	// Try to load .env file if it exists (for local development).
	// On production, environment variables are set directly.
	if err := godotenv.Load(); err != nil {
		// .env file not found is not an error - environment variables
		// are already available in os.Getenv().
		return nil
	}
	return nil
}

// ValidateEnv checks that critical environment variables are set.
// Returns an error if any critical variable is missing.
func ValidateEnv() error {
	var missing []string

	// Critical variables - application cannot function without these
	if os.Getenv("JWT_SECRET") == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if os.Getenv("DATABASE_URL") == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	// Non-critical variables - log warnings but don't fail
	if os.Getenv("FRONTEND_URL") == "" {
		logrus.Warn("FRONTEND_URL not set - CORS may not work correctly")
	}
	if os.Getenv("ADMIN_URL") == "" {
		logrus.Warn("ADMIN_URL not set")
	}
	if os.Getenv("SHOP_TIMEZONE") == "" {
		logrus.Warn("SHOP_TIMEZONE not set - defaulting to Asia/Kolkata on first settings read")
	}

	return nil
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// IsProduction reports whether the app runs with production settings.
// Test-only request overrides (cart expiry shortening) are refused in
// production.
func IsProduction() bool {
	return os.Getenv("APP_ENV") == "production"
}

// CartItemExpiry resolves the cart item TTL. CART_ITEM_EXPIRY_SECONDS
// takes precedence over CART_ITEM_EXPIRY_HOURS; both unset (or
// unparsable) falls back to 24 hours.
func CartItemExpiry() time.Duration {
	if raw := os.Getenv("CART_ITEM_EXPIRY_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		logrus.Warnf("invalid CART_ITEM_EXPIRY_SECONDS value %q, ignoring", raw)
	}
	if raw := os.Getenv("CART_ITEM_EXPIRY_HOURS"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			return time.Duration(hours) * time.Hour
		}
		logrus.Warnf("invalid CART_ITEM_EXPIRY_HOURS value %q, ignoring", raw)
	}
	return DefaultCartItemExpiry
}
