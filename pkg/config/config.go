package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	Environment     string
	FirebaseProject string

	// Dispatch engine tuning.
	OfferTTL         time.Duration
	OfferFanout      int
	OfferSweepPeriod time.Duration

	// Delivery fee rates (spec defaults: 3.00 base, 0.80 per km).
	DeliveryBaseRate  float64
	DeliveryPerKmRate float64

	// Booking proposals must be at least this far in the future.
	ProposalGracePeriod time.Duration

	// Client fallback poll interval, exposed to clients via /health meta.
	PollInterval time.Duration
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),

		OfferTTL:         getEnvAsDuration("OFFER_TTL", 5*time.Minute),
		OfferFanout:      getEnvAsInt("OFFER_FANOUT", 3),
		OfferSweepPeriod: getEnvAsDuration("OFFER_SWEEP_PERIOD", 30*time.Second),

		DeliveryBaseRate:  getEnvAsFloat("DELIVERY_BASE_RATE", 3.00),
		DeliveryPerKmRate: getEnvAsFloat("DELIVERY_PER_KM_RATE", 0.80),

		ProposalGracePeriod: getEnvAsDuration("PROPOSAL_GRACE_PERIOD", 5*time.Minute),

		PollInterval: getEnvAsDuration("POLL_INTERVAL", 30*time.Second),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
