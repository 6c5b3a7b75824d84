package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	IsProduction      bool
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Mobile money gateway
	MomoBaseURL           string `mapstructure:"MOMO_BASE_URL"`
	MomoPrimaryKey        string `mapstructure:"MOMO_PRIMARY_KEY"`
	MomoTargetEnvironment string `mapstructure:"MOMO_TARGET_ENVIRONMENT"`
	MomoCallbackURL       string `mapstructure:"MOMO_CALLBACK_URL"`
	MomoUserID            string `mapstructure:"MOMO_USER_ID"`
	MomoAPIKey            string `mapstructure:"MOMO_API_KEY"`
	MomoRequestTimeout    time.Duration

	// Settlement reconciliation
	SettlementPollInterval time.Duration
	SettlementStaleAfter   time.Duration
	SettlementPollLimit    int

	// Monitoring
	PosthogAPIKey   string `mapstructure:"POSTHOG_API_KEY"`
	PosthogEndpoint string `mapstructure:"POSTHOG_ENDPOINT"`

	// Rate limiting, e.g. "100-M" for 100 requests per minute
	RateLimit string `mapstructure:"RATE_LIMIT"`
}

// durationOrDefault parses a duration string, falling back to def when unset
// or invalid.
func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		return def
	}
	return d
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "pesavault")
	viper.SetDefault("MOMO_BASE_URL", "https://sandbox.momodeveloper.mtn.com")
	viper.SetDefault("MOMO_TARGET_ENVIRONMENT", "sandbox")
	viper.SetDefault("MOMO_REQUEST_TIMEOUT", "10s")
	viper.SetDefault("SETTLEMENT_POLL_INTERVAL", "30s")
	viper.SetDefault("SETTLEMENT_STALE_AFTER", "2m")
	viper.SetDefault("SETTLEMENT_POLL_LIMIT", 50)
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTExpiryDuration = durationOrDefault("JWT_EXPIRY_DURATION", time.Hour)
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.MomoBaseURL = viper.GetString("MOMO_BASE_URL")
	cfg.MomoPrimaryKey = viper.GetString("MOMO_PRIMARY_KEY")
	cfg.MomoTargetEnvironment = viper.GetString("MOMO_TARGET_ENVIRONMENT")
	cfg.MomoCallbackURL = viper.GetString("MOMO_CALLBACK_URL")
	cfg.MomoUserID = viper.GetString("MOMO_USER_ID")
	cfg.MomoAPIKey = viper.GetString("MOMO_API_KEY")
	cfg.MomoRequestTimeout = durationOrDefault("MOMO_REQUEST_TIMEOUT", 10*time.Second)
	if cfg.MomoPrimaryKey == "" || cfg.MomoUserID == "" || cfg.MomoAPIKey == "" {
		log.Println("Warning: MOMO_PRIMARY_KEY, MOMO_USER_ID or MOMO_API_KEY not set. Gateway calls will fail.")
	}

	cfg.SettlementPollInterval = durationOrDefault("SETTLEMENT_POLL_INTERVAL", 30*time.Second)
	cfg.SettlementStaleAfter = durationOrDefault("SETTLEMENT_STALE_AFTER", 2*time.Minute)
	cfg.SettlementPollLimit = viper.GetInt("SETTLEMENT_POLL_LIMIT")

	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PosthogEndpoint = viper.GetString("POSTHOG_ENDPOINT")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}
