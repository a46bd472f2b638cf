package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     int
	LogLevel string
	Env      string

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis config (rate limiting + idempotent sends)
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Twilio platform credentials (admin-tier default account)
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	TwilioBaseURL    string // override for tests; empty means api.twilio.com

	// TextGrid credentials
	TextGridAPIKey     string
	TextGridFromNumber string
	TextGridBaseURL    string

	// AWS SNS (optional third carrier)
	SNSRegion string

	// PublicBaseURL is the externally reachable root of this service,
	// used when pointing carrier webhooks back at us.
	PublicBaseURL string

	// SettingsTTL is the provider-settings cache validity window.
	SettingsTTL time.Duration

	// EncryptionKey protects stored credential secrets (32 bytes, hex).
	EncryptionKey string
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:     8080,
		LogLevel: "info",
		Env:      "development",

		// Local postgres defaults
		DBHost:     "localhost",
		DBPort:     5432,
		DBUser:     "messaging",
		DBPassword: "",
		DBName:     "messaging",
		DBSSLMode:  "disable",

		// Redis defaults
		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,

		PublicBaseURL: "http://localhost:8080",
		SettingsTTL:   60 * time.Second,
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Port = p
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if env := os.Getenv("ENV"); env != "" {
		cfg.Env = env
	}

	// Database config
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DBHost = host
	}

	if port := os.Getenv("DB_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT: %w", err)
		}
		cfg.DBPort = p
	}

	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DBUser = user
	}

	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DBPassword = password
	}

	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		cfg.DBName = dbname
	}

	if sslmode := os.Getenv("DB_SSLMODE"); sslmode != "" {
		cfg.DBSSLMode = sslmode
	}

	// Redis config
	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.RedisHost = host
	}

	if port := os.Getenv("REDIS_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
		}
		cfg.RedisPort = p
	}

	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.RedisPassword = password
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		d, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.RedisDB = d
	}

	// Twilio config
	if sid := os.Getenv("TWILIO_ACCOUNT_SID"); sid != "" {
		cfg.TwilioAccountSID = sid
	}

	if token := os.Getenv("TWILIO_AUTH_TOKEN"); token != "" {
		cfg.TwilioAuthToken = token
	}

	if from := os.Getenv("TWILIO_FROM_NUMBER"); from != "" {
		cfg.TwilioFromNumber = from
	}

	if base := os.Getenv("TWILIO_BASE_URL"); base != "" {
		cfg.TwilioBaseURL = base
	}

	// TextGrid config
	if key := os.Getenv("TEXTGRID_API_KEY"); key != "" {
		cfg.TextGridAPIKey = key
	}

	if from := os.Getenv("TEXTGRID_FROM_NUMBER"); from != "" {
		cfg.TextGridFromNumber = from
	}

	if base := os.Getenv("TEXTGRID_BASE_URL"); base != "" {
		cfg.TextGridBaseURL = base
	}

	// SNS config for the optional third carrier
	if region := os.Getenv("SNS_REGION"); region != "" {
		cfg.SNSRegion = region
	} else if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.SNSRegion = region
	}

	if base := os.Getenv("PUBLIC_BASE_URL"); base != "" {
		cfg.PublicBaseURL = base
	}

	if ttl := os.Getenv("SETTINGS_TTL_SECONDS"); ttl != "" {
		sec, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid SETTINGS_TTL_SECONDS: %w", err)
		}
		cfg.SettingsTTL = time.Duration(sec) * time.Second
	}

	if key := os.Getenv("CREDENTIAL_ENCRYPTION_KEY"); key != "" {
		cfg.EncryptionKey = key
	}

	return cfg, nil
}
