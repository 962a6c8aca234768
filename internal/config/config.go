package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the content server.
type Config struct {
	DBPath        string
	ServerPort    int
	LogLevel      string
	SentryDSN     string
	Environment   string
	AdminKey      string
	AuthSecret    string
	TokenExpiry   time.Duration
	AssistAPIKey  string
	AssistBaseURL string
	AssistModel   string
	RatePerSecond float64
	RateBurst     int
	RateClientTTL time.Duration
	ShutdownGrace time.Duration
}

const (
	defaultDBPath        = "./data/moroccodreams.db"
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultAssistModel   = "gpt-4o-mini"
	defaultTokenExpiry   = 12 * time.Hour
	defaultRatePerSecond = 10.0
	defaultRateBurst     = 20
	defaultRateTTL       = 5 * time.Minute
	defaultShutdownGrace = 10 * time.Second
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Environment:   os.Getenv("ENV"),
		AdminKey:      os.Getenv("ADMIN_KEY"),
		AuthSecret:    os.Getenv("AUTH_SECRET"),
		AssistAPIKey:  os.Getenv("ASSIST_API_KEY"),
		AssistBaseURL: os.Getenv("ASSIST_BASE_URL"),
		AssistModel:   getEnv("ASSIST_MODEL", defaultAssistModel),
		TokenExpiry:   defaultTokenExpiry,
		RatePerSecond: defaultRatePerSecond,
		RateBurst:     defaultRateBurst,
		RateClientTTL: defaultRateTTL,
		ShutdownGrace: defaultShutdownGrace,
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	if expiryValue := os.Getenv("TOKEN_EXPIRY"); expiryValue != "" {
		expiry, err := time.ParseDuration(expiryValue)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid TOKEN_EXPIRY value: %s", expiryValue)
		}
		cfg.TokenExpiry = expiry
	}

	if cfg.AdminKey == "" {
		return nil, eris.New("ADMIN_KEY must be set")
	}
	if cfg.AuthSecret == "" {
		return nil, eris.New("AUTH_SECRET must be set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
