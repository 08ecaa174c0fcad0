package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                         string
	StoreDriver                  string
	MongoURI                     string
	MongoDatabase                string
	Timeout                      time.Duration
	SurveyCollection             string
	ResponseCollection           string
	FailedNotificationCollection string
	SQLitePath                   string
	RejectAmbiguousIdentifiers   bool
	Timezone                     string
	LogLevel                     string
	JWT                          JWTConfig
	JWTAudience                  string
	AllowedOrigins               []string
	MessengerEndpoint            string
	DiscordDestination           string
	SlackDestination             string
	MessengerTimeout             time.Duration
	DashboardBaseURL             string
}

// Load reads environment variables (and a .env file when present) and returns
// a fully populated Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	timeout, err := durationOrDefault("MONGO_CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	messengerTimeout, err := durationOrDefault("MESSENGER_GATEWAY_TIMEOUT", 3*time.Second)
	if err != nil {
		return Config{}, err
	}
	rejectAmbiguous, err := boolOrDefault("RESOLVER_REJECT_AMBIGUOUS", false)
	if err != nil {
		return Config{}, err
	}

	driver := strings.ToLower(envOrDefault("STORE_DRIVER", DriverMongo))
	switch driver {
	case DriverMongo, DriverSQLite, DriverMemory:
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER must be mongo, sqlite or memory, got %q", driver)
	}

	secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET"))

	return Config{
		Addr:                         envOrDefault("HTTP_ADDR", ":8080"),
		StoreDriver:                  driver,
		MongoURI:                     envOrDefault("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:                envOrDefault("MONGO_DB", "chat-survey"),
		Timeout:                      timeout,
		SurveyCollection:             envOrDefault("SURVEY_COLLECTION", "surveys"),
		ResponseCollection:           envOrDefault("RESPONSE_COLLECTION", "responses"),
		FailedNotificationCollection: envOrDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications"),
		SQLitePath:                   envOrDefault("SQLITE_PATH", "chat-survey.db"),
		RejectAmbiguousIdentifiers:   rejectAmbiguous,
		Timezone:                     envOrDefault("TIMEZONE", "Asia/Tokyo"),
		LogLevel:                     envOrDefault("LOG_LEVEL", "info"),
		JWT: JWTConfig{
			Issuer: envOrDefault("AUTH_JWT_ISSUER", "chat-survey-auth"),
			Secret: []byte(secret),
		},
		JWTAudience:        strings.TrimSpace(os.Getenv("AUTH_JWT_AUDIENCE")),
		AllowedOrigins:     parseList("API_ALLOWED_ORIGINS", []string{"*"}),
		MessengerEndpoint:  envOrDefault("MESSENGER_GATEWAY_URL", "http://messenger-gateway:3000"),
		DiscordDestination: strings.TrimSpace(os.Getenv("MESSENGER_DISCORD_DESTINATION")),
		SlackDestination:   strings.TrimSpace(os.Getenv("MESSENGER_SLACK_DESTINATION")),
		MessengerTimeout:   messengerTimeout,
		DashboardBaseURL:   strings.TrimSpace(os.Getenv("CREATOR_DASHBOARD_BASE_URL")),
	}, nil
}

// RequireAuth reports an error when the creator API cannot verify tokens.
// The CLI skips it since it never serves creator routes.
func (c Config) RequireAuth() error {
	if len(c.JWT.Secret) == 0 {
		return errors.New("AUTH_JWT_SECRET must be configured")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func boolOrDefault(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
