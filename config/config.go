package config

import (
	"crypto/rand"
	"encoding/base64"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DatabaseURL   string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	AppPort       string
	AppURL        string
	SessionSecret string
	CSRFSecret    string
	Environment   string
	LogLevel      string

	StoreDriver string
	DataFile    string
	OTPStore    string
	RedisURL    string

	EmailProvider string
	EmailFrom     string
	ResendAPIKey  string
	RelayURL      string
	RelaySecret   string

	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPEncryption string

	AdminEmail    string
	AdminPassword string

	CampaignSendInterval time.Duration
	CouponOTPTTL         time.Duration
}

type RelayConfig struct {
	Port           string
	SMTPHost       string
	SMTPPort       int
	SMTPSecure     bool
	SMTPUser       string
	SMTPPass       string
	Secret         string
	AllowedOrigins []string
	Environment    string
	LogLevel       string
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if _, exists := os.Stat(".env"); exists == nil {
			log.Warn().Err(err).Msg(".env file exists but couldn't be loaded")
		}
	}
}

func Load() *Config {
	loadDotEnv()

	environment := getEnv("ENVIRONMENT", "development")
	sessionSecret := getEnv("SESSION_SECRET", "")
	csrfSecret := getEnv("CSRF_SECRET", "")

	if sessionSecret == "" {
		sessionSecret = generateRandomSecret("SESSION_SECRET")
	}
	if csrfSecret == "" {
		csrfSecret = generateRandomSecret("CSRF_SECRET")
	}

	appPort := getEnv("APP_PORT", "8080")
	appURL := getEnv("APP_URL", "")

	if appURL == "" {
		if environment == "production" {
			log.Warn().Msg("APP_URL not set in production, CSRF origin validation may fail")
		} else {
			appURL = "http://localhost:" + appPort
		}
	}

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		AppPort:       appPort,
		AppURL:        appURL,
		SessionSecret: sessionSecret,
		CSRFSecret:    csrfSecret,
		Environment:   environment,
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		StoreDriver: getEnv("STORE_DRIVER", "memory"),
		DataFile:    getEnv("DATA_FILE", ""),
		OTPStore:    getEnv("OTP_STORE", "store"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),

		EmailProvider: getEnv("EMAIL_PROVIDER", "simulate"),
		EmailFrom:     getEnv("EMAIL_FROM", ""),
		ResendAPIKey:  getEnv("RESEND_API_KEY", ""),
		RelayURL:      getEnv("RELAY_URL", "http://localhost:3001"),
		RelaySecret:   getEnv("RELAY_SECRET", ""),

		SMTPHost:       getEnv("SMTP_HOST", "smtp.example.com"),
		SMTPPort:       getEnvInt("SMTP_PORT", 465),
		SMTPUsername:   getEnv("SMTP_USER", "alerts@example.com"),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SMTPEncryption: getEnv("SMTP_ENCRYPTION", "ssl"),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		CampaignSendInterval: getEnvDuration("CAMPAIGN_SEND_INTERVAL", 100*time.Millisecond),
		CouponOTPTTL:         getEnvDuration("COUPON_OTP_TTL", 24*time.Hour),
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("app_port", cfg.AppPort).
		Str("app_url", cfg.AppURL).
		Str("store", cfg.StoreDriver).
		Str("otp_store", cfg.OTPStore).
		Str("email_provider", cfg.EmailProvider).
		Msg("Configuration loaded")

	if cfg.DatabaseURL != "" {
		cfg.parseDBURL()
	} else {
		cfg.DBHost = getEnv("DB_HOST", "localhost")
		cfg.DBPort = getEnv("DB_PORT", "5432")
		cfg.DBUser = getEnv("DB_USER", "postgres")
		cfg.DBPassword = getEnv("DB_PASSWORD", "password")
		cfg.DBName = getEnv("DB_NAME", "subscriber_journey")
	}

	return cfg
}

// LoadRelay reads the mail relay settings. The relay runs on its own host, so it
// shares nothing with the app config besides the .env convention.
func LoadRelay() *RelayConfig {
	loadDotEnv()

	port := getEnvInt("SMTP_PORT", 465)
	cfg := &RelayConfig{
		Port:        getEnv("RELAY_PORT", getEnv("PORT", "3001")),
		SMTPHost:    getEnv("SMTP_HOST", "smtp.example.com"),
		SMTPPort:    port,
		SMTPSecure:  getEnvBool("SMTP_SECURE", port == 465),
		SMTPUser:    getEnv("SMTP_USER", ""),
		SMTPPass:    getEnv("SMTP_PASS", ""),
		Secret:      getEnv("RELAY_SECRET", ""),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	for _, origin := range strings.Split(getEnv("RELAY_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid integer, using default")
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid boolean, using default")
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func (c *Config) parseDBURL() {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("Error parsing DATABASE_URL")
		return
	}

	c.DBHost = u.Hostname()
	c.DBPort = u.Port()
	if c.DBPort == "" {
		c.DBPort = "5432"
	}

	c.DBUser = u.User.Username()
	if password, ok := u.User.Password(); ok {
		c.DBPassword = password
	}

	c.DBName = strings.TrimPrefix(u.Path, "/")
}

func generateRandomSecret(name string) string {
	log.Warn().Msgf("%s not set, generating random secret (will not persist across restarts)", name)

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatal().Err(err).Msgf("Failed to generate random secret for %s", name)
	}

	return base64.StdEncoding.EncodeToString(b)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
