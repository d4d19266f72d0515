package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the storefront settings read from the environment.
type Config struct {
	AppEnv   string
	LogLevel string

	Port       string
	APIBaseURL string
	APITimeout time.Duration
	PageSize   int

	// ClientIdleTTL is how long an unseen browser keeps its in-memory cart.
	ClientIdleTTL time.Duration

	MongoURI      string
	MongoDatabase string

	Secret       string
	CookieSecure bool

	SendGridAPIKey string
	EmailSender    string
}

// Load reads .env when present, then the process environment.
func Load() Config {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	return Config{
		AppEnv:         getEnv("APP_ENV", "prod"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Port:           getEnv("PORT", "8000"),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080/api"),
		APITimeout:     getEnvDuration("API_TIMEOUT", 10*time.Second),
		PageSize:       getEnvInt("PAGE_SIZE", 9),
		ClientIdleTTL:  getEnvDuration("CLIENT_IDLE_TTL", 2*time.Hour),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "coffeelink"),
		Secret:         os.Getenv("STOREFRONT_SECRET"),
		CookieSecure:   getEnvBool("COOKIE_SECURE", false),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		EmailSender:    os.Getenv("EMAIL_SENDER"),
	}
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// IsDev reports whether the storefront runs in development mode.
func (c Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
