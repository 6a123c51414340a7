// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	Environment string

	DatabaseURL string
	SQLitePath  string

	JWTSecret           string
	JWTExpiresIn        time.Duration
	JWTRefreshSecret    string
	JWTRefreshExpiresIn time.Duration

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	AITimeout     time.Duration

	ReplicateAPIToken string
	VideoTimeout      time.Duration

	GoogleClientID       string
	GoogleClientSecret   string
	AppleClientID        string
	AppleTeamID          string
	AppleKeyID           string
	ApplePrivateKeyPath  string
	OAuthCallbackBaseURL string
	FrontendURL          string
	AllowedOrigins       []string

	RedisAddr     string
	RedisPassword string

	StorageDriver        string
	StorageBucket        string
	StorageEndpoint      string
	StorageRegion        string
	StorageAccessKey     string
	StorageSecretKey     string
	StorageUseSSL        bool
	StoragePublicBaseURL string

	FeatureImageGeneration bool
	FeatureVideoGeneration bool

	AdminEmails []string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables or .env files.
func Load() *Config {
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		env = strings.ToLower(os.Getenv("GO_ENV"))
	}
	if env != "production" {
		if env != "" {
			// .env.{ENV} wins over .env because godotenv never overrides set vars
			_ = godotenv.Load(".env." + env)
		}
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: env,

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "dreamer.db"),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTExpiresIn:        getEnvAsDuration("JWT_EXPIRES_IN", 24*time.Hour),
		JWTRefreshSecret:    getEnv("JWT_REFRESH_SECRET", ""),
		JWTRefreshExpiresIn: getEnvAsDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		AITimeout:     getEnvAsDuration("AI_TIMEOUT", 60*time.Second),

		ReplicateAPIToken: getEnv("REPLICATE_API_TOKEN", ""),
		VideoTimeout:      getEnvAsDuration("VIDEO_TIMEOUT", 5*time.Minute),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		AppleClientID:        getEnv("APPLE_CLIENT_ID", ""),
		AppleTeamID:          getEnv("APPLE_TEAM_ID", ""),
		AppleKeyID:           getEnv("APPLE_KEY_ID", ""),
		ApplePrivateKeyPath:  getEnv("APPLE_PRIVATE_KEY_PATH", ""),
		OAuthCallbackBaseURL: getEnv("OAUTH_CALLBACK_BASE_URL", "http://localhost:8080"),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins:       getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		StorageDriver:        strings.ToLower(getEnv("STORAGE_DRIVER", "")),
		StorageBucket:        getEnv("STORAGE_BUCKET", "dream-images"),
		StorageEndpoint:      getEnv("STORAGE_ENDPOINT", ""),
		StorageRegion:        getEnv("STORAGE_REGION", "us-east-1"),
		StorageAccessKey:     getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey:     getEnv("STORAGE_SECRET_KEY", ""),
		StorageUseSSL:        getEnvAsBool("STORAGE_USE_SSL", true),
		StoragePublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),

		FeatureImageGeneration: getEnvAsBool("FEATURE_IMAGE_GENERATION", true),
		FeatureVideoGeneration: getEnvAsBool("FEATURE_VIDEO_GENERATION", true),

		AdminEmails: getEnvAsList("ADMIN_EMAILS", nil),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),
	}

	if cfg.FrontendURL != "" && len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{cfg.FrontendURL}
	}

	// Validation for production environments
	if env == "production" {
		if missing := cfg.missingProductionVars(); len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	} else {
		if cfg.JWTSecret == "" {
			log.Println("Warning: JWT_SECRET not set, using an insecure development secret")
			cfg.JWTSecret = "dev-access-secret"
		}
		if cfg.JWTRefreshSecret == "" {
			cfg.JWTRefreshSecret = cfg.JWTSecret + "-refresh"
		}
	}

	return cfg
}

func (c *Config) missingProductionVars() []string {
	missing := []string{}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.JWTRefreshSecret == "" {
		missing = append(missing, "JWT_REFRESH_SECRET")
	}
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.StorageDriver != "" && c.StorageBucket == "" {
		missing = append(missing, "STORAGE_BUCKET")
	}
	return missing
}

// IsProduction reports whether ENV/GO_ENV selected production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as float. Using default value.", key)
		return defaultValue
	}
	return v
}

func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as bool. Using default value.", key)
		return defaultValue
	}
	return v
}

// getEnvAsDuration accepts Go durations plus a "d" day suffix ("7d").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	d, err := ParseDuration(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as duration. Using default value.", key)
		return defaultValue
	}
	return d
}

func getEnvAsList(key string, defaultValue []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseDuration extends time.ParseDuration with whole-day values such as "7d".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q: %w", s, err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
