package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv               string
	Port                 string
	DatabaseURL          string
	JWTSecret            string
	JWTIssuer            string
	JWTTTL               time.Duration
	StorageDriver        string
	StoragePath          string
	StorageBaseURL       string
	S3Bucket             string
	S3PublicBaseURL      string
	AWSRegion            string
	SESSender            string
	SNSPlatformARN       string
	GeoIPDBPath          string
	GoogleClientID       string
	GoogleIssuer         string
	FacebookAppID        string
	FacebookAppSecret    string
	FacebookGraphURL     string
	ScanProvider         string
	LogMealToken         string
	LogMealBaseURL       string
	CalorieNinjasKey     string
	CalorieNinjasBaseURL string
	DemoMode             bool
	DemoScanDelay        time.Duration
	PasswordResetURL     string
	PasswordResetTTL     time.Duration
	CORSAllowedOrigins   []string
	TrustedProxies       []string
	DefaultLocale        string
	ReminderPollInterval time.Duration
	HTTPReadTimeout      time.Duration
	HTTPWriteTimeout     time.Duration
	HTTPIdleTimeout      time.Duration
	RateLimitPerMin      int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Port:                 port,
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTIssuer:            getEnv("JWT_ISSUER", "wellness-api"),
		JWTTTL:               getEnvDuration("JWT_TTL", 24*time.Hour),
		StorageDriver:        strings.ToLower(getEnv("STORAGE_DRIVER", "file")),
		StoragePath:          getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:       getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		S3Bucket:             os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:      os.Getenv("S3_PUBLIC_BASE_URL"),
		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		SESSender:            os.Getenv("SES_SENDER"),
		SNSPlatformARN:       os.Getenv("SNS_PLATFORM_ARN"),
		GeoIPDBPath:          os.Getenv("GEOIP_DB_PATH"),
		GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleIssuer:         getEnv("GOOGLE_ISSUER", "https://accounts.google.com"),
		FacebookAppID:        os.Getenv("FACEBOOK_APP_ID"),
		FacebookAppSecret:    os.Getenv("FACEBOOK_APP_SECRET"),
		FacebookGraphURL:     getEnv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com"),
		ScanProvider:         strings.ToLower(getEnv("SCAN_PROVIDER", "logmeal")),
		LogMealToken:         os.Getenv("LOGMEAL_TOKEN"),
		LogMealBaseURL:       getEnv("LOGMEAL_BASE_URL", "https://api.logmeal.com"),
		CalorieNinjasKey:     os.Getenv("CALORIENINJAS_API_KEY"),
		CalorieNinjasBaseURL: getEnv("CALORIENINJAS_BASE_URL", "https://api.calorieninjas.com"),
		DemoMode:             getEnvBool("DEMO_MODE", false),
		DemoScanDelay:        getEnvDuration("DEMO_SCAN_DELAY", 8*time.Second),
		PasswordResetURL:     getEnv("PASSWORD_RESET_URL", "http://localhost:"+port+"/reset-password"),
		PasswordResetTTL:     getEnvDuration("PASSWORD_RESET_TTL", time.Hour),
		CORSAllowedOrigins:   splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		TrustedProxies:       splitList(os.Getenv("TRUSTED_PROXIES")),
		DefaultLocale:        getEnv("DEFAULT_LOCALE", "en"),
		ReminderPollInterval: getEnvDuration("REMINDER_POLL_INTERVAL", 30*time.Second),
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.StorageDriver {
	case "file":
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	switch cfg.ScanProvider {
	case "logmeal", "rekognition":
	default:
		return nil, fmt.Errorf("unsupported SCAN_PROVIDER %q", cfg.ScanProvider)
	}

	if _, err := url.Parse(cfg.StorageBaseURL); err != nil {
		return nil, fmt.Errorf("invalid STORAGE_BASE_URL: %w", err)
	}

	return cfg, nil
}

// UsesAWS reports whether any configured component talks to AWS.
func (c *Config) UsesAWS() bool {
	return c.StorageDriver == "s3" || c.SESSender != "" || c.SNSPlatformARN != "" || c.ScanProvider == "rekognition"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
