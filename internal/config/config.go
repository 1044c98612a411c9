package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	NATSURL     string

	JWTSecret            string
	JWTAccessExpiry      time.Duration
	JWTRefreshExpiry     time.Duration
	PasswordSetupExpiry  time.Duration
	OAuthStateExpiry     time.Duration
	BaseURL              string
	AdministratorMailbox string

	Users UserDefaults

	Twitter OAuthConfig
	GitHub  OAuthConfig
	GitLab  OAuthConfig
	Google  OAuthConfig

	SMTP SMTPConfig
	S3   S3Config
	Log  LogConfig
}

// UserDefaults are applied to administrator-created accounts when the
// caller leaves role, locale or timezone empty.
type UserDefaults struct {
	Role     string
	Locale   string
	Timezone string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UsePathStyle  bool
	PresignExpiry time.Duration
}

type LogConfig struct {
	Level string
	Dev   bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		NATSURL:     getEnv("NATS_URL", ""),

		JWTSecret:            getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry:      getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry:     getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
		PasswordSetupExpiry:  getDuration("PASSWORD_SETUP_EXPIRY", 72*time.Hour),
		OAuthStateExpiry:     getDuration("OAUTH_STATE_EXPIRY", 10*time.Minute),
		BaseURL:              strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		AdministratorMailbox: getEnv("ADMINISTRATOR_MAILBOX", ""),

		Users: UserDefaults{
			Role:     getEnv("DEFAULT_ROLE", "customer"),
			Locale:   getEnv("DEFAULT_LOCALE", "en"),
			Timezone: getEnv("DEFAULT_TIMEZONE", "UTC"),
		},

		Twitter: loadOAuth("TWITTER"),
		GitHub:  loadOAuth("GITHUB"),
		GitLab:  loadOAuth("GITLAB"),
		Google:  loadOAuth("GOOGLE"),

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},

		S3: S3Config{
			Endpoint:      getEnv("S3_ENDPOINT", ""),
			Region:        getEnv("AWS_REGION", "us-east-1"),
			Bucket:        getEnv("S3_BUCKET_NAME", ""),
			AccessKey:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
			UsePathStyle:  getEnv("S3_USE_PATH_STYLE", "") == "true",
			PresignExpiry: getDuration("S3_PRESIGN_EXPIRY", 15*time.Minute),
		},

		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", ""),
			Dev:   getEnv("LOG_DEV", "") == "1" || env == "development",
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c S3Config) IsConfigured() bool {
	return c.Bucket != ""
}

func loadOAuth(prefix string) OAuthConfig {
	return OAuthConfig{
		ClientID:     getEnv(prefix+"_CLIENT_ID", ""),
		ClientSecret: getEnv(prefix+"_CLIENT_SECRET", ""),
		RedirectURL:  getEnv(prefix+"_REDIRECT_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
