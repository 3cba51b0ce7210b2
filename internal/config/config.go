package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	MongoURI string
	MongoDB  string

	JWTSecret   string
	JWTTTLHours int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SendGridAPIKey string
	MailFrom       string
	MailFromName   string

	OTLPEndpoint string

	AllowedOrigins []string

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

func Load() Config {
	// A missing .env file is fine; deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		MongoURI: getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:  getEnv("MONGO_DB", "taskhub"),

		JWTSecret:   getEnv("JWT_SECRET", "dev-only-secret"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 168),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		MailFrom:       getEnv("MAIL_FROM", "no-reply@taskhub.local"),
		MailFromName:   getEnv("MAIL_FROM_NAME", "TaskHub"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: time.Duration(getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)

	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)

		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
