package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	DatabaseDriver     string        `mapstructure:"DATABASE_DRIVER"`
	DatabasePath       string        `mapstructure:"DATABASE_PATH"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	GoogleClientID     string        `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string        `mapstructure:"GOOGLE_REDIRECT_URL"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	FrontendURL        string        `mapstructure:"FRONTEND_URL"`
	AdminEmails        []string      `mapstructure:"ADMIN_EMAILS"`
	CookieSecure       bool          `mapstructure:"COOKIE_SECURE"`
	EnableCORS         bool          `mapstructure:"ENABLE_CORS"`
	CORSOrigin         string        `mapstructure:"CORS_ORIGIN"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
	ViewCachePrefix    string        `mapstructure:"VIEW_CACHE_PREFIX"`
	ViewCacheTTL       time.Duration `mapstructure:"VIEW_CACHE_TTL"`
	AMQPURL            string        `mapstructure:"AMQP_URL"`
	AMQPExchange       string        `mapstructure:"AMQP_EXCHANGE"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogDevelopment     bool          `mapstructure:"LOG_DEVELOPMENT"`
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return false
	}
	for _, e := range c.AdminEmails {
		if strings.TrimSpace(strings.ToLower(e)) == email {
			return true
		}
	}
	return false
}

// LoadConfig reads a local .env file if present, then the process environment.
func LoadConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_PATH", "events.db")
	v.SetDefault("GOOGLE_REDIRECT_URL", "http://127.0.0.1:8080/auth/google/callback")
	v.SetDefault("FRONTEND_URL", "http://127.0.0.1:3000/events")
	v.SetDefault("ADMIN_EMAILS", []string{})
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("VIEW_CACHE_PREFIX", "views")
	v.SetDefault("VIEW_CACHE_TTL", "5m")
	v.SetDefault("AMQP_EXCHANGE", "views.revalidate")
	v.SetDefault("LOG_LEVEL", "info")

	for _, key := range []string{
		"DATABASE_URL",
		"GOOGLE_CLIENT_ID",
		"GOOGLE_CLIENT_SECRET",
		"JWT_SECRET",
		"COOKIE_SECURE",
		"ENABLE_CORS",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"AMQP_URL",
		"LOG_DEVELOPMENT",
	} {
		v.BindEnv(key)
	}

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}
