package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Auth: comma-separated static bearer tokens and/or an HMAC secret
	// for JWTs. Either mechanism admits a request.
	StaticTokens  string `mapstructure:"STATIC_TOKENS"`
	JWTHMACSecret string `mapstructure:"JWT_HMAC_SECRET"`

	// Engine budget per operation, in milliseconds. Callers are paused on
	// a live phone call; operations fail rather than hang.
	OpTimeoutMS int `mapstructure:"OP_TIMEOUT_MS"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Seeded horizon: business hours and how many days of blocks exist.
	OpenHour    int `mapstructure:"OPEN_HOUR"`
	CloseHour   int `mapstructure:"CLOSE_HOUR"`
	HorizonDays int `mapstructure:"HORIZON_DAYS"`

	// Google Calendar busy-sync (optional).
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`
}

// Load reads .env (if present), then a config.yaml, then the environment.
func Load() Config {
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	// Every key needs a default: viper only unmarshals keys it already
	// knows about, so env-only values would otherwise be dropped.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("STATIC_TOKENS", "")
	viper.SetDefault("JWT_HMAC_SECRET", "")
	viper.SetDefault("OP_TIMEOUT_MS", 5000)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 120)
	viper.SetDefault("OPEN_HOUR", 9)
	viper.SetDefault("CLOSE_HOUR", 17)
	viper.SetDefault("HORIZON_DAYS", 14)
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("no config file found, using environment variables only")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c Config) OpTimeout() time.Duration {
	return time.Duration(c.OpTimeoutMS) * time.Millisecond
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}
