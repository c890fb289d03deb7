package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env                   string
	LogLevel              string
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	SaleQueueKey          string
	AuthSecret            string
	AccessTokenTTLMinutes int
	Timezone              string
	StockPolicy           string
	AdminUsername         string
	AdminPassword         string
}

// Load reads configuration from the environment, falling back to an optional
// .env file in the working directory. Environment variables win.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	tokenTTL, err := getInt(v, "ACCESS_TOKEN_TTL_MINUTES", 480)
	if err != nil {
		return Config{}, err
	}
	if tokenTTL < 1 {
		tokenTTL = 480
	}
	redisDB, err := getInt(v, "REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	if redisDB < 0 {
		return Config{}, fmt.Errorf("REDIS_DB must not be negative, got %d", redisDB)
	}

	cfg := Config{
		Env:                   getString(v, "APP_ENV", "development"),
		LogLevel:              getString(v, "LOG_LEVEL", "info"),
		Port:                  getString(v, "PORT", "8080"),
		AllowedOrigin:         getString(v, "ALLOWED_ORIGIN", "http://127.0.0.1:5173"),
		DatabaseURL:           getString(v, "DATABASE_URL", ""),
		RedisAddr:             getString(v, "REDIS_ADDR", ""),
		RedisPassword:         getString(v, "REDIS_PASSWORD", ""),
		RedisDB:               redisDB,
		SaleQueueKey:          getString(v, "SALE_QUEUE_KEY", "sales:created"),
		AuthSecret:            strings.TrimSpace(getString(v, "AUTH_SECRET", "")),
		AccessTokenTTLMinutes: tokenTTL,
		Timezone:              getString(v, "TIMEZONE", "Local"),
		StockPolicy:           strings.ToLower(getString(v, "STOCK_POLICY", "allow")),
		AdminUsername:         strings.ToLower(getString(v, "ADMIN_USERNAME", "admin")),
		AdminPassword:         getString(v, "ADMIN_PASSWORD", ""),
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if cfg.StockPolicy != "allow" && cfg.StockPolicy != "reject" {
		return Config{}, fmt.Errorf("STOCK_POLICY must be allow or reject, got %q", cfg.StockPolicy)
	}

	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location returns the zone used for calendar math. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getString(v *viper.Viper, key, fallback string) string {
	if val := strings.TrimSpace(v.GetString(key)); val != "" {
		return val
	}
	return fallback
}

func getInt(v *viper.Viper, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}
