package config

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Host            string
	Port            string
	Username        string
	Password        string
	Database        string
	Schema          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN builds the pgx connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.Schema,
	)
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

type OrdersConfig struct {
	// GuardStock rejects an order when a decrement would take stock below zero.
	GuardStock bool
	// VerifyTotal recomputes the order total from its lines and rejects mismatches.
	VerifyTotal bool
}

type CacheConfig struct {
	RedisAddr  string
	HistoryTTL time.Duration
}

type Config struct {
	Env                 string
	Server              ServerConfig
	Database            DatabaseConfig
	Orders              OrdersConfig
	Cache               CacheConfig
	PoolMonitorInterval time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "5000")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	v.SetDefault("BLUEPRINT_DB_HOST", "localhost")
	v.SetDefault("BLUEPRINT_DB_PORT", "5432")
	v.SetDefault("BLUEPRINT_DB_SCHEMA", "public")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("ORDERS_GUARD_STOCK", false)
	v.SetDefault("ORDERS_VERIFY_TOTAL", false)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("HISTORY_CACHE_TTL", "5m")
	v.SetDefault("POOL_MONITOR_INTERVAL", "1m")
}

// Load reads the configuration from the environment (.env included).
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
			RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("BLUEPRINT_DB_HOST"),
			Port:            v.GetString("BLUEPRINT_DB_PORT"),
			Username:        v.GetString("BLUEPRINT_DB_USERNAME"),
			Password:        v.GetString("BLUEPRINT_DB_PASSWORD"),
			Database:        v.GetString("BLUEPRINT_DB_DATABASE"),
			Schema:          v.GetString("BLUEPRINT_DB_SCHEMA"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Orders: OrdersConfig{
			GuardStock:  v.GetBool("ORDERS_GUARD_STOCK"),
			VerifyTotal: v.GetBool("ORDERS_VERIFY_TOTAL"),
		},
		Cache: CacheConfig{
			RedisAddr:  v.GetString("REDIS_ADDR"),
			HistoryTTL: v.GetDuration("HISTORY_CACHE_TTL"),
		},
		PoolMonitorInterval: v.GetDuration("POOL_MONITOR_INTERVAL"),
	}

	if cfg.Database.Username == "" || cfg.Database.Database == "" {
		return nil, fmt.Errorf("database config incomplete: BLUEPRINT_DB_USERNAME and BLUEPRINT_DB_DATABASE are required")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
