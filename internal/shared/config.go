package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv           string
	HTTPAddr         string
	MetricsAddr      string
	MySQLDSN         string // empty disables the run archive; parseTime=true is forced on open
	RedisAddr        string // empty keeps the result cache in process
	RedisDB          int
	RedisPass        string
	StoreBase        string
	StoreKey         string
	StoreRPS         int
	AppID            string
	DefaultCountries string
	TargetLang       string
	TranslateBase    string
	TranslateKey     string
	TranslateRPS     int
	Workers          int
	CacheTTL         time.Duration
	RequestTimeout   time.Duration
	ExportPrefix     string
}

// Load reads the environment (and an optional .env). It does not log: the
// logger is configured from the result, so callers report Warnings after.
func Load() Config {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:           env("APP_ENV", "prod"),
		HTTPAddr:         env("HTTP_ADDR", ":8080"),
		MetricsAddr:      env("METRICS_ADDR", ""),
		MySQLDSN:         env("MYSQL_DSN", ""),
		RedisAddr:        env("REDIS_ADDR", ""),
		RedisDB:          atoi("REDIS_DB", 0),
		RedisPass:        env("REDIS_PASSWORD", ""),
		StoreBase:        env("STORE_BASE_URL", "http://localhost:3000/v1"),
		StoreKey:         env("STORE_API_KEY", ""),
		StoreRPS:         atoi("STORE_RPS", 5),
		AppID:            env("APP_ID", "com.supergears.racingkingdom"),
		DefaultCountries: env("DEFAULT_COUNTRIES", "gb, us, de, tr"),
		TargetLang:       env("TARGET_LANG", "tr"),
		TranslateBase:    env("TRANSLATE_BASE_URL", "https://translation.googleapis.com"),
		TranslateKey:     env("TRANSLATE_API_KEY", ""),
		TranslateRPS:     atoi("TRANSLATE_RPS", 0),
		Workers:          atoi("INGEST_WORKERS", 1),
		CacheTTL:         time.Duration(atoi("CACHE_TTL_SECONDS", 8*3600)) * time.Second,
		RequestTimeout:   time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 600)) * time.Second,
		ExportPrefix:     env("EXPORT_PREFIX", "RacingKingdom_Review_Analysis"),
	}
	return c
}

// Warnings lists configuration gaps worth logging once the logger is set up.
func (c Config) Warnings() []string {
	var out []string
	if c.TranslateKey == "" {
		out = append(out, "TRANSLATE_API_KEY is empty; translated rows will carry the failure marker")
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
