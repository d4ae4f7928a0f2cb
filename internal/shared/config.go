package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	RequestTimeout time.Duration

	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3Bucket     string
	S3Region     string
	S3UseSSL     bool
	MediaBaseURL string
	PresignTTL   time.Duration

	UploadWorkers int
	ImportWorkers int
	ItemsPerPage  int

	JWTSecret     string
	JWTTTL        time.Duration
	AdminEmail    string
	AdminPassword string

	BrokerWhatsApp  string
	WhatsAppBase    string
	WhatsAppToken   string
	WhatsAppPhoneID string
	LeadsRPS        float64
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ":9100"),
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,

		MySQLDSN:  env("MYSQL_DSN", "root:root@tcp(localhost:3306)/imoveis?parseTime=true&charset=utf8mb4&loc=UTC"),
		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,

		S3Endpoint:   env("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:  env("S3_ACCESS_KEY", ""),
		S3SecretKey:  env("S3_SECRET_KEY", ""),
		S3Bucket:     env("S3_BUCKET", "imoveis-media"),
		S3Region:     env("S3_REGION", "us-east-1"),
		S3UseSSL:     boolEnv("S3_USE_SSL", false),
		MediaBaseURL: env("MEDIA_BASE_URL", ""),
		PresignTTL:   time.Duration(atoi("PRESIGN_TTL_SECONDS", 900)) * time.Second,

		UploadWorkers: atoi("UPLOAD_WORKERS", 4),
		ImportWorkers: atoi("IMPORT_WORKERS", 4),
		ItemsPerPage:  atoi("ITEMS_PER_PAGE", 10),

		JWTSecret:     env("JWT_SECRET", ""),
		JWTTTL:        time.Duration(atoi("JWT_TTL_HOURS", 24)) * time.Hour,
		AdminEmail:    env("ADMIN_EMAIL", ""),
		AdminPassword: env("ADMIN_PASSWORD", ""),

		BrokerWhatsApp:  env("BROKER_WHATSAPP", ""),
		WhatsAppBase:    env("WHATSAPP_API_BASE", "https://graph.facebook.com/v21.0"),
		WhatsAppToken:   env("WHATSAPP_TOKEN", ""),
		WhatsAppPhoneID: env("WHATSAPP_PHONE_ID", ""),
		LeadsRPS:        floatEnv("LEADS_RPS", 0.2),
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; admin routes will reject every request")
	}
	if c.BrokerWhatsApp == "" {
		log.Warn().Msg("BROKER_WHATSAPP is empty; leads cannot be delivered")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func boolEnv(k string, def bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}

func floatEnv(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}
