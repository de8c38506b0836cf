package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"banking-service/pkg/jwtutil"
)

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

// URL returns the connection string; scheme is "postgres" for pgx or "pgx5" for migrations.
// Credentials are escaped.
func (c DBConfig) URL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

type AppConfig struct {
	Env      string
	LogLevel string

	HTTPAddr string
	GRPCAddr string

	StoreBackend string
	DB           DBConfig
	MongoURI     string
	MongoDB      string

	RedisAddr    string
	RedisPass    string
	KafkaBrokers []string
	KafkaTopic   string

	JWT jwtutil.JWTConfig

	TxTimeout  time.Duration
	RateLimit  int
	RateWindow time.Duration
}

func Load() AppConfig {
	return AppConfig{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPAddr: getEnv("HTTP_ADDR", ":8030"),
		GRPCAddr: getEnv("GRPC_ADDR", ":8031"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		DB: DBConfig{
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "banking"),
		},
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDB:  getEnv("MONGO_DB", "banking"),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		RedisPass:    getEnv("REDIS_PASS", ""),
		KafkaBrokers: getEnvSlice("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "banking.transactions"),

		JWT: jwtutil.JWTConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			Issuer:   getEnv("JWT_ISSUER", "banking-service"),
			Audience: getEnv("JWT_AUDIENCE", ""),
			TTL:      getEnvDuration("JWT_TTL", 15*time.Minute),
		},

		TxTimeout:  getEnvDuration("TX_TIMEOUT", 10*time.Second),
		RateLimit:  getEnvInt("RATE_LIMIT", 100),
		RateWindow: getEnvDuration("RATE_WINDOW", time.Minute),
	}
}

func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func (c AppConfig) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && c.StoreBackend == BackendMemory {
		return fmt.Errorf("memory backend is not allowed in production")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}
