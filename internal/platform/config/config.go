package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr             string
	LogLevel         string
	JWTSigningKey    string
	OracleToken      string
	OracleSignerKey  string
	OracleKeyFile    string
	DatabaseURL      string
	BadgerDir        string
	EnforceOwnership bool
	Operators        []string

	Redis     RedisConfig
	Kafka     KafkaConfig
	Protocol  ProtocolConfig
	RateLimit RateLimitConfig
}

// RedisConfig configures the shared Redis client. An empty URL selects the
// in-memory ledger and score stores.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the notification publisher. No brokers means
// notifications are only logged and delivered in-process.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ProtocolConfig tunes the decryption request lifecycle.
type ProtocolConfig struct {
	PendingTTL     time.Duration
	SweepInterval  time.Duration
	RelayerWorkers int
}

// RateLimitConfig sets per-caller request budgets over a sliding window.
type RateLimitConfig struct {
	Disabled   bool
	Window     time.Duration
	Read       int
	Write      int
	Decryption int
}

const devSigningKey = "dev-secret-key-change-in-production"

// Well-known development oracle key; never use outside local runs.
const devOracleSignerKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

// LoadEnvFile merges KEY=VALUE lines from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FINWELL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("FINWELL_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = devSigningKey
	}

	signerKey := os.Getenv("FINWELL_ORACLE_SIGNER_KEY")
	if signerKey == "" {
		signerKey = devOracleSignerKey
	}

	oracleToken := os.Getenv("FINWELL_ORACLE_TOKEN")
	if oracleToken == "" {
		oracleToken = "dev-oracle-token"
	}

	topic := os.Getenv("FINWELL_KAFKA_TOPIC")
	if topic == "" {
		topic = "finwell.events"
	}

	return Server{
		Addr:             addr,
		LogLevel:         os.Getenv("FINWELL_LOG_LEVEL"),
		JWTSigningKey:    jwtSigningKey,
		OracleToken:      oracleToken,
		OracleSignerKey:  signerKey,
		OracleKeyFile:    os.Getenv("FINWELL_ORACLE_KEYS"),
		DatabaseURL:      os.Getenv("FINWELL_DATABASE_URL"),
		BadgerDir:        os.Getenv("FINWELL_BADGER_DIR"),
		EnforceOwnership: boolEnv("FINWELL_ENFORCE_OWNERSHIP", true),
		Operators:        listEnv("FINWELL_OPERATORS"),
		Redis: RedisConfig{
			URL:          os.Getenv("FINWELL_REDIS_URL"),
			PoolSize:     intEnv("FINWELL_REDIS_POOL_SIZE", 10),
			MinIdleConns: intEnv("FINWELL_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationEnv("FINWELL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationEnv("FINWELL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationEnv("FINWELL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: listEnv("FINWELL_KAFKA_BROKERS"),
			Topic:   topic,
		},
		Protocol: ProtocolConfig{
			PendingTTL:     durationEnv("FINWELL_PENDING_TTL", 24*time.Hour),
			SweepInterval:  durationEnv("FINWELL_SWEEP_INTERVAL", time.Minute),
			RelayerWorkers: intEnv("FINWELL_RELAYER_WORKERS", 4),
		},
		RateLimit: RateLimitConfig{
			Disabled:   boolEnv("FINWELL_RATE_LIMIT_DISABLED", false),
			Window:     durationEnv("FINWELL_RATE_LIMIT_WINDOW", time.Minute),
			Read:       intEnv("FINWELL_RATE_LIMIT_READ", 600),
			Write:      intEnv("FINWELL_RATE_LIMIT_WRITE", 120),
			Decryption: intEnv("FINWELL_RATE_LIMIT_DECRYPTION", 20),
		},
	}
}

func boolEnv(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func listEnv(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
