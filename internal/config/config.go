package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	// JWT Configuration
	JWTSecret string
	// AuthUsers maps operator names to the secrets they log in with.
	// AUTH_USERS lists them as "name:secret,name:secret".
	AuthUsers map[string]string
	// RateLimit uses the ulule/limiter formatted rate, e.g. "100-M"
	RateLimit string
	// Database Configuration
	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBAutoMigrate  bool
	// Redis Configuration
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	// Kafka Configuration
	KafkaBrokers       []string
	KafkaTopicStock    string
	KafkaTopicReceipts string
	KafkaClientID      string
	KafkaGroupID       string
	KafkaAcks          string
	KafkaRetries       int
	// Event broker: kafka, pubsub or memory
	EventBroker     string
	PubSubProjectID string
	PubSubTopic     string
	// Listener Configuration
	SQLitePath   string
	MaxRetries   int
	RetryDelayMs int
	// Inventory Configuration
	OverReceiptPolicy        string
	ReservationDefaultTTL    time.Duration
	ReservationSweepInterval time.Duration
	StockMaxRetries          int
	ReconcileInterval        time.Duration
	// SequenceBackend: memory, redis or db. Empty picks db for a persistent
	// store and memory for the in-memory one.
	SequenceBackend string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Parse Kafka brokers (comma-separated)
	kafkaBrokersStr := getEnv("KAFKA_BROKERS", "localhost:9093")
	kafkaBrokers := strings.Split(kafkaBrokersStr, ",")
	for i, broker := range kafkaBrokers {
		kafkaBrokers[i] = strings.TrimSpace(broker)
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key-change-in-production-min-32-chars"),
		AuthUsers:   parseUsers(getEnv("AUTH_USERS", "admin:admin123,operator:operator123")),
		RateLimit:   getEnv("RATE_LIMIT", "300-M"),
		// Database Configuration
		DBDriver:       getEnv("DB_DRIVER", "memory"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "warehouse_ledger"),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBAutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
		// Redis Configuration
		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		// Kafka Configuration
		KafkaBrokers:       kafkaBrokers,
		KafkaTopicStock:    getEnv("KAFKA_TOPIC_STOCK", "warehouse.stock"),
		KafkaTopicReceipts: getEnv("KAFKA_TOPIC_RECEIPTS", "warehouse.receipts"),
		KafkaClientID:      getEnv("KAFKA_CLIENT_ID", "warehouse-ledger"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "warehouse-ledger-listener"),
		KafkaAcks:          getEnv("KAFKA_ACKS", "all"),
		KafkaRetries:       getEnvAsInt("KAFKA_RETRIES", 3),
		// Event broker
		EventBroker:     strings.ToLower(getEnv("EVENT_BROKER", "kafka")),
		PubSubProjectID: getEnv("PUBSUB_PROJECT_ID", ""),
		PubSubTopic:     getEnv("PUBSUB_TOPIC", "warehouse-stock"),
		// Listener Configuration
		SQLitePath:   getEnv("SQLITE_PATH", "./processed_events.db"),
		MaxRetries:   getEnvAsInt("MAX_RETRIES", 3),
		RetryDelayMs: getEnvAsInt("RETRY_DELAY_MS", 1000),
		// Inventory Configuration
		OverReceiptPolicy:        getEnv("RECEIVING_OVER_RECEIPT_POLICY", "reject"),
		ReservationDefaultTTL:    getEnvAsDuration("RESERVATION_DEFAULT_TTL", 24*time.Hour),
		ReservationSweepInterval: getEnvAsDuration("RESERVATION_SWEEP_INTERVAL", time.Minute),
		StockMaxRetries:          getEnvAsInt("STOCK_MAX_RETRIES", 3),
		ReconcileInterval:        getEnvAsDuration("RECONCILE_INTERVAL", 15*time.Minute),
		SequenceBackend:          strings.ToLower(getEnv("SEQUENCE_BACKEND", "")),
	}
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// parseUsers reads "name:secret" pairs. Malformed pairs are skipped.
func parseUsers(raw string) map[string]string {
	users := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		name, secret, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || name == "" || secret == "" {
			continue
		}
		users[name] = secret
	}
	return users
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return result
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
