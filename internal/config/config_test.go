package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("RECEIVING_OVER_RECEIPT_POLICY", "")
	t.Setenv("RESERVATION_DEFAULT_TTL", "")
	t.Setenv("DB_AUTO_MIGRATE", "")

	cfg := Load()

	assert.Equal(t, []string{"localhost:9093"}, cfg.KafkaBrokers)
	assert.Equal(t, "reject", cfg.OverReceiptPolicy)
	assert.Equal(t, 24*time.Hour, cfg.ReservationDefaultTTL)
	assert.True(t, cfg.DBAutoMigrate)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("STOCK_MAX_RETRIES", "7")
	t.Setenv("RESERVATION_SWEEP_INTERVAL", "30")
	t.Setenv("RECONCILE_INTERVAL", "2m")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("EVENT_BROKER", "PubSub")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 7, cfg.StockMaxRetries)
	assert.Equal(t, 30*time.Second, cfg.ReservationSweepInterval)
	assert.Equal(t, 2*time.Minute, cfg.ReconcileInterval)
	assert.False(t, cfg.DBAutoMigrate)
	assert.Equal(t, "pubsub", cfg.EventBroker)
}

func TestGetEnvAsInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")

	assert.Equal(t, 5, getEnvAsInt("SOME_INT", 5))
}

func TestParseUsers(t *testing.T) {
	users := parseUsers(" picker-7:s3cret, auditor:a:b ,broken, :nobody,empty:")

	assert.Equal(t, map[string]string{"picker-7": "s3cret", "auditor": "a:b"}, users)
}
