package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminclauss/tollgate/internal/feed"
	"github.com/benjaminclauss/tollgate/internal/ledger"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tollgated.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
listen: ":7100"
readTimeoutSecs: 10
writeTimeoutSecs: 5
logFile: /var/log/tollgated.log
ledger:
  type: redis
  redis:
    addr: localhost:6379
    db: 2
    keyPrefix: "gate:"
feed:
  type: kafka
  kafka:
    brokers:
      - localhost:9092
    topic: toll.events
stats:
  intervalSecs: 30
  rate: 2.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7100", cfg.Listen)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout())
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout())
	assert.Equal(t, "/var/log/tollgated.log", cfg.LogFile)
	assert.Equal(t, ledger.StoreTypeRedis, cfg.Ledger.Type)
	assert.Equal(t, "localhost:6379", cfg.Ledger.Redis.Addr)
	assert.Equal(t, 2, cfg.Ledger.Redis.DB)
	assert.Equal(t, "gate:", cfg.Ledger.Redis.KeyPrefix)
	assert.Equal(t, feed.SinkTypeKafka, cfg.Feed.Type)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Feed.Kafka.Brokers)
	assert.Equal(t, "toll.events", cfg.Feed.Kafka.Topic)
	assert.Equal(t, 30*time.Second, cfg.Stats.Interval())
	assert.Equal(t, 2.5, cfg.Stats.Rate)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `logFile: toll.log`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout())
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout())
	assert.Equal(t, "toll.log", cfg.LogFile)
	assert.Equal(t, 5*time.Second, cfg.Stats.Interval())
	assert.Equal(t, 1.0, cfg.Stats.Rate)
	assert.Empty(t, cfg.Ledger.Type)
	assert.Empty(t, cfg.Feed.Type)
}

func TestLoadZeroTimeoutDisablesDeadline(t *testing.T) {
	path := writeConfig(t, `readTimeoutSecs: 0`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Zero(t, cfg.ReadTimeout())
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "listen: [unclosed")

	_, err := Load(path)
	assert.Error(t, err)
}
