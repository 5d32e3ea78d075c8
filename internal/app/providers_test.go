package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/ratelimit"
	pkglogger "github.com/xiebiao/bookcatalog/pkg/logger"
)

func TestProvideLimiter(t *testing.T) {
	log := pkglogger.Discard()

	t.Run("未启用", func(t *testing.T) {
		l, cleanup, err := ProvideLimiter(&config.Config{}, log)
		require.NoError(t, err)
		assert.Nil(t, l)
		cleanup()
	})

	t.Run("内存后端", func(t *testing.T) {
		cfg := &config.Config{RateLimit: config.RateLimitConfig{
			Enabled: true, Backend: config.RateLimitMemory, Requests: 5, Window: time.Second,
		}}
		l, cleanup, err := ProvideLimiter(cfg, log)
		require.NoError(t, err)
		assert.IsType(t, &ratelimit.Memory{}, l)
		cleanup()
	})

	t.Run("Redis不可达", func(t *testing.T) {
		cfg := &config.Config{
			RateLimit: config.RateLimitConfig{Enabled: true, Backend: config.RateLimitRedis, Requests: 5, Window: time.Second},
			Redis:     config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1, DialTimeout: 100 * time.Millisecond},
		}
		_, _, err := ProvideLimiter(cfg, log)
		assert.Error(t, err)
	})
}

func TestProvideQueryPolicy(t *testing.T) {
	cfg := &config.Config{Query: config.QueryConfig{DefaultLimit: 20, MaxLimit: 100}}
	p := ProvideQueryPolicy(cfg)
	assert.Equal(t, 20, p.DefaultLimit)
	assert.Equal(t, 100, p.MaxLimit)
}

func TestProvideTracing_Disabled(t *testing.T) {
	tr, cleanup, err := ProvideTracing(&config.Config{}, pkglogger.Discard())
	require.NoError(t, err)
	assert.False(t, tr.Enabled)
	cleanup()
}

func TestProvideLogger(t *testing.T) {
	log, err := ProvideLogger(&config.Config{Log: config.LogConfig{Level: "debug", Format: "text", Output: "stderr"}})
	require.NoError(t, err)
	assert.NotNil(t, log)

	_, err = ProvideLogger(&config.Config{Log: config.LogConfig{Level: "verbose"}})
	assert.Error(t, err)
}
