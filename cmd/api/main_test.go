package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/SergeiKhy/shortlink/internal/config"
	"github.com/SergeiKhy/shortlink/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestConnectStore_Unreachable проверяет деградированный режим и одну запись об ошибке
func TestConnectStore_Unreachable(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	db, state := connectStore(context.Background(), config.DBConfig{
		Host:            "127.0.0.1",
		Port:            "1",
		User:            "user",
		Password:        "password",
		Name:            "shortener",
		SSLMode:         "disable",
		ConnectAttempts: 2,
		ConnectDelay:    10 * time.Millisecond,
		ConnectTimeout:  time.Second,
	}, zap.New(core))

	assert.Nil(t, db)
	assert.Equal(t, repository.StateDisconnected, state)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

// TestConnectCache_Disabled проверяет no-op кэш без REDIS_HOST
func TestConnectCache_Disabled(t *testing.T) {
	cache, closeCache := connectCache(context.Background(), config.RedisConfig{}, zap.NewNop())
	defer closeCache()

	_, err := cache.Get(context.Background(), "docs")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}

// TestConnectCache_Unreachable проверяет откат на no-op кэш, если Redis недоступен
func TestConnectCache_Unreachable(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	cache, closeCache := connectCache(context.Background(), config.RedisConfig{
		Host: "127.0.0.1",
		Port: "1",
	}, zap.New(core))
	defer closeCache()

	_, err := cache.Get(context.Background(), "docs")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
	assert.Equal(t, 1, logs.FilterMessage("Redis unavailable, cache disabled").Len())
}

func TestNewServer(t *testing.T) {
	h := http.NotFoundHandler()

	srv := newServer(config.AppConfig{Port: "8000"}, h)

	require.NotNil(t, srv)
	assert.Equal(t, ":8000", srv.Addr)
	assert.NotZero(t, srv.ReadTimeout)
	assert.NotZero(t, srv.WriteTimeout)
}
