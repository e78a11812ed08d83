package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ConnState состояние подключения к хранилищу
type ConnState int

const (
	StateConnecting ConnState = iota
	StateConnected
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// RetryPolicy параметры подключения при старте
type RetryPolicy struct {
	Attempts int           // Максимальное число попыток
	Delay    time.Duration // Пауза между попытками
	Timeout  time.Duration // Ограничение на одну попытку (0 - без ограничения)
}

// DialFunc открывает соединение и проверяет его живость
type DialFunc[T any] func(ctx context.Context) (T, error)

// ConnectWithRetry выполняет до policy.Attempts попыток dial с фиксированной паузой.
// При исчерпании попыток или отмене ctx возвращает нулевое значение и StateDisconnected,
// процесс продолжает работу в деградированном режиме.
func ConnectWithRetry[T any](ctx context.Context, policy RetryPolicy, dial DialFunc[T], logger *zap.Logger) (T, ConnState) {
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var zero T
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := dialOnce(ctx, policy.Timeout, dial)
		if err == nil {
			logger.Info("Connected to store", zap.Int("attempt", attempt))
			return conn, StateConnected
		}

		logger.Warn("Store connection attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			logger.Warn("Store connection aborted", zap.Error(ctx.Err()))
			return zero, StateDisconnected
		case <-time.After(policy.Delay):
		}
	}

	logger.Error("Store unavailable, running in degraded mode", zap.Int("attempts", attempts))
	return zero, StateDisconnected
}

func dialOnce[T any](ctx context.Context, timeout time.Duration, dial DialFunc[T]) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return dial(ctx)
}
