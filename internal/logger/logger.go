// Package logger собирает zap.Logger сервиса: JSON в stdout и, при необходимости,
// в ротируемый файл.
package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/SergeiKhy/shortlink/internal/config"
)

const (
	fileMaxSizeMB  = 100
	fileMaxBackups = 7
	fileMaxAgeDays = 14
)

// New создаёт логгер по конфигурации. Поле service добавляется ко всем записям.
func New(cfg config.LogConfig, service string) (*zap.Logger, error) {
	return newWithWriter(cfg, service, os.Stdout)
}

func newWithWriter(cfg config.LogConfig, service string, stdout io.Writer) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(stdout)}
	if cfg.File != "" {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
		}))
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(syncers...),
		level,
	)

	return zap.New(core, zap.AddCaller()).With(zap.String("service", service)), nil
}
