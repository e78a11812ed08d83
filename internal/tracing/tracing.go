package tracing

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdk "go.opentelemetry.io/otel/sdk/trace"

	"github.com/SergeiKhy/shortlink/internal/config"
)

// ShutdownFunc сбрасывает накопленные спаны и останавливает провайдер
type ShutdownFunc func(ctx context.Context) error

// Спаны пишутся в stderr: stdout занят JSON логами
var spanOutput io.Writer = os.Stderr

// Init регистрирует глобальный провайдер трассировки с выводом спанов в stderr.
// При выключенной трассировке остаётся no-op провайдер otel по умолчанию.
func Init(cfg config.TracingConfig) (ShutdownFunc, error) {
	return initWithWriter(cfg, spanOutput)
}

func initWithWriter(cfg config.TracingConfig, w io.Writer) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}

	provider := sdk.NewTracerProvider(
		sdk.WithBatcher(exporter),
		sdk.WithResource(newResource(cfg.ServiceName)),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

func newResource(serviceName string) *resource.Resource {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return resource.Default()
	}
	return r
}
