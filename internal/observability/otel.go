// Package observability はOpenTelemetryトレーシングの初期化を提供する。
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// TracingConfig はトレーシングの設定。
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	// Writer はスパンの出力先。nilの場合はos.Stderrに出力する。
	Writer io.Writer
}

var (
	tracingOnce     sync.Once
	tracingShutdown = func(context.Context) error { return nil }
)

// InitTracing はプロセス全体のTracerProviderを1回だけ設定し、終了処理を返す。
// 無効な場合や初期化に失敗した場合はグローバルのno-opプロバイダーのまま何もしない終了処理を返す。
func InitTracing(ctx context.Context, cfg TracingConfig, logger *slog.Logger) func(context.Context) error {
	tracingOnce.Do(func() {
		if !cfg.Enabled {
			return
		}
		tp, err := newTracerProvider(ctx, cfg)
		if err != nil {
			logger.Warn("トレーシングの初期化に失敗しました（無効のまま継続）", slog.String("error", err.Error()))
			return
		}
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		tracingShutdown = tp.Shutdown
		logger.Info("トレーシングを初期化しました", slog.String("service", serviceName(cfg)))
	})
	return tracingShutdown
}

// newTracerProvider はstdoutエクスポーターを持つTracerProviderを生成する。
func newTracerProvider(ctx context.Context, cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}

	name := serviceName(cfg)
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			attribute.String("service.component", name),
		),
	)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	), nil
}

func serviceName(cfg TracingConfig) string {
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		return name
	}
	return "stakevault"
}
