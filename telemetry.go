package main

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// initTracing configures the OTLP trace exporter when POSTHOG_API_KEY is
// set. Without it the gRPC stats handler records nothing; tracing is
// strictly additive. Returns a shutdown function that flushes spans.
func initTracing() func() {
	apiKey := os.Getenv("POSTHOG_API_KEY")
	if apiKey == "" {
		return func() {}
	}

	host := os.Getenv("POSTHOG_OTLP_ENDPOINT")
	if host == "" {
		host = "us.posthog.com"
	}

	ctx := context.Background()

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(host),
		otlptracehttp.WithURLPath("/i/v1/traces"),
		otlptracehttp.WithHeaders(map[string]string{
			"Authorization": "Bearer " + apiKey,
		}),
	)
	if err != nil {
		slog.Error("Failed to create trace exporter, continuing without tracing.", "error", err)
		return func() {}
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("mockling"),
		)),
	)

	otel.SetTracerProvider(provider)

	return func() {
		_ = provider.Shutdown(context.Background())
	}
}
