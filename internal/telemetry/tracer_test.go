package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

func TestInitTracerDisabled(t *testing.T) {
	cleanup, err := InitTracer(context.Background(), config.Otel{ServiceName: "product-catalog"})
	require.NoError(t, err)
	assert.NoError(t, cleanup(context.Background()))
}

func TestResourceAttributes(t *testing.T) {
	attrs := resourceAttributes(config.Otel{
		ServiceName:  "product-catalog",
		K8sPodName:   "pod-1",
		K8sNamespace: "shop",
	})

	assert.ElementsMatch(t, attrs, []attribute.KeyValue{
		semconv.ServiceName("product-catalog"),
		semconv.K8SPodName("pod-1"),
		semconv.K8SNamespaceName("shop"),
	})

	assert.Len(t, resourceAttributes(config.Otel{ServiceName: "x"}), 1)
}

func TestInitTracerEnabled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// the grpc client connects lazily, so no collector has to be running
	cleanup, err := InitTracer(ctx, config.Otel{
		ServiceName:  "product-catalog",
		CollectorURL: "localhost:4317",
		Insecure:     true,
		TraceIDRatio: 1,
	})
	require.NoError(t, err)
	assert.NoError(t, cleanup(ctx))
}
