package mq

import (
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("internal/storage/mq")

// newKotel builds the franz-go tracing hooks. The global providers are read
// at call time, so construct clients after telemetry is initialized.
func newKotel() (*kotel.Tracer, kgo.Opt) {
	kTracer := kotel.NewTracer()
	k := kotel.NewKotel(kotel.WithTracer(kTracer))
	return kTracer, kgo.WithHooks(k.Hooks()...)
}
