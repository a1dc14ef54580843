package capture

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/galaxygst/galaxygst/internal/capture"

type metrics struct {
	frames      metric.Int64Counter
	stalePolls  metric.Int64Counter
	sessions    metric.Int64Counter
	packetBytes metric.Int64Histogram
}

// newMetrics uses the global OTel meter (no-op if not configured).
func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)
	var (
		out metrics
		err error
	)

	out.frames, err = m.Int64Counter(
		"capture.frames",
		metric.WithDescription("Packets appended to GST files"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	out.stalePolls, err = m.Int64Counter(
		"capture.polls.stale",
		metric.WithDescription("Polls that saw the previous update frame again"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stale poll counter: %w", err)
	}

	out.sessions, err = m.Int64Counter(
		"capture.sessions",
		metric.WithDescription("Capture sessions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions counter: %w", err)
	}

	out.packetBytes, err = m.Int64Histogram(
		"capture.packet.bytes",
		metric.WithDescription("Framed packet size"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating packet size histogram: %w", err)
	}

	return &out, nil
}
