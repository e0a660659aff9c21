package observability

import (
	"context"

	servertiming "github.com/mitchellh/go-server-timing"
)

// Timing is a running Server-Timing metric. A zero Timing is a no-op.
type Timing struct {
	metric *servertiming.Metric
}

func (t Timing) Stop() {
	if t.metric != nil {
		t.metric.Stop()
	}
}

// StartTiming starts a Server-Timing metric when the request context carries
// a timing header, which the server-timing middleware installs.
func StartTiming(ctx context.Context, name, desc string) Timing {
	h := servertiming.FromContext(ctx)
	if h == nil {
		return Timing{}
	}
	m := h.NewMetric(name)
	if desc != "" {
		m = m.WithDesc(desc)
	}
	return Timing{metric: m.Start()}
}
