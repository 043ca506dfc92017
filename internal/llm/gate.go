// Package llm – admission gate.
//
// One serving process, one compute device: only one generation may run at a
// time, regardless of how many HTTP requests are in flight. The Gate wraps a
// Provider with a single-slot semaphore so concurrent chat turns queue up
// instead of interleaving device state. Waiting respects the caller's
// context, so a cancelled turn leaves the queue immediately.
package llm

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// genDuration records end-to-end model call latency, including time
	// spent queued at the gate.
	genDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "generation_duration_seconds",
		Help:    "Duration of model generation calls in seconds (including queueing).",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	// genTotal counts generation calls by outcome.
	genTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_requests_total",
			Help: "Total number of model generation calls.",
		},
		[]string{"outcome"}, // ok | error | cancelled
	)
)

func init() {
	prometheus.MustRegister(genDuration, genTotal)
}

// Gate serializes access to a Provider.
type Gate struct {
	inner Provider
	slot  chan struct{}
}

var _ Provider = (*Gate)(nil)

// NewGate wraps inner with a semaphore of the given width. A width <= 0 is
// coerced to 1 (the intended configuration for a single compute device).
func NewGate(inner Provider, width int) *Gate {
	if width <= 0 {
		width = 1
	}
	return &Gate{inner: inner, slot: make(chan struct{}, width)}
}

// Complete acquires the slot, runs the wrapped provider, and releases the
// slot. If ctx is cancelled while waiting, the call returns ctx.Err() without
// ever reaching the provider.
func (g *Gate) Complete(ctx context.Context, prompt string) (string, error) {
	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		genTotal.WithLabelValues("cancelled").Inc()
		return "", ctx.Err()
	}
	defer func() { <-g.slot }()

	timer := prometheus.NewTimer(genDuration)
	defer timer.ObserveDuration()

	out, err := g.inner.Complete(ctx, prompt)
	switch {
	case err == nil:
		genTotal.WithLabelValues("ok").Inc()
	case ctx.Err() != nil:
		genTotal.WithLabelValues("cancelled").Inc()
	default:
		genTotal.WithLabelValues("error").Inc()
	}
	return out, err
}
