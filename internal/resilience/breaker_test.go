package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(minRequests int, ratio float64, openFor time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker("product-cache", minRequests, ratio, openFor)
	b.now = clock.now
	return b, clock
}

func TestBreakerTransitions(t *testing.T) {
	b, clock := newTestBreaker(2, 0.5, time.Second)
	ctx := context.Background()

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow(ctx))

	clock.t = clock.t.Add(time.Second)
	require.True(t, b.Allow(ctx))
	require.Equal(t, HalfOpen, b.State())
	b.Report(ctx, true)
	require.Equal(t, Closed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(1, 0.5, time.Second)
	ctx := context.Background()

	b.Report(ctx, false)
	require.Equal(t, Open, b.State())
	clock.t = clock.t.Add(2 * time.Second)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow(ctx))
}

func TestBreakerDo(t *testing.T) {
	b, _ := newTestBreaker(1, 1, time.Minute)
	ctx := context.Background()
	boom := errors.New("redis down")

	calls := 0
	err := b.Do(ctx, func(context.Context) error { calls++; return boom })
	require.ErrorIs(t, err, boom)

	err = b.Do(ctx, func(context.Context) error { calls++; return nil })
	require.ErrorIs(t, err, ErrOpenCircuit)
	require.Equal(t, 1, calls)
}

func TestBreakerMetrics(t *testing.T) {
	MustRegisterMetrics("inventaris", prometheus.NewRegistry())
	b, _ := newTestBreaker(1, 0.5, time.Minute)
	before := testutil.ToFloat64(BreakerTransitions.WithLabelValues("product-cache", "closed", "open"))

	b.Report(context.Background(), false)
	require.Equal(t, 1.0, testutil.ToFloat64(BreakerState.WithLabelValues("product-cache")))
	require.Equal(t, before+1, testutil.ToFloat64(BreakerTransitions.WithLabelValues("product-cache", "closed", "open")))
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, Backoff(base, 1, 0))
	require.Equal(t, base*4, Backoff(base, 3, 0))
	require.Equal(t, base, Backoff(base, 0, 0))

	d := Backoff(base, 2, 0.2)
	require.GreaterOrEqual(t, d, base*2-base*2/5)
	require.LessOrEqual(t, d, base*2+base*2/5)
}
