package feed_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/feed"
)

func TestMemoryFeedDispatchesPerKind(t *testing.T) {
	f := feed.NewMemory()
	defer f.Close()

	appointments, documents := 0, 0
	cancelA := f.Subscribe(domain.KindAppointment, func() { appointments++ })
	defer cancelA()
	cancelD := f.Subscribe(domain.KindDocument, func() { documents++ })
	defer cancelD()

	f.Publish(context.Background(), domain.KindAppointment)
	f.Publish(context.Background(), domain.KindAppointment)
	f.Publish(context.Background(), domain.KindDocument)

	assert.Equal(t, 2, appointments)
	assert.Equal(t, 1, documents)
}

func TestMemoryFeedCancelStopsDelivery(t *testing.T) {
	f := feed.NewMemory()
	defer f.Close()

	count := 0
	cancel := f.Subscribe(domain.KindPayment, func() { count++ })
	f.Publish(context.Background(), domain.KindPayment)
	cancel()
	f.Publish(context.Background(), domain.KindPayment)

	assert.Equal(t, 1, count)
}

func TestPollFeedTicks(t *testing.T) {
	f := feed.NewPoll(10 * time.Millisecond)
	defer f.Close()

	var ticks atomic.Int64
	cancel := f.Subscribe(domain.KindAppointment, func() { ticks.Add(1) })
	defer cancel()

	require.Eventually(t, func() bool { return ticks.Load() >= 2 },
		2*time.Second, 5*time.Millisecond)
}

func TestPollFeedPublishDispatchesImmediately(t *testing.T) {
	// A long interval proves the local dispatch path, not the ticker, fired.
	f := feed.NewPoll(time.Hour)
	defer f.Close()

	count := 0
	cancel := f.Subscribe(domain.KindDocument, func() { count++ })
	defer cancel()

	f.Publish(context.Background(), domain.KindDocument)
	assert.Equal(t, 1, count)
}

func TestPollFeedReleaseStopsTicker(t *testing.T) {
	f := feed.NewPoll(10 * time.Millisecond)
	defer f.Close()

	var ticks atomic.Int64
	cancel := f.Subscribe(domain.KindPayment, func() { ticks.Add(1) })

	require.Eventually(t, func() bool { return ticks.Load() >= 1 },
		2*time.Second, 5*time.Millisecond)
	cancel()

	settled := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, ticks.Load())
}
