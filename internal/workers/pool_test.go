package workers

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/annel0/voxel-streamer/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidCount(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrInvalidWorkerCount)
	_, err = New(-3)
	assert.ErrorIs(t, err, ErrInvalidWorkerCount)
}

func TestPoolRunsAllTasks(t *testing.T) {
	p, err := New(4)
	require.NoError(t, err)

	var n atomic.Int64
	for i := 0; i < 1000; i++ {
		require.True(t, p.Post(func() { n.Add(1) }))
	}
	p.Stop()

	assert.Equal(t, int64(1000), n.Load(), "Stop должен дождаться всех принятых задач")
	assert.Equal(t, uint64(1000), p.Completed())
	assert.Equal(t, 0, p.Pending())
	assert.True(t, p.Idle())
}

func TestPostAfterStop(t *testing.T) {
	p, err := New(1)
	require.NoError(t, err)
	p.Stop()
	p.Stop() // повторный вызов безопасен

	assert.False(t, p.Post(func() {}))
	assert.False(t, p.Post(nil))
}

func TestPanicIsRecovered(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(1, WithLogger(logging.NewWriterLogger("workers", &buf, logging.ERROR)))
	require.NoError(t, err)

	var ran atomic.Bool
	p.Post(func() { panic("boom") })
	p.Post(func() { ran.Store(true) })
	p.Stop()

	assert.True(t, ran.Load(), "воркер продолжает работу после паники")
	assert.Equal(t, uint64(1), p.Panics())
	assert.Contains(t, buf.String(), "boom")
}

func TestPostFromManyGoroutines(t *testing.T) {
	p, err := New(3)
	require.NoError(t, err)

	var n atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				p.Post(func() { n.Add(1) })
			}
		}()
	}
	wg.Wait()
	p.Stop()
	assert.Equal(t, int64(800), n.Load())
}

func TestStopWaitsForRunningTask(t *testing.T) {
	p, err := New(1)
	require.NoError(t, err)

	var finished atomic.Bool
	p.Post(func() {
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
	})
	p.Stop()
	assert.True(t, finished.Load())
}

func TestPoolMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := New(2, WithRegisterer(reg), WithLogger(logging.NewWriterLogger("workers", &bytes.Buffer{}, logging.ERROR)))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		p.Post(func() {})
	}
	p.Post(func() { panic("x") })
	p.Stop()

	assert.Equal(t, float64(6), testutil.ToFloat64(p.metrics.posted))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.metrics.panics))

	count, err := testutil.GatherAndCount(reg, "streamer_pool_task_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
