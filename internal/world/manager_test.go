package world

import (
	"bytes"
	"testing"
	"time"

	"github.com/annel0/voxel-streamer/internal/logging"
	"github.com/annel0/voxel-streamer/internal/vec"
	"github.com/annel0/voxel-streamer/internal/world/block"
	"github.com/annel0/voxel-streamer/internal/world/chunk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink запоминает опубликованные сетки и выселения
type recordingSink struct {
	objects map[vec.Vec2]ReadyMesh
	evicted []vec.Vec2
	publish int
	tombs   int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{objects: make(map[vec.Vec2]ReadyMesh)}
}

func (s *recordingSink) Publish(m ReadyMesh) {
	s.publish++
	if m.Empty() {
		s.tombs++
		delete(s.objects, m.Coord)
		return
	}
	s.objects[m.Coord] = m
}

func (s *recordingSink) Evict(coord vec.Vec2) {
	s.evicted = append(s.evicted, coord)
	delete(s.objects, coord)
}

func (s *recordingSink) coords() []vec.Vec2 {
	out := make([]vec.Vec2, 0, len(s.objects))
	for c := range s.objects {
		out = append(out, c)
	}
	return out
}

func square(center vec.Vec2, r int) []vec.Vec2 {
	var out []vec.Vec2
	for x := center.X - r; x <= center.X+r; x++ {
		for z := center.Z - r; z <= center.Z+r; z++ {
			out = append(out, vec.Vec2{X: x, Z: z})
		}
	}
	return out
}

func quietLogger() *logging.Logger {
	return logging.NewWriterLogger("world", &bytes.Buffer{}, logging.ERROR)
}

func newTestManager(t *testing.T, view, workers int) *Manager {
	t.Helper()
	m, err := NewManager(Options{
		ViewDistance: view,
		Workers:      workers,
		Terrain:      FlatTerrain{Height: 10},
		Registerer:   prometheus.NewRegistry(),
		Logger:       quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(m.Stop)
	return m
}

func waitIdle(t *testing.T, m *Manager) {
	t.Helper()
	require.Eventually(t, m.Idle, 10*time.Second, 2*time.Millisecond)
}

func TestNewManagerValidation(t *testing.T) {
	base := Options{ViewDistance: 2, Workers: 2, Terrain: FlatTerrain{Height: 4}, Logger: quietLogger()}

	opts := base
	opts.ViewDistance = 0
	_, err := NewManager(opts)
	assert.ErrorIs(t, err, ErrInvalidViewDistance)
	assert.True(t, IsConfigError(err))

	opts = base
	opts.Workers = 0
	_, err = NewManager(opts)
	assert.ErrorIs(t, err, ErrInvalidWorkerCount)
	assert.True(t, IsConfigError(err))

	opts = base
	opts.Terrain = nil
	_, err = NewManager(opts)
	assert.ErrorIs(t, err, ErrNoTerrain)
}

func TestManagerMeshesInnerChunks(t *testing.T) {
	m := newTestManager(t, 2, 4)
	sink := newRecordingSink()

	require.NoError(t, m.UpdateObserverPosition(8, 8))
	waitIdle(t, m)
	m.DrainReady(sink)

	// Сетку получают только чанки, у которых все 8 соседей в окне
	assert.ElementsMatch(t, square(vec.Vec2{}, 1), sink.coords())
	for _, mesh := range sink.objects {
		assert.False(t, mesh.Mesh.Opaque.Empty())
		assert.True(t, mesh.Mesh.Transparent.Empty())
	}

	st := m.Stats()
	assert.Equal(t, 25, st.Resident)
	assert.Equal(t, 9, st.Rendered)
	assert.Equal(t, 16, st.Generated)
	assert.Equal(t, uint64(25), st.GeneratedTotal)
	assert.Equal(t, uint64(9), st.MeshedTotal)
	assert.Equal(t, 16, st.PendingBarriers, "краевые чанки ждут соседей вне окна")
	assert.Equal(t, float64(25), testutil.ToFloat64(m.metrics.Generated))
	assert.Equal(t, float64(9), testutil.ToFloat64(m.metrics.Published))
}

func TestManagerSlidesAndEvicts(t *testing.T) {
	m := newTestManager(t, 2, 4)
	sink := newRecordingSink()

	require.NoError(t, m.UpdateObserverPosition(8, 8))
	waitIdle(t, m)
	m.DrainReady(sink)

	// Шаг на восток: новая внутренняя колонка x=2
	require.NoError(t, m.UpdateObserverPosition(16+8, 8))
	waitIdle(t, m)
	m.DrainReady(sink)
	assert.Empty(t, sink.evicted, "отрисованные чанки остались в окне")
	assert.Len(t, sink.objects, 12)

	// Ещё два шага: колонки x=-1 и x=0 уходят из окна
	require.NoError(t, m.UpdateObserverPosition(3*16+8, 8))
	waitIdle(t, m)
	m.DrainReady(sink)

	var expectEvicted []vec.Vec2
	for x := -1; x <= 0; x++ {
		for z := -1; z <= 1; z++ {
			expectEvicted = append(expectEvicted, vec.Vec2{X: x, Z: z})
		}
	}
	assert.ElementsMatch(t, expectEvicted, sink.evicted)

	var expectObjects []vec.Vec2
	for x := 1; x <= 4; x++ {
		for z := -1; z <= 1; z++ {
			expectObjects = append(expectObjects, vec.Vec2{X: x, Z: z})
		}
	}
	assert.ElementsMatch(t, expectObjects, sink.coords())
	assert.Equal(t, vec.Vec2{X: 3}, m.Observer())

	// Позиция внутри того же чанка ничего не планирует
	before := m.Stats().GeneratedTotal
	require.NoError(t, m.UpdateObserverPosition(3*16+1, 15))
	waitIdle(t, m)
	assert.Equal(t, before, m.Stats().GeneratedTotal)
}

func TestManagerDropsStaleGeneration(t *testing.T) {
	m := newTestManager(t, 2, 1)
	sink := newRecordingSink()

	// Занимаем единственный воркер, чтобы задачи первого окна ждали в очереди
	gate := make(chan struct{})
	require.True(t, m.pool.Post(func() { <-gate }))

	require.NoError(t, m.UpdateObserverPosition(8, 8))
	require.NoError(t, m.UpdateObserverPosition(100*16+8, 8))
	close(gate)
	waitIdle(t, m)
	m.DrainReady(sink)

	st := m.Stats()
	assert.GreaterOrEqual(t, st.StaleTotal, uint64(25), "задачи старого окна должны отброситься")
	assert.Equal(t, uint64(25), st.GeneratedTotal)
	assert.ElementsMatch(t, square(vec.Vec2{X: 100}, 1), sink.coords())
	assert.Empty(t, sink.evicted)
}

func TestDrainReadySkipsMeshesOfRecycledSlots(t *testing.T) {
	m := newTestManager(t, 1, 2)
	sink := newRecordingSink()

	require.NoError(t, m.UpdateObserverPosition(0, 0))
	waitIdle(t, m)
	require.Equal(t, 1, m.Stats().Rendered)

	// Сетка центра уже в очереди, но окно уходит далеко до отрисовки
	require.NoError(t, m.UpdateObserverPosition(-50*16, 0))
	waitIdle(t, m)
	m.DrainReady(sink)

	_, published := sink.objects[vec.Vec2{}]
	assert.False(t, published, "сетка старого поколения не должна публиковаться")
	assert.Contains(t, sink.evicted, vec.Vec2{})
	assert.ElementsMatch(t, []vec.Vec2{{X: -50}}, sink.coords())
}

func TestManagerSetViewDistance(t *testing.T) {
	m := newTestManager(t, 2, 3)
	sink := newRecordingSink()

	assert.ErrorIs(t, m.SetViewDistance(0), ErrInvalidViewDistance)

	require.NoError(t, m.UpdateObserverPosition(8, 8))
	waitIdle(t, m)
	m.DrainReady(sink)
	require.Len(t, sink.objects, 9)

	require.NoError(t, m.SetViewDistance(1))
	waitIdle(t, m)
	m.DrainReady(sink)

	st := m.Stats()
	assert.Equal(t, 1, st.ViewDistance)
	assert.Equal(t, 9, st.Resident)
	assert.Equal(t, 1, st.Rendered)
	assert.ElementsMatch(t, []vec.Vec2{{}}, sink.coords())
	assert.Len(t, sink.evicted, 9)
}

func TestManagerMeshAbortRearmsBarrier(t *testing.T) {
	m := newTestManager(t, 1, 1)
	origin := vec.Vec2{}
	s, ok := m.GetChunk(origin)
	require.True(t, ok)
	require.True(t, s.publish(s.Generation(), StateGenerated, chunk.New(origin)))

	m.mesh(s, s.Generation(), origin)

	assert.Equal(t, uint64(1), m.Stats().AbortedTotal)
	assert.True(t, m.barrier.Pending(origin), "после отмены барьер взводится заново")
	assert.Equal(t, 8, m.barrier.Remaining(origin))
	assert.Equal(t, StateGenerated, s.State())
	assert.Equal(t, 0, m.ready.Len())
}

func TestManagerBlockAt(t *testing.T) {
	m := newTestManager(t, 1, 2)
	require.NoError(t, m.UpdateObserverPosition(-3, 5))
	waitIdle(t, m)

	b, ok := m.BlockAt(-3, 10, 5)
	require.True(t, ok)
	assert.Equal(t, block.GrassBlockID, b.Type)

	b, ok = m.BlockAt(-3, 11, 5)
	require.True(t, ok)
	assert.True(t, b.IsAir())
	assert.Equal(t, uint8(chunk.MaxLight), b.Sunlight)

	_, ok = m.BlockAt(5000, 0, 0)
	assert.False(t, ok)

	_, ok = m.GetChunk(vec.Vec2{X: 90})
	assert.False(t, ok)
}

func TestManagerStop(t *testing.T) {
	m := newTestManager(t, 1, 1)
	require.NoError(t, m.UpdateObserverPosition(0, 0))
	m.Stop()
	m.Stop()

	assert.True(t, m.IsStopped())
	assert.ErrorIs(t, m.UpdateObserverPosition(100, 0), ErrPoolStopped)
	assert.ErrorIs(t, m.SetViewDistance(3), ErrPoolStopped)
	assert.True(t, m.Idle(), "Stop дожидается всех задач")
}
