package world

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-streamer/internal/logging"
	"github.com/annel0/voxel-streamer/internal/meshing"
	"github.com/annel0/voxel-streamer/internal/util"
	"github.com/annel0/voxel-streamer/internal/vec"
	"github.com/annel0/voxel-streamer/internal/workers"
	"github.com/annel0/voxel-streamer/internal/world/block"
	"github.com/annel0/voxel-streamer/internal/world/chunk"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/annel0/voxel-streamer/internal/world"

// ReadyMesh - готовая геометрия чанка для потока отрисовки
type ReadyMesh struct {
	Coord      vec.Vec2
	Generation uint64
	Mesh       meshing.Result
	slot       *Slot
}

// Empty сообщает, что у чанка нет видимых граней (надгробие)
func (r ReadyMesh) Empty() bool {
	return r.Mesh.Empty()
}

// ReadySink принимает результаты в потоке отрисовки.
// Методы вызываются из DrainReady; вызывать из них методы Manager нельзя.
type ReadySink interface {
	Publish(mesh ReadyMesh)
	Evict(coord vec.Vec2)
}

type readyKind int

const (
	readyPublish readyKind = iota
	readyEvict
)

type readyItem struct {
	kind  readyKind
	mesh  ReadyMesh
	coord vec.Vec2
}

// Options - параметры менеджера чанков
type Options struct {
	ViewDistance int                   // Радиус окна в чанках, >= 1
	Workers      int                   // Число воркеров пула, >= 1
	SeaLevel     int                   // Уровень моря для FillChunk
	Terrain      TerrainGenerator      // Источник высот (обязателен)
	Registerer   prometheus.Registerer // Куда регистрировать метрики; nil - не регистрировать
	Logger       *logging.Logger       // nil - глобальный логгер
	WorkerLogger *logging.Logger       // Логгер пула; nil - Logger
}

// Validate проверяет параметры
func (o Options) Validate() error {
	if o.ViewDistance < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidViewDistance, o.ViewDistance)
	}
	if o.Workers < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkerCount, o.Workers)
	}
	if o.Terrain == nil {
		return ErrNoTerrain
	}
	return nil
}

// Stats - снимок состояния конвейера
type Stats struct {
	Center          vec.Vec2 `json:"center"`
	ViewDistance    int      `json:"view_distance"`
	Resident        int      `json:"resident"`
	Uninitialized   int      `json:"uninitialized"`
	Generated       int      `json:"generated"`
	Rendered        int      `json:"rendered"`
	PendingBarriers int      `json:"pending_barriers"`
	QueuedTasks     int      `json:"queued_tasks"`
	ReadyQueue      int      `json:"ready_queue"`
	GeneratedTotal  uint64   `json:"generated_total"`
	MeshedTotal     uint64   `json:"meshed_total"`
	StaleTotal      uint64   `json:"stale_total"`
	AbortedTotal    uint64   `json:"aborted_total"`
}

// Manager ведёт конвейер генерация → сигнал соседям → сетка → публикация
// для окна чанков вокруг наблюдателя
type Manager struct {
	opts    Options
	cache   *Cache
	barrier *Barrier
	pool    *workers.Pool
	ready   *util.Queue[readyItem]
	metrics *Metrics
	logger  *logging.Logger
	tracer  trace.Tracer

	mu       sync.Mutex // сериализует сдвиги окна
	started  bool
	observer vec.Vec2
	stopped  atomic.Bool

	generated atomic.Uint64
	meshed    atomic.Uint64
	stale     atomic.Uint64
	aborted   atomic.Uint64
}

// NewManager проверяет параметры и запускает пул воркеров
func NewManager(opts Options) (*Manager, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		opts:    opts,
		barrier: NewBarrier(),
		ready:   util.NewQueue[readyItem](),
		metrics: NewMetrics(opts.Registerer),
		logger:  opts.Logger,
		tracer:  otel.Tracer(tracerName),
	}
	if m.logger == nil {
		m.logger = logging.Default()
	}

	cache, err := NewCache(opts.ViewDistance, vec.Vec2{}, m.onRecycle)
	if err != nil {
		return nil, err
	}
	m.cache = cache

	poolLogger := opts.WorkerLogger
	if poolLogger == nil {
		poolLogger = m.logger
	}
	pool, err := workers.New(opts.Workers, workers.WithLogger(poolLogger), workers.WithRegisterer(opts.Registerer))
	if err != nil {
		return nil, err
	}
	m.pool = pool

	m.logger.Info("Менеджер чанков: окно %dx%d, воркеров %d", cache.Width(), cache.Width(), opts.Workers)
	return m, nil
}

// onRecycle вызывается кешем под эксклюзивной блокировкой
func (m *Manager) onRecycle(old vec.Vec2, oldState State) {
	m.barrier.Cancel(old)
	m.metrics.Recycled.Inc()
	if oldState == StateRendered {
		m.ready.Push(readyItem{kind: readyEvict, coord: old})
	}
}

// SetViewDistance меняет радиус окна; все чанки генерируются заново
func (m *Manager) SetViewDistance(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidViewDistance, n)
	}
	if m.stopped.Load() {
		return ErrPoolStopped
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	slots, err := m.cache.Resize(n, m.observer)
	if err != nil {
		return err
	}
	m.opts.ViewDistance = n
	m.logger.Info("Дальность прорисовки изменена: %d", n)
	if m.started {
		m.scheduleAll(slots)
	}
	return nil
}

// UpdateObserverPosition сообщает мировую позицию наблюдателя.
// При смене чанка окно сдвигается и новые чанки ставятся на генерацию.
func (m *Manager) UpdateObserverPosition(x, z float64) error {
	if m.stopped.Load() {
		return ErrPoolStopped
	}
	coord := vec.Vec2Float{X: x, Z: z}.ToChunkCoords(chunk.Size)

	m.mu.Lock()
	defer m.mu.Unlock()

	var slots []*Slot
	switch {
	case !m.started:
		slots = m.cache.Reset(coord)
		m.started = true
	case coord == m.observer:
		return nil
	default:
		slots = m.cache.Recenter(coord)
	}
	m.logger.Debug("Наблюдатель в чанке (%d, %d), к генерации %d чанков", coord.X, coord.Z, len(slots))
	m.observer = coord
	m.scheduleAll(slots)
	return nil
}

func (m *Manager) scheduleAll(slots []*Slot) {
	for _, s := range slots {
		snap := s.Snapshot()
		m.scheduleGenerate(s, snap.Generation, snap.Coord)
	}
}

// scheduleGenerate вызывается только под m.mu, поэтому Init не пересекается со сдвигом окна
func (m *Manager) scheduleGenerate(s *Slot, gen uint64, coord vec.Vec2) {
	m.barrier.Init(coord)
	if !m.pool.Post(func() { m.generate(s, gen, coord) }) {
		m.logger.Warn("Пул остановлен, генерация (%d, %d) отменена", coord.X, coord.Z)
	}
}

func (m *Manager) generate(s *Slot, gen uint64, coord vec.Vec2) {
	_, span := m.tracer.Start(context.Background(), "chunk.generate",
		trace.WithAttributes(attribute.Int("chunk.x", coord.X), attribute.Int("chunk.z", coord.Z)))
	defer span.End()

	if s.Generation() != gen {
		m.markStale("generate", span)
		return
	}

	start := time.Now()
	data := chunk.New(coord)
	FillChunk(m.opts.Terrain, data, m.opts.SeaLevel)
	meshing.PropagateSunlight(data)

	var fired []vec.Vec2
	selfReady := false
	committed := m.cache.Commit(s, gen, func() {
		s.publish(gen, StateGenerated, data)
		m.barrier.MarkPresent(coord)
		for _, n := range coord.Neighbors() {
			if m.barrier.Signal(n, coord) {
				fired = append(fired, n)
			}
		}
		selfReady = m.barrier.TryConsumeReady(coord)
	})
	if !committed {
		m.markStale("generate", span)
		return
	}

	m.generated.Add(1)
	m.metrics.Generated.Inc()
	m.metrics.GenerateSeconds.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("chunk.fired_neighbors", len(fired)))

	for _, n := range fired {
		m.scheduleMeshAt(n)
	}
	if selfReady {
		m.scheduleMesh(s, gen, coord)
	}
}

// scheduleMeshAt ставит сетку для резидентного сгенерированного чанка
func (m *Manager) scheduleMeshAt(coord vec.Vec2) {
	s := m.cache.Get(coord)
	if s == nil {
		return
	}
	snap := s.Snapshot()
	if snap.Coord != coord || snap.State < StateGenerated {
		return
	}
	m.scheduleMesh(s, snap.Generation, coord)
}

func (m *Manager) scheduleMesh(s *Slot, gen uint64, coord vec.Vec2) {
	m.pool.Post(func() { m.mesh(s, gen, coord) })
}

func (m *Manager) mesh(s *Slot, gen uint64, coord vec.Vec2) {
	_, span := m.tracer.Start(context.Background(), "chunk.mesh",
		trace.WithAttributes(attribute.Int("chunk.x", coord.X), attribute.Int("chunk.z", coord.Z)))
	defer span.End()

	own := s.Snapshot()
	if own.Generation != gen || own.Coord != coord {
		m.markStale("mesh", span)
		return
	}

	n := meshing.Neighborhood{Center: own.Data}
	for i, nc := range coord.Neighbors() {
		ns := m.cache.Get(nc)
		if ns == nil {
			m.abortMesh(s, gen, coord, nc, span)
			return
		}
		snap := ns.Snapshot()
		if snap.Coord != nc || snap.State < StateGenerated {
			m.abortMesh(s, gen, coord, nc, span)
			return
		}
		n.Neighbors[i] = snap.Data
	}

	start := time.Now()
	result := meshing.Build(n)

	committed := m.cache.Commit(s, gen, func() {
		s.publish(gen, StateRendered, nil)
		m.ready.Push(readyItem{kind: readyPublish, mesh: ReadyMesh{
			Coord:      coord,
			Generation: gen,
			Mesh:       result,
			slot:       s,
		}})
	})
	if !committed {
		m.markStale("mesh", span)
		return
	}

	m.meshed.Add(1)
	m.metrics.Meshed.Inc()
	m.metrics.MeshSeconds.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("mesh.opaque_faces", result.Opaque.FaceCount()),
		attribute.Int("mesh.transparent_faces", result.Transparent.FaceCount()),
	)
}

// abortMesh прерывает построение и заново взводит барьер,
// чтобы чанк был предложен снова, когда сосед догенерируется
func (m *Manager) abortMesh(s *Slot, gen uint64, coord, missing vec.Vec2, span trace.Span) {
	m.aborted.Add(1)
	m.metrics.Aborted.Inc()
	span.AddEvent("neighbor not ready", trace.WithAttributes(
		attribute.Int("neighbor.x", missing.X), attribute.Int("neighbor.z", missing.Z)))
	m.logger.Debug("Сетка (%d, %d) отложена: сосед (%d, %d) не готов", coord.X, coord.Z, missing.X, missing.Z)

	again := false
	m.cache.Commit(s, gen, func() {
		m.barrier.Init(coord)
		again = m.barrier.TryConsumeReady(coord)
	})
	if again {
		m.scheduleMesh(s, gen, coord)
	}
}

func (m *Manager) markStale(stage string, span trace.Span) {
	m.stale.Add(1)
	m.metrics.Stale.WithLabelValues(stage).Inc()
	span.SetAttributes(attribute.Bool("chunk.stale", true))
}

// DrainReady передаёт все накопленные результаты в sink и возвращает их число.
// Вызывается из потока отрисовки; устаревшие сетки отбрасываются.
func (m *Manager) DrainReady(sink ReadySink) int {
	delivered := 0
	for {
		item, ok := m.ready.TryPop()
		if !ok {
			return delivered
		}
		switch item.kind {
		case readyEvict:
			sink.Evict(item.coord)
			m.metrics.Evicted.Inc()
			delivered++
		case readyPublish:
			published := m.cache.Commit(item.mesh.slot, item.mesh.Generation, func() {
				sink.Publish(item.mesh)
			})
			if !published {
				m.stale.Add(1)
				m.metrics.Stale.WithLabelValues("publish").Inc()
				continue
			}
			m.metrics.Published.Inc()
			delivered++
		}
	}
}

// GetChunk возвращает слот резидентного чанка
func (m *Manager) GetChunk(coord vec.Vec2) (*Slot, bool) {
	s := m.cache.Get(coord)
	if s == nil {
		return nil, false
	}
	return s, true
}

// BlockAt возвращает блок по мировым координатам, если его чанк сгенерирован
func (m *Manager) BlockAt(worldX, y, worldZ int) (block.Block, bool) {
	coord, lx, lz := chunk.WorldToLocal(worldX, worldZ)
	s, ok := m.GetChunk(coord)
	if !ok {
		return block.Air, false
	}
	snap := s.Snapshot()
	if snap.Coord != coord || snap.State < StateGenerated {
		return block.Air, false
	}
	return snap.Data.At(lx, y, lz), true
}

// Observer возвращает чанк, в котором находится наблюдатель
func (m *Manager) Observer() vec.Vec2 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observer
}

// Stats возвращает снимок состояния конвейера
func (m *Manager) Stats() Stats {
	st := Stats{
		Center:          m.cache.Center(),
		ViewDistance:    m.cache.ViewDistance(),
		PendingBarriers: m.barrier.Len(),
		QueuedTasks:     m.pool.Pending(),
		ReadyQueue:      m.ready.Len(),
		GeneratedTotal:  m.generated.Load(),
		MeshedTotal:     m.meshed.Load(),
		StaleTotal:      m.stale.Load(),
		AbortedTotal:    m.aborted.Load(),
	}
	for _, s := range m.cache.Slots() {
		st.Resident++
		switch s.State() {
		case StateUninitialized:
			st.Uninitialized++
		case StateGenerated:
			st.Generated++
		case StateRendered:
			st.Rendered++
		}
	}
	return st
}

// Idle сообщает, что все поставленные задачи завершены
func (m *Manager) Idle() bool {
	return m.pool.Idle()
}

// Stop останавливает пул, дожидаясь выполнения принятых задач
func (m *Manager) Stop() {
	if m.stopped.Swap(true) {
		return
	}
	m.pool.Stop()
	m.logger.Info("Менеджер чанков остановлен: сгенерировано %d, сеток %d, устаревших %d",
		m.generated.Load(), m.meshed.Load(), m.stale.Load())
}

// IsStopped сообщает, был ли вызван Stop
func (m *Manager) IsStopped() bool {
	return m.stopped.Load()
}
