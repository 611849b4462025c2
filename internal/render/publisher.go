package render

import (
	"sync"

	"github.com/annel0/voxel-streamer/internal/logging"
	"github.com/annel0/voxel-streamer/internal/meshing"
	"github.com/annel0/voxel-streamer/internal/vec"
	"github.com/annel0/voxel-streamer/internal/world"
	"github.com/annel0/voxel-streamer/internal/world/chunk"
	"github.com/go-gl/mathgl/mgl32"
)

// chunkModel - объекты сцены одного чанка
type chunkModel struct {
	generation  uint64
	parts       []modelPart
	opaqueFaces int
	liquidFaces int
}

type modelPart struct {
	mesh   MeshHandle
	handle Handle
}

// PublisherStats - счётчики публикатора
type PublisherStats struct {
	Chunks    int    `json:"chunks"`
	Objects   int    `json:"objects"`
	Faces     int    `json:"faces"`
	Published uint64 `json:"published"`
	Tombs     uint64 `json:"tombstones"`
	Evicted   uint64 `json:"evicted"`
}

// Publisher переносит готовые сетки в загрузчик и реестр объектов.
// Реализует world.ReadySink; Publish и Evict вызываются из потока отрисовки,
// остальные методы безопасны для чтения из других горутин.
type Publisher struct {
	mu       sync.RWMutex
	uploader MeshUploader
	registry ObjectRegistry
	models   map[vec.Vec2]*chunkModel
	logger   *logging.Logger
	stats    PublisherStats
}

var _ world.ReadySink = (*Publisher)(nil)

// NewPublisher создаёт публикатор поверх загрузчика и реестра
func NewPublisher(uploader MeshUploader, registry ObjectRegistry, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		uploader: uploader,
		registry: registry,
		models:   make(map[vec.Vec2]*chunkModel),
		logger:   logger,
	}
}

// Publish заменяет объекты чанка новой геометрией.
// Пустая геометрия только снимает прежние объекты.
func (p *Publisher) Publish(m world.ReadyMesh) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Если объекты для этой координаты уже есть, освобождаем их
	p.releaseLocked(m.Coord)

	if m.Empty() {
		p.stats.Tombs++
		p.logger.Trace("Чанк (%d, %d) без видимой геометрии", m.Coord.X, m.Coord.Z)
		return
	}

	model := &chunkModel{
		generation:  m.Generation,
		opaqueFaces: m.Mesh.Opaque.FaceCount(),
		liquidFaces: m.Mesh.Transparent.FaceCount(),
	}
	origin := mgl32.Vec3{float32(m.Coord.X * chunk.Size), 0, float32(m.Coord.Z * chunk.Size)}
	p.uploadPart(model, m.Coord, origin, &m.Mesh.Opaque, false)
	p.uploadPart(model, m.Coord, origin, &m.Mesh.Transparent, true)

	p.models[m.Coord] = model
	p.stats.Published++
}

func (p *Publisher) uploadPart(model *chunkModel, coord vec.Vec2, origin mgl32.Vec3, geom *meshing.GeometryData, transparent bool) {
	if geom.Empty() {
		return
	}
	mh := p.uploader.Register(geom)
	h := p.registry.Insert(Entry{
		Coord:       coord,
		Mesh:        mh,
		Transparent: transparent,
		Origin:      origin,
		Faces:       geom.FaceCount(),
	})
	model.parts = append(model.parts, modelPart{mesh: mh, handle: h})
}

// Evict снимает объекты чанка, покинувшего окно
func (p *Publisher) Evict(coord vec.Vec2) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.releaseLocked(coord) {
		p.stats.Evicted++
	}
}

func (p *Publisher) releaseLocked(coord vec.Vec2) bool {
	model, ok := p.models[coord]
	if !ok {
		return false
	}
	for _, part := range model.parts {
		if !p.registry.Remove(part.handle) {
			p.logger.Warn("Объект %v чанка (%d, %d) уже удалён из реестра", part.handle, coord.X, coord.Z)
		}
		p.uploader.Release(part.mesh)
	}
	delete(p.models, coord)
	return true
}

// Has сообщает, есть ли у чанка опубликованные объекты
func (p *Publisher) Has(coord vec.Vec2) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.models[coord]
	return ok
}

// Generation возвращает поколение опубликованной сетки чанка
func (p *Publisher) Generation(coord vec.Vec2) (uint64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	model, ok := p.models[coord]
	if !ok {
		return 0, false
	}
	return model.generation, true
}

// Coords возвращает координаты опубликованных чанков
func (p *Publisher) Coords() []vec.Vec2 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]vec.Vec2, 0, len(p.models))
	for c := range p.models {
		out = append(out, c)
	}
	return out
}

// Stats возвращает снимок счётчиков
func (p *Publisher) Stats() PublisherStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := p.stats
	st.Chunks = len(p.models)
	for _, model := range p.models {
		st.Objects += len(model.parts)
		st.Faces += model.opaqueFaces + model.liquidFaces
	}
	return st
}

// Clear снимает все объекты (при завершении работы)
func (p *Publisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for coord := range p.models {
		p.releaseLocked(coord)
	}
}
