package meshing

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// GeometryData содержит буферы вершин и индексов одной сетки.
// Позиции заданы в локальных координатах чанка.
type GeometryData struct {
	Positions []float32 // xyz на вершину
	Normals   []float32 // xyz на вершину
	Colors    []float32 // rgba на вершину, уже с учётом AO и света
	Occlusion []float32 // множитель ambient occlusion на вершину
	Indices   []uint32  // 6 индексов на грань
}

// VertexCount возвращает число вершин
func (g GeometryData) VertexCount() int {
	return len(g.Positions) / 3
}

// FaceCount возвращает число четырёхугольных граней
func (g GeometryData) FaceCount() int {
	return len(g.Indices) / 6
}

// Empty сообщает, что в сетке нет видимой геометрии
func (g GeometryData) Empty() bool {
	return len(g.Indices) == 0
}

// Clone создаёт глубокую копию данных, чтобы буфер из пула можно было переиспользовать.
func (g GeometryData) Clone() GeometryData {
	clone := GeometryData{}
	if len(g.Positions) > 0 {
		clone.Positions = append([]float32(nil), g.Positions...)
	}
	if len(g.Normals) > 0 {
		clone.Normals = append([]float32(nil), g.Normals...)
	}
	if len(g.Colors) > 0 {
		clone.Colors = append([]float32(nil), g.Colors...)
	}
	if len(g.Occlusion) > 0 {
		clone.Occlusion = append([]float32(nil), g.Occlusion...)
	}
	if len(g.Indices) > 0 {
		clone.Indices = append([]uint32(nil), g.Indices...)
	}
	return clone
}

// Result - непрозрачная и прозрачная геометрия одного чанка
type Result struct {
	Opaque      GeometryData
	Transparent GeometryData
}

// Empty возвращает true, если у чанка нет ни одной видимой грани
func (r Result) Empty() bool {
	return r.Opaque.Empty() && r.Transparent.Empty()
}

// Пул буферов, чтобы не нагружать GC на каждом чанке
var meshBufferPool = sync.Pool{
	New: func() interface{} {
		return &meshBuffer{
			geometry: GeometryData{
				Positions: make([]float32, 0, 4096),
				Normals:   make([]float32, 0, 4096),
				Colors:    make([]float32, 0, 4096),
				Occlusion: make([]float32, 0, 1024),
				Indices:   make([]uint32, 0, 2048),
			},
		}
	},
}

func getMeshBuffer() *meshBuffer {
	return meshBufferPool.Get().(*meshBuffer)
}

func putMeshBuffer(b *meshBuffer) {
	if b == nil {
		return
	}
	b.geometry.Positions = b.geometry.Positions[:0]
	b.geometry.Normals = b.geometry.Normals[:0]
	b.geometry.Colors = b.geometry.Colors[:0]
	b.geometry.Occlusion = b.geometry.Occlusion[:0]
	b.geometry.Indices = b.geometry.Indices[:0]
	meshBufferPool.Put(b)
}

// meshBuffer накапливает грани одной сетки
type meshBuffer struct {
	geometry GeometryData
}

// addQuad добавляет грань из четырёх вершин (против часовой стрелки снаружи).
// flip меняет диагональ разбиения на треугольники.
func (b *meshBuffer) addQuad(corners [4]mgl32.Vec3, normal mgl32.Vec3, colors [4]mgl32.Vec4, ao [4]float32, flip bool) {
	base := uint32(b.geometry.VertexCount())
	for i := 0; i < 4; i++ {
		b.addVertex(corners[i], normal, colors[i], ao[i])
	}

	if flip {
		// Треугольники (1, 2, 3) и (1, 3, 0)
		b.geometry.Indices = append(b.geometry.Indices, base+1, base+2, base+3, base+1, base+3, base)
		return
	}
	// Треугольники (0, 1, 2) и (0, 2, 3)
	b.geometry.Indices = append(b.geometry.Indices, base, base+1, base+2, base, base+2, base+3)
}

func (b *meshBuffer) addVertex(v, n mgl32.Vec3, c mgl32.Vec4, ao float32) {
	b.geometry.Positions = append(b.geometry.Positions, v[0], v[1], v[2])
	b.geometry.Normals = append(b.geometry.Normals, n[0], n[1], n[2])
	b.geometry.Colors = append(b.geometry.Colors, c[0], c[1], c[2], c[3])
	b.geometry.Occlusion = append(b.geometry.Occlusion, ao)
}
