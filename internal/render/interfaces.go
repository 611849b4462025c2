package render

import (
	"github.com/annel0/voxel-streamer/internal/meshing"
	"github.com/annel0/voxel-streamer/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// MeshHandle - идентификатор загруженной на GPU сетки
type MeshHandle uint64

// InvalidMesh - нулевой дескриптор, который никогда не выдаётся
const InvalidMesh MeshHandle = 0

// MeshUploader загружает буферы вершин и индексов.
// Все вызовы выполняются только из потока отрисовки.
type MeshUploader interface {
	Register(geom *meshing.GeometryData) MeshHandle
	Release(h MeshHandle)
}

// Handle - дескриптор объекта в реестре отрисовки (индекс + поколение)
type Handle struct {
	Index      uint32
	Generation uint32
}

// Entry - объект сцены, рисующий одну сетку чанка
type Entry struct {
	Coord       vec.Vec2
	Mesh        MeshHandle
	Transparent bool
	Origin      mgl32.Vec3 // мировое смещение локальных позиций сетки
	Faces       int
}

// ObjectRegistry хранит объекты сцены
type ObjectRegistry interface {
	Insert(e Entry) Handle
	Remove(h Handle) bool
}
