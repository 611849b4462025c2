package render

import (
	"sync"

	"github.com/annel0/voxel-streamer/internal/meshing"
)

// MemoryUploader - загрузчик без GPU: хранит только размеры буферов.
// Используется в headless-режиме и тестах.
type MemoryUploader struct {
	mu       sync.Mutex
	next     MeshHandle
	meshes   map[MeshHandle]meshInfo
	released uint64
}

type meshInfo struct {
	vertices int
	indices  int
}

// NewMemoryUploader создаёт пустой загрузчик
func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{meshes: make(map[MeshHandle]meshInfo)}
}

// Register запоминает сетку и выдаёт новый дескриптор
func (u *MemoryUploader) Register(geom *meshing.GeometryData) MeshHandle {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.next++
	u.meshes[u.next] = meshInfo{vertices: geom.VertexCount(), indices: len(geom.Indices)}
	return u.next
}

// Release освобождает сетку; неизвестный дескриптор игнорируется
func (u *MemoryUploader) Release(h MeshHandle) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.meshes[h]; ok {
		delete(u.meshes, h)
		u.released++
	}
}

// Live возвращает число загруженных сеток
func (u *MemoryUploader) Live() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.meshes)
}

// Released возвращает число освобождённых сеток
func (u *MemoryUploader) Released() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.released
}

// Vertices возвращает суммарное число вершин живых сеток
func (u *MemoryUploader) Vertices() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	total := 0
	for _, m := range u.meshes {
		total += m.vertices
	}
	return total
}
