package render

import "sync"

type registrySlot struct {
	entry      Entry
	generation uint32
	alive      bool
}

// SparseRegistry - разреженный массив объектов с поколениями.
// Освобождённые индексы переиспользуются, а поколение в Handle
// не даёт удалить новый объект по старому дескриптору.
type SparseRegistry struct {
	mu    sync.RWMutex
	slots []registrySlot
	free  []uint32
	live  int
}

// NewSparseRegistry создаёт пустой реестр
func NewSparseRegistry() *SparseRegistry {
	return &SparseRegistry{}
}

// Insert добавляет объект и возвращает его дескриптор
func (r *SparseRegistry) Insert(e Entry) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, registrySlot{})
	}
	s := &r.slots[idx]
	s.entry = e
	s.alive = true
	r.live++
	return Handle{Index: idx, Generation: s.generation}
}

// Remove удаляет объект. Возвращает false для устаревшего или неизвестного дескриптора.
func (r *SparseRegistry) Remove(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(h.Index) >= len(r.slots) {
		return false
	}
	s := &r.slots[h.Index]
	if !s.alive || s.generation != h.Generation {
		return false
	}
	s.alive = false
	s.entry = Entry{}
	s.generation++
	r.free = append(r.free, h.Index)
	r.live--
	return true
}

// Get возвращает объект по дескриптору
func (r *SparseRegistry) Get(h Handle) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(h.Index) >= len(r.slots) {
		return Entry{}, false
	}
	s := r.slots[h.Index]
	if !s.alive || s.generation != h.Generation {
		return Entry{}, false
	}
	return s.entry, true
}

// Len возвращает число живых объектов
func (r *SparseRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.live
}

// Each обходит живые объекты
func (r *SparseRegistry) Each(fn func(Handle, Entry)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, s := range r.slots {
		if s.alive {
			fn(Handle{Index: uint32(i), Generation: s.generation}, s.entry)
		}
	}
}
