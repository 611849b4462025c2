package world

import (
	"sync"

	"github.com/annel0/voxel-streamer/internal/vec"
)

// barrierEntry хранит соседей, генерации которых ещё ждёт чанк
type barrierEntry struct {
	waiting map[vec.Vec2]struct{}
}

// Barrier - счётный шлюз "все 8 соседей сгенерированы".
// Вместо голого счётчика запись хранит множество ожидаемых соседей,
// поэтому повторный сигнал или сигнал от чужого чанка ничего не ломает.
// Запись срабатывает, только когда сам чанк тоже отмечен как присутствующий.
type Barrier struct {
	mu      sync.Mutex
	present map[vec.Vec2]struct{}
	entries map[vec.Vec2]*barrierEntry
}

// NewBarrier создаёт пустой барьер
func NewBarrier() *Barrier {
	return &Barrier{
		present: make(map[vec.Vec2]struct{}),
		entries: make(map[vec.Vec2]*barrierEntry),
	}
}

// Init создаёт (или пересоздаёт) запись для coord, ожидающую всех соседей,
// которые ещё не отмечены как присутствующие
func (b *Barrier) Init(coord vec.Vec2) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := &barrierEntry{waiting: make(map[vec.Vec2]struct{}, 8)}
	for _, n := range coord.Neighbors() {
		if _, ok := b.present[n]; !ok {
			e.waiting[n] = struct{}{}
		}
	}
	b.entries[coord] = e
}

// MarkPresent отмечает, что данные coord сгенерированы
func (b *Barrier) MarkPresent(coord vec.Vec2) {
	b.mu.Lock()
	b.present[coord] = struct{}{}
	b.mu.Unlock()
}

// IsPresent сообщает, отмечен ли coord как сгенерированный
func (b *Barrier) IsPresent(coord vec.Vec2) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.present[coord]
	return ok
}

// Signal сообщает записи coord, что сосед from завершил генерацию.
// Возвращает true ровно один раз: когда ждать больше некого и сам coord присутствует.
// Сработавшая запись удаляется. Без записи или для неожидаемого from - no-op.
func (b *Barrier) Signal(coord, from vec.Vec2) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[coord]
	if !ok {
		return false
	}
	if _, waiting := e.waiting[from]; !waiting {
		return false
	}
	delete(e.waiting, from)
	return b.consumeLocked(coord, e)
}

// TryConsumeReady забирает запись coord, если все ожидаемые соседи уже присутствуют.
// Покрывает случаи, когда соседи были готовы до Init или отметились без сигнала.
func (b *Barrier) TryConsumeReady(coord vec.Vec2) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[coord]
	if !ok {
		return false
	}
	for n := range e.waiting {
		if _, present := b.present[n]; !present {
			return false
		}
		delete(e.waiting, n)
	}
	return b.consumeLocked(coord, e)
}

func (b *Barrier) consumeLocked(coord vec.Vec2, e *barrierEntry) bool {
	if len(e.waiting) > 0 {
		return false
	}
	if _, self := b.present[coord]; !self {
		return false
	}
	delete(b.entries, coord)
	return true
}

// Cancel удаляет запись и отметку присутствия coord (чанк покинул окно).
// Живые записи соседей снова начинают ждать coord.
func (b *Barrier) Cancel(coord vec.Vec2) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.entries, coord)
	if _, ok := b.present[coord]; !ok {
		return
	}
	delete(b.present, coord)
	for _, n := range coord.Neighbors() {
		if e, ok := b.entries[n]; ok {
			e.waiting[coord] = struct{}{}
		}
	}
}

// Pending сообщает, есть ли у coord активная запись
func (b *Barrier) Pending(coord vec.Vec2) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[coord]
	return ok
}

// Remaining возвращает число соседей, которых ждёт запись (-1 если записи нет)
func (b *Barrier) Remaining(coord vec.Vec2) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[coord]
	if !ok {
		return -1
	}
	return len(e.waiting)
}

// Len возвращает число активных записей
func (b *Barrier) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
