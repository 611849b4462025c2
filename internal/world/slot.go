package world

import (
	"sync/atomic"

	"github.com/annel0/voxel-streamer/internal/vec"
	"github.com/annel0/voxel-streamer/internal/world/chunk"
)

// State - стадия жизненного цикла слота
type State int32

const (
	StateUninitialized State = iota // данные ещё не сгенерированы
	StateGenerated                  // блоки готовы, сетки нет
	StateRendered                   // сетка построена и отправлена в очередь
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateGenerated:
		return "generated"
	case StateRendered:
		return "rendered"
	default:
		return "unknown"
	}
}

// slotRecord - неизменяемый снимок слота. Новая версия публикуется целиком,
// поэтому читатель никогда не увидит данные одного поколения с номером другого.
type slotRecord struct {
	coord vec.Vec2
	gen   uint64
	state State
	data  *chunk.Data
}

// Slot - ячейка кольцевого буфера кеша
type Slot struct {
	rec atomic.Pointer[slotRecord]
}

func newSlot(coord vec.Vec2, gen uint64) *Slot {
	s := &Slot{}
	s.rec.Store(&slotRecord{coord: coord, gen: gen, state: StateUninitialized, data: chunk.New(coord)})
	return s
}

// Snapshot - согласованная копия состояния слота
type Snapshot struct {
	Coord      vec.Vec2
	Generation uint64
	State      State
	Data       *chunk.Data
}

// Snapshot возвращает текущее состояние слота одним атомарным чтением
func (s *Slot) Snapshot() Snapshot {
	r := s.rec.Load()
	return Snapshot{Coord: r.coord, Generation: r.gen, State: r.state, Data: r.data}
}

// Coord возвращает координату, которую сейчас занимает слот
func (s *Slot) Coord() vec.Vec2 {
	return s.rec.Load().coord
}

// Generation возвращает номер поколения
func (s *Slot) Generation() uint64 {
	return s.rec.Load().gen
}

// State возвращает стадию жизненного цикла
func (s *Slot) State() State {
	return s.rec.Load().state
}

// Data возвращает снимок блоков. Указатель остаётся валидным после переиспользования слота.
func (s *Slot) Data() *chunk.Data {
	return s.rec.Load().data
}

// publish заменяет данные и стадию, если поколение не изменилось
func (s *Slot) publish(gen uint64, state State, data *chunk.Data) bool {
	for {
		cur := s.rec.Load()
		if cur.gen != gen {
			return false
		}
		next := &slotRecord{coord: cur.coord, gen: gen, state: state, data: data}
		if data == nil {
			next.data = cur.data
		}
		if s.rec.CompareAndSwap(cur, next) {
			return true
		}
	}
}

// recycle переводит слот на новую координату со следующим поколением.
// Возвращает прежнее состояние.
func (s *Slot) recycle(coord vec.Vec2) slotRecord {
	for {
		cur := s.rec.Load()
		next := &slotRecord{coord: coord, gen: cur.gen + 1, state: StateUninitialized, data: chunk.New(coord)}
		if s.rec.CompareAndSwap(cur, next) {
			return *cur
		}
	}
}

// retire только увеличивает поколение, чтобы задачи старого кольца стали устаревшими
func (s *Slot) retire() slotRecord {
	for {
		cur := s.rec.Load()
		next := &slotRecord{coord: cur.coord, gen: cur.gen + 1, state: StateUninitialized, data: cur.data}
		if s.rec.CompareAndSwap(cur, next) {
			return *cur
		}
	}
}
