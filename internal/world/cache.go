package world

import (
	"fmt"
	"sync"

	"github.com/annel0/voxel-streamer/internal/vec"
)

// RecycleFunc вызывается для каждого слота, покидающего окно.
// Выполняется под эксклюзивной блокировкой кеша: методы Cache из неё вызывать нельзя.
type RecycleFunc func(old vec.Vec2, oldState State)

// Cache - квадратное окно (2v+1)² слотов вокруг наблюдателя.
// Слоты лежат в кольцевом буфере: при сдвиге переиспользуется только
// уходящая строка или колонка, остальные данные не копируются.
type Cache struct {
	mu        sync.RWMutex
	view      int
	width     int
	origin    vec.Vec2 // мировая координата угла окна (center - v)
	ring      vec.Vec2 // индекс буфера, соответствующий origin
	slots     []*Slot
	onRecycle RecycleFunc
}

// NewCache создаёт окно с центром в center
func NewCache(viewDistance int, center vec.Vec2, onRecycle RecycleFunc) (*Cache, error) {
	if viewDistance < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidViewDistance, viewDistance)
	}
	c := &Cache{onRecycle: onRecycle}
	c.build(viewDistance, center)
	return c, nil
}

func (c *Cache) build(viewDistance int, center vec.Vec2) {
	c.view = viewDistance
	c.width = 2*viewDistance + 1
	c.origin = vec.Vec2{X: center.X - viewDistance, Z: center.Z - viewDistance}
	c.ring = vec.Vec2{}
	c.slots = make([]*Slot, c.width*c.width)
	for lz := 0; lz < c.width; lz++ {
		for lx := 0; lx < c.width; lx++ {
			c.slots[lz*c.width+lx] = newSlot(vec.Vec2{X: c.origin.X + lx, Z: c.origin.Z + lz}, 0)
		}
	}
}

// bufferIndex переводит локальные координаты окна в индекс кольцевого буфера
func (c *Cache) bufferIndex(lx, lz int) int {
	bx := vec.FloorMod(c.ring.X+lx, c.width)
	bz := vec.FloorMod(c.ring.Z+lz, c.width)
	return bz*c.width + bx
}

func (c *Cache) containsLocked(coord vec.Vec2) bool {
	lx, lz := coord.X-c.origin.X, coord.Z-c.origin.Z
	return lx >= 0 && lx < c.width && lz >= 0 && lz < c.width
}

func (c *Cache) getLocked(coord vec.Vec2) *Slot {
	if !c.containsLocked(coord) {
		return nil
	}
	return c.slots[c.bufferIndex(coord.X-c.origin.X, coord.Z-c.origin.Z)]
}

// Get возвращает слот координаты или nil, если она вне окна
func (c *Cache) Get(coord vec.Vec2) *Slot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.getLocked(coord)
}

// Contains проверяет, лежит ли координата внутри окна
func (c *Cache) Contains(coord vec.Vec2) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.containsLocked(coord)
}

// Slide сдвигает окно на (dx, dz) чанков и возвращает слоты, которым нужна генерация.
// Сдвиг выполняется единичными шагами по каждой оси; сдвиг на ширину окна
// и больше переиспользует каждый слот один раз.
func (c *Cache) Slide(dx, dz int) []*Slot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dx == 0 && dz == 0 {
		return nil
	}
	if abs(dx) >= c.width || abs(dz) >= c.width {
		center := vec.Vec2{X: c.origin.X + c.view + dx, Z: c.origin.Z + c.view + dz}
		return c.resetLocked(center)
	}

	var recycled []*Slot
	for ; dx > 0; dx-- {
		recycled = append(recycled, c.stepX(1)...)
	}
	for ; dx < 0; dx++ {
		recycled = append(recycled, c.stepX(-1)...)
	}
	for ; dz > 0; dz-- {
		recycled = append(recycled, c.stepZ(1)...)
	}
	for ; dz < 0; dz++ {
		recycled = append(recycled, c.stepZ(-1)...)
	}
	return dedupSlots(recycled)
}

// stepX сдвигает окно на один чанк по X и переиспользует уходящую колонку
func (c *Cache) stepX(dir int) []*Slot {
	var bx, newX int
	if dir > 0 {
		// Уходит колонка lx=0, её буфер становится колонкой lx=w-1
		bx = vec.FloorMod(c.ring.X, c.width)
		c.origin.X++
		c.ring.X = vec.FloorMod(c.ring.X+1, c.width)
		newX = c.origin.X + c.width - 1
	} else {
		bx = vec.FloorMod(c.ring.X+c.width-1, c.width)
		c.origin.X--
		c.ring.X = bx
		newX = c.origin.X
	}

	out := make([]*Slot, 0, c.width)
	for lz := 0; lz < c.width; lz++ {
		bz := vec.FloorMod(c.ring.Z+lz, c.width)
		s := c.slots[bz*c.width+bx]
		c.recycleLocked(s, vec.Vec2{X: newX, Z: c.origin.Z + lz})
		out = append(out, s)
	}
	return out
}

// stepZ сдвигает окно на один чанк по Z и переиспользует уходящую строку
func (c *Cache) stepZ(dir int) []*Slot {
	var bz, newZ int
	if dir > 0 {
		bz = vec.FloorMod(c.ring.Z, c.width)
		c.origin.Z++
		c.ring.Z = vec.FloorMod(c.ring.Z+1, c.width)
		newZ = c.origin.Z + c.width - 1
	} else {
		bz = vec.FloorMod(c.ring.Z+c.width-1, c.width)
		c.origin.Z--
		c.ring.Z = bz
		newZ = c.origin.Z
	}

	out := make([]*Slot, 0, c.width)
	for lx := 0; lx < c.width; lx++ {
		bx := vec.FloorMod(c.ring.X+lx, c.width)
		s := c.slots[bz*c.width+bx]
		c.recycleLocked(s, vec.Vec2{X: c.origin.X + lx, Z: newZ})
		out = append(out, s)
	}
	return out
}

func (c *Cache) recycleLocked(s *Slot, coord vec.Vec2) {
	old := s.recycle(coord)
	if c.onRecycle != nil {
		c.onRecycle(old.coord, old.state)
	}
}

// Recenter сдвигает окно так, чтобы его центром стал center
func (c *Cache) Recenter(center vec.Vec2) []*Slot {
	cur := c.Center()
	return c.Slide(center.X-cur.X, center.Z-cur.Z)
}

// Reset переиспользует все слоты для окна вокруг center
func (c *Cache) Reset(center vec.Vec2) []*Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetLocked(center)
}

func (c *Cache) resetLocked(center vec.Vec2) []*Slot {
	c.origin = vec.Vec2{X: center.X - c.view, Z: center.Z - c.view}
	c.ring = vec.Vec2{}

	out := make([]*Slot, 0, len(c.slots))
	for lz := 0; lz < c.width; lz++ {
		for lx := 0; lx < c.width; lx++ {
			s := c.slots[lz*c.width+lx]
			c.recycleLocked(s, vec.Vec2{X: c.origin.X + lx, Z: c.origin.Z + lz})
			out = append(out, s)
		}
	}
	return out
}

// Resize меняет дальность прорисовки. Все старые слоты выводятся из оборота
// (их поколение увеличивается), новое кольцо строится целиком.
func (c *Cache) Resize(viewDistance int, center vec.Vec2) ([]*Slot, error) {
	if viewDistance < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidViewDistance, viewDistance)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.slots {
		old := s.retire()
		if c.onRecycle != nil {
			c.onRecycle(old.coord, old.state)
		}
	}
	c.build(viewDistance, center)
	return append([]*Slot(nil), c.slots...), nil
}

// Commit выполняет fn, только если слот всё ещё несёт поколение gen.
// Пока fn работает, окно не может сдвинуться; fn не должна вызывать методы Cache.
func (c *Cache) Commit(s *Slot, gen uint64, fn func()) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if s.Generation() != gen {
		return false
	}
	fn()
	return true
}

// Width возвращает ширину окна (2v+1)
func (c *Cache) Width() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width
}

// Len возвращает число слотов
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.slots)
}

// ViewDistance возвращает текущую дальность прорисовки
func (c *Cache) ViewDistance() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Center возвращает координату центра окна
func (c *Cache) Center() vec.Vec2 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return vec.Vec2{X: c.origin.X + c.view, Z: c.origin.Z + c.view}
}

// Slots возвращает копию списка слотов в порядке буфера
func (c *Cache) Slots() []*Slot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Slot(nil), c.slots...)
}

func dedupSlots(in []*Slot) []*Slot {
	seen := make(map[*Slot]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
