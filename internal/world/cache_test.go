package world

import (
	"math/rand"
	"testing"

	"github.com/annel0/voxel-streamer/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recycleLog struct {
	coords []vec.Vec2
	states []State
}

func (r *recycleLog) hook(old vec.Vec2, st State) {
	r.coords = append(r.coords, old)
	r.states = append(r.states, st)
}

func requireWindow(t *testing.T, c *Cache) {
	t.Helper()
	w := c.Width()
	center := c.Center()
	v := c.ViewDistance()

	require.Equal(t, w*w, c.Len())
	seen := make(map[vec.Vec2]bool, w*w)
	for _, s := range c.Slots() {
		coord := s.Coord()
		require.False(t, seen[coord], "координата %v встречается дважды", coord)
		seen[coord] = true
		require.LessOrEqual(t, abs(coord.X-center.X), v, "%v вне окна %v", coord, center)
		require.LessOrEqual(t, abs(coord.Z-center.Z), v, "%v вне окна %v", coord, center)
	}
	for x := center.X - v; x <= center.X+v; x++ {
		for z := center.Z - v; z <= center.Z+v; z++ {
			coord := vec.Vec2{X: x, Z: z}
			s := c.Get(coord)
			require.NotNil(t, s, "%v должен быть резидентным", coord)
			require.Equal(t, coord, s.Coord())
		}
	}
}

func TestNewCacheRejectsInvalidViewDistance(t *testing.T) {
	_, err := NewCache(0, vec.Vec2{}, nil)
	assert.ErrorIs(t, err, ErrInvalidViewDistance)
	assert.True(t, IsConfigError(err))
}

func TestCacheWindowHoldsUnderRandomSlides(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, v := range []int{1, 2, 4} {
		c, err := NewCache(v, vec.Vec2{X: 3, Z: -9}, nil)
		require.NoError(t, err)
		requireWindow(t, c)

		for i := 0; i < 300; i++ {
			dx, dz := rng.Intn(2*v+5)-(v+2), rng.Intn(2*v+5)-(v+2)
			before := c.Center()
			recycled := c.Slide(dx, dz)

			assert.Equal(t, vec.Vec2{X: before.X + dx, Z: before.Z + dz}, c.Center())
			assert.LessOrEqual(t, len(recycled), c.Len())
			requireWindow(t, c)

			// Возвращены ровно новые координаты
			for _, s := range recycled {
				coord := s.Coord()
				wasInside := abs(coord.X-before.X) <= v && abs(coord.Z-before.Z) <= v
				assert.False(t, wasInside, "%v уже был в окне", coord)
				assert.Equal(t, StateUninitialized, s.State())
			}
		}
	}
}

func TestCacheSlideEastOneChunk(t *testing.T) {
	var log recycleLog
	c, err := NewCache(1, vec.Vec2{}, log.hook)
	require.NoError(t, err)

	recycled := c.Slide(1, 0)
	require.Len(t, recycled, 3)

	var newCoords []vec.Vec2
	for _, s := range recycled {
		newCoords = append(newCoords, s.Coord())
		assert.Equal(t, uint64(1), s.Generation())
	}
	assert.ElementsMatch(t, []vec.Vec2{{X: 2, Z: -1}, {X: 2, Z: 0}, {X: 2, Z: 1}}, newCoords)
	assert.ElementsMatch(t, []vec.Vec2{{X: -1, Z: -1}, {X: -1, Z: 0}, {X: -1, Z: 1}}, log.coords)

	for z := -1; z <= 1; z++ {
		assert.False(t, c.Contains(vec.Vec2{X: -1, Z: z}))
		for x := 0; x <= 1; x++ {
			assert.Equal(t, uint64(0), c.Get(vec.Vec2{X: x, Z: z}).Generation(), "остальные слоты не трогаются")
		}
	}
}

func TestCacheSlideBothAxesDeduplicates(t *testing.T) {
	c, err := NewCache(1, vec.Vec2{}, nil)
	require.NoError(t, err)

	recycled := c.Slide(1, 1)
	require.Len(t, recycled, 5)

	corner := c.Get(vec.Vec2{X: 2, Z: 2})
	assert.Contains(t, recycled, corner)
	assert.Equal(t, uint64(2), corner.Generation(), "угловой слот переиспользован дважды")
}

func TestCacheSlideFarRecyclesEverySlotOnce(t *testing.T) {
	var log recycleLog
	c, err := NewCache(1, vec.Vec2{}, log.hook)
	require.NoError(t, err)

	recycled := c.Slide(10, -1)
	assert.Len(t, recycled, 9)
	assert.Len(t, log.coords, 9)
	assert.Equal(t, vec.Vec2{X: 10, Z: -1}, c.Center())
	for _, s := range recycled {
		assert.Equal(t, uint64(1), s.Generation())
	}
	requireWindow(t, c)

	assert.Nil(t, c.Slide(0, 0))
}

func TestCacheRecenterAndReset(t *testing.T) {
	c, err := NewCache(2, vec.Vec2{}, nil)
	require.NoError(t, err)

	recycled := c.Recenter(vec.Vec2{X: -1, Z: 0})
	assert.Len(t, recycled, 5)
	requireWindow(t, c)

	all := c.Reset(vec.Vec2{X: 4, Z: 4})
	assert.Len(t, all, 25)
	assert.Equal(t, vec.Vec2{X: 4, Z: 4}, c.Center())
	requireWindow(t, c)
}

func TestCacheResizeRetiresOldSlots(t *testing.T) {
	var log recycleLog
	c, err := NewCache(1, vec.Vec2{}, log.hook)
	require.NoError(t, err)
	old := c.Get(vec.Vec2{})

	slots, err := c.Resize(2, vec.Vec2{X: 1})
	require.NoError(t, err)
	assert.Len(t, slots, 25)
	assert.Len(t, log.coords, 9)
	assert.Equal(t, uint64(1), old.Generation(), "старые задачи должны стать устаревшими")
	assert.NotSame(t, old, c.Get(vec.Vec2{}))
	requireWindow(t, c)

	_, err = c.Resize(0, vec.Vec2{})
	assert.ErrorIs(t, err, ErrInvalidViewDistance)
}

func TestCacheCommitChecksGeneration(t *testing.T) {
	c, err := NewCache(1, vec.Vec2{}, nil)
	require.NoError(t, err)
	s := c.Get(vec.Vec2{X: -1})
	gen := s.Generation()

	ran := false
	assert.True(t, c.Commit(s, gen, func() { ran = true }))
	assert.True(t, ran)

	c.Slide(1, 0)
	ran = false
	assert.False(t, c.Commit(s, gen, func() { ran = true }))
	assert.False(t, ran, "после смены поколения эффект недопустим")
}

func TestCacheRecycleReportsOldState(t *testing.T) {
	var log recycleLog
	c, err := NewCache(1, vec.Vec2{}, log.hook)
	require.NoError(t, err)

	s := c.Get(vec.Vec2{X: -1, Z: 0})
	require.True(t, s.publish(0, StateRendered, nil))

	c.Slide(1, 0)
	for i, coord := range log.coords {
		if coord == (vec.Vec2{X: -1, Z: 0}) {
			assert.Equal(t, StateRendered, log.states[i])
		} else {
			assert.Equal(t, StateUninitialized, log.states[i])
		}
	}
}
